package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/lateeflat25-prog/9jabukabackend/internal/orders"
)

const (
	signatureHeader = "Stripe-Signature"
	maxWebhookBody  = 1 << 16
)

// StripeWebhook reads the raw body so the signature can be checked against
// exactly what was sent.
func StripeWebhook(confirmer OrderConfirmer, logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/orders/webhook"

		payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
		if err != nil {
			respondWithError(c, logger, http.StatusBadRequest, route, "unreadable body")
			return
		}

		outcome, err := confirmer.ConfirmByWebhookEvent(c.Request.Context(), payload, c.GetHeader(signatureHeader))
		if err != nil {
			respondAppError(c, logger, route, err)
			return
		}

		body := gin.H{"received": true, "action": outcome.Action}
		if outcome.Order != nil && outcome.Action != orders.WebhookRejected {
			body["referenceNumber"] = outcome.Order.ReferenceNumber
		}
		c.JSON(http.StatusOK, body)
	}
}
