package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/lateeflat25-prog/9jabukabackend/internal/checkout"
	"github.com/lateeflat25-prog/9jabukabackend/internal/models"
)

type SessionCreator interface {
	CreateSession(ctx context.Context, lines []models.CartLine, contact models.Contact) (*checkout.Session, error)
}

type checkoutRequest struct {
	Items            []models.CartLine `json:"items" binding:"required,min=1,dive"`
	MobileNumber     string            `json:"mobileNumber" binding:"required"`
	DeliveryLocation string            `json:"deliveryLocation" binding:"required"`
}

func CreateCheckoutSession(creator SessionCreator, logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/orders/create-checkout-session"

		var req checkoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, logger, route, err)
			return
		}

		session, err := creator.CreateSession(c.Request.Context(), req.Items, models.Contact{
			MobileNumber:     req.MobileNumber,
			DeliveryLocation: req.DeliveryLocation,
		})
		if err != nil {
			respondAppError(c, logger, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"id": session.ID, "url": session.URL})
	}
}
