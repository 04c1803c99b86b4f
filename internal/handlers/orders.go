package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/lateeflat25-prog/9jabukabackend/internal/apperr"
	"github.com/lateeflat25-prog/9jabukabackend/internal/models"
	"github.com/lateeflat25-prog/9jabukabackend/internal/orders"
)

type OrderConfirmer interface {
	ConfirmBySessionID(ctx context.Context, sessionID string) (*orders.Result, error)
	ConfirmByWebhookEvent(ctx context.Context, payload []byte, signature string) (*orders.WebhookOutcome, error)
}

type StatusChanger interface {
	UpdateStatus(ctx context.Context, id, status string) (*models.Order, error)
}

type placeOrderRequest struct {
	SessionID string `json:"sessionId" binding:"required"`
}

// PlaceOrder confirms a checkout session from the client's success page.
func PlaceOrder(confirmer OrderConfirmer, logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/orders/place"

		var req placeOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, logger, route, err)
			return
		}

		result, err := confirmer.ConfirmBySessionID(c.Request.Context(), req.SessionID)
		if err != nil {
			respondAppError(c, logger, route, err)
			return
		}

		if result.Created {
			c.JSON(http.StatusCreated, gin.H{"message": "Order placed successfully", "order": result.Order})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Order already placed", "order": result.Order})
	}
}

func TrackOrder(store orders.Store, logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/orders/track/:referenceNumber"

		order, err := store.FindByReference(c.Request.Context(), c.Param("referenceNumber"))
		if errors.Is(err, orders.ErrNotFound) {
			respondAppError(c, logger, route, apperr.New(apperr.KindOrderNotFound, "Order not found"))
			return
		}
		if err != nil {
			respondAppError(c, logger, route, err)
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// ListOrders is the admin view, newest first. Pagination applies only when
// page or limit is given.
func ListOrders(store orders.Store, logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "GET /api/orders"

		opts := orders.ListOptions{}
		if raw := c.Query("status"); raw != "" {
			status, err := orders.ParseStatus(raw)
			if err != nil {
				respondAppError(c, logger, route, err)
				return
			}
			opts.Status = status
		}

		skip, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondWithError(c, logger, http.StatusBadRequest, route, err.Error())
			return
		}
		opts.Skip, opts.Limit = skip, limit

		list, total, err := store.ListOrders(c.Request.Context(), opts)
		if err != nil {
			respondAppError(c, logger, route, err)
			return
		}

		c.Header("X-Total-Count", strconv.FormatInt(total, 10))
		if limit == 0 {
			c.JSON(http.StatusOK, list)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"orders": list,
			"total":  total,
			"page":   skip/limit + 1,
			"limit":  limit,
		})
	}
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func UpdateOrderStatus(changer StatusChanger, logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "PATCH /api/orders/:id"

		var req updateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, logger, route, err)
			return
		}

		order, err := changer.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
		if err != nil {
			respondAppError(c, logger, route, err)
			return
		}

		requestLogger(c, logger, route).WithFields(logrus.Fields{
			"orderId": order.ID.Hex(),
			"status":  order.Status,
		}).Info("order status updated")
		c.JSON(http.StatusOK, order)
	}
}
