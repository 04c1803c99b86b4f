package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type AdminAuthenticator interface {
	Login(ctx context.Context, email, password string) (string, error)
}

type AdminLoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func AdminLogin(auth AdminAuthenticator, logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		const route = "POST /api/admin/login"

		var req AdminLoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, logger, route, err)
			return
		}

		token, err := auth.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondAppError(c, logger, route, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"token": token})
	}
}
