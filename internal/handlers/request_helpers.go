package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/lateeflat25-prog/9jabukabackend/internal/apperr"
	"github.com/lateeflat25-prog/9jabukabackend/internal/middleware"
)

func requestLogger(c *gin.Context, logger logrus.FieldLogger, route string) logrus.FieldLogger {
	return logger.WithFields(logrus.Fields{
		"route":     route,
		"requestId": middleware.CorrelationID(c),
	})
}

func respondWithError(c *gin.Context, logger logrus.FieldLogger, status int, route string, message string) {
	requestLogger(c, logger, route).WithField("status", status).Warn(message)
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// respondAppError writes client faults with their kind and hides server
// faults behind the correlation id.
func respondAppError(c *gin.Context, logger logrus.FieldLogger, route string, err error) {
	kind := apperr.KindOf(err)
	status := kind.HTTPStatus()
	entry := requestLogger(c, logger, route).WithFields(logrus.Fields{"status": status, "kind": kind})

	if kind.ClientFault() {
		entry.Info(err.Error())
		c.AbortWithStatusJSON(status, gin.H{"error": apperr.Message(err), "kind": kind})
		return
	}

	entry.WithError(err).Error("request failed")
	body := gin.H{"error": "internal server error", "correlationId": middleware.CorrelationID(c)}
	if kind == apperr.KindUpstreamUnavailable {
		body["error"] = "payment processor unavailable"
	}
	c.AbortWithStatusJSON(status, body)
}

// respondValidationError reports binding failures field by field.
func respondValidationError(c *gin.Context, logger logrus.FieldLogger, route string, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		respondWithError(c, logger, http.StatusBadRequest, route, "invalid request body")
		return
	}

	fields := make([]gin.H, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, gin.H{"field": fieldPath(fe), "message": validationMessage(fe)})
	}
	requestLogger(c, logger, route).WithField("fields", len(fields)).Info("validation failed")
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "validation failed", "errors": fields})
}

// fieldPath drops the top level struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must have at least %s entries", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
