package handlers

import (
	"errors"
	"net/http"

	"github.com/Conceptual-Machines/stagepost-api/internal/apperrors"
	"github.com/Conceptual-Machines/stagepost-api/internal/logger"
	"github.com/gin-gonic/gin"
)

// statusFor maps an error kind to its HTTP status
func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrPublishUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrPublish), errors.Is(err, apperrors.ErrGeneration):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage hides internal error detail behind a generic message
func publicMessage(err error, status int) string {
	if status == http.StatusInternalServerError {
		return "Internal server error"
	}
	return err.Error()
}

// respondError logs err and writes it as a JSON error response
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	fields := logger.WithContext(c)
	fields["status_code"] = status
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", err, fields)
	} else {
		fields["error"] = err.Error()
		logger.Warn("Request rejected", fields)
	}
	c.JSON(status, gin.H{"error": publicMessage(err, status)})
}
