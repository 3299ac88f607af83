package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yonima/shell/internal/domain"
)

const (
	errInternalServer  = "Internal server error"
	errSessionNotFound = "Session not found"
	errInvalidPhone    = "Numéro de téléphone invalide"
	errCodeLength      = "Verification code has the wrong length"
	errWrongScreen     = "Action not available on the current screen"
	errWrongStep       = "Action not available in the current sign-in step"
	errBusy            = "A request is already in flight"
	errCooldown        = "Resend is not available yet"
)

// writeError maps a domain error to its HTTP status. Anything unknown is
// logged and reported as a 500.
func writeError(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": errSessionNotFound})
	case errors.Is(err, domain.ErrInvalidPhone):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": errInvalidPhone})
	case errors.Is(err, domain.ErrCodeLength):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": errCodeLength})
	case errors.Is(err, domain.ErrWrongScreen):
		c.JSON(http.StatusConflict, gin.H{"error": errWrongScreen})
	case errors.Is(err, domain.ErrWrongStep), errors.Is(err, domain.ErrFlowClosed):
		c.JSON(http.StatusConflict, gin.H{"error": errWrongStep})
	case errors.Is(err, domain.ErrBusy):
		c.JSON(http.StatusConflict, gin.H{"error": errBusy})
	case errors.Is(err, domain.ErrCooldownActive):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": errCooldown})
	default:
		logger.ErrorContext(c.Request.Context(), "request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
	}
}
