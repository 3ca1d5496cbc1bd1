package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kevinskey/gleeworld-sub014/internal/service/availability"
	"github.com/kevinskey/gleeworld-sub014/internal/service/booking"
	"github.com/kevinskey/gleeworld-sub014/internal/store"
)

// writeError maps service and storage errors onto HTTP statuses. Validation
// problems are the caller's to fix, conflicts mean "pick another time", and
// timeouts are retryable for reads only.
func writeError(c *gin.Context, log *slog.Logger, err error) {
	var bookingValidation *booking.ValidationError
	var availabilityValidation *availability.ValidationError
	var conflict *booking.ConflictError

	switch {
	case errors.As(err, &bookingValidation), errors.As(err, &availabilityValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "conflict"})
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, store.ErrTimeout):
		log.Warn("storage timeout", slog.String("path", c.FullPath()))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "temporarily unavailable"})
	default:
		log.Error("request failed", slog.String("path", c.FullPath()), slog.Any("err", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
