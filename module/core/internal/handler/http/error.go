package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Optimus825482/lujobuggy/module/core/domain"
	"github.com/Optimus825482/lujobuggy/module/core/internal/repository/database"
)

func writeError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, database.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "conflict"})
	case errors.Is(err, domain.ErrInvalidStatusTransition),
		errors.Is(err, domain.ErrVehicleNotAvailable),
		errors.Is(err, domain.ErrDropoffNotSet),
		errors.Is(err, domain.ErrStopInactive),
		errors.Is(err, domain.ErrPendingCallExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
