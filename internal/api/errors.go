package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"bakerychat/internal/catalog"
	"bakerychat/internal/chat"
	"bakerychat/internal/logging"
	"bakerychat/internal/models"
)

// writeError maps domain errors onto status codes
func writeError(c *gin.Context, err error) {
	var persistence *models.PersistenceError
	switch {
	case chat.IsDelegation(err):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": chat.UnavailableMessage})
	case catalog.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &persistence):
		logging.FromContext(c).WithError(err).Error("write failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		logging.FromContext(c).WithError(err).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
	_ = c.Error(err)
}
