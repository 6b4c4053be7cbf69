package handlers

import (
	"net/http"

	"codearena/internal/common"
	"codearena/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondDomainError renders err per the sentinel taxonomy. Errors without a
// sentinel are logged and reported as a 500 with a generic message.
func respondDomainError(c *gin.Context, err error, message string) {
	status := common.HTTPStatusFromError(err)
	if status == http.StatusInternalServerError {
		logger.Log.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		message = "Failed to process request"
	}
	c.JSON(status, gin.H{"error": message})
}
