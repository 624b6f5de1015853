package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	apperrors "financemanager/internal/errors"
)

// PipelineAuthMiddleware guards batch endpoints with the X-API-Key header.
// Without a configured key the endpoints are disabled.
func PipelineAuthMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			abortWithError(c, apperrors.ErrPipelineNotConfigured)
			return
		}
		key := c.GetHeader("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			abortWithError(c, apperrors.ErrInvalidAPIKey)
			return
		}
		c.Next()
	}
}
