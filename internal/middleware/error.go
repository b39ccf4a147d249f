package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "github.com/16navigabraham/Paycrypt-margin-price-api/internal/errors"
	"github.com/16navigabraham/Paycrypt-margin-price-api/internal/logger"
)

// ErrorHandler renders errors attached to the Gin context as the shared
// error envelope. AppErrors carry their own code and status. Anything else
// becomes a generic 500 so upstream provider details stay in the logs and
// never reach clients.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		// The last error wins; earlier ones were superseded down the chain.
		err := c.Errors.Last().Err

		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			if appErr.Internal != nil {
				logger.Get().Errorw("app error",
					"code", appErr.Code,
					"message", appErr.Message,
					"internal", appErr.Internal.Error(),
					"path", c.Request.URL.Path,
				)
			}
			c.JSON(appErr.StatusCode, gin.H{
				"error": gin.H{
					"code":    appErr.Code,
					"message": appErr.Message,
				},
			})
			return
		}

		logger.Get().Errorw("unexpected error",
			"error", err.Error(),
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
		)
		c.JSON(apperrors.ErrInternalServer.StatusCode, gin.H{
			"error": gin.H{
				"code":    apperrors.ErrInternalServer.Code,
				"message": apperrors.ErrInternalServer.Message,
			},
		})
	}
}
