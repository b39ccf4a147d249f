package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "github.com/16navigabraham/Paycrypt-margin-price-api/internal/errors"
	"github.com/16navigabraham/Paycrypt-margin-price-api/internal/logger"
	"github.com/16navigabraham/Paycrypt-margin-price-api/internal/validator"
)

// respondWithError writes a consistent JSON error response. If the error is an
// *AppError it uses the error's status code, code, and message. Otherwise it
// logs the unexpected error and returns a generic internal server error.
func respondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Internal != nil {
			logger.Get().Errorw("app error",
				"code", appErr.Code,
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

// canonicalAll normalizes bound query values for cache lookups,
// dropping entries that canonicalize to nothing.
func canonicalAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if canonical := validator.Canonical(v); canonical != "" {
			out = append(out, canonical)
		}
	}
	return out
}

// parseLimit parses a ?limit= query parameter with a default and a cap.
func parseLimit(c *gin.Context, defaultLimit, maxLimit int) int {
	raw := c.Query("limit")
	if raw == "" {
		return defaultLimit
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return defaultLimit
	}
	if n > maxLimit {
		return maxLimit
	}
	return n
}
