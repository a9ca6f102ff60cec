package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	apperrors "github.com/healthsync/healthsync-api/pkg/errors"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ErrorHandler renders the last error attached to the context. Errors
// that are not application errors are reported as a generic 500.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		appErr, ok := apperrors.As(err)
		if !ok {
			appErr = apperrors.NewInternal(err)
		}
		status := appErr.StatusCode()

		event := log.Warn()
		if status >= 500 {
			event = log.Error()
		}
		event.
			Err(err).
			Str("request_id", c.GetString(ContextRequestID)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Msg("Request error")

		c.JSON(status, ErrorResponse{Error: appErr.Message})
	}
}
