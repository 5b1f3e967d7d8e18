package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PanicResponse is the JSON error response returned on panic
type PanicResponse struct {
	Error         string `json:"error"`
	CorrelationID string `json:"correlation_id"`
	Timestamp     string `json:"timestamp"`
}

// Recovery returns a middleware that recovers from panics.
// It logs the stack trace with a correlation ID and returns a JSON error
// response without leaking internals to the client.
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				correlationID := GetRequestID(c)
				if correlationID == "" {
					correlationID = uuid.New().String()
				}

				logger.Error("Panic recovered",
					zap.String("correlation_id", correlationID),
					zap.String("panic", fmt.Sprintf("%v", err)),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.String("ip", c.ClientIP()),
					zap.String("stack", string(debug.Stack())),
				)

				c.AbortWithStatusJSON(http.StatusInternalServerError, PanicResponse{
					Error:         "internal server error",
					CorrelationID: correlationID,
					Timestamp:     time.Now().UTC().Format(time.RFC3339),
				})
			}
		}()

		c.Next()
	}
}
