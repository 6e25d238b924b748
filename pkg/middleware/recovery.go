package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	apperrors "form-intake/pkg/errors"
)

// Recovery turns a handler panic into a generic 500. The stack is logged,
// never returned.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				panicRecoveries.Inc()
				log.WithField("prefix", "http").
					WithField("request_id", GetRequestID(c)).
					WithField("method", c.Request.Method).
					WithField("path", c.Request.URL.Path).
					WithField("panic", fmt.Sprintf("%v", rec)).
					WithField("stack", string(debug.Stack())).
					Error("panic recovered")

				AbortWithError(c, http.StatusInternalServerError, apperrors.ErrCodeInternal, "Internal server error")
			}
		}()
		c.Next()
	}
}
