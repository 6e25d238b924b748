package middleware

import (
	"github.com/gin-gonic/gin"

	apperrors "form-intake/pkg/errors"
)

// ErrorResponse is the JSON body of every non-validation error.
type ErrorResponse struct {
	Message   string              `json:"message"`
	Code      apperrors.ErrorCode `json:"code"`
	RequestID string              `json:"request_id,omitempty"`
}

// AbortWithError writes the error body and stops the handler chain.
func AbortWithError(c *gin.Context, status int, code apperrors.ErrorCode, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Message:   message,
		Code:      code,
		RequestID: GetRequestID(c),
	})
}
