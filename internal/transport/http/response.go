package httptransport

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hashhive-server-go/internal/platform/errors"
)

// APIResponse is the uniform envelope every endpoint returns.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Error   *APIError   `json:"error,omitempty"`
	Code    int         `json:"code"`
}

// APIError carries the machine-readable rejection kind alongside the message.
type APIError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// RespondSuccess writes a success envelope.
func RespondSuccess(c *gin.Context, httpStatus int, data interface{}) {
	c.JSON(httpStatus, APIResponse{
		Success: true,
		Data:    data,
		Code:    httpStatus,
	})
}

// RespondError maps a domain error onto the envelope. Internal details never
// reach the client; only the kind and message do.
func RespondError(c *gin.Context, err error) {
	kind := errors.KindOf(err)
	status := statusFor(kind)
	c.JSON(status, APIResponse{
		Success: false,
		Error: &APIError{
			Kind:    string(kind),
			Message: errors.MessageOf(err),
		},
		Code: status,
	})
}

// RespondErrorKind writes an error envelope for a kind produced in the
// transport layer itself.
func RespondErrorKind(c *gin.Context, kind errors.Kind, message string) {
	status := statusFor(kind)
	c.JSON(status, APIResponse{
		Success: false,
		Error: &APIError{
			Kind:    string(kind),
			Message: message,
		},
		Code: status,
	})
}

func statusFor(kind errors.Kind) int {
	switch kind {
	case errors.KindValidation:
		return http.StatusBadRequest
	case errors.KindAuthentication:
		return http.StatusUnauthorized
	case errors.KindAuthorization, errors.KindTwoFactor:
		return http.StatusForbidden
	case errors.KindNotFound:
		return http.StatusNotFound
	case errors.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
