package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/dxplatform-backend/internal/domain/failure"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

// RespondFailure writes a classified error. Storage and internal causes are replaced by a
// generic message.
func RespondFailure(c *gin.Context, err error) {
	code := failure.CodeOf(err)
	if code == "" {
		code = failure.CodeInternal
	}
	_ = c.Error(err)
	c.JSON(StatusFor(err), ErrorEnvelope{
		Error: APIError{
			Message: failure.PublicMessage(err),
			Code:    string(code),
		},
	})
}

func StatusFor(err error) int {
	switch failure.CodeOf(err) {
	case failure.CodeValidation, failure.CodeInvalidIdentifier:
		return http.StatusBadRequest
	case failure.CodeNotFound:
		return http.StatusNotFound
	case failure.CodeConflict:
		return http.StatusConflict
	case failure.CodeStorage:
		if failure.IsRetryable(err) {
			return http.StatusServiceUnavailable
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
