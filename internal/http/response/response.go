package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/tabula-backend/internal/platform/apierr"
	"github.com/yungbote/tabula-backend/internal/platform/ctxutil"
)

type APIError struct {
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// NewErrorEnvelope stamps the envelope with the request id so a client
// report can be matched to the request log line.
func NewErrorEnvelope(c *gin.Context, code, msg string) ErrorEnvelope {
	env := ErrorEnvelope{Error: APIError{Message: msg, Code: code}}
	if c != nil && c.Request != nil {
		env.Error.RequestID = ctxutil.RequestID(c.Request.Context())
	}
	return env
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, NewErrorEnvelope(c, code, msg))
}

// RespondAPIError maps err onto its carried status and code. Errors without
// one are reported as 500 with their text.
func RespondAPIError(c *gin.Context, err error) {
	if ae, ok := apierr.As(err); ok {
		status := ae.Status
		if status == 0 {
			status = http.StatusInternalServerError
		}
		RespondError(c, status, ae.Code, ae)
		return
	}
	_ = c.Error(err)
	RespondError(c, http.StatusInternalServerError, "internal_error", err)
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
