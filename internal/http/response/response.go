package response

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/techlearn-backend/internal/platform/apierr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

var hideInternal atomic.Bool

// HideInternalErrors replaces the message of internal errors with a generic one.
func HideInternalErrors(hide bool) { hideInternal.Store(hide) }

// RespondError renders err as an error envelope. Errors that are not
// *apierr.Error are treated as internal.
func RespondError(c *gin.Context, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	e := apierr.As(err)
	msg := e.Error()
	if e.Code == apierr.CodeInternal && hideInternal.Load() {
		msg = "internal server error"
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(e.Status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    e.Code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

func RespondAccepted(c *gin.Context, payload any) {
	c.JSON(http.StatusAccepted, payload)
}
