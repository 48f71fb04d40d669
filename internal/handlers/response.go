package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stridehq/stride-backend/internal/apperr"
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

// RespondAppError maps the service error taxonomy onto HTTP statuses.
// Anything that is not a classified application error is a 500.
func RespondAppError(c *gin.Context, code string, err error) {
	kind, _ := apperr.KindOf(err)
	switch kind {
	case apperr.KindValidation:
		RespondError(c, http.StatusBadRequest, code, err)
	case apperr.KindConflict:
		RespondError(c, http.StatusConflict, code, err)
	case apperr.KindNotFound:
		RespondError(c, http.StatusNotFound, code, err)
	default:
		RespondError(c, http.StatusInternalServerError, code, err)
	}
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
