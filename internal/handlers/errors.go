package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/auth_backend/internal/apperr"
	"github.com/Skotchmaster/auth_backend/internal/logging"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// ErrorHandler writes every error as {"error": message}. Causes of internal
// errors are logged and never sent to the client.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	l := logging.FromContext(c.Request().Context())

	status, msg := statusAndMessage(err)
	if status >= http.StatusInternalServerError {
		l.Error("request_failed", "status", status, "error", err)
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(status)
	} else {
		werr = c.JSON(status, ErrorResponse{Error: msg})
	}
	if werr != nil {
		l.Error("write_error_response", "error", werr)
	}
}

func statusAndMessage(err error) (int, string) {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return ae.Kind.HTTPStatus(), ae.Message
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if he.Code < http.StatusInternalServerError {
			if s, ok := he.Message.(string); ok && s != "" {
				msg = s
			} else if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		return he.Code, msg
	}

	return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
}
