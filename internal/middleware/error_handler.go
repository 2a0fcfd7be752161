package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	glog "github.com/labstack/gommon/log"

	"careerlaunch_api/internal/apperrors"
)

// ErrorResponse is the uniform failure body for every endpoint.
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

// NewErrorHandler builds the central echo error handler. Every error
// escaping a handler is classified by its app-error kind, logged with
// structured context, and serialized to the uniform failure body.
// Underlying error causes are only exposed in development mode.
func NewErrorHandler(development bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		message := "Internal server error"
		var details interface{}

		var appErr *apperrors.Error
		var httpErr *echo.HTTPError
		switch {
		case errors.As(err, &appErr):
			status = apperrors.HTTPStatus(appErr.Kind)
			message = appErr.Message
			details = appErr.Details
		case errors.As(err, &httpErr):
			status = httpErr.Code
			if msg, ok := httpErr.Message.(string); ok && msg != "" {
				message = msg
			} else {
				message = http.StatusText(status)
			}
		}

		glog.Errorj(glog.JSON{
			"message": "request failed",
			"error":   err.Error(),
			"status":  status,
			"path":    c.Request().URL.Path,
			"method":  c.Request().Method,
		})

		body := ErrorResponse{Success: false, Error: message, Details: details}
		// Underlying causes stay out of responses outside development.
		if development && details == nil && appErr != nil && appErr.Err != nil {
			body.Details = appErr.Err.Error()
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, body)
	}
}
