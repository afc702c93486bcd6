package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"FlightFare/pkg/logger"
)

// SuccessResponse writes a 200 JSON body.
func SuccessResponse(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, data)
}

// ErrorResponse writes the error envelope with the given status.
func ErrorResponse(c echo.Context, status int, message string) error {
	return c.JSON(status, ErrorBody{Error: message, Status: StatusError})
}

// BadRequestResponse writes a 400 error envelope.
func BadRequestResponse(c echo.Context, message string) error {
	return ErrorResponse(c, http.StatusBadRequest, message)
}

// InternalServerErrorResponse writes a 500 error envelope.
func InternalServerErrorResponse(c echo.Context, message string) error {
	return ErrorResponse(c, http.StatusInternalServerError, message)
}

// AppErrorResponse writes application error response.
// Errors that are not *AppError are reported as 500 with their message.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return ErrorResponse(c, appErr.Status, appErr.Message)
	}
	return InternalServerErrorResponse(c, err.Error())
}

// HTTPErrorHandler renders errors returned from handlers and from echo itself
// (unknown routes, method mismatch, bind failures) in the error envelope.
func HTTPErrorHandler(l *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var (
			status  = http.StatusInternalServerError
			message = err.Error()
		)
		var appErr *AppError
		var he *echo.HTTPError
		switch {
		case errors.As(err, &appErr):
			status, message = appErr.Status, appErr.Message
		case errors.As(err, &he):
			status = he.Code
			if m, ok := he.Message.(string); ok {
				message = m
			} else {
				message = http.StatusText(he.Code)
			}
		}

		if status >= http.StatusInternalServerError && l != nil {
			l.Error("request failed",
				logger.String("method", c.Request().Method),
				logger.String("path", c.Path()),
				logger.Error(err),
			)
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = ErrorResponse(c, status, message)
	}
}
