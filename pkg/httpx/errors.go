package httpx

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/worknomads/pkg/logging"
)

const MsgServerError = "A server error occurred."

// ErrorHandler renders every error as JSON. String messages become
// {"detail": msg}; maps (field errors, detail+code bodies) are written as is.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if !errors.As(err, &he) {
		logging.FromContext(c.Request().Context()).Error("unhandled_error", "status", 500, "error", err)
		he = &echo.HTTPError{Code: http.StatusInternalServerError, Message: MsgServerError}
	}

	var body any
	switch m := he.Message.(type) {
	case nil:
		body = echo.Map{"detail": http.StatusText(he.Code)}
	case string:
		body = echo.Map{"detail": m}
	case error:
		body = echo.Map{"detail": m.Error()}
	default:
		body = m
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(he.Code)
	} else {
		err = c.JSON(he.Code, body)
	}
	if err != nil {
		c.Logger().Error(err)
	}
}

// Detail builds the {"detail": ..., "code": ...} body used for token errors.
func Detail(status int, detail, code string) *echo.HTTPError {
	return echo.NewHTTPError(status, echo.Map{"detail": detail, "code": code})
}

// Fields builds a 400 carrying per-field messages.
func Fields(fields map[string][]string) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusBadRequest, fields)
}
