package loggingmw

import (
	"context"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/worknomads/pkg/logging"
	authmw "github.com/Skotchmaster/worknomads/pkg/middleware/auth"
)

// RequestLogger puts a request-scoped logger into the context and logs one
// "request completed" line per request. Errors are rendered here so the
// logged status is the one the client saw. Authenticated requests carry the
// caller's user_id.
func RequestLogger(base *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			l := base.With(
				"method", req.Method,
				"path", c.Path(),
				"url", req.URL.Path,
				"remote_ip", c.RealIP(),
				"user_agent", req.UserAgent(),
			)
			if rid := requestID(c); rid != "" {
				l = l.With("request_id", rid)
				c.Response().Header().Set(echo.HeaderXRequestID, rid)
			}
			c.SetRequest(req.WithContext(logging.IntoContext(req.Context(), l)))

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Echo().HTTPErrorHandler(err, c)
			}

			status := c.Response().Status
			attrs := []any{"status", status, "duration_ms", time.Since(start).Milliseconds()}
			if p, ok := authmw.PrincipalFrom(c); ok {
				attrs = append(attrs, "user_id", p.ID)
			}
			if err != nil {
				attrs = append(attrs, "error", err.Error())
			} else {
				attrs = append(attrs, "bytes", c.Response().Size)
			}
			l.Log(context.Background(), levelFor(status), "request completed", attrs...)
			return nil
		}
	}
}

// requestID prefers the inbound header and falls back to the one set by the
// RequestID middleware on the response.
func requestID(c echo.Context) string {
	if rid := c.Request().Header.Get(echo.HeaderXRequestID); rid != "" {
		return rid
	}
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

func levelFor(status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
