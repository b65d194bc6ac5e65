package middleware

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	ecM "github.com/labstack/echo/v4/middleware"

	loggingmw "github.com/Skotchmaster/worknomads/pkg/middleware/logging"
	"github.com/Skotchmaster/worknomads/pkg/metrics"
)

func Common(logger *slog.Logger) []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		ecM.Recover(),
		ecM.RequestIDWithConfig(ecM.RequestIDConfig{Generator: uuid.NewString}),
		loggingmw.RequestLogger(logger),
		metrics.Middleware("gateway"),
		ecM.Secure(),
	}
}
