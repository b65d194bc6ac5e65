package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/worknomads/pkg/db"
	"github.com/Skotchmaster/worknomads/pkg/logging"
	"github.com/Skotchmaster/worknomads/pkg/metrics"
)

type Deps struct {
	AuthHandler *AuthHTTP
	DB          *gorm.DB
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if err := db.Ping(c.Request().Context(), d.DB); err != nil {
			logging.FromContext(c.Request().Context()).Error("readiness_failed", "error", err)
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"detail": "database unavailable"})
		}
		return c.NoContent(http.StatusOK)
	})
	e.GET("/metrics", metrics.Handler())

	g := e.Group("/api/auth")
	g.POST("/register", d.AuthHandler.Register)
	g.POST("/login", d.AuthHandler.Login)
	g.POST("/login/refresh", d.AuthHandler.Refresh)
}
