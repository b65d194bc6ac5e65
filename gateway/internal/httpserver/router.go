package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/worknomads/gateway/internal/middleware"
	"github.com/Skotchmaster/worknomads/pkg/metrics"
)

type Deps struct {
	AuthURL  string
	MediaURL string
	Logger   *slog.Logger
}

type route struct {
	Methods  []string
	Path     string
	Upstream string
}

// routes sends /api/auth/* to auth and both the media API and the stored
// files under /media/* to media. Paths are forwarded unchanged.
var routes = []route{
	{Path: "/api/auth/*", Upstream: "auth"},
	{Path: "/api/media/*", Upstream: "media"},
	{Methods: []string{http.MethodGet, http.MethodHead}, Path: "/media/*", Upstream: "media"},
}

func Register(e *echo.Echo, d *Deps) error {
	for _, m := range middleware.Common(d.Logger) {
		e.Use(m)
	}

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/metrics", metrics.Handler())

	upstreams := map[string]upstream{
		"auth":  {Name: "auth", Target: d.AuthURL},
		"media": {Name: "media", Target: d.MediaURL},
	}
	handlers := make(map[string]echo.HandlerFunc, len(upstreams))
	for name, up := range upstreams {
		h, err := up.handler()
		if err != nil {
			return err
		}
		handlers[name] = h
	}

	for _, r := range routes {
		h := handlers[r.Upstream]
		if len(r.Methods) == 0 {
			e.Any(r.Path, h)
			continue
		}
		e.Match(r.Methods, r.Path, h)
	}
	return nil
}
