package httpserver

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"github.com/Skotchmaster/worknomads/pkg/db"
	"github.com/Skotchmaster/worknomads/pkg/logging"
	"github.com/Skotchmaster/worknomads/pkg/metrics"
	authmw "github.com/Skotchmaster/worknomads/pkg/middleware/auth"
	"github.com/Skotchmaster/worknomads/pkg/storage"
)

type Deps struct {
	MediaHandler *MediaHTTP
	Auth         *authmw.BearerAuth
	DB           *gorm.DB
	Storage      storage.Storage

	MaxUploadBytes int64
	// MediaURL and MediaRoot are used to serve files when storage is local.
	MediaURL  string
	MediaRoot string
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		ctx := c.Request().Context()
		if err := db.Ping(ctx, d.DB); err != nil {
			logging.FromContext(ctx).Error("readiness_failed", "component", "db", "error", err)
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"detail": "database unavailable"})
		}
		if err := d.Storage.Health(ctx); err != nil {
			logging.FromContext(ctx).Error("readiness_failed", "component", "storage", "error", err)
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"detail": "storage unavailable"})
		}
		return c.NoContent(http.StatusOK)
	})
	e.GET("/metrics", metrics.Handler())

	if d.Storage.Backend() == storage.BackendLocal && d.MediaRoot != "" {
		e.Static(staticPrefix(d.MediaURL), d.MediaRoot)
	}

	g := e.Group("/api/media", d.Auth.Authenticate, authmw.RequireAuth)

	upload := g.Group("/upload")
	if d.MaxUploadBytes > 0 {
		upload.Use(middleware.BodyLimit(fmt.Sprintf("%dB", d.MaxUploadBytes)))
	}
	upload.POST("/image", d.MediaHandler.UploadImage)
	upload.POST("/audio", d.MediaHandler.UploadAudio)

	g.GET("/list", d.MediaHandler.List)
	g.DELETE("/delete/:id", d.MediaHandler.Delete)
}

// staticPrefix turns MEDIA_URL ("/media/" or "https://host/media/") into a
// route prefix.
func staticPrefix(mediaURL string) string {
	p := mediaURL
	if u, err := url.Parse(mediaURL); err == nil && u.Path != "" {
		p = u.Path
	}
	p = "/" + strings.Trim(p, "/")
	if p == "/" {
		return "/media"
	}
	return p
}
