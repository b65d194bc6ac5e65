// Package server assembles the media HTTP service.
package server

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"github.com/Skotchmaster/worknomads/pkg/events"
	"github.com/Skotchmaster/worknomads/pkg/httpx"
	authmw "github.com/Skotchmaster/worknomads/pkg/middleware/auth"
	loggingmw "github.com/Skotchmaster/worknomads/pkg/middleware/logging"
	"github.com/Skotchmaster/worknomads/pkg/metrics"
	"github.com/Skotchmaster/worknomads/pkg/storage"
	"github.com/Skotchmaster/worknomads/pkg/tokens"
	"github.com/Skotchmaster/worknomads/services/media/internal/httpserver"
	"github.com/Skotchmaster/worknomads/services/media/internal/repo"
	"github.com/Skotchmaster/worknomads/services/media/internal/service"
)

const serviceName = "media"

type Deps struct {
	DB             *gorm.DB
	Logger         *slog.Logger
	Verifier       *tokens.Verifier
	Storage        storage.Storage
	Events         events.Publisher
	AllowedOrigins []string

	MaxUploadBytes int64
	MediaURL       string
	MediaRoot      string

	// Now overrides the clock used for storage paths.
	Now func() time.Time
}

func Migrate(db *gorm.DB) error {
	return repo.Migrate(db)
}

func New(d Deps) *echo.Echo {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Events == nil {
		d.Events = events.Nop{}
	}
	if len(d.AllowedOrigins) == 0 {
		d.AllowedOrigins = []string{"*"}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = httpx.NewValidator()
	e.HTTPErrorHandler = httpx.ErrorHandler

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(loggingmw.RequestLogger(d.Logger.With("service", serviceName)))
	e.Use(metrics.Middleware(serviceName))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: d.AllowedOrigins}))

	httpserver.Register(e, &httpserver.Deps{
		MediaHandler: &httpserver.MediaHTTP{
			Svc: &service.MediaService{
				Repo:    &repo.GormRepo{DB: d.DB},
				Storage: d.Storage,
				Events:  d.Events,
				Now:     d.Now,
			},
		},
		Auth:           authmw.NewBearerAuth(d.Verifier),
		DB:             d.DB,
		Storage:        d.Storage,
		MaxUploadBytes: d.MaxUploadBytes,
		MediaURL:       d.MediaURL,
		MediaRoot:      d.MediaRoot,
	})

	return e
}
