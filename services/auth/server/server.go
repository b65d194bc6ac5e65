// Package server assembles the auth HTTP service. It is the only package
// outside internal/ so other binaries and tests can start the service.
package server

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"github.com/Skotchmaster/worknomads/pkg/events"
	"github.com/Skotchmaster/worknomads/pkg/httpx"
	loggingmw "github.com/Skotchmaster/worknomads/pkg/middleware/logging"
	"github.com/Skotchmaster/worknomads/pkg/metrics"
	"github.com/Skotchmaster/worknomads/pkg/tokens"
	"github.com/Skotchmaster/worknomads/services/auth/internal/httpserver"
	"github.com/Skotchmaster/worknomads/services/auth/internal/repo"
	"github.com/Skotchmaster/worknomads/services/auth/internal/service"
)

const serviceName = "auth"

type Deps struct {
	DB             *gorm.DB
	Logger         *slog.Logger
	Signer         *tokens.Signer
	Events         events.Publisher
	AllowedOrigins []string

	MinPasswordLength int
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
		AuthHandler: &httpserver.AuthHTTP{
			Svc: &service.AuthService{
				Repo:              &repo.GormRepo{DB: d.DB},
				Tokens:            d.Signer,
				Events:            d.Events,
				MinPasswordLength: d.MinPasswordLength,
			},
		},
		DB: d.DB,
	})

	return e
}
