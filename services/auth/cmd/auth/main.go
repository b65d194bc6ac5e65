package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	pkgconfig "github.com/Skotchmaster/worknomads/pkg/config"
	"github.com/Skotchmaster/worknomads/pkg/db"
	"github.com/Skotchmaster/worknomads/pkg/events"
	"github.com/Skotchmaster/worknomads/pkg/logging"
	"github.com/Skotchmaster/worknomads/pkg/tokens"
	"github.com/Skotchmaster/worknomads/services/auth/internal/config"
	"github.com/Skotchmaster/worknomads/services/auth/server"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	pkgconfig.MustNonEmpty(cfg.JWTSigningKey, "JWT_SIGNING_KEY")
	pkgconfig.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)

	signer, err := tokens.NewSigner(cfg.SigningKey(), cfg.JWTAlgorithm, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	if err != nil {
		log.Fatalf("token signer: %v", err)
	}

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	defer db.Close(gdb)

	if err := server.Migrate(gdb); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	publisher := events.NewPublisher(cfg.KafkaBrokers)
	defer publisher.Close()

	e := server.New(server.Deps{
		DB:                gdb,
		Logger:            logger,
		Signer:            signer,
		Events:            publisher,
		AllowedOrigins:    cfg.AllowedOrigins(),
		MinPasswordLength: cfg.MinPasswordLength,
	})
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	go func() {
		logger.Info("server_starting", "addr", cfg.Addr())
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown_failed", "error", err)
	}
}
