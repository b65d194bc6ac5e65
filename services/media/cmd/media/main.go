package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
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
	"github.com/Skotchmaster/worknomads/pkg/storage"
	"github.com/Skotchmaster/worknomads/pkg/tokens"
	"github.com/Skotchmaster/worknomads/services/media/internal/config"
	"github.com/Skotchmaster/worknomads/services/media/server"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	pkgconfig.MustNonEmpty(cfg.JWTSigningKey, "JWT_SIGNING_KEY")
	pkgconfig.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	pkgconfig.MustOneOf(cfg.StorageBackend, "MEDIA_STORAGE_BACKEND", storage.BackendLocal, storage.BackendS3)

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)

	verifier, err := tokens.NewVerifier(cfg.SigningKey(), cfg.JWTAlgorithm)
	if err != nil {
		log.Fatalf("token verifier: %v", err)
	}

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DatabaseURL)
	if err != nil {
		cancel()
		log.Fatalf("db init error: %v", err)
	}
	store, err := newStorage(initCtx, cfg, logger)
	cancel()
	if err != nil {
		log.Fatalf("storage init error: %v", err)
	}
	defer db.Close(gdb)

	if err := server.Migrate(gdb); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	publisher := events.NewPublisher(cfg.KafkaBrokers)
	defer publisher.Close()

	e := server.New(server.Deps{
		DB:             gdb,
		Logger:         logger,
		Verifier:       verifier,
		Storage:        store,
		Events:         publisher,
		AllowedOrigins: cfg.AllowedOrigins(),
		MaxUploadBytes: cfg.MaxUploadBytes,
		MediaURL:       cfg.MediaURL,
		MediaRoot:      cfg.MediaRoot,
	})
	e.Server.ReadTimeout = 60 * time.Second
	e.Server.WriteTimeout = 60 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second

	go func() {
		logger.Info("server_starting", "addr", cfg.Addr(), "storage", store.Backend())
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

func newStorage(ctx context.Context, cfg *config.ServiceConfig, logger *slog.Logger) (storage.Storage, error) {
	if cfg.StorageBackend == storage.BackendS3 {
		return storage.NewS3Storage(ctx, cfg.S3(), logger)
	}
	return storage.NewLocalStorage(cfg.Local(), logger)
}
