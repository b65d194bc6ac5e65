package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

type LocalConfig struct {
	Root    string
	BaseURL string
}

// LocalStorage keeps files under a root directory on disk.
type LocalStorage struct {
	root    string
	baseURL string
	log     *slog.Logger
}

func NewLocalStorage(cfg LocalConfig, log *slog.Logger) (*LocalStorage, error) {
	root := strings.TrimSpace(cfg.Root)
	if root == "" {
		return nil, fmt.Errorf("local storage root: %w", ErrDisabled)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create local storage directory: %w", err)
	}

	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = "/media/"
	}

	l := &LocalStorage{
		root:    root,
		baseURL: baseURL,
		log:     log.With("component", "local-storage"),
	}
	l.log.Info("local storage initialized", "path", root, "base_url", baseURL)
	return l, nil
}

func (l *LocalStorage) Backend() string { return BackendLocal }

func (l *LocalStorage) Root() string { return l.root }

func (l *LocalStorage) Save(ctx context.Context, key string, body io.Reader, _ int64, _ string) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(l.fullPath(key)), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	candidate := key
	for i := 0; i < maxNameAttempts; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		file, err := os.OpenFile(l.fullPath(candidate), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			candidate = alternate(key)
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create file: %w", err)
		}

		written, err := io.Copy(file, body)
		if cerr := file.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			_ = os.Remove(l.fullPath(candidate))
			return "", fmt.Errorf("failed to write file: %w", err)
		}

		l.log.Debug("file stored", "key", candidate, "bytes", written)
		return candidate, nil
	}
	return "", ErrExhausted
}

func (l *LocalStorage) Delete(_ context.Context, key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := os.Remove(l.fullPath(key)); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (l *LocalStorage) URL(key string) string {
	return joinURL(l.baseURL, key)
}

// Health checks that the storage directory is writable.
func (l *LocalStorage) Health(_ context.Context) error {
	probe := filepath.Join(l.root, ".health_check")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return fmt.Errorf("storage directory not writable: %w", err)
	}
	_ = os.Remove(probe)
	return nil
}

func (l *LocalStorage) fullPath(key string) string {
	return filepath.Join(l.root, filepath.FromSlash(key))
}
