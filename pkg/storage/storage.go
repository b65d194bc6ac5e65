package storage

import (
	"context"
	"errors"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"
)

const (
	BackendLocal = "local"
	BackendS3    = "s3"

	maxNameAttempts = 8
)

var (
	ErrDisabled   = errors.New("storage: backend is not configured")
	ErrInvalidKey = errors.New("storage: invalid key")
	ErrExhausted  = errors.New("storage: could not find a free name")
)

// Storage persists file bytes under slash-separated keys.
type Storage interface {
	// Save writes body under key, or under a suffixed variant of key when it
	// is taken, and returns the key actually used.
	Save(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
	Health(ctx context.Context) error
	Backend() string
}

func cleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || strings.Contains(key, "\\") {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(key, "/") {
		return "", ErrInvalidKey
	}
	return cleaned, nil
}

// alternate returns key with a short random suffix before the extension:
// images/a.png -> images/a_1b2c3d4.png
func alternate(key string) string {
	dir, file := path.Split(key)
	ext := path.Ext(file)
	base := strings.TrimSuffix(file, ext)
	return dir + base + "_" + uuid.NewString()[:7] + ext
}

func joinURL(base, key string) string {
	segs := strings.Split(key, "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.Join(segs, "/")
}
