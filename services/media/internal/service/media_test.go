package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/worknomads/pkg/db"
	"github.com/Skotchmaster/worknomads/pkg/events"
	"github.com/Skotchmaster/worknomads/pkg/metrics"
	"github.com/Skotchmaster/worknomads/pkg/storage"
	"github.com/Skotchmaster/worknomads/services/media/internal/models"
	"github.com/Skotchmaster/worknomads/services/media/internal/repo"
)

// 1x1 transparent PNG.
var pngBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

var fixedNow = time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	svc    *MediaService
	local  *storage.LocalStorage
	events *events.Recorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gdb, err := db.Open(context.Background(), "sqlite://:memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })
	require.NoError(t, repo.Migrate(gdb))

	local, err := storage.NewLocalStorage(storage.LocalConfig{Root: t.TempDir()}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	rec := &events.Recorder{}
	return &testEnv{
		svc: &MediaService{
			Repo:    &repo.GormRepo{DB: gdb},
			Storage: local,
			Events:  rec,
			Now:     func() time.Time { return fixedNow },
		},
		local:  local,
		events: rec,
	}
}

func imageInput(owner, name string, body []byte) UploadInput {
	return UploadInput{
		OwnerID:     owner,
		FileType:    models.FileTypeImage,
		Filename:    name,
		ContentType: "image/png",
		Size:        int64(len(body)),
		Body:        bytes.NewReader(body),
	}
}

func TestUpload_StoresUnderDatedKey(t *testing.T) {
	env := newTestEnv(t)

	rec, err := env.svc.Upload(context.Background(), imageInput("7", "cat.png", pngBytes))
	require.NoError(t, err)
	assert.Equal(t, "images/2024/03/09/cat.png", rec.File)
	assert.Equal(t, "7", rec.OwnerID)
	assert.Equal(t, models.FileTypeImage, rec.FileType)
	assert.Equal(t, int64(len(pngBytes)), rec.Size)
	assert.Equal(t, "/media/images/2024/03/09/cat.png", env.svc.URL(rec))

	data, err := os.ReadFile(filepath.Join(env.local.Root(), "images", "2024", "03", "09", "cat.png"))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)

	msgs := env.events.Snapshot()
	require.Len(t, msgs, 1)
	assert.Equal(t, events.TopicMediaEvents, msgs[0].Topic)
	assert.Equal(t, events.TypeMediaUploaded, msgs[0].Event.(events.MediaChanged).Type)
}

func TestUpload_AudioDir(t *testing.T) {
	env := newTestEnv(t)

	rec, err := env.svc.Upload(context.Background(), UploadInput{
		OwnerID: "7", FileType: models.FileTypeAudio, Filename: "my song.mp3",
		ContentType: "audio/mpeg", Size: 3, Body: strings.NewReader("ID3"),
	})
	require.NoError(t, err)
	assert.Equal(t, "audio/2024/03/09/my_song.mp3", rec.File)
	assert.Equal(t, "my song.mp3", rec.OriginalFilename)
}

func TestUpload_KeepsNonASCIIName(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	for name, want := range map[string]string{
		"фото.png": "images/2024/03/09/фото.png",
		"照片.jpg":   "images/2024/03/09/照片.jpg",
		"café.png": "images/2024/03/09/café.png",
		"★.png":    "images/2024/03/09/file.png",
	} {
		rec, err := env.svc.Upload(ctx, imageInput("7", name, pngBytes))
		require.NoError(t, err, name)
		assert.Equal(t, want, rec.File, name)
		assert.Equal(t, name, rec.OriginalFilename)

		_, err = os.Stat(filepath.Join(env.local.Root(), filepath.FromSlash(want)))
		assert.NoError(t, err, name)
	}
}

func TestUpload_SameNameGetsDistinctKey(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	a, err := env.svc.Upload(ctx, imageInput("7", "cat.png", pngBytes))
	require.NoError(t, err)
	b, err := env.svc.Upload(ctx, imageInput("7", "cat.png", pngBytes))
	require.NoError(t, err)
	assert.NotEqual(t, a.File, b.File)
}

func TestUpload_DeclaredTypePrefixIsCaseSensitive(t *testing.T) {
	env := newTestEnv(t)

	in := imageInput("7", "cat.png", pngBytes)
	in.ContentType = "IMAGE/PNG"
	_, err := env.svc.Upload(context.Background(), in)
	require.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, env.events.Snapshot())
}

func TestUpload_RejectsWrongDeclaredType(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	in := imageInput("7", "notes.txt", []byte("hello"))
	in.ContentType = "text/plain"
	_, err := env.svc.Upload(ctx, in)
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "Invalid content type. Expected image/*", err.Error())

	in = imageInput("7", "cat.png", pngBytes)
	in.FileType = models.FileTypeAudio
	_, err = env.svc.Upload(ctx, in)
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "Invalid content type. Expected audio/*", err.Error())

	in = imageInput("7", "cat.png", nil)
	in.Body = nil
	_, err = env.svc.Upload(ctx, in)
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, MsgNoFile, err.Error())

	list, err := env.svc.List(ctx, "7")
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Empty(t, env.events.Snapshot())
}

func TestUpload_SniffMismatchIsLoggedNotRejected(t *testing.T) {
	env := newTestEnv(t)
	before := testutil.ToFloat64(metrics.ContentMismatchTotal.WithLabelValues("image"))

	_, err := env.svc.Upload(context.Background(), imageInput("7", "fake.png", []byte("plain text pretending")))
	require.NoError(t, err)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.ContentMismatchTotal.WithLabelValues("image")))
}

type brokenStorage struct {
	storage.Storage
	saveErr error
	deleted []string
}

func (b *brokenStorage) Save(ctx context.Context, key string, body io.Reader, size int64, ct string) (string, error) {
	if b.saveErr != nil {
		return "", b.saveErr
	}
	return b.Storage.Save(ctx, key, body, size, ct)
}

func (b *brokenStorage) Delete(ctx context.Context, key string) error {
	b.deleted = append(b.deleted, key)
	return b.Storage.Delete(ctx, key)
}

func TestUpload_StorageFailure(t *testing.T) {
	env := newTestEnv(t)
	env.svc.Storage = &brokenStorage{Storage: env.local, saveErr: errors.New("disk full")}

	_, err := env.svc.Upload(context.Background(), imageInput("7", "cat.png", pngBytes))
	require.ErrorIs(t, err, ErrStorage)
}

func TestUpload_MetadataFailureRemovesBytes(t *testing.T) {
	env := newTestEnv(t)
	bs := &brokenStorage{Storage: env.local}
	env.svc.Storage = bs
	require.NoError(t, env.svc.Repo.DB.Migrator().DropTable(&models.MediaFile{}))

	_, err := env.svc.Upload(context.Background(), imageInput("7", "cat.png", pngBytes))
	require.Error(t, err)
	require.Equal(t, []string{"images/2024/03/09/cat.png"}, bs.deleted)

	_, statErr := os.Stat(filepath.Join(env.local.Root(), "images", "2024", "03", "09", "cat.png"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestList_OnlyOwnNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	now := fixedNow
	env.svc.Now = func() time.Time { now = now.Add(time.Second); return now }

	first, err := env.svc.Upload(ctx, imageInput("1", "a.png", pngBytes))
	require.NoError(t, err)
	_, err = env.svc.Upload(ctx, imageInput("2", "b.png", pngBytes))
	require.NoError(t, err)
	second, err := env.svc.Upload(ctx, imageInput("1", "c.png", pngBytes))
	require.NoError(t, err)

	list, err := env.svc.List(ctx, "1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestDelete_ForeignIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rec, err := env.svc.Upload(ctx, imageInput("1", "a.png", pngBytes))
	require.NoError(t, err)

	assert.ErrorIs(t, env.svc.Delete(ctx, "2", rec.ID), ErrNotFound)
	assert.ErrorIs(t, env.svc.Delete(ctx, "1", rec.ID+1), ErrNotFound)

	list, err := env.svc.List(ctx, "1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestDelete_RemovesBytesAndRow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rec, err := env.svc.Upload(ctx, imageInput("1", "a.png", pngBytes))
	require.NoError(t, err)

	require.NoError(t, env.svc.Delete(ctx, "1", rec.ID))
	_, statErr := os.Stat(filepath.Join(env.local.Root(), filepath.FromSlash(rec.File)))
	assert.True(t, os.IsNotExist(statErr))

	msgs := env.events.Snapshot()
	require.Len(t, msgs, 2)
	assert.Equal(t, events.TypeMediaDeleted, msgs[1].Event.(events.MediaChanged).Type)
}

func TestDelete_MissingBytesStillRemovesRow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rec, err := env.svc.Upload(ctx, imageInput("1", "a.png", pngBytes))
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(env.local.Root(), filepath.FromSlash(rec.File))))

	require.NoError(t, env.svc.Delete(ctx, "1", rec.ID))

	list, err := env.svc.List(ctx, "1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestValidFilename(t *testing.T) {
	tests := map[string]string{
		"cat.png":               "cat.png",
		"my photo (1).jpg":      "my_photo_1.jpg",
		"../../etc/passwd":      "passwd",
		`C:\Users\me\voice.wav`: "voice.wav",
		"":                      "file",
		"...":                   "file",
		".hidden":               "file.hidden",
		".png":                  "file.png",
		"фото.png":              "фото.png",
		"照片.jpg":                "照片.jpg",
		"café.png":              "café.png",
		"(((.png":               "file.png",
		"photo..png":            "photo..png",
	}
	for in, want := range tests {
		assert.Equal(t, want, validFilename(in), in)
	}

	long := strings.Repeat("a", 150) + ".jpeg"
	got := validFilename(long)
	assert.Len(t, got, 100)
	assert.True(t, strings.HasSuffix(got, ".jpeg"))

	longCyr := strings.Repeat("я", 150) + ".png"
	got = validFilename(longCyr)
	assert.Equal(t, 100, utf8.RuneCountInString(got))
	assert.True(t, utf8.ValidString(got))
	assert.True(t, strings.HasSuffix(got, ".png"))
}
