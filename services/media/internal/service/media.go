package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/Skotchmaster/worknomads/pkg/events"
	"github.com/Skotchmaster/worknomads/pkg/logging"
	"github.com/Skotchmaster/worknomads/pkg/metrics"
	"github.com/Skotchmaster/worknomads/pkg/storage"
	"github.com/Skotchmaster/worknomads/services/media/internal/models"
	"github.com/Skotchmaster/worknomads/services/media/internal/repo"
)

const MsgNoFile = "No file provided with key 'file'."

var unsafeNameChars = regexp.MustCompile(`[^-\p{L}\p{M}\p{N}_.]`)

const maxFilenameRunes = 100

type MediaService struct {
	Repo    *repo.GormRepo
	Storage storage.Storage
	Events  events.Publisher
	Now     func() time.Time
}

type UploadInput struct {
	OwnerID     string
	FileType    models.FileType
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

func (s *MediaService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Upload stores the bytes under {images|audio}/YYYY/MM/DD/<name> and records
// the metadata. Only the declared content type decides acceptance.
func (s *MediaService) Upload(ctx context.Context, in UploadInput) (*models.MediaFile, error) {
	l := logging.FromContext(ctx).With("svc", "media.upload", "owner_id", in.OwnerID, "file_type", in.FileType)

	if !in.FileType.Valid() {
		return nil, fmt.Errorf("unknown file type %q", in.FileType)
	}
	if in.Body == nil {
		return nil, &ValidationError{Detail: MsgNoFile}
	}
	if !strings.HasPrefix(in.ContentType, string(in.FileType)+"/") {
		l.Warn("upload_rejected", "status", 400, "reason", "content type", "content_type", in.ContentType)
		metrics.RecordUpload(string(in.FileType), "rejected", 0)
		return nil, &ValidationError{Detail: fmt.Sprintf("Invalid content type. Expected %s/*", in.FileType)}
	}

	s.sniff(ctx, in)

	now := s.now()
	name := validFilename(in.Filename)
	key := path.Join(in.FileType.Dir(), now.Format("2006/01/02"), name)

	stored, err := s.Storage.Save(ctx, key, in.Body, in.Size, in.ContentType)
	metrics.RecordStorage(s.Storage.Backend(), "save", err)
	if err != nil {
		l.Error("upload_failed", "status", 500, "reason", "storage write", "key", key, "error", err)
		metrics.RecordUpload(string(in.FileType), "error", 0)
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	rec := &models.MediaFile{
		OwnerID:          in.OwnerID,
		FileType:         in.FileType,
		File:             stored,
		OriginalFilename: in.Filename,
		ContentType:      in.ContentType,
		Size:             in.Size,
		CreatedAt:        now,
	}
	if err := s.Repo.Create(ctx, rec); err != nil {
		l.Error("upload_failed", "status", 500, "reason", "metadata insert", "error", err)
		if derr := s.Storage.Delete(ctx, stored); derr != nil {
			l.Warn("orphan_cleanup_failed", "key", stored, "error", derr)
		}
		metrics.RecordUpload(string(in.FileType), "error", 0)
		return nil, fmt.Errorf("create media record: %w", err)
	}

	s.publish(ctx, events.TypeMediaUploaded, rec)
	metrics.RecordUpload(string(in.FileType), "success", in.Size)
	l.Info("upload_success", "status", 201, "media_id", rec.ID, "key", stored, "size", in.Size)
	return rec, nil
}

func (s *MediaService) List(ctx context.Context, ownerID string) ([]models.MediaFile, error) {
	out, err := s.Repo.ListByOwner(ctx, ownerID)
	if err != nil {
		logging.FromContext(ctx).Error("list_failed", "owner_id", ownerID, "error", err)
		return nil, fmt.Errorf("list media: %w", err)
	}
	return out, nil
}

// Delete removes a record owned by ownerID. Failing to delete the stored
// bytes is logged only; the record is removed regardless.
func (s *MediaService) Delete(ctx context.Context, ownerID string, id uint) error {
	l := logging.FromContext(ctx).With("svc", "media.delete", "owner_id", ownerID, "media_id", id)

	rec, err := s.Repo.FindOwned(ctx, id, ownerID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		l.Error("delete_failed", "status", 500, "error", err)
		return fmt.Errorf("find media: %w", err)
	}

	err = s.Storage.Delete(ctx, rec.File)
	metrics.RecordStorage(s.Storage.Backend(), "delete", err)
	if err != nil {
		l.Warn("storage_delete_failed", "key", rec.File, "error", err)
	}

	if err := s.Repo.Delete(ctx, rec.ID); err != nil {
		l.Error("delete_failed", "status", 500, "error", err)
		return fmt.Errorf("delete media: %w", err)
	}

	s.publish(ctx, events.TypeMediaDeleted, rec)
	l.Info("delete_success", "status", 204)
	return nil
}

func (s *MediaService) URL(rec *models.MediaFile) string {
	return s.Storage.URL(rec.File)
}

// sniff logs uploads whose bytes look like a different media family than
// declared. It never rejects.
func (s *MediaService) sniff(ctx context.Context, in UploadInput) {
	rs, ok := in.Body.(io.ReadSeeker)
	if !ok {
		return
	}
	mt, err := mimetype.DetectReader(rs)
	if _, serr := rs.Seek(0, io.SeekStart); serr != nil {
		logging.FromContext(ctx).Warn("sniff_rewind_failed", "error", serr)
	}
	if err != nil {
		return
	}
	if !strings.HasPrefix(mt.String(), string(in.FileType)+"/") {
		metrics.RecordContentMismatch(string(in.FileType))
		logging.FromContext(ctx).Warn("content_type_mismatch",
			"declared", in.ContentType, "detected", mt.String(), "filename", in.Filename)
	}
}

func (s *MediaService) publish(ctx context.Context, eventType string, rec *models.MediaFile) {
	if s.Events == nil {
		return
	}
	ev := events.NewMediaChanged(eventType, rec.ID, rec.OwnerID, string(rec.FileType), rec.File)
	ev.ContentType = rec.ContentType
	ev.Size = rec.Size
	if err := s.Events.PublishEvent(ctx, events.TopicMediaEvents, rec.OwnerID, ev); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "topic", events.TopicMediaEvents, "error", err)
	}
}

// validFilename keeps the base name and drops anything that is not a
// letter, digit, '-', '_' or '.'. A name left with only its extension
// becomes file<ext>.
func validFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "_")
	name = unsafeNameChars.ReplaceAllString(name, "")

	ext := path.Ext(name)
	if strings.Trim(strings.TrimSuffix(name, ext), ".") == "" {
		if ext == "" || ext == "." {
			return "file"
		}
		name = "file" + ext
	}
	name = strings.TrimLeft(name, ".")

	if r := []rune(name); len(r) > maxFilenameRunes {
		extRunes := []rune(path.Ext(name))
		if len(extRunes) > 20 {
			extRunes = nil
		}
		name = string(r[:maxFilenameRunes-len(extRunes)]) + string(extRunes)
	}
	return name
}
