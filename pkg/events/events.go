package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	TypeUserRegistered = "user_registered"
	TypeMediaUploaded  = "media_uploaded"
	TypeMediaDeleted   = "media_deleted"
)

type UserRegistered struct {
	EventID    string    `json:"event_id"`
	Type       string    `json:"type"`
	UserID     uint      `json:"user_id"`
	Username   string    `json:"username"`
	Email      string    `json:"email,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type MediaChanged struct {
	EventID     string    `json:"event_id"`
	Type        string    `json:"type"`
	MediaID     uint      `json:"media_id"`
	OwnerID     string    `json:"owner_id"`
	FileType    string    `json:"file_type"`
	Key         string    `json:"key"`
	ContentType string    `json:"content_type,omitempty"`
	Size        int64     `json:"size,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func NewUserRegistered(id uint, username, email string) UserRegistered {
	return UserRegistered{
		EventID:    uuid.NewString(),
		Type:       TypeUserRegistered,
		UserID:     id,
		Username:   username,
		Email:      email,
		OccurredAt: time.Now().UTC(),
	}
}

func NewMediaChanged(eventType string, id uint, owner, fileType, key string) MediaChanged {
	return MediaChanged{
		EventID:    uuid.NewString(),
		Type:       eventType,
		MediaID:    id,
		OwnerID:    owner,
		FileType:   fileType,
		Key:        key,
		OccurredAt: time.Now().UTC(),
	}
}
