package models

import "time"

type FileType string

const (
	FileTypeImage FileType = "image"
	FileTypeAudio FileType = "audio"
)

// Dir is the top-level storage folder for the type.
func (t FileType) Dir() string {
	if t == FileTypeImage {
		return "images"
	}
	return string(t)
}

func (t FileType) Valid() bool {
	return t == FileTypeImage || t == FileTypeAudio
}

type MediaFile struct {
	ID               uint      `gorm:"primaryKey;autoIncrement"`
	OwnerID          string    `gorm:"size:64;index;not null"`
	FileType         FileType  `gorm:"size:10;not null"`
	File             string    `gorm:"size:255;not null"`
	OriginalFilename string    `gorm:"size:255"`
	ContentType      string    `gorm:"size:100"`
	Size             int64     `gorm:"not null;default:0"`
	CreatedAt        time.Time `gorm:"index"`
}
