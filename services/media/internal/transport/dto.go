package transport

import (
	"time"

	"github.com/Skotchmaster/worknomads/services/media/internal/models"
)

type MediaResponse struct {
	ID               uint            `json:"id"`
	FileType         models.FileType `json:"file_type"`
	OriginalFilename string          `json:"original_filename"`
	ContentType      string          `json:"content_type"`
	Size             int64           `json:"size"`
	CreatedAt        time.Time       `json:"created_at"`
	URL              string          `json:"url"`
}

func NewMediaResponse(m *models.MediaFile, url string) MediaResponse {
	return MediaResponse{
		ID:               m.ID,
		FileType:         m.FileType,
		OriginalFilename: m.OriginalFilename,
		ContentType:      m.ContentType,
		Size:             m.Size,
		CreatedAt:        m.CreatedAt,
		URL:              url,
	}
}
