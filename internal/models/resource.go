package models

import (
	"time"

	"github.com/google/uuid"
)

// Resource is a club document (minutes, forms, policies). The file itself
// lives in S3 under FileKey; this row is the listing metadata.
type Resource struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	FileKey     string    `json:"file_key"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	UploadedBy  uuid.UUID `json:"uploaded_by"`
	CreatedAt   time.Time `json:"created_at"`
}
