package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/ballooning/constants"
	"github.com/joseph-ayodele/ballooning/internal/core/dimension"
)

// Document represents an ingested drawing for data transfer between layers.
type Document struct {
	ID           uuid.UUID           `json:"id"`
	FileName     string              `json:"file_name"`
	SourcePath   string              `json:"source_path"`
	ContentHash  []byte              `json:"content_hash"`
	FileExt      string              `json:"file_ext"`
	FileSize     int64               `json:"file_size"`
	PageCount    int                 `json:"page_count"`
	Status       constants.JobStatus `json:"status"`
	ErrorMessage *string             `json:"error_message,omitempty"`
	PreviewPath  *string             `json:"preview_path,omitempty"`
	Metadata     dimension.Metadata  `json:"metadata"`
	CreatedAt    time.Time           `json:"created_at"`
	StartedAt    *time.Time          `json:"started_at,omitempty"`
	FinishedAt   *time.Time          `json:"finished_at,omitempty"`
}

// Format maps the stored extension to the input format.
func (d *Document) Format() string {
	return constants.MapExtToFormat(d.FileExt)
}
