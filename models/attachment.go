package models

import (
	"time"

	"github.com/google/uuid"
)

// Attachment represents a file attached to a message. Until the message is
// submitted the attachment is staged client-side: ID is a temporary value and
// Content holds the file bytes. After a successful submission the backend
// replaces the ID and serves the file at FileURL; Content is released.
type Attachment struct {
	ID               string    `json:"id"`
	OriginalFilename string    `json:"original_filename"`
	ContentType      string    `json:"content_type"`
	Size             int       `json:"size"`
	FileURL          string    `json:"file,omitempty"`
	UploadedAt       time.Time `json:"uploaded_at"`

	// Content is set only while the attachment is staged. Excluded from JSON.
	Content []byte `json:"-"`
}

// NewStagedAttachment stages a locally selected file for submission.
func NewStagedAttachment(filename, contentType string, data []byte) Attachment {
	return Attachment{
		ID:               "temp-" + uuid.New().String(),
		OriginalFilename: filename,
		ContentType:      contentType,
		Size:             len(data),
		Content:          data,
		UploadedAt:       time.Now(),
	}
}

// Staged reports whether the attachment is still held client-side.
func (a Attachment) Staged() bool {
	return a.Content != nil
}
