package models

import "time"

// Draft is a locally staged message composition. It survives submission
// failures (and gateway restarts, via storage.DraftStorage) so the user can
// retry without re-selecting recipients or re-attaching files.
type Draft struct {
	ID              string       `json:"id"`
	UserID          string       `json:"user_id"`
	Subject         string       `json:"subject"`
	Content         string       `json:"content"`
	MessageTypeID   int64        `json:"message_type"`
	Recipients      []Recipient  `json:"recipients"`
	Attachments     []Attachment `json:"attachments"`
	ParentMessageID int64        `json:"parent_message,omitempty"`
	IsForward       bool         `json:"is_forward,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}
