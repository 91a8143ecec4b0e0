package models

import "time"

// MessageStatus is the lifecycle state of a message.
type MessageStatus string

const (
	StatusDraft MessageStatus = "draft"
	StatusSent  MessageStatus = "sent"
)

// MessageType is an administrator-defined message category.
type MessageType struct {
	ID    int64  `json:"id"`
	Value string `json:"value"`
	Label string `json:"label"`
}

// MessageRecipient is one entry of a message's recipient list as the backend
// serializes it: exactly one of User or Group is set.
type MessageRecipient struct {
	User  *User  `json:"recipient,omitempty"`
	Group *Group `json:"recipient_group,omitempty"`
}

// AsRecipient collapses the wire shape into the recipient union.
func (mr MessageRecipient) AsRecipient() Recipient {
	if mr.User != nil {
		return UserRecipient(*mr.User)
	}
	if mr.Group != nil {
		return GroupRecipient(*mr.Group)
	}
	return Recipient{}
}

// Message is a persisted message record. Once sent it is immutable except for
// the per-viewer IsRead flag.
type Message struct {
	ID              int64              `json:"id"`
	Subject         string             `json:"subject"`
	Content         string             `json:"content"`
	MessageType     int64              `json:"message_type"`
	TypeDisplay     string             `json:"message_type_display,omitempty"`
	Status          MessageStatus      `json:"status"`
	Sender          User               `json:"sender"`
	Recipients      []MessageRecipient `json:"recipients"`
	Attachments     []Attachment       `json:"attachments"`
	SentAt          time.Time          `json:"sent_at"`
	IsRead          bool               `json:"is_read"`

	// Preview is derived by the gateway for list rendering, never stored.
	Preview string `json:"preview,omitempty"`
	ParentMessageID int64              `json:"parent_message,omitempty"`
	IsForward       bool               `json:"is_forward,omitempty"`
}

// ItemID implements collection.Item.
func (m Message) ItemID() int64 { return m.ID }
