package models

// Collection discriminators used in the push envelope.
const (
	CollectionMessages  = "messages"
	CollectionSchedules = "schedules"
)

// Push event types as sent by the backend.
const (
	EventNewMessage       = "new_message"
	EventMessageUpdated   = "message_updated"
	EventMessageDeleted   = "message_deleted"
	EventMessageRead      = "message_read"
	EventNewSchedule      = "new_schedule"
	EventScheduleUpdated  = "schedule_updated"
	EventScheduleDeleted  = "schedule_deleted"
	EventScheduleResponse = "schedule_response"
)

// EventKind classifies an event for the reconciliation engine.
type EventKind int

const (
	KindUnknown EventKind = iota
	KindCreated
	KindUpdated
	KindDeleted
	KindStatusChanged
)

// PushEvent is the envelope delivered on the push channel. Payload fields are
// flattened into the envelope; which are populated depends on Type. Seq is a
// per-collection monotonically increasing sequence number, the dedup mechanism
// that makes at-least-once delivery safe.
type PushEvent struct {
	Seq        int64  `json:"seq"`
	Collection string `json:"collection"`
	Type       string `json:"type"`

	Message   *Message `json:"message,omitempty"`
	MessageID int64    `json:"message_id,omitempty"`

	Schedule      *ScheduleEvent `json:"schedule,omitempty"`
	ScheduleID    int64          `json:"schedule_id,omitempty"`
	ParticipantID int64          `json:"participant_id,omitempty"`
	Response      ResponseStatus `json:"response,omitempty"`
}

// Kind maps the wire event type onto a reconciliation operation.
func (e PushEvent) Kind() EventKind {
	switch e.Type {
	case EventNewMessage, EventNewSchedule:
		return KindCreated
	case EventMessageUpdated, EventScheduleUpdated:
		return KindUpdated
	case EventMessageDeleted, EventScheduleDeleted:
		return KindDeleted
	case EventMessageRead, EventScheduleResponse:
		return KindStatusChanged
	}
	return KindUnknown
}

// SubjectID returns the id of the record the event addresses.
func (e PushEvent) SubjectID() int64 {
	switch e.Collection {
	case CollectionMessages:
		if e.Message != nil {
			return e.Message.ID
		}
		return e.MessageID
	case CollectionSchedules:
		if e.Schedule != nil {
			return e.Schedule.ID
		}
		return e.ScheduleID
	}
	return 0
}

// MarkAsRead is the client-originated control message announcing a read
// receipt on the push channel.
type MarkAsRead struct {
	Type      string `json:"type"`
	MessageID int64  `json:"message_id"`
}

// NewMarkAsRead builds the mark_as_read control message for a message id.
func NewMarkAsRead(messageID int64) MarkAsRead {
	return MarkAsRead{Type: "mark_as_read", MessageID: messageID}
}
