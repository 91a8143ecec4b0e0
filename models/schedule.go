package models

import (
	"fmt"
	"time"
)

// ResponseStatus is a participant's declared attendance response.
type ResponseStatus string

const (
	ResponsePending   ResponseStatus = "pending"
	ResponseAccepted  ResponseStatus = "accepted"
	ResponseDeclined  ResponseStatus = "declined"
	ResponseTentative ResponseStatus = "tentative"
)

// Valid reports whether the status is one of the four known responses.
func (s ResponseStatus) Valid() bool {
	switch s {
	case ResponsePending, ResponseAccepted, ResponseDeclined, ResponseTentative:
		return true
	}
	return false
}

// Participant is one invitee of a schedule event: an individual user or a
// group, with their current RSVP.
type Participant struct {
	ID             int64          `json:"id"`
	User           *User          `json:"user,omitempty"`
	Group          *Group         `json:"group,omitempty"`
	ResponseStatus ResponseStatus `json:"response_status"`
}

// AsRecipient collapses the participant subject into the recipient union.
func (p Participant) AsRecipient() Recipient {
	if p.User != nil {
		return UserRecipient(*p.User)
	}
	if p.Group != nil {
		return GroupRecipient(*p.Group)
	}
	return Recipient{}
}

// ScheduleEvent is a calendar entry with invited participants.
type ScheduleEvent struct {
	ID           int64         `json:"id"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	StartTime    time.Time     `json:"start_time"`
	EndTime      time.Time     `json:"end_time"`
	Location     string        `json:"location"`
	IsAllDay     bool          `json:"is_all_day"`
	Participants []Participant `json:"participants"`
}

// ItemID implements collection.Item.
func (s ScheduleEvent) ItemID() int64 { return s.ID }

// Validate checks the schedule's own invariants before submission.
func (s ScheduleEvent) Validate() error {
	if s.Title == "" {
		return fmt.Errorf("title is required")
	}
	if s.EndTime.Before(s.StartTime) {
		return fmt.Errorf("end time %s is before start time %s",
			s.EndTime.Format(time.RFC3339), s.StartTime.Format(time.RFC3339))
	}
	return nil
}
