package client

import (
	"fmt"
	"time"

	"commhub/collection"
	"commhub/models"
)

// SchedulePayload is the JSON body for schedule create/update calls.
// Participants are resolved to two id lists at submission time; the backend
// expands groups itself.
type SchedulePayload struct {
	Title             string  `json:"title"`
	Description       string  `json:"description"`
	StartTime         string  `json:"start_time"`
	EndTime           string  `json:"end_time"`
	Location          string  `json:"location"`
	IsAllDay          bool    `json:"is_all_day"`
	ParticipantUsers  []int64 `json:"participant_users"`
	ParticipantGroups []int64 `json:"participant_groups"`
}

// NewSchedulePayload builds the wire payload from an event and its resolved
// recipient set.
func NewSchedulePayload(event models.ScheduleEvent, recipients []models.Recipient) SchedulePayload {
	p := SchedulePayload{
		Title:             event.Title,
		Description:       event.Description,
		StartTime:         event.StartTime.Format(time.RFC3339),
		EndTime:           event.EndTime.Format(time.RFC3339),
		Location:          event.Location,
		IsAllDay:          event.IsAllDay,
		ParticipantUsers:  []int64{},
		ParticipantGroups: []int64{},
	}
	for _, r := range recipients {
		if r.Kind == models.KindGroup {
			p.ParticipantGroups = append(p.ParticipantGroups, r.ID)
		} else {
			p.ParticipantUsers = append(p.ParticipantUsers, r.ID)
		}
	}
	return p
}

// ListSchedules fetches one page of the schedules collection.
func (c *Client) ListSchedules(q collection.Query) (models.Page[models.ScheduleEvent], error) {
	var env listEnvelope[models.ScheduleEvent]
	if err := c.getJSON("/schedules", q.Values(), &env); err != nil {
		return models.Page[models.ScheduleEvent]{}, err
	}
	return models.NewPage(env.Results, q.Page(), q.PageSize(), env.Count), nil
}

// CreateSchedule creates a schedule event.
func (c *Client) CreateSchedule(payload SchedulePayload) (models.ScheduleEvent, error) {
	var event models.ScheduleEvent
	if err := c.postJSON("/schedules", payload, &event); err != nil {
		return models.ScheduleEvent{}, err
	}
	return event, nil
}

// UpdateSchedule updates an existing schedule event.
func (c *Client) UpdateSchedule(id int64, payload SchedulePayload) (models.ScheduleEvent, error) {
	var event models.ScheduleEvent
	if err := c.putJSON(fmt.Sprintf("/schedules/%d", id), payload, &event); err != nil {
		return models.ScheduleEvent{}, err
	}
	return event, nil
}

// DeleteSchedule deletes a schedule event.
func (c *Client) DeleteSchedule(id int64) error {
	return c.delete(fmt.Sprintf("/schedules/%d", id))
}

// RespondToSchedule records the viewer's RSVP. Resubmitting the current
// status is a no-op success on the backend.
func (c *Client) RespondToSchedule(id int64, response models.ResponseStatus) error {
	payload := struct {
		Response models.ResponseStatus `json:"response"`
	}{Response: response}
	return c.postJSON(fmt.Sprintf("/schedules/%d/respond", id), payload, nil)
}
