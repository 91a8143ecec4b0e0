package collection

import (
	"commhub/models"
)

// NewMessageView builds the reconciled view over the messages collection.
func NewMessageView(pageSize int, fetch FetchFunc[models.Message]) *View[models.Message] {
	extract := func(evt models.PushEvent) (models.Message, bool) {
		if evt.Message == nil {
			return models.Message{}, false
		}
		return *evt.Message, true
	}
	patch := func(m *models.Message, evt models.PushEvent) bool {
		if evt.Type != models.EventMessageRead {
			return false
		}
		// Read state never reverts; re-marking is a no-op.
		if m.IsRead {
			return false
		}
		m.IsRead = true
		return true
	}
	return newView(models.CollectionMessages, pageSize, fetch, extract, patch)
}

// NewScheduleView builds the reconciled view over the schedules collection.
func NewScheduleView(pageSize int, fetch FetchFunc[models.ScheduleEvent]) *View[models.ScheduleEvent] {
	extract := func(evt models.PushEvent) (models.ScheduleEvent, bool) {
		if evt.Schedule == nil {
			return models.ScheduleEvent{}, false
		}
		return *evt.Schedule, true
	}
	patch := func(s *models.ScheduleEvent, evt models.PushEvent) bool {
		if evt.Type != models.EventScheduleResponse || !evt.Response.Valid() {
			return false
		}
		for i := range s.Participants {
			if s.Participants[i].ID == evt.ParticipantID {
				if s.Participants[i].ResponseStatus == evt.Response {
					return false
				}
				s.Participants[i].ResponseStatus = evt.Response
				return true
			}
		}
		return false
	}
	return newView(models.CollectionSchedules, pageSize, fetch, extract, patch)
}

// Find returns the displayed item with the given id, if present.
func (v *View[T]) Find(id int64) (T, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.page.Items {
		if v.page.Items[i].ItemID() == id {
			return v.page.Items[i], true
		}
	}
	var zero T
	return zero, false
}

// Mutate applies fn to the displayed item with the given id, if present. Used
// by the response state machine for optimistic patches and their rollbacks.
func (v *View[T]) Mutate(id int64, fn func(*T)) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.page.Items {
		if v.page.Items[i].ItemID() == id {
			fn(&v.page.Items[i])
			return true
		}
	}
	return false
}
