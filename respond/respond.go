// Package respond drives the two per-record state machines: one-way read
// receipts on messages and freely re-enterable RSVP responses on schedules.
// Both patch the reconciled view optimistically, confirm with the backend,
// and roll the patch back when the backend refuses.
package respond

import (
	"commhub/collection"
	"commhub/models"
	"commhub/utils"
)

// Announcer pushes client-originated control messages onto the live channel.
// push.Manager satisfies it.
type Announcer interface {
	Send(v interface{})
}

// ReadMarker performs the Unread -> Read transition. The transition is
// one-way: a read message never reverts, and re-marking is a no-op.
type ReadMarker struct {
	view     *collection.View[models.Message]
	mark     func(messageID int64) error
	announce Announcer
	counter  *UnreadCounter
	log      *utils.Logger
}

// NewReadMarker builds a marker over the message view. mark is the backend
// confirmation call; announce and counter may be nil.
func NewReadMarker(view *collection.View[models.Message], mark func(int64) error, announce Announcer, counter *UnreadCounter) *ReadMarker {
	return &ReadMarker{
		view:     view,
		mark:     mark,
		announce: announce,
		counter:  counter,
		log:      utils.Log.WithField("component", "respond"),
	}
}

// MarkRead marks the message as read. Already-read messages return
// immediately without a network call. The visible item is patched before the
// backend call and rolled back if the backend refuses; the read receipt is
// announced on the push channel only after the backend confirms.
func (r *ReadMarker) MarkRead(messageID int64) error {
	if msg, ok := r.view.Find(messageID); ok && msg.IsRead {
		return nil
	}

	patched := r.view.Mutate(messageID, func(m *models.Message) {
		m.IsRead = true
	})

	if err := r.mark(messageID); err != nil {
		if patched {
			r.view.Mutate(messageID, func(m *models.Message) {
				m.IsRead = false
			})
		}
		r.log.Warn("Read receipt for message %d rejected: %v", messageID, err)
		return err
	}

	if r.counter != nil {
		r.counter.Decrement()
	}
	if r.announce != nil {
		r.announce.Send(models.NewMarkAsRead(messageID))
	}
	return nil
}

// Responder performs RSVP transitions for the viewing participant. Unlike
// read receipts the response can move between accepted, declined and
// tentative any number of times.
type Responder struct {
	view          *collection.View[models.ScheduleEvent]
	respond       func(scheduleID int64, response models.ResponseStatus) error
	participantID int64
	log           *utils.Logger
}

// NewResponder builds a responder over the schedule view. participantID
// identifies the viewer's own participant record inside each event.
func NewResponder(view *collection.View[models.ScheduleEvent], respond func(int64, models.ResponseStatus) error, participantID int64) *Responder {
	return &Responder{
		view:          view,
		respond:       respond,
		participantID: participantID,
		log:           utils.Log.WithField("component", "respond"),
	}
}

// Respond sets the viewer's RSVP on the schedule. Re-selecting the current
// response is a no-op without a network call. The visible participant row is
// patched before the backend call and restored to its previous status if the
// backend refuses.
func (r *Responder) Respond(scheduleID int64, response models.ResponseStatus) error {
	if !response.Valid() {
		return utils.NewValidationError("response", "unknown response status "+string(response))
	}

	previous := models.ResponsePending
	if evt, ok := r.view.Find(scheduleID); ok {
		for _, p := range evt.Participants {
			if p.ID == r.participantID {
				previous = p.ResponseStatus
				break
			}
		}
		if previous == response {
			return nil
		}
	}

	patched := r.view.Mutate(scheduleID, func(s *models.ScheduleEvent) {
		r.setResponse(s, response)
	})

	if err := r.respond(scheduleID, response); err != nil {
		if patched {
			r.view.Mutate(scheduleID, func(s *models.ScheduleEvent) {
				r.setResponse(s, previous)
			})
		}
		r.log.Warn("RSVP %s on schedule %d rejected: %v", response, scheduleID, err)
		return err
	}
	return nil
}

func (r *Responder) setResponse(s *models.ScheduleEvent, status models.ResponseStatus) {
	for i := range s.Participants {
		if s.Participants[i].ID == r.participantID {
			s.Participants[i].ResponseStatus = status
			return
		}
	}
}
