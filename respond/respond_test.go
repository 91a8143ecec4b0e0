package respond

import (
	"errors"
	"testing"

	"commhub/collection"
	"commhub/models"
	"commhub/utils"
)

func messageView(t *testing.T, msgs ...models.Message) *collection.View[models.Message] {
	t.Helper()
	fetch := func(q collection.Query) (models.Page[models.Message], error) {
		return models.NewPage(msgs, 1, 10, len(msgs)), nil
	}
	v := collection.NewMessageView(10, fetch)
	if _, err := v.Refresh(); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	return v
}

func scheduleView(t *testing.T, events ...models.ScheduleEvent) *collection.View[models.ScheduleEvent] {
	t.Helper()
	fetch := func(q collection.Query) (models.Page[models.ScheduleEvent], error) {
		return models.NewPage(events, 1, 10, len(events)), nil
	}
	v := collection.NewScheduleView(10, fetch)
	if _, err := v.Refresh(); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	return v
}

type announceRecorder struct {
	sent []interface{}
}

func (a *announceRecorder) Send(v interface{}) { a.sent = append(a.sent, v) }

func TestMarkReadOptimisticPatch(t *testing.T) {
	v := messageView(t, models.Message{ID: 1})
	announcer := &announceRecorder{}
	counter := &UnreadCounter{}
	counter.Set(5)

	var backendCalls int
	marker := NewReadMarker(v, func(id int64) error {
		backendCalls++
		// The patch must already be visible when the backend call runs.
		if msg, _ := v.Find(id); !msg.IsRead {
			t.Error("optimistic patch should precede the backend call")
		}
		return nil
	}, announcer, counter)

	if err := marker.MarkRead(1); err != nil {
		t.Fatalf("mark read failed: %v", err)
	}
	if backendCalls != 1 {
		t.Fatalf("expected 1 backend call, got %d", backendCalls)
	}
	if counter.Value() != 4 {
		t.Errorf("expected counter 4, got %d", counter.Value())
	}

	if len(announcer.sent) != 1 {
		t.Fatalf("expected 1 announcement, got %d", len(announcer.sent))
	}
	control, ok := announcer.sent[0].(models.MarkAsRead)
	if !ok || control.Type != "mark_as_read" || control.MessageID != 1 {
		t.Errorf("unexpected announcement %+v", announcer.sent[0])
	}
}

func TestMarkReadIdempotent(t *testing.T) {
	v := messageView(t, models.Message{ID: 1, IsRead: true})
	var backendCalls int
	marker := NewReadMarker(v, func(id int64) error {
		backendCalls++
		return nil
	}, nil, nil)

	if err := marker.MarkRead(1); err != nil {
		t.Fatalf("re-marking should succeed: %v", err)
	}
	if backendCalls != 0 {
		t.Error("re-marking a read message must not reach the backend")
	}
}

func TestMarkReadRollbackOnRejection(t *testing.T) {
	v := messageView(t, models.Message{ID: 1})
	counter := &UnreadCounter{}
	counter.Set(5)

	marker := NewReadMarker(v, func(id int64) error {
		return &utils.ServerRejection{StatusCode: 403, Detail: "not the recipient"}
	}, nil, counter)

	err := marker.MarkRead(1)
	var rejection *utils.ServerRejection
	if !errors.As(err, &rejection) {
		t.Fatalf("expected rejection to surface, got %v", err)
	}

	if msg, _ := v.Find(1); msg.IsRead {
		t.Error("rejected patch must be rolled back")
	}
	if counter.Value() != 5 {
		t.Errorf("rejected receipt must not move the counter, got %d", counter.Value())
	}
}

func participants(statuses ...models.ResponseStatus) []models.Participant {
	out := make([]models.Participant, 0, len(statuses))
	for i, s := range statuses {
		out = append(out, models.Participant{ID: int64(100 + i), ResponseStatus: s})
	}
	return out
}

func TestRespondOptimisticPatch(t *testing.T) {
	v := scheduleView(t, models.ScheduleEvent{
		ID:           1,
		Participants: participants(models.ResponsePending, models.ResponseAccepted),
	})

	var backendCalls int
	responder := NewResponder(v, func(id int64, r models.ResponseStatus) error {
		backendCalls++
		return nil
	}, 100)

	if err := responder.Respond(1, models.ResponseAccepted); err != nil {
		t.Fatalf("respond failed: %v", err)
	}
	evt, _ := v.Find(1)
	if evt.Participants[0].ResponseStatus != models.ResponseAccepted {
		t.Errorf("viewer's row not patched: %+v", evt.Participants[0])
	}

	// Changing the answer is allowed, any number of times.
	if err := responder.Respond(1, models.ResponseDeclined); err != nil {
		t.Fatalf("re-respond failed: %v", err)
	}
	evt, _ = v.Find(1)
	if evt.Participants[0].ResponseStatus != models.ResponseDeclined {
		t.Errorf("second response not applied: %+v", evt.Participants[0])
	}
	if backendCalls != 2 {
		t.Errorf("expected 2 backend calls, got %d", backendCalls)
	}
}

func TestRespondIdempotentNoop(t *testing.T) {
	v := scheduleView(t, models.ScheduleEvent{
		ID:           1,
		Participants: participants(models.ResponseAccepted),
	})

	var backendCalls int
	responder := NewResponder(v, func(id int64, r models.ResponseStatus) error {
		backendCalls++
		return nil
	}, 100)

	if err := responder.Respond(1, models.ResponseAccepted); err != nil {
		t.Fatalf("idempotent respond should succeed: %v", err)
	}
	if backendCalls != 0 {
		t.Error("re-selecting the current response must not reach the backend")
	}
}

func TestRespondRollbackOnRejection(t *testing.T) {
	v := scheduleView(t, models.ScheduleEvent{
		ID:           1,
		Participants: participants(models.ResponseTentative),
	})

	responder := NewResponder(v, func(id int64, r models.ResponseStatus) error {
		return &utils.ServerRejection{StatusCode: 409, Detail: "event closed"}
	}, 100)

	if err := responder.Respond(1, models.ResponseDeclined); err == nil {
		t.Fatal("expected rejection to surface")
	}
	evt, _ := v.Find(1)
	if evt.Participants[0].ResponseStatus != models.ResponseTentative {
		t.Errorf("rejected patch must restore the previous status, got %s",
			evt.Participants[0].ResponseStatus)
	}
}

func TestRespondInvalidStatus(t *testing.T) {
	v := scheduleView(t, models.ScheduleEvent{ID: 1, Participants: participants(models.ResponsePending)})
	var backendCalls int
	responder := NewResponder(v, func(id int64, r models.ResponseStatus) error {
		backendCalls++
		return nil
	}, 100)

	if err := responder.Respond(1, "maybe"); err == nil {
		t.Error("unknown status must be rejected locally")
	}
	if backendCalls != 0 {
		t.Error("invalid status must not reach the backend")
	}
}

func TestUnreadCounterFloor(t *testing.T) {
	c := &UnreadCounter{}
	c.Decrement()
	if c.Value() != 0 {
		t.Errorf("counter must not go negative, got %d", c.Value())
	}
	c.Increment()
	c.Increment()
	c.Decrement()
	if c.Value() != 1 {
		t.Errorf("expected 1, got %d", c.Value())
	}
}
