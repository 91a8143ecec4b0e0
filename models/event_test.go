package models

import "testing"

func TestEventKind(t *testing.T) {
	tests := []struct {
		eventType string
		want      EventKind
	}{
		{EventNewMessage, KindCreated},
		{EventNewSchedule, KindCreated},
		{EventMessageUpdated, KindUpdated},
		{EventScheduleUpdated, KindUpdated},
		{EventMessageDeleted, KindDeleted},
		{EventScheduleDeleted, KindDeleted},
		{EventMessageRead, KindStatusChanged},
		{EventScheduleResponse, KindStatusChanged},
		{"something_else", KindUnknown},
		{"", KindUnknown},
	}

	for _, tt := range tests {
		evt := PushEvent{Type: tt.eventType}
		if got := evt.Kind(); got != tt.want {
			t.Errorf("Kind(%q) = %v, want %v", tt.eventType, got, tt.want)
		}
	}
}

func TestEventSubjectID(t *testing.T) {
	tests := []struct {
		name string
		evt  PushEvent
		want int64
	}{
		{"message payload", PushEvent{Collection: CollectionMessages, Message: &Message{ID: 4}}, 4},
		{"message id only", PushEvent{Collection: CollectionMessages, MessageID: 7}, 7},
		{"payload wins over id", PushEvent{Collection: CollectionMessages, Message: &Message{ID: 4}, MessageID: 7}, 4},
		{"schedule payload", PushEvent{Collection: CollectionSchedules, Schedule: &ScheduleEvent{ID: 9}}, 9},
		{"schedule id only", PushEvent{Collection: CollectionSchedules, ScheduleID: 3}, 3},
		{"unknown collection", PushEvent{Collection: "courses", MessageID: 7}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.evt.SubjectID(); got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}
