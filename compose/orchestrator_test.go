package compose

import (
	"errors"
	"strings"
	"testing"
	"time"

	"commhub/models"
	"commhub/utils"
)

type submitRecorder struct {
	calls  int
	draft  models.Draft
	status models.MessageStatus
	id     int64
	err    error
}

func (s *submitRecorder) submit(draft models.Draft, status models.MessageStatus, existingID int64) (models.Message, error) {
	s.calls++
	s.draft = draft
	s.status = status
	s.id = existingID
	if s.err != nil {
		return models.Message{}, s.err
	}
	return models.Message{ID: 42, Subject: draft.Subject, Status: status}, nil
}

func validComposition(o *Orchestrator) {
	o.Begin()
	o.SetSubject("Field trip")
	o.SetContent("Details attached")
	o.SetMessageType(2)
	o.Recipients.Select(models.Recipient{Kind: models.KindUser, ID: 7, DisplayName: "Aki"})
}

func TestSendValidatesBeforeNetwork(t *testing.T) {
	tests := []struct {
		name   string
		change func(*Orchestrator)
		field  string
	}{
		{"missing subject", func(o *Orchestrator) { o.SetSubject("  ") }, "subject"},
		{"missing content", func(o *Orchestrator) { o.SetContent("") }, "content"},
		{"missing type", func(o *Orchestrator) { o.SetMessageType(0) }, "message_type"},
		{"no recipients", func(o *Orchestrator) { o.Recipients.Clear() }, "recipients"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &submitRecorder{}
			o := New(rec.submit, nil)
			validComposition(o)
			tt.change(o)

			_, err := o.Send()
			var verr *utils.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if _, ok := verr.Fields[tt.field]; !ok {
				t.Errorf("expected field %q flagged, got %v", tt.field, verr.Fields)
			}
			if rec.calls != 0 {
				t.Error("validation failure must not reach the network")
			}
		})
	}
}

func TestSendSuccessClearsStaging(t *testing.T) {
	rec := &submitRecorder{}
	o := New(rec.submit, nil)
	validComposition(o)
	o.StageAttachment("permission.pdf", "application/pdf", []byte("pdf"))

	msg, err := o.Send()
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if msg.ID != 42 {
		t.Errorf("expected created message, got %+v", msg)
	}
	if rec.status != models.StatusSent {
		t.Errorf("expected sent status, got %s", rec.status)
	}
	if len(rec.draft.Recipients) != 1 || len(rec.draft.Attachments) != 1 {
		t.Errorf("submission should carry staged state: %d recipients, %d attachments",
			len(rec.draft.Recipients), len(rec.draft.Attachments))
	}

	if o.Mode() != ModeIdle {
		t.Errorf("workflow should return to idle, got %s", o.Mode())
	}
	if o.Recipients.Len() != 0 {
		t.Error("selection should be cleared after success")
	}
	if d := o.Draft(); d.Subject != "" || len(d.Attachments) != 0 {
		t.Errorf("staging should be cleared after success, got %+v", d)
	}
}

func TestSendFailurePreservesStaging(t *testing.T) {
	rec := &submitRecorder{err: &utils.ServerRejection{StatusCode: 503, Detail: "maintenance"}}
	o := New(rec.submit, nil)
	validComposition(o)
	o.StageAttachment("permission.pdf", "application/pdf", []byte("pdf"))

	if _, err := o.Send(); err == nil {
		t.Fatal("expected submission failure")
	}

	if o.Mode() == ModeIdle {
		t.Error("failed submission must keep the workflow open")
	}
	d := o.Draft()
	if d.Subject != "Field trip" || len(d.Attachments) != 1 || len(d.Recipients) != 1 {
		t.Errorf("staged state must survive failure, got %+v", d)
	}

	// Retry after the backend recovers.
	rec.err = nil
	if _, err := o.Send(); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if rec.calls != 2 {
		t.Errorf("expected 2 submissions, got %d", rec.calls)
	}
}

func TestSaveDraftUsesDraftStatus(t *testing.T) {
	rec := &submitRecorder{}
	o := New(rec.submit, nil)
	validComposition(o)

	if _, err := o.SaveDraft(); err != nil {
		t.Fatalf("save draft failed: %v", err)
	}
	if rec.status != models.StatusDraft {
		t.Errorf("expected draft status, got %s", rec.status)
	}
}

func TestSubmitWithoutComposition(t *testing.T) {
	rec := &submitRecorder{}
	o := New(rec.submit, nil)

	if _, err := o.Send(); err == nil {
		t.Error("idle workflow must reject submission")
	}
	if rec.calls != 0 {
		t.Error("no network call expected")
	}
}

func TestBeginReplyPrefills(t *testing.T) {
	rec := &submitRecorder{}
	o := New(rec.submit, nil)

	original := models.Message{
		ID:          9,
		Subject:     "Sports day",
		Content:     "Bring water bottles.",
		MessageType: 3,
		Sender:      models.User{ID: 4, FirstName: "Yuki", LastName: "Sato", Email: "yuki@example.org"},
		SentAt:      time.Date(2026, 4, 3, 9, 30, 0, 0, time.UTC),
	}
	o.BeginReply(original)

	d := o.Draft()
	if d.Subject != "Re: Sports day" {
		t.Errorf("unexpected subject %q", d.Subject)
	}
	if d.ParentMessageID != 9 || d.IsForward {
		t.Errorf("unexpected threading fields: parent=%d forward=%v", d.ParentMessageID, d.IsForward)
	}
	if !strings.Contains(d.Content, "---------- Original Message ----------") {
		t.Errorf("quoted block missing from %q", d.Content)
	}
	if !strings.Contains(d.Content, "From: Yuki Sato") {
		t.Errorf("sender attribution missing from %q", d.Content)
	}

	got := o.Recipients.Recipients()
	if len(got) != 1 || got[0].ID != 4 || got[0].Kind != models.KindUser {
		t.Errorf("sender should be preselected, got %+v", got)
	}
}

func TestBeginReplyPrefixAppliedOnce(t *testing.T) {
	o := New((&submitRecorder{}).submit, nil)
	o.BeginReply(models.Message{ID: 1, Subject: "Re: Sports day"})
	if d := o.Draft(); d.Subject != "Re: Sports day" {
		t.Errorf("prefix must not stack, got %q", d.Subject)
	}
}

func TestBeginForward(t *testing.T) {
	o := New((&submitRecorder{}).submit, nil)
	o.BeginForward(models.Message{ID: 9, Subject: "Sports day", Content: "x"})

	d := o.Draft()
	if d.Subject != "Fwd: Sports day" {
		t.Errorf("unexpected subject %q", d.Subject)
	}
	if !d.IsForward || d.ParentMessageID != 9 {
		t.Errorf("forward threading fields wrong: %+v", d)
	}
	if len(d.Recipients) != 0 {
		t.Error("forwards start with an empty selection")
	}
	if !strings.Contains(d.Content, "---------- Forwarded Message ----------") {
		t.Errorf("quoted block missing from %q", d.Content)
	}
}

func TestBeginEditRequiresDraftStatus(t *testing.T) {
	o := New((&submitRecorder{}).submit, nil)
	if err := o.BeginEdit(models.Message{ID: 1, Status: models.StatusSent}); err == nil {
		t.Error("sent messages must not be editable")
	}
}

func TestBeginEditSeedsExisting(t *testing.T) {
	rec := &submitRecorder{}
	o := New(rec.submit, nil)

	existing := models.Message{
		ID:          15,
		Status:      models.StatusDraft,
		Subject:     "Reminder",
		Content:     "...",
		MessageType: 1,
		Recipients: []models.MessageRecipient{
			{User: &models.User{ID: 3, FirstName: "Aki"}},
			{Group: &models.Group{ID: 8, Name: "Grade 3"}},
		},
	}
	if err := o.BeginEdit(existing); err != nil {
		t.Fatalf("begin edit failed: %v", err)
	}
	if o.Recipients.Len() != 2 {
		t.Errorf("expected 2 preselected recipients, got %d", o.Recipients.Len())
	}

	if _, err := o.Send(); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if rec.id != 15 {
		t.Errorf("edit must update the existing record, got id %d", rec.id)
	}
}

func TestAttachmentStaging(t *testing.T) {
	o := New((&submitRecorder{}).submit, nil)
	o.Begin()

	a := o.StageAttachment("photo.png", "image/png", []byte{1, 2, 3})
	if !strings.HasPrefix(a.ID, "temp-") {
		t.Errorf("staged attachment should carry a temp id, got %q", a.ID)
	}
	if a.Size != 3 {
		t.Errorf("expected size 3, got %d", a.Size)
	}

	if !o.RemoveAttachment(a.ID) {
		t.Error("removal of a staged attachment should succeed")
	}
	if o.RemoveAttachment(a.ID) {
		t.Error("double removal should report false")
	}
}
