package compose

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"commhub/models"
	"commhub/resolver"
	"commhub/utils"
)

// Mode is the compose workflow state.
type Mode int

const (
	ModeIdle Mode = iota
	ModeNew
	ModeReply
	ModeForward
	ModeEdit
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeNew:
		return "new"
	case ModeReply:
		return "reply"
	case ModeForward:
		return "forward"
	case ModeEdit:
		return "edit"
	}
	return "unknown"
}

// SubmitFunc executes the single atomic create/update call. The backend
// persists the record, its recipients and its attachments together or not at
// all.
type SubmitFunc func(draft models.Draft, status models.MessageStatus, existingID int64) (models.Message, error)

// DraftStore persists a failed composition so it survives a restart.
type DraftStore interface {
	SaveDraft(userID, draftID string, draft *models.Draft) error
	DeleteDraft(userID, draftID string) error
}

// Orchestrator assembles a draft message — core fields, the resolved
// recipient selection, staged attachments — tracks the workflow mode, and
// executes the submission. On failure every piece of staged state is
// preserved so the user retries without re-selecting or re-attaching.
type Orchestrator struct {
	submit SubmitFunc
	store  DraftStore
	userID string
	log    *utils.Logger

	// Recipients is the session's selection set, shared with the resolver.
	Recipients *resolver.Selection

	mu         sync.Mutex
	mode       Mode
	draft      models.Draft
	existingID int64
}

// New creates an orchestrator in the idle state.
func New(submit SubmitFunc, recipients *resolver.Selection) *Orchestrator {
	if recipients == nil {
		recipients = resolver.NewSelection()
	}
	return &Orchestrator{
		submit:     submit,
		Recipients: recipients,
		log:        utils.Log.WithField("component", "compose"),
	}
}

// UseDraftStore enables draft persistence for the given viewer.
func (o *Orchestrator) UseDraftStore(store DraftStore, userID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.store = store
	o.userID = userID
}

// Mode returns the current workflow mode.
func (o *Orchestrator) Mode() Mode {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.mode
}

// Draft returns a snapshot of the assembled draft, including the current
// recipient selection.
func (o *Orchestrator) Draft() models.Draft {
	o.mu.Lock()
	defer o.mu.Unlock()
	d := o.draft
	d.Recipients = o.Recipients.Recipients()
	d.Attachments = append([]models.Attachment(nil), o.draft.Attachments...)
	return d
}

// Begin starts a blank composition.
func (o *Orchestrator) Begin() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.reset(ModeNew)
}

// BeginReply starts a composition prefilled from the original message, with
// the quoted body and the original sender preselected.
func (o *Orchestrator) BeginReply(original models.Message) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.reset(ModeReply)
	o.draft.Subject = prefixSubject("Re: ", original.Subject)
	o.draft.Content = quoteOriginal("Original Message", original)
	o.draft.MessageTypeID = original.MessageType
	o.draft.ParentMessageID = original.ID
	o.Recipients.Select(models.UserRecipient(original.Sender))
}

// BeginForward starts a composition carrying the original message onward.
// Recipients start empty.
func (o *Orchestrator) BeginForward(original models.Message) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.reset(ModeForward)
	o.draft.Subject = prefixSubject("Fwd: ", original.Subject)
	o.draft.Content = quoteOriginal("Forwarded Message", original)
	o.draft.MessageTypeID = original.MessageType
	o.draft.ParentMessageID = original.ID
	o.draft.IsForward = true
}

// BeginEdit seeds the composition from an existing draft-status message.
func (o *Orchestrator) BeginEdit(existing models.Message) error {
	if existing.Status != models.StatusDraft {
		return utils.NewValidationError("status", "only draft messages can be edited")
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.reset(ModeEdit)
	o.existingID = existing.ID
	o.draft.Subject = existing.Subject
	o.draft.Content = existing.Content
	o.draft.MessageTypeID = existing.MessageType
	o.draft.ParentMessageID = existing.ParentMessageID
	o.draft.IsForward = existing.IsForward
	o.draft.Attachments = append([]models.Attachment(nil), existing.Attachments...)

	recipients := make([]models.Recipient, 0, len(existing.Recipients))
	for _, mr := range existing.Recipients {
		if r := mr.AsRecipient(); r.ID != 0 {
			recipients = append(recipients, r)
		}
	}
	o.Recipients.Replace(recipients)
	return nil
}

// Resume restores a persisted composition, typically one saved after a
// failed submission.
func (o *Orchestrator) Resume(draft models.Draft) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.reset(ModeNew)
	recipients := draft.Recipients
	draft.Recipients = nil
	o.draft = draft
	o.Recipients.Replace(recipients)
}

// SetSubject updates the draft subject.
func (o *Orchestrator) SetSubject(subject string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.draft.Subject = subject
}

// SetContent updates the draft body.
func (o *Orchestrator) SetContent(content string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.draft.Content = content
}

// SetMessageType updates the draft's message type.
func (o *Orchestrator) SetMessageType(typeID int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.draft.MessageTypeID = typeID
}

// StageAttachment holds a locally selected file for submission and returns
// its client-temporary record.
func (o *Orchestrator) StageAttachment(filename, contentType string, data []byte) models.Attachment {
	a := models.NewStagedAttachment(filename, contentType, data)
	o.mu.Lock()
	o.draft.Attachments = append(o.draft.Attachments, a)
	o.mu.Unlock()
	return a
}

// RemoveAttachment discards a staged or carried attachment by id.
func (o *Orchestrator) RemoveAttachment(id string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := range o.draft.Attachments {
		if o.draft.Attachments[i].ID == id {
			o.draft.Attachments = append(o.draft.Attachments[:i], o.draft.Attachments[i+1:]...)
			return true
		}
	}
	return false
}

// Discard abandons the composition: staging and selection are cleared and the
// workflow returns to idle.
func (o *Orchestrator) Discard() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.dropPersisted()
	o.reset(ModeIdle)
}

// Send submits the composition with sent status.
func (o *Orchestrator) Send() (models.Message, error) {
	return o.doSubmit(models.StatusSent)
}

// SaveDraft submits the composition with draft status.
func (o *Orchestrator) SaveDraft() (models.Message, error) {
	return o.doSubmit(models.StatusDraft)
}

// doSubmit validates locally, then performs the single atomic call. Local
// validation failures never reach the network. On success staging is cleared
// and the workflow returns to idle; on failure all staged state is kept.
func (o *Orchestrator) doSubmit(status models.MessageStatus) (models.Message, error) {
	o.mu.Lock()
	if o.mode == ModeIdle {
		o.mu.Unlock()
		return models.Message{}, utils.NewValidationError("mode", "no composition in progress")
	}
	draft := o.draft
	draft.Recipients = o.Recipients.Recipients()
	existingID := o.existingID
	o.mu.Unlock()

	if err := validate(draft); err != nil {
		return models.Message{}, err
	}

	msg, err := o.submit(draft, status, existingID)
	if err != nil {
		o.mu.Lock()
		o.persistForRetry(draft)
		o.mu.Unlock()
		return models.Message{}, err
	}

	o.mu.Lock()
	o.dropPersisted()
	o.reset(ModeIdle)
	o.mu.Unlock()
	return msg, nil
}

// validate enforces the pre-network submission rules.
func validate(draft models.Draft) error {
	verr := &utils.ValidationError{}
	if strings.TrimSpace(draft.Subject) == "" {
		verr.Add("subject", "subject is required")
	}
	if strings.TrimSpace(draft.Content) == "" {
		verr.Add("content", "content is required")
	}
	if draft.MessageTypeID <= 0 {
		verr.Add("message_type", "message type is required")
	}
	if len(draft.Recipients) == 0 {
		verr.Add("recipients", "at least one user or group recipient is required")
	}
	if verr.Empty() {
		return nil
	}
	return verr
}

// reset clears composition state; callers hold the lock.
func (o *Orchestrator) reset(mode Mode) {
	o.mode = mode
	o.existingID = 0
	o.draft = models.Draft{}
	o.Recipients.Clear()
}

// persistForRetry stores the failed composition; callers hold the lock.
func (o *Orchestrator) persistForRetry(draft models.Draft) {
	if o.store == nil {
		return
	}
	draft.UpdatedAt = time.Now()
	if err := o.store.SaveDraft(o.userID, draft.ID, &draft); err != nil {
		o.log.Warn("Failed to persist draft for retry: %v", err)
		return
	}
	o.draft.ID = draft.ID
}

// dropPersisted removes the stored copy of the composition; callers hold the
// lock.
func (o *Orchestrator) dropPersisted() {
	if o.store == nil || o.draft.ID == "" {
		return
	}
	if err := o.store.DeleteDraft(o.userID, o.draft.ID); err != nil {
		o.log.Warn("Failed to remove persisted draft: %v", err)
	}
}

// prefixSubject applies a reply/forward prefix exactly once.
func prefixSubject(prefix, subject string) string {
	if strings.HasPrefix(strings.ToLower(subject), strings.ToLower(prefix)) {
		return subject
	}
	return prefix + subject
}

// quoteOriginal renders the quoted block appended to replies and forwards.
func quoteOriginal(label string, original models.Message) string {
	return fmt.Sprintf("\n\n---------- %s ----------\nFrom: %s\nDate: %s\nSubject: %s\n\n%s",
		label,
		original.Sender.DisplayName(),
		original.SentAt.Format("Jan 2, 2006 - 3:04 PM"),
		original.Subject,
		original.Content)
}
