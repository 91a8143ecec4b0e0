package api

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"commhub/client"
	"commhub/collection"
	"commhub/compose"
	"commhub/models"
	"commhub/storage"
	"commhub/utils"

	"github.com/gofiber/fiber/v2"
)

// maxAttachmentBytes caps a single staged upload.
const maxAttachmentBytes = 25 << 20

// ComposeHandler drives the compose workflow: starting a composition in one
// of its modes, staging fields and attachments, and submitting.
type ComposeHandler struct {
	orch   *compose.Orchestrator
	view   *collection.View[models.Message]
	client *client.Client
	drafts *storage.DraftStorage
	userID string
}

// NewComposeHandler creates a new compose handler
func NewComposeHandler(orch *compose.Orchestrator, view *collection.View[models.Message],
	backend *client.Client, drafts *storage.DraftStorage, userID string) *ComposeHandler {
	return &ComposeHandler{
		orch:   orch,
		view:   view,
		client: backend,
		drafts: drafts,
		userID: userID,
	}
}

// HandleState returns the workflow mode and the assembled draft.
func (h *ComposeHandler) HandleState(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"mode":  h.orch.Mode().String(),
		"draft": h.orch.Draft(),
	})
}

// HandleBegin starts a blank composition.
func (h *ComposeHandler) HandleBegin(c *fiber.Ctx) error {
	h.orch.Begin()
	return h.HandleState(c)
}

// HandleBeginReply starts a reply to an existing message.
func (h *ComposeHandler) HandleBeginReply(c *fiber.Ctx) error {
	original, err := h.loadOriginal(c)
	if err != nil {
		return err
	}
	h.orch.BeginReply(original)
	return h.HandleState(c)
}

// HandleBeginForward starts a forward of an existing message.
func (h *ComposeHandler) HandleBeginForward(c *fiber.Ctx) error {
	original, err := h.loadOriginal(c)
	if err != nil {
		return err
	}
	h.orch.BeginForward(original)
	return h.HandleState(c)
}

// HandleBeginEdit reopens an existing draft message for editing.
func (h *ComposeHandler) HandleBeginEdit(c *fiber.Ctx) error {
	original, err := h.loadOriginal(c)
	if err != nil {
		return err
	}
	if err := h.orch.BeginEdit(original); err != nil {
		return submissionError(err)
	}
	return h.HandleState(c)
}

// HandleUpdate sets the core draft fields.
func (h *ComposeHandler) HandleUpdate(c *fiber.Ctx) error {
	var req struct {
		Subject     *string `json:"subject"`
		Content     *string `json:"content"`
		MessageType *int64  `json:"message_type"`
	}
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequestError("Invalid request", err)
	}
	if req.Subject != nil {
		// Stored verbatim; prefix stripping is a display concern.
		h.orch.SetSubject(strings.TrimSpace(*req.Subject))
	}
	if req.Content != nil {
		h.orch.SetContent(*req.Content)
	}
	if req.MessageType != nil {
		h.orch.SetMessageType(*req.MessageType)
	}
	return h.HandleState(c)
}

// HandleStageAttachment stages an uploaded file for submission.
func (h *ComposeHandler) HandleStageAttachment(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return utils.BadRequestError("Missing file", err)
	}
	if fileHeader.Size > maxAttachmentBytes {
		return utils.BadRequestError("Attachment too large", nil)
	}

	f, err := fileHeader.Open()
	if err != nil {
		return utils.BadRequestError("Failed to open upload", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return utils.InternalServerError("Failed to read upload", err)
	}

	staged := h.orch.StageAttachment(fileHeader.Filename, fileHeader.Header.Get("Content-Type"), data)
	return c.Status(201).JSON(staged)
}

// HandleRemoveAttachment discards a staged attachment.
func (h *ComposeHandler) HandleRemoveAttachment(c *fiber.Ctx) error {
	if !h.orch.RemoveAttachment(c.Params("id")) {
		return utils.NotFoundError("Attachment not staged", nil)
	}
	return c.JSON(fiber.Map{"success": true})
}

// HandleSelectRecipient adds a recipient to the selection set. Duplicate
// selections are absorbed.
func (h *ComposeHandler) HandleSelectRecipient(c *fiber.Ctx) error {
	var r models.Recipient
	if err := c.BodyParser(&r); err != nil {
		return utils.BadRequestError("Invalid request", err)
	}
	if r.Kind != models.KindUser && r.Kind != models.KindGroup {
		return utils.BadRequestError("Recipient kind must be user or group", nil)
	}
	if r.ID <= 0 {
		return utils.BadRequestError("Recipient id is required", nil)
	}
	h.orch.Recipients.Select(r)
	return c.JSON(h.orch.Recipients.Recipients())
}

// HandleDeselectRecipient removes a recipient by its (kind, id) key.
func (h *ComposeHandler) HandleDeselectRecipient(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return utils.BadRequestError("Invalid id", err)
	}
	key := models.RecipientKey{Kind: models.RecipientKind(c.Params("kind")), ID: id}
	if !h.orch.Recipients.Deselect(key) {
		return utils.NotFoundError("Recipient not selected", nil)
	}
	return c.JSON(h.orch.Recipients.Recipients())
}

// HandleSend submits the composition as sent.
func (h *ComposeHandler) HandleSend(c *fiber.Ctx) error {
	msg, err := h.orch.Send()
	if err != nil {
		return submissionError(err)
	}
	return c.Status(201).JSON(msg)
}

// HandleSaveDraft submits the composition with draft status.
func (h *ComposeHandler) HandleSaveDraft(c *fiber.Ctx) error {
	msg, err := h.orch.SaveDraft()
	if err != nil {
		return submissionError(err)
	}
	return c.Status(201).JSON(msg)
}

// HandleDiscard abandons the composition.
func (h *ComposeHandler) HandleDiscard(c *fiber.Ctx) error {
	h.orch.Discard()
	return c.JSON(fiber.Map{"success": true})
}

// HandleListRecovered lists locally persisted compositions from failed
// submissions.
func (h *ComposeHandler) HandleListRecovered(c *fiber.Ctx) error {
	drafts, err := h.drafts.GetDrafts(h.userID)
	if err != nil {
		return utils.InternalServerError("Failed to list recovered drafts", err)
	}
	if drafts == nil {
		drafts = []*models.Draft{}
	}
	return c.JSON(drafts)
}

// HandleResume restores a persisted composition into the workflow.
func (h *ComposeHandler) HandleResume(c *fiber.Ctx) error {
	draft, err := h.drafts.GetDraft(h.userID, c.Params("id"))
	if err != nil {
		return utils.NotFoundError("Recovered draft not found", err)
	}
	h.orch.Resume(*draft)
	return h.HandleState(c)
}

// HandleDeleteRecovered drops a persisted composition.
func (h *ComposeHandler) HandleDeleteRecovered(c *fiber.Ctx) error {
	if err := h.drafts.DeleteDraft(h.userID, c.Params("id")); err != nil {
		return utils.NotFoundError("Recovered draft not found", err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// loadOriginal resolves the message referenced by the request body, checking
// the view first.
func (h *ComposeHandler) loadOriginal(c *fiber.Ctx) (models.Message, error) {
	var req struct {
		MessageID int64 `json:"message_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.Message{}, utils.BadRequestError("Invalid request", err)
	}
	if req.MessageID <= 0 {
		return models.Message{}, utils.BadRequestError("message_id is required", nil)
	}

	if msg, ok := h.view.Find(req.MessageID); ok {
		return msg, nil
	}
	msg, err := h.client.GetMessage(req.MessageID)
	if err != nil {
		return models.Message{}, backendError("Failed to fetch message", err)
	}
	return msg, nil
}

// submissionError maps validation failures to a field-keyed 400 payload and
// delegates the rest to the backend translation.
func submissionError(err error) error {
	var verr *utils.ValidationError
	if errors.As(err, &verr) {
		return utils.BadRequestError(verr.Error(), err)
	}
	return backendError("Submission failed", err)
}
