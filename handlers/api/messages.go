package api

import (
	"errors"
	"strconv"
	"time"

	"commhub/client"
	"commhub/collection"
	"commhub/models"
	"commhub/respond"
	"commhub/utils"

	"github.com/gofiber/fiber/v2"
)

// messageFilters are the filter keys accepted on the message list. Anything
// else in the query string is ignored.
var messageFilters = []string{"message_type", "status", "is_read", "search"}

const messageTypesCacheKey = "message_types"

// previewLength caps the derived plain-text list preview.
const previewLength = 120

// MessagesHandler serves the reconciled message collection and the operations
// on individual messages.
type MessagesHandler struct {
	view    *collection.View[models.Message]
	client  *client.Client
	marker  *respond.ReadMarker
	counter *respond.UnreadCounter
	cache   *utils.MemoryCache
}

// NewMessagesHandler creates a new messages handler
func NewMessagesHandler(view *collection.View[models.Message], backend *client.Client,
	marker *respond.ReadMarker, counter *respond.UnreadCounter, cache *utils.MemoryCache) *MessagesHandler {
	return &MessagesHandler{
		view:    view,
		client:  backend,
		marker:  marker,
		counter: counter,
		cache:   cache,
	}
}

// HandleList applies the request's filter and pagination parameters to the
// view and refreshes it. A refresh superseded by a newer one answers with the
// currently displayed page instead of failing.
func (h *MessagesHandler) HandleList(c *fiber.Ctx) error {
	applyListParams(c, h.view, messageFilters)

	page, err := h.view.Refresh()
	if errors.Is(err, utils.ErrStaleResult) {
		current, ok := h.view.CurrentPage()
		if !ok {
			return utils.BadGatewayError("Refresh superseded before any page loaded", nil)
		}
		page = current
	} else if err != nil {
		return backendError("Failed to fetch messages", err)
	}

	return c.JSON(withPreviews(page))
}

// withPreviews copies the page and derives a plain-text preview per message.
// The copy keeps the view's items untouched.
func withPreviews(page models.Page[models.Message]) models.Page[models.Message] {
	items := make([]models.Message, len(page.Items))
	for i, msg := range page.Items {
		msg.Preview = utils.Preview(msg.Content, previewLength)
		items[i] = msg
	}
	page.Items = items
	return page
}

// HandleGet returns one message, preferring the reconciled view and falling
// back to the backend for records outside the displayed page. Content is
// sanitized before it reaches the browser.
func (h *MessagesHandler) HandleGet(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	msg, ok := h.view.Find(id)
	if !ok {
		msg, err = h.client.GetMessage(id)
		if err != nil {
			return backendError("Failed to fetch message", err)
		}
	}

	msg.Content = utils.SanitizeContent(msg.Content)
	return c.JSON(msg)
}

// HandleMarkRead records a read receipt. Re-marking a read message succeeds
// without touching the backend.
func (h *MessagesHandler) HandleMarkRead(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.marker.MarkRead(id); err != nil {
		return backendError("Failed to mark message as read", err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// HandleDelete removes a message. The view catches up through the push
// channel's deleted event.
func (h *MessagesHandler) HandleDelete(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.client.DeleteMessage(id); err != nil {
		return backendError("Failed to delete message", err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// HandleUnreadCount returns the navigation badge value.
func (h *MessagesHandler) HandleUnreadCount(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"count": h.counter.Value()})
}

// HandleMessageTypes returns the administrator-defined categories, cached
// briefly since they change rarely but render on every compose form.
func (h *MessagesHandler) HandleMessageTypes(c *fiber.Ctx) error {
	if cached, ok := h.cache.Get(messageTypesCacheKey); ok {
		return c.JSON(cached)
	}

	types, err := h.client.MessageTypes()
	if err != nil {
		return backendError("Failed to fetch message types", err)
	}
	h.cache.Set(messageTypesCacheKey, types, 5*time.Minute)
	return c.JSON(types)
}

// applyListParams pushes the whitelisted filters and pagination parameters
// from the query string into the view.
func applyListParams[T collection.Item](c *fiber.Ctx, view *collection.View[T], filters []string) {
	params := c.Queries()
	for _, name := range filters {
		if v, ok := params[name]; ok {
			view.SetFilter(name, v)
		}
	}
	if n := c.QueryInt("page_size", 0); n > 0 {
		view.SetPageSize(n)
	}
	if n := c.QueryInt("page", 0); n > 0 {
		view.SetPage(n)
	}
}

// parseID reads the :id route parameter.
func parseID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, utils.BadRequestError("Invalid id", err)
	}
	return id, nil
}

// backendError translates client-layer failures into API errors. Server
// rejections keep their status and detail verbatim; network failures surface
// as bad gateway.
func backendError(message string, err error) error {
	var rejection *utils.ServerRejection
	if errors.As(err, &rejection) {
		detail := rejection.Detail
		if detail == "" {
			detail = message
		}
		return utils.NewAppError(rejection.StatusCode, detail, err)
	}
	var verr *utils.ValidationError
	if errors.As(err, &verr) {
		return utils.BadRequestError(verr.Error(), err)
	}
	return utils.BadGatewayError(message, err)
}
