package api

import (
	"errors"
	"time"

	"commhub/client"
	"commhub/collection"
	"commhub/models"
	"commhub/respond"
	"commhub/utils"

	"github.com/gofiber/fiber/v2"
)

// scheduleFilters are the filter keys accepted on the schedule list.
var scheduleFilters = []string{"from", "to", "is_all_day", "search"}

// SchedulesHandler serves the reconciled schedule collection and its
// create/update/delete/RSVP operations.
type SchedulesHandler struct {
	view      *collection.View[models.ScheduleEvent]
	client    *client.Client
	responder *respond.Responder
}

// NewSchedulesHandler creates a new schedules handler
func NewSchedulesHandler(view *collection.View[models.ScheduleEvent], backend *client.Client,
	responder *respond.Responder) *SchedulesHandler {
	return &SchedulesHandler{
		view:      view,
		client:    backend,
		responder: responder,
	}
}

// scheduleRequest is the JSON body for create and update.
type scheduleRequest struct {
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	StartTime    time.Time          `json:"start_time"`
	EndTime      time.Time          `json:"end_time"`
	Location     string             `json:"location"`
	IsAllDay     bool               `json:"is_all_day"`
	Participants []models.Recipient `json:"participants"`
}

func (r scheduleRequest) toEvent() models.ScheduleEvent {
	return models.ScheduleEvent{
		Title:       r.Title,
		Description: r.Description,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		Location:    r.Location,
		IsAllDay:    r.IsAllDay,
	}
}

// HandleList applies filters and pagination and refreshes the view.
func (h *SchedulesHandler) HandleList(c *fiber.Ctx) error {
	applyListParams(c, h.view, scheduleFilters)

	page, err := h.view.Refresh()
	if errors.Is(err, utils.ErrStaleResult) {
		current, ok := h.view.CurrentPage()
		if !ok {
			return utils.BadGatewayError("Refresh superseded before any page loaded", nil)
		}
		page = current
	} else if err != nil {
		return backendError("Failed to fetch schedules", err)
	}

	return c.JSON(page)
}

// HandleGet returns one schedule from the displayed page.
func (h *SchedulesHandler) HandleGet(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	event, ok := h.view.Find(id)
	if !ok {
		return utils.NotFoundError("Schedule not on the displayed page", nil)
	}
	return c.JSON(event)
}

// HandleCreate validates and creates a schedule event. The view catches up
// through the push channel.
func (h *SchedulesHandler) HandleCreate(c *fiber.Ctx) error {
	var req scheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequestError("Invalid request", err)
	}

	event := req.toEvent()
	if err := event.Validate(); err != nil {
		return utils.BadRequestError(err.Error(), err)
	}

	created, err := h.client.CreateSchedule(client.NewSchedulePayload(event, req.Participants))
	if err != nil {
		return backendError("Failed to create schedule", err)
	}
	return c.Status(201).JSON(created)
}

// HandleUpdate validates and updates an existing schedule event.
func (h *SchedulesHandler) HandleUpdate(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req scheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequestError("Invalid request", err)
	}

	event := req.toEvent()
	if err := event.Validate(); err != nil {
		return utils.BadRequestError(err.Error(), err)
	}

	updated, err := h.client.UpdateSchedule(id, client.NewSchedulePayload(event, req.Participants))
	if err != nil {
		return backendError("Failed to update schedule", err)
	}
	return c.JSON(updated)
}

// HandleDelete removes a schedule event.
func (h *SchedulesHandler) HandleDelete(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}
	if err := h.client.DeleteSchedule(id); err != nil {
		return backendError("Failed to delete schedule", err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// HandleRespond records the viewer's RSVP.
func (h *SchedulesHandler) HandleRespond(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req struct {
		Response models.ResponseStatus `json:"response"`
	}
	if err := c.BodyParser(&req); err != nil {
		return utils.BadRequestError("Invalid request", err)
	}

	if err := h.responder.Respond(id, req.Response); err != nil {
		return submissionError(err)
	}
	return c.JSON(fiber.Map{"success": true})
}
