package api

import (
	"commhub/utils"

	"github.com/gofiber/fiber/v2"
)

// I18nHandler handles i18n-related requests
type I18nHandler struct{}

// GetTranslations returns translations for the client-side JavaScript
func (h *I18nHandler) GetTranslations(c *fiber.Ctx) error {
	lang := c.Params("lang")
	if !utils.SupportedLanguage(lang) {
		lang = utils.DefaultLanguage
	}

	localizer := utils.GetLocalizer(lang)

	// Create a map of common translation keys for client-side use
	translations := map[string]string{
		"message_sent_success":     utils.T(localizer, "message_sent_success"),
		"message_saved_draft":      utils.T(localizer, "message_saved_draft"),
		"message_deleted":          utils.T(localizer, "message_deleted"),
		"message_marked_read":      utils.T(localizer, "message_marked_read"),
		"message_error":            utils.T(localizer, "message_error"),
		"message_connection_error": utils.T(localizer, "message_connection_error"),
		"schedule_created":         utils.T(localizer, "schedule_created"),
		"schedule_updated":         utils.T(localizer, "schedule_updated"),
		"schedule_deleted":         utils.T(localizer, "schedule_deleted"),
		"schedule_response_saved":  utils.T(localizer, "schedule_response_saved"),
		"confirm_delete_message":   utils.T(localizer, "confirm_delete_message"),
		"confirm_delete_schedule":  utils.T(localizer, "confirm_delete_schedule"),
		"confirm_yes":              utils.T(localizer, "confirm_yes"),
		"confirm_no":               utils.T(localizer, "confirm_no"),
		"list_loading":             utils.T(localizer, "list_loading"),
		"list_no_messages":         utils.T(localizer, "list_no_messages"),
		"list_no_schedules":        utils.T(localizer, "list_no_schedules"),
		"error_network":            utils.T(localizer, "error_network"),
		"error_404":                utils.T(localizer, "error_404"),
		"error_500":                utils.T(localizer, "error_500"),
	}

	return c.JSON(translations)
}
