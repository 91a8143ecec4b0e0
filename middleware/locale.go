package middleware

import (
	"commhub/utils"

	"github.com/gofiber/fiber/v2"
)

// LocaleMiddleware resolves the request locale from the lang query parameter,
// then the lang cookie, then Accept-Language, constrained to the catalogs the
// gateway ships. The localizer lands in the request context for the handlers.
func LocaleMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		lang := c.Query("lang")
		if lang == "" {
			lang = c.Cookies("lang")
		}
		if !utils.SupportedLanguage(lang) {
			lang = utils.MatchLanguage(c.Get("Accept-Language"))
		}

		c.Locals("localizer", utils.GetLocalizer(lang))
		c.Locals("lang", lang)

		utils.Log.Debug("Locale %s for path %s", lang, c.Path())
		return c.Next()
	}
}
