package utils

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

// DefaultLanguage backs every unrecognized locale.
const DefaultLanguage = "en"

// SupportedLanguages lists the locale catalogs shipped under locales/, in
// matcher preference order.
var SupportedLanguages = []string{"en", "ja"}

var languageMatcher = language.NewMatcher([]language.Tag{
	language.English,
	language.Japanese,
})

var (
	// Bundle is the global translation bundle
	Bundle *i18n.Bundle
	// Localizer is the default localizer
	Localizer *i18n.Localizer
)

// InitI18n loads one catalog per supported language from the locales
// directory.
func InitI18n() error {
	Bundle = i18n.NewBundle(language.English)
	Bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	for _, lang := range SupportedLanguages {
		file := fmt.Sprintf("locales/active.%s.toml", lang)
		if _, err := Bundle.LoadMessageFile(file); err != nil {
			Log.Warn("Failed to load locale file %s: %v", file, err)
		}
	}

	Localizer = i18n.NewLocalizer(Bundle, language.English.String())
	return nil
}

// SupportedLanguage reports whether a catalog exists for lang.
func SupportedLanguage(lang string) bool {
	for _, s := range SupportedLanguages {
		if s == lang {
			return true
		}
	}
	return false
}

// MatchLanguage resolves an Accept-Language header to a supported language.
func MatchLanguage(accept string) string {
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return DefaultLanguage
	}
	_, idx, _ := languageMatcher.Match(tags...)
	return SupportedLanguages[idx]
}

// GetLocalizer returns a localizer for the specified language
func GetLocalizer(lang string) *i18n.Localizer {
	if lang == "" {
		lang = DefaultLanguage
	}
	return i18n.NewLocalizer(Bundle, lang)
}

// T translates a message ID
func T(localizer *i18n.Localizer, messageID string) string {
	msg, err := localizer.Localize(&i18n.LocalizeConfig{MessageID: messageID})
	if err != nil {
		Log.Debug("Translation error for '%s': %v", messageID, err)
		return messageID
	}
	return msg
}

// TWithData translates a message ID with template data
func TWithData(localizer *i18n.Localizer, messageID string, data map[string]interface{}) string {
	msg, err := localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	})
	if err != nil {
		Log.Debug("Translation error for '%s': %v", messageID, err)
		return messageID
	}
	return msg
}
