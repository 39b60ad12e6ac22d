// Package i18n holds the localized messages returned by the API.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Message keys.
const (
	KeyWebinarsEmpty = "webinar.empty"
)

// DefaultLang is used when the requested language is unknown.
const DefaultLang = "ru"

// API language codes mapped to language tags. "uzk" is Uzbek in Cyrillic script.
var tags = map[string]language.Tag{
	"ru":  language.Russian,
	"en":  language.English,
	"uz":  language.Make("uz-Latn"),
	"uzk": language.Make("uz-Cyrl"),
	"kaa": language.Make("kaa"),
}

var catalog = map[string]map[string]string{
	KeyWebinarsEmpty: {
		"ru":  "Вебинаров пока нет",
		"en":  "There are no webinars yet",
		"uz":  "Hozircha vebinarlar yo'q",
		"uzk": "Ҳозирча вебинарлар йўқ",
		"kaa": "Házirshe vebinarlar joq",
	},
}

func init() {
	for key, byLang := range catalog {
		for lang, text := range byLang {
			_ = message.SetString(tags[lang], key, text)
		}
	}
}

// Supported reports whether lang is a known API language code.
func Supported(lang string) bool {
	_, ok := tags[strings.ToLower(strings.TrimSpace(lang))]
	return ok
}

// Tag returns the language tag for an API language code or an Accept-Language value,
// falling back to DefaultLang.
func Tag(lang string) language.Tag {
	if tag, ok := tags[strings.ToLower(strings.TrimSpace(lang))]; ok {
		return tag
	}
	accepted, _, err := language.ParseAcceptLanguage(lang)
	if err == nil {
		for _, t := range accepted {
			base, _ := t.Base()
			if tag, ok := tags[base.String()]; ok {
				return tag
			}
		}
	}
	return tags[DefaultLang]
}

// Message returns the message for key in lang.
func Message(lang, key string) string {
	return message.NewPrinter(Tag(lang)).Sprintf(key)
}
