package translator

import (
	"strings"

	"golang.org/x/text/language"
)

var languageNames = map[string]string{
	"jp": "Japanese",
	"ko": "Korean",
	"en": "English",
	"zh": "Chinese",
	"fr": "French",
	"de": "German",
	"es": "Spanish",
	"uk": "Ukrainian",
}

// LanguageName returns the display name substituted into the prompt. Codes
// outside the known set are passed through unchanged.
func LanguageName(code string) string {
	if name, ok := languageNames[strings.ToLower(strings.TrimSpace(code))]; ok {
		return name
	}
	return code
}

// LanguageTag converts a code to a BCP 47 tag for machine-translation
// backends. "jp" is the legacy spelling of "ja".
func LanguageTag(code string) (language.Tag, error) {
	c := strings.ToLower(strings.TrimSpace(code))
	if c == "jp" {
		c = "ja"
	}
	return language.Parse(c)
}
