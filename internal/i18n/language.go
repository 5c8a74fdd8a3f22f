// Package i18n holds the user-facing message catalog and language matching.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

// Language is a supported response language.
type Language string

const (
	Chinese Language = "zh"
	English Language = "en"
)

// Default is used for empty or unmatched inputs.
const Default = Chinese

var (
	supported = []language.Tag{language.Chinese, language.English}
	matcher   = language.NewMatcher(supported)
)

// Parse matches a client-supplied value (e.g. "zh", "en-US", "zh-Hant",
// or an Accept-Language list) against the supported languages.
func Parse(s string) Language {
	s = strings.TrimSpace(s)
	if s == "" {
		return Default
	}
	tags, _, err := language.ParseAcceptLanguage(s)
	if err != nil || len(tags) == 0 {
		return Default
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return Default
	}
	if supported[index] == language.English {
		return English
	}
	return Chinese
}

// String implements fmt.Stringer.
func (l Language) String() string {
	return string(l)
}

// IsChinese reports whether l is Chinese.
func (l Language) IsChinese() bool {
	return l != English
}
