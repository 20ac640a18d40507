package domain

import "strings"

// Supported locales.
const (
	LocaleEN = "en"
	LocaleES = "es"
)

// FallbackLocale is used when a visitor's language is not supported.
const FallbackLocale = LocaleES

// Locales lists the supported locales in display order.
var Locales = []string{LocaleEN, LocaleES}

// IsSupportedLocale reports whether locale is one of Locales.
func IsSupportedLocale(locale string) bool {
	switch strings.ToLower(locale) {
	case LocaleEN, LocaleES:
		return true
	default:
		return false
	}
}

// Localized is an English/Spanish text pair.
type Localized struct {
	EN string `json:"en"`
	ES string `json:"es"`
}

// In returns the text for locale, falling back to the other side when empty.
func (l Localized) In(locale string) string {
	if strings.EqualFold(locale, LocaleEN) {
		if l.EN != "" {
			return l.EN
		}
		return l.ES
	}
	if l.ES != "" {
		return l.ES
	}
	return l.EN
}

// IsZero reports whether both sides are empty.
func (l Localized) IsZero() bool {
	return l.EN == "" && l.ES == ""
}

// Complete reports whether both sides are filled.
func (l Localized) Complete() bool {
	return strings.TrimSpace(l.EN) != "" && strings.TrimSpace(l.ES) != ""
}
