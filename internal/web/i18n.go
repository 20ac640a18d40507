package web

import (
	"embed"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/kapu/portfolio-web-go/internal/constants"
	"github.com/kapu/portfolio-web-go/internal/domain"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFiles embed.FS

// Translator holds the flattened message bundles, keyed "section.key".
type Translator struct {
	messages map[string]map[string]string
	fallback string
	matcher  language.Matcher
	tags     []string
}

// NewTranslator loads the embedded bundles. fallback must be one of them.
func NewTranslator(fallback string) (*Translator, error) {
	entries, err := localeFiles.ReadDir("locales")
	if err != nil {
		return nil, err
	}

	t := &Translator{
		messages: make(map[string]map[string]string),
		fallback: fallback,
	}
	for _, entry := range entries {
		locale := strings.TrimSuffix(entry.Name(), path.Ext(entry.Name()))
		data, err := localeFiles.ReadFile("locales/" + entry.Name())
		if err != nil {
			return nil, err
		}
		var tree map[string]any
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return nil, fmt.Errorf("locale %s: %w", locale, err)
		}
		flat := make(map[string]string)
		flatten("", tree, flat)
		t.messages[locale] = flat
	}
	if _, ok := t.messages[fallback]; !ok {
		return nil, fmt.Errorf("fallback locale %q has no bundle", fallback)
	}

	// matcher의 첫 태그가 기본값
	tags := []language.Tag{language.Make(fallback)}
	t.tags = []string{fallback}
	for _, locale := range domain.Locales {
		if locale == fallback {
			continue
		}
		if _, ok := t.messages[locale]; ok {
			tags = append(tags, language.Make(locale))
			t.tags = append(t.tags, locale)
		}
	}
	t.matcher = language.NewMatcher(tags)
	return t, nil
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for key, value := range node {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		switch v := value.(type) {
		case map[string]any:
			flatten(full, v, out)
		default:
			out[full] = fmt.Sprint(v)
		}
	}
}

// T returns the message for key in locale, then in the fallback locale, then the key itself.
func (t *Translator) T(locale, key string) string {
	if msg, ok := t.messages[locale][key]; ok {
		return msg
	}
	if msg, ok := t.messages[t.fallback][key]; ok {
		return msg
	}
	return key
}

// Has reports whether a bundle exists for locale.
func (t *Translator) Has(locale string) bool {
	_, ok := t.messages[locale]
	return ok
}

// Match picks the best supported locale for an Accept-Language header.
// Unsupported or missing languages yield the fallback.
func (t *Translator) Match(acceptLanguage string) string {
	if acceptLanguage == "" {
		return t.fallback
	}
	prefs, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(prefs) == 0 {
		return t.fallback
	}
	_, index, confidence := t.matcher.Match(prefs...)
	if confidence == language.No {
		return t.fallback
	}
	return t.tags[index]
}

// ResolveLocale applies the visitor preference order: locale cookie, then
// browser language, then the fallback.
func (t *Translator) ResolveLocale(r *http.Request) string {
	if cookie, err := r.Cookie(constants.Preferences.LocaleCookie); err == nil {
		if locale := strings.ToLower(cookie.Value); t.Has(locale) {
			return locale
		}
	}
	return t.Match(r.Header.Get("Accept-Language"))
}
