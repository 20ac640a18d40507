package web

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/kapu/portfolio-web-go/internal/constants"
	"github.com/kapu/portfolio-web-go/internal/domain"
	apperrors "github.com/kapu/portfolio-web-go/pkg/errors"
)

// resolveTheme returns the visitor's theme cookie, or the configured default.
func (s *Server) resolveTheme(r *http.Request) domain.Theme {
	if cookie, err := r.Cookie(constants.Preferences.ThemeCookie); err == nil {
		if theme, ok := domain.LookupTheme(cookie.Value); ok {
			return theme
		}
	}
	return domain.ThemeOrDefault(s.cfg.DefaultTheme)
}

func (s *Server) handleSetLocale(w http.ResponseWriter, r *http.Request) {
	locale := strings.ToLower(chi.URLParam(r, "lang"))
	if !s.i18n.Has(locale) {
		s.respondError(w, r, apperrors.NewAppError("unsupported locale", "INVALID_LOCALE", http.StatusBadRequest, nil))
		return
	}
	s.setPreference(w, constants.Preferences.LocaleCookie, locale)
	http.Redirect(w, r, redirectTarget(r), http.StatusSeeOther)
}

func (s *Server) handleSetTheme(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, ok := domain.LookupTheme(name); !ok {
		s.respondError(w, r, apperrors.NewAppError("unknown theme", "INVALID_THEME", http.StatusBadRequest, nil))
		return
	}
	s.setPreference(w, constants.Preferences.ThemeCookie, name)
	http.Redirect(w, r, redirectTarget(r), http.StatusSeeOther)
}

func (s *Server) setPreference(w http.ResponseWriter, name, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(constants.Preferences.CookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// redirectTarget returns the local path to go back to: ?next=, then the
// Referer path, then "/". Absolute URLs to other hosts are never followed.
func redirectTarget(r *http.Request) string {
	if next := r.URL.Query().Get("next"); isLocalPath(next) {
		return next
	}
	if ref, err := url.Parse(r.Referer()); err == nil && ref.Path != "" && (ref.Host == "" || ref.Host == r.Host) {
		target := ref.Path
		if ref.RawQuery != "" {
			target += "?" + ref.RawQuery
		}
		if isLocalPath(target) {
			return target
		}
	}
	return "/"
}

func isLocalPath(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") && !strings.HasPrefix(p, "/\\")
}
