package web

import (
	"context"
	"net/http"
	"time"

	"github.com/kapu/portfolio-web-go/internal/domain"
	"github.com/kapu/portfolio-web-go/internal/service/provider"
	apperrors "github.com/kapu/portfolio-web-go/pkg/errors"
	"go.uber.org/zap"
)

const featuredCount = 6

// PageData is the view model shared by every page template.
type PageData struct {
	Page       string
	Path       string
	Locale     string
	Theme      domain.Theme
	Author     domain.AuthorInfo
	Projects   []domain.Project
	Categories []domain.Category
	Category   string
	Loading    bool
	Notice     string

	i18n *Translator
}

// T translates a message key into the page locale.
func (d *PageData) T(key string) string {
	return d.i18n.T(d.Locale, key)
}

// L picks the page locale side of a localized value.
func (d *PageData) L(l domain.Localized) string {
	return l.In(d.Locale)
}

// A returns an author field in the page locale.
func (d *PageData) A(key string) string {
	return d.Author.Get(key, d.Locale)
}

func (d *PageData) OtherLocale() string {
	if d.Locale == domain.LocaleEN {
		return domain.LocaleES
	}
	return domain.LocaleEN
}

func (d *PageData) OtherTheme() string {
	if d.Theme.Name == domain.ThemeDark {
		return domain.ThemeLight
	}
	return domain.ThemeDark
}

func (d *PageData) Year() int {
	return time.Now().Year()
}

func (s *Server) newPageData(r *http.Request, page string) *PageData {
	return &PageData{
		Page:   page,
		Path:   r.URL.RequestURI(),
		Locale: s.i18n.ResolveLocale(r),
		Theme:  s.resolveTheme(r),
		i18n:   s.i18n,
	}
}

// waitForData gives still-loading providers a short chance to publish before rendering.
func (s *Server) waitForData(r *http.Request, ready ...<-chan struct{}) {
	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.PageWait)
	defer cancel()
	for _, ch := range ready {
		select {
		case <-ch:
		case <-ctx.Done():
			return
		}
	}
}

// datasetState is the value-independent part of a provider state.
type datasetState struct {
	Loading bool
	Phase   provider.Phase
	Source  provider.Source
	Err     error
}

func stateOf[T any](st provider.State[T]) datasetState {
	return datasetState{Loading: st.Loading, Phase: st.Phase, Source: st.Source, Err: st.Err}
}

// notice returns the status message key for the given dataset states.
func (s *Server) notice(states ...datasetState) string {
	for _, st := range states {
		if st.Loading {
			return "status.loading"
		}
	}
	for _, st := range states {
		if st.Phase == provider.PhaseCacheHitStaleRefreshing {
			return "status.stale"
		}
	}
	if s.content.IsRemoteConfigured() {
		for _, st := range states {
			if st.Source == provider.SourceFallback && st.Err != nil {
				return "status.offline"
			}
		}
	}
	return ""
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	s.waitForData(r, s.content.Author().Ready(), s.content.Projects().Ready())

	author := s.content.Author().State()
	projects := s.content.Projects().State()

	data := s.newPageData(r, "home")
	data.Author = author.Value
	data.Projects = projects.Value
	if len(data.Projects) > featuredCount {
		data.Projects = data.Projects[:featuredCount]
	}
	data.Loading = author.Loading || projects.Loading
	data.Notice = s.notice(stateOf(author), stateOf(projects))

	s.renderPage(w, r, http.StatusOK, "home", data)
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	s.waitForData(r, s.content.Projects().Ready(), s.content.Categories().Ready(), s.content.Author().Ready())

	projects := s.content.Projects().State()
	categories := s.content.Categories().State()
	author := s.content.Author().State()

	category := r.URL.Query().Get("category")
	if !hasCategory(categories.Value, category) {
		category = domain.CategoryAll
	}

	data := s.newPageData(r, "portfolio")
	data.Author = author.Value
	data.Categories = categories.Value
	data.Category = category
	data.Projects = domain.FilterByCategory(projects.Value, category)
	data.Loading = projects.Loading || categories.Loading
	data.Notice = s.notice(stateOf(projects), stateOf(categories))

	s.renderPage(w, r, http.StatusOK, "portfolio", data)
}

func (s *Server) handleBio(w http.ResponseWriter, r *http.Request) {
	s.waitForData(r, s.content.Author().Ready())

	author := s.content.Author().State()

	data := s.newPageData(r, "bio")
	data.Author = author.Value
	data.Loading = author.Loading
	data.Notice = s.notice(stateOf(author))

	s.renderPage(w, r, http.StatusOK, "bio", data)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		s.respondError(w, r, apperrors.NewAppError("not found", "NOT_FOUND", http.StatusNotFound, nil))
		return
	}
	data := s.newPageData(r, "notfound")
	data.Author = s.content.Author().State().Value
	s.renderPage(w, r, http.StatusNotFound, "notfound", data)
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, status int, page string, data *PageData) {
	if err := s.pages.render(w, status, page, data); err != nil {
		s.logger.Error("Failed to render page",
			zap.String("page", page),
			zap.Error(err),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func hasCategory(categories []domain.Category, value string) bool {
	if value == "" {
		return false
	}
	for _, c := range categories {
		if c.Value == value {
			return true
		}
	}
	return false
}
