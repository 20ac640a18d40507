package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kapu/portfolio-web-go/internal/domain"
	"github.com/kapu/portfolio-web-go/internal/service/content"
	"github.com/kapu/portfolio-web-go/internal/service/provider"
	"github.com/kapu/portfolio-web-go/internal/sheet"
	"github.com/kapu/portfolio-web-go/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubFetcher struct {
	mu    sync.Mutex
	feeds map[string][]sheet.Row
}

func (f *stubFetcher) Fetch(_ context.Context, feed string) ([]sheet.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.feeds[feed], nil
}

func (f *stubFetcher) Configured() bool { return true }

func (f *stubFetcher) set(feed string, rows []sheet.Row) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.feeds[feed] = rows
}

func newTestServer(t *testing.T, opts Options) (*Server, *stubFetcher) {
	t.Helper()

	fetcher := &stubFetcher{feeds: map[string][]sheet.Row{
		"projects": {
			{"id": "1", "title": "Narcos", "year": "2015", "category": "series", "role": "ADR Recordist"},
			{"id": "2", "title": "Los Nadie", "year": "2016", "category": "film", "role_en": "Sound Designer", "role_es": "Diseñador de Sonido", "awards": "Audience Award"},
		},
		"author": {
			{"key": "name", "value": "Felo Valencia"},
			{"key": "title", "value_en": "Sound Designer & Editor", "value_es": "Diseñador y Editor de Sonido"},
			{"key": "email", "value": "info@felovalencia.com"},
		},
		"categories": {
			{"value": "film", "label_en": "Films", "label_es": "Películas"},
			{"value": "all", "label_en": "All Projects", "label_es": "Todos los Proyectos"},
			{"value": "series", "label": "Series"},
		},
	}}

	svc, err := content.NewService(context.Background(), content.Options{
		Store:   store.NewMemory(),
		Fetcher: fetcher,
		Logger:  zap.NewNop(),
	})
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, svc.WaitReady(ctx))
	svc.Wait()

	if opts.DefaultLocale == "" {
		opts.DefaultLocale = domain.LocaleES
	}
	if opts.DefaultTheme == "" {
		opts.DefaultTheme = domain.ThemeDark
	}
	srv, err := NewServer(svc, opts, zap.NewNop())
	require.NoError(t, err)
	return srv, fetcher
}

func doRequest(srv *Server, method, target string, modify func(r *http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if modify != nil {
		modify(req)
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestHomePageUsesBrowserLanguage(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	rec := doRequest(srv, http.MethodGet, "/", func(r *http.Request) {
		r.Header.Set("Accept-Language", "en-US,en;q=0.9")
	})

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `<html lang="en" data-theme="darkTheme">`)
	assert.Contains(t, body, "Felo Valencia")
	assert.Contains(t, body, "Sound Designer &amp; Editor")
	assert.Contains(t, body, "#0a0a0f")
}

func TestHomePageDefaultsToSpanish(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	rec := doRequest(srv, http.MethodGet, "/", func(r *http.Request) {
		r.Header.Set("Accept-Language", "fr-FR")
	})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Diseñador y Editor de Sonido")
	assert.Contains(t, rec.Body.String(), `lang="es"`)
}

func TestPortfolioFiltersByCategory(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	rec := doRequest(srv, http.MethodGet, "/portfolio?category=series", func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "locale", Value: "en"})
		r.AddCookie(&http.Cookie{Name: "theme", Value: "lightTheme"})
	})

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Narcos")
	assert.NotContains(t, body, "Los Nadie")
	assert.Contains(t, body, `data-theme="lightTheme"`)

	all := doRequest(srv, http.MethodGet, "/portfolio?category=unknown", nil).Body.String()
	assert.Contains(t, all, "Narcos")
	assert.Contains(t, all, "Los Nadie")
	assert.Contains(t, all, "Audience Award")
}

func TestBioPage(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	rec := doRequest(srv, http.MethodGet, "/bio", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mailto:info@felovalencia.com")
}

func TestSetLocaleAndTheme(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	rec := doRequest(srv, http.MethodGet, "/locale/en?next=/bio", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/bio", rec.Header().Get("Location"))
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "locale=en")

	rec = doRequest(srv, http.MethodGet, "/theme/lightTheme?next=https://evil.example", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Contains(t, rec.Header().Get("Set-Cookie"), "theme=lightTheme")

	assert.Equal(t, http.StatusBadRequest, doRequest(srv, http.MethodGet, "/theme/neon", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doRequest(srv, http.MethodGet, "/locale/fr", nil).Code)
}

func TestAPIProjects(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	rec := doRequest(srv, http.MethodGet, "/api/projects", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp DatasetResponse[[]domain.Project]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 2)
	assert.False(t, resp.Loading)
	assert.Equal(t, provider.SourceRemote, resp.Source)
	assert.Equal(t, "ADR Recordist", resp.Data[0].Role.ES)
}

func TestAPICategoriesPutsAllFirst(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	var resp DatasetResponse[[]domain.Category]
	rec := doRequest(srv, http.MethodGet, "/api/categories", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 3)
	assert.Equal(t, "all", resp.Data[0].Value)
}

func TestAPIRefreshAndStatus(t *testing.T) {
	srv, fetcher := newTestServer(t, Options{})
	fetcher.set("author", []sheet.Row{{"key": "name", "value": "Felipe Valencia"}})

	rec := doRequest(srv, http.MethodPost, "/api/refresh/author", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var change content.Change
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &change))
	assert.Equal(t, "author", change.Dataset)
	assert.Equal(t, provider.PhaseReady, change.Phase)

	rec = doRequest(srv, http.MethodGet, "/api/author", nil)
	assert.Contains(t, rec.Body.String(), "Felipe Valencia")

	assert.Equal(t, http.StatusNotFound, doRequest(srv, http.MethodPost, "/api/refresh/nope", nil).Code)
	assert.Equal(t, http.StatusOK, doRequest(srv, http.MethodPost, "/api/refresh", nil).Code)

	var status content.Status
	rec = doRequest(srv, http.MethodGet, "/api/status", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.RemoteConfigured)
	assert.Len(t, status.Datasets, 3)
}

func TestAPIClearCache(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	rec := doRequest(srv, http.MethodPost, "/api/cache/clear", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "projects")
}

func TestAPIRateLimit(t *testing.T) {
	srv, _ := newTestServer(t, Options{RateLimit: 0.001, RateBurst: 2})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		codes = append(codes, doRequest(srv, http.MethodGet, "/api/status", nil).Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// pages are not limited
	assert.Equal(t, http.StatusOK, doRequest(srv, http.MethodGet, "/bio", nil).Code)
}

func TestNotFound(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	assert.Equal(t, http.StatusNotFound, doRequest(srv, http.MethodGet, "/nowhere", nil).Code)

	rec := doRequest(srv, http.MethodGet, "/api/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
}

func TestStaticAndHealth(t *testing.T) {
	srv, _ := newTestServer(t, Options{})

	rec := doRequest(srv, http.MethodGet, "/static/css/site.css", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(srv, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestLiveUpdates(t *testing.T) {
	srv, fetcher := newTestServer(t, Options{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()
	defer srv.Hub().Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var hello LiveMessage
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, MessageHello, hello.Type)
	assert.NotEmpty(t, hello.ClientID)
	require.NotNil(t, hello.Status)
	assert.Len(t, hello.Status.Datasets, 3)

	require.Eventually(t, func() bool { return srv.Hub().ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	fetcher.set("categories", []sheet.Row{{"value": "documentary"}})
	doRequest(srv, http.MethodPost, "/api/refresh/categories", nil)

	var update LiveMessage
	require.NoError(t, conn.ReadJSON(&update))
	assert.Equal(t, MessageState, update.Type)
	require.NotNil(t, update.Change)
	assert.Equal(t, "categories", update.Change.Dataset)
	assert.Equal(t, provider.SourceRemote, update.Change.Source)
}

func TestTranslatorMatch(t *testing.T) {
	tr, err := NewTranslator("es")
	require.NoError(t, err)

	assert.Equal(t, "en", tr.Match("en-GB,en;q=0.8"))
	assert.Equal(t, "es", tr.Match("es-MX"))
	assert.Equal(t, "es", tr.Match("de-DE"))
	assert.Equal(t, "es", tr.Match(""))
	assert.Equal(t, "Portfolio", tr.T("en", "nav.portfolio"))
	assert.Equal(t, "Portafolio", tr.T("fr", "nav.portfolio"))
	assert.Equal(t, "missing.key", tr.T("en", "missing.key"))
}
