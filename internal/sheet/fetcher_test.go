package sheet

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kapu/portfolio-web-go/internal/util"
	"github.com/kapu/portfolio-web-go/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHTTPFetcherNotConfigured(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPFetcherConfig{BaseURL: srv.URL}, srv.Client(), zap.NewNop())
	rows, err := f.Fetch(context.Background(), "projects")

	assert.NoError(t, err)
	assert.Nil(t, rows)
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
	assert.False(t, f.Configured())
}

func TestHTTPFetcherSuccess(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("\"id\",\"title\"\n\"1\",\"Narcos\"\n"))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPFetcherConfig{BaseURL: srv.URL, SheetID: "doc123"}, srv.Client(), zap.NewNop())
	rows, err := f.Fetch(context.Background(), "my projects")

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Narcos", rows[0]["title"])
	assert.Equal(t, "/spreadsheets/d/doc123/gviz/tq", gotPath)
	assert.Equal(t, "tqx=out:csv&sheet=my%20projects", gotQuery)
}

func TestHTTPFetcherHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPFetcherConfig{BaseURL: srv.URL, SheetID: "doc123"}, srv.Client(), zap.NewNop())
	rows, err := f.Fetch(context.Background(), "author")

	assert.Nil(t, rows)
	require.Error(t, err)
	fetchErr, ok := err.(*errors.FetchError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
	assert.Equal(t, "author", fetchErr.Feed)
}

func TestHTTPFetcherCircuitOpensAfterFailures(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPFetcherConfig{BaseURL: srv.URL, SheetID: "doc"}, srv.Client(), zap.NewNop())
	for i := 0; i < 5; i++ {
		_, err := f.Fetch(context.Background(), "projects")
		assert.Error(t, err)
	}

	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
	assert.Equal(t, util.CircuitStateOpen, f.Breaker().State())
}

func TestHTTPFetcherTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	f := NewHTTPFetcher(HTTPFetcherConfig{BaseURL: srv.URL, SheetID: "doc", Timeout: 50 * time.Millisecond}, srv.Client(), zap.NewNop())
	rows, err := f.Fetch(context.Background(), "projects")

	assert.Nil(t, rows)
	assert.Error(t, err)
}

func TestSheetsAPIFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v4/spreadsheets/doc/values/categories", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"range":"categories!A1:C4","majorDimension":"ROWS","values":[["value","label_en","label_es"],[],["film","Films","Películas"],["all","All Projects"]]}`))
	}))
	defer srv.Close()

	f, err := NewSheetsAPIFetcher(context.Background(), SheetsAPIConfig{
		SheetID:  "doc",
		APIKey:   "test-key",
		Endpoint: srv.URL + "/",
	}, zap.NewNop())
	require.NoError(t, err)

	rows, err := f.Fetch(context.Background(), "categories")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, Row{"value": "all", "label_en": "All Projects", "label_es": ""}, rows[1])
}

func TestSheetsAPIFetcherRequiresAuth(t *testing.T) {
	_, err := NewSheetsAPIFetcher(context.Background(), SheetsAPIConfig{SheetID: "doc"}, zap.NewNop())
	assert.Error(t, err)
}
