package imdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kapu/portfolio-web-go/internal/domain"
)

func TestFormatRole(t *testing.T) {
	cases := []struct {
		raw    string
		wantEN string
		wantES string
	}{
		{"Dialogue Editor", "Dialogue Editor", "Editor de Diálogos"},
		{"sound editor (uncredited)", "Sound Editor", "Editor de Sonido"},
		{"dialogue editor / sound editor", "Dialogue Editor & Sound Editor", "Editor de Diálogos y Sonido"},
		{"A.D.R. Recordist", "ADR Recordist", "Grabador de ADR"},
		{"adr recordist ... (10 episodes)", "ADR Recordist", "Grabador de ADR"},
		{"Supervising Sound Editor", "Supervising Sound Editor", "Supervisor de Edición de Sonido"},
		{"re-recording mixer", "Re-recording Mixer", "Re-recording Mixer"},
	}
	for _, tc := range cases {
		got := FormatRole(tc.raw)
		assert.Equal(t, tc.wantEN, got.EN, tc.raw)
		assert.Equal(t, tc.wantES, got.ES, tc.raw)
	}
}

func TestCategoryFor(t *testing.T) {
	assert.Equal(t, "series", CategoryFor("TV Series", "Narcos"))
	assert.Equal(t, "short", CategoryFor("Short", "Positivo Negativo"))
	assert.Equal(t, "documentary", CategoryFor("Movie", "The Donut King"))
	assert.Equal(t, "film", CategoryFor("Movie", "Los Nadie"))
}

func TestParseYear(t *testing.T) {
	year, err := ParseYear("2015–2017")
	require.NoError(t, err)
	assert.Equal(t, 2015, year)

	year, err = ParseYear(" 2024 ")
	require.NoError(t, err)
	assert.Equal(t, 2024, year)

	_, err = ParseYear("TBA")
	assert.Error(t, err)
}

func TestIDFromURL(t *testing.T) {
	assert.Equal(t, "tt2707408", IDFromURL("https://www.imdb.com/title/tt2707408/"))
	assert.Equal(t, "", IDFromURL(""))
}

func TestUpscalePoster(t *testing.T) {
	in := "https://m.media-amazon.com/images/M/abc._V1_QL75_UX190_CR0,0,190,281_.jpg"
	assert.Equal(t, "https://m.media-amazon.com/images/M/abc._V1_FMjpg_UX1000_.jpg", UpscalePoster(in))
}

func newPosterServer(t *testing.T, page string, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if r.URL.Path == "/title/tt0000001/" {
			_, _ = w.Write([]byte(strings.ReplaceAll(page, "{{host}}", "http://"+r.Host)))
			return
		}
		_, _ = w.Write([]byte("jpeg-bytes"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPosterURLFromMetaTag(t *testing.T) {
	var hits int32
	srv := newPosterServer(t, `<html><head><meta property="og:image" content="https://m.media-amazon.com/images/M/x._V1_UX300_.jpg"></head></html>`, &hits)

	scraper := NewScraper(ScraperConfig{BaseURL: srv.URL}, zap.NewNop())
	poster, err := scraper.PosterURL(context.Background(), "tt0000001")
	require.NoError(t, err)
	assert.Equal(t, "https://m.media-amazon.com/images/M/x._V1_FMjpg_UX1000_.jpg", poster)
}

func TestPosterURLFromEmbeddedJSON(t *testing.T) {
	var hits int32
	srv := newPosterServer(t, `<script>{"image":"https://m.media-amazon.com/images/M/y._V1_.jpg"}</script>`, &hits)

	scraper := NewScraper(ScraperConfig{BaseURL: srv.URL}, zap.NewNop())
	poster, err := scraper.PosterURL(context.Background(), "tt0000001")
	require.NoError(t, err)
	assert.Equal(t, "https://m.media-amazon.com/images/M/y._V1_FMjpg_UX1000_.jpg", poster)
}

func TestPosterURLMissing(t *testing.T) {
	var hits int32
	srv := newPosterServer(t, `<html></html>`, &hits)

	scraper := NewScraper(ScraperConfig{BaseURL: srv.URL}, zap.NewNop())
	_, err := scraper.PosterURL(context.Background(), "tt0000001")
	assert.ErrorIs(t, err, ErrNoPoster)
}

func TestDownloadStoresAndReusesPoster(t *testing.T) {
	var hits int32
	srv := newPosterServer(t, `<meta property="og:image" content="{{host}}/poster._V1_SX300.jpg">`, &hits)

	dir := t.TempDir()
	scraper := NewScraper(ScraperConfig{BaseURL: srv.URL, ImagesDir: dir}, zap.NewNop())

	path, err := scraper.Download(context.Background(), "tt0000001", "La Mujer del Animal")
	require.NoError(t, err)
	assert.Equal(t, "/images/projects/la-mujer-del-animal.jpg", path)

	data, err := os.ReadFile(filepath.Join(dir, "la-mujer-del-animal.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))

	_, err = scraper.Download(context.Background(), "tt0000001", "La Mujer del Animal")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

type fakePosters struct {
	err error
}

func (f fakePosters) Download(_ context.Context, _ string, title string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "/images/projects/" + PosterFile(title), nil
}

func TestImportSkipsKnownCredits(t *testing.T) {
	existing := []domain.Project{{ID: 1, Title: "Narcos", Year: 2015, IMDb: TitleURL("tt2707408")}}
	credits := []Credit{
		{Title: "Narcos", Year: "2015–2017", Type: "TV Series", Role: "adr recordist", IMDbID: "tt2707408"},
		{Title: "Topos", Year: "2021", Type: "Movie", Role: "sound designer", IMDbID: "tt13988208"},
		{Title: "Broken", Year: "soon", Type: "Movie", Role: "sound editor", IMDbID: "tt0000009"},
	}

	imported, err := Import(context.Background(), credits, existing, fakePosters{}, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, imported, 1)
	assert.Equal(t, "Topos", imported[0].Title)
	assert.Equal(t, "/images/projects/topos.jpg", imported[0].Image)
	assert.Equal(t, "Diseñador de Sonido", imported[0].Role.ES)
}

func TestImportUsesPlaceholderWhenPosterFails(t *testing.T) {
	credits := []Credit{{Title: "Muzzle", Year: "2023", Type: "Movie", Role: "dialogue editor", IMDbID: "tt17663876"}}

	imported, err := Import(context.Background(), credits, nil, fakePosters{err: errors.New("boom")}, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, imported, 1)
	assert.Equal(t, "/images/projects/placeholder.jpg", imported[0].Image)
}

func TestMergeSortsAndRenumbers(t *testing.T) {
	existing := []domain.Project{
		{ID: 7, Title: "Narcos", Year: 2015, IMDb: TitleURL("tt2707408"), Awards: []string{"Emmy"}},
		{ID: 8, Title: "Los Nadie", Year: 2016, IMDb: TitleURL("tt5929594")},
	}
	additions := []domain.Project{
		{Title: "Narcos duplicate", Year: 2015, IMDb: TitleURL("tt2707408")},
		{Title: "Topos", Year: 2021, IMDb: TitleURL("tt13988208")},
		{Title: "Buy Me a Gun", Year: 2016, IMDb: TitleURL("tt7425520")},
	}

	merged := Merge(existing, additions)

	require.Len(t, merged, 4)
	titles := []string{merged[0].Title, merged[1].Title, merged[2].Title, merged[3].Title}
	assert.Equal(t, []string{"Topos", "Buy Me a Gun", "Los Nadie", "Narcos"}, titles)
	for i, p := range merged {
		assert.Equal(t, i+1, p.ID)
		assert.NotNil(t, p.Awards)
	}
	assert.Equal(t, []string{"Emmy"}, merged[3].Awards)
	assert.Equal(t, map[string]int{"": 4}, CountByCategory(merged))
}
