package imdb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kapu/portfolio-web-go/internal/util"
)

const (
	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	defaultTimeout   = 10 * time.Second
	slugMaxRunes     = 50
)

var (
	posterJSONRe = regexp.MustCompile(`"image":"(https://m\.media-amazon\.com/images/[^"]+)"`)
	posterSizeRe = regexp.MustCompile(`_V1_.*\.jpg`)
)

// ErrNoPoster is returned when a title page carries no poster image.
var ErrNoPoster = errors.New("no poster found")

type ScraperConfig struct {
	// BaseURL replaces https://www.imdb.com, mainly for tests.
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	// Interval is the minimum spacing between requests.
	Interval time.Duration
	// ImagesDir receives the downloaded posters.
	ImagesDir string
	// PublicPrefix is the URL path the images are served under.
	PublicPrefix string
}

// Scraper finds and downloads title posters.
type Scraper struct {
	cfg     ScraperConfig
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

func NewScraper(cfg ScraperConfig, logger *zap.Logger) *Scraper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://www.imdb.com"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.PublicPrefix == "" {
		cfg.PublicPrefix = "/images/projects"
	}

	limit := rate.Inf
	if cfg.Interval > 0 {
		limit = rate.Every(cfg.Interval)
	}

	return &Scraper{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
	}
}

// PosterURL reads the poster of a title page, upscaled to 1000px wide.
func (s *Scraper) PosterURL(ctx context.Context, imdbID string) (string, error) {
	body, err := s.get(ctx, fmt.Sprintf("%s/title/%s/", s.cfg.BaseURL, imdbID))
	if err != nil {
		return "", err
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}

	poster := ""
	if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw)); err == nil {
		if content, ok := doc.Find(`meta[property="og:image"]`).First().Attr("content"); ok {
			poster = strings.TrimSpace(content)
		}
	}
	if poster == "" {
		if m := posterJSONRe.FindSubmatch(raw); m != nil {
			poster = string(m[1])
		}
	}
	if poster == "" {
		return "", ErrNoPoster
	}
	return UpscalePoster(poster), nil
}

// UpscalePoster rewrites an image URL size suffix to the 1000px variant.
func UpscalePoster(url string) string {
	return posterSizeRe.ReplaceAllString(url, "_V1_FMjpg_UX1000_.jpg")
}

// PosterFile returns the file name used for a title.
func PosterFile(title string) string {
	return util.Slugify(title, slugMaxRunes) + ".jpg"
}

// Download stores the poster of a title under ImagesDir and returns its public path.
// An existing file is reused without any request.
func (s *Scraper) Download(ctx context.Context, imdbID, title string) (string, error) {
	filename := PosterFile(title)
	target := filepath.Join(s.cfg.ImagesDir, filename)
	publicPath := s.cfg.PublicPrefix + "/" + filename

	if _, err := os.Stat(target); err == nil {
		s.logger.Debug("Poster already exists", zap.String("file", filename))
		return publicPath, nil
	}

	posterURL, err := s.PosterURL(ctx, imdbID)
	if err != nil {
		return "", err
	}

	body, err := s.get(ctx, posterURL)
	if err != nil {
		return "", err
	}
	defer body.Close()

	if err := os.MkdirAll(s.cfg.ImagesDir, 0o755); err != nil {
		return "", err
	}
	tmp := target + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(file, body); err != nil {
		file.Close()
		os.Remove(tmp)
		return "", err
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, target); err != nil {
		return "", err
	}

	s.logger.Info("Downloaded poster", zap.String("imdb_id", imdbID), zap.String("file", filename))
	return publicPath, nil
}

func (s *Scraper) get(ctx context.Context, url string) (io.ReadCloser, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return resp.Body, nil
}
