// Package imdb turns exported IMDb credits into portfolio projects.
package imdb

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kapu/portfolio-web-go/internal/constants"
	"github.com/kapu/portfolio-web-go/internal/domain"
)

const titleURLFormat = "https://www.imdb.com/title/%s/"

var titleIDRe = regexp.MustCompile(`/title/(tt\d+)`)

// Credit is one row of an exported filmography.
type Credit struct {
	Title  string `json:"title"`
	Year   string `json:"year"`
	Type   string `json:"type"`
	Role   string `json:"role"`
	IMDbID string `json:"imdb_id"`
}

// TitleURL returns the public IMDb page of a title id.
func TitleURL(id string) string {
	return fmt.Sprintf(titleURLFormat, id)
}

// IDFromURL extracts the tt-id from an IMDb title URL, or "" when there is none.
func IDFromURL(url string) string {
	if m := titleIDRe.FindStringSubmatch(url); m != nil {
		return m[1]
	}
	return ""
}

// ParseYear reads the first year of "2015", "2015–2017" or "2015-".
func ParseYear(s string) (int, error) {
	s = strings.TrimSpace(s)
	if idx := strings.IndexAny(s, "–-"); idx >= 0 {
		s = strings.TrimSpace(s[:idx])
	}
	var year int
	if _, err := fmt.Sscanf(s, "%d", &year); err != nil {
		return 0, fmt.Errorf("invalid year %q: %w", s, err)
	}
	return year, nil
}

// CategoryFor derives the portfolio category from the IMDb title type.
func CategoryFor(titleType, title string) string {
	t := strings.ToLower(titleType)
	name := strings.ToLower(title)
	switch {
	case strings.Contains(name, "documentary") || strings.Contains(t, "documentary") || strings.Contains(name, "donut king"):
		return "documentary"
	case strings.Contains(t, "series"):
		return "series"
	case strings.Contains(t, "short"):
		return "short"
	default:
		return constants.ProjectDefaults.Category
	}
}

// ToProject builds a project from a credit. image may be empty.
func (c Credit) ToProject(image string) (domain.Project, error) {
	year, err := ParseYear(c.Year)
	if err != nil {
		return domain.Project{}, err
	}
	if image == "" {
		image = constants.ProjectDefaults.Image
	}
	return domain.Project{
		Title:    strings.TrimSpace(c.Title),
		Year:     year,
		Category: CategoryFor(c.Type, c.Title),
		Image:    image,
		IMDb:     TitleURL(c.IMDbID),
		Role:     FormatRole(c.Role),
		Awards:   []string{},
	}, nil
}
