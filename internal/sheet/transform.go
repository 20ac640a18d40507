package sheet

import (
	"strconv"
	"strings"

	"github.com/kapu/portfolio-web-go/internal/constants"
	"github.com/kapu/portfolio-web-go/internal/domain"
)

// TransformProjects maps project rows to projects. Rows without a usable id get
// their 1-based position; rows without a usable year get currentYear.
func TransformProjects(rows []Row, currentYear int) []domain.Project {
	projects := make([]domain.Project, 0, len(rows))
	for idx, row := range rows {
		id, ok := leadingInt(row["id"])
		if !ok || id == 0 {
			id = idx + 1
		}
		year, ok := leadingInt(row["year"])
		if !ok || year == 0 {
			year = currentYear
		}

		projects = append(projects, domain.Project{
			ID:       id,
			Title:    row["title"],
			Year:     year,
			Category: firstNonEmpty(row["category"], constants.ProjectDefaults.Category),
			Image:    firstNonEmpty(row["image"], constants.ProjectDefaults.Image),
			IMDb:     row["imdb"],
			Role: domain.Localized{
				EN: firstNonEmpty(row["role_en"], row["role"]),
				ES: firstNonEmpty(row["role_es"], row["role"]),
			},
			Description: domain.Localized{
				EN: row["description_en"],
				ES: row["description_es"],
			},
			Awards:   splitAwards(row["awards"]),
			Director: row["director"],
		})
	}
	return projects
}

// TransformAuthor folds key/value rows into author info. Rows without a key are
// skipped and a repeated key overwrites the earlier one.
func TransformAuthor(rows []Row) domain.AuthorInfo {
	author := make(domain.AuthorInfo, len(rows))
	for _, row := range rows {
		key := row["key"]
		if key == "" {
			continue
		}
		author[key] = domain.Localized{
			EN: firstNonEmpty(row["value_en"], row["value"]),
			ES: firstNonEmpty(row["value_es"], row["value"]),
		}
	}
	return author
}

// TransformCategories maps category rows and moves "all" to the front.
func TransformCategories(rows []Row) []domain.Category {
	categories := make([]domain.Category, 0, len(rows))
	allIndex := -1
	for _, row := range rows {
		category := domain.Category{
			Value: row["value"],
			Label: domain.Localized{
				EN: firstNonEmpty(row["label_en"], row["label"]),
				ES: firstNonEmpty(row["label_es"], row["label"]),
			},
		}
		if allIndex < 0 && category.Value == domain.CategoryAll {
			allIndex = len(categories)
		}
		categories = append(categories, category)
	}

	if allIndex > 0 {
		all := categories[allIndex]
		copy(categories[1:allIndex+1], categories[:allIndex])
		categories[0] = all
	}
	return categories
}

func splitAwards(raw string) []string {
	awards := []string{}
	for _, part := range strings.Split(raw, "|") {
		if award := strings.TrimSpace(part); award != "" {
			awards = append(awards, award)
		}
	}
	return awards
}

// leadingInt parses an optional sign and the leading digits of s, ignoring
// anything after them ("2015–2017" → 2015).
func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
