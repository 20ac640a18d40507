package domain

// Project is one portfolio credit.
type Project struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Year        int       `json:"year"`
	Category    string    `json:"category"`
	Image       string    `json:"image"`
	IMDb        string    `json:"imdb"`
	Role        Localized `json:"role"`
	Description Localized `json:"description"`
	Awards      []string  `json:"awards"`
	Director    string    `json:"director"`
}

// ProjectFile is the on-disk shape of a bundled or merged project list.
type ProjectFile struct {
	Projects []Project `json:"projects"`
}

// FilterByCategory returns the projects in category; "all" and "" return everything.
func FilterByCategory(projects []Project, category string) []Project {
	if category == "" || category == CategoryAll {
		return projects
	}
	filtered := make([]Project, 0, len(projects))
	for _, p := range projects {
		if p.Category == category {
			filtered = append(filtered, p)
		}
	}
	return filtered
}
