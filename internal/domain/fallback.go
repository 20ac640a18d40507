package domain

import _ "embed"

//go:embed data/projects.json
var bundledProjectsJSON []byte

// LoadBundledProjects decodes the embedded project dataset.
func LoadBundledProjects() ([]Project, error) {
	file, err := decodeProjectFile(bundledProjectsJSON)
	if err != nil {
		return nil, err
	}
	return file.Projects, nil
}

// DefaultAuthor is shown when neither the cache nor the remote sheet has author data.
func DefaultAuthor() AuthorInfo {
	return AuthorInfo{
		AuthorName:      {EN: "Felo Valencia", ES: "Felo Valencia"},
		AuthorTitle:     {EN: "Sound Designer & Editor", ES: "Diseñador y Editor de Sonido"},
		AuthorBio:       {EN: "", ES: ""},
		AuthorEmail:     {EN: "info@felovalencia.com", ES: "info@felovalencia.com"},
		AuthorLinkedIn:  {EN: "https://www.linkedin.com/in/felipe-v-129a0596/", ES: "https://www.linkedin.com/in/felipe-v-129a0596/"},
		AuthorInstagram: {EN: "https://www.instagram.com/felovalencip", ES: "https://www.instagram.com/felovalencip"},
	}
}

// DefaultCategories is the category list used without remote data.
func DefaultCategories() []Category {
	return []Category{
		{Value: CategoryAll, Label: Localized{EN: "All Projects", ES: "Todos los Proyectos"}},
		{Value: "film", Label: Localized{EN: "Films", ES: "Películas"}},
		{Value: "series", Label: Localized{EN: "Series", ES: "Series"}},
		{Value: "documentary", Label: Localized{EN: "Documentaries", ES: "Documentales"}},
	}
}
