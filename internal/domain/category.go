package domain

// CategoryAll is the pseudo category that selects every project.
const CategoryAll = "all"

// Category is a project category with its display label.
type Category struct {
	Value string    `json:"value"`
	Label Localized `json:"label"`
}
