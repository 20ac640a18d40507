package domain

// AuthorInfo maps an arbitrary key (name, title, bio, email, ...) to its localized value.
type AuthorInfo map[string]Localized

// Well-known author keys used by the pages.
const (
	AuthorName      = "name"
	AuthorTitle     = "title"
	AuthorBio       = "bio"
	AuthorEmail     = "email"
	AuthorLinkedIn  = "linkedin"
	AuthorInstagram = "instagram"
)

// Get returns the value for key in locale, or "" when the key is missing.
func (a AuthorInfo) Get(key, locale string) string {
	if a == nil {
		return ""
	}
	return a[key].In(locale)
}
