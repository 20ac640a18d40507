package domain

// Theme names.
const (
	ThemeDark  = "darkTheme"
	ThemeLight = "lightTheme"
)

// Palette is the colour set of one theme.
type Palette struct {
	Background     string
	Surface        string
	SurfaceVariant string
	Primary        string
	Secondary      string
	Accent         string
	Error          string
	Info           string
	Success        string
	Warning        string
}

// Theme is a named palette.
type Theme struct {
	Name   string
	Dark   bool
	Colors Palette
}

var themes = map[string]Theme{
	ThemeDark: {
		Name: ThemeDark,
		Dark: true,
		Colors: Palette{
			Background:     "#0a0a0f",
			Surface:        "#12121a",
			SurfaceVariant: "#1a1a25",
			Primary:        "#00bcd4",
			Secondary:      "#e91e63",
			Accent:         "#00bcd4",
			Error:          "#f44336",
			Info:           "#2196F3",
			Success:        "#4CAF50",
			Warning:        "#FFC107",
		},
	},
	ThemeLight: {
		Name: ThemeLight,
		Dark: false,
		Colors: Palette{
			Background:     "#f5f5f5",
			Surface:        "#ffffff",
			SurfaceVariant: "#e8e8e8",
			Primary:        "#0097a7",
			Secondary:      "#c2185b",
			Accent:         "#0097a7",
			Error:          "#d32f2f",
			Info:           "#1976D2",
			Success:        "#388E3C",
			Warning:        "#F57C00",
		},
	},
}

// LookupTheme returns the named theme and whether it exists.
func LookupTheme(name string) (Theme, bool) {
	t, ok := themes[name]
	return t, ok
}

// ThemeOrDefault returns the named theme, or the dark theme for unknown names.
func ThemeOrDefault(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return themes[ThemeDark]
}
