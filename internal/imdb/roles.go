package imdb

import (
	"regexp"
	"strings"

	"github.com/kapu/portfolio-web-go/internal/domain"
	"github.com/kapu/portfolio-web-go/internal/util"
)

var (
	parentheticalRe = regexp.MustCompile(`\s*\(.*?\)\s*`)
	ellipsisRe      = regexp.MustCompile(`\s*\.\.\..*`)
)

type roleRule struct {
	all  []string
	role domain.Localized
}

// combinedRoles are checked before the single role table; every fragment must appear.
var combinedRoles = []roleRule{
	{[]string{"dialogue editor", "sound editor"}, domain.Localized{EN: "Dialogue Editor & Sound Editor", ES: "Editor de Diálogos y Sonido"}},
	{[]string{"adr editor", "dialogue editor"}, domain.Localized{EN: "ADR Editor & Dialogue Editor", ES: "Editor de ADR y Editor de Diálogos"}},
	{[]string{"dialogue editor", "supervising"}, domain.Localized{EN: "Dialogue Editor & Supervising Sound Editor", ES: "Editor de Diálogos y Supervisor de Sonido"}},
	{[]string{"adr recordist", "dialogue editor"}, domain.Localized{EN: "ADR Recordist & Dialogue Editor", ES: "Grabador de ADR y Editor de Diálogos"}},
	{[]string{"foley artist", "sound editor"}, domain.Localized{EN: "Sound Editor & Foley Artist", ES: "Editor de Sonido y Artista de Foley"}},
	{[]string{"dialogue editor", "foley artist"}, domain.Localized{EN: "Dialogue Editor & Foley Artist", ES: "Editor de Diálogos y Artista de Foley"}},
}

// singleRoles is ordered so longer titles win over the ones they contain.
var singleRoles = []roleRule{
	{[]string{"supervising sound editor"}, domain.Localized{EN: "Supervising Sound Editor", ES: "Supervisor de Edición de Sonido"}},
	{[]string{"sound effects editor"}, domain.Localized{EN: "Sound Effects Editor", ES: "Editor de Efectos de Sonido"}},
	{[]string{"dialogue editor"}, domain.Localized{EN: "Dialogue Editor", ES: "Editor de Diálogos"}},
	{[]string{"sound editor"}, domain.Localized{EN: "Sound Editor", ES: "Editor de Sonido"}},
	{[]string{"adr recordist"}, domain.Localized{EN: "ADR Recordist", ES: "Grabador de ADR"}},
	{[]string{"a.d.r. recordist"}, domain.Localized{EN: "ADR Recordist", ES: "Grabador de ADR"}},
	{[]string{"adr editor"}, domain.Localized{EN: "ADR Editor", ES: "Editor de ADR"}},
	{[]string{"sound designer"}, domain.Localized{EN: "Sound Designer", ES: "Diseñador de Sonido"}},
	{[]string{"sound mixer"}, domain.Localized{EN: "Sound Mixer", ES: "Mezclador de Sonido"}},
	{[]string{"foley editor"}, domain.Localized{EN: "Foley Editor", ES: "Editor de Foley"}},
	{[]string{"foley artist"}, domain.Localized{EN: "Foley Artist", ES: "Artista de Foley"}},
	{[]string{"sound restoration"}, domain.Localized{EN: "Sound Restoration", ES: "Restauración de Sonido"}},
	{[]string{"assistant sound"}, domain.Localized{EN: "Assistant Sound", ES: "Asistente de Sonido"}},
}

// CleanRole lower-cases a credit line and strips notes like "(uncredited)" and "... (2 episodes)".
func CleanRole(raw string) string {
	role := strings.ToLower(strings.TrimSpace(raw))
	role = parentheticalRe.ReplaceAllString(role, " ")
	role = ellipsisRe.ReplaceAllString(role, "")
	return util.CollapseSpaces(role)
}

// FormatRole maps an IMDb credit line to a display role in both languages.
// Unknown roles are title-cased and used for both sides.
func FormatRole(raw string) domain.Localized {
	role := CleanRole(raw)

	for _, rule := range combinedRoles {
		if matchesAll(role, rule.all) {
			return rule.role
		}
	}
	for _, rule := range singleRoles {
		if matchesAll(role, rule.all) {
			return rule.role
		}
	}

	title := util.TitleCase(role)
	return domain.Localized{EN: title, ES: title}
}

func matchesAll(role string, fragments []string) bool {
	for _, f := range fragments {
		if !strings.Contains(role, f) {
			return false
		}
	}
	return true
}
