package translate

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"sync"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/kapu/portfolio-web-go/internal/domain"
)

//go:embed templates/*.yaml
var templateFS embed.FS

const fillMissingTemplate = "templates/fill_missing.yaml"

type promptFile struct {
	Prompt string `yaml:"prompt"`
}

var (
	fillOnce sync.Once
	fillTmpl *template.Template
	fillErr  error
)

// PromptVars are the values rendered into the fill prompt.
type PromptVars struct {
	Title       string
	Year        int
	Category    string
	Director    string
	Role        domain.Localized
	Description domain.Localized
	Missing     []string
}

func loadFillTemplate() (*template.Template, error) {
	fillOnce.Do(func() {
		content, err := templateFS.ReadFile(fillMissingTemplate)
		if err != nil {
			fillErr = fmt.Errorf("load prompt template: %w", err)
			return
		}
		var file promptFile
		if err := yaml.Unmarshal(content, &file); err != nil {
			fillErr = fmt.Errorf("decode prompt template: %w", err)
			return
		}
		fillTmpl, fillErr = template.New("fill_missing").
			Funcs(template.FuncMap{"join": strings.Join}).
			Parse(file.Prompt)
	})
	return fillTmpl, fillErr
}

// BuildPrompt renders the fill prompt for one project.
func BuildPrompt(vars PromptVars) (string, error) {
	tmpl, err := loadFillTemplate()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return buf.String(), nil
}
