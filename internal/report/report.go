// Package report exports analysis reports as JSON, Markdown and Gherkin files.
package report

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/panbanda/reqbdd/pkg/models"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// JSON returns the report as indented JSON.
func JSON(r *models.AnalysisReport) ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return append(data, '\n'), nil
}

// Renderer renders Markdown documents from the embedded templates.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	funcMap := template.FuncMap{
		"scoreClass": scoreClass,
		"cell":       func(s string) string { return strings.ReplaceAll(s, "|", `\|`) },
		"join":       strings.Join,
		"scenarioCount": func(r *models.AnalysisReport, id string) int {
			return len(r.ScenariosFor(id))
		},
		"percent": func(f float64) string { return fmt.Sprintf("%.0f%%", f*100) },
		"inc":     func(i int) int { return i + 1 },
		"gherkin": stepLines,
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Markdown renders the summary report: header, feature table,
// recommendations, and validation findings.
func (r *Renderer) Markdown(rep *models.AnalysisReport) (string, error) {
	return r.execute("report.md.tmpl", rep)
}

// ScenarioMarkdown renders one scenario with its implementation checklist.
func (r *Renderer) ScenarioMarkdown(f models.Feature, s models.Scenario) (string, error) {
	return r.execute("scenario.md.tmpl", struct {
		Feature  models.Feature
		Scenario models.Scenario
	}{f, s})
}

func (r *Renderer) execute(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// Markdown renders the summary report with a fresh renderer.
func Markdown(rep *models.AnalysisReport) (string, error) {
	r, err := NewRenderer()
	if err != nil {
		return "", err
	}
	return r.Markdown(rep)
}

func scoreClass(score int) string {
	if score >= 80 {
		return "good"
	}
	if score >= 60 {
		return "warning"
	}
	return "poor"
}

func stepLines(steps []models.Step) string {
	lines := make([]string, len(steps))
	for i, st := range steps {
		lines[i] = string(st.Keyword) + " " + st.Text
	}
	return strings.Join(lines, "\n")
}
