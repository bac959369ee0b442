package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/panbanda/reqbdd/internal/output"
	"github.com/panbanda/reqbdd/pkg/models"
)

// DocumentView lists the parsed requirements of a document.
func DocumentView(doc *models.ParsedDocument) output.Renderable {
	rows := make([][]string, len(doc.Requirements))
	for i, r := range doc.Requirements {
		rows[i] = []string{r.ID, string(r.Kind), string(r.Priority), r.Title, r.ParentID}
	}
	return &output.Report{
		Title: fmt.Sprintf("%s (v%s)", doc.Title, doc.Version),
		Sections: []output.Renderable{
			output.NewTable("Requirements",
				[]string{"ID", "Kind", "Priority", "Title", "Parent"},
				rows,
				[]string{"Total", strconv.Itoa(len(rows)), "", "", ""},
				nil),
		},
		Data: doc,
	}
}

// FeaturesView tabulates extracted features.
func FeaturesView(features []models.Feature) output.Renderable {
	rows := make([][]string, len(features))
	for i, f := range features {
		rows[i] = []string{
			f.ID,
			f.Name,
			string(f.Priority),
			string(f.Complexity),
			strconv.Itoa(len(f.Requirements)),
			strconv.Itoa(f.EstimatedScenarioCount),
			strings.Join(f.Dependencies, ", "),
		}
	}
	table := output.NewTable("Features",
		[]string{"ID", "Name", "Priority", "Complexity", "Requirements", "Est. Scenarios", "Depends On"},
		rows, nil, features)
	table.LevelColumns = []int{2, 3}
	return table
}

// ScenariosView shows a feature's scenarios as Gherkin in text and Markdown.
func ScenariosView(f models.Feature, scenarios []models.Scenario) output.Renderable {
	return &gherkinView{feature: f, scenarios: scenarios}
}

// ValidationView lists validation findings with the score.
func ValidationView(v models.ValidationResult) output.Renderable {
	items := make([]string, 0, len(v.Errors)+len(v.Warnings))
	levels := make([]string, 0, cap(items))
	for _, e := range v.Errors {
		items = append(items, "error: "+e)
		levels = append(levels, "error")
	}
	for _, w := range v.Warnings {
		items = append(items, "warning: "+w)
		levels = append(levels, "warning")
	}
	status := "valid"
	if !v.IsValid {
		status = "invalid"
	}
	return &output.List{
		Title:  fmt.Sprintf("Validation: %s, score %d/100", status, v.Score),
		Items:  items,
		Empty:  "No issues found.",
		Levels: levels,
		Data:   v,
	}
}

// SummaryView is the full report view used by the analyze command.
func SummaryView(rep *models.AnalysisReport) output.Renderable {
	s := rep.Summary
	totals := output.NewTable("Summary",
		[]string{"Metric", "Value"},
		[][]string{
			{"Requirements", strconv.Itoa(s.TotalRequirements)},
			{"User stories", strconv.Itoa(s.UserStories)},
			{"Features", strconv.Itoa(s.TotalFeatures)},
			{"User flows", strconv.Itoa(s.TotalUserFlows)},
			{"Scenarios", strconv.Itoa(s.TotalScenarios)},
			{"Avg scenarios per feature", strconv.FormatFloat(s.AvgScenariosPerFeature, 'f', 1, 64)},
			{"Validation score", strconv.Itoa(rep.Validation.Score)},
		}, nil, nil)

	rows := make([][]string, len(rep.Features))
	for i, f := range rep.Features {
		rows[i] = []string{f.ID, f.Name, string(f.Priority), string(f.Complexity), strconv.Itoa(len(rep.ScenariosFor(f.ID)))}
	}
	features := output.NewTable("Features",
		[]string{"ID", "Name", "Priority", "Complexity", "Scenarios"}, rows, nil, nil)
	features.LevelColumns = []int{2, 3}

	return &output.Report{
		Title: rep.Document.Title,
		Sections: []output.Renderable{
			totals,
			features,
			&output.List{Title: "Recommendations", Items: rep.Recommendations, Empty: "No recommendations."},
			ValidationView(rep.Validation),
		},
		Data: rep,
	}
}

type gherkinView struct {
	feature   models.Feature
	scenarios []models.Scenario
}

func (g *gherkinView) RenderData() any {
	return map[string]any{
		"feature":   g.feature.ID,
		"scenarios": g.scenarios,
	}
}

func (g *gherkinView) RenderText(w io.Writer, colored bool) error {
	text := FeatureFile(g.feature, g.scenarios)
	if !colored {
		_, err := io.WriteString(w, text+"\n")
		return err
	}
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "@"):
			line = color.CyanString(line)
		case strings.HasPrefix(trimmed, "Feature:"), strings.HasPrefix(trimmed, "Scenario:"):
			line = color.New(color.Bold).Sprint(line)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func (g *gherkinView) RenderMarkdown(w io.Writer) error {
	_, err := fmt.Fprintf(w, "## %s %s\n\n```gherkin\n%s```\n\n", g.feature.ID, g.feature.Name, FeatureFile(g.feature, g.scenarios))
	return err
}
