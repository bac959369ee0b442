package analysis

import (
	"fmt"
	"strings"

	"github.com/panbanda/reqbdd/pkg/models"
)

// Summarize counts requirements, features, flows and scenarios.
func Summarize(doc *models.ParsedDocument, feats []models.Feature, byFeature map[string][]models.Scenario) models.Summary {
	s := models.Summary{
		TotalRequirements:    len(doc.Requirements),
		TotalFeatures:        len(feats),
		UserStories:          doc.CountKind(models.KindUserStory),
		FeaturesByPriority:   make(map[models.Priority]int, len(models.AllPriorities)),
		FeaturesByComplexity: make(map[models.Complexity]int, len(models.AllComplexities)),
		ScenariosByKind:      make(map[models.ScenarioKind]int, len(models.AllScenarioKinds)),
	}
	for _, p := range models.AllPriorities {
		s.FeaturesByPriority[p] = 0
	}
	for _, c := range models.AllComplexities {
		s.FeaturesByComplexity[c] = 0
	}
	for _, k := range models.AllScenarioKinds {
		s.ScenariosByKind[k] = 0
	}

	for _, f := range feats {
		s.TotalUserFlows += len(f.UserFlows)
		s.FeaturesByPriority[f.Priority]++
		s.FeaturesByComplexity[f.Complexity]++
		for _, sc := range byFeature[f.ID] {
			s.TotalScenarios++
			s.ScenariosByKind[sc.Kind]++
		}
	}
	s.HighPriorityFeatures = s.FeaturesByPriority[models.PriorityHigh]
	s.ComplexFeatures = s.FeaturesByComplexity[models.ComplexityComplex]
	if s.TotalFeatures > 0 {
		s.AvgScenariosPerFeature = float64(s.TotalScenarios) / float64(s.TotalFeatures)
	}
	return s
}

// minScenarioDensity is the average scenarios per feature below which
// coverage is reported as thin.
const minScenarioDensity = 2.0

// Recommend derives suggestions from the summary and features. Each
// heuristic is independent of the others.
func Recommend(s models.Summary, feats []models.Feature, byFeature map[string][]models.Scenario) []string {
	recs := []string{}

	if s.UserStories == 0 {
		recs = append(recs, "No user stories found: add statements of the form \"As a <role>, I want <goal> so that <benefit>\" to capture who needs each capability")
	}

	var empty []string
	for _, f := range feats {
		if len(byFeature[f.ID]) == 0 {
			empty = append(empty, f.ID)
		}
	}
	if len(empty) > 0 {
		recs = append(recs, fmt.Sprintf("Features without scenarios (%s): add acceptance criteria or user stories", strings.Join(empty, ", ")))
	}

	if s.TotalFeatures > 0 && float64(s.ComplexFeatures) > float64(s.TotalFeatures)/2 {
		recs = append(recs, fmt.Sprintf("%d of %d features are complex: consider splitting them into smaller, independently deliverable features", s.ComplexFeatures, s.TotalFeatures))
	}

	if s.TotalFeatures > 0 && s.HighPriorityFeatures == 0 {
		recs = append(recs, "No high-priority features: mark the capabilities that must ship first with [high] or a Priority line")
	}

	if unresolved := unresolvedDependencies(feats); len(unresolved) > 0 {
		recs = append(recs, fmt.Sprintf("Unresolved dependencies (%s): check that each \"Depends on\" name matches a feature title", strings.Join(unresolved, ", ")))
	}

	if s.TotalFeatures > 0 && s.AvgScenariosPerFeature < minScenarioDensity {
		recs = append(recs, fmt.Sprintf("Low scenario density (%.1f per feature): add acceptance criteria to describe expected behavior in more detail", s.AvgScenariosPerFeature))
	}

	if s.TotalScenarios > 0 && s.ScenariosByKind[models.ScenarioEdgeCase] == 0 {
		recs = append(recs, "No edge-case scenarios: enable edge cases or describe boundary conditions such as limits and concurrent use")
	}

	return recs
}

// unresolvedDependencies lists "FEAT-001 -> Name" for dependencies that do not name a feature.
func unresolvedDependencies(feats []models.Feature) []string {
	known := make(map[string]bool, len(feats))
	for _, f := range feats {
		known[f.ID] = true
	}
	var out []string
	for _, f := range feats {
		for _, dep := range f.Dependencies {
			if !known[dep] {
				out = append(out, f.ID+" -> "+dep)
			}
		}
	}
	return out
}
