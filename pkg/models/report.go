package models

// Summary aggregates counts over one analysis run.
type Summary struct {
	TotalRequirements      int                  `json:"total_requirements" toon:"total_requirements"`
	TotalFeatures          int                  `json:"total_features" toon:"total_features"`
	TotalScenarios         int                  `json:"total_scenarios" toon:"total_scenarios"`
	TotalUserFlows         int                  `json:"total_user_flows" toon:"total_user_flows"`
	UserStories            int                  `json:"user_stories" toon:"user_stories"`
	HighPriorityFeatures   int                  `json:"high_priority_features" toon:"high_priority_features"`
	ComplexFeatures        int                  `json:"complex_features" toon:"complex_features"`
	AvgScenariosPerFeature float64              `json:"avg_scenarios_per_feature" toon:"avg_scenarios_per_feature"`
	FeaturesByPriority     map[Priority]int     `json:"features_by_priority" toon:"features_by_priority"`
	FeaturesByComplexity   map[Complexity]int   `json:"features_by_complexity" toon:"features_by_complexity"`
	ScenariosByKind        map[ScenarioKind]int `json:"scenarios_by_kind" toon:"scenarios_by_kind"`
}

// AnalysisReport is the complete, read-only result of one analysis run.
type AnalysisReport struct {
	Document  ParsedDocument        `json:"document" toon:"document"`
	Features  []Feature             `json:"features" toon:"features"`
	Scenarios map[string][]Scenario `json:"scenarios" toon:"scenarios"` // feature ID -> scenarios
	Summary   Summary               `json:"summary" toon:"summary"`
	// Recommendations are human-readable suggestions derived from the summary.
	Recommendations []string         `json:"recommendations" toon:"recommendations"`
	Validation      ValidationResult `json:"validation" toon:"validation"`
	// ImplementationOrder lists feature IDs with dependencies first. Empty when a cycle exists.
	ImplementationOrder []string        `json:"implementation_order" toon:"implementation_order"`
	Options             GenerateOptions `json:"options" toon:"options"`
}

// ScenariosFor returns the scenarios generated for a feature.
func (r *AnalysisReport) ScenariosFor(featureID string) []Scenario {
	return r.Scenarios[featureID]
}

// Feature looks up a feature by ID.
func (r *AnalysisReport) Feature(id string) (Feature, bool) {
	for _, f := range r.Features {
		if f.ID == id {
			return f, true
		}
	}
	return Feature{}, false
}
