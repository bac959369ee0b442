package models

// Complexity is the estimated implementation complexity of a feature.
type Complexity string

const (
	ComplexitySimple  Complexity = "simple"
	ComplexityMedium  Complexity = "medium"
	ComplexityComplex Complexity = "complex"
)

// AllComplexities lists complexity levels in reporting order.
var AllComplexities = []Complexity{ComplexitySimple, ComplexityMedium, ComplexityComplex}

// UserFlow is an ordered sequence of step phrases performed by an actor.
type UserFlow struct {
	ID          string   `json:"id" toon:"id"`
	Name        string   `json:"name" toon:"name"`
	Description string   `json:"description" toon:"description"`
	Steps       []string `json:"steps" toon:"steps"`
	Actor       string   `json:"actor" toon:"actor"`
	// Source records whether the flow came from a user story or an acceptance criterion.
	Source ScenarioSource `json:"source" toon:"source"`
}

// Feature is a coherent group of requirements. It owns copies of its requirements.
type Feature struct {
	ID                     string        `json:"id" toon:"id"`
	Name                   string        `json:"name" toon:"name"`
	Description            string        `json:"description" toon:"description"`
	Requirements           []Requirement `json:"requirements" toon:"requirements"`
	Dependencies           []string      `json:"dependencies" toon:"dependencies"`
	Priority               Priority      `json:"priority" toon:"priority"`
	Complexity             Complexity    `json:"complexity" toon:"complexity"`
	EstimatedScenarioCount int           `json:"estimated_scenario_count" toon:"estimated_scenario_count"`
	UserFlows              []UserFlow    `json:"user_flows" toon:"user_flows"`
}

// AcceptanceCriteria returns all member criteria in member order.
func (f *Feature) AcceptanceCriteria() []string {
	var out []string
	for _, r := range f.Requirements {
		out = append(out, r.AcceptanceCriteria...)
	}
	return out
}

// Actors returns the distinct non-empty actors of the member requirements.
func (f *Feature) Actors() []string {
	var out []string
	for _, r := range f.Requirements {
		out = AppendUnique(out, r.Actor)
	}
	return out
}

// Tags returns the distinct tags of the member requirements.
func (f *Feature) Tags() []string {
	var out []string
	for _, r := range f.Requirements {
		out = AppendUnique(out, r.Tags...)
	}
	return out
}

// HasDependencies reports whether any member requirement declares a dependency.
func (f *Feature) HasDependencies() bool {
	for _, r := range f.Requirements {
		if len(r.Dependencies) > 0 {
			return true
		}
	}
	return false
}
