package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ScenarioKind classifies what a scenario exercises.
type ScenarioKind string

const (
	ScenarioHappyPath   ScenarioKind = "happy-path"
	ScenarioErrorCase   ScenarioKind = "error-case"
	ScenarioEdgeCase    ScenarioKind = "edge-case"
	ScenarioIntegration ScenarioKind = "integration"
)

// AllScenarioKinds lists scenario kinds in ranking order.
var AllScenarioKinds = []ScenarioKind{
	ScenarioHappyPath,
	ScenarioIntegration,
	ScenarioEdgeCase,
	ScenarioErrorCase,
}

// Precedence orders kinds for ranking: happy-path < integration < edge-case < error-case.
func (k ScenarioKind) Precedence() int {
	switch k {
	case ScenarioHappyPath:
		return 0
	case ScenarioIntegration:
		return 1
	case ScenarioEdgeCase:
		return 2
	case ScenarioErrorCase:
		return 3
	default:
		return 4
	}
}

// Tag returns the Gherkin tag for the kind, e.g. "@happy-path".
func (k ScenarioKind) Tag() string {
	return "@" + string(k)
}

// ScenarioSource records where a scenario's content came from.
type ScenarioSource string

const (
	SourceUserStory          ScenarioSource = "user-story"
	SourceAcceptanceCriteria ScenarioSource = "acceptance-criteria"
	SourceGenerated          ScenarioSource = "generated"
)

// StepKeyword is a Gherkin step keyword.
type StepKeyword string

const (
	KeywordGiven StepKeyword = "Given"
	KeywordWhen  StepKeyword = "When"
	KeywordThen  StepKeyword = "Then"
	KeywordAnd   StepKeyword = "And"
)

// Step is one line of a scenario.
type Step struct {
	Keyword StepKeyword `json:"keyword" toon:"keyword"`
	Text    string      `json:"text" toon:"text"`
	Order   int         `json:"order" toon:"order"`
}

// Scenario is a BDD scenario generated for a feature.
type Scenario struct {
	Name        string         `json:"name" toon:"name"`
	Description string         `json:"description,omitempty" toon:"description,omitempty"`
	Tags        []string       `json:"tags" toon:"tags"`
	Steps       []Step         `json:"steps" toon:"steps"`
	Kind        ScenarioKind   `json:"kind" toon:"kind"`
	Source      ScenarioSource `json:"source" toon:"source"`
	Confidence  float64        `json:"confidence" toon:"confidence"`
}

// Key identifies a scenario for deduplication: name plus step texts.
func (s Scenario) Key() string {
	texts := make([]string, len(s.Steps))
	for i, st := range s.Steps {
		texts[i] = st.Text
	}
	return s.Name + "|" + strings.Join(texts, "|")
}

// DetailLevel controls how elaborate generated scenarios are.
type DetailLevel string

const (
	DetailBasic    DetailLevel = "basic"
	DetailStandard DetailLevel = "standard"
	DetailDetailed DetailLevel = "detailed"
)

// GenerateOptions controls scenario generation.
type GenerateOptions struct {
	IncludeEdgeCases            bool        `json:"include_edge_cases" toon:"include_edge_cases" koanf:"include_edge_cases"`
	IncludeErrorCases           bool        `json:"include_error_cases" toon:"include_error_cases" koanf:"include_error_cases"`
	IncludeIntegrationScenarios bool        `json:"include_integration_scenarios" toon:"include_integration_scenarios" koanf:"include_integration"`
	MaxScenariosPerFlow         int         `json:"max_scenarios_per_flow" toon:"max_scenarios_per_flow" koanf:"max_scenarios_per_flow" validate:"gte=1"`
	DetailLevel                 DetailLevel `json:"detail_level" toon:"detail_level" koanf:"detail_level" validate:"oneof=basic standard detailed"`
}

// DefaultGenerateOptions enables every scenario category at standard detail.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		IncludeEdgeCases:            true,
		IncludeErrorCases:           true,
		IncludeIntegrationScenarios: true,
		MaxScenariosPerFlow:         3,
		DetailLevel:                 DetailStandard,
	}
}

var optionsValidator = validator.New()

// Validate checks the options before any pipeline stage runs.
func (o GenerateOptions) Validate() error {
	err := optionsValidator.Struct(o)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &OptionsError{
			Field:  fe.Field(),
			Reason: describeValidation(fe),
		}
	}
	return &OptionsError{Reason: err.Error()}
}

func describeValidation(fe validator.FieldError) string {
	switch fe.Tag() {
	case "oneof":
		return fmt.Sprintf("unknown value %q (want one of: %s)", fe.Value(), fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s (got %v)", fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}
