// Package scenarios synthesizes BDD scenarios for extracted features.
package scenarios

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/panbanda/reqbdd/pkg/config"
	"github.com/panbanda/reqbdd/pkg/models"
)

// Confidence per scenario origin.
const (
	ConfidenceUserStory   = 0.9
	ConfidenceCriteria    = 0.85
	ConfidenceIntegration = 0.7
	ConfidenceErrorCase   = 0.65
	ConfidenceEdgeCase    = 0.6
)

const defaultActor = "user"

var leadingKeyword = regexp.MustCompile(`(?i)^\s*(given|when|then|and)\s+(.+)$`)

// Generator synthesizes scenarios for a feature.
// This generator is safe for concurrent use.
type Generator struct {
	rules config.RulesConfig
	names map[string]string
}

// Option is a functional option for configuring Generator.
type Option func(*Generator)

// WithRules sets the chunk size and the keyword lists that trigger
// boundary-value and unauthorized-access scenarios.
func WithRules(rules config.RulesConfig) Option {
	return func(g *Generator) {
		g.rules = rules
	}
}

// WithFeatureNames lets integration scenarios refer to dependencies by name
// instead of by feature ID.
func WithFeatureNames(names map[string]string) Option {
	return func(g *Generator) {
		g.names = names
	}
}

// New creates a generator with the default rules.
func New(opts ...Option) *Generator {
	g := &Generator{
		rules: config.DefaultConfig().Rules,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rules.CriteriaChunkSize < 1 {
		g.rules.CriteriaChunkSize = 1
	}
	return g
}

// Generate synthesizes scenarios with the default rules.
func Generate(f models.Feature, opts models.GenerateOptions) ([]models.Scenario, error) {
	return New().Generate(f, opts)
}

// Generate returns the feature's scenarios, deduplicated and ranked.
// Invalid options fail before anything is generated.
func (g *Generator) Generate(f models.Feature, opts models.GenerateOptions) ([]models.Scenario, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	var out []models.Scenario
	for _, flow := range f.UserFlows {
		out = append(out, g.flowScenarios(f, flow, opts)...)
	}
	out = append(out, g.criteriaScenarios(f)...)
	if opts.IncludeEdgeCases {
		out = append(out, g.edgeCases(f)...)
	}
	if opts.IncludeErrorCases {
		out = append(out, g.errorCases(f)...)
	}
	if opts.IncludeIntegrationScenarios {
		out = append(out, g.integrationScenarios(f)...)
	}

	out = Deduplicate(out)
	Rank(out)
	return out, nil
}

// flowScenarios returns the happy path for a flow and, at detailed level, its
// partial-completion variants, capped at opts.MaxScenariosPerFlow.
func (g *Generator) flowScenarios(f models.Feature, flow models.UserFlow, opts models.GenerateOptions) []models.Scenario {
	if len(flow.Steps) == 0 {
		return nil
	}
	actor := orDefault(flow.Actor)

	var steps stepList
	body := flow.Steps
	if flow.Source == models.SourceUserStory {
		steps.add(models.KeywordGiven, fmt.Sprintf("the %s has access to %s", actor, f.Name))
	} else {
		steps.add(models.KeywordGiven, body[0])
		body = body[1:]
	}
	if opts.DetailLevel == models.DetailBasic && len(body) > 2 {
		body = []string{body[0], body[len(body)-1]}
	}
	for i, text := range body {
		switch {
		case i == len(body)-1:
			steps.add(models.KeywordThen, text)
		case i == 0:
			steps.add(models.KeywordWhen, text)
		default:
			steps.add(models.KeywordAnd, text)
		}
	}

	source := models.SourceUserStory
	confidence := ConfidenceUserStory
	if flow.Source != models.SourceUserStory {
		source = models.SourceGenerated
		confidence = ConfidenceCriteria
	}

	results := []models.Scenario{{
		Name:        fmt.Sprintf("%s completes successfully", flow.Name),
		Description: flow.Description,
		Tags:        g.tags(f, models.ScenarioHappyPath),
		Steps:       steps,
		Kind:        models.ScenarioHappyPath,
		Source:      source,
		Confidence:  confidence,
	}}

	if opts.DetailLevel == models.DetailDetailed && len(flow.Steps) > 2 {
		for k := 1; k < len(flow.Steps); k++ {
			results = append(results, g.partialCompletion(f, flow, actor, k))
		}
	}
	if len(results) > opts.MaxScenariosPerFlow {
		results = results[:opts.MaxScenariosPerFlow]
	}
	return results
}

func (g *Generator) partialCompletion(f models.Feature, flow models.UserFlow, actor string, completed int) models.Scenario {
	var steps stepList
	steps.add(models.KeywordGiven, fmt.Sprintf("the %s has started to use %s", actor, f.Name))
	for i, text := range flow.Steps[:completed] {
		if i == 0 {
			steps.add(models.KeywordWhen, text)
		} else {
			steps.add(models.KeywordAnd, text)
		}
	}
	steps.add(models.KeywordAnd, fmt.Sprintf("the %s stops before: %s", actor, flow.Steps[completed]))
	steps.add(models.KeywordThen, "the progress made so far is preserved")
	steps.add(models.KeywordAnd, fmt.Sprintf("the %s can resume from where they stopped", actor))

	return models.Scenario{
		Name:        fmt.Sprintf("%s is interrupted after step %d", flow.Name, completed),
		Description: fmt.Sprintf("Partial completion of %s", flow.Name),
		Tags:        g.tags(f, models.ScenarioEdgeCase),
		Steps:       steps,
		Kind:        models.ScenarioEdgeCase,
		Source:      models.SourceGenerated,
		Confidence:  ConfidenceEdgeCase,
	}
}

// criteriaScenarios turns the feature's acceptance criteria into one scenario
// per chunk of at most CriteriaChunkSize criteria.
func (g *Generator) criteriaScenarios(f models.Feature) []models.Scenario {
	criteria := f.AcceptanceCriteria()
	if len(criteria) == 0 {
		return nil
	}

	size := g.rules.CriteriaChunkSize
	parts := (len(criteria) + size - 1) / size
	out := make([]models.Scenario, 0, parts)
	for part := 0; part < parts; part++ {
		chunk := criteria[part*size : min((part+1)*size, len(criteria))]

		name := fmt.Sprintf("%s meets its acceptance criteria", f.Name)
		if parts > 1 {
			name = fmt.Sprintf("%s (part %d of %d)", name, part+1, parts)
		}

		var steps stepList
		steps.add(models.KeywordGiven, fmt.Sprintf("%s is available", f.Name))
		for i, c := range chunk {
			kw := models.KeywordAnd
			if i == 0 {
				kw = models.KeywordThen
			}
			text := c
			if m := leadingKeyword.FindStringSubmatch(c); m != nil {
				kw = models.StepKeyword(strings.ToUpper(m[1][:1]) + strings.ToLower(m[1][1:]))
				text = m[2]
			}
			steps.add(kw, text)
		}

		out = append(out, models.Scenario{
			Name:        name,
			Description: fmt.Sprintf("Verifies %d acceptance criteria of %s", len(chunk), f.Name),
			Tags:        append(g.tags(f, models.ScenarioHappyPath), "@acceptance-criteria"),
			Steps:       steps,
			Kind:        models.ScenarioHappyPath,
			Source:      models.SourceAcceptanceCriteria,
			Confidence:  ConfidenceCriteria,
		})
	}
	return out
}

func (g *Generator) edgeCases(f models.Feature) []models.Scenario {
	actor := primaryActor(f)
	var out []models.Scenario

	if containsAny(f.Name, g.rules.SearchKeywords) {
		out = append(out, g.scenario(f, models.ScenarioEdgeCase,
			fmt.Sprintf("%s handles boundary values", f.Name),
			"Inputs at and beyond the allowed limits",
			ConfidenceEdgeCase,
			fmt.Sprintf("the %s is using %s", actor, f.Name),
			[]string{"the input is empty or at its maximum allowed length"},
			[]string{"the input is handled without errors", "an informative message is shown when nothing matches"},
		))
	}

	out = append(out, g.scenario(f, models.ScenarioEdgeCase,
		fmt.Sprintf("%s handles concurrent access", f.Name),
		"Several actors perform the same action at once",
		ConfidenceEdgeCase,
		fmt.Sprintf("multiple %ss are using %s", actor, f.Name),
		[]string{"they perform the same action at the same time"},
		[]string{"each request is processed exactly once", "the stored data remains consistent"},
	))
	return out
}

func (g *Generator) errorCases(f models.Feature) []models.Scenario {
	actor := primaryActor(f)
	out := []models.Scenario{
		g.scenario(f, models.ScenarioErrorCase,
			fmt.Sprintf("%s recovers from a network failure", f.Name),
			"The connection drops while the action is in progress",
			ConfidenceErrorCase,
			fmt.Sprintf("the %s is using %s", actor, f.Name),
			[]string{"the network connection is lost during the operation"},
			[]string{"a clear error message is shown", "no partial changes are saved"},
		),
		g.scenario(f, models.ScenarioErrorCase,
			fmt.Sprintf("%s rejects invalid input", f.Name),
			"Malformed or missing data is submitted",
			ConfidenceErrorCase,
			fmt.Sprintf("the %s is using %s", actor, f.Name),
			[]string{fmt.Sprintf("the %s submits invalid or incomplete data", actor)},
			[]string{"the input is rejected with a validation message", "no data is changed"},
		),
	}

	if containsAny(f.Name, g.rules.AuthKeywords) {
		out = append(out, g.scenario(f, models.ScenarioErrorCase,
			fmt.Sprintf("%s denies unauthorized access", f.Name),
			"An unauthenticated request is refused",
			ConfidenceErrorCase,
			fmt.Sprintf("the %s is not authenticated", actor),
			[]string{fmt.Sprintf("they attempt to use %s", f.Name)},
			[]string{"access is denied", "the attempt is recorded"},
		))
	}
	return out
}

func (g *Generator) integrationScenarios(f models.Feature) []models.Scenario {
	actor := primaryActor(f)
	out := make([]models.Scenario, 0, len(f.Dependencies))
	for _, dep := range f.Dependencies {
		name := dep
		if n, ok := g.names[dep]; ok && n != "" {
			name = n
		}
		out = append(out, g.scenario(f, models.ScenarioIntegration,
			fmt.Sprintf("%s integrates with %s", f.Name, name),
			fmt.Sprintf("%s relies on %s", f.Name, name),
			ConfidenceIntegration,
			fmt.Sprintf("%s is available", name),
			[]string{fmt.Sprintf("the %s uses %s", actor, f.Name)},
			[]string{fmt.Sprintf("data is exchanged correctly with %s", name)},
		))
	}
	return out
}

// scenario builds a Given/When/Then scenario; extra whens and thens become And steps.
func (g *Generator) scenario(f models.Feature, kind models.ScenarioKind, name, description string, confidence float64, given string, whens, thens []string) models.Scenario {
	var steps stepList
	steps.add(models.KeywordGiven, given)
	for i, w := range whens {
		if i == 0 {
			steps.add(models.KeywordWhen, w)
		} else {
			steps.add(models.KeywordAnd, w)
		}
	}
	for i, t := range thens {
		if i == 0 {
			steps.add(models.KeywordThen, t)
		} else {
			steps.add(models.KeywordAnd, t)
		}
	}
	return models.Scenario{
		Name:        name,
		Description: description,
		Tags:        g.tags(f, kind),
		Steps:       steps,
		Kind:        kind,
		Source:      models.SourceGenerated,
		Confidence:  confidence,
	}
}

func (g *Generator) tags(f models.Feature, kind models.ScenarioKind) []string {
	tags := []string{kind.Tag(), "@priority-" + string(f.Priority)}
	for _, t := range f.Tags() {
		tags = models.AppendUnique(tags, "@"+t)
	}
	return tags
}

// Deduplicate drops scenarios whose name and step texts repeat an earlier one.
func Deduplicate(in []models.Scenario) []models.Scenario {
	seen := make(map[uint64][]string, len(in))
	out := make([]models.Scenario, 0, len(in))
	for _, s := range in {
		key := s.Key()
		h := xxhash.Sum64String(key)
		dup := false
		for _, k := range seen[h] {
			if k == key {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		seen[h] = append(seen[h], key)
		out = append(out, s)
	}
	return out
}

// Rank orders scenarios by kind precedence, then descending confidence,
// then name.
func Rank(s []models.Scenario) {
	sort.SliceStable(s, func(i, j int) bool {
		pi, pj := s[i].Kind.Precedence(), s[j].Kind.Precedence()
		if pi != pj {
			return pi < pj
		}
		if s[i].Confidence != s[j].Confidence {
			return s[i].Confidence > s[j].Confidence
		}
		return s[i].Name < s[j].Name
	})
}

type stepList []models.Step

func (s *stepList) add(kw models.StepKeyword, text string) {
	*s = append(*s, models.Step{Keyword: kw, Text: text, Order: len(*s) + 1})
}

func primaryActor(f models.Feature) string {
	if actors := f.Actors(); len(actors) > 0 {
		return actors[0]
	}
	return defaultActor
}

func orDefault(actor string) string {
	if actor == "" {
		return defaultActor
	}
	return actor
}

func containsAny(s string, words []string) bool {
	lower := strings.ToLower(s)
	for _, w := range words {
		if w != "" && strings.Contains(lower, strings.ToLower(w)) {
			return true
		}
	}
	return false
}
