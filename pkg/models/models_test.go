package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	toon "github.com/toon-format/toon-go"
)

func TestPriority(t *testing.T) {
	tests := []struct {
		input  string
		want   Priority
		wantOK bool
	}{
		{"high", PriorityHigh, true},
		{" Medium ", PriorityMedium, true},
		{"LOW", PriorityLow, true},
		{"urgent", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParsePriority(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}

	assert.Equal(t, PriorityHigh, MaxPriority(PriorityLow, PriorityHigh))
	assert.Equal(t, PriorityMedium, MaxPriority(PriorityMedium, PriorityLow))
	assert.Equal(t, PriorityMedium, MaxPriority("", PriorityMedium))
	assert.Greater(t, PriorityHigh.Rank(), PriorityMedium.Rank())
	assert.Zero(t, Priority("bogus").Rank())
}

func TestScenarioKindPrecedence(t *testing.T) {
	for i := 1; i < len(AllScenarioKinds); i++ {
		assert.Less(t, AllScenarioKinds[i-1].Precedence(), AllScenarioKinds[i].Precedence())
	}
	assert.Equal(t, "@edge-case", ScenarioEdgeCase.Tag())
}

func TestScenarioKey(t *testing.T) {
	a := Scenario{Name: "Pay", Steps: []Step{{Keyword: KeywordGiven, Text: "a cart"}, {Keyword: KeywordWhen, Text: "paying"}}}
	b := Scenario{Name: "Pay", Steps: []Step{{Keyword: KeywordAnd, Text: "a cart"}, {Keyword: KeywordThen, Text: "paying"}}, Kind: ScenarioEdgeCase}
	c := Scenario{Name: "Pay", Steps: []Step{{Keyword: KeywordGiven, Text: "a cart"}}}

	assert.Equal(t, a.Key(), b.Key(), "keywords and kind do not affect the key")
	assert.NotEqual(t, a.Key(), c.Key())
}

func TestGenerateOptionsValidate(t *testing.T) {
	require.NoError(t, DefaultGenerateOptions().Validate())

	tests := []struct {
		name  string
		edit  func(o *GenerateOptions)
		field string
	}{
		{"unknown detail level", func(o *GenerateOptions) { o.DetailLevel = "verbose" }, "DetailLevel"},
		{"empty detail level", func(o *GenerateOptions) { o.DetailLevel = "" }, "DetailLevel"},
		{"zero scenarios per flow", func(o *GenerateOptions) { o.MaxScenariosPerFlow = 0 }, "MaxScenariosPerFlow"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultGenerateOptions()
			tt.edit(&opts)

			err := opts.Validate()
			var oe *OptionsError
			require.True(t, errors.As(err, &oe), "got %v", err)
			assert.Equal(t, tt.field, oe.Field)
			assert.Contains(t, err.Error(), "invalid options: "+tt.field)
		})
	}
}

func TestBuildMetadata(t *testing.T) {
	meta := BuildMetadata("Ana", []Requirement{
		{Kind: KindUserStory, Priority: PriorityHigh},
		{Kind: KindUserStory, Priority: PriorityMedium},
		{Kind: KindAcceptanceCriterion, Priority: PriorityMedium},
	})

	assert.Equal(t, "Ana", meta.Author)
	assert.Equal(t, 2, meta.ByKind[KindUserStory])
	assert.Equal(t, 0, meta.ByKind[KindFeature])
	assert.Len(t, meta.ByKind, len(AllKinds))
	assert.Equal(t, 2, meta.ByPriority[PriorityMedium])
	assert.Len(t, meta.ByPriority, len(AllPriorities))
}

func TestParsedDocumentLookup(t *testing.T) {
	doc := ParsedDocument{Requirements: []Requirement{
		{ID: "REQ-001", Kind: KindFeature},
		{ID: "REQ-002", Kind: KindAcceptanceCriterion},
		{ID: "REQ-003", Kind: KindAcceptanceCriterion},
	}}

	r, ok := doc.Requirement("REQ-002")
	require.True(t, ok)
	assert.Equal(t, KindAcceptanceCriterion, r.Kind)

	_, ok = doc.Requirement("REQ-009")
	assert.False(t, ok)
	assert.Equal(t, 2, doc.CountKind(KindAcceptanceCriterion))
}

func TestFeatureAggregates(t *testing.T) {
	f := Feature{Requirements: []Requirement{
		{Actor: "shopper", Tags: []string{"cart"}, AcceptanceCriteria: []string{"a", "b"}},
		{Actor: "", Tags: []string{"cart", "pay"}, AcceptanceCriteria: []string{"c"}, Dependencies: []string{"REQ-001"}},
		{Actor: "shopper"},
	}}

	assert.Equal(t, []string{"a", "b", "c"}, f.AcceptanceCriteria())
	assert.Equal(t, []string{"shopper"}, f.Actors())
	assert.Equal(t, []string{"cart", "pay"}, f.Tags())
	assert.True(t, f.HasDependencies())
	assert.False(t, (&Feature{}).HasDependencies())
}

func TestAppendUnique(t *testing.T) {
	got := AppendUnique([]string{"a"}, "b", "a", "", "b", "c")
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Nil(t, AppendUnique(nil, ""))
}

func TestAnalysisReportLookup(t *testing.T) {
	rep := AnalysisReport{
		Features:  []Feature{{ID: "FEAT-001", Name: "Checkout"}},
		Scenarios: map[string][]Scenario{"FEAT-001": {{Name: "Pay"}}},
	}

	f, ok := rep.Feature("FEAT-001")
	require.True(t, ok)
	assert.Equal(t, "Checkout", f.Name)
	_, ok = rep.Feature("FEAT-002")
	assert.False(t, ok)

	assert.Len(t, rep.ScenariosFor("FEAT-001"), 1)
	assert.Empty(t, rep.ScenariosFor("FEAT-002"))
}

func TestStringerMethods(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"RequirementKind", KindUserStory.String(), "user-story"},
		{"Priority", PriorityLow.String(), "low"},
		{"Complexity", ComplexityComplex.String(), "complex"},
		{"ScenarioKind", ScenarioIntegration.String(), "integration"},
		{"ScenarioSource", SourceAcceptanceCriteria.String(), "acceptance-criteria"},
		{"StepKeyword", KeywordThen.String(), "Then"},
		{"DetailLevel", DetailDetailed.String(), "detailed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

// TestReportSerializes ensures the report's custom string types encode in every structured format.
func TestReportSerializes(t *testing.T) {
	rep := AnalysisReport{
		Document: ParsedDocument{
			Title:        "Shop",
			Requirements: []Requirement{{ID: "REQ-001", Kind: KindUserStory, Priority: PriorityHigh}},
			Metadata:     BuildMetadata("", nil),
		},
		Features: []Feature{{ID: "FEAT-001", Priority: PriorityHigh, Complexity: ComplexitySimple}},
		Scenarios: map[string][]Scenario{"FEAT-001": {{
			Name:   "Pay",
			Steps:  []Step{{Keyword: KeywordGiven, Text: "a cart", Order: 1}},
			Kind:   ScenarioHappyPath,
			Source: SourceUserStory,
		}}},
		Options: DefaultGenerateOptions(),
	}

	data, err := json.Marshal(rep)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kind":"happy-path"`)
	assert.Contains(t, string(data), `"detail_level":"standard"`)

	out, err := toon.Marshal(rep, toon.WithIndent(2))
	require.NoError(t, err)
	assert.True(t, bytes.Contains(out, []byte("FEAT-001")))
}
