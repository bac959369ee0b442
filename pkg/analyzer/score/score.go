// Package score validates a requirement document and its features and turns
// the defects it finds into a 0-100 quality score.
package score

import (
	"fmt"
	"strings"

	"github.com/panbanda/reqbdd/pkg/analyzer/graph"
	"github.com/panbanda/reqbdd/pkg/config"
	"github.com/panbanda/reqbdd/pkg/models"
)

// MaxScore is the score of a document without defects.
const MaxScore = 100

// Validator runs the structural checks.
// This validator is safe for concurrent use.
type Validator struct {
	penalties       config.PenaltyConfig
	maxRequirements int
}

// Option configures the Validator.
type Option func(*Validator)

// WithPenalties sets the score deduction per defect.
func WithPenalties(p config.PenaltyConfig) Option {
	return func(v *Validator) {
		v.penalties = p
	}
}

// WithMaxFeatureRequirements sets the size above which a feature is oversized.
func WithMaxFeatureRequirements(n int) Option {
	return func(v *Validator) {
		v.maxRequirements = n
	}
}

// New creates a validator with the default penalties.
func New(opts ...Option) *Validator {
	v := &Validator{
		penalties:       config.DefaultPenalties(),
		maxRequirements: config.DefaultConfig().Rules.MaxFeatureRequirements,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate checks the document and features. Every failed check instance
// deducts its penalty from MaxScore; the score never drops below 0.
func (v *Validator) Validate(doc *models.ParsedDocument, features []models.Feature) models.ValidationResult {
	defects, cycles := v.Defects(doc, features)

	result := models.ValidationResult{
		Errors:   []string{},
		Warnings: []string{},
		Score:    MaxScore,
		Cycles:   cycles,
	}
	for _, d := range defects {
		if d.Check.Severity() == SeverityError {
			result.Errors = append(result.Errors, d.Message)
		} else {
			result.Warnings = append(result.Warnings, d.Message)
		}
		result.Score -= d.Penalty
	}
	result.Score = max(result.Score, 0)
	result.IsValid = len(result.Errors) == 0
	return result
}

// Defects runs every check in order and returns the failed instances along
// with the dependency cycles found.
func (v *Validator) Defects(doc *models.ParsedDocument, features []models.Feature) ([]Defect, [][]string) {
	var defects []Defect
	defects = append(defects, v.duplicateIDs(doc)...)
	defects = append(defects, v.emptyFields(doc)...)
	defects = append(defects, v.orphanedCriteria(doc)...)
	defects = append(defects, v.oversizedFeatures(features)...)
	defects = append(defects, v.undefinedActors(features)...)

	cycles := graph.DetectCycles(graph.FromFeatures(features))
	for _, c := range cycles {
		path := append(append([]string(nil), c...), c[0])
		defects = append(defects, Defect{
			Check:   CheckCircularDependency,
			Message: fmt.Sprintf("Circular dependency detected: %s", strings.Join(path, " -> ")),
			Penalty: v.penalties.CircularDependency,
		})
	}
	return defects, cycles
}

func (v *Validator) duplicateIDs(doc *models.ParsedDocument) []Defect {
	counts := make(map[string]int, len(doc.Requirements))
	var order []string
	for _, r := range doc.Requirements {
		if counts[r.ID] == 0 {
			order = append(order, r.ID)
		}
		counts[r.ID]++
	}

	var out []Defect
	for _, id := range order {
		if counts[id] < 2 {
			continue
		}
		out = append(out, Defect{
			Check:   CheckDuplicateID,
			Message: fmt.Sprintf("Duplicate requirement ID %s (%d occurrences)", id, counts[id]),
			Penalty: v.penalties.DuplicateID,
		})
	}
	return out
}

func (v *Validator) emptyFields(doc *models.ParsedDocument) []Defect {
	var out []Defect
	for _, r := range doc.Requirements {
		if strings.TrimSpace(r.Title) == "" {
			out = append(out, Defect{
				Check:   CheckEmptyField,
				Message: fmt.Sprintf("Requirement %s has an empty title", r.ID),
				Penalty: v.penalties.EmptyField,
			})
		}
		if strings.TrimSpace(r.Description) == "" {
			out = append(out, Defect{
				Check:   CheckEmptyField,
				Message: fmt.Sprintf("Requirement %s has an empty description", r.ID),
				Penalty: v.penalties.EmptyField,
			})
		}
	}
	return out
}

// orphanedCriteria flags acceptance criteria whose parent is missing or is
// not a requirement that can own criteria.
func (v *Validator) orphanedCriteria(doc *models.ParsedDocument) []Defect {
	var out []Defect
	for _, r := range doc.Requirements {
		if r.Kind != models.KindAcceptanceCriterion {
			continue
		}
		if parent, ok := doc.Requirement(r.ParentID); ok && parent.Kind != models.KindAcceptanceCriterion {
			continue
		}
		out = append(out, Defect{
			Check:   CheckOrphanedCriterion,
			Message: fmt.Sprintf("Acceptance criterion %s is not linked to a parent requirement", r.ID),
			Penalty: v.penalties.OrphanedCriterion,
		})
	}
	return out
}

func (v *Validator) oversizedFeatures(features []models.Feature) []Defect {
	var out []Defect
	for _, f := range features {
		if len(f.Requirements) <= v.maxRequirements {
			continue
		}
		out = append(out, Defect{
			Check: CheckOversizedFeature,
			Message: fmt.Sprintf("Feature %s (%s) has %d requirements, more than %d; consider splitting it",
				f.ID, f.Name, len(f.Requirements), v.maxRequirements),
			Penalty: v.penalties.OversizedFeature,
		})
	}
	return out
}

func (v *Validator) undefinedActors(features []models.Feature) []Defect {
	var out []Defect
	for _, f := range features {
		defined := false
		for _, flow := range f.UserFlows {
			if strings.TrimSpace(flow.Actor) != "" {
				defined = true
				break
			}
		}
		if defined {
			continue
		}
		out = append(out, Defect{
			Check:   CheckUndefinedActor,
			Message: fmt.Sprintf("Feature %s (%s) has no user flow with a defined actor", f.ID, f.Name),
			Penalty: v.penalties.UndefinedActor,
		})
	}
	return out
}
