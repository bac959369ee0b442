package models

import "strings"

// RequirementKind classifies a parsed requirement record.
type RequirementKind string

const (
	KindUserStory           RequirementKind = "user-story"
	KindFeature             RequirementKind = "feature"
	KindRequirement         RequirementKind = "requirement"
	KindAcceptanceCriterion RequirementKind = "acceptance-criterion"
)

// AllKinds lists requirement kinds in reporting order.
var AllKinds = []RequirementKind{
	KindUserStory,
	KindFeature,
	KindRequirement,
	KindAcceptanceCriterion,
}

// Priority is the relative importance of a requirement or feature.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// AllPriorities lists priorities from most to least important.
var AllPriorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// Rank orders priorities so that higher is more important.
// Unknown priorities rank below low.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// ParsePriority converts a label such as "High" into a Priority.
func ParsePriority(s string) (Priority, bool) {
	switch Priority(strings.ToLower(strings.TrimSpace(s))) {
	case PriorityHigh:
		return PriorityHigh, true
	case PriorityMedium:
		return PriorityMedium, true
	case PriorityLow:
		return PriorityLow, true
	}
	return "", false
}

// MaxPriority returns the more important of two priorities.
func MaxPriority(a, b Priority) Priority {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// Requirement is a single typed record extracted from requirement text.
type Requirement struct {
	ID                 string          `json:"id" toon:"id"`
	Title              string          `json:"title" toon:"title"`
	Description        string          `json:"description" toon:"description"`
	Kind               RequirementKind `json:"kind" toon:"kind"`
	Priority           Priority        `json:"priority" toon:"priority"`
	Actor              string          `json:"actor,omitempty" toon:"actor,omitempty"`
	Goal               string          `json:"goal,omitempty" toon:"goal,omitempty"`
	Value              string          `json:"value,omitempty" toon:"value,omitempty"`
	AcceptanceCriteria []string        `json:"acceptance_criteria" toon:"acceptance_criteria"`
	Dependencies       []string        `json:"dependencies" toon:"dependencies"`
	Tags               []string        `json:"tags" toon:"tags"`
	// ParentID links an acceptance-criterion record to the requirement it refines.
	ParentID string `json:"parent_id,omitempty" toon:"parent_id,omitempty"`
}

// DocumentMetadata holds per-document counts and header fields.
type DocumentMetadata struct {
	Author     string                  `json:"author,omitempty" toon:"author,omitempty"`
	ByKind     map[RequirementKind]int `json:"by_kind" toon:"by_kind"`
	ByPriority map[Priority]int        `json:"by_priority" toon:"by_priority"`
}

// ParsedDocument is the output of one parse call. It is not modified after creation.
type ParsedDocument struct {
	Title        string           `json:"title" toon:"title"`
	Description  string           `json:"description" toon:"description"`
	Version      string           `json:"version" toon:"version"`
	Requirements []Requirement    `json:"requirements" toon:"requirements"`
	Metadata     DocumentMetadata `json:"metadata" toon:"metadata"`
}

// Requirement looks up a requirement by ID.
func (d *ParsedDocument) Requirement(id string) (Requirement, bool) {
	for _, r := range d.Requirements {
		if r.ID == id {
			return r, true
		}
	}
	return Requirement{}, false
}

// CountKind returns how many requirements have the given kind.
func (d *ParsedDocument) CountKind(kind RequirementKind) int {
	n := 0
	for _, r := range d.Requirements {
		if r.Kind == kind {
			n++
		}
	}
	return n
}

// BuildMetadata computes kind and priority counts for the given requirements.
func BuildMetadata(author string, reqs []Requirement) DocumentMetadata {
	meta := DocumentMetadata{
		Author:     author,
		ByKind:     make(map[RequirementKind]int, len(AllKinds)),
		ByPriority: make(map[Priority]int, len(AllPriorities)),
	}
	for _, k := range AllKinds {
		meta.ByKind[k] = 0
	}
	for _, p := range AllPriorities {
		meta.ByPriority[p] = 0
	}
	for _, r := range reqs {
		meta.ByKind[r.Kind]++
		meta.ByPriority[r.Priority]++
	}
	return meta
}

// AppendUnique appends values that are not yet present, keeping first-seen order.
// Empty strings are skipped.
func AppendUnique(dst []string, values ...string) []string {
	for _, v := range values {
		if v == "" || contains(dst, v) {
			continue
		}
		dst = append(dst, v)
	}
	return dst
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
