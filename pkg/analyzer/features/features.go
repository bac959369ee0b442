// Package features groups parsed requirements into features.
//
// Grouping runs in three passes over the document's requirements in order:
// explicit feature sections claim similar requirements, the remaining
// requirements are clustered by theme, and whatever is left becomes a
// single-requirement feature.
package features

import (
	"fmt"
	"sort"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/panbanda/reqbdd/pkg/config"
	"github.com/panbanda/reqbdd/pkg/models"
)

// Extractor groups requirements into features.
type Extractor struct {
	rules config.RulesConfig
	stop  map[string]bool
	title cases.Caser
}

// Option is a functional option for configuring Extractor.
type Option func(*Extractor)

// WithRules sets stop words, thresholds and sizing rules.
func WithRules(rules config.RulesConfig) Option {
	return func(e *Extractor) {
		e.rules = rules
	}
}

// New creates an extractor with the default rules.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		rules: config.DefaultConfig().Rules,
		title: cases.Title(language.English),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.stop = make(map[string]bool, len(e.rules.StopWords))
	for _, w := range e.rules.StopWords {
		for _, tok := range strings.Fields(normalize(w)) {
			e.stop[tok] = true
		}
	}
	return e
}

// Extract groups a document with the default rules.
func Extract(doc *models.ParsedDocument) []models.Feature {
	return New().Extract(doc)
}

// group is a feature under construction, identified by member indices.
type group struct {
	name        string
	description string
	members     []int
}

// Extract groups the document's requirements into features. Every requirement
// ends up in exactly one feature. Features are ordered by descending priority;
// ties keep discovery order.
func (e *Extractor) Extract(doc *models.ParsedDocument) []models.Feature {
	reqs := doc.Requirements
	if len(reqs) == 0 {
		return []models.Feature{}
	}

	kws := make([]Keywords, len(reqs))
	for i, r := range reqs {
		kws[i] = e.Keywords(r)
	}
	idx := newKeywordIndex(kws)
	claimed := roaring.New()

	groups := e.explicitGroups(reqs, kws, idx, claimed)
	groups = append(groups, e.thematicGroups(reqs, kws, idx, claimed)...)
	for i, r := range reqs {
		if claimed.Contains(uint32(i)) {
			continue
		}
		groups = append(groups, group{name: r.Title, description: r.Description, members: []int{i}})
	}

	owner := make(map[string]string, len(reqs))
	out := make([]models.Feature, len(groups))
	for gi, g := range groups {
		id := fmt.Sprintf("FEAT-%03d", gi+1)
		for _, m := range g.members {
			owner[reqs[m].ID] = id
		}
		out[gi] = e.build(id, g, reqs)
	}

	for i := range out {
		out[i].Dependencies = featureDependencies(out[i], owner)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority.Rank() > out[j].Priority.Rank()
	})
	return out
}

// explicitGroups seeds one group per feature-kind requirement. Any other
// requirement joins the first feature it is similar enough to.
func (e *Extractor) explicitGroups(reqs []models.Requirement, kws []Keywords, idx keywordIndex, claimed *roaring.Bitmap) []group {
	var groups []group
	var seeds []int
	for i, r := range reqs {
		if r.Kind != models.KindFeature {
			continue
		}
		claimed.Add(uint32(i))
		seeds = append(seeds, i)
		groups = append(groups, group{name: r.Title, description: r.Description, members: []int{i}})
	}
	if len(seeds) == 0 {
		return nil
	}

	for j := range reqs {
		if claimed.Contains(uint32(j)) {
			continue
		}
		rel := idx.related(kws[j])
		for gi, seed := range seeds {
			if !rel.Contains(uint32(seed)) {
				continue
			}
			if Similarity(kws[seed], kws[j]) > e.rules.ExplicitSimilarity {
				groups[gi].members = append(groups[gi].members, j)
				claimed.Add(uint32(j))
				break
			}
		}
	}
	return groups
}

// thematicGroups clusters unclaimed requirements around the first unclaimed
// requirement of each theme. A theme needs at least two members.
func (e *Extractor) thematicGroups(reqs []models.Requirement, kws []Keywords, idx keywordIndex, claimed *roaring.Bitmap) []group {
	var groups []group
	for i := range reqs {
		if claimed.Contains(uint32(i)) {
			continue
		}

		candidates := idx.related(kws[i])
		candidates.AndNot(claimed)
		candidates.Remove(uint32(i))

		members := []int{i}
		it := candidates.Iterator()
		for it.HasNext() {
			j := int(it.Next())
			if Similarity(kws[i], kws[j]) > e.rules.ThematicSimilarity {
				members = append(members, j)
			}
		}
		if len(members) < 2 {
			continue
		}

		for _, m := range members {
			claimed.Add(uint32(m))
		}
		label := e.themeLabel(reqs[i], kws[i])
		groups = append(groups, group{
			name:        e.title.String(label),
			description: fmt.Sprintf("Requirements related to %s", strings.ToLower(label)),
			members:     members,
		})
	}
	return groups
}

// themeLabel names a theme after its seed requirement.
func (e *Extractor) themeLabel(r models.Requirement, kws Keywords) string {
	switch {
	case r.Kind == models.KindUserStory && r.Goal != "":
		return strings.Fields(r.Goal)[0]
	case r.Kind == models.KindFeature:
		return r.Title
	}
	for _, w := range strings.Fields(strings.ToLower(r.Title)) {
		if kws.Contains(w) {
			return w
		}
	}
	if fields := strings.Fields(r.Title); len(fields) > 0 {
		return fields[0]
	}
	return "general"
}

func (e *Extractor) build(id string, g group, reqs []models.Requirement) models.Feature {
	members := make([]models.Requirement, len(g.members))
	priority := models.PriorityLow
	for i, m := range g.members {
		members[i] = reqs[m]
		priority = models.MaxPriority(priority, reqs[m].Priority)
	}

	f := models.Feature{
		ID:           id,
		Name:         g.name,
		Description:  g.description,
		Requirements: members,
		Dependencies: []string{},
		Priority:     priority,
		UserFlows:    userFlows(id, members),
	}
	f.Complexity = e.complexity(f)
	f.EstimatedScenarioCount = e.estimate(f)
	return f
}

// complexity is complex for large, dependent or multi-actor features,
// medium for mid-sized ones and simple otherwise.
func (e *Extractor) complexity(f models.Feature) models.Complexity {
	n := len(f.Requirements)
	switch {
	case n > e.rules.ComplexMemberCount, f.HasDependencies(), len(f.Actors()) > 1:
		return models.ComplexityComplex
	case n > e.rules.MediumMemberCount:
		return models.ComplexityMedium
	default:
		return models.ComplexitySimple
	}
}

func (e *Extractor) estimate(f models.Feature) int {
	count := len(f.Requirements)
	for _, flow := range f.UserFlows {
		if len(flow.Steps) > e.rules.FlowStepBonus {
			count++
		}
	}
	per := max(e.rules.CriteriaPerScenarioEstimate, 1)
	criteria := len(f.AcceptanceCriteria())
	count += (criteria + per - 1) / per
	return max(count, 1)
}

// featureDependencies maps member dependencies onto the features that own
// them. Names that resolve to no requirement are kept as written.
func featureDependencies(f models.Feature, owner map[string]string) []string {
	deps := []string{}
	for _, r := range f.Requirements {
		for _, dep := range r.Dependencies {
			if id, ok := owner[dep]; ok {
				if id != f.ID {
					deps = models.AppendUnique(deps, id)
				}
				continue
			}
			deps = models.AppendUnique(deps, dep)
		}
	}
	return deps
}
