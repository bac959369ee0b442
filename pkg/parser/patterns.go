package parser

import (
	"regexp"

	"github.com/panbanda/reqbdd/pkg/config"
)

// compiled holds the pattern table after compilation.
type compiled struct {
	title           *regexp.Regexp
	version         *regexp.Regexp
	author          *regexp.Regexp
	userStory       *regexp.Regexp
	featureInline   *regexp.Regexp
	featureHeading  *regexp.Regexp
	heading         *regexp.Regexp
	bullet          *regexp.Regexp
	bareRequirement *regexp.Regexp
	priorityToken   *regexp.Regexp
	priorityLine    *regexp.Regexp
	dependsOn       *regexp.Regexp
	criteriaHeading *regexp.Regexp
	gherkinStep     *regexp.Regexp
	tag             *regexp.Regexp
}

// compile builds the pattern table. An empty entry falls back to the default
// pattern, since an empty expression would match every line.
func compile(pc config.PatternConfig) (*compiled, error) {
	def := config.DefaultPatterns()
	c := &compiled{}

	table := []struct {
		name string
		expr string
		fall string
		dst  **regexp.Regexp
	}{
		{"title", pc.Title, def.Title, &c.title},
		{"version", pc.Version, def.Version, &c.version},
		{"author", pc.Author, def.Author, &c.author},
		{"user_story", pc.UserStory, def.UserStory, &c.userStory},
		{"feature_inline", pc.FeatureInline, def.FeatureInline, &c.featureInline},
		{"feature_heading", pc.FeatureHeading, def.FeatureHeading, &c.featureHeading},
		{"heading", pc.Heading, def.Heading, &c.heading},
		{"bullet", pc.Bullet, def.Bullet, &c.bullet},
		{"bare_requirement", pc.BareRequirement, def.BareRequirement, &c.bareRequirement},
		{"priority_token", pc.PriorityToken, def.PriorityToken, &c.priorityToken},
		{"priority_line", pc.PriorityLine, def.PriorityLine, &c.priorityLine},
		{"depends_on", pc.DependsOn, def.DependsOn, &c.dependsOn},
		{"criteria_heading", pc.CriteriaHeading, def.CriteriaHeading, &c.criteriaHeading},
		{"gherkin_step", pc.GherkinStep, def.GherkinStep, &c.gherkinStep},
		{"tag", pc.Tag, def.Tag, &c.tag},
	}

	for _, entry := range table {
		expr := entry.expr
		if expr == "" {
			expr = entry.fall
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, &PatternError{Name: entry.name, Pattern: expr, Err: err}
		}
		*entry.dst = re
	}
	return c, nil
}
