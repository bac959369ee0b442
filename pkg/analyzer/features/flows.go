package features

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/panbanda/reqbdd/pkg/models"
)

var (
	stepKeyword   = regexp.MustCompile(`(?i)\b(?:given|when|then|and)\b`)
	sentenceBreak = regexp.MustCompile(`[.;!?]+\s*|,\s+`)
	firstPerson   = map[string]string{
		"i": "they", "me": "them", "my": "their", "mine": "theirs",
		"myself": "themselves", "i'm": "they're", "i've": "they've",
		"we": "they", "us": "them", "our": "their",
	}
)

// userFlows derives flows from the member user stories first, then from
// every acceptance criterion that splits into at least two steps.
func userFlows(featureID string, members []models.Requirement) []models.UserFlow {
	flows := []models.UserFlow{}
	next := func() string {
		return fmt.Sprintf("%s-FLOW-%02d", featureID, len(flows)+1)
	}

	for _, r := range members {
		if r.Kind != models.KindUserStory || r.Actor == "" || r.Goal == "" {
			continue
		}
		flows = append(flows, models.UserFlow{
			ID:          next(),
			Name:        capitalize(r.Goal),
			Description: r.Description,
			Steps:       storySteps(r),
			Actor:       r.Actor,
			Source:      models.SourceUserStory,
		})
	}

	for _, r := range members {
		for _, criterion := range r.AcceptanceCriteria {
			steps := SplitSteps(criterion)
			if len(steps) < 2 {
				continue
			}
			flows = append(flows, models.UserFlow{
				ID:          next(),
				Name:        truncate(criterion, 60),
				Description: criterion,
				Steps:       steps,
				Actor:       r.Actor,
				Source:      models.SourceAcceptanceCriteria,
			})
		}
	}
	return flows
}

func storySteps(r models.Requirement) []string {
	outcome := fmt.Sprintf("the %s is able to %s", r.Actor, r.Goal)
	if r.Value != "" {
		outcome = thirdPerson(r.Value)
	}
	return []string{
		fmt.Sprintf("the %s starts to %s", r.Actor, r.Goal),
		fmt.Sprintf("the %s provides the required information", r.Actor),
		fmt.Sprintf("the %s confirms the action", r.Actor),
		outcome,
	}
}

// SplitSteps splits a criterion into step phrases on Given/When/Then/And.
// Text without any of those keywords is split on sentence punctuation.
func SplitSteps(criterion string) []string {
	var parts []string
	if stepKeyword.MatchString(criterion) {
		parts = stepKeyword.Split(criterion, -1)
	} else {
		parts = sentenceBreak.Split(criterion, -1)
	}

	steps := []string{}
	for _, p := range parts {
		p = strings.Trim(strings.TrimSpace(p), ",.;:")
		if p != "" {
			steps = append(steps, p)
		}
	}
	return steps
}

// thirdPerson rewrites first-person pronouns so the phrase reads as an observed outcome.
func thirdPerson(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if repl, ok := firstPerson[strings.ToLower(w)]; ok {
			words[i] = repl
		}
	}
	return strings.Join(words, " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n-3])) + "..."
}
