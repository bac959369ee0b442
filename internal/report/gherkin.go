package report

import (
	"fmt"
	"strings"

	"github.com/panbanda/reqbdd/pkg/models"
)

// FeatureFile renders a feature and its scenarios as Gherkin text.
func FeatureFile(f models.Feature, scenarios []models.Scenario) string {
	var b strings.Builder

	tags := []string{"@" + f.ID, "@priority-" + string(f.Priority), "@" + string(f.Complexity)}
	for _, t := range f.Tags() {
		tags = append(tags, "@"+t)
	}
	fmt.Fprintln(&b, strings.Join(tags, " "))
	fmt.Fprintf(&b, "Feature: %s\n", f.Name)
	for _, line := range strings.Split(strings.TrimSpace(f.Description), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			fmt.Fprintf(&b, "  %s\n", line)
		}
	}

	for _, s := range scenarios {
		fmt.Fprintln(&b)
		if len(s.Tags) > 0 {
			fmt.Fprintf(&b, "  %s\n", strings.Join(s.Tags, " "))
		}
		fmt.Fprintf(&b, "  Scenario: %s\n", s.Name)
		for _, st := range s.Steps {
			fmt.Fprintf(&b, "    %s %s\n", st.Keyword, st.Text)
		}
	}
	return b.String()
}

// Slug converts a name into a lowercase, dash-separated file name.
func Slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	s := strings.TrimSuffix(b.String(), "-")
	if len(s) > 60 {
		s = strings.TrimSuffix(s[:60], "-")
	}
	if s == "" {
		return "untitled"
	}
	return s
}
