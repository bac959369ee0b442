package report

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/panbanda/reqbdd/pkg/models"
)

// MarkdownFiles renders one Gherkin file per feature and one checklist
// document per scenario, keyed by slash-separated relative path.
func (r *Renderer) MarkdownFiles(rep *models.AnalysisReport) (map[string]string, error) {
	files := make(map[string]string)
	featureSlugs := newSlugSet()

	for _, f := range rep.Features {
		slug := featureSlugs.next(Slug(f.ID + " " + f.Name))
		scenarios := rep.ScenariosFor(f.ID)
		files[path.Join("features", slug+".feature")] = FeatureFile(f, scenarios)

		scenarioSlugs := newSlugSet()
		for _, s := range scenarios {
			doc, err := r.ScenarioMarkdown(f, s)
			if err != nil {
				return nil, err
			}
			name := scenarioSlugs.next(Slug(s.Name))
			files[path.Join("scenarios", slug, name+".md")] = doc
		}
	}

	summary, err := r.Markdown(rep)
	if err != nil {
		return nil, err
	}
	files["README.md"] = summary
	return files, nil
}

// MarkdownFiles renders the export file set with a fresh renderer.
func MarkdownFiles(rep *models.AnalysisReport) (map[string]string, error) {
	r, err := NewRenderer()
	if err != nil {
		return nil, err
	}
	return r.MarkdownFiles(rep)
}

// WriteFiles writes rendered files below dir and returns the written paths in order.
func WriteFiles(dir string, files map[string]string) ([]string, error) {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	written := make([]string, 0, len(names))
	for _, name := range names {
		dst := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return written, fmt.Errorf("create %s: %w", filepath.Dir(dst), err)
		}
		if err := os.WriteFile(dst, []byte(files[name]), 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", dst, err)
		}
		written = append(written, dst)
	}
	return written, nil
}

// slugSet suffixes repeated slugs with -2, -3, ...
type slugSet map[string]int

func newSlugSet() slugSet { return make(slugSet) }

func (s slugSet) next(slug string) string {
	s[slug]++
	if n := s[slug]; n > 1 {
		return fmt.Sprintf("%s-%d", slug, n)
	}
	return slug
}
