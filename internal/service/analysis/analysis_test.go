package analysis

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/panbanda/reqbdd/internal/cache"
	"github.com/panbanda/reqbdd/pkg/config"
	"github.com/panbanda/reqbdd/pkg/models"
	"github.com/panbanda/reqbdd/pkg/parser"
)

const loginExample = "As a user, I want to login so that I can access my account.\n" +
	"- Rate limiting: must block after 5 failed attempts [high]"

const shopDoc = `# Online Shop

Requirements for the storefront.

Version: 2.1.0

## Feature: Checkout
Customers pay for the items in their cart.
Depends on: Product Catalog
- Given a cart with items
- When the customer pays
- Then an order is created

## Feature: Product Catalog
Customers browse products.
- Products are listed by category

## Feature: Payments Gateway
Depends on: Checkout
- Card payments are authorized
`

func newService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	svc, err := New(opts...)
	require.NoError(t, err)
	return svc
}

func TestNew(t *testing.T) {
	svc := newService(t)
	assert.NotNil(t, svc.Config())
	assert.NotNil(t, svc.logger)

	cfg := config.DefaultConfig()
	svc = newService(t, WithConfig(cfg))
	assert.Same(t, cfg, svc.Config())
}

func TestNewInvalidPattern(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Patterns.UserStory = "(unclosed"

	_, err := New(WithConfig(cfg))
	var pe *parser.PatternError
	require.True(t, errors.As(err, &pe), "got %v", err)
	assert.Equal(t, "user_story", pe.Name)
}

func TestAnalyze_EndToEndExample(t *testing.T) {
	rep, err := newService(t).Analyze(loginExample, models.DefaultGenerateOptions())
	require.NoError(t, err)

	doc := rep.Document
	assert.Equal(t, 1, doc.CountKind(models.KindUserStory))
	assert.Equal(t, 1, doc.CountKind(models.KindRequirement))
	for _, r := range doc.Requirements {
		if r.Kind == models.KindRequirement {
			assert.Equal(t, models.PriorityHigh, r.Priority)
		}
	}

	require.NotEmpty(t, rep.Features)
	assert.LessOrEqual(t, len(rep.Features), 2)
	for _, f := range rep.Features {
		var happy, network, invalid bool
		for _, s := range rep.ScenariosFor(f.ID) {
			switch {
			case s.Kind == models.ScenarioHappyPath:
				happy = true
			case strings.Contains(s.Name, "network failure"):
				network = true
			case strings.Contains(s.Name, "invalid input"):
				invalid = true
			}
		}
		assert.True(t, happy, "%s has no happy path", f.ID)
		assert.True(t, network, "%s has no network failure scenario", f.ID)
		assert.True(t, invalid, "%s has no invalid input scenario", f.ID)
	}

	assert.Equal(t, len(rep.Features), rep.Summary.TotalFeatures)
	assert.Equal(t, 2, rep.Summary.TotalRequirements)
	assert.Equal(t, 1, rep.Summary.UserStories)
	assert.Equal(t, models.DefaultGenerateOptions(), rep.Options)
	assert.Len(t, rep.ImplementationOrder, len(rep.Features))
}

func TestAnalyze_Idempotent(t *testing.T) {
	svc := newService(t)
	opts := models.DefaultGenerateOptions()

	first, err := svc.Analyze(shopDoc, opts)
	require.NoError(t, err)
	second, err := svc.Analyze(shopDoc, opts)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := newService(t).Analyze(shopDoc, opts)
	require.NoError(t, err)
	assert.Equal(t, first, other)
}

func TestAnalyze_StageHook(t *testing.T) {
	var stages []string
	svc := newService(t, WithStageHook(func(name string) { stages = append(stages, name) }))

	_, err := svc.Analyze(loginExample, models.DefaultGenerateOptions())
	require.NoError(t, err)
	assert.Equal(t, []string{"parsing", "extracting features", "generating scenarios", "validating"}, stages)

	stages = nil
	_, err = svc.Analyze(loginExample, models.GenerateOptions{})
	require.Error(t, err)
	assert.Empty(t, stages)
}

func TestAnalyze_InvalidOptionsFailFast(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	svc := newService(t, WithLogger(logger))

	opts := models.DefaultGenerateOptions()
	opts.DetailLevel = "exhaustive"

	rep, err := svc.Analyze(shopDoc, opts)
	assert.Nil(t, rep)
	var oe *models.OptionsError
	require.True(t, errors.As(err, &oe), "got %v", err)
	assert.Equal(t, "DetailLevel", oe.Field)
	assert.Empty(t, logs.String(), "no stage should run")
}

func TestAnalyze_DependenciesAndOrder(t *testing.T) {
	rep, err := newService(t).Analyze(shopDoc, models.DefaultGenerateOptions())
	require.NoError(t, err)

	ids := map[string]string{}
	for _, f := range rep.Features {
		ids[f.Name] = f.ID
	}
	require.Contains(t, ids, "Checkout")
	require.Contains(t, ids, "Product Catalog")
	require.Contains(t, ids, "Payments Gateway")

	pos := map[string]int{}
	for i, id := range rep.ImplementationOrder {
		pos[id] = i
	}
	assert.Less(t, pos[ids["Product Catalog"]], pos[ids["Checkout"]])
	assert.Less(t, pos[ids["Checkout"]], pos[ids["Payments Gateway"]])

	var integration []string
	for _, s := range rep.ScenariosFor(ids["Checkout"]) {
		if s.Kind == models.ScenarioIntegration {
			integration = append(integration, s.Name)
		}
	}
	assert.Equal(t, []string{"Checkout integrates with Product Catalog"}, integration)
	assert.Equal(t, "2.1.0", rep.Document.Version)
}

func TestAnalyze_CycleClearsOrder(t *testing.T) {
	doc := `# Cycle

## Feature: Alpha
Depends on: Beta
- Alpha reports are exported

## Feature: Beta
Depends on: Gamma
- Beta invoices are emailed

## Feature: Gamma
Depends on: Alpha
- Gamma audits are archived
`
	rep, err := newService(t).Analyze(doc, models.DefaultGenerateOptions())
	require.NoError(t, err)

	assert.Empty(t, rep.ImplementationOrder)
	assert.NotNil(t, rep.ImplementationOrder)
	require.Len(t, rep.Validation.Cycles, 1)

	var found bool
	for _, w := range rep.Validation.Warnings {
		if strings.HasPrefix(w, "Circular dependency detected") {
			found = true
		}
	}
	assert.True(t, found, "warnings: %v", rep.Validation.Warnings)
}

func TestAnalyze_EmptyText(t *testing.T) {
	rep, err := newService(t).Analyze("", models.DefaultGenerateOptions())
	require.NoError(t, err)

	assert.Empty(t, rep.Features)
	assert.Equal(t, 0, rep.Summary.TotalScenarios)
	assert.Equal(t, 100, rep.Validation.Score)
	assert.True(t, rep.Validation.IsValid)
	assert.Contains(t, rep.Recommendations[0], "No user stories found")
}

func TestAnalyze_Cache(t *testing.T) {
	c, err := cache.New(config.CacheConfig{Enabled: true, Dir: t.TempDir()})
	require.NoError(t, err)
	svc := newService(t, WithCache(c))
	opts := models.DefaultGenerateOptions()

	first, err := svc.Analyze(loginExample, opts)
	require.NoError(t, err)

	cached, ok := c.Get(cache.Key(loginExample, opts, svc.Config()))
	require.True(t, ok, "report should be cached")
	assert.Equal(t, first, cached)

	second, err := svc.Analyze(loginExample, opts)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAnalyzeFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.md")
	b := filepath.Join(dir, "b.md")
	require.NoError(t, os.WriteFile(a, []byte("As a user, I want to login so that I can access my account.\n"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("- Rate limiting: must block after 5 failed attempts [high]\n"), 0o644))

	svc := newService(t)
	opts := models.DefaultGenerateOptions()

	var ticks atomic.Int32
	fromFiles, err := svc.AnalyzeFiles(context.Background(), []string{a, b}, opts, func() { ticks.Add(1) })
	require.NoError(t, err)
	assert.Equal(t, int32(2), ticks.Load())

	fromText, err := svc.Analyze(loginExample, opts)
	require.NoError(t, err)
	assert.Equal(t, fromText.Summary.TotalRequirements, fromFiles.Summary.TotalRequirements)
	assert.Equal(t, fromText.Summary.UserStories, fromFiles.Summary.UserStories)
	assert.Equal(t, fromText.Summary.TotalFeatures, fromFiles.Summary.TotalFeatures)
}

func TestAnalyzeFiles_NotFound(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "present.md")
	require.NoError(t, os.WriteFile(present, []byte("# Doc\n"), 0o644))
	missing := filepath.Join(dir, "missing.md")

	_, err := newService(t).AnalyzeFiles(context.Background(), []string{present, missing}, models.DefaultGenerateOptions(), nil)
	var nf *parser.NotFoundError
	require.True(t, errors.As(err, &nf), "got %v", err)
	assert.Equal(t, missing, nf.Path)
}

func TestParseExtractGenerate(t *testing.T) {
	svc := newService(t)
	doc := svc.Parse(loginExample)
	feats := svc.Extract(doc)
	require.NotEmpty(t, feats)

	got, err := svc.Generate(feats[0], models.DefaultGenerateOptions())
	require.NoError(t, err)
	assert.NotEmpty(t, got)

	_, err = svc.Generate(feats[0], models.GenerateOptions{DetailLevel: models.DetailBasic})
	assert.Error(t, err, "MaxScenariosPerFlow 0 is invalid")
}
