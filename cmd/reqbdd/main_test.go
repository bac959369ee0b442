package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/reqbdd/internal/report"
	"github.com/panbanda/reqbdd/pkg/config"
	"github.com/panbanda/reqbdd/pkg/models"
)

const checkoutDoc = `# Storefront

Version: 1.0.0

## Feature: Checkout
Customers pay for the items in their cart.
- Given a cart with items
- When the customer pays
- Then an order is created

As a customer, I want to save my card so that checkout is faster.
`

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

func runApp(t *testing.T, args ...string) error {
	t.Helper()
	app := newApp()
	app.Writer = os.Stderr
	return app.Run(append([]string{"reqbdd", "--no-color"}, args...))
}

// TestGetPaths verifies path handling from CLI arguments.
func TestGetPaths(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "no args defaults to current dir",
			args:     []string{},
			expected: []string{"."},
		},
		{
			name:     "single path",
			args:     []string{"/foo/bar"},
			expected: []string{"/foo/bar"},
		},
		{
			name:     "multiple paths",
			args:     []string{"/foo", "/bar"},
			expected: []string{"/foo", "/bar"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var result []string
			app := &cli.App{
				Action: func(c *cli.Context) error {
					result = getPaths(c)
					return nil
				},
			}
			if err := app.Run(append([]string{"test"}, tt.args...)); err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if strings.Join(result, ",") != strings.Join(tt.expected, ",") {
				t.Errorf("getPaths() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestGenerateOptions(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want func(o *models.GenerateOptions)
	}{
		{
			name: "defaults from config",
			args: nil,
			want: func(*models.GenerateOptions) {},
		},
		{
			name: "detail and max per flow",
			args: []string{"--detail", "basic", "--max-per-flow", "1"},
			want: func(o *models.GenerateOptions) {
				o.DetailLevel = models.DetailBasic
				o.MaxScenariosPerFlow = 1
			},
		},
		{
			name: "category switches",
			args: []string{"--no-edge-cases", "--no-error-cases", "--no-integration"},
			want: func(o *models.GenerateOptions) {
				o.IncludeEdgeCases = false
				o.IncludeErrorCases = false
				o.IncludeIntegrationScenarios = false
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			want := cfg.GenerateOptions()
			tt.want(&want)

			var got models.GenerateOptions
			app := &cli.App{
				Flags: generationFlags(),
				Action: func(c *cli.Context) error {
					got = generateOptions(c, cfg)
					return nil
				},
			}
			if err := app.Run(append([]string{"test"}, tt.args...)); err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if got != want {
				t.Errorf("generateOptions() = %+v, want %+v", got, want)
			}
		})
	}
}

func TestInitCmd(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "reqbdd.toml")

	if err := runApp(t, "init", "-o", path); err != nil {
		t.Fatalf("init error = %v", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	if cfg.Rules.MaxFeatureRequirements != config.DefaultConfig().Rules.MaxFeatureRequirements {
		t.Errorf("generated config lost defaults: %+v", cfg.Rules)
	}

	if err := runApp(t, "init", "-o", path); err == nil {
		t.Error("init should refuse to overwrite without --force")
	}
	if err := runApp(t, "init", "-o", path, "--force"); err != nil {
		t.Errorf("init --force error = %v", err)
	}
}

func TestAnalyzeCmd_JSON(t *testing.T) {
	dir := t.TempDir()
	doc := writeDoc(t, dir, "shop.md", checkoutDoc)
	out := filepath.Join(dir, "report.json")

	if err := runApp(t, "analyze", "-f", "json", "-o", out, doc); err != nil {
		t.Fatalf("analyze error = %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if err := report.ValidateJSON(data); err != nil {
		t.Fatalf("analyze output does not match the report schema: %v", err)
	}

	var rep models.AnalysisReport
	if err := json.Unmarshal(data, &rep); err != nil {
		t.Fatal(err)
	}
	if len(rep.Features) == 0 {
		t.Fatal("expected at least one feature")
	}
	if rep.Document.Version != "1.0.0" {
		t.Errorf("Version = %q, want 1.0.0", rep.Document.Version)
	}
}

func TestAnalyzeCmd_NoDocuments(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "main.go", "package main\n")

	err := runApp(t, "analyze", dir)
	if err == nil || !strings.Contains(err.Error(), "no requirement documents") {
		t.Errorf("analyze error = %v, want no requirement documents", err)
	}
}

func TestParseAndFeaturesCmd(t *testing.T) {
	dir := t.TempDir()
	doc := writeDoc(t, dir, "shop.md", checkoutDoc)

	for _, cmd := range []string{"parse", "features"} {
		t.Run(cmd, func(t *testing.T) {
			out := filepath.Join(dir, cmd+".md")
			if err := runApp(t, cmd, "-f", "markdown", "-o", out, doc); err != nil {
				t.Fatalf("%s error = %v", cmd, err)
			}
			data, err := os.ReadFile(out)
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(string(data), "Checkout") {
				t.Errorf("%s output missing feature name:\n%s", cmd, data)
			}
		})
	}
}

func TestScenariosCmd_UnknownFeature(t *testing.T) {
	dir := t.TempDir()
	doc := writeDoc(t, dir, "shop.md", checkoutDoc)

	err := runApp(t, "scenarios", "--feature", "FEAT-999", "-o", filepath.Join(dir, "out.txt"), doc)
	if err == nil || !strings.Contains(err.Error(), "FEAT-999") {
		t.Errorf("scenarios error = %v, want unknown feature", err)
	}
}

func TestValidateCmd(t *testing.T) {
	dir := t.TempDir()
	doc := writeDoc(t, dir, "shop.md", checkoutDoc)
	out := filepath.Join(dir, "validation.txt")

	if err := runApp(t, "validate", "-o", out, doc); err != nil {
		t.Errorf("validate error = %v", err)
	}
	if err := runApp(t, "validate", "--min-score", "101", "-o", out, doc); err == nil {
		t.Error("validate should fail when the score is below --min-score")
	}

	empty := writeDoc(t, dir, "empty.md", "## Feature: Reporting\n")
	if err := runApp(t, "validate", "-o", out, empty); err == nil {
		t.Error("validate should fail for a feature with an empty description")
	}
}

func TestExportAndCheckReport(t *testing.T) {
	dir := t.TempDir()
	doc := writeDoc(t, dir, "shop.md", checkoutDoc)
	outDir := filepath.Join(dir, "bdd")

	if err := runApp(t, "export", "--dir", outDir, doc); err != nil {
		t.Fatalf("export error = %v", err)
	}
	for _, name := range []string{"README.md", "report.json"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("expected %s: %v", name, err)
		}
	}
	features, err := filepath.Glob(filepath.Join(outDir, "features", "*.feature"))
	if err != nil || len(features) == 0 {
		t.Errorf("expected exported feature files, got %v (%v)", features, err)
	}

	if err := runApp(t, "check-report", filepath.Join(outDir, "report.json")); err != nil {
		t.Errorf("check-report error = %v", err)
	}

	bad := writeDoc(t, dir, "bad.json", `{"document": {}}`)
	if err := runApp(t, "check-report", bad); err == nil {
		t.Error("check-report should reject an incomplete report")
	}
}

func TestMessages(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	var buf bytes.Buffer
	messages(&buf).Success("Wrote %d files", 2)
	messages(&buf).Warning("score %d", 40)
	messages(&buf).Error("broken")

	want := "Wrote 2 files\nWARNING: score 40\nERROR: broken\n"
	if buf.String() != want {
		t.Errorf("messages = %q, want %q", buf.String(), want)
	}
}

func TestCacheCmd(t *testing.T) {
	dir := t.TempDir()
	cacheDir := filepath.Join(dir, "cache")
	cfgPath := writeDoc(t, dir, "reqbdd.toml", "[cache]\nenabled = true\ndir = \""+filepath.ToSlash(cacheDir)+"\"\n")
	doc := writeDoc(t, dir, "shop.md", checkoutDoc)

	if err := runApp(t, "-c", cfgPath, "analyze", "-o", filepath.Join(dir, "out.txt"), doc); err != nil {
		t.Fatalf("analyze error = %v", err)
	}

	statsPath := filepath.Join(dir, "stats.json")
	if err := runApp(t, "-c", cfgPath, "cache", "stats", "-f", "json", "-o", statsPath); err != nil {
		t.Fatalf("cache stats error = %v", err)
	}
	var stats struct {
		Entries int `json:"entries"`
	}
	data, err := os.ReadFile(statsPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(data, &stats); err != nil {
		t.Fatal(err)
	}
	if stats.Entries != 1 {
		t.Errorf("cache entries = %d, want 1", stats.Entries)
	}

	if err := runApp(t, "-c", cfgPath, "cache", "clear"); err != nil {
		t.Fatalf("cache clear error = %v", err)
	}
	if _, err := os.Stat(cacheDir); !os.IsNotExist(err) {
		t.Error("cache clear should remove the cache directory")
	}
}
