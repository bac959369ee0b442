package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/reqbdd/internal/cache"
	"github.com/panbanda/reqbdd/internal/output"
	"github.com/panbanda/reqbdd/internal/progress"
	"github.com/panbanda/reqbdd/internal/service/analysis"
	scannersvc "github.com/panbanda/reqbdd/internal/service/scanner"
	"github.com/panbanda/reqbdd/pkg/config"
	"github.com/panbanda/reqbdd/pkg/models"
)

// getPaths returns paths from positional args, defaulting to ["."]
func getPaths(c *cli.Context) []string {
	if c.Args().Len() > 0 {
		return c.Args().Slice()
	}
	return []string{"."}
}

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: text, json, markdown, toon, yaml",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write output to file",
		},
	}
}

func generationFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "detail",
			Usage: "Scenario detail level: basic, standard, detailed",
		},
		&cli.IntFlag{
			Name:  "max-per-flow",
			Usage: "Maximum scenarios generated per user flow",
		},
		&cli.BoolFlag{
			Name:  "no-edge-cases",
			Usage: "Skip edge-case scenarios",
		},
		&cli.BoolFlag{
			Name:  "no-error-cases",
			Usage: "Skip error-case scenarios",
		},
		&cli.BoolFlag{
			Name:  "no-integration",
			Usage: "Skip integration scenarios",
		},
	}
}

func withFlags(groups ...[]cli.Flag) []cli.Flag {
	var out []cli.Flag
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// loadConfig reads --config when given, otherwise searches the default locations.
func loadConfig(c *cli.Context) (*config.Config, error) {
	if path := c.String("config"); path != "" {
		return config.Load(path)
	}
	return config.LoadOrDefault()
}

// generateOptions overlays generation flags on the configured defaults.
func generateOptions(c *cli.Context, cfg *config.Config) models.GenerateOptions {
	opts := cfg.GenerateOptions()
	if d := c.String("detail"); d != "" {
		opts.DetailLevel = models.DetailLevel(d)
	}
	if c.IsSet("max-per-flow") {
		opts.MaxScenariosPerFlow = c.Int("max-per-flow")
	}
	if c.Bool("no-edge-cases") {
		opts.IncludeEdgeCases = false
	}
	if c.Bool("no-error-cases") {
		opts.IncludeErrorCases = false
	}
	if c.Bool("no-integration") {
		opts.IncludeIntegrationScenarios = false
	}
	return opts
}

func newLogger(c *cli.Context) *slog.Logger {
	if !c.Bool("verbose") {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func newService(c *cli.Context, cfg *config.Config, extra ...analysis.Option) (*analysis.Service, error) {
	opts := []analysis.Option{analysis.WithConfig(cfg), analysis.WithLogger(newLogger(c))}
	if cfg.Cache.Enabled && !c.Bool("no-cache") {
		rc, err := cache.New(cfg.Cache)
		if err != nil {
			return nil, err
		}
		opts = append(opts, analysis.WithCache(rc))
	}
	return analysis.New(append(opts, extra...)...)
}

func newFormatter(c *cli.Context, cfg *config.Config) (*output.Formatter, error) {
	format := c.String("format")
	if format == "" {
		format = cfg.Output.Format
	}
	colored := cfg.Output.Color && !c.Bool("no-color")
	return output.NewFormatter(output.ParseFormat(format), c.String("output"), colored)
}

// scanDocuments resolves the positional paths into requirement documents.
func scanDocuments(c *cli.Context, cfg *config.Config) ([]string, error) {
	result, err := scannersvc.New(scannersvc.WithConfig(cfg)).ScanPaths(getPaths(c))
	if err != nil {
		return nil, err
	}
	if len(result.Files) == 0 {
		return nil, fmt.Errorf("no requirement documents found in %v", getPaths(c))
	}
	return result.Files, nil
}

// analyzePaths scans, loads and analyzes the documents named on the command line.
func analyzePaths(c *cli.Context) (*models.AnalysisReport, *config.Config, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	files, err := scanDocuments(c, cfg)
	if err != nil {
		return nil, nil, err
	}

	spinner := progress.NewSpinner("Analyzing", progress.WithWriter(progressWriter(c)))
	svc, err := newService(c, cfg, analysis.WithStageHook(spinner.Stage))
	if err != nil {
		return nil, nil, err
	}

	var onLoad func()
	if len(files) > 1 {
		onLoad = spinner.Tick
	}
	rep, err := svc.AnalyzeFiles(c.Context, files, generateOptions(c, cfg), onLoad)
	if err != nil {
		spinner.FinishError(err)
		return nil, nil, err
	}
	spinner.FinishSuccess()
	return rep, cfg, nil
}

// progressWriter hides progress when --verbose logging already reports stages.
func progressWriter(c *cli.Context) io.Writer {
	if c.Bool("verbose") {
		return io.Discard
	}
	return os.Stderr
}

func render(c *cli.Context, cfg *config.Config, v output.Renderable) error {
	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()
	return formatter.Output(v)
}

// messages returns a text formatter for status lines written outside the report.
func messages(w io.Writer) *output.Formatter {
	return output.NewWriterFormatter(output.FormatText, w, !color.NoColor)
}

func warnf(format string, args ...any) {
	messages(os.Stderr).Warning(format, args...)
}
