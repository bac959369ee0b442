package main

import (
	"github.com/urfave/cli/v2"

	"github.com/panbanda/reqbdd/internal/report"
	"github.com/panbanda/reqbdd/internal/service/analysis"
	"github.com/panbanda/reqbdd/pkg/config"
	"github.com/panbanda/reqbdd/pkg/models"
)

func analyzeCmd() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Aliases:   []string{"a"},
		Usage:     "Run the full pipeline and print the analysis report",
		ArgsUsage: "[path...]",
		Flags:     withFlags(outputFlags(), generationFlags()),
		Action:    runAnalyzeCmd,
	}
}

func runAnalyzeCmd(c *cli.Context) error {
	rep, cfg, err := analyzePaths(c)
	if err != nil {
		return err
	}
	return render(c, cfg, report.SummaryView(rep))
}

func parseCmd() *cli.Command {
	return &cli.Command{
		Name:      "parse",
		Usage:     "List the requirements extracted from documents",
		ArgsUsage: "[path...]",
		Flags:     outputFlags(),
		Action: func(c *cli.Context) error {
			_, doc, cfg, err := parsePaths(c)
			if err != nil {
				return err
			}
			return render(c, cfg, report.DocumentView(doc))
		},
	}
}

func featuresCmd() *cli.Command {
	return &cli.Command{
		Name:      "features",
		Usage:     "Group requirements into features",
		ArgsUsage: "[path...]",
		Flags:     outputFlags(),
		Action: func(c *cli.Context) error {
			svc, doc, cfg, err := parsePaths(c)
			if err != nil {
				return err
			}
			return render(c, cfg, report.FeaturesView(svc.Extract(doc)))
		},
	}
}

// parsePaths loads the documents on the command line and parses them as one text.
func parsePaths(c *cli.Context) (*analysis.Service, *models.ParsedDocument, *config.Config, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, nil, err
	}
	files, err := scanDocuments(c, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	svc, err := newService(c, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	text, err := svc.ReadDocuments(c.Context, files, nil)
	if err != nil {
		return nil, nil, nil, err
	}
	return svc, svc.Parse(text), cfg, nil
}
