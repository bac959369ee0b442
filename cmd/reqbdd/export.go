package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/reqbdd/internal/report"
)

func exportCmd() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Write Gherkin feature files, scenario checklists and the JSON report",
		ArgsUsage: "[path...]",
		Flags: withFlags(generationFlags(), []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Value:   "bdd",
				Usage:   "Directory to write files into",
			},
			&cli.BoolFlag{
				Name:  "no-json",
				Usage: "Skip writing report.json",
			},
		}),
		Action: runExportCmd,
	}
}

func runExportCmd(c *cli.Context) error {
	rep, _, err := analyzePaths(c)
	if err != nil {
		return err
	}
	dir := c.String("dir")

	files, err := report.MarkdownFiles(rep)
	if err != nil {
		return err
	}
	if !c.Bool("no-json") {
		data, err := report.JSON(rep)
		if err != nil {
			return err
		}
		files["report.json"] = string(data)
	}

	written, err := report.WriteFiles(dir, files)
	if err != nil {
		return err
	}
	messages(os.Stdout).Success("Wrote %d files to %s", len(written), dir)
	if !rep.Validation.IsValid {
		warnf("The document has %d validation error(s); see %s", len(rep.Validation.Errors), filepath.Join(dir, "README.md"))
	}
	return nil
}

func checkReportCmd() *cli.Command {
	return &cli.Command{
		Name:      "check-report",
		Usage:     "Validate an exported JSON report against the report schema",
		ArgsUsage: "<report.json>",
		Action: func(c *cli.Context) error {
			if c.Args().Len() != 1 {
				return fmt.Errorf("expected exactly one report file")
			}
			path := c.Args().First()
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			if err := report.ValidateJSON(data); err != nil {
				return err
			}
			messages(os.Stdout).Success("%s matches the report schema", path)
			return nil
		},
	}
}
