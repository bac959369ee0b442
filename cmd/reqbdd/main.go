package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

func newApp() *cli.App {
	return &cli.App{
		Name:    "reqbdd",
		Usage:   "Turn requirement documents into features and BDD scenarios",
		Version: version,
		Description: `reqbdd reads free-form requirement documents (user stories, feature
sections, acceptance criteria, requirement bullets), groups them into
features, generates Given/When/Then scenarios, and scores the document
for structural defects such as duplicate ids and circular dependencies.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"REQBDD_CONFIG"},
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "Disable caching",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Log pipeline stages to stderr",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("no-color") {
				color.NoColor = true
			}
			return nil
		},
		Commands: []*cli.Command{
			analyzeCmd(),
			parseCmd(),
			featuresCmd(),
			scenariosCmd(),
			validateCmd(),
			exportCmd(),
			checkReportCmd(),
			initCmd(),
			cacheCmd(),
			watchCmd(),
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		messages(os.Stderr).Error("%v", err)
		os.Exit(1)
	}
}
