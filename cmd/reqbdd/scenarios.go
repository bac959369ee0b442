package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/reqbdd/internal/output"
	"github.com/panbanda/reqbdd/internal/report"
	"github.com/panbanda/reqbdd/pkg/models"
)

func scenariosCmd() *cli.Command {
	return &cli.Command{
		Name:      "scenarios",
		Aliases:   []string{"sc"},
		Usage:     "Print generated scenarios as Gherkin",
		ArgsUsage: "[path...]",
		Flags: withFlags(outputFlags(), generationFlags(), []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "feature",
				Usage: "Only show these feature ids (repeatable)",
			},
		}),
		Action: runScenariosCmd,
	}
}

func runScenariosCmd(c *cli.Context) error {
	rep, cfg, err := analyzePaths(c)
	if err != nil {
		return err
	}

	only := make(map[string]bool)
	for _, id := range c.StringSlice("feature") {
		only[id] = true
	}

	selected := make(map[string][]models.Scenario)
	view := &output.Report{Data: selected}
	for _, f := range rep.Features {
		if len(only) > 0 && !only[f.ID] {
			continue
		}
		selected[f.ID] = rep.ScenariosFor(f.ID)
		view.Sections = append(view.Sections, report.ScenariosView(f, selected[f.ID]))
	}
	if len(only) > 0 && len(view.Sections) == 0 {
		return fmt.Errorf("no feature matches %v", c.StringSlice("feature"))
	}
	return render(c, cfg, view)
}
