package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/reqbdd/internal/report"
	"github.com/panbanda/reqbdd/pkg/analyzer/score"
)

func validateCmd() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Check documents for structural defects and score them",
		ArgsUsage: "[path...]",
		Flags: withFlags(outputFlags(), []cli.Flag{
			&cli.IntFlag{
				Name:  "min-score",
				Usage: "Fail when the score is below this value",
			},
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "Fail on warnings as well as errors",
			},
		}),
		Action: runValidateCmd,
	}
}

func runValidateCmd(c *cli.Context) error {
	rep, cfg, err := analyzePaths(c)
	if err != nil {
		return err
	}
	v := rep.Validation
	if err := render(c, cfg, report.ValidationView(v)); err != nil {
		return err
	}

	if !v.IsValid {
		return fmt.Errorf("validation failed with %d error(s)", len(v.Errors))
	}
	if c.Bool("strict") && len(v.Warnings) > 0 {
		return fmt.Errorf("validation failed with %d warning(s)", len(v.Warnings))
	}
	if result := score.CheckThreshold(v.Score, c.Int("min-score")); !result.Passed {
		return fmt.Errorf("score %d is below the minimum of %d", result.Score, result.Min)
	}
	return nil
}
