package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/reqbdd/pkg/config"
)

func initCmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Create a reqbdd.toml with the default rules",
		Description: `Writes the built-in stop words, thresholds, penalties and sentence
patterns so they can be tuned.

Examples:
  reqbdd init                        # Creates reqbdd.toml
  reqbdd init -o .reqbdd/reqbdd.toml # Creates config in .reqbdd
  reqbdd init --force                # Overwrite existing config file`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   "reqbdd.toml",
				Usage:   "Output file path",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite existing config file",
			},
		},
		Action: runInitCmd,
	}
}

func runInitCmd(c *cli.Context) error {
	outputPath := c.String("output")

	if _, err := os.Stat(outputPath); err == nil && !c.Bool("force") {
		return fmt.Errorf("config file %q already exists (use --force to overwrite)", outputPath)
	}

	if dir := filepath.Dir(outputPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", dir, err)
		}
	}

	content, err := config.DefaultConfig().MarshalTOML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, content, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	messages(os.Stdout).Success("Created %s", outputPath)
	return nil
}
