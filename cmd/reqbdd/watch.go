package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/reqbdd/internal/report"
	"github.com/panbanda/reqbdd/internal/scanner"
	"github.com/panbanda/reqbdd/pkg/watch"
)

func watchCmd() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Aliases:   []string{"w"},
		Usage:     "Re-analyze documents whenever they change",
		ArgsUsage: "[path]",
		Flags: withFlags(outputFlags(), generationFlags(), []cli.Flag{
			&cli.DurationFlag{
				Name:  "debounce",
				Value: watch.DefaultDebounce,
				Usage: "Wait this long after the last change before re-running",
			},
		}),
		Action: runWatchCmd,
	}
}

func runWatchCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	root := getPaths(c)[0]
	docs := scanner.NewScanner(cfg)

	w, err := watch.NewWatcher(root,
		watch.WithDebounce(c.Duration("debounce")),
		watch.WithFilter(docs.IsDocument),
		watch.WithSkipDirs("node_modules", "vendor", ".reqbdd"),
	)
	if err != nil {
		return err
	}
	defer w.Stop()

	rerun := func() {
		rep, cfg, err := analyzePaths(c)
		if err != nil {
			messages(os.Stderr).Error("%v", err)
			return
		}
		if err := render(c, cfg, report.SummaryView(rep)); err != nil {
			messages(os.Stderr).Error("%v", err)
		}
	}
	w.SetCallback(func([]string) { rerun() })
	rerun()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := w.Start(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
