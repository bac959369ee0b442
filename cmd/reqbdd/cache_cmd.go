package main

import (
	"os"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/panbanda/reqbdd/internal/cache"
	"github.com/panbanda/reqbdd/internal/output"
	"github.com/panbanda/reqbdd/pkg/config"
)

func cacheCmd() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect or clear the report cache",
		Subcommands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show cached report count, size and age",
				Flags:  outputFlags(),
				Action: runCacheStatsCmd,
			},
			{
				Name:   "clear",
				Usage:  "Remove every cached report",
				Action: runCacheClearCmd,
			},
		},
	}
}

// openCache opens the configured cache directory even when caching is
// switched off for analysis runs.
func openCache(c *cli.Context) (*cache.Cache, *config.Config, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	cc := cfg.Cache
	cc.Enabled = true
	rc, err := cache.New(cc)
	if err != nil {
		return nil, nil, err
	}
	return rc, cfg, nil
}

func runCacheStatsCmd(c *cli.Context) error {
	rc, cfg, err := openCache(c)
	if err != nil {
		return err
	}
	stats, err := rc.GetStats()
	if err != nil {
		return err
	}
	table := output.NewTable("Cache: "+cfg.Cache.Dir,
		[]string{"Metric", "Value"},
		[][]string{
			{"Entries", strconv.Itoa(stats.Entries)},
			{"Total size", strconv.FormatInt(stats.TotalSize, 10) + " bytes"},
			{"Oldest", stats.OldestAge.Round(time.Second).String()},
			{"Newest", stats.NewestAge.Round(time.Second).String()},
		}, nil, stats)
	return render(c, cfg, table)
}

func runCacheClearCmd(c *cli.Context) error {
	rc, cfg, err := openCache(c)
	if err != nil {
		return err
	}
	if err := rc.Clear(); err != nil {
		return err
	}
	messages(os.Stdout).Success("Cleared %s", cfg.Cache.Dir)
	return nil
}
