// Package cache stores analysis reports on disk keyed by a BLAKE3 digest of
// everything that determines them.
package cache

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"

	"github.com/panbanda/reqbdd/pkg/config"
	"github.com/panbanda/reqbdd/pkg/models"
)

// Cache provides file-based caching for analysis reports.
type Cache struct {
	dir     string
	ttl     time.Duration
	enabled bool
}

// entry is the on-disk form of a cached report.
type entry struct {
	Key       string                `json:"key"`
	Timestamp time.Time             `json:"timestamp"`
	Report    models.AnalysisReport `json:"report"`
}

// New creates a cache from config. A disabled cache never hits and never writes.
func New(cfg config.CacheConfig) (*Cache, error) {
	if !cfg.Enabled {
		return &Cache{enabled: false}, nil
	}

	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, err
	}

	return &Cache{
		dir:     cfg.Dir,
		ttl:     time.Duration(cfg.TTL) * time.Hour,
		enabled: true,
	}, nil
}

// Enabled reports whether the cache reads and writes entries.
func (c *Cache) Enabled() bool {
	return c.enabled
}

// Key digests the input text, the generation options and the rule
// configuration. Any change to one of them yields a different key.
func Key(text string, opts models.GenerateOptions, cfg *config.Config) string {
	h := blake3.New()
	_, _ = h.Write([]byte(text))
	_, _ = h.Write([]byte{0})
	if data, err := json.Marshal(opts); err == nil {
		_, _ = h.Write(data)
	}
	_, _ = h.Write([]byte{0})
	if cfg != nil {
		if data, err := json.Marshal(struct {
			Rules     config.RulesConfig
			Patterns  config.PatternConfig
			Penalties config.PenaltyConfig
		}{cfg.Rules, cfg.Patterns, cfg.Penalties}); err == nil {
			_, _ = h.Write(data)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached report for key if it exists and has not expired.
// A TTL of 0 never expires.
func (c *Cache) Get(key string) (*models.AnalysisReport, bool) {
	if !c.enabled {
		return nil, false
	}

	path := c.keyPath(key)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil || e.Key != key {
		return nil, false
	}

	if c.ttl > 0 && time.Since(e.Timestamp) > c.ttl {
		os.Remove(path)
		return nil, false
	}

	return &e.Report, true
}

// Set stores a report under key.
func (c *Cache) Set(key string, report *models.AnalysisReport) error {
	if !c.enabled {
		return nil
	}

	data, err := json.Marshal(entry{
		Key:       key,
		Timestamp: time.Now(),
		Report:    *report,
	})
	if err != nil {
		return err
	}

	return os.WriteFile(c.keyPath(key), data, 0600)
}

// Clear removes all cache entries.
func (c *Cache) Clear() error {
	if !c.enabled {
		return nil
	}
	return os.RemoveAll(c.dir)
}

func (c *Cache) keyPath(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// Stats returns cache statistics.
type Stats struct {
	Entries   int           `json:"entries"`
	TotalSize int64         `json:"total_size"`
	OldestAge time.Duration `json:"oldest_age"`
	NewestAge time.Duration `json:"newest_age"`
}

// GetStats returns statistics about the cache. A cache directory that does
// not exist yet has no entries.
func (c *Cache) GetStats() (*Stats, error) {
	if !c.enabled {
		return &Stats{}, nil
	}

	stats := &Stats{}
	var oldest, newest time.Time

	err := filepath.WalkDir(c.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}

		stats.Entries++
		stats.TotalSize += info.Size()

		modTime := info.ModTime()
		if oldest.IsZero() || modTime.Before(oldest) {
			oldest = modTime
		}
		if newest.IsZero() || modTime.After(newest) {
			newest = modTime
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return stats, nil
	}
	if err != nil {
		return nil, err
	}

	if !oldest.IsZero() {
		stats.OldestAge = time.Since(oldest)
	}
	if !newest.IsZero() {
		stats.NewestAge = time.Since(newest)
	}
	return stats, nil
}
