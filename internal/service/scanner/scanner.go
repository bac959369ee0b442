// Package scanner resolves command-line paths into requirement documents.
package scanner

import (
	"os"
	"path/filepath"

	"github.com/panbanda/reqbdd/internal/scanner"
	"github.com/panbanda/reqbdd/pkg/config"
)

// ScanResult contains the documents found for a set of paths.
type ScanResult struct {
	Files []string
	// Skipped counts explicit file arguments that are not documents.
	Skipped int
}

// Service provides document discovery.
type Service struct {
	config *config.Config
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// New creates a new scanner service.
func New(opts ...Option) *Service {
	s := &Service{config: config.DefaultConfig()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScanPaths expands directories into their documents and keeps explicit
// files in argument order. Duplicates are dropped. No paths scans ".".
func (s *Service) ScanPaths(paths []string) (*ScanResult, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	result := &ScanResult{}
	seen := make(map[string]bool)
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			result.Files = append(result.Files, path)
		}
	}

	for _, path := range paths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, &PathError{Path: path, Err: err}
		}
		info, err := os.Stat(absPath)
		if err != nil {
			return nil, &PathError{Path: path, Err: err}
		}

		scan := scanner.NewScanner(s.config)
		if !info.IsDir() {
			if scan.IsDocument(absPath) {
				add(absPath)
			} else {
				result.Skipped++
			}
			continue
		}

		found, err := scan.ScanDir(absPath)
		if err != nil {
			return nil, &ScanError{Path: path, Err: err}
		}
		for _, f := range found {
			add(f)
		}
	}
	return result, nil
}

// PathError indicates an invalid or missing path.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return "invalid path " + e.Path + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// ScanError indicates a scanning failure.
type ScanError struct {
	Path string
	Err  error
}

func (e *ScanError) Error() string {
	return "failed to scan directory " + e.Path + ": " + e.Err.Error()
}

func (e *ScanError) Unwrap() error {
	return e.Err
}
