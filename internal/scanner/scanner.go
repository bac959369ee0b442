// Package scanner finds requirement documents below a directory.
package scanner

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/panbanda/reqbdd/pkg/config"
)

// Scanner finds requirement documents in a directory.
type Scanner struct {
	config    config.ScanConfig
	exclude   gitignore.Matcher
	gitignore gitignore.Matcher
	gitRoot   string
}

// NewScanner creates a new document scanner.
func NewScanner(cfg *config.Config) *Scanner {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Scanner{config: cfg.Scan}
}

// findGitRoot walks up from start to the directory holding .git.
// Returns empty string if not in a git repository.
func findGitRoot(start string) string {
	dir := start
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadExcludePatterns parses configured excludes as gitignore syntax and,
// when enabled, reads every .gitignore of the enclosing repository.
func (s *Scanner) loadExcludePatterns(root string) {
	var patterns []gitignore.Pattern
	for _, p := range s.config.Exclude {
		patterns = append(patterns, gitignore.ParsePattern(p, nil))
	}
	if len(patterns) > 0 {
		s.exclude = gitignore.NewMatcher(patterns)
	}

	if !s.config.Gitignore {
		return
	}
	s.gitRoot = findGitRoot(root)
	if s.gitRoot == "" {
		return
	}
	if gitPatterns, err := gitignore.ReadPatterns(osfs.New(s.gitRoot), nil); err == nil && len(gitPatterns) > 0 {
		s.gitignore = gitignore.NewMatcher(gitPatterns)
	}
}

// isExcluded reports whether path (relative to the scan root) is excluded
// by configuration or by .gitignore.
func (s *Scanner) isExcluded(absPath, relPath string, isDir bool) bool {
	if s.exclude != nil && s.exclude.Match(splitPath(relPath), isDir) {
		return true
	}
	if s.gitignore != nil {
		if rel, err := filepath.Rel(s.gitRoot, absPath); err == nil && !strings.HasPrefix(rel, "..") {
			return s.gitignore.Match(splitPath(rel), isDir)
		}
	}
	return false
}

func splitPath(p string) []string {
	return strings.Split(filepath.ToSlash(p), "/")
}

// IsDocument reports whether the file extension marks a requirement document.
func (s *Scanner) IsDocument(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return slices.ContainsFunc(s.config.Extensions, func(e string) bool {
		return strings.EqualFold(e, ext)
	})
}

// included applies the include globs. No globs means everything is included.
func (s *Scanner) included(relPath string) bool {
	if len(s.config.Include) == 0 {
		return true
	}
	name := filepath.ToSlash(relPath)
	for _, pattern := range s.config.Include {
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}

// ScanDir recursively scans root for requirement documents in lexical order.
// Symlinks that resolve outside root are skipped.
func (s *Scanner) ScanDir(root string) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	absRoot, err = filepath.EvalSymlinks(absRoot)
	if err != nil {
		return nil, err
	}

	s.loadExcludePatterns(absRoot)

	var files []string
	walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if path == absRoot {
			return nil
		}
		relPath, _ := filepath.Rel(absRoot, path)

		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil || !isWithinRoot(resolved, absRoot) {
				return nil
			}
		}

		if d.IsDir() {
			if d.Name() == ".git" || s.isExcluded(path, relPath, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if s.isExcluded(path, relPath, false) || !s.IsDocument(path) || !s.included(relPath) {
			return nil
		}
		files = append(files, path)
		return nil
	})

	return files, walkErr
}

// isWithinRoot checks if a path is contained within the root directory.
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)
	return absPath == root || strings.HasPrefix(absPath, root+string(filepath.Separator))
}
