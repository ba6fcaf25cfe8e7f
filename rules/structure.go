package rules

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// RequiredEntry is one expected path in the project layout.
type RequiredEntry struct {
	Path string `yaml:"path"`
	Dir  bool   `yaml:"dir"`
}

// CheckProjectStructure verifies every required file and directory exists
// with the right kind, in declaration order.
func CheckProjectStructure(root string, required []RequiredEntry) []Violation {
	var violations []Violation
	for _, entry := range required {
		full := filepath.Join(root, entry.Path)
		info, err := os.Stat(full)
		switch {
		case entry.Dir && (err != nil || !info.IsDir()):
			violations = append(violations, violationf("", "missing directory: %s (%s)", entry.Path, full))
		case !entry.Dir && (err != nil || info.IsDir()):
			violations = append(violations, violationf("", "missing file: %s (%s)", entry.Path, full))
		}
	}
	return violations
}

// CheckDirContents verifies a directory contains only allow-listed files
// and subdirectories.
func CheckDirContents(root, dir string, allowedFiles, allowedDirs []string) ([]Violation, error) {
	full := filepath.Join(root, dir)
	entries, err := os.ReadDir(full)
	if errors.Is(err, fs.ErrNotExist) {
		// A missing directory is a violation, not a run error, so
		// collect-all mode can keep going.
		return []Violation{violationf("", "missing directory: %s (%s)", dir, full)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	var violations []Violation
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			if !contains(allowedDirs, name) {
				violations = append(violations, violationf("",
					"unexpected directory in %s/: %s (allowed: %s)", dir, name, strings.Join(allowedDirs, ", ")))
			}
			continue
		}
		if !contains(allowedFiles, name) {
			violations = append(violations, violationf("",
				"unexpected file in %s/: %s (allowed: %s)", dir, name, strings.Join(allowedFiles, ", ")))
		}
	}
	return violations, nil
}

// CheckFileNaming verifies every regular file in dir either matches the
// glob pattern or is explicitly allowed. Subdirectories are ignored.
func CheckFileNaming(root, dir, pattern string, allowedFiles []string) ([]Violation, error) {
	full := filepath.Join(root, dir)
	entries, err := os.ReadDir(full)
	if errors.Is(err, fs.ErrNotExist) {
		return []Violation{violationf("", "missing directory: %s (%s)", dir, full)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	var violations []Violation
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if contains(allowedFiles, name) {
			continue
		}
		ok, err := doublestar.Match(pattern, name)
		if err != nil {
			return nil, fmt.Errorf("match pattern %q: %w", pattern, err)
		}
		if !ok {
			violations = append(violations, violationf("",
				"bad file name in %s/: %s (expected %s)", dir, name, pattern))
		}
	}
	return violations, nil
}

// ListMatchingFiles returns the files in dir matching the glob pattern,
// sorted, as paths relative to root joined with dir.
func ListMatchingFiles(root, dir, pattern string) ([]string, error) {
	matches, err := doublestar.FilepathGlob(filepath.Join(root, dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}
	sort.Strings(matches)
	return matches, nil
}

// CheckLineCeiling verifies no .py file under root exceeds maxLines.
// Files with any skipped path component (virtual environments) are
// excluded. Files are visited in lexical order.
func CheckLineCeiling(root string, maxLines int, skipParts []string) ([]Violation, error) {
	matches, err := doublestar.FilepathGlob(filepath.Join(root, "**", "*.py"))
	if err != nil {
		return nil, fmt.Errorf("glob python files: %w", err)
	}
	sort.Strings(matches)

	var violations []Violation
	for _, path := range matches {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		if hasAnyComponent(rel, skipParts) {
			continue
		}

		count, err := countLines(path)
		if err != nil {
			return nil, err
		}
		if count > maxLines {
			violations = append(violations, violationf(path,
				"file too long (%d lines, limit %d)", count, maxLines))
		}
	}
	return violations, nil
}

// ReadmeRule checks the documentation file for the required sections using
// keyword membership, not markup parsing.
type ReadmeRule struct {
	Path            string
	InstallKeywords []string
	RunKeywords     []string

	// DescriptionLines is how many leading lines are searched for a
	// description; DescriptionMinLen is the minimum significant length.
	DescriptionLines  int
	DescriptionMinLen int
}

// Check validates the README, stopping at the first failure.
func (r ReadmeRule) Check(root string) []Violation {
	path := filepath.Join(root, r.Path)
	data, err := os.ReadFile(path)
	if err != nil {
		return []Violation{violationf("", "missing %s (%s)", r.Path, path)}
	}

	content := strings.TrimSpace(string(data))
	if content == "" {
		return []Violation{violationf("", "%s is empty", r.Path)}
	}

	if !strings.HasPrefix(content, "#") {
		return []Violation{violationf("", "%s must start with a # title", r.Path)}
	}

	if !r.hasDescription(content) {
		return []Violation{violationf("", "%s must contain a project description after the title", r.Path)}
	}

	lower := strings.ToLower(content)
	if !containsAnyKeyword(lower, r.InstallKeywords) {
		return []Violation{violationf("", "%s must contain an installation section (e.g. \"Installation\")", r.Path)}
	}
	if !containsAnyKeyword(lower, r.RunKeywords) {
		return []Violation{violationf("", "%s must contain a run/usage section (e.g. \"Usage\")", r.Path)}
	}

	return nil
}

// hasDescription looks through the leading lines for one non-heading line
// of meaningful length.
func (r ReadmeRule) hasDescription(content string) bool {
	lines := strings.Split(content, "\n")
	if len(lines) > r.DescriptionLines {
		lines = lines[:r.DescriptionLines]
	}
	for _, line := range lines {
		if strings.HasPrefix(line, "#") {
			continue
		}
		if len(strings.TrimSpace(line)) > r.DescriptionMinLen {
			return true
		}
	}
	return false
}

// containsAnyKeyword reports whether any keyword occurs in the text.
// The text must already be lowercased.
func containsAnyKeyword(lower string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// countLines counts lines the way splitlines does: a trailing newline does
// not start an extra line.
func countLines(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}
	if len(data) == 0 {
		return 0, nil
	}
	lines := strings.Split(string(data), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return len(lines), nil
}

// hasAnyComponent reports whether any path component of rel is in parts.
func hasAnyComponent(rel string, parts []string) bool {
	for _, comp := range strings.Split(rel, string(filepath.Separator)) {
		if contains(parts, comp) {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
