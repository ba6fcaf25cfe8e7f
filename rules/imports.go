package rules

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/eksmo-labs/precheck/pyast"
)

// LocalModules lists the importable top-level names at the project root:
// every directory and every .py file stem, excluding the self-contained
// package itself so that its own absolute imports are never flagged.
func LocalModules(root, selfPackage string) (map[string]bool, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("list project root: %w", err)
	}

	local := make(map[string]bool)
	for _, entry := range entries {
		name := entry.Name()
		if name == selfPackage {
			continue
		}
		if entry.IsDir() {
			local[name] = true
		} else if strings.HasSuffix(name, ".py") {
			local[strings.TrimSuffix(name, ".py")] = true
		}
	}
	return local, nil
}

// ImportBoundaryRule audits every Python file under the self-contained
// package for imports of other local top-level modules. A single exact
// dotted path is allow-listed; relative imports are governed by a separate
// policy and are never flagged here.
type ImportBoundaryRule struct {
	// Package is the self-contained package name (directory under root).
	Package string

	// Allow is the one fully-qualified module path exempt from the rule.
	Allow string
}

// Check walks the package subtree in lexical order, parses each Python
// file, and collects every boundary violation across the whole subtree
// rather than stopping at the first. Parse and I/O failures abort the
// audit with an error since an unparseable project cannot pass.
func (r ImportBoundaryRule) Check(ctx context.Context, parser *pyast.Parser, root string, local map[string]bool) ([]Violation, error) {
	pkgDir := filepath.Join(root, r.Package)
	if _, statErr := os.Stat(pkgDir); errors.Is(statErr, fs.ErrNotExist) {
		// A missing package directory is a violation, not a run error,
		// so collect-all mode can keep going.
		return []Violation{violationf("", "missing directory: %s (%s)", r.Package, pkgDir)}, nil
	}

	var violations []Violation
	err := filepath.WalkDir(pkgDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".py") {
			return nil
		}

		mod, err := parser.ParseFile(ctx, path)
		if err != nil {
			return err
		}

		violations = append(violations, r.checkModule(mod, local)...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s imports: %w", r.Package, err)
	}

	return violations, nil
}

// checkModule classifies every import in one module.
func (r ImportBoundaryRule) checkModule(mod *pyast.Module, local map[string]bool) []Violation {
	var violations []Violation
	for _, imp := range mod.Imports {
		if imp.From && imp.Level > 0 {
			// Relative imports are out of scope for the boundary rule.
			continue
		}
		if imp.Path == "" || imp.Path == r.Allow {
			continue
		}

		root := imp.Root()
		if local[root] && root != r.Package {
			violations = append(violations, violationf(mod.Path,
				"import of local module %q is not allowed; %s must be self-contained", imp.Path, r.Package))
		}
	}
	return violations
}
