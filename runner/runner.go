// Package runner wires the precheck rules into an ordered suite and
// reports results on the console.
package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/eksmo-labs/precheck/config"
	"github.com/eksmo-labs/precheck/pyast"
	"github.com/eksmo-labs/precheck/rules"
)

// Check is one named validation step. Run returns the violations it found;
// a non-nil error aborts the whole run (unreadable or unparseable input).
type Check struct {
	Name        string
	Description string
	Run         func(ctx context.Context) ([]rules.Violation, error)
}

// CheckResult is the outcome of one executed check.
type CheckResult struct {
	Name       string
	Violations []rules.Violation
}

// Passed reports whether the check found no violations.
func (r CheckResult) Passed() bool {
	return len(r.Violations) == 0
}

// Report is the outcome of one full run.
type Report struct {
	RunID   string
	Results []CheckResult
	Passed  bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithOutput redirects console output (default os.Stdout).
func WithOutput(w io.Writer) Option {
	return func(r *Runner) { r.out = w }
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// WithCollectAll makes the runner execute every check and report all
// failures instead of stopping at the first failing check.
func WithCollectAll(collect bool) Option {
	return func(r *Runner) { r.collectAll = collect }
}

// WithMetrics attaches a metrics recorder updated after every run.
func WithMetrics(m *Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// Runner executes the check suite in its fixed order.
type Runner struct {
	cfg        *config.Config
	parser     *pyast.Parser
	out        io.Writer
	logger     *slog.Logger
	collectAll bool
	metrics    *Metrics
}

// New creates a Runner for the configured project.
func New(cfg *config.Config, opts ...Option) *Runner {
	r := &Runner{
		cfg:    cfg,
		parser: pyast.NewParser(),
		out:    os.Stdout,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the suite. The default mode stops at the first failing
// check; collect-all mode runs everything. Both modes print one ✔ line per
// passing check and one ❌ line per violation, and both return the same
// messages for the same project state.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		RunID:  uuid.New().String(),
		Passed: true,
	}

	r.logger.Debug("Starting validation run",
		"run_id", report.RunID,
		"root", r.cfg.Repo.Path,
		"collect_all", r.collectAll)

	fmt.Fprintln(r.out, "🔍 Running precheck…")

	for _, check := range r.checks() {
		violations, err := check.Run(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", check.Name, err)
		}

		result := CheckResult{Name: check.Name, Violations: violations}
		report.Results = append(report.Results, result)

		if result.Passed() {
			fmt.Fprintf(r.out, "✔ %s\n", check.Description)
			continue
		}

		report.Passed = false
		r.logger.Debug("Check failed",
			"run_id", report.RunID,
			"check", check.Name,
			"violations", len(violations))

		if r.collectAll {
			for _, v := range violations {
				fmt.Fprintf(r.out, "❌ %s\n", v)
			}
			continue
		}

		// Fail fast: the first violating check aborts the rest. The
		// import audit still reports its whole batch.
		for _, v := range violations {
			fmt.Fprintf(r.out, "❌ %s\n", v)
		}
		break
	}

	if report.Passed {
		fmt.Fprintln(r.out, "🎉 All checks passed!")
	}

	if r.metrics != nil {
		r.metrics.ObserveRun(report)
	}

	return report, nil
}

// checks builds the suite in its fixed, observable order.
func (r *Runner) checks() []Check {
	cfg := r.cfg
	root := cfg.Repo.Path

	return []Check{
		{
			Name:        "structure",
			Description: "project structure is correct",
			Run: func(ctx context.Context) ([]rules.Violation, error) {
				return rules.CheckProjectStructure(root, cfg.Layout.Required), nil
			},
		},
		{
			Name:        "restricted-dir",
			Description: fmt.Sprintf("%s/ contents are correct", cfg.Layout.RestrictedDir),
			Run: func(ctx context.Context) ([]rules.Violation, error) {
				return rules.CheckDirContents(root, cfg.Layout.RestrictedDir,
					cfg.Layout.AllowedFiles, cfg.Layout.AllowedDirs)
			},
		},
		{
			Name:        "import-boundary",
			Description: fmt.Sprintf("%s imports are clean — no unapproved local dependencies", cfg.Imports.Package),
			Run: func(ctx context.Context) ([]rules.Violation, error) {
				local, err := rules.LocalModules(root, cfg.Imports.Package)
				if err != nil {
					return nil, err
				}
				rule := rules.ImportBoundaryRule{
					Package: cfg.Imports.Package,
					Allow:   cfg.Imports.Allow,
				}
				return rule.Check(ctx, r.parser, root, local)
			},
		},
		{
			Name:        "flows-layout",
			Description: "flows directory layout is correct",
			Run: func(ctx context.Context) ([]rules.Violation, error) {
				return rules.CheckFileNaming(root, cfg.Flows.Dir,
					cfg.Flows.FilePattern, cfg.Flows.ExtraFiles)
			},
		},
		{
			Name:        "entry-point",
			Description: fmt.Sprintf("%s is correct", cfg.Entry.Path),
			Run:         r.checkEntryPoint,
		},
		{
			Name:        "flow-shapes",
			Description: "flow classes are correct",
			Run:         r.checkFlowShapes,
		},
		{
			Name:        "readme",
			Description: fmt.Sprintf("%s is correct", cfg.Readme.Path),
			Run: func(ctx context.Context) ([]rules.Violation, error) {
				rule := rules.ReadmeRule{
					Path:              cfg.Readme.Path,
					InstallKeywords:   cfg.Readme.InstallKeywords,
					RunKeywords:       cfg.Readme.RunKeywords,
					DescriptionLines:  cfg.Readme.DescriptionLines,
					DescriptionMinLen: cfg.Readme.DescriptionMinLen,
				}
				return rule.Check(root), nil
			},
		},
		{
			Name:        "line-ceiling",
			Description: "file sizes are within limits",
			Run: func(ctx context.Context) ([]rules.Violation, error) {
				return rules.CheckLineCeiling(root, cfg.Limits.MaxLines, cfg.Limits.SkipDirs)
			},
		},
	}
}

// checkEntryPoint parses the demo module and validates its main().
func (r *Runner) checkEntryPoint(ctx context.Context) ([]rules.Violation, error) {
	path := filepath.Join(r.cfg.Repo.Path, r.cfg.Entry.Path)
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return []rules.Violation{{Message: fmt.Sprintf("missing %s (%s)", r.cfg.Entry.Path, path)}}, nil
	}

	mod, err := r.parser.ParseFile(ctx, path)
	if err != nil {
		return nil, err
	}

	return rules.EntryPointRule{}.Check(mod), nil
}

// checkFlowShapes validates every flow file against the flow convention.
// Files are visited in sorted order; violations across files are collected
// so collect-all mode sees them all, while fail-fast reporting still leads
// with the first.
func (r *Runner) checkFlowShapes(ctx context.Context) ([]rules.Violation, error) {
	files, err := rules.ListMatchingFiles(r.cfg.Repo.Path, r.cfg.Flows.Dir, r.cfg.Flows.FilePattern)
	if err != nil {
		return nil, err
	}

	rule := rules.FlowRule{
		Suffix:       r.cfg.Flows.ClassSuffix,
		Method:       r.cfg.Flows.Method,
		KeywordParam: r.cfg.Flows.KeywordParam,
	}

	var violations []rules.Violation
	for _, file := range files {
		mod, err := r.parser.ParseFile(ctx, file)
		if err != nil {
			return nil, err
		}
		violations = append(violations, rule.Check(mod)...)
	}
	return violations, nil
}
