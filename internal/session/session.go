// Package session owns the "currently loaded run" lifecycle: loading a
// results document from a run directory and generating its report exactly
// once.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/renderwatch/renderwatch/internal/config"
	"github.com/renderwatch/renderwatch/internal/observability"
	"github.com/renderwatch/renderwatch/internal/report"
	"github.com/renderwatch/renderwatch/internal/results"
)

// ResultsFileName is the document name expected inside a run directory.
const ResultsFileName = "results.json"

// ErrNoRun is returned when report generation is requested before any run
// has been loaded.
var ErrNoRun = errors.New("session: no run loaded")

// RunContext is one loaded run. Header and Tests are read-only once loading
// completes; the report slot is filled at most once.
type RunContext struct {
	Root   string
	Header *results.RunHeader
	Tests  []*results.TestResult

	mu     sync.Mutex
	report *ReportContext
}

// ReportContext is the outcome of one report generation over a run.
type ReportContext struct {
	Report     *report.Report
	ExportPath string
}

// SampleCount returns the total number of render-element samples across all
// tests of the run.
func (rc *RunContext) SampleCount() int {
	n := 0
	for _, test := range rc.Tests {
		n += test.SampleCount()
	}
	return n
}

// TestsByDir groups the run's tests by their grouping directory, preserving
// load order within each group. Order of first appearance is available from
// the tests slice itself.
func (rc *RunContext) TestsByDir() map[string][]*results.TestResult {
	grouped := make(map[string][]*results.TestResult)
	for _, test := range rc.Tests {
		dir := test.Dir()
		grouped[dir] = append(grouped[dir], test)
	}
	return grouped
}

// Session tracks the currently loaded run. A new Load replaces the previous
// run context wholesale; there is no incremental update.
type Session struct {
	cfg     *config.Config
	current *RunContext
}

// New creates a session with the given configuration.
func New(cfg *config.Config) *Session {
	return &Session{cfg: cfg}
}

// Current returns the loaded run context, or nil before the first Load.
func (s *Session) Current() *RunContext {
	return s.current
}

// Load reads <root>/results.json, parses it into the run model, and makes it
// the session's current run. Structural parse errors are fatal: no partial
// run context is produced and the previous one stays current.
func (s *Session) Load(ctx context.Context, root string) (*RunContext, error) {
	_, span := observability.StartLoadSpan(ctx, root)
	defer span.End()

	path := filepath.Join(root, ResultsFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		err = fmt.Errorf("read results document: %w", err)
		observability.RecordError(span, err)
		return nil, err
	}

	header, tests, err := results.Load(data)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	run := &RunContext{Root: root, Header: header, Tests: tests}
	s.current = run
	observability.RecordLoadResult(span, len(tests), run.SampleCount())
	slog.Info("run loaded",
		"root", root,
		"title", header.Title,
		"tests", len(tests),
		"failed", header.FailedTests,
	)
	return run, nil
}

// GenerateReport runs the comparison pipeline over the current run and
// persists the table under the run root. The pipeline is single-shot per
// load: a repeat call returns the existing report context without
// recomputing or rewriting anything.
func (s *Session) GenerateReport(ctx context.Context) (*ReportContext, error) {
	run := s.current
	if run == nil {
		return nil, ErrNoRun
	}

	run.mu.Lock()
	defer run.mu.Unlock()
	if run.report != nil {
		return run.report, nil
	}

	ctx, span := observability.StartReportSpan(ctx, run.Root)
	defer span.End()

	opts := report.Options{
		SSIMThreshold: s.cfg.Report.SSIMThreshold,
		ExcludeDirs:   s.cfg.Report.ExcludeDirs,
		TopFailures:   s.cfg.Report.TopFailures,
		Workers:       s.cfg.Report.Workers,
	}
	generated := report.Generate(ctx, run.Tests, opts)

	exportPath := filepath.Join(run.Root, s.cfg.Report.ExportName)
	if err := generated.ExportCSV(exportPath); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	summary := generated.Summary
	observability.RecordReportResult(span, summary.Total, summary.Good, summary.Soft, summary.Hard)
	slog.Info("report generated",
		"rows", summary.Total,
		"good", summary.Good,
		"soft", summary.Soft,
		"hard", summary.Hard,
		"export", exportPath,
	)

	run.report = &ReportContext{Report: generated, ExportPath: exportPath}
	return run.report, nil
}
