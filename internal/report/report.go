// Package report turns a loaded run into the per-sample comparison table and
// its summary statistics.
package report

import (
	"context"
	"sync"

	"github.com/renderwatch/renderwatch/internal/imagediff"
	"github.com/renderwatch/renderwatch/internal/observability"
	"github.com/renderwatch/renderwatch/internal/results"
	"github.com/renderwatch/renderwatch/internal/severity"
)

// Entry is one aggregated report row: one processed render-element sample.
// Field order matches the exported column order.
type Entry struct {
	Directory   string         `json:"directory"`
	Test        string         `json:"test"`
	Element     string         `json:"element"`
	MSE         float64        `json:"mse"`
	SSIM        float64        `json:"ssim"`
	DiffPercent float64        `json:"diff_percentage"`
	DeltaCount  int            `json:"delta_count"`
	DiffCount   int            `json:"diff_count"`
	PixelCount  int            `json:"pixel_count"`
	Level       severity.Level `json:"problem_level"`
	Intensity   int            `json:"level"`
	Message     string         `json:"message"`
}

// Options tunes report generation.
type Options struct {
	SSIMThreshold float64
	ExcludeDirs   []string
	TopFailures   int
	Workers       int
}

// DefaultOptions returns the generation defaults.
func DefaultOptions() Options {
	return Options{
		SSIMThreshold: severity.DefaultSSIMThreshold,
		ExcludeDirs:   []string{"emulation"},
		TopFailures:   5,
		Workers:       1,
	}
}

// Report is the outcome of one generation run: the filtered entry table and
// the statistics computed over it. Immutable once generated.
type Report struct {
	Entries []Entry
	Summary Summary
}

// workItem pins one sample to its table position so parallel workers can
// write results without reordering.
type workItem struct {
	dir    string
	test   string
	sample *results.RenderElementSample
}

// Generate walks every render-element sample of every test, compares run
// output against reference, classifies the outcome, and accumulates one row
// per sample. Iteration order is directory (first appearance), test (load
// order), element name (sorted), frame (ascending). Samples grouped under an
// excluded directory never enter the table or the summary.
func Generate(ctx context.Context, tests []*results.TestResult, opts Options) *Report {
	excluded := make(map[string]bool, len(opts.ExcludeDirs))
	for _, dir := range opts.ExcludeDirs {
		excluded[dir] = true
	}

	var items []workItem
	for _, dir := range directoryOrder(tests) {
		if excluded[dir] {
			continue
		}
		for _, test := range tests {
			if test.Dir() != dir {
				continue
			}
			for _, name := range test.ElementNames() {
				for _, sample := range test.Diff[name] {
					items = append(items, workItem{dir: dir, test: test.FileName, sample: sample})
				}
			}
		}
	}

	entries := make([]Entry, len(items))
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(items) {
		workers = len(items)
	}

	if workers <= 1 {
		for i, item := range items {
			entries[i] = compare(ctx, item, opts.SSIMThreshold)
		}
	} else {
		// Each comparison is independent; only the index-addressed
		// result slot is written, so no locking is needed beyond the
		// work counter.
		var wg sync.WaitGroup
		next := make(chan int)
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range next {
					entries[i] = compare(ctx, items[i], opts.SSIMThreshold)
				}
			}()
		}
		for i := range items {
			next <- i
		}
		close(next)
		wg.Wait()
	}

	// Summary runs strictly after the pool drains.
	return &Report{
		Entries: entries,
		Summary: summarize(entries, opts.TopFailures),
	}
}

// compare produces the report row for one sample.
func compare(ctx context.Context, item workItem, ssimThreshold float64) Entry {
	_, span := observability.StartCompareSpan(ctx, item.test, item.sample.Name, item.sample.Frame)
	defer span.End()

	metrics := imagediff.Compute(item.sample.RunFile, item.sample.RefFile)
	outcome := severity.Classify(metrics, item.sample.Status, ssimThreshold)
	observability.RecordCompareResult(span, string(outcome.Level), outcome.Intensity)

	entry := Entry{
		Directory:  item.dir,
		Test:       item.test,
		Element:    item.sample.Name,
		DeltaCount: item.sample.DeltaCount,
		Level:      outcome.Level,
		Intensity:  outcome.Intensity,
		Message:    outcome.Message,
	}
	if metrics != nil {
		entry.MSE = metrics.MSE
		entry.SSIM = metrics.SSIM
		entry.DiffPercent = metrics.DiffPercent()
		entry.DiffCount = metrics.DiffPixels
		entry.PixelCount = metrics.TotalPixels
	}
	return entry
}

// directoryOrder returns the grouping directories in order of first
// appearance across the test list.
func directoryOrder(tests []*results.TestResult) []string {
	seen := make(map[string]bool)
	var order []string
	for _, test := range tests {
		dir := test.Dir()
		if !seen[dir] {
			seen[dir] = true
			order = append(order, dir)
		}
	}
	return order
}
