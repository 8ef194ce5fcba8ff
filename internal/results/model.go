// Package results holds the typed model for one visual-regression run and
// the loader that builds it from the raw results document.
package results

import (
	"path/filepath"
	"sort"
	"time"
)

// ValueKind discriminates the primitive held by a Value.
type ValueKind int

const (
	KindNumber ValueKind = iota
	KindString
	KindBool
)

// Value is a tagged primitive for open-ended maps ("stats", "version") whose
// schema is owned by the upstream result producer. Downstream code only ever
// does key lookup on these, so a union beats a fixed struct.
type Value struct {
	Kind ValueKind
	Num  float64
	Str  string
	Bool bool
}

// Number returns the numeric form of v, or 0 if v is not a number.
func (v Value) Number() float64 {
	if v.Kind == KindNumber {
		return v.Num
	}
	return 0
}

// Text returns the string form of v, or "" if v is not a string.
func (v Value) Text() string {
	if v.Kind == KindString {
		return v.Str
	}
	return ""
}

// StatField describes one declared statistic column: how to label it and the
// unit it is measured in.
type StatField struct {
	Label     string `json:"label"`
	Dimension string `json:"dimension"`
}

// RunHeader carries run-level metadata. It is built once per loaded document
// and never mutated afterwards.
type RunHeader struct {
	TotalTests     int
	FailedTests    int
	Labels         []string
	ResultVersion  string
	StatsFields    map[string]StatField
	Title          string
	UpdateRefTimes bool
	Version        map[string]Value
	Duration       time.Duration
}

// RenderElementSample is one frame of one named render element within one
// test. The frame index comes from the enclosing frame group, not from the
// element payload itself. Any of the image paths may be empty, meaning the
// artifact was never produced.
type RenderElementSample struct {
	Frame        int
	Name         string
	DeltaCount   int
	Status       string
	ExitCode     int
	RefFile      string
	RefReproFile string
	RunFile      string
	DeltaFile    string
}

// TestResult is one test of the run. Diff maps render-element name to that
// element's samples, sorted ascending by frame index.
type TestResult struct {
	StartTime   time.Time
	EndTime     time.Time
	ExitCode    int
	FileName    string
	FilePath    string
	LogFile     string
	Metric      string
	Status      string
	Stats       map[string]Value
	WorkerIndex int
	Diff        map[string][]*RenderElementSample
}

// Dir returns the parent directory of the test's source file, the key used
// to group tests for presentation and reporting. Never empty: an unset file
// path groups under ".".
func (t *TestResult) Dir() string {
	return filepath.Dir(t.FilePath)
}

// ElementNames returns the render-element names of the diff index in sorted
// order, giving reports a stable iteration order.
func (t *TestResult) ElementNames() []string {
	names := make([]string, 0, len(t.Diff))
	for name := range t.Diff {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SampleCount returns the total number of samples across all element names.
func (t *TestResult) SampleCount() int {
	n := 0
	for _, samples := range t.Diff {
		n += len(samples)
	}
	return n
}
