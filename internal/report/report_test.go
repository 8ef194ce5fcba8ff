package report

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/renderwatch/renderwatch/internal/results"
	"github.com/renderwatch/renderwatch/internal/severity"
)

func writeGrayPNG(t *testing.T, path string, width, height int, fn func(x, y int) uint8) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetGray(x, y, color.Gray{Y: fn(x, y)})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

// tenPercentPair writes a reference image and a run image where exactly 10%
// of pixels differ strongly.
func tenPercentPair(t *testing.T, dir string) (runPath, refPath string) {
	t.Helper()
	runPath = filepath.Join(dir, "run.png")
	refPath = filepath.Join(dir, "ref.png")
	writeGrayPNG(t, refPath, 10, 10, func(x, y int) uint8 { return 40 })
	writeGrayPNG(t, runPath, 10, 10, func(x, y int) uint8 {
		if y == 0 {
			return 255
		}
		return 40
	})
	return runPath, refPath
}

func singleSampleTest(dir, file, element, runPath, refPath string) *results.TestResult {
	return &results.TestResult{
		FileName: file,
		FilePath: filepath.Join(dir, file),
		Status:   "done",
		Diff: map[string][]*results.RenderElementSample{
			element: {{
				Frame:   0,
				Name:    element,
				Status:  "done",
				RunFile: runPath,
				RefFile: refPath,
			}},
		},
	}
}

func TestGenerate_SoftScenario(t *testing.T) {
	dir := t.TempDir()
	runPath, refPath := tenPercentPair(t, dir)
	tests := []*results.TestResult{
		singleSampleTest("scenes/wood", "chair.hip", "beauty", runPath, refPath),
	}

	rep := Generate(context.Background(), tests, DefaultOptions())
	if len(rep.Entries) != 1 {
		t.Fatalf("got %d entries", len(rep.Entries))
	}
	e := rep.Entries[0]
	if e.Element != "beauty" {
		t.Fatalf("element = %q", e.Element)
	}
	if e.Level != severity.Soft {
		t.Fatalf("level = %s, want SOFT", e.Level)
	}
	if e.Intensity != 2 {
		t.Fatalf("intensity = %d, want 2", e.Intensity)
	}
	if math.Abs(e.DiffPercent-10.0) > 1e-9 {
		t.Fatalf("diff%% = %f, want 10.0", e.DiffPercent)
	}
	if e.Directory != "scenes/wood" || e.Test != "chair.hip" {
		t.Fatalf("row identity = %q/%q", e.Directory, e.Test)
	}
	if e.Message != "done" {
		t.Fatalf("message = %q", e.Message)
	}
}

func TestGenerate_HardScenario(t *testing.T) {
	dir := t.TempDir()
	refPath := filepath.Join(dir, "ref.png")
	writeGrayPNG(t, refPath, 10, 10, func(x, y int) uint8 { return 0 })
	tests := []*results.TestResult{
		singleSampleTest("scenes/wood", "chair.hip", "beauty",
			filepath.Join(dir, "never_rendered.png"), refPath),
	}

	rep := Generate(context.Background(), tests, DefaultOptions())
	if len(rep.Entries) != 1 {
		t.Fatalf("got %d entries", len(rep.Entries))
	}
	e := rep.Entries[0]
	if e.Level != severity.Hard {
		t.Fatalf("level = %s, want HARD", e.Level)
	}
	if e.Intensity != 20 {
		t.Fatalf("intensity = %d, want 20", e.Intensity)
	}
	if e.Message != "Rendering failed" {
		t.Fatalf("message = %q", e.Message)
	}
	if e.DiffCount != 0 || e.PixelCount != 0 || e.MSE != 0 {
		t.Fatalf("expected zeroed metrics fields, got %+v", e)
	}
}

func TestGenerate_ExcludedDirectory(t *testing.T) {
	dir := t.TempDir()
	runPath, refPath := tenPercentPair(t, dir)
	tests := []*results.TestResult{
		singleSampleTest("emulation", "staging.hip", "beauty", runPath, refPath),
		singleSampleTest("scenes/wood", "chair.hip", "beauty", runPath, refPath),
	}

	rep := Generate(context.Background(), tests, DefaultOptions())
	if len(rep.Entries) != 1 {
		t.Fatalf("got %d entries, want excluded dir filtered", len(rep.Entries))
	}
	if rep.Entries[0].Directory != "scenes/wood" {
		t.Fatalf("directory = %q", rep.Entries[0].Directory)
	}
	if rep.Summary.Total != 1 {
		t.Fatalf("summary total = %d, want 1", rep.Summary.Total)
	}
}

func TestGenerate_EverySampleYieldsOneRow(t *testing.T) {
	dir := t.TempDir()
	runPath, refPath := tenPercentPair(t, dir)

	sample := func(frame int, name string) *results.RenderElementSample {
		return &results.RenderElementSample{
			Frame: frame, Name: name, Status: "done",
			RunFile: runPath, RefFile: refPath,
		}
	}
	tests := []*results.TestResult{
		{
			FileName: "a.hip", FilePath: "scenes/a/a.hip",
			Diff: map[string][]*results.RenderElementSample{
				"beauty":  {sample(0, "beauty"), sample(1, "beauty")},
				"diffuse": {sample(0, "diffuse")},
			},
		},
		{
			FileName: "b.hip", FilePath: "scenes/b/b.hip",
			Diff: map[string][]*results.RenderElementSample{
				"beauty": {sample(0, "beauty")},
			},
		},
	}

	rep := Generate(context.Background(), tests, DefaultOptions())
	if len(rep.Entries) != 4 {
		t.Fatalf("got %d entries, want 4", len(rep.Entries))
	}

	// Directory of first appearance, then test, then sorted element name,
	// then frame.
	type key struct{ dir, test, element string }
	wantOrder := []key{
		{"scenes/a", "a.hip", "beauty"},
		{"scenes/a", "a.hip", "beauty"},
		{"scenes/a", "a.hip", "diffuse"},
		{"scenes/b", "b.hip", "beauty"},
	}
	for i, want := range wantOrder {
		e := rep.Entries[i]
		if e.Directory != want.dir || e.Test != want.test || e.Element != want.element {
			t.Fatalf("entry %d = %q/%q/%q, want %+v", i, e.Directory, e.Test, e.Element, want)
		}
	}
}

func TestGenerate_ParallelMatchesSequential(t *testing.T) {
	dir := t.TempDir()
	runPath, refPath := tenPercentPair(t, dir)

	var tests []*results.TestResult
	for _, name := range []string{"a.hip", "b.hip", "c.hip", "d.hip", "e.hip"} {
		tests = append(tests, singleSampleTest("scenes/x", name, "beauty", runPath, refPath))
	}

	sequential := Generate(context.Background(), tests, DefaultOptions())
	parallelOpts := DefaultOptions()
	parallelOpts.Workers = 4
	parallel := Generate(context.Background(), tests, parallelOpts)

	if !reflect.DeepEqual(sequential.Entries, parallel.Entries) {
		t.Fatal("parallel generation changed the table")
	}
	if !reflect.DeepEqual(sequential.Summary, parallel.Summary) {
		t.Fatal("parallel generation changed the summary")
	}
}

func TestSummarize(t *testing.T) {
	entries := []Entry{
		{Directory: "a", Level: severity.Good, MSE: 1, DiffPercent: 2},
		{Directory: "a", Level: severity.Soft, MSE: 50, DiffPercent: 60},
		{Directory: "a", Level: severity.Hard, MSE: 0, DiffPercent: 0},
		{Directory: "b", Level: severity.Hard, MSE: 0, DiffPercent: 0},
		{Directory: "b", Level: severity.Good, MSE: 10, DiffPercent: 51},
	}

	s := summarize(entries, 2)
	if s.Total != 5 || s.Good != 2 || s.Soft != 1 || s.Hard != 2 {
		t.Fatalf("counts = %+v", s)
	}
	if s.HighDiff != 2 {
		t.Fatalf("highDiff = %d, want 2 (strictly above 50)", s.HighDiff)
	}
	if s.HardRatio != 0.4 || s.SoftRatio != 0.2 || s.GoodRatio != 0.4 {
		t.Fatalf("ratios = %f/%f/%f", s.GoodRatio, s.SoftRatio, s.HardRatio)
	}
	if s.HardByDir["a"] != 1 || s.HardByDir["b"] != 1 {
		t.Fatalf("hardByDir = %v", s.HardByDir)
	}
	if len(s.TopByMSE) != 2 || s.TopByMSE[0].MSE != 50 || s.TopByMSE[1].MSE != 10 {
		t.Fatalf("topByMSE = %+v", s.TopByMSE)
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := summarize(nil, 5)
	if s.Total != 0 || s.GoodRatio != 0 || len(s.TopByMSE) != 0 {
		t.Fatalf("empty summary = %+v", s)
	}
}
