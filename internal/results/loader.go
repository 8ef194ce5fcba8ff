package results

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrParse marks structural errors in the results document. Load fails only
// on these; missing or wrongly-typed optional fields degrade to defaults,
// since upstream result producers routinely omit them.
var ErrParse = errors.New("results: malformed document")

// Original producer defaults, applied when the document omits the field.
const (
	defaultResultVersion = "3.0"
	defaultTitle         = "Results"
)

func defaultStatsFields() map[string]StatField {
	return map[string]StatField{
		"frameTime":     {Label: "Frame Time", Dimension: "s"},
		"fullFrameTime": {Label: "Full Frame Time", Dimension: "s"},
		"totalTime":     {Label: "Total Time", Dimension: "s"},
	}
}

// Load parses the raw results document into a header and the ordered test
// list. The returned slice preserves document order.
func Load(data []byte) (*RunHeader, []*TestResult, error) {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return LoadDocument(doc)
}

// LoadDocument builds the run model from an already-decoded document tree.
func LoadDocument(doc map[string]any) (*RunHeader, []*TestResult, error) {
	header, err := loadHeader(doc)
	if err != nil {
		return nil, nil, err
	}

	rawTests, _ := doc["tests"].([]any)
	tests := make([]*TestResult, 0, len(rawTests))
	for _, raw := range rawTests {
		entry, _ := raw.(map[string]any)
		tests = append(tests, loadTest(entry))
	}
	return header, tests, nil
}

func loadHeader(doc map[string]any) (*RunHeader, error) {
	header := &RunHeader{
		TotalTests:     getInt(doc, "allTestsCount", 0),
		FailedTests:    getInt(doc, "failedTestsCount", 0),
		Labels:         getStrings(doc, "labels"),
		ResultVersion:  getString(doc, "resultVersion", defaultResultVersion),
		StatsFields:    loadStatsFields(doc),
		Title:          getString(doc, "title", defaultTitle),
		UpdateRefTimes: getBool(doc, "updateRefTimes"),
		Version:        loadValueMap(doc["version"]),
	}

	duration, err := parseDuration(header.Version["duration"].Text())
	if err != nil {
		return nil, err
	}
	header.Duration = duration
	return header, nil
}

// parseDuration parses the producer's "H:MM:SS" duration format. Anything
// other than exactly three colon-separated integers is a fatal parse error.
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		s = "0:0:0"
	}
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("%w: duration %q is not H:MM:SS", ErrParse, s)
	}
	var units [3]int
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return 0, fmt.Errorf("%w: duration %q is not H:MM:SS", ErrParse, s)
		}
		units[i] = n
	}
	return time.Duration(units[0])*time.Hour +
		time.Duration(units[1])*time.Minute +
		time.Duration(units[2])*time.Second, nil
}

func loadStatsFields(doc map[string]any) map[string]StatField {
	raw, ok := doc["statsFields"].(map[string]any)
	if !ok {
		return defaultStatsFields()
	}
	fields := make(map[string]StatField, len(raw))
	for name, entry := range raw {
		spec, _ := entry.(map[string]any)
		fields[name] = StatField{
			Label:     getString(spec, "label", ""),
			Dimension: getString(spec, "dimension", ""),
		}
	}
	return fields
}

func loadTest(entry map[string]any) *TestResult {
	return &TestResult{
		EndTime:     time.Unix(int64(getFloat(entry, "endTime", 0)), 0),
		StartTime:   time.Unix(int64(getFloat(entry, "startTime", 0)), 0),
		ExitCode:    getInt(entry, "exitCode", 0),
		FileName:    getString(entry, "fileName", ""),
		FilePath:    getString(entry, "file", ""),
		LogFile:     getString(entry, "logFile", ""),
		Metric:      getString(entry, "metric", ""),
		Status:      getString(entry, "status", ""),
		Stats:       loadValueMap(entry["stats"]),
		WorkerIndex: getInt(entry, "workerIndex", 0),
		Diff:        loadDiff(entry["diff"]),
	}
}

// loadDiff turns the ordered frame-group list into the per-name diff index.
// Each frame group stamps its frame index onto every render element it
// carries; the elements are then regrouped by name and each name's list is
// sorted by frame index. The sort is stable so duplicate frame indices keep
// their document order.
func loadDiff(raw any) map[string][]*RenderElementSample {
	groups, _ := raw.([]any)
	diff := make(map[string][]*RenderElementSample)
	for _, rawGroup := range groups {
		group, _ := rawGroup.(map[string]any)
		frame := getInt(group, "frame", 0)
		elements, _ := group["renderElements"].([]any)
		for _, rawElement := range elements {
			element, _ := rawElement.(map[string]any)
			sample := loadSample(element, frame)
			diff[sample.Name] = append(diff[sample.Name], sample)
		}
	}
	for _, samples := range diff {
		sort.SliceStable(samples, func(i, j int) bool {
			return samples[i].Frame < samples[j].Frame
		})
	}
	return diff
}

func loadSample(element map[string]any, frame int) *RenderElementSample {
	return &RenderElementSample{
		Frame:        frame,
		Name:         getString(element, "name", ""),
		DeltaCount:   getInt(element, "deltaCount", 0),
		Status:       getString(element, "status", ""),
		ExitCode:     getInt(element, "exitCode", 0),
		RefFile:      getString(element, "refFile", ""),
		RefReproFile: getString(element, "refReproFile", ""),
		RunFile:      getString(element, "runFile", ""),
		DeltaFile:    getString(element, "deltaFile", ""),
	}
}

func loadValueMap(raw any) map[string]Value {
	entries, _ := raw.(map[string]any)
	values := make(map[string]Value, len(entries))
	for key, entry := range entries {
		values[key] = asValue(entry)
	}
	return values
}

func asValue(raw any) Value {
	switch v := raw.(type) {
	case float64:
		return Value{Kind: KindNumber, Num: v}
	case string:
		return Value{Kind: KindString, Str: v}
	case bool:
		return Value{Kind: KindBool, Bool: v}
	default:
		return Value{Kind: KindString}
	}
}

func getString(m map[string]any, key, fallback string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return fallback
}

func getInt(m map[string]any, key string, fallback int) int {
	if v, ok := m[key].(float64); ok {
		return int(v)
	}
	return fallback
}

func getFloat(m map[string]any, key string, fallback float64) float64 {
	if v, ok := m[key].(float64); ok {
		return v
	}
	return fallback
}

func getBool(m map[string]any, key string) bool {
	v, _ := m[key].(bool)
	return v
}

func getStrings(m map[string]any, key string) []string {
	raw, _ := m[key].([]any)
	out := make([]string, 0, len(raw))
	for _, entry := range raw {
		if s, ok := entry.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
