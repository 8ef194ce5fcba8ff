package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/renderwatch/renderwatch/internal/severity"
)

// highDiffPercent is the diff percentage above which a row counts as a high
// difference in the summary.
const highDiffPercent = 50.0

// Summary holds the statistics computed over the filtered entry table.
type Summary struct {
	Total     int            `json:"total"`
	Good      int            `json:"good"`
	Soft      int            `json:"soft"`
	Hard      int            `json:"hard"`
	HighDiff  int            `json:"high_diff"`
	GoodRatio float64        `json:"good_ratio"`
	SoftRatio float64        `json:"soft_ratio"`
	HardRatio float64        `json:"hard_ratio"`
	HardByDir map[string]int `json:"hard_by_dir"`
	TopByMSE  []Entry        `json:"top_by_mse"`
}

func summarize(entries []Entry, topN int) Summary {
	s := Summary{
		Total:     len(entries),
		HardByDir: make(map[string]int),
	}
	for _, e := range entries {
		switch e.Level {
		case severity.Good:
			s.Good++
		case severity.Soft:
			s.Soft++
		case severity.Hard:
			s.Hard++
			s.HardByDir[e.Directory]++
		}
		if e.DiffPercent > highDiffPercent {
			s.HighDiff++
		}
	}
	if s.Total > 0 {
		s.GoodRatio = float64(s.Good) / float64(s.Total)
		s.SoftRatio = float64(s.Soft) / float64(s.Total)
		s.HardRatio = float64(s.Hard) / float64(s.Total)
	}

	ranked := make([]Entry, len(entries))
	copy(ranked, entries)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].MSE > ranked[j].MSE
	})
	if topN > len(ranked) {
		topN = len(ranked)
	}
	if topN < 0 {
		topN = 0
	}
	s.TopByMSE = ranked[:topN]
	return s
}

// PrintSummary writes a human-readable summary.
func (s *Summary) PrintSummary(w io.Writer) {
	fmt.Fprintf(w, "\n╔══════════════════════════════════════╗\n")
	fmt.Fprintf(w, "║       RENDER COMPARISON REPORT       ║\n")
	fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
	fmt.Fprintf(w, "║ Rows:        %-23d ║\n", s.Total)
	fmt.Fprintf(w, "║ Good:        %-6d (%.1f%%)\n", s.Good, s.GoodRatio*100)
	fmt.Fprintf(w, "║ Soft:        %-6d (%.1f%%)\n", s.Soft, s.SoftRatio*100)
	fmt.Fprintf(w, "║ Hard:        %-6d (%.1f%%)\n", s.Hard, s.HardRatio*100)
	fmt.Fprintf(w, "║ Diff > %.0f%%:  %d\n", highDiffPercent, s.HighDiff)
	if len(s.HardByDir) > 0 {
		fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
		fmt.Fprintf(w, "║ HARD FAILURES BY DIRECTORY\n")
		for _, dir := range sortedKeys(s.HardByDir) {
			fmt.Fprintf(w, "║   %-28s %d\n", dir, s.HardByDir[dir])
		}
	}
	if len(s.TopByMSE) > 0 {
		fmt.Fprintf(w, "╠══════════════════════════════════════╣\n")
		fmt.Fprintf(w, "║ WORST BY MSE\n")
		for _, e := range s.TopByMSE {
			fmt.Fprintf(w, "║   %s/%s [%s] mse=%.2f ssim=%.4f\n", e.Test, e.Element, e.Level, e.MSE, e.SSIM)
		}
	}
	fmt.Fprintf(w, "╚══════════════════════════════════════╝\n")
}

// JSON returns the summary as formatted JSON.
func (s *Summary) JSON() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
