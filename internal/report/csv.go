package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// csvHeader is the export column order; it matches Entry's field order.
var csvHeader = []string{
	"directory", "test", "element",
	"mse", "ssim", "diff_percentage",
	"delta_count", "diff_count", "pixel_count",
	"problem_level", "level", "message",
}

// ExportCSV writes the full entry table to path as comma-separated values
// with a header row, overwriting any prior export. A write failure is fatal
// to the caller: the report's value is the persisted table.
func (r *Report) ExportCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report table: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("write report table: %w", err)
	}
	for _, e := range r.Entries {
		row := []string{
			e.Directory,
			e.Test,
			e.Element,
			formatFloat(e.MSE),
			formatFloat(e.SSIM),
			formatFloat(e.DiffPercent),
			strconv.Itoa(e.DeltaCount),
			strconv.Itoa(e.DiffCount),
			strconv.Itoa(e.PixelCount),
			string(e.Level),
			strconv.Itoa(e.Intensity),
			e.Message,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write report table: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write report table: %w", err)
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
