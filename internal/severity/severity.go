// Package severity classifies image comparisons into discrete problem levels.
package severity

import (
	"math"

	"github.com/renderwatch/renderwatch/internal/imagediff"
)

// Level is the problem severity of one comparison.
type Level string

const (
	// Good: comparison succeeded and similarity is above threshold.
	Good Level = "GOOD"
	// Soft: comparison succeeded but similarity is at or below threshold.
	Soft Level = "SOFT"
	// Hard: the comparison could not be performed at all. A measurable
	// comparison is never Hard, however poor the similarity.
	Hard Level = "HARD"
)

// DefaultSSIMThreshold separates Good from Soft comparisons.
const DefaultSSIMThreshold = 0.95

// MaxIntensity is the top of the bucketed intensity scale.
const MaxIntensity = 20

const failedMessage = "Rendering failed"

// Outcome is the classification of one comparison: the level, the diff
// percentage bucketed into 5%-wide intensity bins, and a display message.
type Outcome struct {
	Level     Level
	Intensity int
	Message   string
}

// Classify maps a metrics result to its severity outcome. A nil metrics value
// means the pair was not computable and is a hard failure regardless of any
// partial data; otherwise the SSIM threshold decides Good vs Soft and the
// sample's own status string becomes the message.
func Classify(m *imagediff.Metrics, status string, ssimThreshold float64) Outcome {
	if m == nil {
		return Outcome{Level: Hard, Intensity: MaxIntensity, Message: failedMessage}
	}
	level := Soft
	if m.SSIM > ssimThreshold {
		level = Good
	}
	return Outcome{
		Level:     level,
		Intensity: IntensityOf(m.DiffPercent()),
		Message:   status,
	}
}

// IntensityOf buckets a diff percentage into [0, MaxIntensity] in 5%-wide
// bins, clamped at both ends.
func IntensityOf(diffPercent float64) int {
	level := int(math.Floor(diffPercent / 5))
	if level < 0 {
		return 0
	}
	if level > MaxIntensity {
		return MaxIntensity
	}
	return level
}
