// Package imagediff computes pixel-level similarity metrics between a
// rendered image and its reference.
package imagediff

import (
	"image"
	"image/color"
	"os"

	// Renderers emit more than PNG; register the extra decoders so
	// image.Decode handles whatever the run produced.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// Metrics holds the comparison result for one image pair, computed over the
// full grayscale frame.
type Metrics struct {
	TotalPixels int
	DiffPixels  int
	MSE         float64
	SSIM        float64
}

// DiffPercent returns the percentage of pixels that differ.
func (m *Metrics) DiffPercent() float64 {
	if m.TotalPixels == 0 {
		return 0
	}
	return float64(m.DiffPixels) / float64(m.TotalPixels) * 100
}

// Compute compares the run image against the reference image and returns the
// metrics, or nil when the pair is not computable: either path missing or not
// a regular file, either image undecodable, or the two images differing in
// shape. Not-computable is an expected outcome for renders that failed or
// never produced output, so it is not reported as an error.
func Compute(runPath, refPath string) *Metrics {
	run, ok := loadGray(runPath)
	if !ok {
		return nil
	}
	ref, ok := loadGray(refPath)
	if !ok {
		return nil
	}
	if run.width != ref.width || run.height != ref.height {
		return nil
	}

	total := run.width * run.height
	metrics := &Metrics{TotalPixels: total}
	var sqSum float64
	for i := 0; i < total; i++ {
		d := run.pix[i] - ref.pix[i]
		if d != 0 {
			metrics.DiffPixels++
		}
		sqSum += d * d
	}
	if total > 0 {
		metrics.MSE = sqSum / float64(total)
	}
	metrics.SSIM = ssim(run, ref)
	return metrics
}

// grayFrame is a decoded image reduced to 8-bit grayscale intensities.
type grayFrame struct {
	pix    []float64
	width  int
	height int
}

// loadGray opens, decodes, and grayscale-converts one image. Any failure on
// the way (missing file, directory, I/O error, decode error) reports not-ok.
func loadGray(path string) (grayFrame, bool) {
	if path == "" {
		return grayFrame{}, false
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return grayFrame{}, false
	}
	f, err := os.Open(path)
	if err != nil {
		return grayFrame{}, false
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return grayFrame{}, false
	}

	bounds := img.Bounds()
	frame := grayFrame{
		width:  bounds.Dx(),
		height: bounds.Dy(),
	}
	frame.pix = make([]float64, 0, frame.width*frame.height)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			gray := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			frame.pix = append(frame.pix, float64(gray.Y))
		}
	}
	return frame, true
}
