package imagediff

import "math"

// Standard single-scale SSIM parameters (Wang et al. 2004): 11x11 Gaussian
// window with sigma 1.5, K1/K2 stability constants, 8-bit dynamic range.
const (
	ssimWindow = 11
	ssimSigma  = 1.5
	ssimK1     = 0.01
	ssimK2     = 0.03
	ssimL      = 255.0
)

// ssim computes the mean structural similarity index between two equal-shape
// grayscale frames. Windows are slid over the valid region only (no padding);
// the reported value is the mean local SSIM over all window positions. For
// frames smaller than the window, a single window covering the whole frame is
// used.
func ssim(a, b grayFrame) float64 {
	win := ssimWindow
	if a.width < win {
		win = a.width
	}
	if a.height < win {
		win = a.height
	}
	if win == 0 {
		return 0
	}
	kernel := gaussianKernel(win, ssimSigma)

	c1 := (ssimK1 * ssimL) * (ssimK1 * ssimL)
	c2 := (ssimK2 * ssimL) * (ssimK2 * ssimL)

	var sum float64
	var count int
	for y := 0; y+win <= a.height; y++ {
		for x := 0; x+win <= a.width; x++ {
			var muA, muB float64
			for wy := 0; wy < win; wy++ {
				row := (y + wy) * a.width
				krow := wy * win
				for wx := 0; wx < win; wx++ {
					w := kernel[krow+wx]
					muA += w * a.pix[row+x+wx]
					muB += w * b.pix[row+x+wx]
				}
			}

			var varA, varB, cov float64
			for wy := 0; wy < win; wy++ {
				row := (y + wy) * a.width
				krow := wy * win
				for wx := 0; wx < win; wx++ {
					w := kernel[krow+wx]
					da := a.pix[row+x+wx] - muA
					db := b.pix[row+x+wx] - muB
					varA += w * da * da
					varB += w * db * db
					cov += w * da * db
				}
			}

			numerator := (2*muA*muB + c1) * (2*cov + c2)
			denominator := (muA*muA + muB*muB + c1) * (varA + varB + c2)
			sum += numerator / denominator
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// gaussianKernel builds a normalized size x size Gaussian weight matrix.
func gaussianKernel(size int, sigma float64) []float64 {
	kernel := make([]float64, size*size)
	center := float64(size-1) / 2
	var total float64
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := float64(x) - center
			dy := float64(y) - center
			w := math.Exp(-(dx*dx + dy*dy) / (2 * sigma * sigma))
			kernel[y*size+x] = w
			total += w
		}
	}
	for i := range kernel {
		kernel[i] /= total
	}
	return kernel
}
