package ocr

import (
	"image"

	"github.com/disintegration/imaging"
)

// Binarization window and bias, matching the adaptive-threshold settings the
// recognition chain was tuned with.
const (
	thresholdWindow = 11
	thresholdBias   = 2
)

// denoiseSigma is the Gaussian radius used to knock out scanner speckle
// before binarization.
const denoiseSigma = 0.6

// preprocess runs the recognition-oriented cleanup chain on one page image:
// grayscale conversion, histogram equalization, denoising, then adaptive
// binarization. The output is a black-and-white image Tesseract handles far
// better than raw scanner output.
func preprocess(src image.Image) image.Image {
	gray := toGray(imaging.Grayscale(src))
	equalized := equalize(gray)
	denoised := toGray(imaging.Blur(equalized, denoiseSigma))
	return adaptiveThreshold(denoised, thresholdWindow, thresholdBias)
}

func toGray(src image.Image) *image.Gray {
	if g, ok := src.(*image.Gray); ok {
		return g
	}
	b := src.Bounds()
	gray := image.NewGray(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			gray.Set(x, y, src.At(x, y))
		}
	}
	return gray
}

// equalize performs histogram equalization over the whole page, spreading
// the tonal range of washed-out scans.
func equalize(src *image.Gray) *image.Gray {
	b := src.Bounds()
	total := b.Dx() * b.Dy()
	if total == 0 {
		return src
	}

	var hist [256]int
	for _, px := range src.Pix {
		hist[px]++
	}

	// Cumulative distribution mapped back to 0..255.
	var lut [256]uint8
	cum := 0
	for i := 0; i < 256; i++ {
		cum += hist[i]
		lut[i] = uint8(cum * 255 / total)
	}

	out := image.NewGray(b)
	for i, px := range src.Pix {
		out.Pix[i] = lut[px]
	}
	return out
}

// adaptiveThreshold binarizes with a per-pixel threshold derived from the
// local mean over a window of the given size, minus a small bias. Local
// thresholds survive uneven scan lighting where a global cutoff fails.
func adaptiveThreshold(src *image.Gray, window, bias int) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(b)
	if w == 0 || h == 0 {
		return out
	}

	// Integral image for O(1) window means.
	integral := make([]int64, (w+1)*(h+1))
	for y := 0; y < h; y++ {
		var rowSum int64
		for x := 0; x < w; x++ {
			rowSum += int64(src.Pix[y*src.Stride+x])
			integral[(y+1)*(w+1)+x+1] = integral[y*(w+1)+x+1] + rowSum
		}
	}

	half := window / 2
	for y := 0; y < h; y++ {
		y0, y1 := max(0, y-half), min(h-1, y+half)
		for x := 0; x < w; x++ {
			x0, x1 := max(0, x-half), min(w-1, x+half)
			count := int64((y1 - y0 + 1) * (x1 - x0 + 1))
			sum := integral[(y1+1)*(w+1)+x1+1] -
				integral[y0*(w+1)+x1+1] -
				integral[(y1+1)*(w+1)+x0] +
				integral[y0*(w+1)+x0]
			mean := sum / count
			if int64(src.Pix[y*src.Stride+x]) > mean-int64(bias) {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out
}
