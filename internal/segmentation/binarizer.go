package segmentation

import (
	"image"
	"image/draw"
	"math"
	"runtime"
	"sync"
)

// Ink and Background are the only two values written to an ink mask.
const (
	Ink        uint8 = 255
	Background uint8 = 0
)

// Binarizer turns a rasterized page into an ink mask.
type Binarizer interface {
	Binarize(img image.Image) *image.Gray
}

type spaceTap struct {
	dx, dy int
	weight float64
}

// binarizer implements Binarizer with an edge-preserving smoothing pass,
// a local Gaussian threshold and a small opening to drop speckle.
type binarizer struct {
	opts      BinarizeOptions
	radius    int
	taps      []spaceTap
	colorLUT  [256]float64
	gaussKern []float64
}

// NewBinarizer precomputes the filter kernels for the given options.
func NewBinarizer(opts BinarizeOptions) Binarizer {
	b := &binarizer{opts: opts}

	if opts.BilateralDiameter > 0 {
		b.radius = opts.BilateralDiameter / 2
		spaceCoeff := -0.5 / (opts.SigmaSpace * opts.SigmaSpace)
		for dy := -b.radius; dy <= b.radius; dy++ {
			for dx := -b.radius; dx <= b.radius; dx++ {
				r := math.Sqrt(float64(dx*dx + dy*dy))
				if r > float64(b.radius) {
					continue
				}
				b.taps = append(b.taps, spaceTap{dx: dx, dy: dy, weight: math.Exp(r * r * spaceCoeff)})
			}
		}
		colorCoeff := -0.5 / (opts.SigmaColor * opts.SigmaColor)
		for i := range b.colorLUT {
			b.colorLUT[i] = math.Exp(float64(i*i) * colorCoeff)
		}
	}

	b.gaussKern = gaussianKernel(opts.BlockSize)
	return b
}

// Binarize returns a mask with the same bounds as img where 255 marks ink.
// A blank page yields an all-background mask.
func (b *binarizer) Binarize(img image.Image) *image.Gray {
	gray := ToGray(img)
	bounds := gray.Bounds()
	if bounds.Empty() {
		return image.NewGray(bounds)
	}

	smoothed := gray
	if b.radius > 0 {
		smoothed = b.bilateral(gray)
	}
	mask := b.adaptiveThreshold(smoothed)
	if b.opts.OpeningSize > 1 {
		mask = Open(mask, b.opts.OpeningSize)
	}
	return mask
}

// ToGray converts any image to 8-bit luminance, preserving bounds.
func ToGray(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	draw.Draw(gray, bounds, img, bounds.Min, draw.Src)
	return gray
}

func (b *binarizer) bilateral(src *image.Gray) *image.Gray {
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	r := b.radius

	// Reflect-101 border so that edge pixels see a mirrored neighbourhood.
	pw := width + 2*r
	padded := make([]uint8, pw*(height+2*r))
	for y := 0; y < height+2*r; y++ {
		sy := reflect101(y-r, height)
		row := src.Pix[src.PixOffset(bounds.Min.X, bounds.Min.Y+sy):]
		for x := 0; x < pw; x++ {
			padded[y*pw+x] = row[reflect101(x-r, width)]
		}
	}

	offsets := make([]int, len(b.taps))
	for i, t := range b.taps {
		offsets[i] = t.dy*pw + t.dx
	}

	dst := image.NewGray(bounds)
	b.forEachStrip(height, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			out := dst.Pix[dst.PixOffset(bounds.Min.X, bounds.Min.Y+y):]
			for x := 0; x < width; x++ {
				center := (y+r)*pw + x + r
				c := int(padded[center])
				var sum, wsum float64
				for i, off := range offsets {
					v := int(padded[center+off])
					d := v - c
					if d < 0 {
						d = -d
					}
					w := b.taps[i].weight * b.colorLUT[d]
					sum += w * float64(v)
					wsum += w
				}
				out[x] = uint8(math.Round(sum / wsum))
			}
		}
	})
	return dst
}

// adaptiveThreshold marks a pixel as ink when it is darker than its
// Gaussian-weighted neighbourhood mean by at least Bias.
func (b *binarizer) adaptiveThreshold(src *image.Gray) *image.Gray {
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	kern := b.gaussKern
	half := len(kern) / 2

	horiz := make([]float64, width*height)
	b.forEachStrip(height, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			row := src.Pix[src.PixOffset(bounds.Min.X, bounds.Min.Y+y):]
			for x := 0; x < width; x++ {
				var acc float64
				for k, w := range kern {
					acc += w * float64(row[clamp(x+k-half, width)])
				}
				horiz[y*width+x] = acc
			}
		}
	})

	dst := image.NewGray(bounds)
	b.forEachStrip(height, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			row := src.Pix[src.PixOffset(bounds.Min.X, bounds.Min.Y+y):]
			out := dst.Pix[dst.PixOffset(bounds.Min.X, bounds.Min.Y+y):]
			for x := 0; x < width; x++ {
				var acc float64
				for k, w := range kern {
					acc += w * horiz[clamp(y+k-half, height)*width+x]
				}
				mean := math.Round(acc)
				if float64(row[x]) <= mean-b.opts.Bias {
					out[x] = Ink
				}
			}
		}
	})
	return dst
}

// forEachStrip splits [0,height) into horizontal strips processed on worker
// goroutines. Each strip writes disjoint rows so output is deterministic.
func (b *binarizer) forEachStrip(height int, fn func(y0, y1 int)) {
	numWorkers := b.opts.MaxWorkers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if height < numWorkers {
		numWorkers = height
	}
	if numWorkers <= 1 {
		fn(0, height)
		return
	}
	rowsPerWorker := (height + numWorkers - 1) / numWorkers // ceil division

	var wg sync.WaitGroup
	for y0 := 0; y0 < height; y0 += rowsPerWorker {
		y1 := min(y0+rowsPerWorker, height)
		wg.Add(1)
		go func(y0, y1 int) {
			defer wg.Done()
			fn(y0, y1)
		}(y0, y1)
	}
	wg.Wait()
}

// gaussianKernel builds a normalized 1D kernel with the sigma derived from
// the aperture size the usual way: 0.3*((size-1)*0.5-1)+0.8.
func gaussianKernel(size int) []float64 {
	sigma := 0.3*(float64(size-1)*0.5-1) + 0.8
	kern := make([]float64, size)
	half := size / 2
	var sum float64
	for i := range kern {
		d := float64(i - half)
		kern[i] = math.Exp(-(d * d) / (2 * sigma * sigma))
		sum += kern[i]
	}
	for i := range kern {
		kern[i] /= sum
	}
	return kern
}

func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*n - 2 - i
		}
	}
	return i
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
