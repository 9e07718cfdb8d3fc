package analyzer

import (
	"image"
	"math"
	"sort"
	"sync"

	"go-script-evaluator/internal/segmentation"

	"gonum.org/v1/gonum/stat"
)

// metricsCalculator implements MetricsCalculator on top of Gonum statistics.
type metricsCalculator struct {
	opts      MetricsOptions
	slicePool sync.Pool
}

// NewMetricsCalculator creates a presentation metrics calculator.
func NewMetricsCalculator(opts MetricsOptions) MetricsCalculator {
	return &metricsCalculator{
		opts: opts,
		slicePool: sync.Pool{
			New: func() interface{} {
				return make([]float64, 0, 64)
			},
		},
	}
}

// Calculate runs every enabled metric over one page.
func (mc *metricsCalculator) Calculate(regions []segmentation.LineRegion) PageMetrics {
	m := PageMetrics{
		Lines:    len(regions),
		Neatness: mc.Neatness(regions),
	}
	if !mc.opts.SkipSlant {
		m.Slant = mc.Slant(regions)
	}
	if !mc.opts.SkipContent {
		m.WordCount = mc.EstimateContent(regions)
	}
	return m
}

// Neatness blends line height consistency with left margin alignment.
// Both terms use population standard deviations and are floored at 0.
func (mc *metricsCalculator) Neatness(regions []segmentation.LineRegion) float64 {
	if len(regions) == 0 {
		return 0
	}

	heights := mc.slicePool.Get().([]float64)[:0]
	margins := mc.slicePool.Get().([]float64)[:0]
	defer func() {
		mc.slicePool.Put(heights[:0])
		mc.slicePool.Put(margins[:0])
	}()

	for _, r := range regions {
		heights = append(heights, float64(r.Bounds.Dy()))
		if col, ok := leftmostInk(r.Mask); ok {
			margins = append(margins, float64(col))
		}
	}

	_, heightSigma := stat.PopMeanStdDev(heights, nil)
	consistency := math.Max(0, 100-heightSigma*mc.opts.HeightPenalty)

	marginSigma := mc.opts.FallbackMarginSpread
	if len(margins) > 0 {
		_, marginSigma = stat.PopMeanStdDev(margins, nil)
	}
	alignment := math.Max(0, 100-marginSigma*mc.opts.MarginPenalty)

	return round2(consistency*mc.opts.HeightWeight + alignment*mc.opts.MarginWeight)
}

// Slant is the mean over lines of the median near-horizontal segment angle.
// Lines are processed on a worker pool; each job writes only its own slot.
func (mc *metricsCalculator) Slant(regions []segmentation.LineRegion) float64 {
	if len(regions) == 0 {
		return 0
	}

	medians := make([]float64, len(regions))
	valid := make([]bool, len(regions))

	forEachLine(len(regions), func(i int) {
		medians[i], valid[i] = mc.lineSlant(regions[i].Mask)
	})

	var slants []float64
	for i, ok := range valid {
		if ok {
			slants = append(slants, medians[i])
		}
	}
	if len(slants) == 0 {
		return 0
	}
	return round2(stat.Mean(slants, nil))
}

func (mc *metricsCalculator) lineSlant(mask *image.Gray) (float64, bool) {
	edges := canny(mask, mc.opts.CannyLow, mc.opts.CannyHigh)
	segments := probabilisticHough(edges, houghParams{
		threshold:  mc.opts.HoughThreshold,
		minLength:  mc.opts.MinLineLength,
		maxGap:     mc.opts.MaxLineGap,
		angleSteps: 180,
		seed:       mc.opts.Seed,
	})

	var angles []float64
	for _, s := range segments {
		if a := s.angle(); math.Abs(a) < mc.opts.MaxSlantAngle {
			angles = append(angles, a)
		}
	}
	if len(angles) == 0 {
		return 0, false
	}
	return median(angles), true
}

// EstimateContent approximates the word count by dilating strokes into
// word-sized blobs and counting them per line.
func (mc *metricsCalculator) EstimateContent(regions []segmentation.LineRegion) int {
	counts := make([]int, len(regions))
	forEachLine(len(regions), func(i int) {
		dilated := segmentation.Dilate(regions[i].Mask, mc.opts.WordKernelWidth, mc.opts.WordKernelHeight)
		counts[i] = countComponents(dilated)
	})

	total := 0
	for _, c := range counts {
		total += c
	}
	return total
}

// leftmostInk returns the smallest ink column relative to the crop.
func leftmostInk(mask *image.Gray) (int, bool) {
	if mask == nil {
		return 0, false
	}
	b := mask.Bounds()
	best := -1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := mask.Pix[mask.PixOffset(b.Min.X, y):]
		limit := b.Dx()
		if best >= 0 {
			limit = best
		}
		for x := 0; x < limit; x++ {
			if row[x] != 0 {
				best = x
				break
			}
		}
	}
	return best, best >= 0
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
