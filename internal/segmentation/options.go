package segmentation

import "fmt"

// BinarizeOptions configures the ink-mask pipeline.
type BinarizeOptions struct {
	// Edge-preserving smoothing
	BilateralDiameter int
	SigmaColor        float64
	SigmaSpace        float64

	// Adaptive Gaussian threshold
	BlockSize int
	Bias      float64

	// Square structuring element used for the opening pass. Zero disables it.
	OpeningSize int

	// Performance options
	MaxWorkers int
}

// DefaultBinarizeOptions returns the thresholds tuned for 300 DPI scans.
func DefaultBinarizeOptions() BinarizeOptions {
	return BinarizeOptions{
		BilateralDiameter: 9,
		SigmaColor:        75,
		SigmaSpace:        75,
		BlockSize:         41,
		Bias:              10,
		OpeningSize:       2,
		MaxWorkers:        0, // Use default CPU count
	}
}

// WithBlock overrides the adaptive threshold neighbourhood and bias.
func (o BinarizeOptions) WithBlock(size int, bias float64) BinarizeOptions {
	o.BlockSize = size
	o.Bias = bias
	return o
}

// WithoutSmoothing disables the bilateral pass. Useful for already clean scans.
func (o BinarizeOptions) WithoutSmoothing() BinarizeOptions {
	o.BilateralDiameter = 0
	return o
}

// Validate reports the first invalid field.
func (o BinarizeOptions) Validate() error {
	if o.BlockSize < 3 || o.BlockSize%2 == 0 {
		return fmt.Errorf("block size must be odd and >= 3 (got %d)", o.BlockSize)
	}
	if o.BilateralDiameter < 0 {
		return fmt.Errorf("bilateral diameter must be >= 0 (got %d)", o.BilateralDiameter)
	}
	if o.BilateralDiameter > 0 && (o.SigmaColor <= 0 || o.SigmaSpace <= 0) {
		return fmt.Errorf("bilateral sigmas must be > 0 (got color=%g, space=%g)", o.SigmaColor, o.SigmaSpace)
	}
	if o.OpeningSize < 0 {
		return fmt.Errorf("opening size must be >= 0 (got %d)", o.OpeningSize)
	}
	return nil
}

// SegmentOptions configures horizontal projection line segmentation.
// Gaps and heights are in pixels of the rasterized page.
type SegmentOptions struct {
	// Rows whose ink count is at or below NoiseFloorRatio * max(profile) are blank.
	NoiseFloorRatio float64
	// Ink rows further apart than SplitGap start a new raw interval.
	SplitGap int
	// Neighbouring intervals separated by fewer than MergeGap blank rows are joined.
	MergeGap int
	// Merged intervals must be strictly taller than MinHeight.
	MinHeight int
	// Vertical padding added on both sides of the crop.
	Padding int
}

// DefaultSegmentOptions returns the defaults used for handwritten answer sheets.
func DefaultSegmentOptions() SegmentOptions {
	return SegmentOptions{
		NoiseFloorRatio: 0.02,
		SplitGap:        15,
		MergeGap:        40,
		MinHeight:       30,
		Padding:         20,
	}
}

// WithGaps overrides the split and merge tolerances.
func (o SegmentOptions) WithGaps(split, merge int) SegmentOptions {
	o.SplitGap = split
	o.MergeGap = merge
	return o
}

// Validate reports the first invalid field.
func (o SegmentOptions) Validate() error {
	if o.NoiseFloorRatio < 0 || o.NoiseFloorRatio >= 1 {
		return fmt.Errorf("noise floor ratio must be in [0,1) (got %g)", o.NoiseFloorRatio)
	}
	if o.SplitGap < 1 {
		return fmt.Errorf("split gap must be >= 1 (got %d)", o.SplitGap)
	}
	if o.MergeGap < 0 || o.MinHeight < 0 || o.Padding < 0 {
		return fmt.Errorf("merge gap, min height and padding must be >= 0 (got %d, %d, %d)",
			o.MergeGap, o.MinHeight, o.Padding)
	}
	return nil
}
