package segmentation

import (
	"image"

	"go-script-evaluator/internal/logger"

	"github.com/sirupsen/logrus"
)

// LineRegion is one text line of a page. [YStart, YEnd) is the merged ink
// interval in mask coordinates; Bounds is the padded crop that Mask covers.
type LineRegion struct {
	Index  int
	YStart int
	YEnd   int
	Bounds image.Rectangle
	Mask   *image.Gray
}

// Height returns the height of the ink interval, padding excluded.
func (r LineRegion) Height() int {
	return r.YEnd - r.YStart
}

// Segmenter splits an ink mask into text lines.
type Segmenter interface {
	Segment(mask *image.Gray) []LineRegion
}

// interval is a run of ink rows; both ends are ink rows.
type interval struct {
	start, last int
}

type segmenter struct {
	opts SegmentOptions
}

// NewSegmenter creates a horizontal projection segmenter.
func NewSegmenter(opts SegmentOptions) Segmenter {
	return &segmenter{opts: opts}
}

// Segment returns line regions in strictly increasing YStart order.
// Regions never overlap and an empty mask yields no regions.
func (s *segmenter) Segment(mask *image.Gray) []LineRegion {
	bounds := mask.Bounds()
	profile := RowProfile(mask)

	raw := s.rawIntervals(profile)
	if len(raw) == 0 {
		return nil
	}
	merged := mergeAdjacent(raw, s.opts.MergeGap)

	regions := make([]LineRegion, 0, len(merged))
	for _, iv := range merged {
		if iv.last-iv.start <= s.opts.MinHeight {
			continue
		}
		top := max(bounds.Min.Y, bounds.Min.Y+iv.start-s.opts.Padding)
		bottom := min(bounds.Max.Y, bounds.Min.Y+iv.last+s.opts.Padding)
		crop := image.Rect(bounds.Min.X, top, bounds.Max.X, bottom)
		regions = append(regions, LineRegion{
			Index:  len(regions),
			YStart: bounds.Min.Y + iv.start,
			YEnd:   bounds.Min.Y + iv.last + 1,
			Bounds: crop,
			Mask:   mask.SubImage(crop).(*image.Gray),
		})
	}

	logger.WithFields(logrus.Fields{
		"raw_intervals":    len(raw),
		"merged_intervals": len(merged),
		"lines":            len(regions),
	}).Debug("Segmented page into lines")

	return regions
}

// RowProfile counts ink pixels per row.
func RowProfile(mask *image.Gray) []int {
	bounds := mask.Bounds()
	profile := make([]int, bounds.Dy())
	for y := range profile {
		row := mask.Pix[mask.PixOffset(bounds.Min.X, bounds.Min.Y+y):]
		count := 0
		for x := 0; x < bounds.Dx(); x++ {
			if row[x] != Background {
				count++
			}
		}
		profile[y] = count
	}
	return profile
}

// rawIntervals groups rows above the noise floor into runs, splitting when two
// successive ink rows are more than SplitGap apart.
func (s *segmenter) rawIntervals(profile []int) []interval {
	peak := 0
	for _, v := range profile {
		peak = max(peak, v)
	}
	if peak == 0 {
		return nil
	}
	floor := float64(peak) * s.opts.NoiseFloorRatio

	var out []interval
	start, last := -1, -1
	for y, v := range profile {
		if float64(v) <= floor {
			continue
		}
		switch {
		case start < 0:
			start = y
		case y-last > s.opts.SplitGap:
			out = append(out, interval{start: start, last: last})
			start = y
		}
		last = y
	}
	if start >= 0 {
		out = append(out, interval{start: start, last: last})
	}
	return out
}

// mergeAdjacent joins neighbouring intervals whose ink rows are less than
// mergeGap apart. It is a single greedy left-to-right pass over adjacent pairs;
// emitted intervals are never revisited.
func mergeAdjacent(raw []interval, mergeGap int) []interval {
	merged := make([]interval, 0, len(raw))
	curr := raw[0]
	for _, next := range raw[1:] {
		if next.start-curr.last < mergeGap {
			curr.last = next.last
			continue
		}
		merged = append(merged, curr)
		curr = next
	}
	return append(merged, curr)
}
