package analyzer

import (
	"image"
	"math"
	"math/rand"
)

// segment is a detected straight edge between two pixel positions.
type segment struct {
	x1, y1, x2, y2 int
}

// angle returns the segment's inclination from horizontal in degrees.
func (s segment) angle() float64 {
	return math.Atan2(float64(s.y2-s.y1), float64(s.x2-s.x1)) * 180 / math.Pi
}

type houghParams struct {
	threshold  int
	minLength  int
	maxGap     int
	angleSteps int
	seed       int64
}

const houghShift = 16

// probabilisticHough finds line segments in a binary edge map. Edge pixels
// are visited in random order (seeded, so results are reproducible); each
// vote that pushes an accumulator cell past threshold triggers a walk along
// the corresponding line, and the walked pixels are removed from further
// voting.
func probabilisticHough(edges *image.Gray, p houghParams) []segment {
	bounds := edges.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return nil
	}

	numAngle := p.angleSteps
	numRho := (width+height)*2 + 1
	theta := math.Pi / float64(numAngle)
	cosTab := make([]float64, numAngle)
	sinTab := make([]float64, numAngle)
	for n := 0; n < numAngle; n++ {
		cosTab[n] = math.Cos(float64(n) * theta)
		sinTab[n] = math.Sin(float64(n) * theta)
	}

	mask := make([]bool, width*height)
	var points []int
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if edges.Pix[edges.PixOffset(bounds.Min.X+x, bounds.Min.Y+y)] != 0 {
				mask[y*width+x] = true
				points = append(points, y*width+x)
			}
		}
	}

	accum := make([]int, numAngle*numRho)
	rhoIndex := func(n, x, y int) int {
		r := int(math.RoundToEven(float64(x)*cosTab[n] + float64(y)*sinTab[n]))
		return n*numRho + r + (numRho-1)/2
	}

	rng := rand.New(rand.NewSource(p.seed))
	var out []segment

	for count := len(points); count > 0; count-- {
		idx := rng.Intn(count)
		pt := points[idx]
		points[idx] = points[count-1]
		if !mask[pt] {
			continue
		}
		px, py := pt%width, pt/width

		maxVal, maxN := p.threshold-1, 0
		for n := 0; n < numAngle; n++ {
			cell := rhoIndex(n, px, py)
			accum[cell]++
			if accum[cell] > maxVal {
				maxVal, maxN = accum[cell], n
			}
		}
		if maxVal < p.threshold {
			continue
		}

		// Walk along the line through (px, py) in both directions.
		a, b := -sinTab[maxN], cosTab[maxN]
		var x0, y0, dx0, dy0 int
		xflag := math.Abs(a) > math.Abs(b)
		x0, y0 = px, py
		if xflag {
			dx0 = sign(a)
			dy0 = int(math.RoundToEven(b * float64(int(1)<<houghShift) / math.Abs(a)))
			y0 = (y0 << houghShift) + (1 << (houghShift - 1))
		} else {
			dy0 = sign(b)
			dx0 = int(math.RoundToEven(a * float64(int(1)<<houghShift) / math.Abs(b)))
			x0 = (x0 << houghShift) + (1 << (houghShift - 1))
		}

		pixel := func(x, y int) (int, int) {
			if xflag {
				return x, y >> houghShift
			}
			return x >> houghShift, y
		}

		var ends [2][2]int
		for k := 0; k < 2; k++ {
			dx, dy := dx0, dy0
			if k > 0 {
				dx, dy = -dx, -dy
			}
			gap := 0
			for x, y := x0, y0; ; x, y = x+dx, y+dy {
				j, i := pixel(x, y)
				if j < 0 || j >= width || i < 0 || i >= height {
					break
				}
				if mask[i*width+j] {
					gap = 0
					ends[k] = [2]int{j, i}
				} else if gap++; gap > p.maxGap {
					break
				}
			}
		}

		good := abs(ends[1][0]-ends[0][0]) >= p.minLength || abs(ends[1][1]-ends[0][1]) >= p.minLength

		for k := 0; k < 2; k++ {
			dx, dy := dx0, dy0
			if k > 0 {
				dx, dy = -dx, -dy
			}
			for x, y := x0, y0; ; x, y = x+dx, y+dy {
				j, i := pixel(x, y)
				if j < 0 || j >= width || i < 0 || i >= height {
					break
				}
				if mask[i*width+j] {
					if good {
						for n := 0; n < numAngle; n++ {
							accum[rhoIndex(n, j, i)]--
						}
					}
					mask[i*width+j] = false
				}
				if j == ends[k][0] && i == ends[k][1] {
					break
				}
			}
		}

		if good {
			out = append(out, segment{x1: ends[0][0], y1: ends[0][1], x2: ends[1][0], y2: ends[1][1]})
		}
	}
	return out
}

func sign(v float64) int {
	if v > 0 {
		return 1
	}
	return -1
}
