package segmentation

import "image"

// Erode applies a w×h rectangular erosion anchored at the element centre.
// Pixels outside the image do not take part.
func Erode(mask *image.Gray, w, h int) *image.Gray {
	return rectMorph(mask, w, h, w/2, h/2, false)
}

// Dilate applies a w×h rectangular dilation anchored at the element centre.
func Dilate(mask *image.Gray, w, h int) *image.Gray {
	return rectMorph(mask, w, h, w/2, h/2, true)
}

// Open erodes then dilates with a size×size square. The dilation uses the
// reflected anchor so even-sized elements do not shift the result.
func Open(mask *image.Gray, size int) *image.Gray {
	a := size / 2
	eroded := rectMorph(mask, size, size, a, a, false)
	return rectMorph(eroded, size, size, size-1-a, size-1-a, true)
}

// rectMorph is a separable min/max filter: dst(x,y) is the extremum of
// src(x+i-ax, y+j-ay) for 0 <= i < w, 0 <= j < h.
func rectMorph(src *image.Gray, w, h, ax, ay int, dilate bool) *image.Gray {
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	dst := image.NewGray(bounds)
	if width == 0 || height == 0 {
		return dst
	}

	pick := func(acc, v uint8) uint8 {
		if dilate {
			return max(acc, v)
		}
		return min(acc, v)
	}
	var init uint8 = 255
	if dilate {
		init = 0
	}

	tmp := make([]uint8, width*height)
	for y := 0; y < height; y++ {
		row := src.Pix[src.PixOffset(bounds.Min.X, bounds.Min.Y+y):]
		for x := 0; x < width; x++ {
			acc := init
			for i := 0; i < w; i++ {
				xx := x + i - ax
				if xx < 0 || xx >= width {
					continue
				}
				acc = pick(acc, row[xx])
			}
			tmp[y*width+x] = acc
		}
	}

	for y := 0; y < height; y++ {
		out := dst.Pix[dst.PixOffset(bounds.Min.X, bounds.Min.Y+y):]
		for x := 0; x < width; x++ {
			acc := init
			for j := 0; j < h; j++ {
				yy := y + j - ay
				if yy < 0 || yy >= height {
					continue
				}
				acc = pick(acc, tmp[yy*width+x])
			}
			out[x] = acc
		}
	}
	return dst
}
