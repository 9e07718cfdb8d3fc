package transcription

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	"golang.org/x/image/draw"
)

// Downscale resizes img by factor with bilinear sampling and returns an RGBA
// copy anchored at the origin. Dimensions never drop below one pixel.
func Downscale(img image.Image, factor float64) *image.RGBA {
	sb := img.Bounds()
	w := max(1, int(float64(sb.Dx())*factor))
	h := max(1, int(float64(sb.Dy())*factor))
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if sb.Empty() {
		return dst
	}
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, sb, draw.Src, nil)
	return dst
}

// ToRGBA copies img into an RGBA image anchored at the origin.
func ToRGBA(img image.Image) *image.RGBA {
	sb := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, sb.Dx(), sb.Dy()))
	draw.Draw(dst, dst.Bounds(), img, sb.Min, draw.Src)
	return dst
}

// darkOnLight returns an image whose ink is dark on a light background.
// Ink masks store ink as white; the engine reads dark text more reliably.
func darkOnLight(img image.Image) image.Image {
	sb := img.Bounds()
	var sum, n int
	for y := sb.Min.Y; y < sb.Max.Y; y++ {
		for x := sb.Min.X; x < sb.Max.X; x++ {
			sum += int(color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y)
			n++
		}
	}
	if n == 0 || sum/n >= 128 {
		return img
	}

	inverted := image.NewGray(image.Rect(0, 0, sb.Dx(), sb.Dy()))
	for y := sb.Min.Y; y < sb.Max.Y; y++ {
		for x := sb.Min.X; x < sb.Max.X; x++ {
			g := color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y
			inverted.SetGray(x-sb.Min.X, y-sb.Min.Y, color.Gray{Y: 255 - g})
		}
	}
	return inverted
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// isBlank reports whether img is too small or uniform to hold text.
func isBlank(img image.Image, minSide int) bool {
	b := img.Bounds()
	if b.Dx() < minSide || b.Dy() < minSide {
		return true
	}
	first := color.GrayModel.Convert(img.At(b.Min.X, b.Min.Y)).(color.Gray).Y
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y != first {
				return false
			}
		}
	}
	return true
}
