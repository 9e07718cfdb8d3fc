package transcription

import (
	"context"
	"image"
	"image/color"
	"testing"
)

func TestDownscale_HalvesDimensions(t *testing.T) {
	src := image.NewGray(image.Rect(10, 20, 210, 120))
	dst := Downscale(src, 0.5)

	if dst.Bounds() != image.Rect(0, 0, 100, 50) {
		t.Errorf("Expected 100x50 at origin, got %v", dst.Bounds())
	}
}

func TestDownscale_NeverEmpty(t *testing.T) {
	dst := Downscale(image.NewGray(image.Rect(0, 0, 1, 1)), 0.5)
	if dst.Bounds().Dx() != 1 || dst.Bounds().Dy() != 1 {
		t.Errorf("Expected 1x1 result, got %v", dst.Bounds())
	}
}

func TestToRGBA_AnchorsAtOrigin(t *testing.T) {
	src := image.NewGray(image.Rect(5, 5, 15, 25))
	src.SetGray(5, 5, color.Gray{Y: 200})
	dst := ToRGBA(src)

	if dst.Bounds() != image.Rect(0, 0, 10, 20) {
		t.Fatalf("Unexpected bounds %v", dst.Bounds())
	}
	if r, _, _, _ := dst.At(0, 0).RGBA(); r>>8 != 200 {
		t.Errorf("Expected copied pixel value 200, got %d", r>>8)
	}
}

func TestDarkOnLight(t *testing.T) {
	mask := image.NewGray(image.Rect(0, 0, 10, 10))
	mask.SetGray(3, 3, color.Gray{Y: 255})

	out := darkOnLight(mask)
	g := color.GrayModel.Convert(out.At(0, 0)).(color.Gray).Y
	if g != 255 {
		t.Errorf("Expected background to become white, got %d", g)
	}
	g = color.GrayModel.Convert(out.At(3, 3)).(color.Gray).Y
	if g != 0 {
		t.Errorf("Expected ink to become black, got %d", g)
	}

	light := image.NewGray(image.Rect(0, 0, 4, 4))
	for i := range light.Pix {
		light.Pix[i] = 240
	}
	if darkOnLight(light) != image.Image(light) {
		t.Error("Expected light image to pass through unchanged")
	}
}

func TestIsBlank(t *testing.T) {
	uniform := image.NewGray(image.Rect(0, 0, 20, 20))
	if !isBlank(uniform, 4) {
		t.Error("Expected uniform image to be blank")
	}
	if !isBlank(image.NewGray(image.Rect(0, 0, 2, 50)), 4) {
		t.Error("Expected narrow image to be blank")
	}
	uniform.SetGray(7, 7, color.Gray{Y: 255})
	if isBlank(uniform, 4) {
		t.Error("Expected image with ink not to be blank")
	}
}

func TestTesseract_BlankRegionSkipsEngine(t *testing.T) {
	tr := NewTesseractTranscriber(DefaultConfig())
	texts, err := tr.Transcribe(context.Background(), image.NewGray(image.Rect(0, 0, 50, 20)), ModeParagraph)
	if err != nil {
		t.Fatalf("Expected no error for blank region, got %v", err)
	}
	if len(texts) != 0 {
		t.Errorf("Expected no text, got %v", texts)
	}
	if tr.(*tesseractTranscriber).client != nil {
		t.Error("Expected engine to stay uninitialized for blank regions")
	}
	if err := tr.Close(); err != nil {
		t.Errorf("Close on an unused transcriber returned %v", err)
	}
}

func TestFunc_Adapter(t *testing.T) {
	var gotMode Mode
	tr := Func(func(_ context.Context, _ image.Image, mode Mode) ([]string, error) {
		gotMode = mode
		return []string{"ok"}, nil
	})
	texts, err := tr.Transcribe(context.Background(), nil, ModeFragments)
	if err != nil || len(texts) != 1 || gotMode != ModeFragments {
		t.Errorf("Unexpected adapter result %v, %v, mode %v", texts, err, gotMode)
	}
	if ModeParagraph.String() != "paragraph" {
		t.Errorf("Unexpected mode name %q", ModeParagraph.String())
	}
}
