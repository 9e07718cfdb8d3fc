package factory

import (
	"context"
	"image"
	"reflect"
	"testing"
	"time"

	"go-script-evaluator/internal/config"
	"go-script-evaluator/internal/grouping"
	"go-script-evaluator/internal/segmentation"
	"go-script-evaluator/internal/storage"
	"go-script-evaluator/internal/strategy"
	"go-script-evaluator/internal/syllabus"
)

func testConfig() *config.Config {
	return &config.Config{
		DocumentFetchTimeout: 5 * time.Second,
		MaxDocumentSize:      1 << 20,
		RasterDPI:            200,
		PdftoppmPath:         "pdftoppm",
		OCRLanguage:          "eng+hin",
		KeyMergePolicy:       "append",
		Thresholds:           config.DefaultThresholds(),
	}
}

func TestCreateTranscriber(t *testing.T) {
	f := NewTranscriberFactory(testConfig())

	noop, err := f.CreateTranscriber(NoopTranscriber)
	if err != nil {
		t.Fatalf("Expected noop transcriber, got %v", err)
	}
	lines, err := noop.Transcribe(context.Background(), image.NewGray(image.Rect(0, 0, 4, 4)), 0)
	if err != nil || len(lines) != 0 {
		t.Errorf("Expected noop transcriber to read nothing, got %v %v", lines, err)
	}

	if _, err := f.CreateTranscriber(TesseractTranscriber); err != nil {
		t.Errorf("Expected tesseract transcriber to be created lazily, got %v", err)
	}
	if _, err := f.CreateTranscriber("cloud"); err == nil {
		t.Error("Expected error for unsupported transcriber")
	}
}

func TestSplitLanguages(t *testing.T) {
	tests := map[string][]string{
		"eng":      {"eng"},
		"eng+hin":  {"eng", "hin"},
		"eng, hin": {"eng", "hin"},
		"":         {},
	}
	for in, want := range tests {
		got := splitLanguages(in)
		if len(got) == 0 && len(want) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("splitLanguages(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestCreateStorage(t *testing.T) {
	cfg := testConfig()
	f := NewStorageFactory(cfg)

	if _, err := f.CreateStorage(HTTPStorage); err != nil {
		t.Errorf("Expected http storage, got %v", err)
	}
	if _, err := f.CreateStorage(LocalStorage); err != nil {
		t.Errorf("Expected local storage, got %v", err)
	}
	if _, err := f.CreateStorage(AzureStorage); err == nil {
		t.Error("Expected azure storage to require credentials")
	}
	if _, err := f.CreateStorage("ftp"); err == nil {
		t.Error("Expected error for unsupported storage")
	}
}

func TestCreateRouting(t *testing.T) {
	cfg := testConfig()
	cfg.AllowLocalDocuments = true

	fetcher, err := NewStorageFactory(cfg).CreateRouting()
	if err != nil {
		t.Fatalf("Expected routing fetcher, got %v", err)
	}
	routing, ok := fetcher.(*storage.RoutingFetcher)
	if !ok {
		t.Fatalf("Expected *storage.RoutingFetcher, got %T", fetcher)
	}
	if routing.HTTP == nil || routing.Local == nil {
		t.Error("Expected http and local backends")
	}
	if routing.Blob != nil {
		t.Error("Expected no blob backend without an account")
	}
}

func TestBuildComponents(t *testing.T) {
	cfg := testConfig()
	mapping := syllabus.Mapping{"Q1": {Module: "Stacks", Bloom: "Understand"}}

	components, err := NewComponentFactory(cfg).BuildComponents(NoopTranscriber, mapping, nil, nil)
	if err != nil {
		t.Fatalf("Expected components, got %v", err)
	}
	deps := components.Dependencies
	if deps.Fetcher == nil || deps.Rasterizer == nil || deps.Binarizer == nil || deps.Segmenter == nil {
		t.Error("Expected document pipeline to be wired")
	}
	if deps.Full == nil || deps.Fast == nil || deps.KeyGrouper == nil {
		t.Error("Expected strategies and key grouper to be wired")
	}
	if deps.Full.GetStrategyName() != "full_evaluation" || deps.Fast.GetStrategyName() != "presentation_only" {
		t.Errorf("Unexpected strategies %s, %s", deps.Full.GetStrategyName(), deps.Fast.GetStrategyName())
	}
	if deps.Reporter == nil {
		t.Error("Expected a syllabus-aware reporter")
	}
	if deps.KeyMerge != grouping.MergeAppend {
		t.Errorf("Expected append merge policy, got %v", deps.KeyMerge)
	}
	if components.Transcriber == nil {
		t.Error("Expected transcriber to be returned for shutdown")
	}
}

func TestBuildComponents_FastModeCountsWords(t *testing.T) {
	components, err := NewComponentFactory(testConfig()).BuildComponents(NoopTranscriber, nil, nil, nil)
	if err != nil {
		t.Fatalf("Expected components, got %v", err)
	}

	mask := image.NewGray(image.Rect(0, 0, 300, 40))
	for _, word := range []image.Rectangle{
		image.Rect(10, 10, 50, 25),
		image.Rect(110, 10, 150, 25),
		image.Rect(210, 10, 250, 25),
	} {
		for y := word.Min.Y; y < word.Max.Y; y++ {
			for x := word.Min.X; x < word.Max.X; x++ {
				mask.Pix[mask.PixOffset(x, y)] = segmentation.Ink
			}
		}
	}
	region := segmentation.LineRegion{YStart: 0, YEnd: 40, Bounds: mask.Bounds(), Mask: mask}

	out, err := components.Dependencies.Fast.Evaluate(context.Background(), strategy.PageInput{
		Number:  1,
		Regions: []segmentation.LineRegion{region},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if out.Metrics.WordCount != 3 {
		t.Errorf("Expected fast mode to count 3 words, got %d", out.Metrics.WordCount)
	}
	if out.Metrics.Slant != 0 {
		t.Errorf("Expected slant skipped in fast mode, got %v", out.Metrics.Slant)
	}
}
