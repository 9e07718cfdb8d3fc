package transcription

import (
	"context"
	"fmt"
	"image"
	"strings"
	"sync"
	"time"

	apperrors "go-script-evaluator/internal/errors"
	"go-script-evaluator/internal/logger"

	"github.com/otiai10/gosseract/v2"
	"github.com/sirupsen/logrus"
)

// Config configures the Tesseract transcriber.
type Config struct {
	Languages []string
	// Per-call limit. Zero disables it.
	Timeout time.Duration
	// Regions narrower or shorter than this are treated as blank.
	MinRegionSide int
}

// DefaultConfig returns English recognition with a 30 second call limit.
func DefaultConfig() Config {
	return Config{
		Languages:     []string{"eng"},
		Timeout:       30 * time.Second,
		MinRegionSide: 4,
	}
}

type recognition struct {
	texts []string
	err   error
}

// tesseractTranscriber serializes access to a single gosseract client.
// The client is created lazily by WarmUp.
type tesseractTranscriber struct {
	cfg Config

	once    sync.Once
	initErr error
	client  *gosseract.Client

	// Holds at most one in-flight recognition.
	sem chan struct{}
}

// NewTesseractTranscriber returns a transcriber without touching the engine.
func NewTesseractTranscriber(cfg Config) Transcriber {
	if len(cfg.Languages) == 0 {
		cfg.Languages = DefaultConfig().Languages
	}
	return &tesseractTranscriber{
		cfg: cfg,
		sem: make(chan struct{}, 1),
	}
}

// WarmUp creates the engine client. Safe to call repeatedly.
func (t *tesseractTranscriber) WarmUp() error {
	t.once.Do(func() {
		start := time.Now()
		client := gosseract.NewClient()
		if err := client.SetLanguage(t.cfg.Languages...); err != nil {
			client.Close()
			t.initErr = apperrors.NewInternalError("failed to configure OCR languages", err)
			return
		}
		t.client = client
		logger.WithFields(logrus.Fields{
			"engine":    "tesseract",
			"version":   client.Version(),
			"languages": t.cfg.Languages,
			"duration":  time.Since(start).String(),
		}).Info("Transcription engine ready")
	})
	return t.initErr
}

// Transcribe recognizes text in img. A call exceeding the configured timeout
// returns a timeout error; callers treat it as an empty transcription.
func (t *tesseractTranscriber) Transcribe(ctx context.Context, img image.Image, mode Mode) ([]string, error) {
	if img == nil || isBlank(img, t.cfg.MinRegionSide) {
		return nil, nil
	}
	if err := t.WarmUp(); err != nil {
		return nil, err
	}

	payload, err := encodePNG(darkOnLight(img))
	if err != nil {
		return nil, apperrors.NewInternalError("failed to encode region", err)
	}

	callCtx := ctx
	if t.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, t.cfg.Timeout)
		defer cancel()
	}

	select {
	case t.sem <- struct{}{}:
	case <-callCtx.Done():
		return nil, t.doneError(ctx, callCtx)
	}

	done := make(chan recognition, 1)
	go func() {
		defer func() { <-t.sem }()
		texts, err := t.recognize(payload, mode)
		done <- recognition{texts: texts, err: err}
	}()

	select {
	case r := <-done:
		return r.texts, r.err
	case <-callCtx.Done():
		return nil, t.doneError(ctx, callCtx)
	}
}

func (t *tesseractTranscriber) doneError(parent, call context.Context) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	return apperrors.NewTimeoutError(fmt.Sprintf("transcription exceeded %s", t.cfg.Timeout), call.Err())
}

func (t *tesseractTranscriber) recognize(payload []byte, mode Mode) ([]string, error) {
	if t.client == nil {
		return nil, apperrors.NewInternalError("transcriber is closed", nil)
	}
	psm := gosseract.PSM_SINGLE_LINE
	level := gosseract.RIL_WORD
	if mode == ModeParagraph {
		psm = gosseract.PSM_SINGLE_BLOCK
		level = gosseract.RIL_PARA
	}
	if err := t.client.SetPageSegMode(psm); err != nil {
		return nil, fmt.Errorf("set page segmentation mode: %w", err)
	}
	if err := t.client.SetImageFromBytes(payload); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	boxes, err := t.client.GetBoundingBoxes(level)
	if err != nil {
		return nil, fmt.Errorf("recognize %s: %w", mode, err)
	}

	texts := make([]string, 0, len(boxes))
	for _, box := range boxes {
		if text := strings.Join(strings.Fields(box.Word), " "); text != "" {
			texts = append(texts, text)
		}
	}
	return texts, nil
}

// Close releases the engine once any in-flight call has finished.
func (t *tesseractTranscriber) Close() error {
	t.sem <- struct{}{}
	defer func() { <-t.sem }()
	if t.client == nil {
		return nil
	}
	err := t.client.Close()
	t.client = nil
	return err
}
