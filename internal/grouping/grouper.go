package grouping

import (
	"context"
	"image"
	"strings"
	"unicode"

	"go-script-evaluator/internal/logger"
	"go-script-evaluator/internal/segmentation"
	"go-script-evaluator/internal/transcription"

	"github.com/sirupsen/logrus"
)

// Grouper attributes transcribed lines to question labels.
type Grouper interface {
	Group(ctx context.Context, regions []segmentation.LineRegion) (*QuestionBlocks, error)
}

type grouper struct {
	transcriber transcription.Transcriber
	opts        Options
}

// NewGrouper creates a grouper backed by the given transcriber.
func NewGrouper(t transcription.Transcriber, opts Options) Grouper {
	return &grouper{transcriber: t, opts: opts}
}

// Group walks regions top to bottom. A digit read in a line's margin starts
// a new question label that stays active until the next one. Transcription
// failures drop the affected text; only context cancellation is returned.
func (g *grouper) Group(ctx context.Context, regions []segmentation.LineRegion) (*QuestionBlocks, error) {
	blocks := NewQuestionBlocks()
	active := g.opts.DefaultLabel

	for _, region := range regions {
		if err := ctx.Err(); err != nil {
			return blocks, err
		}
		if region.Bounds.Dy() < g.opts.MinLineHeight {
			continue
		}

		margin, err := g.transcribe(ctx, marginStrip(region, g.opts.MarginFraction), transcription.ModeFragments, region.Index)
		if err != nil {
			return blocks, err
		}
		if len(margin) > 0 {
			if digits := digitsOf(margin[0]); digits != "" {
				active = "Q" + digits
				blocks.GetOrCreate(active)
			}
		}

		line := transcription.Downscale(region.Mask, g.opts.LineScale)
		texts, err := g.transcribe(ctx, line, transcription.ModeParagraph, region.Index)
		if err != nil {
			return blocks, err
		}
		if len(texts) > 0 {
			blocks.Append(active, " "+strings.Join(texts, " "))
		}
	}

	logger.WithFields(logrus.Fields{
		"lines":  len(regions),
		"labels": blocks.Labels(),
	}).Debug("Grouped lines into question blocks")

	return blocks, nil
}

// transcribe treats any engine error as an empty result unless the caller's
// context is done.
func (g *grouper) transcribe(ctx context.Context, img image.Image, mode transcription.Mode, line int) ([]string, error) {
	texts, err := g.transcriber.Transcribe(ctx, img, mode)
	if err == nil {
		return texts, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	logger.WithFields(logrus.Fields{
		"line": line,
		"mode": mode.String(),
	}).WithError(err).Warn("Transcription failed, treating region as empty")
	return nil, nil
}

// marginStrip returns the leftmost fraction of the line crop.
func marginStrip(region segmentation.LineRegion, fraction float64) image.Image {
	b := region.Bounds
	width := max(1, int(float64(b.Dx())*fraction))
	return region.Mask.SubImage(image.Rect(b.Min.X, b.Min.Y, b.Min.X+width, b.Max.Y))
}

func digitsOf(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
