package transcription

import (
	"context"
	"image"
)

// Mode selects how recognized text is grouped.
type Mode int

const (
	// ModeFragments returns one string per recognized word.
	ModeFragments Mode = iota
	// ModeParagraph merges recognized words into paragraph-level strings.
	ModeParagraph
)

func (m Mode) String() string {
	switch m {
	case ModeFragments:
		return "fragments"
	case ModeParagraph:
		return "paragraph"
	default:
		return "unknown"
	}
}

// Transcriber recognizes handwriting in an image region.
//
// Construction must be cheap. Heavy resources are acquired by WarmUp, which
// Transcribe calls implicitly on first use. Blank or tiny regions return an
// empty slice, never an error.
type Transcriber interface {
	WarmUp() error
	Transcribe(ctx context.Context, img image.Image, mode Mode) ([]string, error)
	Close() error
}

// Func adapts a plain function to the Transcriber interface.
type Func func(ctx context.Context, img image.Image, mode Mode) ([]string, error)

// WarmUp is a no-op.
func (f Func) WarmUp() error { return nil }

// Transcribe calls f.
func (f Func) Transcribe(ctx context.Context, img image.Image, mode Mode) ([]string, error) {
	return f(ctx, img, mode)
}

// Close is a no-op.
func (f Func) Close() error { return nil }
