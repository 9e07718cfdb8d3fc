package raster

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	apperrors "go-script-evaluator/internal/errors"
	"go-script-evaluator/internal/logger"

	"github.com/ledongthuc/pdf"
	"github.com/sirupsen/logrus"
)

// Rasterizer turns a document into ordered page images.
type Rasterizer interface {
	Render(ctx context.Context, path string) ([]image.Image, error)
}

// Config configures PDF rendering.
type Config struct {
	PdftoppmPath string
	DPI          int
	// Directory for intermediate page files; empty means the OS default.
	WorkDir string
}

// DefaultConfig renders at 300 DPI with pdftoppm from PATH.
func DefaultConfig() Config {
	return Config{
		PdftoppmPath: "pdftoppm",
		DPI:          300,
	}
}

type pdftoppmRasterizer struct {
	cfg Config
}

// NewRasterizer returns a rasterizer backed by poppler's pdftoppm. PNG and
// JPEG inputs are decoded directly as a single page.
func NewRasterizer(cfg Config) Rasterizer {
	if cfg.DPI <= 0 {
		cfg.DPI = DefaultConfig().DPI
	}
	if cfg.PdftoppmPath == "" {
		cfg.PdftoppmPath = DefaultConfig().PdftoppmPath
	}
	return &pdftoppmRasterizer{cfg: cfg}
}

// Render returns the document's pages in order. A missing file is an
// input_missing error; a file that cannot be rendered is unreadable_document.
func (r *pdftoppmRasterizer) Render(ctx context.Context, path string) ([]image.Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewInputMissingError(fmt.Sprintf("document not found: %s", path), err)
		}
		return nil, apperrors.NewUnreadableDocumentError(fmt.Sprintf("cannot access document: %s", path), err)
	}
	if info.IsDir() {
		return nil, apperrors.NewInputMissingError(fmt.Sprintf("document path is a directory: %s", path), nil)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg":
		img, err := decodeFile(path)
		if err != nil {
			return nil, apperrors.NewUnreadableDocumentError("failed to decode image", err)
		}
		return []image.Image{img}, nil
	}

	start := time.Now()
	numPages, err := countPages(path)
	if err != nil {
		return nil, apperrors.NewUnreadableDocumentError(fmt.Sprintf("failed to read PDF: %s", path), err)
	}
	if numPages == 0 {
		return nil, apperrors.NewUnreadableDocumentError(fmt.Sprintf("PDF has no pages: %s", path), nil)
	}

	pages, err := r.renderPDF(ctx, path)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"path":     path,
		"pages":    len(pages),
		"dpi":      r.cfg.DPI,
		"duration": time.Since(start).String(),
	}).Info("Rasterized document")
	return pages, nil
}

func (r *pdftoppmRasterizer) renderPDF(ctx context.Context, path string) ([]image.Image, error) {
	outDir, err := os.MkdirTemp(r.cfg.WorkDir, "pages-*")
	if err != nil {
		return nil, apperrors.NewInternalError("failed to create page directory", err)
	}
	defer os.RemoveAll(outDir)

	cmd := exec.CommandContext(ctx,
		r.cfg.PdftoppmPath,
		"-r", strconv.Itoa(r.cfg.DPI),
		"-png",
		path,
		filepath.Join(outDir, "page"),
	)
	if output, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, apperrors.NewUnreadableDocumentError("pdftoppm failed", err).
			WithDetails(strings.TrimSpace(string(output)))
	}

	files, err := pageFiles(outDir)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list rendered pages", err)
	}
	if len(files) == 0 {
		return nil, apperrors.NewUnreadableDocumentError("pdftoppm produced no pages", nil)
	}

	pages := make([]image.Image, 0, len(files))
	for _, f := range files {
		img, err := decodeFile(f)
		if err != nil {
			return nil, apperrors.NewUnreadableDocumentError(fmt.Sprintf("failed to decode page %s", filepath.Base(f)), err)
		}
		pages = append(pages, img)
	}
	return pages, nil
}

func countPages(path string) (n int, err error) {
	// The PDF parser panics on some malformed inputs.
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("malformed PDF: %v", rec)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return reader.NumPage(), nil
}

var pageNumberPattern = regexp.MustCompile(`-(\d+)\.png$`)

// pageFiles returns pdftoppm outputs sorted by page number. The number is
// zero padded by page count, so lexical order is not enough across runs.
func pageFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	type numbered struct {
		path string
		page int
	}
	var pages []numbered
	for _, e := range entries {
		m := pageNumberPattern.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		pages = append(pages, numbered{path: filepath.Join(dir, e.Name()), page: n})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].page < pages[j].page })

	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = p.path
	}
	return out, nil
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}
