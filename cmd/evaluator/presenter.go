package main

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go-script-evaluator/internal/service"
	"go-script-evaluator/pkg/models"
)

// consolePresenter prints each page summary and optionally waits for the
// user between pages.
type consolePresenter struct {
	in          *bufio.Reader
	out         io.Writer
	interactive bool
	pagesDir    string
}

func newConsolePresenter(in io.Reader, out io.Writer, interactive bool, pagesDir string) *consolePresenter {
	return &consolePresenter{
		in:          bufio.NewReader(in),
		out:         out,
		interactive: interactive,
		pagesDir:    pagesDir,
	}
}

func (p *consolePresenter) PageCompleted(_ context.Context, page models.PageReport, img image.Image) error {
	printPage(p.out, page)

	if p.pagesDir != "" && img != nil {
		if err := savePage(p.pagesDir, page.Page, img); err != nil {
			fmt.Fprintf(p.out, "  could not save page image: %v\n", err)
		}
	}
	if !p.interactive {
		return nil
	}

	fmt.Fprint(p.out, "Press Enter for the next page or q to stop: ")
	line, err := p.in.ReadString('\n')
	if err != nil {
		if err != io.EOF {
			return err
		}
		// No more input; finish without prompting.
		p.interactive = false
		fmt.Fprintln(p.out)
	}
	if strings.EqualFold(strings.TrimSpace(line), "q") {
		return service.ErrStopRequested
	}
	return nil
}

func savePage(dir string, number int, img image.Image) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(dir, fmt.Sprintf("page-%03d.png", number)))
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
