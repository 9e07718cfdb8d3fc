package storage

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	apperrors "go-script-evaluator/internal/errors"
)

// HTTPOptions tunes the HTTP document fetcher.
type HTTPOptions struct {
	Timeout     time.Duration
	MaxAttempts int
	// Backoff is multiplied by the attempt number between retries.
	Backoff  time.Duration
	MaxBytes int64
	WorkDir  string
}

// DefaultHTTPOptions returns three attempts with 1s, 2s backoff and a 50MB cap.
func DefaultHTTPOptions() HTTPOptions {
	return HTTPOptions{
		Timeout:     60 * time.Second,
		MaxAttempts: 3,
		Backoff:     time.Second,
		MaxBytes:    50 << 20,
	}
}

// HTTPDocumentFetcher downloads documents over HTTP(S) into temp files.
type HTTPDocumentFetcher struct {
	client *http.Client
	opts   HTTPOptions
}

// NewHTTPDocumentFetcher creates an HTTP document fetcher
func NewHTTPDocumentFetcher(opts HTTPOptions) DocumentFetcher {
	def := DefaultHTTPOptions()
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = def.MaxAttempts
	}
	if opts.Timeout <= 0 {
		opts.Timeout = def.Timeout
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = def.MaxBytes
	}

	transport := &http.Transport{
		MaxIdleConns:           10,
		MaxIdleConnsPerHost:    2,
		IdleConnTimeout:        30 * time.Second,
		TLSHandshakeTimeout:    10 * time.Second,
		ResponseHeaderTimeout:  15 * time.Second,
		ExpectContinueTimeout:  1 * time.Second,
		MaxResponseHeaderBytes: 4096,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}

	return &HTTPDocumentFetcher{
		opts: opts,
		client: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
	}
}

// Fetch downloads the document at source. 5xx responses and transport errors
// are retried; 4xx responses are not.
func (h *HTTPDocumentFetcher) Fetch(ctx context.Context, source string) (*Document, error) {
	var lastErr error

	for attempt := 0; attempt < h.opts.MaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * h.opts.Backoff):
			}
		}

		doc, retry, err := h.fetchOnce(ctx, source)
		if err == nil {
			return doc, nil
		}
		lastErr = err
		if !retry || ctx.Err() != nil {
			break
		}
	}

	if apperrors.IsType(lastErr, apperrors.ErrorTypeValidation) {
		return nil, lastErr
	}
	return nil, apperrors.NewNetworkError(
		fmt.Sprintf("failed to fetch document after %d attempts", h.opts.MaxAttempts), lastErr)
}

func (h *HTTPDocumentFetcher) fetchOnce(ctx context.Context, source string) (*Document, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, false, apperrors.NewValidationError("invalid document URL", err)
	}
	req.Header.Set("Accept", "application/pdf, image/png, image/jpeg, */*")
	req.Header.Set("User-Agent", "Go-Script-Evaluator/1.0")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("server error: status code %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, false, fmt.Errorf("client error: status code %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("unexpected status code %d", resp.StatusCode)
	}

	ext := extensionFor(resp.Header.Get("Content-Type"), source)
	doc, err := writeTemp(h.opts.WorkDir, ext, io.LimitReader(resp.Body, h.opts.MaxBytes+1), h.opts.MaxBytes)
	if err != nil {
		return nil, false, err
	}
	doc.Source = source
	return doc, false, nil
}

// extensionFor picks the file extension the rasterizer dispatches on.
func extensionFor(contentType, source string) string {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mediaType {
		case "application/pdf":
			return ".pdf"
		case "image/png":
			return ".png"
		case "image/jpeg":
			return ".jpg"
		}
	}
	if u, err := url.Parse(source); err == nil {
		switch ext := strings.ToLower(path.Ext(u.Path)); ext {
		case ".pdf", ".png", ".jpg", ".jpeg":
			return ext
		}
	}
	return ".pdf"
}

func writeTemp(dir, ext string, r io.Reader, maxBytes int64) (*Document, error) {
	f, err := os.CreateTemp(dir, "document-*"+ext)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to create temp file", err)
	}
	name := f.Name()

	n, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		os.Remove(name)
		return nil, fmt.Errorf("failed to read document body: %w", copyErr)
	}
	if maxBytes > 0 && n > maxBytes {
		os.Remove(name)
		return nil, apperrors.NewValidationError(fmt.Sprintf("document exceeds %d bytes", maxBytes), nil)
	}

	return &Document{
		Path:    name,
		Size:    n,
		cleanup: func() { os.Remove(name) },
	}, nil
}
