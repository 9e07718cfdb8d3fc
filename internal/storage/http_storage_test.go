package storage

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	apperrors "go-script-evaluator/internal/errors"
)

var pdfBody = []byte("%PDF-1.4\n%minimal\n")

func testOptions(t *testing.T) HTTPOptions {
	opts := DefaultHTTPOptions()
	opts.Backoff = 5 * time.Millisecond
	opts.WorkDir = t.TempDir()
	return opts
}

func TestHTTPDocumentFetcher_RetryLogic(t *testing.T) {
	tests := []struct {
		name          string
		responses     []int // Status codes to return in sequence
		expectRetries int   // Expected number of requests
		expectError   bool
		errorContains string
	}{
		{
			name:          "Success on first attempt",
			responses:     []int{200},
			expectRetries: 1,
		},
		{
			name:          "Success on second attempt after 5xx",
			responses:     []int{500, 200},
			expectRetries: 2,
		},
		{
			name:          "4xx client error - no retry",
			responses:     []int{404},
			expectRetries: 1,
			expectError:   true,
			errorContains: "client error: status code 404",
		},
		{
			name:          "4xx after 5xx - should retry until 4xx then stop",
			responses:     []int{500, 404},
			expectRetries: 2,
			expectError:   true,
			errorContains: "client error: status code 404",
		},
		{
			name:          "All 5xx errors - retry all attempts",
			responses:     []int{500, 502, 503},
			expectRetries: 3,
			expectError:   true,
			errorContains: "server error: status code 503",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requestCount := 0
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if requestCount >= len(tt.responses) {
					w.WriteHeader(500)
					return
				}
				statusCode := tt.responses[requestCount]
				requestCount++
				if statusCode == 200 {
					w.Header().Set("Content-Type", "application/pdf")
					w.Write(pdfBody)
					return
				}
				w.WriteHeader(statusCode)
				w.Write([]byte(fmt.Sprintf("Error %d", statusCode)))
			}))
			defer server.Close()

			fetcher := NewHTTPDocumentFetcher(testOptions(t))
			doc, err := fetcher.Fetch(context.Background(), server.URL+"/script")

			if requestCount != tt.expectRetries {
				t.Errorf("Expected %d requests, got %d", tt.expectRetries, requestCount)
			}

			if tt.expectError {
				if err == nil {
					t.Fatal("Expected error, but got none")
				}
				if !strings.Contains(err.Error(), tt.errorContains) {
					t.Errorf("Expected error to contain '%s', got: %s", tt.errorContains, err.Error())
				}
				if !apperrors.IsType(err, apperrors.ErrorTypeNetwork) {
					t.Errorf("Expected network error, got %v", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("Expected no error, got: %s", err.Error())
			}
			defer doc.Release()
			if filepath.Ext(doc.Path) != ".pdf" {
				t.Errorf("Expected .pdf temp file, got %s", doc.Path)
			}
			data, err := os.ReadFile(doc.Path)
			if err != nil || string(data) != string(pdfBody) {
				t.Errorf("Unexpected document contents %q (%v)", data, err)
			}
		})
	}
}

func TestHTTPDocumentFetcher_NetworkError_Retry(t *testing.T) {
	requestCount := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++
		if requestCount < 3 {
			// Simulate network error by closing connection
			if hj, ok := w.(http.Hijacker); ok {
				conn, _, _ := hj.Hijack()
				conn.Close()
			}
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png"))
	}))
	defer server.Close()

	doc, err := NewHTTPDocumentFetcher(testOptions(t)).Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected success after retries, got error: %s", err.Error())
	}
	defer doc.Release()

	if requestCount != 3 {
		t.Errorf("Expected 3 requests, got %d", requestCount)
	}
	if filepath.Ext(doc.Path) != ".png" {
		t.Errorf("Expected .png temp file, got %s", doc.Path)
	}
}

func TestHTTPDocumentFetcher_SizeLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 64))
	}))
	defer server.Close()

	opts := testOptions(t)
	opts.MaxBytes = 16
	_, err := NewHTTPDocumentFetcher(opts).Fetch(context.Background(), server.URL+"/big.pdf")
	if !apperrors.IsType(err, apperrors.ErrorTypeValidation) {
		t.Errorf("Expected validation error, got %v", err)
	}
	if entries, _ := os.ReadDir(opts.WorkDir); len(entries) != 0 {
		t.Errorf("Expected temp file to be removed, found %d entries", len(entries))
	}
}

func TestDocumentRelease_RemovesTempFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(pdfBody)
	}))
	defer server.Close()

	doc, err := NewHTTPDocumentFetcher(testOptions(t)).Fetch(context.Background(), server.URL+"/k.pdf")
	if err != nil {
		t.Fatal(err)
	}
	doc.Release()
	if _, err := os.Stat(doc.Path); !os.IsNotExist(err) {
		t.Errorf("Expected %s to be removed", doc.Path)
	}
	doc.Release()
}

func TestExtensionFor(t *testing.T) {
	tests := []struct {
		contentType string
		source      string
		expected    string
	}{
		{"application/pdf", "https://x/y", ".pdf"},
		{"image/jpeg; charset=binary", "https://x/y", ".jpg"},
		{"application/octet-stream", "https://x/scan.PNG", ".png"},
		{"", "https://x/scan.jpeg?sig=1", ".jpeg"},
		{"", "https://x/unknown", ".pdf"},
	}
	for _, tt := range tests {
		if got := extensionFor(tt.contentType, tt.source); got != tt.expected {
			t.Errorf("extensionFor(%q, %q) = %q, expected %q", tt.contentType, tt.source, got, tt.expected)
		}
	}
}
