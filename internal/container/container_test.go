package container

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go-script-evaluator/internal/config"
	"go-script-evaluator/internal/factory"

	"github.com/gin-gonic/gin"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Host:                 "127.0.0.1",
		Port:                 "8080",
		RequestTimeout:       time.Second,
		DocumentFetchTimeout: time.Second,
		EvaluationTimeout:    time.Minute,
		MaxRequestBodySize:   1024,
		MaxDocumentSize:      1 << 20,
		RasterDPI:            150,
		PdftoppmPath:         "pdftoppm",
		ReportDBDriver:       "sqlite",
		KeyMergePolicy:       "replace",
		Thresholds:           config.DefaultThresholds(),
	}
}

func TestNewContainerWithOptions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	syllabusPath := filepath.Join(dir, "syllabus.yaml")
	if err := os.WriteFile(syllabusPath, []byte("Q1:\n  module: Stacks\n  bloom: Apply\n"), 0o600); err != nil {
		t.Fatalf("Failed to write syllabus: %v", err)
	}

	cfg := testConfig(t)
	cfg.SyllabusPath = syllabusPath
	cfg.ReportDBDSN = filepath.Join(dir, "reports.db")

	c, err := NewContainerWithOptions(cfg, Options{Transcriber: factory.NoopTranscriber, SyncEvents: true})
	if err != nil {
		t.Fatalf("Expected container, got %v", err)
	}
	defer c.Close()

	if c.EvaluationService() == nil || c.Metrics() == nil || c.Config() != cfg {
		t.Fatal("Expected service, metrics and config to be exposed")
	}

	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected healthy handler, got %d", w.Code)
	}
}

func TestNewContainer_MissingSyllabusIsNotFatal(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig(t)
	cfg.SyllabusPath = filepath.Join(t.TempDir(), "missing.json")

	c, err := NewContainerWithOptions(cfg, Options{Transcriber: factory.NoopTranscriber})
	if err != nil {
		t.Fatalf("Expected container without syllabus, got %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Expected clean close, got %v", err)
	}
}

func TestNewContainer_Errors(t *testing.T) {
	if _, err := NewContainerWithOptions(nil, DefaultOptions()); err == nil {
		t.Error("Expected error without config")
	}

	cfg := testConfig(t)
	cfg.ReportDBDriver = "oracle"
	cfg.ReportDBDSN = "whatever"
	if _, err := NewContainerWithOptions(cfg, Options{Transcriber: factory.NoopTranscriber}); err == nil {
		t.Error("Expected error for unsupported report driver")
	}
}
