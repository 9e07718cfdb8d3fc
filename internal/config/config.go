package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"go-script-evaluator/internal/analyzer"
	"go-script-evaluator/internal/grouping"
	"go-script-evaluator/internal/scoring"
	"go-script-evaluator/internal/segmentation"
)

// Thresholds aggregates the tunable constants of every pipeline stage.
type Thresholds struct {
	Binarize segmentation.BinarizeOptions
	Segment  segmentation.SegmentOptions
	Grouping grouping.Options
	Scoring  scoring.Options
	Metrics  analyzer.MetricsOptions
}

// DefaultThresholds returns the defaults of each stage.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Binarize: segmentation.DefaultBinarizeOptions(),
		Segment:  segmentation.DefaultSegmentOptions(),
		Grouping: grouping.DefaultOptions(),
		Scoring:  scoring.DefaultOptions(),
		Metrics:  analyzer.DefaultOptions(),
	}
}

// Validate reports the first stage with an invalid setting.
func (t Thresholds) Validate() error {
	checks := []struct {
		stage string
		err   error
	}{
		{"binarize", t.Binarize.Validate()},
		{"segment", t.Segment.Validate()},
		{"grouping", t.Grouping.Validate()},
		{"scoring", t.Scoring.Validate()},
		{"metrics", t.Metrics.Validate()},
	}
	for _, c := range checks {
		if c.err != nil {
			return fmt.Errorf("invalid %s thresholds: %w", c.stage, c.err)
		}
	}
	return nil
}

type Config struct {
	Host                 string
	Port                 string
	RequestTimeout       time.Duration
	DocumentFetchTimeout time.Duration
	EvaluationTimeout    time.Duration
	// Per-call transcription limit. Zero disables it.
	TranscribeTimeout  time.Duration
	MaxRequestBodySize int64
	MaxDocumentSize    int64

	RasterDPI    int
	PdftoppmPath string
	OCRLanguage  string

	SyllabusPath   string
	ReportDBDriver string
	ReportDBDSN    string

	AzureStorageAccount string
	AzureStorageKey     string

	FastMode            bool
	KeyMergePolicy      string
	AllowLocalDocuments bool

	Thresholds Thresholds
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// MergePolicy resolves KeyMergePolicy.
func (c *Config) MergePolicy() grouping.MergePolicy {
	if strings.EqualFold(strings.TrimSpace(c.KeyMergePolicy), "append") {
		return grouping.MergeAppend
	}
	return grouping.MergeReplace
}

func LoadFromEnv() (*Config, error) {
	// Set defaults
	cfg := &Config{
		Host:                 getEnvOrDefault("HOST", "0.0.0.0"),
		Port:                 getEnvOrDefault("PORT", "8080"),
		RequestTimeout:       parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		DocumentFetchTimeout: parseDurationOrDefault("DOCUMENT_FETCH_TIMEOUT", 60*time.Second),
		EvaluationTimeout:    parseDurationOrDefault("EVALUATION_TIMEOUT", 10*time.Minute),
		TranscribeTimeout:    parseDurationOrDefault("TRANSCRIBE_TIMEOUT", 30*time.Second),
		MaxRequestBodySize:   parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 1024*1024), // 1MB
		MaxDocumentSize:      parseIntOrDefault("MAX_DOCUMENT_SIZE", 50*1024*1024),  // 50MB
		RasterDPI:            int(parseIntOrDefault("RASTER_DPI", 300)),
		PdftoppmPath:         getEnvOrDefault("PDFTOPPM_PATH", "pdftoppm"),
		OCRLanguage:          getEnvOrDefault("OCR_LANGUAGE", "eng"),
		SyllabusPath:         os.Getenv("SYLLABUS_PATH"),
		ReportDBDriver:       getEnvOrDefault("REPORT_DB_DRIVER", "sqlite"),
		ReportDBDSN:          os.Getenv("REPORT_DB_DSN"),
		AzureStorageAccount:  os.Getenv("AZURE_STORAGE_ACCOUNT"),
		AzureStorageKey:      os.Getenv("AZURE_STORAGE_KEY"),
		FastMode:             parseBoolOrDefault("FAST_MODE", false),
		KeyMergePolicy:       getEnvOrDefault("MERGE_POLICY", "replace"),
		AllowLocalDocuments:  parseBoolOrDefault("ALLOW_LOCAL_DOCUMENTS", false),
		Thresholds:           loadThresholds(),
	}

	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(cfg.Port))
	if err != nil || p < 1 || p > 65535 {
		return nil, fmt.Errorf("invalid PORT: %q", cfg.Port)
	}
	if cfg.MaxRequestBodySize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", cfg.MaxRequestBodySize)
	}
	if cfg.MaxDocumentSize <= 0 {
		return nil, fmt.Errorf("MAX_DOCUMENT_SIZE must be > 0 (got %d)", cfg.MaxDocumentSize)
	}
	if cfg.RequestTimeout <= 0 || cfg.DocumentFetchTimeout <= 0 || cfg.EvaluationTimeout <= 0 {
		return nil, fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s, evaluation=%s)",
			cfg.RequestTimeout, cfg.DocumentFetchTimeout, cfg.EvaluationTimeout)
	}
	if cfg.RasterDPI < 72 || cfg.RasterDPI > 1200 {
		return nil, fmt.Errorf("RASTER_DPI must be in [72,1200] (got %d)", cfg.RasterDPI)
	}
	switch strings.ToLower(strings.TrimSpace(cfg.KeyMergePolicy)) {
	case "replace", "append":
	default:
		return nil, fmt.Errorf("MERGE_POLICY must be replace or append (got %q)", cfg.KeyMergePolicy)
	}
	if err := cfg.Thresholds.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadThresholds() Thresholds {
	t := DefaultThresholds()
	t.Segment.NoiseFloorRatio = parseFloatOrDefault("NOISE_FLOOR_RATIO", t.Segment.NoiseFloorRatio)
	t.Segment.SplitGap = int(parseIntOrDefault("SPLIT_GAP", int64(t.Segment.SplitGap)))
	t.Segment.MergeGap = int(parseIntOrDefault("MERGE_GAP", int64(t.Segment.MergeGap)))
	t.Segment.MinHeight = int(parseIntOrDefault("MIN_LINE_HEIGHT", int64(t.Segment.MinHeight)))
	t.Segment.Padding = int(parseIntOrDefault("LINE_PADDING", int64(t.Segment.Padding)))
	t.Grouping.MarginFraction = parseFloatOrDefault("MARGIN_FRACTION", t.Grouping.MarginFraction)
	t.Scoring.AcceptanceScore = parseFloatOrDefault("ACCEPTANCE_SCORE", t.Scoring.AcceptanceScore)
	t.Scoring.TermWeight = parseFloatOrDefault("TERM_WEIGHT", t.Scoring.TermWeight)
	return t
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration >= 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}
