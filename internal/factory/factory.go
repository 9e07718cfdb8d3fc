package factory

import (
	"context"
	"fmt"
	"image"
	"strings"

	"go-script-evaluator/internal/analyzer"
	"go-script-evaluator/internal/config"
	"go-script-evaluator/internal/grouping"
	"go-script-evaluator/internal/observer"
	"go-script-evaluator/internal/raster"
	"go-script-evaluator/internal/repository"
	"go-script-evaluator/internal/scoring"
	"go-script-evaluator/internal/segmentation"
	"go-script-evaluator/internal/service"
	"go-script-evaluator/internal/storage"
	"go-script-evaluator/internal/strategy"
	"go-script-evaluator/internal/syllabus"
	"go-script-evaluator/internal/transcription"
	"go-script-evaluator/pkg/services"
	"go-script-evaluator/pkg/validation"
)

// TranscriberType represents the available handwriting recognizers
type TranscriberType string

const (
	// TesseractTranscriber uses the gosseract engine
	TesseractTranscriber TranscriberType = "tesseract"
	// NoopTranscriber reads nothing; useful for presentation-only deployments
	NoopTranscriber TranscriberType = "none"
)

// StorageType represents different types of storage backends
type StorageType string

const (
	// HTTPStorage for HTTP-based document fetching
	HTTPStorage StorageType = "http"
	// AzureStorage for Azure blob storage
	AzureStorage StorageType = "azure"
	// LocalStorage for local file system
	LocalStorage StorageType = "local"
)

// TranscriberFactory creates transcribers
type TranscriberFactory interface {
	CreateTranscriber(transcriberType TranscriberType) (transcription.Transcriber, error)
}

// StorageFactory creates storage implementations
type StorageFactory interface {
	CreateStorage(storageType StorageType) (storage.DocumentFetcher, error)
	// CreateRouting combines every backend the configuration enables.
	CreateRouting() (storage.DocumentFetcher, error)
}

type transcriberFactory struct {
	cfg *config.Config
}

// NewTranscriberFactory creates a new transcriber factory
func NewTranscriberFactory(cfg *config.Config) TranscriberFactory {
	return &transcriberFactory{cfg: cfg}
}

// CreateTranscriber creates a transcriber based on the specified type
func (f *transcriberFactory) CreateTranscriber(transcriberType TranscriberType) (transcription.Transcriber, error) {
	switch transcriberType {
	case TesseractTranscriber:
		tc := transcription.DefaultConfig()
		tc.Timeout = f.cfg.TranscribeTimeout
		if langs := splitLanguages(f.cfg.OCRLanguage); len(langs) > 0 {
			tc.Languages = langs
		}
		return transcription.NewTesseractTranscriber(tc), nil
	case NoopTranscriber:
		return transcription.Func(func(context.Context, image.Image, transcription.Mode) ([]string, error) {
			return nil, nil
		}), nil
	default:
		return nil, fmt.Errorf("unsupported transcriber type: %s", transcriberType)
	}
}

// splitLanguages accepts "eng+hin" or "eng,hin".
func splitLanguages(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool { return r == '+' || r == ',' || r == ' ' })
}

type storageFactory struct {
	cfg *config.Config
}

// NewStorageFactory creates a new storage factory
func NewStorageFactory(cfg *config.Config) StorageFactory {
	return &storageFactory{cfg: cfg}
}

// CreateStorage creates a storage implementation based on the specified type
func (f *storageFactory) CreateStorage(storageType StorageType) (storage.DocumentFetcher, error) {
	switch storageType {
	case HTTPStorage:
		opts := storage.DefaultHTTPOptions()
		opts.Timeout = f.cfg.DocumentFetchTimeout
		opts.MaxBytes = f.cfg.MaxDocumentSize
		return storage.NewHTTPDocumentFetcher(opts), nil
	case AzureStorage:
		if f.cfg.AzureStorageAccount == "" || f.cfg.AzureStorageKey == "" {
			return nil, fmt.Errorf("azure storage requires AZURE_STORAGE_ACCOUNT and AZURE_STORAGE_KEY")
		}
		return storage.NewAzureDocumentFetcher(f.cfg.AzureStorageAccount, f.cfg.AzureStorageKey, "", f.cfg.MaxDocumentSize)
	case LocalStorage:
		return storage.NewLocalDocumentFetcher(), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

func (f *storageFactory) CreateRouting() (storage.DocumentFetcher, error) {
	httpFetcher, err := f.CreateStorage(HTTPStorage)
	if err != nil {
		return nil, err
	}
	routing := &storage.RoutingFetcher{HTTP: httpFetcher}

	if f.cfg.AzureStorageAccount != "" {
		blob, err := f.CreateStorage(AzureStorage)
		if err != nil {
			return nil, err
		}
		routing.Blob = blob
	}
	if f.cfg.AllowLocalDocuments {
		local, err := f.CreateStorage(LocalStorage)
		if err != nil {
			return nil, err
		}
		routing.Local = local
	}
	return routing, nil
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	TranscriberFactory TranscriberFactory
	StorageFactory     StorageFactory
	cfg                *config.Config
}

// NewComponentFactory creates a new component factory
func NewComponentFactory(cfg *config.Config) *ComponentFactory {
	return &ComponentFactory{
		TranscriberFactory: NewTranscriberFactory(cfg),
		StorageFactory:     NewStorageFactory(cfg),
		cfg:                cfg,
	}
}

// Components are the long-lived pieces an evaluation service is built from.
type Components struct {
	Transcriber  transcription.Transcriber
	Dependencies service.Dependencies
}

// BuildComponents assembles the evaluation pipeline. mapping, reports and
// publisher may be nil.
func (f *ComponentFactory) BuildComponents(transcriberType TranscriberType, mapping syllabus.Mapping,
	reports repository.ReportRepository, publisher observer.Subject) (*Components, error) {
	th := f.cfg.Thresholds

	fetcher, err := f.StorageFactory.CreateRouting()
	if err != nil {
		return nil, fmt.Errorf("failed to create document fetcher: %w", err)
	}
	transcriber, err := f.TranscriberFactory.CreateTranscriber(transcriberType)
	if err != nil {
		return nil, err
	}

	rc := raster.DefaultConfig()
	rc.DPI = f.cfg.RasterDPI
	rc.PdftoppmPath = f.cfg.PdftoppmPath

	grouper := grouping.NewGrouper(transcriber, th.Grouping)
	scorer := scoring.NewScorer(th.Scoring)

	var reporter *services.ReportService
	if mapping != nil {
		reporter = services.NewReportService(mapping)
	}

	return &Components{
		Transcriber: transcriber,
		Dependencies: service.Dependencies{
			Fetcher:     fetcher,
			Rasterizer:  raster.NewRasterizer(rc),
			Binarizer:   segmentation.NewBinarizer(th.Binarize),
			Segmenter:   segmentation.NewSegmenter(th.Segment),
			KeyGrouper:  grouper,
			Full:        strategy.NewFullEvaluationStrategy(analyzer.NewMetricsCalculator(th.Metrics), grouper, scorer),
			Fast:        strategy.NewPresentationOnlyStrategy(analyzer.NewMetricsCalculator(th.Metrics.Fast())),
			Reporter:    reporter,
			Validator:   validation.NewPageValidator(),
			Reports:     reports,
			Publisher:   publisher,
			KeyMerge:    f.cfg.MergePolicy(),
			DefaultFast: f.cfg.FastMode,
		},
	}, nil
}
