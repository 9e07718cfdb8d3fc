package container

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go-script-evaluator/internal/config"
	"go-script-evaluator/internal/factory"
	"go-script-evaluator/internal/logger"
	"go-script-evaluator/internal/observer"
	"go-script-evaluator/internal/repository"
	"go-script-evaluator/internal/service"
	"go-script-evaluator/internal/syllabus"
	"go-script-evaluator/internal/transcription"
	"go-script-evaluator/internal/transport"

	"github.com/sirupsen/logrus"
)

// Options selects the variable parts of the dependency graph.
type Options struct {
	Transcriber factory.TranscriberType
	// SyncEvents delivers observer events in order on the calling goroutine.
	SyncEvents bool
}

// DefaultOptions returns the server setup: tesseract with async events.
func DefaultOptions() Options {
	return Options{Transcriber: factory.TesseractTranscriber}
}

// Container holds all application dependencies
type Container struct {
	config            *config.Config
	transcriber       transcription.Transcriber
	reportRepository  repository.ReportRepository
	metrics           *observer.MetricsObserver
	evaluationService service.EvaluationService
	handler           http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	return NewContainerWithOptions(cfg, DefaultOptions())
}

// NewContainerWithOptions builds the dependency graph for cfg.
func NewContainerWithOptions(cfg *config.Config, opts Options) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	publisher := observer.NewEventPublisher()
	if opts.SyncEvents {
		publisher = observer.NewSyncEventPublisher()
	}
	metrics := observer.NewMetricsObserver()
	publisher.Subscribe(observer.NewLoggingObserver(logger.Logger))
	publisher.Subscribe(metrics)

	var mapping syllabus.Mapping
	if cfg.SyllabusPath != "" {
		m, err := syllabus.Load(cfg.SyllabusPath)
		if err != nil {
			logger.WithError(err).WithField("path", cfg.SyllabusPath).
				Warn("Failed to load syllabus mapping, module breakdowns disabled")
		} else {
			mapping = m
		}
	}

	var reports repository.ReportRepository
	if cfg.ReportDBDSN != "" {
		repo, err := repository.Open(context.Background(), cfg.ReportDBDriver, cfg.ReportDBDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open report store: %w", err)
		}
		reports = repo
	}

	components, err := factory.NewComponentFactory(cfg).BuildComponents(opts.Transcriber, mapping, reports, publisher)
	if err != nil {
		if reports != nil {
			reports.Close()
		}
		return nil, fmt.Errorf("failed to build components: %w", err)
	}

	if err := components.Transcriber.WarmUp(); err != nil {
		logger.WithError(err).Warn("Transcriber warm-up failed, retrying on first use")
	}

	evaluationService := service.NewEvaluationService(components.Dependencies)
	handler := transport.NewHandler(evaluationService, metrics, cfg)

	logger.WithFields(logrus.Fields{
		"transcriber":     opts.Transcriber,
		"report_store":    reports != nil,
		"syllabus":        mapping != nil,
		"local_documents": cfg.AllowLocalDocuments,
	}).Info("Container initialized")

	return &Container{
		config:            cfg,
		transcriber:       components.Transcriber,
		reportRepository:  reports,
		metrics:           metrics,
		evaluationService: evaluationService,
		handler:           handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// EvaluationService returns the evaluation service
func (c *Container) EvaluationService() service.EvaluationService {
	return c.evaluationService
}

// Metrics returns the metrics observer
func (c *Container) Metrics() *observer.MetricsObserver {
	return c.metrics
}

// Close releases the transcriber and the report store.
func (c *Container) Close() error {
	var errs []error
	if c.transcriber != nil {
		errs = append(errs, c.transcriber.Close())
	}
	if c.reportRepository != nil {
		errs = append(errs, c.reportRepository.Close())
	}
	return errors.Join(errs...)
}
