package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// EvaluationEvent describes a step of a script evaluation
type EvaluationEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	EvaluationID   string                 `json:"evaluation_id"`
	Document       string                 `json:"document,omitempty"`
	Page           int                    `json:"page,omitempty"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Success        bool                   `json:"success"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of evaluation event
type EventType string

const (
	// EvaluationStarted when a run begins
	EvaluationStarted EventType = "evaluation_started"
	// KeyExtracted when the answer key has been grouped into questions
	KeyExtracted EventType = "key_extracted"
	// PageProcessed when a student page has been segmented, grouped and graded
	PageProcessed EventType = "page_processed"
	// PageFailed when a student page could not be processed
	PageFailed EventType = "page_failed"
	// EvaluationCompleted when the scorecard is ready
	EvaluationCompleted EventType = "evaluation_completed"
	// EvaluationFailed when the run aborted
	EvaluationFailed EventType = "evaluation_failed"
	// DocumentFetched when a remote document was downloaded
	DocumentFetched EventType = "document_fetched"
	// DocumentFetchFailed when a remote document could not be downloaded
	DocumentFetchFailed EventType = "document_fetch_failed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event EvaluationEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event EvaluationEvent)
}

// LoggingObserver logs evaluation events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles evaluation events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event EvaluationEvent) {
	fields := logrus.Fields{
		"event_type":      event.EventType,
		"evaluation_id":   event.EvaluationID,
		"processing_time": event.ProcessingTime.String(),
		"success":         event.Success,
	}
	if event.Document != "" {
		fields["document"] = event.Document
	}
	if event.Page > 0 {
		fields["page"] = event.Page
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case EvaluationStarted:
		entry.Info("Script evaluation started")
	case KeyExtracted:
		entry.Info("Answer key extracted")
	case PageProcessed:
		entry.Info("Student page processed")
	case PageFailed:
		entry.Warn("Student page skipped")
	case EvaluationCompleted:
		entry.Info("Script evaluation completed")
	case EvaluationFailed:
		entry.Error("Script evaluation failed")
	case DocumentFetched:
		entry.Debug("Document fetched successfully")
	case DocumentFetchFailed:
		entry.Error("Document fetch failed")
	default:
		entry.Info("Evaluation event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver aggregates counters from evaluation events
type MetricsObserver struct {
	mu                   sync.RWMutex
	totalEvaluations     int64
	completedEvaluations int64
	failedEvaluations    int64
	pagesProcessed       int64
	pagesFailed          int64
	totalProcessingTime  time.Duration
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{}
}

// OnEvent handles evaluation events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event EvaluationEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case EvaluationStarted:
		o.totalEvaluations++
	case EvaluationCompleted:
		o.completedEvaluations++
		o.totalProcessingTime += event.ProcessingTime
	case EvaluationFailed:
		o.failedEvaluations++
	case PageProcessed:
		o.pagesProcessed++
	case PageFailed:
		o.pagesFailed++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current metrics
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	avgProcessingTime := time.Duration(0)
	if o.completedEvaluations > 0 {
		avgProcessingTime = o.totalProcessingTime / time.Duration(o.completedEvaluations)
	}

	return map[string]interface{}{
		"total_evaluations":     o.totalEvaluations,
		"completed_evaluations": o.completedEvaluations,
		"failed_evaluations":    o.failedEvaluations,
		"pages_processed":       o.pagesProcessed,
		"pages_failed":          o.pagesFailed,
		"total_processing_time": o.totalProcessingTime.String(),
		"avg_processing_time":   avgProcessingTime.String(),
	}
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
	// Synchronous delivery keeps event order; used by the CLI and tests.
	synchronous bool
}

// NewEventPublisher creates a publisher that notifies observers concurrently
func NewEventPublisher() Subject {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// NewSyncEventPublisher creates a publisher that notifies observers in order
// on the caller's goroutine
func NewSyncEventPublisher() Subject {
	return &EventPublisher{
		observers:   make([]Observer, 0),
		synchronous: true,
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers notifies all observers of an event
func (p *EventPublisher) NotifyObservers(ctx context.Context, event EvaluationEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, observer := range observers {
		if p.synchronous {
			notify(ctx, observer, event)
			continue
		}
		go notify(ctx, observer, event)
	}
}

func notify(ctx context.Context, obs Observer, event EvaluationEvent) {
	defer func() {
		if r := recover(); r != nil {
			// Log panic but don't crash the application
			logrus.WithField("observer", obs.GetObserverName()).
				WithField("panic", r).
				Error("Observer panicked while handling event")
		}
	}()
	obs.OnEvent(ctx, event)
}
