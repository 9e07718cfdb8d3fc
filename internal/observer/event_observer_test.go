package observer

import (
	"context"
	"testing"
	"time"
)

type recordingObserver struct {
	name   string
	events []EventType
}

func (r *recordingObserver) OnEvent(_ context.Context, e EvaluationEvent) {
	r.events = append(r.events, e.EventType)
}

func (r *recordingObserver) GetObserverName() string { return r.name }

type panickingObserver struct{}

func (panickingObserver) OnEvent(context.Context, EvaluationEvent) { panic("boom") }
func (panickingObserver) GetObserverName() string                  { return "panicking" }

func TestMetricsObserver_Counts(t *testing.T) {
	m := NewMetricsObserver()
	ctx := context.Background()
	m.OnEvent(ctx, EvaluationEvent{EventType: EvaluationStarted})
	m.OnEvent(ctx, EvaluationEvent{EventType: PageProcessed})
	m.OnEvent(ctx, EvaluationEvent{EventType: PageProcessed})
	m.OnEvent(ctx, EvaluationEvent{EventType: PageFailed})
	m.OnEvent(ctx, EvaluationEvent{EventType: EvaluationCompleted, ProcessingTime: 4 * time.Second})

	metrics := m.GetMetrics()
	if metrics["total_evaluations"] != int64(1) || metrics["completed_evaluations"] != int64(1) {
		t.Errorf("Unexpected evaluation counters %v", metrics)
	}
	if metrics["pages_processed"] != int64(2) || metrics["pages_failed"] != int64(1) {
		t.Errorf("Unexpected page counters %v", metrics)
	}
	if metrics["avg_processing_time"] != "4s" {
		t.Errorf("Expected 4s average, got %v", metrics["avg_processing_time"])
	}
}

func TestSyncEventPublisher_OrderAndUnsubscribe(t *testing.T) {
	p := NewSyncEventPublisher()
	rec := &recordingObserver{name: "rec"}
	p.Subscribe(panickingObserver{})
	p.Subscribe(rec)

	ctx := context.Background()
	p.NotifyObservers(ctx, EvaluationEvent{EventType: EvaluationStarted})
	p.NotifyObservers(ctx, EvaluationEvent{EventType: PageProcessed})
	p.Unsubscribe(rec)
	p.NotifyObservers(ctx, EvaluationEvent{EventType: EvaluationCompleted})

	if len(rec.events) != 2 || rec.events[0] != EvaluationStarted || rec.events[1] != PageProcessed {
		t.Errorf("Unexpected events %v", rec.events)
	}
}
