package service

import (
	"context"
	"image"
	"testing"

	"go-script-evaluator/internal/analyzer"
	apperrors "go-script-evaluator/internal/errors"
	"go-script-evaluator/internal/grouping"
	"go-script-evaluator/internal/observer"
	"go-script-evaluator/internal/repository"
	"go-script-evaluator/internal/scoring"
	"go-script-evaluator/internal/segmentation"
	"go-script-evaluator/internal/storage"
	"go-script-evaluator/internal/strategy"
	"go-script-evaluator/pkg/models"
	"go-script-evaluator/pkg/services"
	"go-script-evaluator/pkg/validation"
)

type fakeFetcher struct{}

func (fakeFetcher) Fetch(_ context.Context, source string) (*storage.Document, error) {
	if source == "missing.pdf" {
		return nil, apperrors.NewInputMissingError("document not found: missing.pdf", nil)
	}
	return &storage.Document{Source: source, Path: source}, nil
}

type fakeRasterizer struct {
	pages map[string]int
}

func (f fakeRasterizer) Render(_ context.Context, path string) ([]image.Image, error) {
	n, ok := f.pages[path]
	if !ok {
		return nil, apperrors.NewUnreadableDocumentError("cannot render "+path, nil)
	}
	out := make([]image.Image, n)
	for i := range out {
		out[i] = image.NewGray(image.Rect(0, 0, 120, 80))
	}
	return out, nil
}

type blankBinarizer struct{}

func (blankBinarizer) Binarize(img image.Image) *image.Gray { return image.NewGray(img.Bounds()) }

type wholePageSegmenter struct{}

func (wholePageSegmenter) Segment(mask *image.Gray) []segmentation.LineRegion {
	b := mask.Bounds()
	return []segmentation.LineRegion{{Index: 0, YStart: b.Min.Y, YEnd: b.Max.Y, Bounds: b, Mask: mask}}
}

// queuedGrouper returns one prepared block map per call, key pages first.
type queuedGrouper struct {
	queue []map[string]string
	order [][]string
	calls int
}

func (q *queuedGrouper) push(labels []string, texts map[string]string) {
	q.queue = append(q.queue, texts)
	q.order = append(q.order, labels)
}

func (q *queuedGrouper) Group(ctx context.Context, _ []segmentation.LineRegion) (*grouping.QuestionBlocks, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	blocks := grouping.NewQuestionBlocks()
	if q.calls < len(q.queue) {
		for _, label := range q.order[q.calls] {
			blocks.Set(label, q.queue[q.calls][label])
		}
	}
	q.calls++
	return blocks, nil
}

type fixedMetrics struct{}

func (fixedMetrics) Neatness([]segmentation.LineRegion) float64    { return 80 }
func (fixedMetrics) Slant([]segmentation.LineRegion) float64       { return 0 }
func (fixedMetrics) EstimateContent([]segmentation.LineRegion) int { return 3 }
func (fixedMetrics) Calculate(r []segmentation.LineRegion) analyzer.PageMetrics {
	return analyzer.PageMetrics{Lines: len(r), Neatness: 80, WordCount: 3}
}

type recorder struct{ events []observer.EventType }

func (r *recorder) OnEvent(_ context.Context, e observer.EvaluationEvent) {
	r.events = append(r.events, e.EventType)
}
func (r *recorder) GetObserverName() string { return "recorder" }

type stopAfter struct {
	pages int
	seen  int
	stop  func() error
}

func (s *stopAfter) PageCompleted(context.Context, models.PageReport, image.Image) error {
	s.seen++
	if s.seen >= s.pages {
		return s.stop()
	}
	return nil
}

func newTestService(g *queuedGrouper, pages map[string]int, rec *recorder, repo repository.ReportRepository) EvaluationService {
	publisher := observer.NewSyncEventPublisher()
	if rec != nil {
		publisher.Subscribe(rec)
	}
	scorer := scoring.NewScorer(scoring.DefaultOptions())
	return NewEvaluationService(Dependencies{
		Fetcher:    fakeFetcher{},
		Rasterizer: fakeRasterizer{pages: pages},
		Binarizer:  blankBinarizer{},
		Segmenter:  wholePageSegmenter{},
		KeyGrouper: g,
		Full:       strategy.NewFullEvaluationStrategy(fixedMetrics{}, g, scorer),
		Fast:       strategy.NewPresentationOnlyStrategy(fixedMetrics{}),
		Reporter:   services.NewReportService(nil),
		Validator:  validation.NewPageValidator(),
		Reports:    repo,
		Publisher:  publisher,
	})
}

func standardKey(g *queuedGrouper) {
	g.push([]string{"Q1", "Q2"}, map[string]string{
		"Q1": " A stack is a LIFO structure.",
		"Q2": " Queues follow FIFO ordering.",
	})
}

func TestEvaluate_FullRun(t *testing.T) {
	g := &queuedGrouper{}
	standardKey(g)
	g.push([]string{"Q1"}, map[string]string{"Q1": " a stack is a lifo structure"})
	g.push([]string{"Q1", "Q5"}, map[string]string{"Q1": " stack", "Q5": " unrelated"})

	rec := &recorder{}
	svc := newTestService(g, map[string]int{"key.pdf": 1, "student.pdf": 2}, rec, nil)

	report, err := svc.Evaluate(context.Background(), EvaluationRequest{StudentSource: "student.pdf", KeySource: "key.pdf"})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if report.ID == "" || report.Strategy != "full_evaluation" || report.Stopped {
		t.Errorf("Unexpected report header %+v", report)
	}
	if len(report.KeyQuestions) != 2 || report.KeyQuestions[0] != "Q1" {
		t.Errorf("Expected key questions [Q1 Q2], got %v", report.KeyQuestions)
	}
	if len(report.Pages) != 2 || report.Pages[0].Questions[0].Score != 100 {
		t.Fatalf("Expected page 1 Q1 to score 100, got %+v", report.Pages)
	}

	card := report.Scorecard
	if card.QuestionsEvaluated != 2 {
		t.Fatalf("Expected Q1 and Q5, got %+v", card.Questions)
	}
	if card.Questions[0].Label != "Q1" || card.Questions[0].Page != 2 || card.Questions[0].Score != 50 {
		t.Errorf("Expected Q1 replaced by page 2 with 50, got %+v", card.Questions[0])
	}
	if card.Questions[1].Status != scoring.StatusNoKeyMatch || card.Questions[1].Score != 0 {
		t.Errorf("Expected Q5 unmatched, got %+v", card.Questions[1])
	}
	if card.MeanScore != 25 || card.MeanNeatness != 80 {
		t.Errorf("Expected mean score 25 and neatness 80, got %v and %v", card.MeanScore, card.MeanNeatness)
	}
	// Synthetic pages are tiny, so every page carries a resolution warning.
	if len(report.Pages[0].Warnings) == 0 {
		t.Error("Expected page quality warnings")
	}

	expected := []observer.EventType{
		observer.EvaluationStarted,
		observer.DocumentFetched, observer.KeyExtracted,
		observer.DocumentFetched, observer.PageProcessed, observer.PageProcessed,
		observer.EvaluationCompleted,
	}
	if len(rec.events) != len(expected) {
		t.Fatalf("Expected events %v, got %v", expected, rec.events)
	}
	for i := range expected {
		if rec.events[i] != expected[i] {
			t.Errorf("Event %d: expected %s, got %s", i, expected[i], rec.events[i])
		}
	}
}

func TestEvaluate_KeyErrors(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		keyPages int
		expected apperrors.ErrorType
	}{
		{"no key given", "", 0, apperrors.ErrorTypeInputMissing},
		{"key not found", "missing.pdf", 0, apperrors.ErrorTypeInputMissing},
		{"key has no questions", "key.pdf", 1, apperrors.ErrorTypeEmptyExtraction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &queuedGrouper{}
			rec := &recorder{}
			svc := newTestService(g, map[string]int{"key.pdf": tt.keyPages, "student.pdf": 1}, rec, nil)

			report, err := svc.Evaluate(context.Background(), EvaluationRequest{StudentSource: "student.pdf", KeySource: tt.key})
			if report != nil || !apperrors.IsType(err, tt.expected) {
				t.Fatalf("Expected %s error and no report, got %v", tt.expected, err)
			}
			if rec.events[len(rec.events)-1] != observer.EvaluationFailed {
				t.Errorf("Expected evaluation_failed last, got %v", rec.events)
			}
		})
	}
}

func TestEvaluate_StudentErrors(t *testing.T) {
	tests := []struct {
		name     string
		student  string
		pages    map[string]int
		expected apperrors.ErrorType
	}{
		{"student not found", "missing.pdf", map[string]int{"key.pdf": 1}, apperrors.ErrorTypeInputMissing},
		{"unreadable student", "broken.pdf", map[string]int{"key.pdf": 1}, apperrors.ErrorTypeUnreadableDocument},
		{"no student pages", "student.pdf", map[string]int{"key.pdf": 1, "student.pdf": 0}, apperrors.ErrorTypeEmptyExtraction},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := &queuedGrouper{}
			standardKey(g)
			svc := newTestService(g, tt.pages, nil, nil)
			_, err := svc.Evaluate(context.Background(), EvaluationRequest{StudentSource: tt.student, KeySource: "key.pdf"})
			if !apperrors.IsType(err, tt.expected) {
				t.Errorf("Expected %s, got %v", tt.expected, err)
			}
		})
	}
}

func TestEvaluate_PresenterStopsEarly(t *testing.T) {
	g := &queuedGrouper{}
	standardKey(g)
	svc := newTestService(g, map[string]int{"key.pdf": 1, "student.pdf": 3}, nil, nil)

	presenter := &stopAfter{pages: 1, stop: func() error { return ErrStopRequested }}
	report, err := svc.Evaluate(context.Background(), EvaluationRequest{
		StudentSource: "student.pdf",
		KeySource:     "key.pdf",
		Presenter:     presenter,
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(report.Pages) != 1 || !report.Stopped || report.Scorecard.PagesProcessed != 1 {
		t.Errorf("Expected one aggregated page and stopped run, got %d pages stopped=%v", len(report.Pages), report.Stopped)
	}
}

func TestEvaluate_CancellationKeepsCompletedPages(t *testing.T) {
	g := &queuedGrouper{}
	standardKey(g)
	svc := newTestService(g, map[string]int{"key.pdf": 1, "student.pdf": 3}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	presenter := &stopAfter{pages: 2, stop: func() error { cancel(); return nil }}

	report, err := svc.Evaluate(ctx, EvaluationRequest{StudentSource: "student.pdf", KeySource: "key.pdf", Presenter: presenter})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(report.Pages) != 2 || !report.Stopped {
		t.Errorf("Expected two pages before cancellation, got %d stopped=%v", len(report.Pages), report.Stopped)
	}
}

func TestEvaluate_FastModeSkipsKey(t *testing.T) {
	g := &queuedGrouper{}
	svc := newTestService(g, map[string]int{"student.pdf": 2}, nil, nil)

	report, err := svc.Evaluate(context.Background(), EvaluationRequest{StudentSource: "student.pdf", FastMode: true})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if g.calls != 0 {
		t.Errorf("Expected no transcription in fast mode, got %d grouper calls", g.calls)
	}
	if report.Strategy != "presentation_only" || report.Scorecard.QuestionsEvaluated != 0 || report.Scorecard.MeanNeatness != 80 {
		t.Errorf("Unexpected fast report %+v", report.Scorecard)
	}
}

func TestBuildAnswerKey_MergesPages(t *testing.T) {
	g := &queuedGrouper{}
	g.push([]string{"Q1"}, map[string]string{"Q1": " first draft"})
	g.push([]string{"Q1", "Q2"}, map[string]string{"Q1": " final answer ", "Q2": " second"})
	svc := newTestService(g, map[string]int{"key.pdf": 2}, nil, nil)

	key, err := svc.BuildAnswerKey(context.Background(), "key.pdf")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if text, _ := key.Get("Q1"); text != "final answer" {
		t.Errorf("Expected later page to replace Q1, got %q", text)
	}
	if labels := key.Labels(); len(labels) != 2 || labels[1] != "Q2" {
		t.Errorf("Unexpected labels %v", labels)
	}
}

func TestEvaluate_StoresReport(t *testing.T) {
	repo, err := repository.Open(context.Background(), repository.DriverSQLite, ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer repo.Close()

	g := &queuedGrouper{}
	standardKey(g)
	g.push([]string{"Q2"}, map[string]string{"Q2": " queues follow fifo ordering"})
	svc := newTestService(g, map[string]int{"key.pdf": 1, "student.pdf": 1}, nil, repo)

	report, err := svc.Evaluate(context.Background(), EvaluationRequest{StudentSource: "student.pdf", KeySource: "key.pdf"})
	if err != nil {
		t.Fatal(err)
	}

	stored, err := svc.GetReport(context.Background(), report.ID)
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if stored.Scorecard.MeanScore != report.Scorecard.MeanScore || stored.Scorecard.MeanScore != 100 {
		t.Errorf("Expected stored mean 100, got %v", stored.Scorecard.MeanScore)
	}

	if _, err := svc.GetReport(context.Background(), "nope"); !apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
		t.Errorf("Expected not_found, got %v", err)
	}
}

func TestGetReport_WithoutStorage(t *testing.T) {
	svc := newTestService(&queuedGrouper{}, nil, nil, nil)
	if _, err := svc.GetReport(context.Background(), "any"); !apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
		t.Errorf("Expected not_found, got %v", err)
	}
}
