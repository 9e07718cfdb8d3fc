package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	apperrors "go-script-evaluator/internal/errors"
	"go-script-evaluator/internal/grouping"
	"go-script-evaluator/internal/logger"
	"go-script-evaluator/internal/observer"
	"go-script-evaluator/internal/raster"
	"go-script-evaluator/internal/repository"
	"go-script-evaluator/internal/segmentation"
	"go-script-evaluator/internal/storage"
	"go-script-evaluator/internal/strategy"
	"go-script-evaluator/pkg/models"
	"go-script-evaluator/pkg/services"
	"go-script-evaluator/pkg/validation"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrStopRequested is returned by a Presenter to end the run after the
// current page. Completed pages are still aggregated.
var ErrStopRequested = errors.New("stop requested")

// Presenter receives each page as soon as it has been evaluated.
type Presenter interface {
	PageCompleted(ctx context.Context, page models.PageReport, img image.Image) error
}

// EvaluationRequest describes one script to evaluate.
type EvaluationRequest struct {
	StudentSource string
	KeySource     string
	// FastMode measures presentation only and skips the answer key.
	FastMode  bool
	Presenter Presenter
}

// EvaluationService defines the interface for script evaluation
type EvaluationService interface {
	// BuildAnswerKey extracts question blocks from every page of the key.
	BuildAnswerKey(ctx context.Context, keySource string) (*grouping.QuestionBlocks, error)

	// Evaluate grades a student script page by page and builds the scorecard.
	Evaluate(ctx context.Context, req EvaluationRequest) (*models.EvaluationReport, error)

	// GetReport loads a stored report.
	GetReport(ctx context.Context, id string) (*models.EvaluationReport, error)
}

// Dependencies are the collaborators of the evaluation service. Reports and
// Validator may be nil.
type Dependencies struct {
	Fetcher     storage.DocumentFetcher
	Rasterizer  raster.Rasterizer
	Binarizer   segmentation.Binarizer
	Segmenter   segmentation.Segmenter
	KeyGrouper  grouping.Grouper
	Full        strategy.EvaluationStrategy
	Fast        strategy.EvaluationStrategy
	Reporter    *services.ReportService
	Validator   *validation.PageValidator
	Reports     repository.ReportRepository
	Publisher   observer.Subject
	KeyMerge    grouping.MergePolicy
	DefaultFast bool
}

type evaluationService struct {
	deps Dependencies
}

// NewEvaluationService creates a new evaluation service
func NewEvaluationService(deps Dependencies) EvaluationService {
	if deps.KeyMerge == "" {
		deps.KeyMerge = grouping.MergeReplace
	}
	if deps.Reporter == nil {
		deps.Reporter = services.NewReportService(nil)
	}
	if deps.Publisher == nil {
		deps.Publisher = observer.NewSyncEventPublisher()
	}
	return &evaluationService{deps: deps}
}

// loadPages fetches and rasterizes a document. Temporary copies are removed
// once the pages are decoded.
func (s *evaluationService) loadPages(ctx context.Context, evaluationID, source string) ([]image.Image, error) {
	start := time.Now()
	doc, err := s.deps.Fetcher.Fetch(ctx, source)
	if err != nil {
		s.publish(ctx, observer.EvaluationEvent{
			EventType:      observer.DocumentFetchFailed,
			EvaluationID:   evaluationID,
			Document:       source,
			ProcessingTime: time.Since(start),
			ErrorMessage:   err.Error(),
		})
		return nil, err
	}
	defer doc.Release()

	s.publish(ctx, observer.EvaluationEvent{
		EventType:      observer.DocumentFetched,
		EvaluationID:   evaluationID,
		Document:       source,
		ProcessingTime: time.Since(start),
		Success:        true,
		Metadata:       map[string]interface{}{"bytes": doc.Size},
	})

	return s.deps.Rasterizer.Render(ctx, doc.Path)
}

func (s *evaluationService) BuildAnswerKey(ctx context.Context, keySource string) (*grouping.QuestionBlocks, error) {
	return s.buildAnswerKey(ctx, "", keySource)
}

func (s *evaluationService) buildAnswerKey(ctx context.Context, evaluationID, keySource string) (*grouping.QuestionBlocks, error) {
	if keySource == "" {
		return nil, apperrors.NewInputMissingError("answer key is required unless fast mode is enabled", nil)
	}
	start := time.Now()

	pages, err := s.loadPages(ctx, evaluationID, keySource)
	if err != nil {
		return nil, err
	}

	master := grouping.NewQuestionBlocks()
	for i, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		regions := s.deps.Segmenter.Segment(s.deps.Binarizer.Binarize(page))
		blocks, err := s.deps.KeyGrouper.Group(ctx, regions)
		if err != nil {
			return nil, err
		}
		master.Merge(blocks, s.deps.KeyMerge)

		logger.ForEvaluation(evaluationID).WithFields(logrus.Fields{
			"page":   i + 1,
			"lines":  len(regions),
			"labels": blocks.Len(),
		}).Debug("Processed answer key page")
	}

	if master.Len() == 0 {
		return nil, apperrors.NewEmptyExtractionError("could not extract any question from the answer key", nil)
	}
	key := master.Trimmed()

	s.publish(ctx, observer.EvaluationEvent{
		EventType:      observer.KeyExtracted,
		EvaluationID:   evaluationID,
		Document:       keySource,
		ProcessingTime: time.Since(start),
		Success:        true,
		Metadata: map[string]interface{}{
			"pages":     len(pages),
			"questions": key.Len(),
		},
	})
	return key, nil
}

func (s *evaluationService) Evaluate(ctx context.Context, req EvaluationRequest) (*models.EvaluationReport, error) {
	start := time.Now()
	report := &models.EvaluationReport{
		ID:            uuid.NewString(),
		StudentSource: req.StudentSource,
		KeySource:     req.KeySource,
		CreatedAt:     start.UTC(),
		Pages:         []models.PageReport{},
	}

	active := s.deps.Full
	if req.FastMode || s.deps.DefaultFast {
		active = s.deps.Fast
	}
	evalCtx := strategy.NewEvaluationContext(active)
	report.Strategy = evalCtx.GetCurrentStrategy()

	s.publish(ctx, observer.EvaluationEvent{
		EventType:    observer.EvaluationStarted,
		EvaluationID: report.ID,
		Document:     req.StudentSource,
		Success:      true,
		Metadata:     map[string]interface{}{"strategy": report.Strategy},
	})

	var key *grouping.QuestionBlocks
	if evalCtx.Strategy().RequiresKey() {
		var err error
		key, err = s.buildAnswerKey(ctx, report.ID, req.KeySource)
		if err != nil {
			return nil, s.fail(ctx, report.ID, start, "answer key", err)
		}
		report.KeySource = req.KeySource
		report.KeyQuestions = key.Labels()
	}

	pages, err := s.loadPages(ctx, report.ID, req.StudentSource)
	if err != nil {
		return nil, s.fail(ctx, report.ID, start, "student script", err)
	}
	if len(pages) == 0 {
		return nil, s.fail(ctx, report.ID, start, "student script",
			apperrors.NewEmptyExtractionError("no pages found in student script", nil))
	}

	for i, img := range pages {
		if ctx.Err() != nil {
			report.Stopped = true
			break
		}

		page, err := s.evaluatePage(ctx, evalCtx, report.ID, i+1, img, key)
		if err != nil && ctx.Err() != nil {
			report.Stopped = true
			break
		}
		report.Pages = append(report.Pages, page)

		if req.Presenter == nil {
			continue
		}
		if err := req.Presenter.PageCompleted(ctx, page, img); err != nil {
			if errors.Is(err, ErrStopRequested) {
				report.Stopped = i < len(pages)-1
				break
			}
			logger.ForEvaluation(report.ID).WithError(err).WithField("page", i+1).Warn("Presenter failed")
		}
	}

	report.Scorecard = s.deps.Reporter.BuildScorecard(report.Pages)
	report.ProcessingTimeSec = time.Since(start).Seconds()

	if s.deps.Reports != nil {
		if err := s.deps.Reports.SaveReport(context.WithoutCancel(ctx), report); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("report not stored: %v", err))
			logger.ForEvaluation(report.ID).WithError(err).Error("Failed to store evaluation report")
		}
	}

	s.publish(ctx, observer.EvaluationEvent{
		EventType:      observer.EvaluationCompleted,
		EvaluationID:   report.ID,
		Document:       req.StudentSource,
		ProcessingTime: time.Since(start),
		Success:        true,
		Metadata: map[string]interface{}{
			"pages":         len(report.Pages),
			"questions":     report.Scorecard.QuestionsEvaluated,
			"mean_score":    report.Scorecard.MeanScore,
			"mean_neatness": report.Scorecard.MeanNeatness,
			"stopped":       report.Stopped,
		},
	})
	return report, nil
}

// evaluatePage runs one page through binarization, segmentation and the
// active strategy. Failures are recorded on the page report.
func (s *evaluationService) evaluatePage(ctx context.Context, evalCtx *strategy.EvaluationContext, evaluationID string, number int, img image.Image, key *grouping.QuestionBlocks) (models.PageReport, error) {
	start := time.Now()
	page := models.PageReport{Page: number}

	gray := segmentation.ToGray(img)
	mask := s.deps.Binarizer.Binarize(gray)
	regions := s.deps.Segmenter.Segment(mask)

	outcome, err := evalCtx.ExecuteEvaluation(ctx, strategy.PageInput{
		Number:  number,
		Regions: regions,
		Key:     key,
	})
	page.Lines = outcome.Metrics.Lines
	page.Neatness = outcome.Metrics.Neatness
	page.Slant = outcome.Metrics.Slant
	page.WordCount = outcome.Metrics.WordCount

	if err != nil {
		page.Error = err.Error()
		s.publish(ctx, observer.EvaluationEvent{
			EventType:      observer.PageFailed,
			EvaluationID:   evaluationID,
			Page:           number,
			ProcessingTime: time.Since(start),
			ErrorMessage:   err.Error(),
		})
		return page, err
	}

	page.Questions = s.deps.Reporter.QuestionResults(number, outcome.Grades)
	if s.deps.Validator != nil {
		issues := s.deps.Validator.ValidatePage(validation.PageQualityMetrics{
			Width:      gray.Rect.Dx(),
			Height:     gray.Rect.Dy(),
			Brightness: meanLevel(gray),
			InkRatio:   inkRatio(mask),
			Lines:      len(regions),
			Slant:      page.Slant,
		})
		page.Warnings = s.deps.Validator.ConvertIssuesToMessages(issues)
	}

	s.publish(ctx, observer.EvaluationEvent{
		EventType:      observer.PageProcessed,
		EvaluationID:   evaluationID,
		Page:           number,
		ProcessingTime: time.Since(start),
		Success:        true,
		Metadata: map[string]interface{}{
			"lines":     page.Lines,
			"neatness":  page.Neatness,
			"questions": len(page.Questions),
		},
	})
	return page, nil
}

func (s *evaluationService) GetReport(ctx context.Context, id string) (*models.EvaluationReport, error) {
	if s.deps.Reports == nil {
		return nil, apperrors.NewNotFoundError("report storage is not configured", nil)
	}
	report, err := s.deps.Reports.GetReport(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrReportNotFound) {
			return nil, apperrors.NewNotFoundError(fmt.Sprintf("evaluation %s not found", id), err)
		}
		return nil, apperrors.NewInternalError("failed to load evaluation report", err)
	}
	return report, nil
}

func (s *evaluationService) fail(ctx context.Context, evaluationID string, start time.Time, phase string, err error) error {
	s.publish(ctx, observer.EvaluationEvent{
		EventType:      observer.EvaluationFailed,
		EvaluationID:   evaluationID,
		ProcessingTime: time.Since(start),
		ErrorMessage:   err.Error(),
		Metadata:       map[string]interface{}{"phase": phase},
	})
	return err
}

func (s *evaluationService) publish(ctx context.Context, event observer.EvaluationEvent) {
	s.deps.Publisher.NotifyObservers(ctx, event)
}

func meanLevel(gray *image.Gray) float64 {
	w, h := gray.Rect.Dx(), gray.Rect.Dy()
	if w == 0 || h == 0 {
		return 0
	}
	var sum uint64
	for y := 0; y < h; y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+w]
		for _, v := range row {
			sum += uint64(v)
		}
	}
	return float64(sum) / float64(w*h)
}

func inkRatio(mask *image.Gray) float64 {
	w, h := mask.Rect.Dx(), mask.Rect.Dy()
	if w == 0 || h == 0 {
		return 0
	}
	ink := 0
	for y := 0; y < h; y++ {
		row := mask.Pix[y*mask.Stride : y*mask.Stride+w]
		for _, v := range row {
			if v == segmentation.Ink {
				ink++
			}
		}
	}
	return float64(ink) / float64(w*h)
}
