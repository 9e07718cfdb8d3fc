package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go-script-evaluator/internal/config"
	apperrors "go-script-evaluator/internal/errors"
	"go-script-evaluator/internal/logger"
	"go-script-evaluator/internal/observer"
	"go-script-evaluator/internal/service"
	"go-script-evaluator/pkg/models"
	"go-script-evaluator/pkg/validation"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const version = "1.0.0"

// NewHandler builds the HTTP API. metrics may be nil.
func NewHandler(svc service.EvaluationService, metrics *observer.MetricsObserver, cfg *config.Config) http.Handler {
	r := gin.Default()

	// Add middleware
	r.Use(
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	validator := validation.NewURLValidator()

	// Configure routes
	r.GET("/health", healthCheck)
	r.POST("/evaluate", evaluate(svc, validator, cfg))
	r.GET("/evaluations/:id", getEvaluation(svc, cfg))
	r.GET("/metrics", metricsSnapshot(metrics))

	return r
}

func evaluate(svc service.EvaluationService, validator *validation.URLValidator, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.EvaluationTimeout)
		defer cancel()

		// Log request start
		logger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"user_agent": c.Request.UserAgent(),
			"ip":         c.ClientIP(),
		}).Info("Processing evaluation request")

		var req models.EvaluateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid request format", err)
			return
		}

		// Check for fast in query parameter (takes precedence over JSON body)
		if fast := c.Query("fast"); fast != "" {
			req.FastMode = fast == "true"
		}
		fast := req.FastMode || cfg.FastMode

		if err := validator.ValidateDocumentURL(req.StudentURL); err != nil {
			respondError(c, apperrors.GetStatusCode(err), "invalid student script URL", err)
			return
		}
		if !fast {
			if err := validator.ValidateDocumentURL(req.KeyURL); err != nil {
				respondError(c, apperrors.GetStatusCode(err), "invalid answer key URL", err)
				return
			}
		}

		report, err := svc.Evaluate(ctx, service.EvaluationRequest{
			StudentSource: req.StudentURL,
			KeySource:     req.KeyURL,
			FastMode:      fast,
		})
		if err != nil {
			respondError(c, determineStatusCode(err), "evaluation failed", err)
			return
		}

		// Log successful completion
		logger.WithFields(logrus.Fields{
			"evaluation_id":       report.ID,
			"strategy":            report.Strategy,
			"pages":               report.Scorecard.PagesProcessed,
			"questions_evaluated": report.Scorecard.QuestionsEvaluated,
			"mean_score":          report.Scorecard.MeanScore,
			"processing_time_ms":  time.Since(startTime).Milliseconds(),
		}).Info("Evaluation completed successfully")

		c.JSON(http.StatusOK, report)
	}
}

func getEvaluation(svc service.EvaluationService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		report, err := svc.GetReport(ctx, c.Param("id"))
		if err != nil {
			respondError(c, determineStatusCode(err), "failed to load evaluation", err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

func metricsSnapshot(metrics *observer.MetricsObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics == nil {
			c.JSON(http.StatusOK, gin.H{})
			return
		}
		c.JSON(http.StatusOK, metrics.GetMetrics())
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:    "available",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   version,
	})
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last()
			respondError(c, determineStatusCode(err.Err), "request processing failed", err.Err)
		}
	}
}

func determineStatusCode(err error) int {
	// Check if it's a custom app error first
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	// Fallback to context-based errors
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	// Log the error with context
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	resp := models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		resp.Type = string(appErr.Type)
	}
	c.AbortWithStatusJSON(code, resp)
}
