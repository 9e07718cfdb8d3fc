package validation

import (
	"math"
)

// PageThresholds defines configurable limits for scanned page quality
type PageThresholds struct {
	// Resolution thresholds
	MinWidth  int
	MinHeight int

	// Mean grey level of the page, 0-255
	MinBrightness float64

	// Fraction of the page classified as ink
	MaxInkRatio float64

	// Mean baseline slant in degrees
	MaxSlantAngle float64
}

// DefaultPageThresholds returns limits suited to 150-300 DPI scans of A4 paper
func DefaultPageThresholds() PageThresholds {
	return PageThresholds{
		MinWidth:      1000,
		MinHeight:     1400,
		MinBrightness: 110,
		MaxInkRatio:   0.35,
		MaxSlantAngle: 10,
	}
}

// PageValidator flags scan problems that make grading unreliable
type PageValidator struct {
	thresholds PageThresholds
}

// NewPageValidator creates a page validator with default thresholds
func NewPageValidator() *PageValidator {
	return &PageValidator{thresholds: DefaultPageThresholds()}
}

// NewPageValidatorWithThresholds creates a page validator with custom thresholds
func NewPageValidatorWithThresholds(thresholds PageThresholds) *PageValidator {
	return &PageValidator{thresholds: thresholds}
}

// QualityIssue represents a page quality issue
type QualityIssue struct {
	Type        string  `json:"type"`
	Message     string  `json:"message"`
	Severity    string  `json:"severity"` // "error", "warning"
	ActualValue float64 `json:"actual_value,omitempty"`
	Threshold   float64 `json:"threshold,omitempty"`
}

// PageQualityMetrics are the measurements a page is validated on
type PageQualityMetrics struct {
	Width      int
	Height     int
	Brightness float64
	InkRatio   float64
	Lines      int
	Slant      float64
}

// ValidatePage returns the issues found on one page
func (pv *PageValidator) ValidatePage(m PageQualityMetrics) []QualityIssue {
	var issues []QualityIssue
	t := pv.thresholds

	if m.Width < t.MinWidth || m.Height < t.MinHeight {
		issues = append(issues, QualityIssue{
			Type:        "low_resolution",
			Message:     "Page resolution is too low. Scan at 300 DPI.",
			Severity:    "error",
			ActualValue: float64(m.Width * m.Height),
			Threshold:   float64(t.MinWidth * t.MinHeight),
		})
	}

	if m.Brightness < t.MinBrightness {
		issues = append(issues, QualityIssue{
			Type:        "too_dark",
			Message:     "Page is too dark. Rescan with more light or a lighter background.",
			Severity:    "error",
			ActualValue: m.Brightness,
			Threshold:   t.MinBrightness,
		})
	}

	if m.InkRatio > t.MaxInkRatio {
		issues = append(issues, QualityIssue{
			Type:        "heavy_noise",
			Message:     "Too much of the page reads as ink. Check for shadows or a textured background.",
			Severity:    "warning",
			ActualValue: m.InkRatio,
			Threshold:   t.MaxInkRatio,
		})
	}

	if m.Lines == 0 {
		issues = append(issues, QualityIssue{
			Type:     "blank_page",
			Message:  "No handwriting lines were found on this page.",
			Severity: "warning",
		})
	}

	if math.Abs(m.Slant) > t.MaxSlantAngle {
		issues = append(issues, QualityIssue{
			Type:        "slant",
			Message:     "Writing is strongly slanted. The page may be rotated.",
			Severity:    "warning",
			ActualValue: math.Abs(m.Slant),
			Threshold:   t.MaxSlantAngle,
		})
	}

	return issues
}

// ConvertIssuesToMessages converts quality issues to simple messages
func (pv *PageValidator) ConvertIssuesToMessages(issues []QualityIssue) []string {
	var messages []string
	for _, issue := range issues {
		messages = append(messages, issue.Message)
	}
	return messages
}

// HasCriticalIssues checks if there are any error severity issues
func (pv *PageValidator) HasCriticalIssues(issues []QualityIssue) bool {
	for _, issue := range issues {
		if issue.Severity == "error" {
			return true
		}
	}
	return false
}
