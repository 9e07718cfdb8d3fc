package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"go-script-evaluator/pkg/models"
)

func printReport(w io.Writer, report *models.EvaluationReport) error {
	sc := report.Scorecard
	fmt.Fprintf(w, "Evaluation %s (%s)\n", report.ID, report.Strategy)
	fmt.Fprintf(w, "Pages processed: %d", sc.PagesProcessed)
	if report.Stopped {
		fmt.Fprint(w, " (stopped early)")
	}
	fmt.Fprintln(w)

	if len(sc.Questions) > 0 {
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "QUESTION\tPAGE\tSCORE\tKEY CONCEPTS")
		for _, q := range sc.Questions {
			fmt.Fprintf(tw, "%s\t%d\t%.2f\t%s\n", q.Label, q.Page, q.Score, concepts(q))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Mean neatness:       %.2f\n", sc.MeanNeatness)
	if report.Strategy != "presentation_only" {
		fmt.Fprintf(w, "Mean score:          %.2f\n", sc.MeanScore)
		fmt.Fprintf(w, "Questions evaluated: %d\n", sc.QuestionsEvaluated)
	}

	if err := printBreakdown(w, "MODULE", sc.Modules); err != nil {
		return err
	}
	if err := printBreakdown(w, "BLOOM LEVEL", sc.BloomLevels); err != nil {
		return err
	}

	if len(report.Errors) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Errors:")
		for _, e := range report.Errors {
			fmt.Fprintf(w, "  - %s\n", e)
		}
	}
	return nil
}

func concepts(q models.QuestionResult) string {
	if len(q.Evidence) > 0 {
		return strings.Join(q.Evidence, ", ")
	}
	if q.Status != "" && q.Status != "graded" {
		return q.Status
	}
	return "-"
}

func printBreakdown(w io.Writer, title string, rows []models.Breakdown) error {
	if len(rows) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\tQUESTIONS\tAVERAGE\n", title)
	for _, b := range rows {
		fmt.Fprintf(tw, "%s\t%d\t%.2f\n", b.Name, b.Questions, b.AverageScore)
	}
	return tw.Flush()
}

func printPage(w io.Writer, page models.PageReport) {
	fmt.Fprintf(w, "Page %d: %d lines, neatness %.2f, slant %.2f deg, ~%d words\n",
		page.Page, page.Lines, page.Neatness, page.Slant, page.WordCount)
	if page.Error != "" {
		fmt.Fprintf(w, "  error: %s\n", page.Error)
	}
	for _, q := range page.Questions {
		fmt.Fprintf(w, "  %s: %.2f  %s\n", q.Label, q.Score, concepts(q))
	}
	for _, warning := range page.Warnings {
		fmt.Fprintf(w, "  warning: %s\n", warning)
	}
}
