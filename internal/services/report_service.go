package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"dietario/internal/backend"
	"dietario/internal/core"
	"dietario/internal/gemini"
)

type (
	// MealReport is the per-day nutrition report plus the optional
	// narrative analysis.
	MealReport struct {
		Series   core.MealSeries `json:"serie"`
		Analysis string          `json:"analisi,omitempty"`
	}

	// MeasurementReport is the per-day body-composition report plus the
	// overall average of each field across the range. A nil average
	// means the field never appeared.
	MeasurementReport struct {
		Series   core.MeasurementSeries `json:"serie"`
		Averages map[string]*float64    `json:"medie"`
	}
)

// ReportService builds reports over a date range. The narrative
// analysis degrades to empty when the estimator is unavailable.
type ReportService struct {
	meals        backend.MealStore
	measurements backend.MeasurementStore
	estimator    gemini.Estimator
}

func NewReportService(meals backend.MealStore, measurements backend.MeasurementStore, estimator gemini.Estimator) *ReportService {
	return &ReportService{
		meals:        meals,
		measurements: measurements,
		estimator:    estimator,
	}
}

// MealReport aggregates the user's meals per day. With analyze set it
// also asks for a dietitian note over the period.
func (s *ReportService) MealReport(ctx context.Context, user string, r core.DateRange, analyze bool) (MealReport, error) {
	meals, err := s.meals.ReadAllForUser(ctx, user)
	if err != nil {
		return MealReport{}, fmt.Errorf("read meals: %w", err)
	}

	report := MealReport{Series: core.AggregateMealsByDay(meals, r)}

	if analyze && len(report.Series.Dates) > 0 {
		analysis, err := s.estimator.Comment(ctx, periodSummary(report.Series))
		if err != nil {
			slog.WarnContext(ctx, "Period analysis unavailable",
				"user", user, "error", err)
			analysis = ""
		}
		report.Analysis = analysis
	}

	return report, nil
}

// MeasurementReport aggregates the user's readings per day and averages
// each field over the whole range.
func (s *ReportService) MeasurementReport(ctx context.Context, user string, r core.DateRange) (MeasurementReport, error) {
	ms, err := s.measurements.ReadAllForUser(ctx, user)
	if err != nil {
		return MeasurementReport{}, fmt.Errorf("read measurements: %w", err)
	}

	series := core.AggregateMeasurementsByDay(ms, r, core.MeasurementFields)

	averages := make(map[string]*float64, len(core.MeasurementFields))
	for _, field := range core.MeasurementFields {
		var sum float64
		var n int
		for _, v := range series.Fields[field] {
			if v != nil {
				sum += *v
				n++
			}
		}
		if n > 0 {
			mean := sum / float64(n)
			averages[field] = &mean
		} else {
			averages[field] = nil
		}
	}

	return MeasurementReport{Series: series, Averages: averages}, nil
}

// periodSummary flattens a meal series into the text handed to the
// analysis prompt, one line per day.
func periodSummary(s core.MealSeries) string {
	var b strings.Builder
	b.WriteString("Riepilogo giornaliero del periodo:\n")
	for i, date := range s.Dates {
		fmt.Fprintf(&b, "%s: calorie %.0f, proteine %.0f g, carboidrati %.0f g, grassi %.0f g\n",
			date, s.Calories[i], s.Proteins[i], s.Carbs[i], s.Fats[i])
	}
	return b.String()
}
