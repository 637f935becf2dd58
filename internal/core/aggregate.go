package core

import (
	"fmt"
	"sort"
	"time"
)

type (
	// DateRange is an inclusive calendar-date interval. Both bounds are
	// dates at UTC midnight.
	DateRange struct {
		Start time.Time
		End   time.Time
	}

	// MealSeries holds parallel per-day sums over a date range, ordered
	// ascending by calendar date. Days with no meals are omitted.
	MealSeries struct {
		Dates    []string  `json:"date"`
		Calories []float64 `json:"calorie"`
		Proteins []float64 `json:"proteine"`
		Carbs    []float64 `json:"carboidrati"`
		Fats     []float64 `json:"grassi"`
	}

	// MeasurementSeries holds per-day, per-field averages. A nil entry
	// means no data for that field on that day.
	MeasurementSeries struct {
		Dates  []string              `json:"date"`
		Fields map[string][]*float64 `json:"campi"`
	}
)

// DefaultRange is today minus 30 days through today.
func DefaultRange(now time.Time) DateRange {
	end := truncateToDay(now)
	return DateRange{Start: end.AddDate(0, 0, -30), End: end}
}

// ParseRange builds a range from ISO calendar-date strings, falling
// back to the default bound for each empty input.
func ParseRange(startStr, endStr string, now time.Time) (DateRange, error) {
	r := DefaultRange(now)
	if startStr != "" {
		t, err := time.Parse(RangeLayout, startStr)
		if err != nil {
			return DateRange{}, fmt.Errorf("parse start date %q: %w", startStr, err)
		}
		r.Start = t
	}
	if endStr != "" {
		t, err := time.Parse(RangeLayout, endStr)
		if err != nil {
			return DateRange{}, fmt.Errorf("parse end date %q: %w", endStr, err)
		}
		r.End = t
	}
	return r, nil
}

func (r DateRange) Contains(day time.Time) bool {
	d := truncateToDay(day)
	return !d.Before(truncateToDay(r.Start)) && !d.After(truncateToDay(r.End))
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AggregateMealsByDay buckets meals by calendar day within the range
// and sums each nutrition field, with unknown values counting as zero.
// Records whose timestamp does not parse are skipped. Buckets come out
// in true chronological order, not string order.
func AggregateMealsByDay(meals []Meal, r DateRange) MealSeries {
	type daySums struct {
		calories, proteins, carbs, fats float64
	}
	byDay := map[string]*daySums{}
	var days []time.Time

	for _, m := range meals {
		t, err := ParseDisplay(m.Timestamp)
		if err != nil {
			continue
		}
		if !r.Contains(t) {
			continue
		}
		key := DateKey(t)
		sums, ok := byDay[key]
		if !ok {
			sums = &daySums{}
			byDay[key] = sums
			days = append(days, truncateToDay(t))
		}
		sums.calories += m.Calories.OrZero()
		sums.proteins += m.Proteins.OrZero()
		sums.carbs += m.Carbs.OrZero()
		sums.fats += m.Fats.OrZero()
	}

	sortDaysAscending(days)

	out := MealSeries{}
	for _, day := range days {
		key := DateKey(day)
		sums := byDay[key]
		out.Dates = append(out.Dates, key)
		out.Calories = append(out.Calories, sums.calories)
		out.Proteins = append(out.Proteins, sums.proteins)
		out.Carbs = append(out.Carbs, sums.carbs)
		out.Fats = append(out.Fats, sums.fats)
	}
	return out
}

// AggregateMeasurementsByDay buckets measurements by calendar day and
// averages each field over the values actually present that day;
// records missing a field do not drag its average down. A day with no
// values for a field yields nil at that position.
func AggregateMeasurementsByDay(ms []Measurement, r DateRange, fields []string) MeasurementSeries {
	byDay := map[string][]Measurement{}
	var days []time.Time

	for _, m := range ms {
		t, err := ParseDisplay(m.Timestamp)
		if err != nil {
			continue
		}
		if !r.Contains(t) {
			continue
		}
		key := DateKey(t)
		if _, ok := byDay[key]; !ok {
			days = append(days, truncateToDay(t))
		}
		byDay[key] = append(byDay[key], m)
	}

	sortDaysAscending(days)

	out := MeasurementSeries{Fields: make(map[string][]*float64, len(fields))}
	for _, day := range days {
		key := DateKey(day)
		out.Dates = append(out.Dates, key)
		for _, field := range fields {
			var sum float64
			var n int
			for _, m := range byDay[key] {
				if v := m.Field(field); v != nil {
					sum += *v
					n++
				}
			}
			var avg *float64
			if n > 0 {
				mean := sum / float64(n)
				avg = &mean
			}
			out.Fields[field] = append(out.Fields[field], avg)
		}
	}
	return out
}

func sortDaysAscending(days []time.Time) {
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
}
