package core

import (
	"testing"
	"time"
)

func mustRange(t *testing.T, start, end string) DateRange {
	t.Helper()
	r, err := ParseRange(start, end, time.Now())
	if err != nil {
		t.Fatalf("ParseRange(%q, %q): %v", start, end, err)
	}
	return r
}

func fptr(v float64) *float64 { return &v }

func TestAggregateMealsByDay(t *testing.T) {
	meals := []Meal{
		{Timestamp: "01/06/2024 - 08:00", Calories: KnownNutrient(200), Proteins: KnownNutrient(10)},
		{Timestamp: "01/06/2024 - 13:00", Calories: KnownNutrient(300), Proteins: KnownNutrient(20)},
		{Timestamp: "02/06/2024 - 08:00", Calories: KnownNutrient(100), Proteins: KnownNutrient(5)},
	}
	got := AggregateMealsByDay(meals, mustRange(t, "2024-06-01", "2024-06-02"))

	wantDates := []string{"01/06/2024", "02/06/2024"}
	if len(got.Dates) != len(wantDates) {
		t.Fatalf("got %d buckets, want %d", len(got.Dates), len(wantDates))
	}
	for i, d := range wantDates {
		if got.Dates[i] != d {
			t.Fatalf("bucket %d: got %q, want %q", i, got.Dates[i], d)
		}
	}
	if got.Calories[0] != 500 || got.Calories[1] != 100 {
		t.Fatalf("calorie series = %v, want [500 100]", got.Calories)
	}
	if got.Proteins[0] != 30 || got.Proteins[1] != 5 {
		t.Fatalf("protein series = %v, want [30 5]", got.Proteins)
	}
}

func TestAggregateMealsUnknownCountsAsZero(t *testing.T) {
	meals := []Meal{
		{Timestamp: "01/06/2024 - 08:00", Calories: KnownNutrient(200)},
		{Timestamp: "01/06/2024 - 13:00", Calories: UnknownNutrient()},
	}
	got := AggregateMealsByDay(meals, mustRange(t, "2024-06-01", "2024-06-01"))
	if len(got.Calories) != 1 || got.Calories[0] != 200 {
		t.Fatalf("calorie series = %v, want [200]", got.Calories)
	}
}

func TestAggregateMealsChronologicalOrder(t *testing.T) {
	// String-sorted DD/MM/YYYY keys would put 02/01 before 30/12.
	meals := []Meal{
		{Timestamp: "02/01/2025 - 10:00", Calories: KnownNutrient(1)},
		{Timestamp: "30/12/2024 - 10:00", Calories: KnownNutrient(2)},
	}
	got := AggregateMealsByDay(meals, mustRange(t, "2024-12-01", "2025-01-31"))
	if got.Dates[0] != "30/12/2024" || got.Dates[1] != "02/01/2025" {
		t.Fatalf("dates = %v, want chronological order", got.Dates)
	}
}

func TestAggregateMealsFiltersAndSkips(t *testing.T) {
	meals := []Meal{
		{Timestamp: "01/06/2024 - 08:00", Calories: KnownNutrient(100)},
		{Timestamp: "01/07/2024 - 08:00", Calories: KnownNutrient(999)}, // outside range
		{Timestamp: "malformed", Calories: KnownNutrient(999)},
	}
	got := AggregateMealsByDay(meals, mustRange(t, "2024-06-01", "2024-06-30"))
	if len(got.Dates) != 1 || got.Calories[0] != 100 {
		t.Fatalf("got %v / %v, want single 100 bucket", got.Dates, got.Calories)
	}
}

func TestAggregateMealsEmpty(t *testing.T) {
	got := AggregateMealsByDay(nil, mustRange(t, "2024-06-01", "2024-06-30"))
	if len(got.Dates) != 0 || len(got.Calories) != 0 {
		t.Fatalf("expected empty series, got %v", got)
	}
}

func TestAggregateMeasurementsAveragesPresentValuesOnly(t *testing.T) {
	ms := []Measurement{
		{Timestamp: "01/06/2024 - 08:00", Weight: fptr(80)},
		{Timestamp: "01/06/2024 - 20:00"}, // peso missing
	}
	got := AggregateMeasurementsByDay(ms, mustRange(t, "2024-06-01", "2024-06-01"), []string{"peso"})
	if len(got.Dates) != 1 {
		t.Fatalf("got %d buckets, want 1", len(got.Dates))
	}
	avg := got.Fields["peso"][0]
	if avg == nil || *avg != 80 {
		t.Fatalf("peso average = %v, want 80 (missing values excluded)", avg)
	}
}

func TestAggregateMeasurementsAllMissingYieldsNil(t *testing.T) {
	ms := []Measurement{
		{Timestamp: "01/06/2024 - 08:00", Weight: fptr(80)},
	}
	got := AggregateMeasurementsByDay(ms, mustRange(t, "2024-06-01", "2024-06-01"), []string{"peso", "bmi"})
	if got.Fields["bmi"][0] != nil {
		t.Fatalf("bmi average = %v, want nil for day with no data", *got.Fields["bmi"][0])
	}
}

func TestAggregateMeasurementsIntFields(t *testing.T) {
	three, five := 3, 5
	ms := []Measurement{
		{Timestamp: "01/06/2024 - 08:00", VisceralFat: &three},
		{Timestamp: "01/06/2024 - 20:00", VisceralFat: &five},
	}
	got := AggregateMeasurementsByDay(ms, mustRange(t, "2024-06-01", "2024-06-01"), []string{"grasso_viscerale"})
	avg := got.Fields["grasso_viscerale"][0]
	if avg == nil || *avg != 4 {
		t.Fatalf("grasso_viscerale average = %v, want 4", avg)
	}
}

func TestAggregateMeasurementsChronologicalOrder(t *testing.T) {
	ms := []Measurement{
		{Timestamp: "02/01/2025 - 10:00", Weight: fptr(81)},
		{Timestamp: "30/12/2024 - 10:00", Weight: fptr(82)},
	}
	got := AggregateMeasurementsByDay(ms, mustRange(t, "2024-12-01", "2025-01-31"), []string{"peso"})
	if got.Dates[0] != "30/12/2024" || got.Dates[1] != "02/01/2025" {
		t.Fatalf("dates = %v, want chronological order", got.Dates)
	}
	if *got.Fields["peso"][0] != 82 || *got.Fields["peso"][1] != 81 {
		t.Fatalf("peso series misaligned with dates: %v", got.Fields["peso"])
	}
}

func TestDefaultRange(t *testing.T) {
	now := time.Date(2024, 6, 15, 13, 45, 0, 0, time.UTC)
	r := DefaultRange(now)
	if !r.End.Equal(time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("end = %v", r.End)
	}
	if !r.Start.Equal(time.Date(2024, 5, 16, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("start = %v", r.Start)
	}
}

func TestParseRange(t *testing.T) {
	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)

	r, err := ParseRange("2024-06-01", "2024-06-10", now)
	if err != nil {
		t.Fatalf("ParseRange: %v", err)
	}
	if DateKey(r.Start) != "01/06/2024" || DateKey(r.End) != "10/06/2024" {
		t.Fatalf("range = %v..%v", r.Start, r.End)
	}

	if _, err := ParseRange("01/06/2024", "", now); err == nil {
		t.Fatalf("expected error for non-ISO start date")
	}

	r, err = ParseRange("", "", now)
	if err != nil {
		t.Fatalf("ParseRange defaults: %v", err)
	}
	if !r.End.Equal(now) {
		t.Fatalf("default end = %v, want today", r.End)
	}
}
