// Package memory is an in-memory Exporter for tests and for running
// the worker without a spreadsheet configured.
package memory

import (
	"context"
	"sync"

	"dietario/internal/core"
)

type Sink struct {
	mu           sync.Mutex
	meals        []core.Meal
	measurements []core.Measurement
}

func New() *Sink {
	return &Sink{}
}

func (s *Sink) ExportMeal(_ context.Context, m core.Meal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meals = append(s.meals, m)
	return nil
}

func (s *Sink) ExportMeasurement(_ context.Context, m core.Measurement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.measurements = append(s.measurements, m)
	return nil
}

// Meals returns a copy of the exported meals.
func (s *Sink) Meals() []core.Meal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Meal(nil), s.meals...)
}

// Measurements returns a copy of the exported measurements.
func (s *Sink) Measurements() []core.Measurement {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Measurement(nil), s.measurements...)
}
