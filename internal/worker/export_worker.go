// Package worker moves queued records into the configured export sink.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"dietario/internal/amqp"
	"dietario/internal/sheets"
)

// ExportWorker handles queued record messages. A returned error means
// the message should be redelivered; decoding problems are permanent
// and handled upstream by the consumer.
type ExportWorker struct {
	exporter sheets.Exporter
}

func NewExportWorker(exporter sheets.Exporter) *ExportWorker {
	return &ExportWorker{exporter: exporter}
}

// HandleRecordMessage exports one record to the sink.
func (w *ExportWorker) HandleRecordMessage(ctx context.Context, msg *amqp.RecordMessage) error {
	switch msg.Kind {
	case amqp.KindMeal:
		meal, err := msg.Meal()
		if err != nil {
			return fmt.Errorf("decode meal message: %w", err)
		}
		if err := w.exporter.ExportMeal(ctx, meal); err != nil {
			return fmt.Errorf("export meal: %w", err)
		}
		slog.InfoContext(ctx, "Meal exported", "user", meal.User, "timestamp", meal.Timestamp)
		return nil

	case amqp.KindMeasurement:
		m, err := msg.Measurement()
		if err != nil {
			return fmt.Errorf("decode measurement message: %w", err)
		}
		if err := w.exporter.ExportMeasurement(ctx, m); err != nil {
			return fmt.Errorf("export measurement: %w", err)
		}
		slog.InfoContext(ctx, "Measurement exported", "user", m.User, "timestamp", m.Timestamp)
		return nil

	default:
		return fmt.Errorf("unknown record kind %q", msg.Kind)
	}
}
