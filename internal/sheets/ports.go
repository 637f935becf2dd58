package sheets

import (
	"context"

	"dietario/internal/core"
)

// Exporter is the outbound port the export worker writes through.
type Exporter interface {
	ExportMeal(ctx context.Context, m core.Meal) error
	ExportMeasurement(ctx context.Context, m core.Measurement) error
}
