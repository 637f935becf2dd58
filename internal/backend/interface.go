package backend

import (
	"context"

	"dietario/internal/core"
)

// Ports for the record stores. Both the JSONL log and the sqlite
// repository implement them; callers never see which one is behind.
type (
	MealStore interface {
		Append(ctx context.Context, m core.Meal) error
		ReadAllForUser(ctx context.Context, user string) ([]core.Meal, error)
		ListSortedDescending(ctx context.Context, user string) ([]core.Meal, error)
		RewriteUser(ctx context.Context, user string, kept []core.Meal) error
	}

	MeasurementStore interface {
		Append(ctx context.Context, m core.Measurement) error
		ReadAllForUser(ctx context.Context, user string) ([]core.Measurement, error)
		ListSortedDescending(ctx context.Context, user string) ([]core.Measurement, error)
		RewriteUser(ctx context.Context, user string, kept []core.Measurement) error
	}
)

// CleanupFunc releases backend resources at shutdown.
type CleanupFunc func() error

// Result bundles the stores a backend provides.
type Result struct {
	Meals        MealStore
	Measurements MeasurementStore
	Cleanup      CleanupFunc
}

// Type selects the storage backend.
type Type string

const (
	JSONLBackend  Type = "jsonl"
	SQLiteBackend Type = "sqlite"
)

func (t Type) String() string { return string(t) }

func (t Type) IsValid() bool {
	switch t {
	case JSONLBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}

// Config holds what the factory needs to build a backend.
type Config struct {
	Type Type

	// JSONL specific
	DataDir string

	// SQLite specific
	SQLiteDBPath string
}
