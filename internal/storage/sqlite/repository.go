// Package sqlite stores meal and measurement records as rows with
// stable generated IDs and a per-user index, instead of the default
// flat-log rewrite model. Record payloads keep the exact JSON wire
// format of the log files.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"dietario/internal/core"

	_ "modernc.org/sqlite"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Meals returns the meal store view of the repository.
func (r *Repository) Meals() *MealRepo { return &MealRepo{r} }

// Measurements returns the measurement store view of the repository.
func (r *Repository) Measurements() *MeasurementRepo { return &MeasurementRepo{r} }

type MealRepo struct{ r *Repository }

func (m *MealRepo) Append(ctx context.Context, meal core.Meal) error {
	return m.r.appendRecord(ctx, "pasti", meal.User, meal)
}

func (m *MealRepo) ReadAllForUser(ctx context.Context, user string) ([]core.Meal, error) {
	return readRecords[core.Meal](ctx, m.r, "pasti", user)
}

func (m *MealRepo) ListSortedDescending(ctx context.Context, user string) ([]core.Meal, error) {
	recs, err := m.ReadAllForUser(ctx, user)
	if err != nil {
		return nil, err
	}
	core.SortByTimestampDesc(recs)
	return recs, nil
}

func (m *MealRepo) RewriteUser(ctx context.Context, user string, kept []core.Meal) error {
	payloads := make([]any, len(kept))
	for i, rec := range kept {
		payloads[i] = rec
	}
	return m.r.rewriteUser(ctx, "pasti", user, payloads)
}

type MeasurementRepo struct{ r *Repository }

func (m *MeasurementRepo) Append(ctx context.Context, rec core.Measurement) error {
	return m.r.appendRecord(ctx, "pesate", rec.User, rec)
}

func (m *MeasurementRepo) ReadAllForUser(ctx context.Context, user string) ([]core.Measurement, error) {
	return readRecords[core.Measurement](ctx, m.r, "pesate", user)
}

func (m *MeasurementRepo) ListSortedDescending(ctx context.Context, user string) ([]core.Measurement, error) {
	recs, err := m.ReadAllForUser(ctx, user)
	if err != nil {
		return nil, err
	}
	core.SortByTimestampDesc(recs)
	return recs, nil
}

func (m *MeasurementRepo) RewriteUser(ctx context.Context, user string, kept []core.Measurement) error {
	payloads := make([]any, len(kept))
	for i, rec := range kept {
		payloads[i] = rec
	}
	return m.r.rewriteUser(ctx, "pesate", user, payloads)
}

func (r *Repository) appendRecord(ctx context.Context, table, user string, rec any) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	// Table names are the two fixed record kinds, never user input.
	query := fmt.Sprintf(`INSERT INTO %s (utente, payload) VALUES (?, ?)`, table)
	if _, err := r.db.ExecContext(ctx, query, user, string(data)); err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	return nil
}

func readRecords[T any](ctx context.Context, r *Repository, table, user string) ([]T, error) {
	query := fmt.Sprintf(`SELECT payload FROM %s WHERE utente = ? ORDER BY id`, table)
	rows, err := r.db.QueryContext(ctx, query, user)
	if err != nil {
		return nil, fmt.Errorf("select from %s: %w", table, err)
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", table, err)
		}
		var rec T
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			slog.WarnContext(ctx, "Skipping malformed record payload",
				"table", table, "payload", payload)
			continue
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s rows: %w", table, err)
	}
	return out, nil
}

// rewriteUser replaces one user's rows in a single transaction; other
// users' rows are untouched, which is a stronger guarantee than the
// flat log's read-and-rewrite gives.
func (r *Repository) rewriteUser(ctx context.Context, table, user string, kept []any) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	delQuery := fmt.Sprintf(`DELETE FROM %s WHERE utente = ?`, table)
	if _, err := tx.ExecContext(ctx, delQuery, user); err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}

	insQuery := fmt.Sprintf(`INSERT INTO %s (utente, payload) VALUES (?, ?)`, table)
	for _, rec := range kept {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		if _, err := tx.ExecContext(ctx, insQuery, user, string(data)); err != nil {
			return fmt.Errorf("insert into %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rewrite: %w", err)
	}
	return nil
}
