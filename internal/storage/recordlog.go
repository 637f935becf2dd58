package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"dietario/internal/core"
)

// Record is anything the log can persist: one JSON object per line,
// owned by a user, carrying a display timestamp.
type Record interface {
	Owner() string
	When() string
}

// Log is an append-only newline-delimited JSON file shared by all
// users. A mutex serializes writers within the process; the file itself
// has no lock, so the single-process single-writer assumption stands.
type Log[T Record] struct {
	path string
	mu   sync.Mutex
}

func NewLog[T Record](path string) *Log[T] {
	return &Log[T]{path: path}
}

// Append serializes the record and writes it with a trailing newline.
// The file is opened, written and closed per call; durability is
// whatever the platform gives on close.
func (l *Log[T]) Append(ctx context.Context, rec T) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log %s: %w", l.path, err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		f.Close()
		return fmt.Errorf("append to log %s: %w", l.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close log %s: %w", l.path, err)
	}
	return nil
}

// ReadAllForUser scans the whole file and returns the user's records in
// file order. Malformed lines are logged and skipped, never fatal; a
// missing file is an empty result.
func (l *Log[T]) ReadAllForUser(ctx context.Context, user string) ([]T, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log %s: %w", l.path, err)
	}
	defer f.Close()

	var out []T
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec T
		if err := json.Unmarshal(line, &rec); err != nil {
			slog.WarnContext(ctx, "Skipping malformed log line",
				"log", filepath.Base(l.path), "line", string(line))
			continue
		}
		if rec.Owner() == user {
			out = append(out, rec)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan log %s: %w", l.path, err)
	}
	return out, nil
}

// ListSortedDescending returns the user's records newest-first.
// Records whose timestamp no longer parses sort last.
func (l *Log[T]) ListSortedDescending(ctx context.Context, user string) ([]T, error) {
	recs, err := l.ReadAllForUser(ctx, user)
	if err != nil {
		return nil, err
	}
	core.SortByTimestampDesc(recs)
	return recs, nil
}

// ownerProbe reads just enough of a line to attribute it.
type ownerProbe struct {
	User string `json:"utente"`
}

// RewriteUser replaces all of one user's records with kept, in the
// order given, preserving every other user's lines byte for byte. The
// new content is written to a temp file and renamed over the log, so a
// crash mid-rewrite cannot leave a half-written file. Malformed lines
// are dropped with a warning whoever they belong to; this mirrors the
// historical behavior of the log format.
func (l *Log[T]) RewriteUser(ctx context.Context, user string, kept []T) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var lines [][]byte
	f, err := os.Open(l.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("open log %s: %w", l.path, err)
	}
	if err == nil {
		sc := bufio.NewScanner(f)
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			line := sc.Bytes()
			if len(line) == 0 {
				continue
			}
			var probe ownerProbe
			if err := json.Unmarshal(line, &probe); err != nil {
				slog.WarnContext(ctx, "Dropping malformed log line during rewrite",
					"log", filepath.Base(l.path), "line", string(line))
				continue
			}
			if probe.User != user {
				lines = append(lines, append([]byte(nil), line...))
			}
		}
		scanErr := sc.Err()
		f.Close()
		if scanErr != nil {
			return fmt.Errorf("scan log %s: %w", l.path, scanErr)
		}
	}

	for _, rec := range kept {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		lines = append(lines, data)
	}

	tmp, err := os.CreateTemp(filepath.Dir(l.path), filepath.Base(l.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp log: %w", err)
	}
	w := bufio.NewWriter(tmp)
	for _, line := range lines {
		if _, err := w.Write(append(line, '\n')); err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
			return fmt.Errorf("write temp log: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("flush temp log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp log: %w", err)
	}
	if err := os.Rename(tmp.Name(), l.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace log %s: %w", l.path, err)
	}
	return nil
}
