package services

import (
	"context"
	"fmt"
	"log/slog"

	"dietario/internal/amqp"
	"dietario/internal/backend"
	"dietario/internal/core"
)

// ErrIncompleteMeasurement rejects a new reading that misses fields.
// Historical records may be partial, new ones may not.
var ErrIncompleteMeasurement = fmt.Errorf("measurement must include every field")

// MeasurementService handles the body-composition log.
type MeasurementService struct {
	store     backend.MeasurementStore
	codec     *core.Codec
	publisher RecordPublisher
}

func NewMeasurementService(store backend.MeasurementStore, codec *core.Codec, publisher RecordPublisher) *MeasurementService {
	return &MeasurementService{
		store:     store,
		codec:     codec,
		publisher: publisher,
	}
}

// Create saves a complete reading. An empty timestamp means now.
func (s *MeasurementService) Create(ctx context.Context, m core.Measurement) (core.Measurement, error) {
	ts, err := s.codec.NormalizeTimestamp(m.Timestamp)
	if err != nil {
		return core.Measurement{}, err
	}
	m.Timestamp = ts
	if err := requireComplete(m); err != nil {
		return core.Measurement{}, err
	}

	if err := s.store.Append(ctx, m); err != nil {
		return core.Measurement{}, fmt.Errorf("save measurement: %w", err)
	}

	s.publishMeasurement(ctx, m)

	return m, nil
}

// List returns the user's readings newest first.
func (s *MeasurementService) List(ctx context.Context, user string) ([]core.Measurement, error) {
	return s.store.ListSortedDescending(ctx, user)
}

// Latest returns the newest reading, or nil when the log is empty. The
// edit form prefills from it.
func (s *MeasurementService) Latest(ctx context.Context, user string) (*core.Measurement, error) {
	ms, err := s.store.ListSortedDescending(ctx, user)
	if err != nil {
		return nil, err
	}
	if len(ms) == 0 {
		return nil, nil
	}
	return &ms[0], nil
}

// Update replaces the reading at the given position in the newest-first
// view with a full record.
func (s *MeasurementService) Update(ctx context.Context, user string, index int, m core.Measurement) (core.Measurement, error) {
	ms, err := s.store.ListSortedDescending(ctx, user)
	if err != nil {
		return core.Measurement{}, err
	}
	if index < 0 || index >= len(ms) {
		return core.Measurement{}, core.ErrInvalidIndex
	}

	m.User = user
	if m.Timestamp == "" {
		m.Timestamp = ms[index].Timestamp
	} else {
		ts, err := s.codec.NormalizeTimestamp(m.Timestamp)
		if err != nil {
			return core.Measurement{}, err
		}
		m.Timestamp = ts
	}
	if err := requireComplete(m); err != nil {
		return core.Measurement{}, err
	}

	ms[index] = m
	if err := s.store.RewriteUser(ctx, user, ms); err != nil {
		return core.Measurement{}, fmt.Errorf("rewrite measurements: %w", err)
	}

	s.publishMeasurement(ctx, m)

	return m, nil
}

// Delete removes the reading at the given position in the newest-first
// view.
func (s *MeasurementService) Delete(ctx context.Context, user string, index int) error {
	ms, err := s.store.ListSortedDescending(ctx, user)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(ms) {
		return core.ErrInvalidIndex
	}

	kept := append(ms[:index], ms[index+1:]...)
	if err := s.store.RewriteUser(ctx, user, kept); err != nil {
		return fmt.Errorf("rewrite measurements: %w", err)
	}

	return nil
}

func (s *MeasurementService) publishMeasurement(ctx context.Context, m core.Measurement) {
	if s.publisher == nil {
		return
	}

	msg, err := amqp.NewMeasurementMessage(m)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to build measurement message",
			"user", m.User, "error", err)
		return
	}
	if err := s.publisher.PublishRecord(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish measurement message",
			"user", m.User, "error", err)
	}
}

func requireComplete(m core.Measurement) error {
	for _, name := range core.MeasurementFields {
		if m.Field(name) == nil {
			return fmt.Errorf("%w: missing %s", ErrIncompleteMeasurement, name)
		}
	}
	return nil
}
