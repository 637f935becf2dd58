package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"dietario/internal/core"
	"dietario/internal/storage"
)

func newMeasurementService(t *testing.T, pub RecordPublisher) *MeasurementService {
	t.Helper()
	codec, err := core.NewCodec("UTC")
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	store := storage.NewLog[core.Measurement](filepath.Join(t.TempDir(), "pesate.json"))
	return NewMeasurementService(store, codec, pub)
}

func fullMeasurement(user, ts string, weight float64) core.Measurement {
	f := func(v float64) *float64 { return &v }
	i := func(v int) *int { return &v }
	return core.Measurement{
		User:            user,
		Timestamp:       ts,
		Weight:          f(weight),
		BMI:             f(24.5),
		BodyFat:         f(18.2),
		SkeletalMuscle:  f(42.1),
		FatFreeMass:     f(65.0),
		SubcutaneousFat: f(15.3),
		VisceralFat:     i(7),
		BodyWater:       f(55.0),
		MuscleMass:      f(61.8),
		BoneMass:        f(3.2),
		Proteins:        f(17.5),
		BMR:             f(1700),
		MetabolicAge:    i(30),
	}
}

func TestMeasurementService_CreateAndList(t *testing.T) {
	ctx := context.Background()
	pub := &fakePublisher{}
	svc := newMeasurementService(t, pub)

	if _, err := svc.Create(ctx, fullMeasurement("mario", "02/01/2025 - 08:00", 80)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, fullMeasurement("mario", "03/01/2025 - 08:00", 79.5)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	ms, err := svc.List(ctx, "mario")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(ms) != 2 {
		t.Fatalf("got %d measurements, want 2", len(ms))
	}
	if *ms[0].Weight != 79.5 {
		t.Errorf("newest weight = %v, want 79.5", *ms[0].Weight)
	}
	if len(pub.published) != 2 {
		t.Errorf("published %d messages, want 2", len(pub.published))
	}
}

func TestMeasurementService_CreateRejectsPartialRecord(t *testing.T) {
	svc := newMeasurementService(t, nil)

	m := fullMeasurement("mario", "02/01/2025 - 08:00", 80)
	m.BoneMass = nil
	_, err := svc.Create(context.Background(), m)
	if !errors.Is(err, ErrIncompleteMeasurement) {
		t.Fatalf("err = %v, want ErrIncompleteMeasurement", err)
	}
}

func TestMeasurementService_Latest(t *testing.T) {
	ctx := context.Background()
	svc := newMeasurementService(t, nil)

	latest, err := svc.Latest(ctx, "mario")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest != nil {
		t.Fatalf("Latest on empty log = %+v, want nil", latest)
	}

	if _, err := svc.Create(ctx, fullMeasurement("mario", "02/01/2025 - 08:00", 80)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, fullMeasurement("mario", "03/01/2025 - 08:00", 79)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	latest, err = svc.Latest(ctx, "mario")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if latest == nil || *latest.Weight != 79 {
		t.Fatalf("Latest = %+v, want weight 79", latest)
	}
}

func TestMeasurementService_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	svc := newMeasurementService(t, nil)

	if _, err := svc.Create(ctx, fullMeasurement("mario", "02/01/2025 - 08:00", 80)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, fullMeasurement("mario", "03/01/2025 - 08:00", 79)); err != nil {
		t.Fatalf("Create: %v", err)
	}

	replacement := fullMeasurement("mario", "", 78.5)
	updated, err := svc.Update(ctx, "mario", 0, replacement)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Timestamp != "03/01/2025 - 08:00" {
		t.Errorf("Timestamp = %q, want kept from the edited record", updated.Timestamp)
	}

	ms, err := svc.List(ctx, "mario")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(ms) != 2 || *ms[0].Weight != 78.5 {
		t.Fatalf("measurements = %+v", ms)
	}

	if err := svc.Delete(ctx, "mario", 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	ms, err = svc.List(ctx, "mario")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(ms) != 1 || *ms[0].Weight != 78.5 {
		t.Fatalf("measurements after delete = %+v", ms)
	}

	if err := svc.Delete(ctx, "mario", 5); !errors.Is(err, core.ErrInvalidIndex) {
		t.Errorf("Delete err = %v, want ErrInvalidIndex", err)
	}
}
