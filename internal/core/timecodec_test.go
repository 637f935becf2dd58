package core

import (
	"testing"
	"time"
)

func TestParseDisplayRoundTrip(t *testing.T) {
	cases := []string{
		"01/06/2024 - 12:30",
		"31/12/2023 - 00:00",
		"29/02/2024 - 23:59",
	}
	for _, s := range cases {
		parsed, err := ParseDisplay(s)
		if err != nil {
			t.Fatalf("ParseDisplay(%q): %v", s, err)
		}
		if got := parsed.Format(DisplayLayout); got != s {
			t.Fatalf("round trip %q -> %q", s, got)
		}
	}
}

func TestParseDisplayRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"01/06/2024",
		"2024-06-01 - 12:30",
		"01/06/2024 12:30",
		"32/01/2024 - 10:00", // day out of range
		"01/13/2024 - 10:00", // month out of range
		"01/06/2024 - 24:00", // hour out of range
		"01/06/2024 - 12:61",
		"29/02/2023 - 10:00", // not a leap year
	}
	for _, s := range cases {
		if _, err := ParseDisplay(s); err == nil {
			t.Fatalf("expected error for %q", s)
		}
	}
}

func TestSortKeyZeroOnMalformed(t *testing.T) {
	if !SortKey("garbage").IsZero() {
		t.Fatalf("expected zero time for malformed timestamp")
	}
	if SortKey("01/06/2024 - 12:30").IsZero() {
		t.Fatalf("expected non-zero time for valid timestamp")
	}
}

func TestSortByTimestampDesc(t *testing.T) {
	meals := []Meal{
		{Description: "old", Timestamp: "01/06/2024 - 08:00"},
		{Description: "broken", Timestamp: "not a timestamp"},
		{Description: "new", Timestamp: "02/06/2024 - 08:00"},
		{Description: "mid", Timestamp: "01/06/2024 - 20:00"},
	}
	SortByTimestampDesc(meals)

	want := []string{"new", "mid", "old", "broken"}
	for i, w := range want {
		if meals[i].Description != w {
			t.Fatalf("position %d: got %q, want %q", i, meals[i].Description, w)
		}
	}
}

func TestSortStableOnTies(t *testing.T) {
	meals := []Meal{
		{Description: "first", Timestamp: "01/06/2024 - 08:00"},
		{Description: "second", Timestamp: "01/06/2024 - 08:00"},
		{Description: "third", Timestamp: "01/06/2024 - 08:00"},
	}
	SortByTimestampDesc(meals)
	want := []string{"first", "second", "third"}
	for i, w := range want {
		if meals[i].Description != w {
			t.Fatalf("position %d: got %q, want %q", i, meals[i].Description, w)
		}
	}
}

func TestCodecISOLocal(t *testing.T) {
	codec, err := NewCodec("Europe/Rome")
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	instant, err := codec.ParseISOLocal("2024-06-01T12:30")
	if err != nil {
		t.Fatalf("ParseISOLocal: %v", err)
	}
	if got := codec.FormatDisplay(instant); got != "01/06/2024 - 12:30" {
		t.Fatalf("FormatDisplay = %q", got)
	}
	// June in Rome is UTC+2.
	if got := instant.UTC().Hour(); got != 10 {
		t.Fatalf("expected 10:30 UTC, got hour %d", got)
	}

	if _, err := codec.ParseISOLocal("01/06/2024 - 12:30"); err == nil {
		t.Fatalf("expected error for display-format input")
	}
}

func TestNormalizeTimestamp(t *testing.T) {
	codec, err := NewCodec("Europe/Rome")
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}

	got, err := codec.NormalizeTimestamp("01/06/2024 - 12:30")
	if err != nil || got != "01/06/2024 - 12:30" {
		t.Fatalf("display input: got %q, %v", got, err)
	}

	got, err = codec.NormalizeTimestamp("2024-06-01T12:30")
	if err != nil || got != "01/06/2024 - 12:30" {
		t.Fatalf("ISO input: got %q, %v", got, err)
	}

	if got, err := codec.NormalizeTimestamp(""); err != nil || got == "" {
		t.Fatalf("empty input: got %q, %v", got, err)
	}

	if _, err := codec.NormalizeTimestamp("garbage"); err != ErrInvalidTimestamp {
		t.Fatalf("garbage input: err = %v, want ErrInvalidTimestamp", err)
	}
}

func TestNewCodecUnknownZone(t *testing.T) {
	if _, err := NewCodec("Mars/Olympus"); err == nil {
		t.Fatalf("expected error for unknown zone")
	}
}

func TestDateKey(t *testing.T) {
	ts := time.Date(2024, 6, 1, 23, 59, 0, 0, time.UTC)
	if got := DateKey(ts); got != "01/06/2024" {
		t.Fatalf("DateKey = %q", got)
	}
	parsed, err := ParseDateKey("01/06/2024")
	if err != nil {
		t.Fatalf("ParseDateKey: %v", err)
	}
	if !parsed.Equal(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("ParseDateKey = %v", parsed)
	}
}
