package core

import (
	"fmt"
	"sort"
	"time"
)

const (
	// DisplayLayout is the persisted timestamp form, minute precision,
	// no timezone: the display string is fixed to the configured local
	// zone at write time.
	DisplayLayout = "02/01/2006 - 15:04"

	// DateKeyLayout is the date-only form used as aggregation bucket key.
	DateKeyLayout = "02/01/2006"

	// RangeLayout is the ISO calendar-date form accepted by report
	// date-range inputs.
	RangeLayout = "2006-01-02"

	isoLocalLayout = "2006-01-02T15:04"

	// DefaultTimezone is used when no zone is configured.
	DefaultTimezone = "Europe/Rome"
)

// ParseDisplay parses a display-format timestamp. Any deviation,
// including out-of-range day or hour values, is an error.
func ParseDisplay(s string) (time.Time, error) {
	t, err := time.Parse(DisplayLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse display timestamp %q: %w", s, err)
	}
	return t, nil
}

// DateKey truncates an instant to its calendar date in display form.
func DateKey(t time.Time) string {
	return t.Format(DateKeyLayout)
}

// ParseDateKey parses a date key back into a calendar date.
func ParseDateKey(s string) (time.Time, error) {
	t, err := time.Parse(DateKeyLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date key %q: %w", s, err)
	}
	return t, nil
}

// SortKey parses a display timestamp for ordering. Malformed historical
// data yields the zero time so that sorting never fails; such records
// sort last when ordered descending.
func SortKey(s string) time.Time {
	t, err := time.Parse(DisplayLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Timestamped is any record carrying a display timestamp.
type Timestamped interface {
	When() string
}

// SortByTimestampDesc orders records newest-first by parsed display
// timestamp. The sort is stable: ties and unparsable entries keep their
// insertion order, which for an append-only log is earliest-first.
func SortByTimestampDesc[T Timestamped](recs []T) {
	sort.SliceStable(recs, func(i, j int) bool {
		return SortKey(recs[i].When()).After(SortKey(recs[j].When()))
	})
}

// Codec formats and parses wall-clock timestamps in one configured
// named timezone.
type Codec struct {
	loc *time.Location
}

func NewCodec(zone string) (*Codec, error) {
	if zone == "" {
		zone = DefaultTimezone
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", zone, err)
	}
	return &Codec{loc: loc}, nil
}

// FormatDisplay renders an instant as local wall-clock time in the
// configured zone.
func (c *Codec) FormatDisplay(t time.Time) string {
	return t.In(c.loc).Format(DisplayLayout)
}

// ParseISOLocal parses a timezone-naive "YYYY-MM-DDTHH:MM" string as
// wall-clock time in the configured zone.
func (c *Codec) ParseISOLocal(s string) (time.Time, error) {
	t, err := time.ParseInLocation(isoLocalLayout, s, c.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse ISO timestamp %q: %w", s, err)
	}
	return t, nil
}

// NowDisplay returns the current wall-clock time in display form, used
// to pre-fill entry forms.
func (c *Codec) NowDisplay() string {
	return c.FormatDisplay(time.Now())
}

// NormalizeTimestamp converts request input into the persisted display
// form: empty means now, display-form strings pass through, ISO-local
// strings (datetime pickers) are converted.
func (c *Codec) NormalizeTimestamp(s string) (string, error) {
	if s == "" {
		return c.NowDisplay(), nil
	}
	if _, err := ParseDisplay(s); err == nil {
		return s, nil
	}
	if t, err := c.ParseISOLocal(s); err == nil {
		return c.FormatDisplay(t), nil
	}
	return "", ErrInvalidTimestamp
}
