package render

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrMalformedTimestamp is returned (wrapped) when a meeting or weather time
// cannot be parsed. It aborts the render pass.
var ErrMalformedTimestamp = errors.New("malformed timestamp")

// MalformedTimestampError names the field and the offending value.
type MalformedTimestampError struct {
	Field string
	Value string
}

func (e *MalformedTimestampError) Error() string {
	return fmt.Sprintf("malformed timestamp in %s: %q", e.Field, e.Value)
}

func (e *MalformedTimestampError) Unwrap() error { return ErrMalformedTimestamp }

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"15:04:05",
	"15:04",
}

// ParseTimestamp accepts the ISO-8601 shapes snapshot producers emit. The
// offset in the value is kept, so formatting shows the producer's wall clock.
// Values without an offset are read as UTC.
func ParseTimestamp(field, value string) (time.Time, error) {
	v := strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, &MalformedTimestampError{Field: field, Value: value}
}

// clock formats t as HH:MM.
func clock(t time.Time) string {
	return t.Format("15:04")
}
