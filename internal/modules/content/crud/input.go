package crud

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	time.DateTime,
	time.DateOnly,
}

// ParseTime accepts RFC 3339, naive ISO 8601 (read as UTC) and plain dates.
func ParseTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Timestamp is a write-payload date that accepts every ParseTime form.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp must be a string")
	}
	parsed, ok := ParseTime(s)
	if !ok {
		return fmt.Errorf("invalid timestamp %q", s)
	}
	t.Time = parsed
	return nil
}

// Ptr returns the time as a pointer, nil for a nil Timestamp.
func (t *Timestamp) Ptr() *time.Time {
	if t == nil {
		return nil
	}
	v := t.Time
	return &v
}

// Link is an optional to-one relation in a write payload. An absent key
// leaves the relation alone, `null` clears it, anything else sets it.
type Link struct {
	Set bool
	Ref Ref
}

func (l *Link) UnmarshalJSON(b []byte) error {
	l.Set = true
	return l.Ref.UnmarshalJSON(b)
}
