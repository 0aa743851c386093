package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Timestamp is a point in time as the API serializes it. The backend writes
// naive ISO-8601 strings in UTC, so values without a zone are read as UTC.
type Timestamp struct {
	time.Time
}

// layouts tried in order when the value carries no zone designator
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses an API time string
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return Timestamp{t}, nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return Timestamp{t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("unrecognized time %q", s)
}

// UnmarshalJSON accepts null, empty strings and any supported layout.
// Values it cannot read decode as the zero time, which renders as "-".
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var raw string
	if err := unquote(b, &raw); err != nil {
		*t = Timestamp{}
		return nil
	}
	ts, err := ParseTimestamp(raw)
	if err != nil {
		*t = Timestamp{}
		return nil
	}
	*t = ts
	return nil
}

// MarshalJSON writes RFC 3339 in UTC, or null for the zero time
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// LocalString formats the time in the local zone, "-" when unset
func (t Timestamp) LocalString() string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("Jan 02, 2006, 03:04:05 PM")
}

// Compare orders timestamps; used by the stable sorts
func (t Timestamp) Compare(o Timestamp) int {
	return t.Time.Compare(o.Time)
}

// unquote decodes a JSON string, treating null as empty
func unquote(b []byte, out *string) error {
	if string(b) == "null" {
		*out = ""
		return nil
	}
	return json.Unmarshal(b, out)
}
