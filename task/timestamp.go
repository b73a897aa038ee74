package task

import (
	"encoding/json"
	"strings"
	"time"
)

// wireLayouts are tried in order when decoding fechaCreacion. The reference
// server serializes a zone-less local date-time, other servers send RFC3339.
var wireLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Timestamp is a time.Time with a tolerant JSON codec. Empty, null or
// unparsable values decode to the zero time instead of failing the whole list.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) Timestamp { return Timestamp{Time: t} }

// ParseTimestamp parses s with the accepted wire layouts. Zone-less values are
// interpreted in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range wireLayouts {
		var (
			t   time.Time
			err error
		)
		if layout == time.RFC3339Nano {
			t, err = time.Parse(layout, s)
		} else {
			t, err = time.ParseInLocation(layout, s, loc)
		}
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		ts.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		// Epoch milliseconds.
		var ms int64
		if numErr := json.Unmarshal(b, &ms); numErr == nil {
			ts.Time = time.UnixMilli(ms)
			return nil
		}
		ts.Time = time.Time{}
		return nil
	}
	t, _ := ParseTimestamp(s, time.Local)
	ts.Time = t
	return nil
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.Time.Format(time.RFC3339Nano))
}
