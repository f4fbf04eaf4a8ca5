package timex

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// layouts accepted by Timestamp, tried in order. The API emits naive
// ISO-8601 values (no zone) for most records; those are read as UTC.
var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// Timestamp is a time.Time that decodes RFC 3339, naive ISO-8601 and null.
type Timestamp struct {
	time.Time
}

// Now is the current time in UTC.
func Now() Timestamp {
	return Timestamp{Time: time.Now().UTC()}
}

func ParseTimestamp(s string) (Timestamp, error) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t.UTC()}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("unsupported timestamp %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
