package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Flag is a boolean persisted as 0 or 1. Documents written by older versions
// of the app store is_master as a number, so Flag reads any number (only 1 is
// true) and JSON booleans, but always writes 0 or 1.
type Flag bool

// MarshalJSON implements json.Marshaler.
func (f Flag) MarshalJSON() ([]byte, error) {
	if f {
		return []byte("1"), nil
	}
	return []byte("0"), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flag) UnmarshalJSON(data []byte) error {
	switch v := string(bytes.TrimSpace(data)); v {
	case "true":
		*f = true
	case "false", "null":
		*f = false
	default:
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("model: invalid flag value %s", data)
		}
		*f = n == 1
	}
	return nil
}

// TimestampLayout is how creation times are written to the document.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Timestamp is a creation time persisted as a millisecond ISO string, so a
// document read and saved again keeps the same text. An empty string or null
// reads as the zero time, which is written back as "".
type Timestamp struct {
	time.Time
}

// NewTimestamp truncates t to the precision the document keeps.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.Truncate(time.Millisecond)}
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(t.Format(TimestampLayout))
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		*t = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("model: timestamp must be a string: %w", err)
	}
	if s == "" {
		*t = Timestamp{}
		return nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("model: invalid timestamp %q: %w", s, err)
	}
	*t = Timestamp{Time: parsed}
	return nil
}

// OptionalString is a patch field for a nullable string. It tells apart the
// three JSON shapes a client can send:
//
//	{}                  → Set == false             (leave unchanged)
//	{"photo": null}     → Set == true, Value == nil (clear)
//	{"photo": "data:…"} → Set == true, Value != nil (replace)
type OptionalString struct {
	Set   bool
	Value *string
}

// Some returns an OptionalString that sets the value to s.
func Some(s string) OptionalString {
	return OptionalString{Set: true, Value: &s}
}

// Null returns an OptionalString that clears the value.
func Null() OptionalString {
	return OptionalString{Set: true}
}

// UnmarshalJSON implements json.Unmarshaler. It is only invoked when the key
// is present, which is how Set gets its meaning.
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(bytes.TrimSpace(data)) == "null" {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("model: expected string or null: %w", err)
	}
	o.Value = &s
	return nil
}
