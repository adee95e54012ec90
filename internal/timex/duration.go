// Package timex holds time helpers shared by the config loaders and the
// sync engine.
package timex

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Duration is a time.Duration that unmarshals from JSON as either a string
// accepted by time.ParseDuration ("3s", "1m30s") or an integer number of
// nanoseconds.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		d.Duration = parsed
		return nil
	default:
		return errors.New("invalid duration")
	}
}

// Stamp returns t in UTC truncated to microseconds. Every timestamp the
// system persists goes through Stamp so that values compare equal after a
// round trip through SQLite, PostgreSQL, JSON or protobuf.
func Stamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
