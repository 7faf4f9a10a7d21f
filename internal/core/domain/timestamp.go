package domain

import (
	"time"
)

// Timestamp is the canonical time representation inside the engine: epoch
// milliseconds, UTC. Store records arrive with native date objects,
// epoch-second integers and ISO strings; they are normalized to this type at
// the boundary so nothing deeper in the pipeline branches on representation.
type Timestamp int64

// epochMillisFloor is the heuristic cut between epoch-second and
// epoch-millisecond numeric timestamps: values at or above it are already in
// milliseconds (anything in seconds this large would be past the year 33000).
const epochMillisFloor = 1e12

// TimestampFromTime converts a time.Time to a Timestamp.
func TimestampFromTime(t time.Time) Timestamp {
	if t.IsZero() {
		return 0
	}
	return Timestamp(t.UnixMilli())
}

// NormalizeTimestamp converts a heterogeneous timestamp representation to a
// Timestamp. Supported inputs: time.Time, integers and floats in epoch
// seconds or milliseconds, and RFC3339/ISO-8601 strings. The second return
// value is false when the input could not be interpreted.
func NormalizeTimestamp(v any) (Timestamp, bool) {
	switch t := v.(type) {
	case nil:
		return 0, false
	case time.Time:
		return TimestampFromTime(t), true
	case Timestamp:
		return t, true
	case int64:
		return normalizeEpoch(float64(t)), true
	case int:
		return normalizeEpoch(float64(t)), true
	case int32:
		return normalizeEpoch(float64(t)), true
	case float64:
		return normalizeEpoch(t), true
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
			if parsed, err := time.Parse(layout, t); err == nil {
				return TimestampFromTime(parsed), true
			}
		}
		return 0, false
	}
	return 0, false
}

func normalizeEpoch(v float64) Timestamp {
	if v <= 0 {
		return 0
	}
	if v >= epochMillisFloor {
		return Timestamp(v)
	}
	return Timestamp(v * 1000)
}

// Time converts the Timestamp back to a UTC time.Time.
func (ts Timestamp) Time() time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.UnixMilli(int64(ts)).UTC()
}

// IsZero reports whether the timestamp is unset.
func (ts Timestamp) IsZero() bool { return ts == 0 }

// Within reports whether two timestamps lie within d of each other.
func (ts Timestamp) Within(other Timestamp, d time.Duration) bool {
	diff := int64(ts) - int64(other)
	if diff < 0 {
		diff = -diff
	}
	return diff <= d.Milliseconds()
}

// After reports whether ts is strictly later than other.
func (ts Timestamp) After(other Timestamp) bool { return ts > other }
