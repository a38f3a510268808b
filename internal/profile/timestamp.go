package profile

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"
)

var ErrUnparseableTimestamp = errors.New("profile: unparseable timestamp")

// TimestampValue is one of the timestamp shapes found in prior profile
// records: TimeInstant, ISOTimestamp, EpochMillis, ProviderTimestamp or
// UnknownTimestamp.
type TimestampValue interface {
	timestamp()
}

type TimeInstant struct{ Time time.Time }

type ISOTimestamp string

type EpochMillis int64

// ProviderTimestamp is the identity provider's {seconds, nanoseconds} object.
type ProviderTimestamp struct {
	Seconds     int64
	Nanoseconds int64
}

// UnknownTimestamp carries a value of no recognized shape.
type UnknownTimestamp struct{ Raw json.RawMessage }

func (TimeInstant) timestamp()       {}
func (ISOTimestamp) timestamp()      {}
func (EpochMillis) timestamp()       {}
func (ProviderTimestamp) timestamp() {}
func (UnknownTimestamp) timestamp()  {}

// DecodeTimestamp classifies a JSON value. It returns nil for an absent or
// null value.
func DecodeTimestamp(raw json.RawMessage) TimestampValue {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return ISOTimestamp(s)
		}
	case '{':
		var obj struct {
			Seconds      *int64 `json:"seconds"`
			Nanoseconds  *int64 `json:"nanoseconds"`
			USeconds     *int64 `json:"_seconds"`
			UNanoseconds *int64 `json:"_nanoseconds"`
		}
		if err := json.Unmarshal(raw, &obj); err == nil {
			secs, nanos := obj.Seconds, obj.Nanoseconds
			if secs == nil {
				secs, nanos = obj.USeconds, obj.UNanoseconds
			}
			if secs != nil {
				ts := ProviderTimestamp{Seconds: *secs}
				if nanos != nil {
					ts.Nanoseconds = *nanos
				}
				return ts
			}
		}
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil {
			if ms, err := n.Int64(); err == nil {
				return EpochMillis(ms)
			}
		}
	}
	return UnknownTimestamp{Raw: append(json.RawMessage(nil), raw...)}
}

// NormalizeTimestamp converts any accepted shape to a UTC time. Anything
// else, including nil, fails with ErrUnparseableTimestamp.
func NormalizeTimestamp(v TimestampValue) (time.Time, error) {
	switch ts := v.(type) {
	case TimeInstant:
		if ts.Time.IsZero() {
			return time.Time{}, ErrUnparseableTimestamp
		}
		return ts.Time.UTC(), nil
	case ISOTimestamp:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, string(ts)); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, ErrUnparseableTimestamp
	case EpochMillis:
		return time.UnixMilli(int64(ts)).UTC(), nil
	case ProviderTimestamp:
		if ts.Nanoseconds < 0 || ts.Nanoseconds >= int64(time.Second) {
			return time.Time{}, ErrUnparseableTimestamp
		}
		return time.Unix(ts.Seconds, ts.Nanoseconds).UTC(), nil
	default:
		return time.Time{}, ErrUnparseableTimestamp
	}
}
