// Package normalize maps the loosely typed scalars found in snapshot
// documents onto the values stored by the importer.
package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// SecondsThreshold separates second and millisecond epoch values. Anything
// below it is read as seconds.
const SecondsThreshold = 1e12

// numberIntKey is the tag used by extended-JSON integer wrappers.
const numberIntKey = "$numberInt"

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ToMillis converts a timestamp in any supported encoding to milliseconds
// since the Unix epoch. Absent or unparseable values yield 0.
func ToMillis(value any) int64 {
	switch v := value.(type) {
	case nil:
		return 0
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return scaleMillis(f)
		}
		return parseISOMillis(s)
	case json.Number:
		return ToMillis(string(v))
	case map[string]any:
		raw, ok := v[numberIntKey]
		if !ok {
			return 0
		}
		return unwrapNumberInt(raw)
	}

	if f, ok := numericValue(value); ok {
		return scaleMillis(f)
	}
	return 0
}

// ToMillisFloat is the variant used for float-bearing fields such as trade
// entry and exit times: a direct float parse is tried first and only values
// that are not floats fall back to ToMillis.
func ToMillisFloat(value any) int64 {
	if value == nil {
		return 0
	}
	if f, ok := Float(value); ok {
		return scaleMillis(f)
	}
	return ToMillis(value)
}

func scaleMillis(f float64) int64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	if f < SecondsThreshold {
		f *= 1000
	}
	f = math.Round(f)
	// beyond the int64 range the conversion is undefined
	if f >= math.MaxInt64 || f <= math.MinInt64 {
		return 0
	}
	return int64(f)
}

func parseISOMillis(s string) int64 {
	for _, layout := range isoLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UnixMilli()
		}
	}
	return 0
}

func unwrapNumberInt(raw any) int64 {
	switch v := raw.(type) {
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0
		}
		return n
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0
		}
		return n
	}
	if f, ok := numericValue(raw); ok && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return int64(f)
	}
	return 0
}

// NullIfEmpty turns empty or whitespace-only strings into nil. Every other
// value is returned unchanged.
func NullIfEmpty(value any) any {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case json.Number:
		s = string(v)
	default:
		return value
	}
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return value
}

// NullString applies NullIfEmpty and renders what remains as text.
func NullString(value any) *string {
	v := NullIfEmpty(value)
	if v == nil {
		return nil
	}
	s := Text(v)
	return &s
}

// Text renders a scalar as a string. nil becomes "".
func Text(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// NullFloat parses value as a float. Unparseable input and an exact zero
// both yield nil: zero is treated as an absent reading, not a measurement.
func NullFloat(value any) *float64 {
	f, ok := Float(value)
	if !ok || f == 0 || math.IsNaN(f) {
		return nil
	}
	return &f
}

// OptionalFloat parses value as a float without the zero rule of NullFloat.
func OptionalFloat(value any) *float64 {
	f, ok := Float(value)
	if !ok || math.IsNaN(f) {
		return nil
	}
	return &f
}

// Float parses numbers, json.Number and numeric strings.
func Float(value any) (float64, bool) {
	switch v := value.(type) {
	case nil:
		return 0, false
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return numericValue(value)
}

func numericValue(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}
