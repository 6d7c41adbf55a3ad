// Package convert provides the numeric and time coercion helpers used to
// turn loosely-typed wire values (JSON numbers, numeric strings, exchange
// timestamps in mixed resolutions) into the canonical Go types the core
// operates on. The OHLCV normalizer is its heaviest consumer.
package convert

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// FloatFromString coerces an interface holding a string into a float64.
func FloatFromString(raw any) (float64, error) {
	str, ok := raw.(string)
	if !ok {
		return 0, fmt.Errorf("unable to convert %T to string for float conversion", raw)
	}
	return strconv.ParseFloat(str, 64)
}

// IntFromString coerces an interface holding a string into an int.
func IntFromString(raw any) (int, error) {
	str, ok := raw.(string)
	if !ok {
		return 0, fmt.Errorf("unable to convert %T to string for int conversion", raw)
	}
	return strconv.Atoi(str)
}

// Int64FromString coerces an interface holding a string into an int64.
func Int64FromString(raw any) (int64, error) {
	str, ok := raw.(string)
	if !ok {
		return 0, fmt.Errorf("unable to convert %T to string for int64 conversion", raw)
	}
	return strconv.ParseInt(str, 10, 64)
}

// TimeFromUnixTimestampFloat coerces an interface holding a float64 Unix
// timestamp, in milliseconds, into a time.Time.
func TimeFromUnixTimestampFloat(raw any) (time.Time, error) {
	ts, ok := raw.(float64)
	if !ok {
		return time.Time{}, fmt.Errorf("unable to convert %T to float64 for time conversion", raw)
	}
	return time.UnixMilli(int64(ts)), nil
}

// UnixTimestampToTime returns the time.Time, in the local time zone, for a
// Unix timestamp in seconds.
func UnixTimestampToTime(timestamp int64) time.Time {
	return time.Unix(timestamp, 0)
}

// UnixTimestampStrToTime parses a Unix timestamp in seconds, encoded as a
// decimal string, into a time.Time.
func UnixTimestampStrToTime(timestamp string) (time.Time, error) {
	i, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(i, 0), nil
}

// BoolPtr returns a pointer to b. Useful for populating optional bool fields
// in catalog/config literals without an intermediate variable.
func BoolPtr(b bool) *bool {
	return &b
}

// InterfaceToFloat64OrZeroValue coerces raw into a float64, returning 0 if it
// is not already a float64. Used where a missing optional field must coerce
// to a safe zero instead of failing the whole decode.
func InterfaceToFloat64OrZeroValue(raw any) float64 {
	if v, ok := raw.(float64); ok {
		return v
	}
	return 0
}

var errUnhandledType = errors.New("convert: unhandled type for StringToFloat64")

// StringToFloat64 is a float64 that marshals to/from JSON as a decimal
// string, matching the wire format most exchanges use for price/size fields.
type StringToFloat64 float64

// UnmarshalJSON implements json.Unmarshaler. Only JSON strings (including the
// empty string, which coerces to zero) are accepted; bare JSON numbers are
// rejected so callers notice when an exchange silently changes field
// encoding.
func (s *StringToFloat64) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return errUnhandledType
	}
	if str == "" {
		*s = 0
		return nil
	}
	f, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return err
	}
	*s = StringToFloat64(f)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (s StringToFloat64) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatFloat(float64(s), 'f', -1, 64))
}

// Float64 returns the underlying float64 value.
func (s StringToFloat64) Float64() float64 {
	return float64(s)
}

// ExchangeTime decodes an exchange timestamp that may arrive as a JSON
// number or string, in second, millisecond, microsecond, or nanosecond
// resolution. This is
// the shape the OHLCV normalizer's row/column coercion builds on.
type ExchangeTime time.Time

// UnmarshalJSON implements json.Unmarshaler.
func (t *ExchangeTime) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		if v == "" {
			*t = ExchangeTime(time.Time{})
			return nil
		}
		i, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return err
		}
		*t = ExchangeTime(timeFromEpochValue(i))
		return nil
	case float64:
		if v == 0 {
			*t = ExchangeTime(time.Time{})
			return nil
		}
		*t = ExchangeTime(timeFromEpochValue(int64(v)))
		return nil
	default:
		return fmt.Errorf("%w: unhandled timestamp type %T", errUnhandledType, raw)
	}
}

// timeFromEpochValue infers the resolution of an integer epoch value from its
// magnitude (seconds, milliseconds, microseconds, or nanoseconds) and
// returns the
// corresponding time.Time.
func timeFromEpochValue(v int64) time.Time {
	switch {
	case v > 1e17: // nanoseconds
		return time.Unix(0, v)
	case v > 1e14: // microseconds
		return time.UnixMicro(v)
	case v > 1e11: // milliseconds
		return time.UnixMilli(v)
	default: // seconds
		return time.Unix(v, 0)
	}
}

// Time returns the underlying time.Time.
func (t ExchangeTime) Time() time.Time {
	return time.Time(t)
}
