// Package kline normalizes heterogeneous OHLCV input — row-oriented tuples
// or column-oriented maps, with mixed string/float/int typing — into a
// canonical, stably sorted bar sequence.
package kline

import (
	"fmt"
	"sort"

	"github.com/thrasher-corp/gocryptotrader-core/common/convert"
)

// Bar is one canonical OHLCV candle. Open/High/Low/Close/Volume are
// pointers so a coerced null can be preserved distinctly from zero.
type Bar struct {
	TimestampMS int64
	Open        *float64
	High        *float64
	Low         *float64
	Close       *float64
	Volume      *float64
}

// InvalidValueError reports a single coercion failure at a specific field
// and row index, per the normalizer's contract.
type InvalidValueError struct {
	Field string
	Index int
	Value any
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("kline: invalid value for field %q at index %d: %v", e.Field, e.Index, e.Value)
}

// fieldNames is the fixed column order row-form tuples and column-form maps
// are keyed by.
var fieldNames = [6]string{"timestamp", "open", "high", "low", "close", "volume"}

// Normalize coerces rows (each a slice of at least 6 elements in
// [ts, o, h, l, c, v] order; trailing elements are ignored) into a stably
// sorted, canonical Bar sequence.
func Normalize(rows [][]any) ([]Bar, error) {
	bars := make([]Bar, 0, len(rows))
	for i, row := range rows {
		if len(row) < 6 {
			return nil, &InvalidValueError{Field: "row", Index: i, Value: row}
		}
		bar, err := coerceRow(row, i)
		if err != nil {
			return nil, err
		}
		bars = append(bars, bar)
	}
	return stableSortByTimestamp(bars), nil
}

// Columns is the column-oriented input shape: one equal-length slice per
// required field name (case-sensitive, matching fieldNames).
type Columns map[string][]any

// NormalizeColumns coerces column-form input into the same canonical Bar
// sequence Normalize produces for the row-form equivalent.
func NormalizeColumns(cols Columns) ([]Bar, error) {
	n := -1
	series := make([][]any, 6)
	for i, name := range fieldNames {
		col, ok := cols[name]
		if !ok {
			return nil, fmt.Errorf("kline: missing column %q", name)
		}
		if n == -1 {
			n = len(col)
		} else if len(col) != n {
			return nil, fmt.Errorf("kline: column %q length %d does not match %d", name, len(col), n)
		}
		series[i] = col
	}

	rows := make([][]any, n)
	for i := 0; i < n; i++ {
		row := make([]any, 6)
		for f := 0; f < 6; f++ {
			row[f] = series[f][i]
		}
		rows[i] = row
	}
	return Normalize(rows)
}

func coerceRow(row []any, index int) (Bar, error) {
	ts, err := coerceTimestamp(row[0])
	if err != nil {
		return Bar{}, &InvalidValueError{Field: fieldNames[0], Index: index, Value: row[0]}
	}
	if ts <= 0 {
		return Bar{}, &InvalidValueError{Field: fieldNames[0], Index: index, Value: row[0]}
	}

	bar := Bar{TimestampMS: ts}
	targets := []**float64{&bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume}
	for i, target := range targets {
		v, err := coerceOHLCVValue(row[i+1])
		if err != nil {
			return Bar{}, &InvalidValueError{Field: fieldNames[i+1], Index: index, Value: row[i+1]}
		}
		*target = v
	}
	return bar, nil
}

// coerceTimestamp truncates floats, promotes integers, and parses numeric
// strings via common/convert's Int64FromString — kept as an exact integer
// parse rather than routing strings through coerceFloat, since a ms
// timestamp string shouldn't pay float64's precision loss.
func coerceTimestamp(v any) (int64, error) {
	switch t := v.(type) {
	case nil:
		return 0, fmt.Errorf("kline: null timestamp")
	case string:
		return convert.Int64FromString(t)
	case int64:
		return t, nil
	case int:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case float64:
		return int64(t), nil
	case float32:
		return int64(t), nil
	default:
		return 0, fmt.Errorf("kline: unsupported value type %T", v)
	}
}

// coerceOHLCVValue returns nil (preserving a null) or a coerced *float64.
func coerceOHLCVValue(v any) (*float64, error) {
	if v == nil {
		return nil, nil
	}
	f, err := coerceFloat(v)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// coerceFloat implements the coercion rule for OHLCV values (timestamps go
// through coerceTimestamp instead): floats pass through, integers are promoted, numeric strings are
// parsed via common/convert's FloatFromString — the teacher's own
// string-to-number coercion helper, used everywhere a wire value might
// arrive JSON-encoded as a string instead of a bare number.
func coerceFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int32:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case string:
		return convert.FloatFromString(t)
	default:
		return 0, fmt.Errorf("kline: unsupported value type %T", v)
	}
}

// stableSortByTimestamp sorts ascending by TimestampMS, preserving input
// order among equal timestamps.
func stableSortByTimestamp(bars []Bar) []Bar {
	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].TimestampMS < bars[j].TimestampMS
	})
	return bars
}
