package kline

// LightweightChartsBar is the shape github.com/tradingview/lightweight-charts
// expects: second-resolution Unix time and plain floats (no null volume).
type LightweightChartsBar struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume,omitempty"`
}

// ToLightweightCharts converts a canonical Bar sequence into the
// Lightweight-Charts wire shape. Nil OHLCV fields become zero.
func ToLightweightCharts(bars []Bar) []LightweightChartsBar {
	out := make([]LightweightChartsBar, len(bars))
	for i, b := range bars {
		out[i] = LightweightChartsBar{
			Time:   b.TimestampMS / 1000,
			Open:   deref(b.Open),
			High:   deref(b.High),
			Low:    deref(b.Low),
			Close:  deref(b.Close),
			Volume: deref(b.Volume),
		}
	}
	return out
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

// MapAdapter is a generic per-bar mapping function, letting callers project
// a canonical Bar into any caller-defined shape (e.g. an exchange-specific
// REST response row) without the normalizer needing to know about it.
type MapAdapter[T any] func(Bar) T

// Map applies fn to every bar in bars, in order.
func Map[T any](bars []Bar, fn MapAdapter[T]) []T {
	out := make([]T, len(bars))
	for i, b := range bars {
		out[i] = fn(b)
	}
	return out
}
