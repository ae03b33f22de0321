package clean

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/KaramelBytes/tidyloom/internal/dataset"
	"github.com/spf13/cast"
)

// TypeCoercer converts designated columns to float64 or time.Time. Cells that
// fail to parse become null; temporal values after Now become null as well.
type TypeCoercer struct {
	DateColumns    []string
	NumericColumns []string
	Now            time.Time
	sink           Sink
}

// NewTypeCoercer returns a coercer reporting to sink.
func NewTypeCoercer(dates, numerics []string, now time.Time, sink Sink) *TypeCoercer {
	return &TypeCoercer{DateColumns: dates, NumericColumns: numerics, Now: now, sink: sink}
}

// Apply returns a coerced copy of in.
func (c *TypeCoercer) Apply(in *dataset.Dataset) (*dataset.Dataset, error) {
	if in == nil {
		return nil, fmt.Errorf("coerce: %w: nil dataset", dataset.ErrInvalidDataset)
	}
	out := in.Clone()
	for _, col := range c.DateColumns {
		if !out.Has(col) {
			skipAbsent(c.sink, StepCoerce, col)
			continue
		}
		failed, future := 0, 0
		for i := 0; i < out.Len(); i++ {
			v := out.Value(i, col)
			if dataset.IsNull(v) {
				out.Set(i, col, nil)
				continue
			}
			t, ok := parseTime(v)
			if !ok {
				failed++
				out.Set(i, col, nil)
				continue
			}
			if t.After(c.Now) {
				future++
				out.Set(i, col, nil)
				continue
			}
			out.Set(i, col, t)
		}
		out.SetKind(col, dataset.Temporal)
		if failed > 0 {
			c.sink.Record(ConversionFailed{Column: col, Kind: dataset.Temporal.String(), Count: failed})
		}
		if future > 0 {
			c.sink.Record(FutureDatesReset{Column: col, Count: future})
		}
	}
	for _, col := range c.NumericColumns {
		if !out.Has(col) {
			skipAbsent(c.sink, StepCoerce, col)
			continue
		}
		failed := 0
		for i := 0; i < out.Len(); i++ {
			v := out.Value(i, col)
			if dataset.IsNull(v) {
				out.Set(i, col, nil)
				continue
			}
			f, ok := parseFloat(v)
			if !ok {
				failed++
				out.Set(i, col, nil)
				continue
			}
			out.Set(i, col, f)
		}
		out.SetKind(col, dataset.Numeric)
		if failed > 0 {
			c.sink.Record(ConversionFailed{Column: col, Kind: dataset.Numeric.String(), Count: failed})
		}
	}
	return out, nil
}

func parseFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case string:
		// cast reads "" as 0; a blank cell is a failed conversion here.
		s := strings.TrimSpace(x)
		if s == "" {
			return 0, false
		}
		v = s
	case time.Time:
		return 0, false
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// timeLayouts are tried when cast cannot parse a string on its own.
var timeLayouts = []string{
	"2006/01/02", "02/01/2006", "01/02/2006",
	"2006-01-02 15:04", "2006/01/02 15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
}

func parseTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case bool:
		return time.Time{}, false
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return time.Time{}, false
		}
		if t, err := cast.ToTimeInDefaultLocationE(s, time.UTC); err == nil {
			return t, true
		}
		for _, l := range timeLayouts {
			if t, err := time.ParseInLocation(l, s, time.UTC); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	}
	t, err := cast.ToTimeInDefaultLocationE(v, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
