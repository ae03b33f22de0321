package clean

import (
	"fmt"

	"github.com/KaramelBytes/tidyloom/internal/dataset"
)

// MissingValueResolver fills or drops nulls. Policies run in a fixed order:
// mode fill, then sentinel fill, then drop-if-null.
type MissingValueResolver struct {
	ModeFill     []string
	SentinelFill []string
	DropIfNull   []string
	Sentinel     string
	// Reason tags rows removed by DropIfNull; defaults to DropMissing.
	Reason DropReason
	sink   Sink
}

// NewMissingValueResolver returns a resolver reporting to sink.
func NewMissingValueResolver(mode, sentinel, drop []string, sentinelValue string, sink Sink) *MissingValueResolver {
	if sentinelValue == "" {
		sentinelValue = DefaultSentinel
	}
	return &MissingValueResolver{
		ModeFill:     mode,
		SentinelFill: sentinel,
		DropIfNull:   drop,
		Sentinel:     sentinelValue,
		Reason:       DropMissing,
		sink:         sink,
	}
}

// Apply returns a copy of in with the configured policies applied.
func (m *MissingValueResolver) Apply(in *dataset.Dataset) (*dataset.Dataset, error) {
	if in == nil {
		return nil, fmt.Errorf("missing values: %w: nil dataset", dataset.ErrInvalidDataset)
	}
	out := in.Clone()
	for _, col := range m.ModeFill {
		if !out.Has(col) {
			skipAbsent(m.sink, StepMissing, col)
			continue
		}
		fill, ok := mode(out, col)
		if !ok {
			fill = m.Sentinel
			m.sink.Record(ModeUnavailable{Column: col, Fallback: m.Sentinel})
		}
		if n := fillNulls(out, col, fill); n > 0 {
			m.sink.Record(ValuesFilled{Column: col, Policy: ModeFill, Value: fill, Count: n})
		}
	}
	for _, col := range m.SentinelFill {
		if !out.Has(col) {
			skipAbsent(m.sink, StepMissing, col)
			continue
		}
		if n := fillNulls(out, col, m.Sentinel); n > 0 {
			m.sink.Record(ValuesFilled{Column: col, Policy: SentinelFill, Value: m.Sentinel, Count: n})
		}
	}
	if len(m.DropIfNull) > 0 {
		out = dropNulls(out, m.DropIfNull, m.reason(), m.sink)
	}
	return out, nil
}

func (m *MissingValueResolver) reason() DropReason {
	if m.Reason == "" {
		return DropMissing
	}
	return m.Reason
}

// mode returns the most frequent non-null value of col. Ties go to the value
// seen first.
func mode(d *dataset.Dataset, col string) (any, bool) {
	counts := map[string]int{}
	first := map[string]any{}
	var order []string
	for i := 0; i < d.Len(); i++ {
		v := d.Value(i, col)
		if dataset.IsNull(v) {
			continue
		}
		k := dataset.Key(v)
		if _, seen := first[k]; !seen {
			first[k] = v
			order = append(order, k)
		}
		counts[k]++
	}
	if len(order) == 0 {
		return nil, false
	}
	best := order[0]
	for _, k := range order[1:] {
		if counts[k] > counts[best] {
			best = k
		}
	}
	return first[best], true
}

// fillNulls writes v into every null cell of col and returns how many changed.
// A text fill demotes a Numeric or Temporal column to Text.
func fillNulls(d *dataset.Dataset, col string, v any) int {
	n := 0
	for i := 0; i < d.Len(); i++ {
		if dataset.IsNull(d.Value(i, col)) {
			d.Set(i, col, v)
			n++
		}
	}
	if _, isText := v.(string); n > 0 && isText {
		if k, _ := d.Kind(col); k == dataset.Numeric || k == dataset.Temporal {
			d.SetKind(col, dataset.Text)
		}
	}
	return n
}

// dropNulls removes rows that are null in at least one present column of cols.
func dropNulls(d *dataset.Dataset, cols []string, reason DropReason, sink Sink) *dataset.Dataset {
	var present []string
	for _, col := range cols {
		if !d.Has(col) {
			skipAbsent(sink, StepMissing, col)
			continue
		}
		present = append(present, col)
	}
	if len(present) == 0 {
		return d
	}
	before := d.Len()
	out := d.Filter(func(i int) bool {
		for _, col := range present {
			if dataset.IsNull(d.Value(i, col)) {
				return false
			}
		}
		return true
	})
	sink.Record(RowsDropped{Reason: reason, Columns: present, Rows: before - out.Len()})
	return out
}
