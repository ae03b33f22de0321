package clean

import (
	"fmt"
	"sort"

	"github.com/KaramelBytes/tidyloom/internal/dataset"
	"github.com/KaramelBytes/tidyloom/internal/stats"
)

// OutlierHandler bounds numeric columns, one spec at a time in configured order.
type OutlierHandler struct {
	Specs []OutlierSpec
	sink  Sink
}

// NewOutlierHandler returns a handler for specs reporting to sink.
func NewOutlierHandler(specs []OutlierSpec, sink Sink) *OutlierHandler {
	return &OutlierHandler{Specs: specs, sink: sink}
}

// Apply runs every spec against a copy of in. Each spec sees the output of the
// previous one.
func (h *OutlierHandler) Apply(in *dataset.Dataset) (*dataset.Dataset, error) {
	if in == nil {
		return nil, fmt.Errorf("outliers: %w: nil dataset", dataset.ErrInvalidDataset)
	}
	out := in.Clone()
	for _, spec := range h.Specs {
		if err := spec.validate(); err != nil {
			return nil, fmt.Errorf("outliers: %w: %w", ErrInvalidConfig, err)
		}
		out = h.applyOne(out, spec)
	}
	return out, nil
}

// applyOne handles the lower bound first. The upper limit is then taken from
// whatever values remain after that, so a lower-bound clip or removal shifts it.
func (h *OutlierHandler) applyOne(d *dataset.Dataset, spec OutlierSpec) *dataset.Dataset {
	kind, ok := d.Kind(spec.Column)
	if !ok {
		skipAbsent(h.sink, StepOutlier, spec.Column)
		return d
	}
	if kind != dataset.Numeric {
		h.sink.Record(StepSkipped{Step: StepOutlier, Column: spec.Column, Reason: "column is " + kind.String()})
		return d
	}
	removed := make([]bool, d.Len())
	ev := OutliersHandled{Column: spec.Column, Strategy: spec.Strategy}

	if spec.Lower != nil {
		lo := *spec.Lower
		ev.Lower = Float(lo)
		for i := 0; i < d.Len(); i++ {
			if v, ok := dataset.Float(d.Value(i, spec.Column)); ok && v < lo {
				ev.Low++
				h.correct(d, i, spec, lo, removed)
			}
		}
	}

	if spec.UpperQuantile != nil {
		var vals []float64
		for i := 0; i < d.Len(); i++ {
			if removed[i] {
				continue
			}
			if v, ok := dataset.Float(d.Value(i, spec.Column)); ok {
				vals = append(vals, v)
			}
		}
		if len(vals) > 0 {
			sort.Float64s(vals)
			limit := quantileOf(vals, *spec.UpperQuantile, spec.Quantile)
			ev.UpperLimit = Float(limit)
			for i := 0; i < d.Len(); i++ {
				if removed[i] {
					continue
				}
				if v, ok := dataset.Float(d.Value(i, spec.Column)); ok && v > limit {
					ev.High++
					h.correct(d, i, spec, limit, removed)
				}
			}
		}
	}

	h.sink.Record(ev)
	if spec.Strategy != Remove {
		return d
	}
	before := d.Len()
	out := d.Filter(func(i int) bool { return !removed[i] })
	if n := before - out.Len(); n > 0 {
		h.sink.Record(RowsDropped{Reason: DropOutlier, Columns: []string{spec.Column}, Rows: n})
	}
	return out
}

func (h *OutlierHandler) correct(d *dataset.Dataset, i int, spec OutlierSpec, bound float64, removed []bool) {
	switch spec.Strategy {
	case Clip:
		d.Set(i, spec.Column, bound)
	case Nullify:
		d.Set(i, spec.Column, nil)
	case Remove:
		removed[i] = true
	}
}

func quantileOf(sorted []float64, q float64, m QuantileMethod) float64 {
	if m == LowerRank {
		return stats.LowerRank(sorted, q)
	}
	return stats.Quantile(sorted, q)
}
