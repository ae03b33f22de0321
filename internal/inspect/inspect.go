// Package inspect profiles a dataset's data quality: per-column nulls,
// cardinality, numeric spread and robust outlier counts.
package inspect

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/KaramelBytes/tidyloom/internal/dataset"
	"github.com/KaramelBytes/tidyloom/internal/stats"
)

// Options controls profiling.
type Options struct {
	// TopN categorical values listed per text column.
	TopN int
	// OutlierZ is the robust z-score (via MAD) above which a value counts as
	// an outlier. 0 disables the count.
	OutlierZ float64
}

// DefaultOptions returns reasonable defaults for profiling.
func DefaultOptions() Options {
	return Options{TopN: 5, OutlierZ: 3.5}
}

// Profile describes one dataset.
type Profile struct {
	Name    string          `json:"name"`
	Rows    int             `json:"rows"`
	Columns []ColumnProfile `json:"columns"`
}

// ColumnProfile captures statistics for one column.
type ColumnProfile struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	NonNull int    `json:"non_null"`
	Missing int    `json:"missing"`
	Unique  int    `json:"unique"`
	// Numeric columns
	Min      float64 `json:"min,omitempty"`
	Max      float64 `json:"max,omitempty"`
	Mean     float64 `json:"mean,omitempty"`
	Std      float64 `json:"std,omitempty"`
	Median   float64 `json:"median,omitempty"`
	P99      float64 `json:"p99,omitempty"`
	Outliers int     `json:"outliers,omitempty"`
	// Temporal columns
	Earliest *time.Time `json:"earliest,omitempty"`
	Latest   *time.Time `json:"latest,omitempty"`
	// Text and identifier columns
	TopValues []CategoryCount `json:"top_values,omitempty"`
	// Mismatched counts non-null cells whose Go type does not match the
	// column kind, such as text left in a Numeric column.
	Mismatched int `json:"mismatched,omitempty"`
}

type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Dataset profiles d. It never modifies d.
func Dataset(d *dataset.Dataset, opt Options) (*Profile, error) {
	if d == nil {
		return nil, fmt.Errorf("inspect: %w: nil dataset", dataset.ErrInvalidDataset)
	}
	if opt.TopN < 0 {
		opt.TopN = 0
	}
	p := &Profile{Name: d.Name, Rows: d.Len()}
	for _, col := range d.Columns() {
		p.Columns = append(p.Columns, column(d, col, opt))
	}
	return p, nil
}

func column(d *dataset.Dataset, col dataset.Column, opt Options) ColumnProfile {
	cp := ColumnProfile{Name: col.Name, Kind: col.Kind.String()}
	counts := map[string]int{}
	var nums []float64
	for i := 0; i < d.Len(); i++ {
		v := d.Value(i, col.Name)
		if dataset.IsNull(v) {
			cp.Missing++
			continue
		}
		cp.NonNull++
		counts[dataset.Key(v)]++
		switch col.Kind {
		case dataset.Numeric:
			f, ok := dataset.Float(v)
			if !ok {
				cp.Mismatched++
				continue
			}
			nums = append(nums, f)
		case dataset.Temporal:
			t, ok := v.(time.Time)
			if !ok {
				cp.Mismatched++
				continue
			}
			if cp.Earliest == nil || t.Before(*cp.Earliest) {
				tt := t
				cp.Earliest = &tt
			}
			if cp.Latest == nil || t.After(*cp.Latest) {
				tt := t
				cp.Latest = &tt
			}
		}
	}
	cp.Unique = len(counts)
	if len(nums) > 0 {
		numeric(&cp, nums, opt)
	}
	if (col.Kind == dataset.Text || col.Kind == dataset.Identifier) && opt.TopN > 0 {
		cp.TopValues = top(d, col.Name, opt.TopN)
	}
	return cp
}

func numeric(cp *ColumnProfile, vals []float64, opt Options) {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	cp.Min, cp.Max = sorted[0], sorted[len(sorted)-1]
	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	cp.Mean = sum / float64(len(sorted))
	ss := 0.0
	for _, v := range sorted {
		ss += (v - cp.Mean) * (v - cp.Mean)
	}
	if len(sorted) > 1 {
		cp.Std = math.Sqrt(ss / float64(len(sorted)-1))
	}
	cp.Median = stats.Quantile(sorted, 0.5)
	cp.P99 = stats.Quantile(sorted, 0.99)
	if opt.OutlierZ > 0 {
		med, mad := stats.MedianMAD(sorted)
		if mad > 0 {
			for _, v := range sorted {
				// 0.6745 scales MAD to a standard deviation under normality.
				if z := 0.6745 * math.Abs(v-med) / mad; z > opt.OutlierZ {
					cp.Outliers++
				}
			}
		}
	}
}

// top returns the n most frequent rendered values of col; ties go to the
// lexically smaller value.
func top(d *dataset.Dataset, col string, n int) []CategoryCount {
	counts := map[string]int{}
	for i := 0; i < d.Len(); i++ {
		v := d.Value(i, col)
		if dataset.IsNull(v) {
			continue
		}
		counts[fmt.Sprint(v)]++
	}
	out := make([]CategoryCount, 0, len(counts))
	for k, c := range counts {
		out = append(out, CategoryCount{Value: k, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Value < out[j].Value
		}
		return out[i].Count > out[j].Count
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// Markdown renders a compact profile.
func (p *Profile) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET PROFILE]\n")
	b.WriteString(fmt.Sprintf("Dataset: %s\n", p.Name))
	b.WriteString(fmt.Sprintf("Rows: %d\n", p.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(p.Columns)))
	b.WriteString("[SCHEMA]\n")
	for _, c := range p.Columns {
		missPct := 0.0
		if total := c.NonNull + c.Missing; total > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(total)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %.1f%%, unique %d)", c.Name, c.Kind, c.NonNull, missPct, c.Unique))
		switch c.Kind {
		case dataset.Numeric.String():
			if c.NonNull > c.Mismatched {
				b.WriteString(fmt.Sprintf("; min %.4g, max %.4g, mean %.4g, median %.4g, p99 %.4g", c.Min, c.Max, c.Mean, c.Median, c.P99))
			}
			if c.Outliers > 0 {
				b.WriteString(fmt.Sprintf("; %d robust outliers", c.Outliers))
			}
		case dataset.Temporal.String():
			if c.Earliest != nil {
				b.WriteString(fmt.Sprintf("; %s to %s", c.Earliest.Format(time.DateOnly), c.Latest.Format(time.DateOnly)))
			}
		default:
			if len(c.TopValues) > 0 {
				b.WriteString("; top: ")
				for i, kv := range c.TopValues {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
				}
			}
		}
		if c.Mismatched > 0 {
			b.WriteString(fmt.Sprintf("; %d values of the wrong type", c.Mismatched))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func safeVal(s string) string {
	s = strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/")
	if len(s) > 40 {
		s = s[:37] + "..."
	}
	return s
}
