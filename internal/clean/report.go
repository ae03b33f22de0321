package clean

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Step names used in skip events.
const (
	StepDedupe  = "dedupe"
	StepCoerce  = "coerce"
	StepMissing = "missing"
	StepOutlier = "outlier"
	StepText    = "text"
)

// DropReason explains why rows left the dataset.
type DropReason string

const (
	DropMissing  DropReason = "missing"
	DropCritical DropReason = "critical"
	DropOutlier  DropReason = "outlier"
)

// Event is one observable corrective action or notice.
type Event interface{ event() }

// Sink receives events from cleaning components.
type Sink interface {
	Record(Event)
}

type DuplicatesRemoved struct {
	Keys []string `json:"keys"`
	Rows int      `json:"rows"`
}

type ConversionFailed struct {
	Column string `json:"column"`
	Kind   string `json:"kind"`
	Count  int    `json:"count"`
}

type FutureDatesReset struct {
	Column string `json:"column"`
	Count  int    `json:"count"`
}

type ValuesFilled struct {
	Column string     `json:"column"`
	Policy FillPolicy `json:"policy"`
	Value  any        `json:"value"`
	Count  int        `json:"count"`
}

type ModeUnavailable struct {
	Column   string `json:"column"`
	Fallback string `json:"fallback"`
}

type RowsDropped struct {
	Reason  DropReason `json:"reason"`
	Columns []string   `json:"columns"`
	Rows    int        `json:"rows"`
}

type OutliersHandled struct {
	Column     string   `json:"column"`
	Strategy   Strategy `json:"strategy"`
	Low        int      `json:"low"`
	High       int      `json:"high"`
	Lower      *float64 `json:"lower,omitempty"`
	UpperLimit *float64 `json:"upper_limit,omitempty"`
}

type TextNormalized struct {
	Column  string `json:"column"`
	Changed int    `json:"changed"`
}

type StepSkipped struct {
	Step   string `json:"step"`
	Column string `json:"column"`
	Reason string `json:"reason"`
}

func (DuplicatesRemoved) event() {}
func (ConversionFailed) event()  {}
func (FutureDatesReset) event()  {}
func (ValuesFilled) event()      {}
func (ModeUnavailable) event()   {}
func (RowsDropped) event()       {}
func (OutliersHandled) event()   {}
func (TextNormalized) event()    {}
func (StepSkipped) event()       {}

// Report accumulates the corrective actions of one pipeline run.
type Report struct {
	RunID              string             `json:"run_id"`
	Dataset            string             `json:"dataset"`
	ProcessedAt        time.Time          `json:"processed_at"`
	InputRows          int                `json:"input_rows"`
	OutputRows         int                `json:"output_rows"`
	DuplicatesRemoved  int                `json:"duplicates_removed"`
	RowsDropped        map[DropReason]int `json:"rows_dropped"`
	Drops              []RowsDropped      `json:"drops,omitempty"`
	ConversionFailures map[string]int     `json:"conversion_failures"`
	FutureDates        map[string]int     `json:"future_dates"`
	Fills              []ValuesFilled     `json:"fills,omitempty"`
	Outliers           []OutliersHandled  `json:"outliers,omitempty"`
	Normalized         map[string]int     `json:"normalized"`
	Skipped            []StepSkipped      `json:"skipped,omitempty"`
	Warnings           []string           `json:"warnings,omitempty"`
}

// Dropped returns the number of rows removed for reason.
func (r *Report) Dropped(reason DropReason) int { return r.RowsDropped[reason] }

// OutlierCount returns low+high occurrences handled on column with strategy.
func (r *Report) OutlierCount(column string, s Strategy) int {
	n := 0
	for _, o := range r.Outliers {
		if o.Column == column && o.Strategy == s {
			n += o.Low + o.High
		}
	}
	return n
}

// TotalOutliers sums every outlier occurrence in the run.
func (r *Report) TotalOutliers() int {
	n := 0
	for _, o := range r.Outliers {
		n += o.Low + o.High
	}
	return n
}

// WasSkipped reports whether step was skipped for column.
func (r *Report) WasSkipped(step, column string) bool {
	for _, s := range r.Skipped {
		if s.Step == step && s.Column == column {
			return true
		}
	}
	return false
}

func (r *Report) clone() *Report {
	out := *r
	out.RowsDropped = make(map[DropReason]int, len(r.RowsDropped))
	for k, v := range r.RowsDropped {
		out.RowsDropped[k] = v
	}
	out.ConversionFailures = copyCounts(r.ConversionFailures)
	out.FutureDates = copyCounts(r.FutureDates)
	out.Normalized = copyCounts(r.Normalized)
	out.Drops = make([]RowsDropped, len(r.Drops))
	for i, d := range r.Drops {
		d.Columns = cloneStrings(d.Columns)
		out.Drops[i] = d
	}
	out.Fills = append([]ValuesFilled(nil), r.Fills...)
	out.Outliers = make([]OutliersHandled, len(r.Outliers))
	for i, o := range r.Outliers {
		if o.Lower != nil {
			o.Lower = Float(*o.Lower)
		}
		if o.UpperLimit != nil {
			o.UpperLimit = Float(*o.UpperLimit)
		}
		out.Outliers[i] = o
	}
	out.Skipped = append([]StepSkipped(nil), r.Skipped...)
	out.Warnings = cloneStrings(r.Warnings)
	return &out
}

func copyCounts(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Recorder is the Sink a pipeline run writes to. It keeps the report under
// construction and mirrors every event to a structured logger.
type Recorder struct {
	log *zap.Logger
	rep Report
}

// NewRecorder starts a fresh report for one run of the named dataset.
func NewRecorder(name string, processedAt time.Time, log *zap.Logger) *Recorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Recorder{
		log: log.With(zap.String("dataset", name)),
		rep: Report{
			RunID:              uuid.NewString(),
			Dataset:            name,
			ProcessedAt:        processedAt,
			RowsDropped:        map[DropReason]int{},
			ConversionFailures: map[string]int{},
			FutureDates:        map[string]int{},
			Normalized:         map[string]int{},
		},
	}
}

// Record applies ev to the report and logs it.
func (r *Recorder) Record(ev Event) {
	switch e := ev.(type) {
	case DuplicatesRemoved:
		r.rep.DuplicatesRemoved += e.Rows
		r.log.Info("dropped duplicate rows", zap.Int("rows", e.Rows), zap.Strings("keys", e.Keys))
	case ConversionFailed:
		r.rep.ConversionFailures[e.Column] += e.Count
		r.log.Warn("values failed conversion", zap.String("column", e.Column), zap.String("kind", e.Kind), zap.Int("count", e.Count))
	case FutureDatesReset:
		r.rep.FutureDates[e.Column] += e.Count
		r.log.Warn("future dates reset to null", zap.String("column", e.Column), zap.Int("count", e.Count))
	case ValuesFilled:
		r.rep.Fills = append(r.rep.Fills, e)
		r.log.Info("filled missing values", zap.String("column", e.Column), zap.Stringer("policy", e.Policy), zap.Any("value", e.Value), zap.Int("count", e.Count))
	case ModeUnavailable:
		r.rep.Warnings = append(r.rep.Warnings, fmt.Sprintf("mode for column %q is empty; filling with %q", e.Column, e.Fallback))
		r.log.Warn("mode unavailable, using sentinel", zap.String("column", e.Column), zap.String("fallback", e.Fallback))
	case RowsDropped:
		r.rep.RowsDropped[e.Reason] += e.Rows
		r.rep.Drops = append(r.rep.Drops, e)
		r.log.Info("dropped rows", zap.String("reason", string(e.Reason)), zap.Strings("columns", e.Columns), zap.Int("rows", e.Rows))
	case OutliersHandled:
		r.rep.Outliers = append(r.rep.Outliers, e)
		fields := []zap.Field{zap.String("column", e.Column), zap.Stringer("strategy", e.Strategy), zap.Int("low", e.Low), zap.Int("high", e.High)}
		if e.UpperLimit != nil {
			fields = append(fields, zap.Float64("upper_limit", *e.UpperLimit))
		}
		r.log.Info("handled outliers", fields...)
	case TextNormalized:
		r.rep.Normalized[e.Column] += e.Changed
		r.log.Info("normalized text", zap.String("column", e.Column), zap.Int("changed", e.Changed))
	case StepSkipped:
		r.rep.Skipped = append(r.rep.Skipped, e)
		r.log.Info("step skipped", zap.String("step", e.Step), zap.String("column", e.Column), zap.String("reason", e.Reason))
	}
}

// Report returns a snapshot of the report; later events do not affect it.
func (r *Recorder) Report() *Report { return r.rep.clone() }

func (r *Recorder) setRows(in, out int) {
	r.rep.InputRows = in
	r.rep.OutputRows = out
}

func skipAbsent(sink Sink, step, col string) {
	sink.Record(StepSkipped{Step: step, Column: col, Reason: "column absent"})
}

// Markdown renders a compact human-readable summary of the run.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[CLEANING SUMMARY]\n")
	b.WriteString(fmt.Sprintf("Dataset: %s\n", r.Dataset))
	b.WriteString(fmt.Sprintf("Run: %s at %s\n", r.RunID, r.ProcessedAt.Format(time.RFC3339)))
	b.WriteString(fmt.Sprintf("Rows: %d -> %d\n", r.InputRows, r.OutputRows))
	b.WriteString(fmt.Sprintf("Duplicates removed: %d\n", r.DuplicatesRemoved))

	if len(r.Drops) > 0 {
		b.WriteString("\n[ROWS DROPPED]\n")
		for _, d := range r.Drops {
			b.WriteString(fmt.Sprintf("- %s: %d (columns: %s)\n", d.Reason, d.Rows, strings.Join(d.Columns, ", ")))
		}
	}
	if len(r.ConversionFailures)+len(r.FutureDates) > 0 {
		b.WriteString("\n[TYPE CORRECTIONS]\n")
		for _, k := range sortedKeys(r.ConversionFailures) {
			b.WriteString(fmt.Sprintf("- %s: %d failed conversion\n", k, r.ConversionFailures[k]))
		}
		for _, k := range sortedKeys(r.FutureDates) {
			b.WriteString(fmt.Sprintf("- %s: %d future dates reset\n", k, r.FutureDates[k]))
		}
	}
	if len(r.Fills) > 0 {
		b.WriteString("\n[FILLS]\n")
		for _, f := range r.Fills {
			b.WriteString(fmt.Sprintf("- %s: %d filled by %s with %v\n", f.Column, f.Count, f.Policy, f.Value))
		}
	}
	if len(r.Outliers) > 0 {
		b.WriteString("\n[OUTLIERS]\n")
		for _, o := range r.Outliers {
			b.WriteString(fmt.Sprintf("- %s: %d low, %d high (%s)", o.Column, o.Low, o.High, o.Strategy))
			if o.UpperLimit != nil {
				b.WriteString(fmt.Sprintf("; upper limit %.4g", *o.UpperLimit))
			}
			b.WriteString("\n")
		}
	}
	if len(r.Normalized) > 0 {
		b.WriteString("\n[TEXT]\n")
		for _, k := range sortedKeys(r.Normalized) {
			b.WriteString(fmt.Sprintf("- %s: %d values normalized\n", k, r.Normalized[k]))
		}
	}
	if len(r.Skipped) > 0 || len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, s := range r.Skipped {
			b.WriteString(fmt.Sprintf("- %s skipped for %s: %s\n", s.Step, s.Column, s.Reason))
		}
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
