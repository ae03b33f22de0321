package dataset

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidDataset is returned when a dataset is not a valid tabular structure.
var ErrInvalidDataset = errors.New("invalid dataset")

// Kind is the declared semantic type of a column.
type Kind int

const (
	Text Kind = iota
	Numeric
	Temporal
	Identifier
)

func (k Kind) String() string {
	switch k {
	case Text:
		return "text"
	case Numeric:
		return "numeric"
	case Temporal:
		return "temporal"
	case Identifier:
		return "identifier"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Column describes one column of a dataset.
type Column struct {
	Name string
	Kind Kind
}

// Record is one row, keyed by column name. A missing key reads as null.
type Record map[string]any

// Dataset is an ordered sequence of records over a declared column set.
// Values are nil (null), string, float64, time.Time or bool.
type Dataset struct {
	Name    string
	columns []Column
	index   map[string]int
	rows    []Record
}

// New validates the column set and rows and returns a dataset that owns a deep
// copy of them. Integer values in Numeric columns are widened to float64.
func New(name string, cols []Column, rows []Record) (*Dataset, error) {
	d := &Dataset{Name: name, index: make(map[string]int, len(cols))}
	for i, c := range cols {
		n := strings.TrimSpace(c.Name)
		if n == "" {
			return nil, fmt.Errorf("%w: column %d has no name", ErrInvalidDataset, i)
		}
		if _, dup := d.index[c.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrInvalidDataset, c.Name)
		}
		d.index[c.Name] = i
		d.columns = append(d.columns, c)
	}
	d.rows = make([]Record, 0, len(rows))
	for i, r := range rows {
		if r == nil {
			return nil, fmt.Errorf("%w: row %d is nil", ErrInvalidDataset, i)
		}
		cp := make(Record, len(r))
		for k, v := range r {
			idx, ok := d.index[k]
			if !ok {
				return nil, fmt.Errorf("%w: row %d references unknown column %q", ErrInvalidDataset, i, k)
			}
			if d.columns[idx].Kind == Numeric {
				v = widen(v)
			}
			cp[k] = v
		}
		d.rows = append(d.rows, cp)
	}
	return d, nil
}

// MustNew is New for static fixtures; it panics on error.
func MustNew(name string, cols []Column, rows []Record) *Dataset {
	d, err := New(name, cols, rows)
	if err != nil {
		panic(err)
	}
	return d
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.rows) }

// Columns returns a copy of the column declarations in order.
func (d *Dataset) Columns() []Column {
	out := make([]Column, len(d.columns))
	copy(out, d.columns)
	return out
}

// ColumnNames returns the column names in order.
func (d *Dataset) ColumnNames() []string {
	out := make([]string, len(d.columns))
	for i, c := range d.columns {
		out[i] = c.Name
	}
	return out
}

// Has reports whether the column is declared.
func (d *Dataset) Has(col string) bool {
	_, ok := d.index[col]
	return ok
}

// Kind returns the declared kind of col.
func (d *Dataset) Kind(col string) (Kind, bool) {
	i, ok := d.index[col]
	if !ok {
		return 0, false
	}
	return d.columns[i].Kind, true
}

// SetKind changes the declared kind of an existing column.
func (d *Dataset) SetKind(col string, k Kind) {
	if i, ok := d.index[col]; ok {
		d.columns[i].Kind = k
	}
}

// Value returns the value at row i, column col. Absent keys read as nil.
func (d *Dataset) Value(i int, col string) any { return d.rows[i][col] }

// Set writes a value at row i, column col.
func (d *Dataset) Set(i int, col string, v any) { d.rows[i][col] = v }

// Row returns a copy of row i.
func (d *Dataset) Row(i int) Record {
	cp := make(Record, len(d.rows[i]))
	for k, v := range d.rows[i] {
		cp[k] = v
	}
	return cp
}

// Clone returns a deep copy that shares no mutable state with d.
func (d *Dataset) Clone() *Dataset {
	out := &Dataset{
		Name:    d.Name,
		columns: make([]Column, len(d.columns)),
		index:   make(map[string]int, len(d.index)),
		rows:    make([]Record, len(d.rows)),
	}
	copy(out.columns, d.columns)
	for k, v := range d.index {
		out.index[k] = v
	}
	for i, r := range d.rows {
		cp := make(Record, len(r))
		for k, v := range r {
			cp[k] = v
		}
		out.rows[i] = cp
	}
	return out
}

// Filter returns a new dataset holding the rows for which keep returns true,
// in their original order.
func (d *Dataset) Filter(keep func(i int) bool) *Dataset {
	out := d.Clone()
	kept := out.rows[:0]
	for i, r := range out.rows {
		if keep(i) {
			kept = append(kept, r)
		}
	}
	out.rows = kept
	return out
}

// IsNull reports whether v is the null marker (nil or NaN).
func IsNull(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case float64:
		return math.IsNaN(x)
	case float32:
		return math.IsNaN(float64(x))
	}
	return false
}

// Float returns v as a float64 if it holds a non-null number.
func Float(v any) (float64, bool) {
	switch x := widen(v).(type) {
	case float64:
		if math.IsNaN(x) {
			return 0, false
		}
		return x, true
	}
	return 0, false
}

// Key returns a canonical comparison key for a value: equal values of the same
// type yield equal keys and all nulls share one key.
func Key(v any) string {
	if IsNull(v) {
		return "\x00null"
	}
	switch x := widen(v).(type) {
	case string:
		return "s:" + x
	case float64:
		return "n:" + strconv.FormatFloat(x, 'g', -1, 64)
	case time.Time:
		return "t:" + x.UTC().Format(time.RFC3339Nano)
	case bool:
		return "b:" + strconv.FormatBool(x)
	default:
		return fmt.Sprintf("%T:%v", x, x)
	}
}

func widen(v any) any {
	switch x := v.(type) {
	case int:
		return float64(x)
	case int8:
		return float64(x)
	case int16:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint8:
		return float64(x)
	case uint16:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case float32:
		return float64(x)
	}
	return v
}
