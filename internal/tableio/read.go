// Package tableio loads tabular files into datasets and writes them back out.
package tableio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/tidyloom/internal/dataset"
)

// Options controls how a file is read.
type Options struct {
	// Name of the resulting dataset. Defaults to the file name without extension.
	Name string
	// Delimiter for CSV. If 0, chosen from the file extension (.tsv is tab).
	Delimiter rune
	// SheetName selects an XLSX sheet by name; SheetIndex (1-based) is used
	// when the name is empty.
	SheetName  string
	SheetIndex int
	// InferTypes marks columns Numeric or Temporal when every non-empty cell
	// parses as such, and converts the cells.
	InferTypes bool
	// Numeric parsing locale. If DecimalSeparator is 0, auto-detect per value.
	DecimalSeparator   rune
	ThousandsSeparator rune
}

// Read loads path as XLSX or CSV depending on its extension.
func Read(path string, opt Options) (*dataset.Dataset, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return ReadXLSX(path, opt)
	}
	return ReadCSV(path, opt)
}

// ReadCSV loads a delimited text file. The first record is the header.
func ReadCSV(path string, opt Options) (*dataset.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	if opt.Delimiter == 0 {
		opt.Delimiter = sniffDelimiter(path)
	}
	if opt.Name == "" {
		opt.Name = baseName(path)
	}
	return DecodeCSV(f, opt)
}

// DecodeCSV reads delimited text from r.
func DecodeCSV(r io.Reader, opt Options) (*dataset.Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	if opt.Delimiter != 0 {
		cr.Comma = opt.Delimiter
	}
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return dataset.New(opt.Name, nil, nil)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	header = append([]string(nil), header...)
	var rows [][]string
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(rows)+2, err)
		}
		rows = append(rows, rec)
	}
	return build(opt, header, rows)
}

// build turns a header and string cells into a dataset. Blank cells become
// null; cells past the header width are ignored.
func build(opt Options, header []string, rows [][]string) (*dataset.Dataset, error) {
	cols := make([]dataset.Column, len(header))
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		cols[i] = dataset.Column{Name: name, Kind: dataset.Text}
		if isIdentifier(name) {
			cols[i].Kind = dataset.Identifier
		}
	}
	cells := make([][]any, len(rows))
	for r, row := range rows {
		cells[r] = make([]any, len(cols))
		for c := range cols {
			if c < len(row) {
				if v := strings.TrimSpace(row[c]); v != "" {
					cells[r][c] = v
				}
			}
		}
	}
	if opt.InferTypes {
		for c := range cols {
			if cols[c].Kind == dataset.Identifier {
				continue
			}
			infer(&cols[c], c, cells, opt)
		}
	}
	recs := make([]dataset.Record, len(cells))
	for r, row := range cells {
		rec := make(dataset.Record, len(cols))
		for c, v := range row {
			if v != nil {
				rec[cols[c].Name] = v
			}
		}
		recs[r] = rec
	}
	return dataset.New(opt.Name, cols, recs)
}

// infer converts column c in place when every non-empty cell parses as a
// number, or else as a timestamp.
func infer(col *dataset.Column, c int, cells [][]any, opt Options) {
	nums := make([]float64, len(cells))
	times := make([]time.Time, len(cells))
	isNum, isTime, seen := true, true, false
	for r := range cells {
		s, ok := cells[r][c].(string)
		if !ok {
			continue
		}
		seen = true
		if isNum {
			nums[r], isNum = parseNumeric(s, opt)
		}
		if isTime {
			times[r], isTime = parseTimeMaybe(s)
		}
		if !isNum && !isTime {
			return
		}
	}
	if !seen {
		return
	}
	switch {
	case isNum:
		col.Kind = dataset.Numeric
		for r := range cells {
			if cells[r][c] != nil {
				cells[r][c] = nums[r]
			}
		}
	case isTime:
		col.Kind = dataset.Temporal
		for r := range cells {
			if cells[r][c] != nil {
				cells[r][c] = times[r]
			}
		}
	}
}

func isIdentifier(name string) bool {
	n := strings.ToLower(name)
	return n == "id" || strings.HasSuffix(n, "_id")
}

func baseName(path string) string {
	b := filepath.Base(path)
	return strings.TrimSuffix(b, filepath.Ext(b))
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

func parseTimeMaybe(s string) (time.Time, bool) {
	layouts := []string{
		time.RFC3339Nano, "2006-01-02", "2006/01/02", "02/01/2006", "01/02/2006",
		"2006-01-02 15:04", "2006-01-02 15:04:05", "2006-01-02T15:04:05", "1/2/2006 15:04", "1/2/2006 15:04:05",
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseNumeric reads a locale-formatted number. With no explicit decimal
// separator the last of ',' and '.' wins.
func parseNumeric(s string, opt Options) (float64, bool) {
	raw := strings.ReplaceAll(strings.TrimSpace(s), "\u00a0", " ")
	raw = strings.TrimSpace(raw)
	dec := opt.DecimalSeparator
	thou := opt.ThousandsSeparator
	if dec == 0 {
		cpos := strings.LastIndex(raw, ",")
		dpos := strings.LastIndex(raw, ".")
		switch {
		case cpos >= 0 && dpos >= 0 && cpos > dpos:
			dec, thou = ',', '.'
		case cpos >= 0 && dpos >= 0:
			dec, thou = '.', ','
		case cpos >= 0:
			dec = ','
		default:
			dec = '.'
		}
	}
	if thou == 0 {
		for _, sep := range []rune{',', '.', ' '} {
			if sep != dec {
				raw = strings.ReplaceAll(raw, string(sep), "")
			}
		}
	} else if thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
