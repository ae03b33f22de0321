package tableio

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/KaramelBytes/tidyloom/internal/dataset"
	"github.com/KaramelBytes/tidyloom/internal/utils"
)

// WriteCSV writes d as comma-separated text with a header row. Nulls are
// written as empty cells and timestamps as RFC 3339.
func WriteCSV(w io.Writer, d *dataset.Dataset) error {
	cw := csv.NewWriter(w)
	names := d.ColumnNames()
	if err := cw.Write(names); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, len(names))
	for i := 0; i < d.Len(); i++ {
		for j, n := range names {
			rec[j] = FormatValue(d.Value(i, n))
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes d to path, replacing any existing file atomically.
func WriteCSVFile(path string, d *dataset.Dataset) error {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, d); err != nil {
		return err
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}

// FormatValue renders one cell.
func FormatValue(v any) string {
	if dataset.IsNull(v) {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format(time.RFC3339)
	case bool:
		return strconv.FormatBool(x)
	}
	if f, ok := dataset.Float(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}
