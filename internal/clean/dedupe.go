package clean

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/tidyloom/internal/dataset"
)

// DuplicateEliminator drops records whose key tuple matches an earlier record.
type DuplicateEliminator struct {
	Keys []string
	sink Sink
}

// NewDuplicateEliminator returns an eliminator over keys reporting to sink.
func NewDuplicateEliminator(keys []string, sink Sink) *DuplicateEliminator {
	return &DuplicateEliminator{Keys: keys, sink: sink}
}

// Apply returns a copy of in keeping the first record of each key tuple.
// If any key column is absent the dataset is returned unchanged.
func (e *DuplicateEliminator) Apply(in *dataset.Dataset) (*dataset.Dataset, error) {
	if in == nil {
		return nil, fmt.Errorf("dedupe: %w: nil dataset", dataset.ErrInvalidDataset)
	}
	if len(e.Keys) == 0 {
		return nil, fmt.Errorf("dedupe: %w", ErrNoColumns)
	}
	for _, k := range e.Keys {
		if !in.Has(k) {
			skipAbsent(e.sink, StepDedupe, k)
			return in.Clone(), nil
		}
	}
	seen := make(map[string]struct{}, in.Len())
	out := in.Filter(func(i int) bool {
		k := tupleKey(in, i, e.Keys)
		if _, dup := seen[k]; dup {
			return false
		}
		seen[k] = struct{}{}
		return true
	})
	if n := in.Len() - out.Len(); n > 0 {
		e.sink.Record(DuplicatesRemoved{Keys: cloneStrings(e.Keys), Rows: n})
	}
	return out, nil
}

func tupleKey(d *dataset.Dataset, i int, cols []string) string {
	var b strings.Builder
	for _, c := range cols {
		b.WriteString(dataset.Key(d.Value(i, c)))
		b.WriteByte(0x1f)
	}
	return b.String()
}
