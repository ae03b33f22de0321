package clean

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/tidyloom/internal/dataset"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// TextNormalizer trims and title-cases text columns.
type TextNormalizer struct {
	Columns []string
	sink    Sink
}

// NewTextNormalizer returns a normalizer over cols reporting to sink.
func NewTextNormalizer(cols []string, sink Sink) *TextNormalizer {
	return &TextNormalizer{Columns: cols, sink: sink}
}

// Apply returns a normalized copy of in. Only Text and Identifier columns are
// touched; nulls and non-string cells are left as they are.
func (n *TextNormalizer) Apply(in *dataset.Dataset) (*dataset.Dataset, error) {
	if in == nil {
		return nil, fmt.Errorf("text: %w: nil dataset", dataset.ErrInvalidDataset)
	}
	out := in.Clone()
	// Casers keep state, so each run gets its own.
	title := cases.Title(language.Und)
	for _, col := range n.Columns {
		kind, ok := out.Kind(col)
		if !ok {
			skipAbsent(n.sink, StepText, col)
			continue
		}
		if kind != dataset.Text && kind != dataset.Identifier {
			n.sink.Record(StepSkipped{Step: StepText, Column: col, Reason: "column is " + kind.String()})
			continue
		}
		changed := 0
		for i := 0; i < out.Len(); i++ {
			s, ok := out.Value(i, col).(string)
			if !ok {
				continue
			}
			norm := title.String(strings.TrimSpace(s))
			if norm != s {
				out.Set(i, col, norm)
				changed++
			}
		}
		if changed > 0 {
			n.sink.Record(TextNormalized{Column: col, Changed: changed})
		}
	}
	return out, nil
}

// NormalizeText applies the trim and title-case rule to a single value.
func NormalizeText(s string) string {
	return cases.Title(language.Und).String(strings.TrimSpace(s))
}
