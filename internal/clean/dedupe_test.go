package clean

import (
	"errors"
	"testing"

	"github.com/KaramelBytes/tidyloom/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedupeKeepsFirstOccurrence(t *testing.T) {
	in := dataset.MustNew("t",
		[]dataset.Column{{Name: "id"}, {Name: "email"}, {Name: "note"}},
		[]dataset.Record{
			{"id": "1", "email": "a@x", "note": "first"},
			{"id": "2", "email": "b@x", "note": "other"},
			{"id": "1", "email": "a@x", "note": "second"},
			{"id": "3", "note": "null email"},
			{"id": "3", "email": nil, "note": "null email again"},
		},
	)
	sink := &captureSink{}
	out, err := NewDuplicateEliminator([]string{"id", "email"}, sink).Apply(in)
	require.NoError(t, err)

	assert.Equal(t, []any{"first", "other", "null email"}, values(out, "note"))
	assert.Equal(t, []Event{DuplicatesRemoved{Keys: []string{"id", "email"}, Rows: 2}}, sink.events)
}

func TestDedupeComparesWidenedNumbers(t *testing.T) {
	in := column("n", dataset.Text, 2, 2.0, "2")
	out, err := NewDuplicateEliminator([]string{"n"}, &captureSink{}).Apply(in)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Len())
}

func TestDedupeSkipsWhenKeyAbsent(t *testing.T) {
	in := column("id", dataset.Text, "1", "1")
	sink := &captureSink{}
	out, err := NewDuplicateEliminator([]string{"id", "email"}, sink).Apply(in)
	require.NoError(t, err)

	assert.Equal(t, 2, out.Len())
	assert.Equal(t, []Event{StepSkipped{Step: StepDedupe, Column: "email", Reason: "column absent"}}, sink.events)
}

func TestDedupeRequiresKeys(t *testing.T) {
	_, err := NewDuplicateEliminator(nil, &captureSink{}).Apply(column("id", dataset.Text))
	assert.True(t, errors.Is(err, ErrNoColumns))
}
