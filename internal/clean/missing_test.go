package clean

import (
	"testing"

	"github.com/KaramelBytes/tidyloom/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModeFillBreaksTiesByFirstSeen(t *testing.T) {
	in := column("pay", dataset.Text, "card", "cash", "cash", nil, "card")
	sink := &captureSink{}
	out, err := NewMissingValueResolver([]string{"pay"}, nil, nil, "", sink).Apply(in)
	require.NoError(t, err)

	assert.Equal(t, "card", out.Value(3, "pay"))
	fills := eventsOf[ValuesFilled](sink)
	require.Len(t, fills, 1)
	assert.Equal(t, ValuesFilled{Column: "pay", Policy: ModeFill, Value: "card", Count: 1}, fills[0])
}

func TestModeFillFallsBackToSentinel(t *testing.T) {
	in := column("pay", dataset.Text, nil, nil)
	sink := &captureSink{}
	out, err := NewMissingValueResolver([]string{"pay"}, nil, nil, "", sink).Apply(in)
	require.NoError(t, err)

	assert.Equal(t, []any{DefaultSentinel, DefaultSentinel}, values(out, "pay"))
	require.Len(t, eventsOf[ModeUnavailable](sink), 1)
}

func TestSentinelFillDemotesNumericColumn(t *testing.T) {
	in := column("age", dataset.Numeric, 30, nil)
	sink := &captureSink{}
	out, err := NewMissingValueResolver(nil, []string{"age"}, nil, "n/a", sink).Apply(in)
	require.NoError(t, err)

	assert.Equal(t, []any{30.0, "n/a"}, values(out, "age"))
	k, _ := out.Kind("age")
	assert.Equal(t, dataset.Text, k)
}

func TestDropIfNullReportsRowsAndColumns(t *testing.T) {
	in := dataset.MustNew("t",
		[]dataset.Column{{Name: "a"}, {Name: "b"}},
		[]dataset.Record{{"a": 1, "b": 1}, {"a": nil, "b": 1}, {"a": 1}, {"a": 2, "b": 2}},
	)
	sink := &captureSink{}
	out, err := NewMissingValueResolver(nil, nil, []string{"a", "b", "zzz"}, "", sink).Apply(in)
	require.NoError(t, err)

	assert.Equal(t, 2, out.Len())
	drops := eventsOf[RowsDropped](sink)
	require.Len(t, drops, 1)
	assert.Equal(t, RowsDropped{Reason: DropMissing, Columns: []string{"a", "b"}, Rows: 2}, drops[0])
	require.Len(t, eventsOf[StepSkipped](sink), 1)
	assert.Equal(t, "zzz", eventsOf[StepSkipped](sink)[0].Column)
}

func TestPoliciesRunInPriorityOrder(t *testing.T) {
	// Sentinel fill runs before the drop, so the drop finds nothing to remove.
	in := column("x", dataset.Text, "a", nil)
	sink := &captureSink{}
	out, err := NewMissingValueResolver(nil, []string{"x"}, []string{"x"}, "", sink).Apply(in)
	require.NoError(t, err)
	assert.Equal(t, 2, out.Len())
	assert.Equal(t, 0, eventsOf[RowsDropped](sink)[0].Rows)
}

func TestMissingSkipsAbsentColumns(t *testing.T) {
	in := column("x", dataset.Text, nil)
	sink := &captureSink{}
	out, err := NewMissingValueResolver([]string{"m"}, []string{"s"}, []string{"d"}, "", sink).Apply(in)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Len())
	assert.Len(t, eventsOf[StepSkipped](sink), 3)
}
