package dataset

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsStructuralProblems(t *testing.T) {
	tests := []struct {
		name string
		cols []Column
		rows []Record
	}{
		{"empty column name", []Column{{Name: " "}}, nil},
		{"duplicate column", []Column{{Name: "a"}, {Name: "a"}}, nil},
		{"unknown column in row", []Column{{Name: "a"}}, []Record{{"b": "x"}}},
		{"nil row", []Column{{Name: "a"}}, []Record{nil}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New("t", tt.cols, tt.rows)
			if !errors.Is(err, ErrInvalidDataset) {
				t.Fatalf("err = %v, want ErrInvalidDataset", err)
			}
		})
	}
}

func TestNewCopiesInputAndWidensNumbers(t *testing.T) {
	rows := []Record{{"id": "a", "qty": 3}}
	d, err := New("t", []Column{{Name: "id", Kind: Identifier}, {Name: "qty", Kind: Numeric}}, rows)
	require.NoError(t, err)

	rows[0]["id"] = "mutated"
	assert.Equal(t, "a", d.Value(0, "id"))
	assert.Equal(t, float64(3), d.Value(0, "qty"))
}

func TestCloneIsIndependent(t *testing.T) {
	d := MustNew("t", []Column{{Name: "x", Kind: Text}}, []Record{{"x": "one"}})
	c := d.Clone()
	c.Set(0, "x", "two")
	c.SetKind("x", Numeric)

	assert.Equal(t, "one", d.Value(0, "x"))
	k, _ := d.Kind("x")
	assert.Equal(t, Text, k)
}

func TestFilterKeepsOrder(t *testing.T) {
	d := MustNew("t", []Column{{Name: "n", Kind: Numeric}}, []Record{{"n": 1}, {"n": 2}, {"n": 3}, {"n": 4}})
	out := d.Filter(func(i int) bool { return i%2 == 1 })

	require.Equal(t, 2, out.Len())
	assert.Equal(t, 2.0, out.Value(0, "n"))
	assert.Equal(t, 4.0, out.Value(1, "n"))
	assert.Equal(t, 4, d.Len())
}

func TestNullAndKeys(t *testing.T) {
	assert.True(t, IsNull(nil))
	assert.True(t, IsNull(math.NaN()))
	assert.False(t, IsNull(""))

	assert.Equal(t, Key(nil), Key(math.NaN()))
	assert.Equal(t, Key(2), Key(2.0))
	assert.NotEqual(t, Key("2"), Key(2.0))

	tokyo := time.FixedZone("JST", 9*3600)
	a := time.Date(2024, 1, 1, 9, 0, 0, 0, tokyo)
	b := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, Key(a), Key(b))
}

func TestAbsentKeyReadsAsNull(t *testing.T) {
	d := MustNew("t", []Column{{Name: "a"}, {Name: "b"}}, []Record{{"a": "x"}})
	assert.Nil(t, d.Value(0, "b"))
	_, ok := d.Kind("zzz")
	assert.False(t, ok)
}
