package fixture

import (
	"testing"

	"github.com/KaramelBytes/tidyloom/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func small() Options {
	o := DefaultOptions()
	o.Customers = 50
	o.Transactions = 400
	return o
}

func TestGenerateIsDeterministic(t *testing.T) {
	a, err := Generate(small())
	require.NoError(t, err)
	b, err := Generate(small())
	require.NoError(t, err)

	require.Equal(t, a.Transactions.Len(), b.Transactions.Len())
	for i := 0; i < a.Transactions.Len(); i++ {
		assert.Equal(t, a.Transactions.Row(i), b.Transactions.Row(i))
	}
	assert.Equal(t, 400, a.Transactions.Len())
	assert.Equal(t, 50, a.Customers.Len())
	assert.Equal(t, 20, a.Loyalty.Len())
}

func TestGenerateProducesCleanData(t *testing.T) {
	s, err := Generate(small())
	require.NoError(t, err)

	ids := map[string]bool{}
	for i := 0; i < s.Customers.Len(); i++ {
		ids[s.Customers.Value(i, "customer_id").(string)] = true
	}
	for i := 0; i < s.Transactions.Len(); i++ {
		assert.True(t, ids[s.Transactions.Value(i, "customer_id").(string)], "row %d references unknown customer", i)
		total, ok := dataset.Float(s.Transactions.Value(i, "order_total"))
		require.True(t, ok)
		assert.Greater(t, total, 0.0)
		qty, _ := dataset.Float(s.Transactions.Value(i, "quantity"))
		assert.GreaterOrEqual(t, qty, 1.0)
	}
}

func TestGenerateRejectsBadOptions(t *testing.T) {
	o := small()
	o.Customers = 0
	_, err := Generate(o)
	assert.Error(t, err)

	o = small()
	o.End = o.Start
	_, err = Generate(o)
	assert.Error(t, err)
}

func TestDirtyInjectsCorruption(t *testing.T) {
	s, err := Generate(small())
	require.NoError(t, err)
	d, err := Dirty(s, 0.1, 7)
	require.NoError(t, err)

	assert.Equal(t, 400+20, d.Transactions.Len())
	assert.Equal(t, 50+2, d.Customers.Len())
	assert.Equal(t, 20, d.Loyalty.Len())

	nulls, future := 0, 0
	for i := 0; i < d.Transactions.Len(); i++ {
		if dataset.IsNull(d.Transactions.Value(i, "payment_method")) {
			nulls++
		}
		if d.Transactions.Value(i, "transaction_timestamps") == FutureDate {
			future++
		}
	}
	assert.GreaterOrEqual(t, nulls, 40)
	assert.GreaterOrEqual(t, future, 40)

	// Copies keep their transaction id even when a later corruption changes
	// another column.
	ids := map[any]bool{}
	for i := 0; i < d.Transactions.Len(); i++ {
		ids[d.Transactions.Value(i, "transaction_id")] = true
	}
	assert.Equal(t, 20, d.Transactions.Len()-len(ids))

	// source untouched
	for i := 0; i < s.Transactions.Len(); i++ {
		require.False(t, dataset.IsNull(s.Transactions.Value(i, "payment_method")))
	}
}

func TestDirtyRejectsBadRate(t *testing.T) {
	s, err := Generate(small())
	require.NoError(t, err)
	_, err = Dirty(s, 1.5, 1)
	assert.Error(t, err)
}
