package clean

import (
	"time"

	"github.com/KaramelBytes/tidyloom/internal/dataset"
	"github.com/KaramelBytes/tidyloom/internal/fixture"
)

var testNow = time.Date(2025, 7, 6, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

type captureSink struct {
	events []Event
}

func (c *captureSink) Record(e Event) { c.events = append(c.events, e) }

func eventsOf[T Event](c *captureSink) []T {
	var out []T
	for _, e := range c.events {
		if x, ok := e.(T); ok {
			out = append(out, x)
		}
	}
	return out
}

func column(name string, kind dataset.Kind, vals ...any) *dataset.Dataset {
	rows := make([]dataset.Record, len(vals))
	for i, v := range vals {
		rows[i] = dataset.Record{name: v}
	}
	return dataset.MustNew("t", []dataset.Column{{Name: name, Kind: kind}}, rows)
}

func values(d *dataset.Dataset, col string) []any {
	out := make([]any, d.Len())
	for i := range out {
		out[i] = d.Value(i, col)
	}
	return out
}

// txRow fills every transaction column with plausible defaults.
func txRow(id string, overrides dataset.Record) dataset.Record {
	r := dataset.Record{
		"transaction_id":         id,
		"customer_id":            "c-" + id,
		"transaction_timestamps": "2025-01-15 10:30:00",
		"order_type":             "In-Store",
		"order_total":            "500",
		"item_name":              "Milk Bread Loaf",
		"item_category":          "Bakery",
		"quantity":               "2",
		"item_price":             "250",
		"order_source":           "Website",
		"payment_method":         "Cash",
	}
	for k, v := range overrides {
		r[k] = v
	}
	return r
}

func transactions(rows ...dataset.Record) *dataset.Dataset {
	return dataset.MustNew("transactions", fixture.TransactionColumns, rows)
}
