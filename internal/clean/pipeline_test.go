package clean

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/KaramelBytes/tidyloom/internal/dataset"
	"github.com/KaramelBytes/tidyloom/internal/fixture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func scenarioA() *dataset.Dataset {
	base := []dataset.Record{
		txRow("t1", nil),
		txRow("t2", nil),
		txRow("t3", dataset.Record{"payment_method": "Credit Card"}),
		txRow("t4", dataset.Record{"payment_method": nil}),
		txRow("t5", dataset.Record{"payment_method": nil}),
		txRow("t6", nil),
	}
	rows := append(base, txRow("t1", nil), txRow("t2", nil), txRow("t3", dataset.Record{"payment_method": "Credit Card"}))
	return transactions(rows...)
}

func run(t *testing.T, cfg Config, in *dataset.Dataset, opts ...Option) (*dataset.Dataset, *Report) {
	t.Helper()
	p, err := NewPipeline(cfg, in, append([]Option{WithClock(fixedClock)}, opts...)...)
	require.NoError(t, err)
	out, rep, err := p.Cleaned()
	require.NoError(t, err)
	return out, rep
}

func TestScenarioDuplicatesAndModeFill(t *testing.T) {
	in := scenarioA()
	out, rep := run(t, TransactionsConfig(), in)

	assert.Equal(t, in.Len()-3, out.Len())
	assert.Equal(t, 3, rep.DuplicatesRemoved)
	assert.Equal(t, "Cash", out.Value(3, "payment_method"))
	assert.Equal(t, "Cash", out.Value(4, "payment_method"))
	assert.Equal(t, 9, rep.InputRows)
	assert.Equal(t, 6, rep.OutputRows)
}

func TestScenarioNegativeOrderTotalClipped(t *testing.T) {
	in := transactions(
		txRow("t1", dataset.Record{"order_total": "-100"}),
		txRow("t2", dataset.Record{"order_total": "500"}),
		txRow("t3", dataset.Record{"order_total": "800"}),
	)
	out, rep := run(t, TransactionsConfig(), in)

	assert.Equal(t, 0.1, out.Value(0, "order_total"))
	assert.Equal(t, 2, rep.OutlierCount("order_total", Clip))
}

func TestScenarioNegativeLoyaltyPointsClipped(t *testing.T) {
	in := dataset.MustNew("loyalty", fixture.LoyaltyColumns, []dataset.Record{
		{"loyalty_member_id": "m1", "customer_id": "c1", "total_loyalty_points": "-10", "assigned_discount_group(s)": "GOLD MEMBER"},
		{"loyalty_member_id": "m2", "customer_id": "c2", "total_loyalty_points": "120"},
		{"loyalty_member_id": "m3", "customer_id": nil, "total_loyalty_points": "40"},
	})
	out, rep := run(t, LoyaltyConfig(), in)

	require.Equal(t, 2, out.Len())
	assert.Equal(t, 0.0, out.Value(0, "total_loyalty_points"))
	assert.Equal(t, "Gold Member", out.Value(0, "assigned_discount_group(s)"))
	assert.Equal(t, DefaultSentinel, out.Value(1, "assigned_discount_group(s)"))
	assert.Equal(t, 1, rep.Dropped(DropCritical))
	assert.Equal(t, 0, rep.Dropped(DropMissing))
}

func TestScenarioFutureBirthDate(t *testing.T) {
	in := dataset.MustNew("customers", fixture.CustomerColumns, []dataset.Record{
		{"customer_id": "c1", "email": "a@example.jp", "DOB": "2031-02-03", "gender": " female", "age": 30},
		{"customer_id": "c2", "email": "b@example.jp", "DOB": "1990-05-04", "gender": "MALE", "age": 35},
	})
	out, rep := run(t, CustomersConfig(), in)

	assert.Nil(t, out.Value(0, "DOB"))
	assert.Equal(t, 1, rep.FutureDates["DOB"])
	assert.Equal(t, "Female", out.Value(0, "gender"))
	assert.Equal(t, "Male", out.Value(1, "gender"))
	assert.Equal(t, DefaultSentinel, out.Value(0, "phone"))
}

func TestScenarioItemNameNormalized(t *testing.T) {
	in := transactions(txRow("t1", dataset.Record{"item_name": "  milk bread "}))
	out, _ := run(t, TransactionsConfig(), in)
	assert.Equal(t, "Milk Bread", out.Value(0, "item_name"))
}

func TestPipelineMemoizesResult(t *testing.T) {
	in := scenarioA()
	p, err := NewPipeline(TransactionsConfig(), in, WithClock(fixedClock))
	require.NoError(t, err)
	in.Set(0, "transaction_id", "mutated after construction")

	first, rep1, err := p.Cleaned()
	require.NoError(t, err)
	first.Set(0, "item_name", "scribbled")
	rep1.DuplicatesRemoved = 99

	second, rep2, err := p.Cleaned()
	require.NoError(t, err)
	assert.Equal(t, rep1.RunID, rep2.RunID)
	assert.Equal(t, 3, rep2.DuplicatesRemoved)
	assert.Equal(t, "t1", second.Value(0, "transaction_id"))
	assert.Equal(t, "Milk Bread Loaf", second.Value(0, "item_name"))
}

func TestPipelineConcurrentCallersShareOneRun(t *testing.T) {
	p, err := NewPipeline(TransactionsConfig(), scenarioA(), WithClock(fixedClock))
	require.NoError(t, err)

	var wg sync.WaitGroup
	ids := make([]string, 8)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, rep, err := p.Cleaned()
			if err == nil {
				ids[i] = rep.RunID
			}
		}(i)
	}
	wg.Wait()
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	assert.NotEmpty(t, ids[0])
}

func TestNewPipelineRejectsStructuralMisuse(t *testing.T) {
	_, err := NewPipeline(TransactionsConfig(), nil)
	assert.True(t, errors.Is(err, dataset.ErrInvalidDataset))

	_, err = NewPipeline(Config{Name: "empty"}, scenarioA())
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	assert.True(t, errors.Is(err, ErrNoColumns))
}

func TestPipelineReportsSkippedColumns(t *testing.T) {
	in := dataset.MustNew("customers",
		[]dataset.Column{{Name: "customer_id", Kind: dataset.Identifier}, {Name: "email"}},
		[]dataset.Record{{"customer_id": "c1", "email": "a@x"}},
	)
	out, rep := run(t, CustomersConfig(), in)

	assert.Equal(t, 1, out.Len())
	assert.True(t, rep.WasSkipped(StepCoerce, "DOB"))
	assert.True(t, rep.WasSkipped(StepOutlier, "age"))
	assert.True(t, rep.WasSkipped(StepText, "gender"))
	assert.False(t, rep.WasSkipped(StepDedupe, "email"))
}

func TestPipelineLogsCorrectiveActions(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	run(t, TransactionsConfig(), scenarioA(), WithLogger(zap.New(core)))

	dups := logs.FilterMessage("dropped duplicate rows").All()
	require.Len(t, dups, 1)
	assert.Equal(t, int64(3), dups[0].ContextMap()["rows"])
	assert.Equal(t, "transactions", dups[0].ContextMap()["dataset"])

	fills := logs.FilterMessage("filled missing values").FilterField(zap.String("column", "payment_method")).All()
	require.Len(t, fills, 1)
	assert.Equal(t, 1, logs.FilterMessage("cleaning finished").Len())
}

func TestReportMarkdown(t *testing.T) {
	_, rep := run(t, TransactionsConfig(), scenarioA())
	md := rep.Markdown()
	assert.True(t, strings.HasPrefix(md, "[CLEANING SUMMARY]"))
	assert.Contains(t, md, "Duplicates removed: 3")
	assert.Contains(t, md, "payment_method: 2 filled by mode with Cash")
}
