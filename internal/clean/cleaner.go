package clean

import (
	"context"
	"fmt"
	"time"

	"github.com/KaramelBytes/tidyloom/internal/dataset"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Result is the outcome of cleaning one dataset.
type Result struct {
	Name   string
	Data   *dataset.Dataset
	Report *Report
}

// Results holds one Result per dataset kind; a kind with no input is nil.
type Results struct {
	Transactions *Result
	Loyalty      *Result
	Customers    *Result
}

// All returns the non-nil results in kind order.
func (r Results) All() []*Result {
	var out []*Result
	for _, x := range []*Result{r.Transactions, r.Loyalty, r.Customers} {
		if x != nil {
			out = append(out, x)
		}
	}
	return out
}

// CleanerOption configures a Cleaner.
type CleanerOption func(*Cleaner)

// WithParallel runs the three pipelines concurrently.
func WithParallel(on bool) CleanerOption {
	return func(c *Cleaner) { c.parallel = on }
}

// WithProfiles replaces the built-in profiles.
func WithProfiles(p Profiles) CleanerOption {
	return func(c *Cleaner) { c.profiles = p }
}

// WithCleanerLogger sets the logger handed to every pipeline.
func WithCleanerLogger(l *zap.Logger) CleanerOption {
	return func(c *Cleaner) {
		if l != nil {
			c.log = l
		}
	}
}

// WithCleanerClock sets the processing instant shared by every pipeline.
func WithCleanerClock(now func() time.Time) CleanerOption {
	return func(c *Cleaner) {
		if now != nil {
			c.now = now
		}
	}
}

// Cleaner owns the transactions, loyalty and customers pipelines.
type Cleaner struct {
	parallel bool
	profiles Profiles
	log      *zap.Logger
	now      func() time.Time

	transactions *Pipeline
	loyalty      *Pipeline
	customers    *Pipeline
}

// NewCleaner builds a pipeline for each non-nil dataset.
func NewCleaner(transactions, loyalty, customers *dataset.Dataset, opts ...CleanerOption) (*Cleaner, error) {
	c := &Cleaner{profiles: DefaultProfiles(), log: zap.NewNop(), now: time.Now}
	for _, o := range opts {
		o(c)
	}
	if transactions == nil && loyalty == nil && customers == nil {
		return nil, fmt.Errorf("cleaner: %w: no datasets", dataset.ErrInvalidDataset)
	}
	// One instant for all three runs keeps their future-date checks consistent.
	at := c.now()
	popts := []Option{WithLogger(c.log), WithClock(func() time.Time { return at })}
	var err error
	build := func(cfg Config, d *dataset.Dataset) *Pipeline {
		if d == nil || err != nil {
			return nil
		}
		var p *Pipeline
		p, err = NewPipeline(cfg, d, popts...)
		return p
	}
	c.transactions = build(c.profiles.Transactions, transactions)
	c.loyalty = build(c.profiles.Loyalty, loyalty)
	c.customers = build(c.profiles.Customers, customers)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// CleanAll runs every pipeline and returns their results. Results are
// memoized per pipeline, so repeated calls do no further work.
func (c *Cleaner) CleanAll(ctx context.Context) (Results, error) {
	var res Results
	g, ctx := errgroup.WithContext(ctx)
	if !c.parallel {
		g.SetLimit(1)
	}
	run := func(p *Pipeline, dst **Result) {
		if p == nil {
			return
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			d, rep, err := p.Cleaned()
			if err != nil {
				return err
			}
			*dst = &Result{Name: p.cfg.Name, Data: d, Report: rep}
			return nil
		})
	}
	run(c.transactions, &res.Transactions)
	run(c.loyalty, &res.Loyalty)
	run(c.customers, &res.Customers)
	if err := g.Wait(); err != nil {
		return Results{}, err
	}
	return res, nil
}
