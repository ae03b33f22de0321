package clean

import (
	"fmt"
	"sync"
	"time"

	"github.com/KaramelBytes/tidyloom/internal/dataset"
	"go.uber.org/zap"
)

// Transform is one cleaning step. Apply never mutates its input.
type Transform interface {
	Apply(*dataset.Dataset) (*dataset.Dataset, error)
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger corrective actions are written to.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// WithClock overrides the processing instant used for future-date checks.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// Pipeline cleans one dataset with one configuration. The result is computed
// on the first call to Cleaned and reused afterwards.
type Pipeline struct {
	cfg Config
	raw *dataset.Dataset
	log *zap.Logger
	now func() time.Time

	once sync.Once
	out  *dataset.Dataset
	rep  *Report
	err  error
}

// NewPipeline validates cfg and takes a private copy of raw.
func NewPipeline(cfg Config, raw *dataset.Dataset, opts ...Option) (*Pipeline, error) {
	if raw == nil {
		return nil, fmt.Errorf("pipeline %q: %w: nil dataset", cfg.Name, dataset.ErrInvalidDataset)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	resolved := cfg.clone()
	resolved.mergeFill()
	p := &Pipeline{
		cfg: resolved,
		raw: raw.Clone(),
		log: zap.NewNop(),
		now: time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Config returns a copy of the pipeline configuration.
func (p *Pipeline) Config() Config { return p.cfg.clone() }

// Cleaned returns the cleaned dataset and its report. Both are copies the
// caller may modify freely. A failed run returns the same error every time.
func (p *Pipeline) Cleaned() (*dataset.Dataset, *Report, error) {
	p.once.Do(p.run)
	if p.err != nil {
		return nil, nil, p.err
	}
	return p.out.Clone(), p.rep.clone(), nil
}

func (p *Pipeline) run() {
	t0 := time.Now()
	started := p.now()
	rec := NewRecorder(p.cfg.Name, started, p.log)
	sentinel := p.cfg.sentinel()
	critical := NewMissingValueResolver(nil, nil, p.cfg.CriticalColumns, sentinel, rec)
	critical.Reason = DropCritical
	steps := []Transform{
		NewDuplicateEliminator(p.cfg.DuplicateKeys, rec),
		NewTypeCoercer(p.cfg.DateColumns, p.cfg.NumericColumns, started, rec),
		NewMissingValueResolver(p.cfg.ModeFill, p.cfg.SentinelFill, p.cfg.DropIfNull, sentinel, rec),
		critical,
		NewOutlierHandler(p.cfg.Outliers, rec),
		NewTextNormalizer(p.cfg.TextColumns, rec),
	}

	log := p.log.With(zap.String("dataset", p.cfg.Name))
	log.Info("cleaning started", zap.Int("rows", p.raw.Len()))
	cur := p.raw
	for _, s := range steps {
		next, err := s.Apply(cur)
		if err != nil {
			p.err = fmt.Errorf("pipeline %q: %w", p.cfg.Name, err)
			log.Error("cleaning failed", zap.Error(err))
			return
		}
		cur = next
	}
	rec.setRows(p.raw.Len(), cur.Len())
	p.out = cur
	p.rep = rec.Report()
	log.Info("cleaning finished",
		zap.Int("rows", cur.Len()),
		zap.Int("duplicates", p.rep.DuplicatesRemoved),
		zap.Int("outliers", p.rep.TotalOutliers()),
		zap.Duration("took", time.Since(t0)))
}
