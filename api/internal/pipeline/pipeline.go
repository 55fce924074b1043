// Package pipeline runs a document through extraction, canonicalization and
// reconciliation.
package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"condo-extract/api/internal/extract"
	"condo-extract/api/internal/logging"
	"condo-extract/api/internal/metrics"
	"condo-extract/api/internal/normalize"
	"condo-extract/api/internal/reconcile"
	"condo-extract/api/internal/record"
)

const (
	DefaultTimeout       = 180 * time.Second
	DefaultMaxConcurrent = 4
	DefaultWorkers       = 8
)

// UnitAmbiguity is a field ambiguity tied to its unit and source row.
type UnitAmbiguity struct {
	Row    int    `json:"row"`
	UnitID string `json:"unit_id"`
	Block  string `json:"block"`
	normalize.Ambiguity
}

type Diagnostics struct {
	Ambiguities []UnitAmbiguity      `json:"ambiguities"`
	Conflicts   []reconcile.Conflict `json:"conflicts"`
	// ReportedTotal is what the collaborator claimed; never used as the result total.
	ReportedTotal int `json:"reported_total"`
	Rows          int `json:"rows"`
	Merged        int `json:"merged"`
}

type Result struct {
	RunID       string                `json:"run_id"`
	Document    record.DocumentResult `json:"document"`
	Diagnostics Diagnostics           `json:"diagnostics"`
	Duration    time.Duration         `json:"duration"`
}

type Pipeline struct {
	ex       extract.Extractor
	schema   extract.Schema
	log      zerolog.Logger
	metrics  *metrics.Metrics
	timeout  time.Duration
	sem      *semaphore.Weighted
	workers  int
	observer Observer
}

type Option func(*Pipeline)

func WithLogger(lg zerolog.Logger) Option { return func(p *Pipeline) { p.log = lg } }

func WithMetrics(m *metrics.Metrics) Option { return func(p *Pipeline) { p.metrics = m } }

// WithTimeout bounds each extraction call.
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithMaxConcurrent bounds outstanding extraction calls across all documents.
func WithMaxConcurrent(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithWorkers bounds canonicalization goroutines per document.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

func WithSchema(s extract.Schema) Option { return func(p *Pipeline) { p.schema = s } }

func WithObserver(o Observer) Option { return func(p *Pipeline) { p.observer = o } }

func New(ex extract.Extractor, opts ...Option) *Pipeline {
	p := &Pipeline{
		ex:      ex,
		schema:  extract.DocumentSchema(),
		log:     zerolog.Nop(),
		timeout: DefaultTimeout,
		sem:     semaphore.NewWeighted(DefaultMaxConcurrent),
		workers: DefaultWorkers,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

type run struct {
	id    string
	state State
	p     *Pipeline
	log   zerolog.Logger
}

func (r *run) to(s State) {
	from := r.state
	r.state = s
	r.log.Debug().Stringer("from", from).Stringer("to", s).Msg("pipeline transition")
	if r.p.observer != nil {
		r.p.observer(r.id, from, s)
	}
}

func (r *run) fail(err error) *ProcessingError {
	stage := r.state
	r.to(Failed)
	return &ProcessingError{Stage: stage, Err: err}
}

// Process turns document bytes into a reconciled DocumentResult. Only
// extraction can fail; field ambiguities and merge conflicts are reported
// in Result.Diagnostics.
func (p *Pipeline) Process(ctx context.Context, doc []byte) (*Result, error) {
	start := time.Now()
	r := &run{id: uuid.NewString(), p: p}
	lg := p.log.With().Str("run_id", r.id)
	if rid := logging.RequestID(ctx); rid != "" {
		lg = lg.Str("request_id", rid)
	}
	r.log = lg.Logger()

	r.to(Extracting)
	raw, err := p.extract(ctx, doc)
	if err != nil {
		perr := r.fail(err)
		p.metrics.Document(false)
		r.log.Error().Err(err).Dur("duration", time.Since(start)).Msg("document failed")
		return nil, perr
	}

	r.to(Canonicalizing)
	rows, ambiguities := p.canonicalize(raw.Units)

	r.to(Reconciling)
	rec := reconcile.Reconcile(rows, raw.CondominiumName)
	for _, c := range rec.Conflicts {
		r.log.Warn().
			Str("unit", record.Key{UnitID: c.UnitID, Block: c.Block}.String()).
			Str("kind", string(c.Kind)).
			Str("kept", c.Kept.Name).
			Str("dropped", c.Dropped.Name).
			Msg("reconciliation conflict")
		p.metrics.Conflict(string(c.Kind))
	}
	for _, a := range ambiguities {
		p.metrics.Ambiguity(string(a.Kind))
	}
	if raw.TotalUnits != rec.Document.TotalUnits {
		r.log.Debug().
			Int("reported", raw.TotalUnits).
			Int("rows", len(raw.Units)).
			Int("units", rec.Document.TotalUnits).
			Msg("reported total differs from reconciled total")
	}

	r.to(Done)
	res := &Result{
		RunID:    r.id,
		Document: rec.Document,
		Diagnostics: Diagnostics{
			Ambiguities:   ambiguities,
			Conflicts:     rec.Conflicts,
			ReportedTotal: raw.TotalUnits,
			Rows:          len(raw.Units),
			Merged:        rec.Merged,
		},
		Duration: time.Since(start),
	}
	p.metrics.Document(true)
	p.metrics.AddUnits(res.Document.TotalUnits)
	r.log.Info().
		Int("units", res.Document.TotalUnits).
		Int("ambiguities", len(ambiguities)).
		Int("conflicts", len(rec.Conflicts)).
		Dur("duration", res.Duration).
		Msg("document processed")
	return res, nil
}

// extract is the only suspension point of a run.
func (p *Pipeline) extract(ctx context.Context, doc []byte) (record.RawDocument, error) {
	if len(doc) == 0 {
		return record.RawDocument{}, extract.NewError(extract.KindInvalidDocument, p.ex.Name(), errors.New("empty document"))
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		// the caller's deadline ran out while waiting for a slot
		if errors.Is(err, context.DeadlineExceeded) {
			return record.RawDocument{}, extract.NewError(extract.KindTimeout, p.ex.Name(), err)
		}
		return record.RawDocument{}, err
	}
	defer p.sem.Release(1)

	ectx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	done := p.metrics.Begin()
	t0 := time.Now()
	raw, err := p.ex.Extract(ectx, doc, p.schema)
	p.metrics.ObserveExtraction(time.Since(t0))
	done()
	if err == nil {
		return raw, nil
	}

	var xe *extract.Error
	switch {
	case errors.As(err, &xe):
		return record.RawDocument{}, err
	case errors.Is(ctx.Err(), context.Canceled):
		return record.RawDocument{}, ctx.Err()
	case errors.Is(ectx.Err(), context.DeadlineExceeded):
		return record.RawDocument{}, extract.NewError(extract.KindTimeout, p.ex.Name(), err)
	default:
		return record.RawDocument{}, extract.Classify(p.ex.Name(), err)
	}
}

// canonicalize fans records out over the worker limit. Records are written
// by index so output order matches input order.
func (p *Pipeline) canonicalize(units []record.RawUnit) ([]record.UnitRecord, []UnitAmbiguity) {
	rows := make([]record.UnitRecord, len(units))
	diags := make([][]normalize.Ambiguity, len(units))

	var g errgroup.Group
	g.SetLimit(p.workers)
	for i := range units {
		g.Go(func() error {
			rows[i], diags[i] = normalize.Record(units[i])
			return nil
		})
	}
	_ = g.Wait()

	var out []UnitAmbiguity
	for i, ds := range diags {
		for _, d := range ds {
			out = append(out, UnitAmbiguity{Row: i, UnitID: rows[i].UnitID, Block: rows[i].Block, Ambiguity: d})
		}
	}
	return rows, out
}
