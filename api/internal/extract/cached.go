package extract

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"condo-extract/api/internal/record"
	"condo-extract/api/internal/util"
)

// CacheRepo stores raw extraction output. Find returns sql.ErrNoRows on a miss.
type CacheRepo interface {
	Find(ctx context.Context, docHash, engine, model string, maxAge time.Duration) (record.RawDocument, error)
	Upsert(ctx context.Context, docHash, engine, model string, doc record.RawDocument) error
}

// Cached wraps an Extractor with a read-through cache keyed by the document
// and schema hash. Cache failures are logged and never fail the extraction.
type Cached struct {
	next   Extractor
	repo   CacheRepo
	maxAge time.Duration
	log    zerolog.Logger
}

func NewCached(next Extractor, repo CacheRepo, maxAge time.Duration, log zerolog.Logger) *Cached {
	return &Cached{next: next, repo: repo, maxAge: maxAge, log: log}
}

func (c *Cached) Name() string     { return c.next.Name() }
func (c *Cached) GetModel() string { return c.next.GetModel() }

func (c *Cached) Extract(ctx context.Context, doc []byte, schema Schema) (record.RawDocument, error) {
	hash := util.SHA256Hex(doc, []byte(schema.JSON))
	engine, model := c.next.Name(), c.next.GetModel()
	lg := c.log.With().Str("doc_hash", hash[:12]).Str("engine", engine).Logger()

	if raw, err := c.repo.Find(ctx, hash, engine, model, c.maxAge); err == nil {
		lg.Debug().Int("units", len(raw.Units)).Msg("extraction cache hit")
		return raw, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		lg.Warn().Err(err).Msg("extraction cache lookup failed")
	}

	raw, err := c.next.Extract(ctx, doc, schema)
	if err != nil {
		return record.RawDocument{}, err
	}
	if err := c.repo.Upsert(ctx, hash, engine, model, raw); err != nil {
		lg.Warn().Err(err).Msg("extraction cache store failed")
	}
	return raw, nil
}
