package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"condo-extract/api/internal/record"
)

var ErrNotFound = sql.ErrNoRows

// ExtractionRepo caches raw collaborator output per (doc_hash, engine, model).
// Only the pre-canonical RawDocument is stored; canonical results are always recomputed.
type ExtractionRepo struct{ DB *sql.DB }

func NewExtractionRepo(db *sql.DB) *ExtractionRepo { return &ExtractionRepo{DB: db} }

const schemaDDL = `
create table if not exists extraction_cache (
  doc_hash    text        not null,
  engine      text        not null,
  model       text        not null,
  unit_count  integer     not null default 0,
  result_json jsonb       not null,
  created_at  timestamptz not null default now(),
  primary key (doc_hash, engine, model)
)`

// Migrate creates the cache table when missing.
func (r *ExtractionRepo) Migrate(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, schemaDDL)
	return err
}

// Find returns the cached extraction. When maxAge > 0 and the row is older,
// ErrNotFound is returned so the collaborator is called again.
func (r *ExtractionRepo) Find(ctx context.Context, docHash, engine, model string, maxAge time.Duration) (record.RawDocument, error) {
	const q = `select result_json, created_at
	           from extraction_cache
	           where doc_hash=$1 and engine=$2 and model=$3`
	var (
		js []byte
		ts time.Time
	)
	if err := r.DB.QueryRowContext(ctx, q, docHash, engine, model).Scan(&js, &ts); err != nil {
		return record.RawDocument{}, err
	}
	if maxAge > 0 && time.Since(ts) > maxAge {
		return record.RawDocument{}, ErrNotFound
	}
	var doc record.RawDocument
	if err := json.Unmarshal(js, &doc); err != nil {
		// a broken row counts as a miss
		return record.RawDocument{}, ErrNotFound
	}
	return doc, nil
}

// Upsert stores or refreshes the extraction for the key.
func (r *ExtractionRepo) Upsert(ctx context.Context, docHash, engine, model string, doc record.RawDocument) error {
	js, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	const q = `
insert into extraction_cache(doc_hash, engine, model, unit_count, result_json)
values ($1,$2,$3,$4,$5)
on conflict (doc_hash, engine, model)
do update set unit_count=excluded.unit_count, result_json=excluded.result_json, created_at=now()`
	_, err = r.DB.ExecContext(ctx, q, docHash, engine, model, len(doc.Units), js)
	return err
}

// PurgeOlderThan deletes stale rows.
func (r *ExtractionRepo) PurgeOlderThan(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, errors.New("olderThan must be > 0")
	}
	cutoff := time.Now().Add(-olderThan)
	const q = `delete from extraction_cache where created_at < $1`
	res, err := r.DB.ExecContext(ctx, q, cutoff)
	if err != nil {
		return 0, err
	}
	aff, _ := res.RowsAffected()
	return aff, nil
}
