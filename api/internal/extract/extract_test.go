package extract

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"condo-extract/api/internal/record"
)

func TestDocumentSchemaIsJSON(t *testing.T) {
	s := DocumentSchema()
	assert.Equal(t, "condo_document", s.Name)
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(s.JSON), &m))
	assert.Contains(t, m, "properties")
}

func TestErrorIs(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewError(KindMalformedOutput, "gemini", errors.New("bad json")))
	assert.ErrorIs(t, err, ErrMalformedOutput)
	assert.NotErrorIs(t, err, ErrTimeout)

	k, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, KindMalformedOutput, k)

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)
	assert.Equal(t, "gemini: malformed_output: bad json", NewError(KindMalformedOutput, "gemini", errors.New("bad json")).Error())
}

func TestClassify(t *testing.T) {
	assert.Nil(t, Classify("x", nil))

	e := Classify("gemini", fmt.Errorf("call: %w", context.DeadlineExceeded))
	assert.Equal(t, KindTimeout, e.Kind)
	assert.ErrorIs(t, e, context.DeadlineExceeded)

	e = Classify("gemini", errors.New("connection refused"))
	assert.Equal(t, KindUnavailable, e.Kind)

	orig := NewError(KindInvalidDocument, "gemini", nil)
	assert.Same(t, orig, Classify("other", orig))
}

type fakeExtractor struct {
	calls int
	doc   record.RawDocument
	err   error
}

func (f *fakeExtractor) Name() string     { return "fake" }
func (f *fakeExtractor) GetModel() string { return "m1" }
func (f *fakeExtractor) Extract(context.Context, []byte, Schema) (record.RawDocument, error) {
	f.calls++
	return f.doc, f.err
}

type memRepo struct {
	mu      sync.Mutex
	rows    map[string]record.RawDocument
	findErr error
	putErr  error
}

func (m *memRepo) Find(_ context.Context, h, e, mo string, _ time.Duration) (record.RawDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return record.RawDocument{}, m.findErr
	}
	d, ok := m.rows[h+e+mo]
	if !ok {
		return record.RawDocument{}, sql.ErrNoRows
	}
	return d, nil
}

func (m *memRepo) Upsert(_ context.Context, h, e, mo string, d record.RawDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	if m.rows == nil {
		m.rows = map[string]record.RawDocument{}
	}
	m.rows[h+e+mo] = d
	return nil
}

func TestCachedReadThrough(t *testing.T) {
	want := record.RawDocument{Units: []record.RawUnit{{Unit: "101"}}, TotalUnits: 1}
	fx := &fakeExtractor{doc: want}
	c := NewCached(fx, &memRepo{}, time.Hour, zerolog.Nop())

	got, err := c.Extract(context.Background(), []byte("%PDF-1"), DocumentSchema())
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got, err = c.Extract(context.Background(), []byte("%PDF-1"), DocumentSchema())
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 1, fx.calls)

	_, err = c.Extract(context.Background(), []byte("%PDF-2"), DocumentSchema())
	require.NoError(t, err)
	assert.Equal(t, 2, fx.calls)

	assert.Equal(t, "fake", c.Name())
	assert.Equal(t, "m1", c.GetModel())
}

func TestCachedFailuresDoNotFailExtraction(t *testing.T) {
	fx := &fakeExtractor{doc: record.RawDocument{TotalUnits: 0}}
	repo := &memRepo{findErr: errors.New("db down"), putErr: errors.New("db down")}
	c := NewCached(fx, repo, 0, zerolog.Nop())

	_, err := c.Extract(context.Background(), []byte("x"), DocumentSchema())
	require.NoError(t, err)
	assert.Equal(t, 1, fx.calls)
}

func TestCachedPropagatesExtractorError(t *testing.T) {
	boom := NewError(KindUnavailable, "fake", errors.New("503"))
	fx := &fakeExtractor{err: boom}
	repo := &memRepo{}
	c := NewCached(fx, repo, 0, zerolog.Nop())

	_, err := c.Extract(context.Background(), []byte("x"), DocumentSchema())
	assert.Same(t, boom, err)
	assert.Empty(t, repo.rows)
}
