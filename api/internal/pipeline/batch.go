package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Document is one named input of ProcessBatch.
type Document struct {
	Name string
	Data []byte
}

type BatchResult struct {
	Name   string
	Result *Result
	Err    error
}

// ProcessBatch runs every document concurrently. Extraction calls still share
// the pipeline's concurrency limit. Results keep input order.
func (p *Pipeline) ProcessBatch(ctx context.Context, docs []Document) []BatchResult {
	out := make([]BatchResult, len(docs))
	var g errgroup.Group
	for i, d := range docs {
		g.Go(func() error {
			res, err := p.Process(ctx, d.Data)
			out[i] = BatchResult{Name: d.Name, Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return out
}
