package extract

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// BatchResult is the outcome of one identifier in a batch run. Failures
// are recorded per item instead of aborting the batch.
type BatchResult struct {
	Identifier string         `json:"identifier"`
	Fields     map[string]any `json:"fields,omitempty"`
	Err        string         `json:"error,omitempty"`
}

// ExtractStructuredBatch runs structured extraction over several
// identifiers concurrently, at most maxParallel at a time. Each item owns
// its own resource buffer and model call; results come back in input
// order. The context cancels all in-flight items.
func (s *Service) ExtractStructuredBatch(ctx context.Context, identifiers []string, fields []string, maxParallel int) []BatchResult {
	if maxParallel <= 0 {
		maxParallel = 4
	}

	results := make([]BatchResult, len(identifiers))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)

	for i, id := range identifiers {
		g.Go(func() error {
			out, err := s.ExtractStructuredData(gctx, id, fields)
			if err != nil {
				results[i] = BatchResult{Identifier: id, Err: err.Error()}
				return nil
			}
			results[i] = BatchResult{Identifier: id, Fields: out}
			return nil
		})
	}

	// Workers never return errors; Wait is just the join point.
	_ = g.Wait()
	return results
}
