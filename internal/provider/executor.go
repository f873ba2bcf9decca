package provider

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dmagro/eth-generic-provider/internal/rpc"
)

// Endpoint is a named node connection.
type Endpoint struct {
	Name   string
	Client rpc.Transport
}

// Result wraps one endpoint's outcome.
type Result[T any] struct {
	Endpoint string
	Index    int
	Value    T
	Err      error
}

// ExecuteAll builds a Provider per endpoint from opts and runs fn on each
// concurrently. Results are in endpoint order, not completion order.
//
// Notes:
//   - Not fail-fast: every endpoint is attempted and its error recorded in
//     its Result.
//   - Cancelling ctx still short-circuits work inside fn.
func ExecuteAll[T any](
	ctx context.Context,
	endpoints []Endpoint,
	opts Options,
	fn func(ctx context.Context, p *Provider) (T, error),
) []Result[T] {
	results := make([]Result[T], len(endpoints))
	var mu sync.Mutex

	base := opts.Logger
	if base == nil {
		base = zap.NewNop()
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, e := range endpoints {
		i, e := i, e
		g.Go(func() error {
			o := opts
			o.Client = e.Client
			o.Logger = base.With(zap.String("endpoint", e.Name))

			var val T
			p, err := New(o)
			if err == nil {
				val, err = fn(gctx, p)
			}

			mu.Lock()
			results[i] = Result[T]{Endpoint: e.Name, Index: i, Value: val, Err: err}
			mu.Unlock()
			return nil // collect all results
		})
	}

	_ = g.Wait()
	return results
}
