package generator

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/vk/sentgrid/derivation"
)

// GenerateSharded splits inputs round-robin over shards independent
// generators built by newGenerator and runs them concurrently. Calls to sink
// are serialized. The first error cancels the remaining shards.
//
// Each generator must own its grammar and random source; sharing either
// across shards is a data race.
func GenerateSharded(ctx context.Context, newGenerator func(shard int) (*Generator, error), inputs []any, shards int, sink Sink, opts ...CallOption) error {
	shards = max(1, min(shards, len(inputs)))

	var mu sync.Mutex
	serial := func(depth int, d *derivation.Derivation) error {
		if sink == nil {
			return nil
		}
		mu.Lock()
		defer mu.Unlock()
		return sink(depth, d)
	}

	grp, gctx := errgroup.WithContext(ctx)
	for shard := 0; shard < shards; shard++ {
		part := make([]any, 0, len(inputs)/shards+1)
		for i := shard; i < len(inputs); i += shards {
			part = append(part, inputs[i])
		}
		grp.Go(func() error {
			g, err := newGenerator(shard)
			if err != nil {
				return err
			}
			return g.Generate(gctx, part, serial, opts...)
		})
	}
	return grp.Wait()
}
