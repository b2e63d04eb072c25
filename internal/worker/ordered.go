package worker

import "context"

type indexedJob[T, R any] struct {
	index int
	item  T
	fn    func(ctx context.Context, item T) R
}

type indexedResult[R any] struct {
	index int
	value R
}

func (r *indexedResult[R]) GetError() error { return nil }

func (j *indexedJob[T, R]) Execute(ctx context.Context) Result {
	return &indexedResult[R]{index: j.index, value: j.fn(ctx, j.item)}
}

// Map runs fn over items on a pool of workers and returns the outputs in
// input order. Items never started because ctx was cancelled keep R's zero value.
func Map[T, R any](ctx context.Context, workers int, items []T, fn func(ctx context.Context, item T) R) []R {
	out := make([]R, len(items))
	if len(items) == 0 {
		return out
	}

	pool := NewPoolContext(ctx, min(workers, len(items)))
	pool.Start()

	for i, item := range items {
		if !pool.Submit(&indexedJob[T, R]{index: i, item: item, fn: fn}) {
			break
		}
	}

	for _, res := range pool.Wait() {
		r := res.(*indexedResult[R])
		out[r.index] = r.value
	}
	return out
}
