package palette

import "context"

// Future is a palette lookup running in the background. It is resolved
// exactly once.
type Future struct {
	done   chan struct{}
	colors []string
	err    error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Resolved returns a future that is already complete.
func Resolved(colors []string, err error) *Future {
	f := newFuture()
	f.resolve(colors, err)
	return f
}

func (f *Future) resolve(colors []string, err error) {
	f.colors, f.err = colors, err
	close(f.done)
}

// Await blocks until the palette is known or ctx ends.
func (f *Future) Await(ctx context.Context) ([]string, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-f.done:
		if f.err != nil {
			return nil, f.err
		}
		return append([]string(nil), f.colors...), nil
	}
}
