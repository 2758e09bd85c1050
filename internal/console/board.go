// README: Optimistic row board; failed remote writes revert by refetching.
package console

import (
	"context"
	"errors"
	"slices"
	"sync"
)

type Loader[T any] func(ctx context.Context) ([]T, error)

// Board holds the operator's current view of a list. Rows shown after a
// failed write are always the server's, never a stale tentative copy.
type Board[T any] struct {
	mu   sync.Mutex
	rows []T
	load Loader[T]
}

func NewBoard[T any](load Loader[T]) *Board[T] {
	return &Board[T]{load: load}
}

func (b *Board[T]) Refresh(ctx context.Context) error {
	rows, err := b.load(ctx)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.rows = rows
	b.mu.Unlock()
	return nil
}

func (b *Board[T]) Rows() []T {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.rows)
}

// Apply shows tentative immediately, then runs remote. On remote failure
// the board is reloaded from the loader and the remote error returned.
func (b *Board[T]) Apply(ctx context.Context, tentative func([]T) []T, remote func(context.Context) error) error {
	b.mu.Lock()
	b.rows = tentative(slices.Clone(b.rows))
	b.mu.Unlock()

	if err := remote(ctx); err != nil {
		if rerr := b.Refresh(ctx); rerr != nil {
			return errors.Join(err, rerr)
		}
		return err
	}
	return nil
}
