// Package data provides finite, length-aware sources of model inputs.
package data

import (
	"iter"

	"github.com/pkg/errors"
)

// Loader is a finite iterable whose length is known before iteration starts.
type Loader[T any] interface {
	// Len is the number of elements All yields.
	Len() int
	// All yields every element in order.
	All() iter.Seq[T]
}

// ItemCounter is implemented by loaders whose elements are batches. NumItems is the number of
// items across all batches.
type ItemCounter interface {
	NumItems() int
}

// NumItems is the number of items l serves: NumItems for an ItemCounter, Len otherwise.
func NumItems[T any](l Loader[T]) int {
	if counter, ok := l.(ItemCounter); ok {
		return counter.NumItems()
	}
	return l.Len()
}

type sliceLoader[T any] struct {
	items []T
}

// NewSliceLoader serves the elements of items in order.
func NewSliceLoader[T any](items []T) Loader[T] {
	return &sliceLoader[T]{items: items}
}

func (l *sliceLoader[T]) Len() int {
	return len(l.items)
}

func (l *sliceLoader[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, item := range l.items {
			if !yield(item) {
				return
			}
		}
	}
}

type batchLoader[T any] struct {
	items     []T
	batchSize int
}

// NewBatchLoader groups items into consecutive batches of batchSize. The final batch holds the
// remainder and may be shorter.
func NewBatchLoader[T any](items []T, batchSize int) (Loader[[]T], error) {
	if batchSize < 1 {
		return nil, errors.Errorf("batch size must be positive, got %d", batchSize)
	}
	return &batchLoader[T]{items: items, batchSize: batchSize}, nil
}

func (l *batchLoader[T]) Len() int {
	return (len(l.items) + l.batchSize - 1) / l.batchSize
}

func (l *batchLoader[T]) NumItems() int {
	return len(l.items)
}

func (l *batchLoader[T]) All() iter.Seq[[]T] {
	return func(yield func([]T) bool) {
		for start := 0; start < len(l.items); start += l.batchSize {
			end := min(start+l.batchSize, len(l.items))
			if !yield(l.items[start:end:end]) {
				return
			}
		}
	}
}
