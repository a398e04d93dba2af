package search

import (
	"io"
	"sync"
)

// Handle owns a protocol object and closes it exactly once. Handles are only
// passed by pointer.
type Handle[T io.Closer] struct {
	value T
	once  sync.Once
	err   error
}

func own[T io.Closer](value T) *Handle[T] {
	return &Handle[T]{value: value}
}

func (h *Handle[T]) Get() T {
	return h.value
}

// Release closes the owned value on the first call and returns that result on
// every call.
func (h *Handle[T]) Release() error {
	h.once.Do(func() {
		h.err = h.value.Close()
	})
	return h.err
}
