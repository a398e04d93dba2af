package search

import "sync"

// signal is a one-shot completion event.
type signal struct {
	ch   chan struct{}
	once sync.Once
}

func newSignal() *signal {
	return &signal{ch: make(chan struct{})}
}

func firedSignal() *signal {
	s := newSignal()
	s.fire()
	return s
}

func (s *signal) fire() {
	s.once.Do(func() {
		close(s.ch)
	})
}

func (s *signal) done() <-chan struct{} {
	return s.ch
}

func (s *signal) fired() bool {
	select {
	case <-s.ch:
		return true
	default:
		return false
	}
}
