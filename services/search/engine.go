package search

import (
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/meghashyamc/incsearch/config"
	"github.com/meghashyamc/incsearch/db/indexdb"
	"github.com/meghashyamc/incsearch/logger"
)

type Options struct {
	Catalog           string
	Scope             string
	SelectColumns     string
	ContentProperties string
	SortOrder         string
	DebounceDelay     time.Duration
	Workers           int
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Catalog:           cfg.GetCatalog(),
		Scope:             cfg.GetScope(),
		SelectColumns:     cfg.GetSelectColumns(),
		ContentProperties: cfg.GetContentProperties(),
		SortOrder:         cfg.GetSortOrder(),
		DebounceDelay:     cfg.GetDebounceDelay(),
		Workers:           cfg.GetQueryWorkers(),
	}
}

// Engine holds what sessions share: one connection, one query builder and a
// bounded pool that runs query executions off the caller's goroutine.
type Engine struct {
	logger      logger.Logger
	options     Options
	connections *ConnectionProvider
	builder     *QueryStringBuilder
	executor    *QueryExecutor

	// mu orders submissions against Close; overflow counts submissions
	// still waiting for a free worker.
	mu       sync.Mutex
	closed   bool
	pool     *errgroup.Group
	overflow sync.WaitGroup
}

func NewEngine(logger logger.Logger, driver indexdb.Driver, options Options) *Engine {
	connections := NewConnectionProvider(logger, driver)

	pool := &errgroup.Group{}
	if options.Workers > 0 {
		pool.SetLimit(options.Workers)
	}

	return &Engine{
		logger:      logger,
		options:     options,
		connections: connections,
		builder:     NewQueryStringBuilder(logger, connections, options),
		executor:    NewQueryExecutor(logger, connections),
		pool:        pool,
	}
}

// NewSession creates a session and runs its priming query.
func (e *Engine) NewSession() *Session {
	s := newSession(e)
	s.prime()
	return s
}

// Close stops accepting work and waits for every submitted execution,
// including those still waiting for a worker.
func (e *Engine) Close() error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()

	e.overflow.Wait()
	return e.pool.Wait()
}

func (e *Engine) submit(task func()) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return false
	}

	run := func() error {
		task()
		return nil
	}
	if !e.pool.TryGo(run) {
		// all workers are busy, queue behind them without blocking the caller
		e.overflow.Add(1)
		go func() {
			defer e.overflow.Done()
			e.pool.Go(run)
		}()
	}
	return true
}
