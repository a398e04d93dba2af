package search

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/meghashyamc/incsearch/db/indexdb"
	"github.com/meghashyamc/incsearch/logger"
)

type State int

const (
	StateIdle State = iota
	StateDebouncing
	StateExecuting
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDebouncing:
		return "debouncing"
	case StateExecuting:
		return "executing"
	case StateCancelled:
		return "cancelled"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// intent is a requested query. gen increases with every request; 0 means none.
// pending is the newest request, ready the newest one released for execution:
// Execute releases at once, Schedule only when its timer fires.
type intent struct {
	text   string
	cookie uint32
	gen    uint64
}

// Session is one search box: the latest requested query, its cursor and the
// rows fetched from it.
//
// mu guards the cursors, the shape token and the execution bookkeeping, and is
// held for a whole execution or fetch. intentMu guards request bookkeeping and
// is only held briefly. When both are needed mu is taken first.
type Session struct {
	logger logger.Logger
	engine *Engine

	mu       sync.Mutex
	current  *Handle[indexdb.Cursor]
	reuse    *Handle[indexdb.Cursor]
	shape    QueryShapeCache
	results  ResultQueue
	executed intent

	intentMu  sync.Mutex
	pending   intent
	ready     intent
	abandoned uint64
	completed *signal
	queued    bool
	timer     *time.Timer
	timerGen  uint64
	state     State
	disposed  bool
}

func newSession(engine *Engine) *Session {
	return &Session{
		logger:    engine.logger,
		engine:    engine,
		completed: firedSignal(),
	}
}

// Execute records a query and runs it as soon as a worker is free.
func (s *Session) Execute(text string, cookie uint32) {
	s.intentMu.Lock()
	defer s.intentMu.Unlock()

	if s.disposed {
		return
	}
	s.recordLocked(text, cookie)
	s.stopTimerLocked()
	s.dispatchLocked()
}

// Schedule records a query and runs it once no newer query has been scheduled
// for the debounce delay.
func (s *Session) Schedule(text string, cookie uint32) {
	delay := s.engine.options.DebounceDelay
	if delay <= 0 {
		s.Execute(text, cookie)
		return
	}

	s.intentMu.Lock()
	defer s.intentMu.Unlock()

	if s.disposed {
		return
	}
	s.recordLocked(text, cookie)
	s.stopTimerLocked()

	gen := s.timerGen
	s.state = StateDebouncing
	s.timer = time.AfterFunc(delay, func() {
		s.debounceElapsed(gen)
	})
}

// WaitForQueryCompleted blocks until the latest requested query has been
// executed, abandoned or cancelled.
func (s *Session) WaitForQueryCompleted(ctx context.Context) error {
	s.intentMu.Lock()
	completed := s.completed
	s.intentMu.Unlock()

	select {
	case <-completed.done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CancelOutstandingQueries drops the debounce timer and every query not yet
// started and releases waiters. An execution already in progress runs to the end.
func (s *Session) CancelOutstandingQueries() {
	s.intentMu.Lock()
	defer s.intentMu.Unlock()

	s.stopTimerLocked()
	s.abandoned = s.pending.gen
	s.completed.fire()
	s.state = StateCancelled
}

// Fetch appends up to limit rows, offset past the cursor's position, to the
// result queue. It reports whether more rows may follow.
func (s *Session) Fetch(offset int64, limit int64) bool {
	if limit <= 0 || offset < 0 {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return false
	}

	rows, ok := s.current.Get().Rows()
	if !ok {
		s.logger.Warn("cursor has no row access, executing query again", "text", s.executed.text)
		s.executeLocked(s.executed)
		if s.current == nil {
			return false
		}
		if rows, ok = s.current.Get().Rows(); !ok {
			s.logger.Error("cursor has no row access after executing query again", "text", s.executed.text)
			return false
		}
	}

	outcome, err := fetchRows(s.logger, rows, offset, limit)
	if err != nil {
		return false
	}
	s.results.Append(outcome.Records...)
	return outcome.More
}

func (s *Session) Results() *ResultQueue {
	return &s.results
}

func (s *Session) ReuseToken() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shape.Token()
}

// SearchText returns the text of the last executed query.
func (s *Session) SearchText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.executed.text
}

// Cookie returns the caller's cookie of the last executed query.
func (s *Session) Cookie() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.executed.cookie
}

func (s *Session) State() State {
	s.intentMu.Lock()
	defer s.intentMu.Unlock()
	return s.state
}

// Dispose cancels outstanding queries and releases the session's cursors.
// Later calls do nothing.
func (s *Session) Dispose() {
	s.CancelOutstandingQueries()

	s.intentMu.Lock()
	disposed := s.disposed
	s.disposed = true
	s.intentMu.Unlock()
	if disposed {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.releaseCursor("current", s.current)
	s.releaseCursor("reuse", s.reuse)
	s.current = nil
	s.reuse = nil
	s.shape.Reset()
	s.results.Clear()
}

func (s *Session) prime() {
	s.mu.Lock()
	defer s.mu.Unlock()

	cursor, err := s.engine.executor.Execute(s.engine.builder.PrimingQuery())
	if err != nil {
		s.logger.Warn("could not run priming query", "err", err.Error())
		return
	}

	s.reuse = cursor
	s.readToken()
}

// recordLocked must be called with intentMu held. An unfired signal is kept
// so that its waiters wait for the newest query.
func (s *Session) recordLocked(text string, cookie uint32) {
	s.pending = intent{text: text, cookie: cookie, gen: s.pending.gen + 1}
	if s.completed.fired() {
		s.completed = newSignal()
	}
}

// stopTimerLocked must be called with intentMu held.
func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.timerGen++
}

// dispatchLocked must be called with intentMu held.
func (s *Session) dispatchLocked() {
	s.ready = s.pending
	s.state = StateExecuting
	if s.queued {
		return
	}
	if !s.engine.submit(s.run) {
		s.logger.Warn("query engine is closed, dropping query", "text", s.pending.text)
		s.abandoned = s.pending.gen
		s.completed.fire()
		s.state = StateIdle
		return
	}
	s.queued = true
}

func (s *Session) debounceElapsed(gen uint64) {
	s.intentMu.Lock()
	defer s.intentMu.Unlock()

	if gen != s.timerGen || s.disposed {
		return
	}
	s.timer = nil
	s.dispatchLocked()
}

// run executes the newest released query unless it already ran or was
// abandoned. A query still waiting out its debounce delay is left to the timer.
func (s *Session) run() {
	s.intentMu.Lock()
	s.queued = false
	s.intentMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.intentMu.Lock()
	next := s.ready
	skip := s.disposed || next.gen <= s.abandoned || next.gen <= s.executed.gen
	s.intentMu.Unlock()

	if !skip {
		s.executeLocked(next)
		s.executed = next
	}

	s.intentMu.Lock()
	defer s.intentMu.Unlock()
	switch {
	case next.gen == s.pending.gen:
		s.completed.fire()
		if next.gen > s.abandoned && !s.queued && s.timer == nil {
			s.state = StateIdle
		}
	case s.timer != nil && !s.queued && s.state == StateExecuting:
		s.state = StateDebouncing
	}
}

// executeLocked must be called with mu held. On failure the session is left
// without a current cursor and the token is unchanged.
func (s *Session) executeLocked(next intent) {
	previous := s.reuse
	if s.current != nil {
		s.reuse = s.current
		s.current = nil
		s.readToken()
	} else {
		previous = nil
	}
	defer s.releaseCursor("reuse", previous)

	query, err := s.engine.builder.GenerateQuery(next.text, s.shape.Token())
	if err != nil {
		s.logger.Error("could not generate query", "text", next.text, "err", err.Error())
		return
	}

	cursor, err := s.engine.executor.Execute(query)
	if err != nil {
		s.logger.Error("could not execute query", "text", next.text, "err", err.Error())
		return
	}

	s.current = cursor
	s.results.Clear()
	s.logger.Debug("executed query", "text", next.text, "cookie", next.cookie, "reuse_where", s.shape.Token())
}

// readToken must be called with mu held. It keeps the cached token when the
// reuse cursor does not report one.
func (s *Session) readToken() {
	if s.reuse == nil {
		return
	}

	value, err := s.reuse.Get().Property(indexdb.PropWhereID)
	if err != nil {
		s.logger.Warn("could not read where id of cursor", "err", err.Error())
		return
	}

	token, ok := value.(uint32)
	if !ok {
		s.logger.Warn("cursor where id has unexpected type", "type", fmt.Sprintf("%T", value))
		return
	}
	s.shape.Store(token)
}

func (s *Session) releaseCursor(slot string, cursor *Handle[indexdb.Cursor]) {
	if cursor == nil {
		return
	}
	if err := cursor.Release(); err != nil {
		s.logger.Warn("could not release cursor", "slot", slot, "err", err.Error())
	}
}
