package search

import (
	"fmt"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Sessions keeps the most recently used sessions by id. A session that falls
// out of the registry is disposed.
type Sessions struct {
	engine *Engine
	cache  *lru.Cache[string, *Session]
}

func NewSessions(engine *Engine, size int) (*Sessions, error) {
	cache, err := lru.NewWithEvict(size, func(id string, session *Session) {
		engine.logger.Info("disposing search session", "id", id)
		session.Dispose()
	})
	if err != nil {
		return nil, fmt.Errorf("could not create session registry: %w", err)
	}

	return &Sessions{engine: engine, cache: cache}, nil
}

// Create starts a primed session and registers it under a new id.
func (r *Sessions) Create() (string, *Session) {
	id := uuid.NewString()
	session := r.engine.NewSession()
	r.cache.Add(id, session)
	return id, session
}

func (r *Sessions) Get(id string) (*Session, bool) {
	return r.cache.Get(id)
}

// Remove disposes and forgets the session. It reports whether it existed.
func (r *Sessions) Remove(id string) bool {
	return r.cache.Remove(id)
}

func (r *Sessions) Len() int {
	return r.cache.Len()
}

// Close disposes every session.
func (r *Sessions) Close() {
	r.cache.Purge()
}
