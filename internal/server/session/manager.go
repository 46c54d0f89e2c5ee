// Package session tracks which session ids currently have a request in flight.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/akyaiy/rpcnode/internal/core/utils"
)

type SessionManagerContract interface {
	Add(uuid string) bool
	Acquire(uuid string) (release func(), ok bool)
	Delete(uuid string)
	StartCleanup(ctx context.Context, interval time.Duration)
}

// SessionManager marks a session busy between Acquire and release. Entries older
// than ttl are dropped by the cleanup loop even if Delete never ran.
type entry struct {
	expires time.Time
}

type SessionManager struct {
	sessions sync.Map
	ttl      time.Duration
	now      func() time.Time
}

func New(ttl time.Duration) *SessionManager {
	return &SessionManager{
		ttl: ttl,
		now: time.Now,
	}
}

// Add reports false when the session is already busy.
func (sm *SessionManager) Add(uuid string) bool {
	_, ok := sm.Acquire(uuid)
	return ok
}

// Acquire marks the session busy. release only frees the entry this call
// stored, so a holder whose entry was evicted cannot free a later holder.
func (sm *SessionManager) Acquire(uuid string) (release func(), ok bool) {
	e := &entry{expires: sm.now().Add(sm.ttl)}
	if _, loaded := sm.sessions.LoadOrStore(uuid, e); loaded {
		return func() {}, false
	}
	return func() { sm.sessions.CompareAndDelete(uuid, e) }, true
}

func (sm *SessionManager) Delete(uuid string) {
	sm.sessions.Delete(uuid)
}

func (sm *SessionManager) Len() int {
	n := 0
	sm.sessions.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (sm *SessionManager) cleanup() {
	now := sm.now()
	sm.sessions.Range(func(key, value any) bool {
		if now.After(value.(*entry).expires) {
			sm.sessions.Delete(key)
		}
		return true
	})
}

// sweep runs one cleanup pass; a panic is logged and the loop keeps going.
func (sm *SessionManager) sweep() {
	defer utils.CatchPanic()
	sm.cleanup()
}

// StartCleanup evicts expired sessions every interval until ctx is done.
func (sm *SessionManager) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sm.sweep()
			}
		}
	}()
}
