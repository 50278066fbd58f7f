package chat

import (
	"sync"
	"time"
)

const (
	DefaultMaxSessions = 1000
	DefaultIdleTTL     = time.Hour
)

// Store holds the sessions created through the HTTP API. Sessions live only as
// long as the process; a session idle for longer than the TTL is dropped, and
// the least recently used one is evicted when the store is full.
type Store struct {
	answerer    Answerer
	opts        []Option
	now         func() time.Time
	maxSessions int
	idleTTL     time.Duration

	mu       sync.Mutex
	sessions map[string]*entry
}

type entry struct {
	session  *Session
	lastUsed time.Time
}

// NewStore returns an empty store whose sessions use a. The store reads time
// from the clock given through WithClock.
func NewStore(a Answerer, opts ...Option) *Store {
	clock := &Session{now: time.Now}
	for _, opt := range opts {
		opt(clock)
	}
	return &Store{
		answerer:    a,
		opts:        opts,
		now:         clock.now,
		maxSessions: DefaultMaxSessions,
		idleTTL:     DefaultIdleTTL,
		sessions:    make(map[string]*entry),
	}
}

// WithLimits caps the number of live sessions and how long one may sit idle.
// Non-positive values keep the defaults.
func (st *Store) WithLimits(maxSessions int, idleTTL time.Duration) *Store {
	st.mu.Lock()
	defer st.mu.Unlock()
	if maxSessions > 0 {
		st.maxSessions = maxSessions
	}
	if idleTTL > 0 {
		st.idleTTL = idleTTL
	}
	return st
}

// Get looks up a session by id and marks it as used.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	e, ok := st.sessions[id]
	if !ok {
		return nil, false
	}
	now := st.now()
	if now.Sub(e.lastUsed) > st.idleTTL {
		delete(st.sessions, id)
		return nil, false
	}
	e.lastUsed = now
	return e.session, true
}

// Create starts and registers a new session, dropping expired sessions and,
// when the store is full, the least recently used one.
func (st *Store) Create() *Session {
	s := NewSession(st.answerer, st.opts...)
	st.mu.Lock()
	defer st.mu.Unlock()
	now := st.now()
	st.expire(now)
	for len(st.sessions) >= st.maxSessions {
		st.evictOldest()
	}
	st.sessions[s.ID()] = &entry{session: s, lastUsed: now}
	return s
}

// Len reports the number of live sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.expire(st.now())
	return len(st.sessions)
}

func (st *Store) expire(now time.Time) {
	for id, e := range st.sessions {
		if now.Sub(e.lastUsed) > st.idleTTL {
			delete(st.sessions, id)
		}
	}
}

func (st *Store) evictOldest() {
	var oldest string
	var at time.Time
	for id, e := range st.sessions {
		if oldest == "" || e.lastUsed.Before(at) {
			oldest, at = id, e.lastUsed
		}
	}
	delete(st.sessions, oldest)
}
