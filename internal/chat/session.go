// Package chat keeps the per-session question and answer history shown by the
// dashboard and returned by the HTTP API.
package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mwiater/tariffadvisor/internal/domain"
)

// Answerer produces an answer for a question.
type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

// Session is one conversation. It is safe for concurrent use.
type Session struct {
	id       string
	answerer Answerer
	now      func() time.Time

	mu      sync.Mutex
	history []domain.QARecord
}

// Option configures a Session.
type Option func(*Session)

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithID fixes the session id instead of generating one.
func WithID(id string) Option {
	return func(s *Session) { s.id = id }
}

// NewSession creates a session with a fresh UUID.
func NewSession(a Answerer, opts ...Option) *Session {
	s := &Session{id: uuid.NewString(), answerer: a, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Session) ID() string { return s.id }

// Ask answers question and appends the exchange to the history. A question equal
// to the most recent one is not asked again; its existing record is returned
// with added=false. On error the history is left unchanged.
func (s *Session) Ask(ctx context.Context, question string) (rec domain.QARecord, added bool, err error) {
	question = strings.TrimSpace(question)

	s.mu.Lock()
	if n := len(s.history); n > 0 && s.history[n-1].Question == question {
		last := s.history[n-1]
		s.mu.Unlock()
		return last, false, nil
	}
	s.mu.Unlock()

	answer, err := s.answerer.Answer(ctx, question)
	if err != nil {
		return domain.QARecord{}, false, err
	}

	rec = domain.QARecord{
		Question:  question,
		Answer:    answer,
		Timestamp: s.now().Format(domain.TimestampLayout),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Another caller may have recorded the same question while we waited on the answerer.
	if n := len(s.history); n > 0 && s.history[n-1].Question == question {
		return s.history[n-1], false, nil
	}
	s.history = append(s.history, rec)
	return rec, true, nil
}

// History returns a copy of the records, oldest first.
func (s *Session) History() []domain.QARecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.QARecord(nil), s.history...)
}

// Len reports the number of recorded exchanges.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}
