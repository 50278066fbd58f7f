package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

type fakeAnswerer struct {
	mu    sync.Mutex
	calls []string
	reply string
	err   error
}

func (f *fakeAnswerer) Answer(ctx context.Context, question string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, question)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func fixedClock() time.Time {
	return time.Date(2025, 4, 9, 14, 30, 5, 0, time.UTC)
}

func TestAskRecordsExchange(t *testing.T) {
	fa := &fakeAnswerer{reply: "26%"}
	s := NewSession(fa, WithClock(fixedClock))

	rec, added, err := s.Ask(context.Background(), "  What does India charge?  ")
	if err != nil {
		t.Fatalf("Ask error: %v", err)
	}
	if !added {
		t.Fatal("expected the record to be added")
	}
	if rec.Question != "What does India charge?" || rec.Answer != "26%" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.Timestamp != "2025-04-09 14:30:05" {
		t.Fatalf("unexpected timestamp %q", rec.Timestamp)
	}
	if got := s.History(); len(got) != 1 || got[0] != rec {
		t.Fatalf("unexpected history: %+v", got)
	}
}

func TestAskSkipsRepeatedQuestion(t *testing.T) {
	fa := &fakeAnswerer{reply: "yes"}
	s := NewSession(fa)

	if _, _, err := s.Ask(context.Background(), "q1"); err != nil {
		t.Fatalf("Ask error: %v", err)
	}
	_, added, err := s.Ask(context.Background(), "q1")
	if err != nil {
		t.Fatalf("Ask error: %v", err)
	}
	if added {
		t.Fatal("repeated question should not be added")
	}
	if len(fa.calls) != 1 {
		t.Fatalf("answerer should be called once, got %d", len(fa.calls))
	}

	if _, added, _ := s.Ask(context.Background(), "q2"); !added {
		t.Fatal("new question should be added")
	}
	if _, added, _ := s.Ask(context.Background(), "q1"); !added {
		t.Fatal("only the most recent question is suppressed")
	}
	if s.Len() != 3 {
		t.Fatalf("expected 3 records, got %d", s.Len())
	}
}

func TestAskErrorLeavesHistoryUntouched(t *testing.T) {
	fa := &fakeAnswerer{reply: "ok"}
	s := NewSession(fa)
	if _, _, err := s.Ask(context.Background(), "first"); err != nil {
		t.Fatalf("Ask error: %v", err)
	}

	fa.err = errors.New("service down")
	if _, _, err := s.Ask(context.Background(), "second"); err == nil {
		t.Fatal("expected error")
	}
	if got := s.History(); len(got) != 1 || got[0].Question != "first" {
		t.Fatalf("history changed on error: %+v", got)
	}
}

func TestHistoryReturnsCopy(t *testing.T) {
	s := NewSession(&fakeAnswerer{reply: "a"})
	_, _, _ = s.Ask(context.Background(), "q")
	h := s.History()
	h[0].Answer = "mutated"
	if s.History()[0].Answer != "a" {
		t.Fatal("History must return a copy")
	}
}

func TestSessionIDs(t *testing.T) {
	s := NewSession(&fakeAnswerer{})
	if _, err := uuid.Parse(s.ID()); err != nil {
		t.Fatalf("expected a UUID id, got %q", s.ID())
	}
	if got := NewSession(&fakeAnswerer{}, WithID("fixed")).ID(); got != "fixed" {
		t.Fatalf("WithID ignored: %q", got)
	}
}

func TestStoreCreateAndGet(t *testing.T) {
	st := NewStore(&fakeAnswerer{reply: "r"})
	s := st.Create()
	got, ok := st.Get(s.ID())
	if !ok || got != s {
		t.Fatal("created session not found")
	}
	if _, ok := st.Get("missing"); ok {
		t.Fatal("unexpected session for unknown id")
	}
	if st.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", st.Len())
	}
}

func TestConcurrentAsks(t *testing.T) {
	s := NewSession(&fakeAnswerer{reply: "r"})
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, _ = s.Ask(context.Background(), string(rune('a'+i)))
		}(i)
	}
	wg.Wait()
	if s.Len() == 0 || s.Len() > 20 {
		t.Fatalf("unexpected history length %d", s.Len())
	}
}
