package chat

import (
	"testing"
	"time"
)

type stepClock struct {
	t time.Time
}

func (c *stepClock) now() time.Time { return c.t }

func (c *stepClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestStoreEvictsLeastRecentlyUsedWhenFull(t *testing.T) {
	clock := &stepClock{t: fixedClock()}
	st := NewStore(&fakeAnswerer{reply: "r"}, WithClock(clock.now)).WithLimits(2, time.Hour)

	first := st.Create()
	clock.advance(time.Minute)
	second := st.Create()
	clock.advance(time.Minute)
	if _, ok := st.Get(first.ID()); !ok {
		t.Fatal("first session missing before the store is full")
	}
	clock.advance(time.Minute)
	third := st.Create()

	if st.Len() != 2 {
		t.Fatalf("expected 2 sessions, got %d", st.Len())
	}
	if _, ok := st.Get(second.ID()); ok {
		t.Fatal("least recently used session was kept")
	}
	for _, s := range []*Session{first, third} {
		if _, ok := st.Get(s.ID()); !ok {
			t.Fatalf("session %s was evicted", s.ID())
		}
	}
}

func TestStoreDropsIdleSessions(t *testing.T) {
	clock := &stepClock{t: fixedClock()}
	st := NewStore(&fakeAnswerer{reply: "r"}, WithClock(clock.now)).WithLimits(10, 30*time.Minute)

	idle := st.Create()
	active := st.Create()
	clock.advance(20 * time.Minute)
	if _, ok := st.Get(active.ID()); !ok {
		t.Fatal("active session missing")
	}
	clock.advance(20 * time.Minute)

	if _, ok := st.Get(idle.ID()); ok {
		t.Fatal("idle session outlived its TTL")
	}
	if _, ok := st.Get(active.ID()); !ok {
		t.Fatal("recently used session expired")
	}
	if st.Len() != 1 {
		t.Fatalf("expected 1 live session, got %d", st.Len())
	}
}

func TestStoreWithLimitsKeepsDefaultsForNonPositive(t *testing.T) {
	st := NewStore(&fakeAnswerer{}).WithLimits(0, -time.Second)
	if st.maxSessions != DefaultMaxSessions || st.idleTTL != DefaultIdleTTL {
		t.Fatalf("unexpected limits: max=%d ttl=%s", st.maxSessions, st.idleTTL)
	}
}
