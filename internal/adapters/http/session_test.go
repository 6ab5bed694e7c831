package httpadapter

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/kirillkom/startup-scout/internal/core/domain"
	"github.com/kirillkom/startup-scout/internal/core/ports"
)

type flowFake struct {
	ports.ViewFlow
	closed *int32
}

func (f flowFake) Close() { atomic.AddInt32(f.closed, 1) }

func newFakeStore(ttl time.Duration, max int) (*SessionStore, *int32, *time.Time) {
	var closed int32
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	store := NewSessionStore(func(string) ports.ViewFlow {
		return flowFake{closed: &closed}
	}, ttl, max)
	store.now = func() time.Time { return now }
	return store, &closed, &now
}

func TestSessionStoreExpiresIdleSessions(t *testing.T) {
	store, closed, now := newFakeStore(time.Minute, 0)

	session, err := store.Create()
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, ok := store.Get(session.ID); !ok {
		t.Fatalf("expected fresh session to be found")
	}

	*now = now.Add(2 * time.Minute)
	if _, ok := store.Get(session.ID); ok {
		t.Fatalf("expected idle session to expire")
	}
	if atomic.LoadInt32(closed) != 1 {
		t.Fatalf("expected expired flow to be closed")
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d", store.Len())
	}
}

func TestSessionStoreGetRefreshesLastSeen(t *testing.T) {
	store, _, now := newFakeStore(time.Minute, 0)
	session, _ := store.Create()

	*now = now.Add(50 * time.Second)
	store.Get(session.ID)
	*now = now.Add(50 * time.Second)
	if _, ok := store.Get(session.ID); !ok {
		t.Fatalf("touched session should still be alive")
	}
}

func TestSessionStoreCapacity(t *testing.T) {
	store, _, now := newFakeStore(time.Minute, 1)

	if _, err := store.Create(); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := store.Create()
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error at capacity, got %v", err)
	}

	*now = now.Add(2 * time.Minute)
	if _, err := store.Create(); err != nil {
		t.Fatalf("create after expiry should evict and succeed: %v", err)
	}
}

func TestSessionStoreReportsActiveCount(t *testing.T) {
	store, closed, _ := newFakeStore(time.Minute, 0)
	var counts []int
	store.OnChange(func(active int) { counts = append(counts, active) })

	store.Create()
	store.Create()
	store.Close()

	want := []int{1, 2, 1, 0}
	if len(counts) != len(want) {
		t.Fatalf("unexpected counts %v", counts)
	}
	for i := range want {
		if counts[i] != want[i] {
			t.Fatalf("unexpected counts %v", counts)
		}
	}
	if atomic.LoadInt32(closed) != 2 {
		t.Fatalf("expected both flows closed")
	}
}
