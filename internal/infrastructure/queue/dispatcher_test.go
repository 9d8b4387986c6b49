package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/activity-tracker/tracker-web/internal/core/domain"
)

type collectingService struct {
	mu     sync.Mutex
	events []domain.AuthEvent
	err    error
	block  chan struct{}
}

func (s *collectingService) Process(_ context.Context, e domain.AuthEvent) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return s.err
}

func (s *collectingService) snapshot() []domain.AuthEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AuthEvent(nil), s.events...)
}

func TestDispatcher_PreservesPerSessionOrder(t *testing.T) {
	svc := &collectingService{}
	d := NewDispatcher(4, svc, zerolog.Nop())
	d.Start(context.Background())

	types := []domain.AuthEventType{
		domain.EventLoginSucceeded,
		domain.EventTokenRefreshed,
		domain.EventSessionExpired,
		domain.EventLogout,
	}
	for _, typ := range types {
		d.Record(domain.AuthEvent{Type: typ, SessionID: "sid-1"})
		d.Record(domain.AuthEvent{Type: typ, SessionID: "sid-2"})
	}
	d.Close()

	var got []domain.AuthEventType
	for _, e := range svc.snapshot() {
		if e.SessionID == "sid-1" {
			got = append(got, e.Type)
		}
	}
	if len(got) != len(types) {
		t.Fatalf("expected %d events for sid-1, got %d", len(types), len(got))
	}
	for i := range types {
		if got[i] != types[i] {
			t.Fatalf("event %d: got %s, want %s", i, got[i], types[i])
		}
	}
	if len(svc.snapshot()) != 2*len(types) {
		t.Fatalf("expected all events drained on Close")
	}
}

func TestDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(8, &collectingService{}, zerolog.Nop())
	first := d.shardIndex("session-abc")
	for i := 0; i < 10; i++ {
		if d.shardIndex("session-abc") != first {
			t.Fatalf("shard index must be deterministic")
		}
	}
	if first < 0 || first >= 8 {
		t.Fatalf("shard index out of range: %d", first)
	}
}

func TestDispatcher_RecordNeverBlocks(t *testing.T) {
	svc := &collectingService{block: make(chan struct{})}
	d := NewDispatcher(1, svc, zerolog.Nop())
	d.Start(context.Background())

	done := make(chan struct{})
	go func() {
		for i := 0; i < channelBuffer*2; i++ {
			d.Record(domain.AuthEvent{Type: domain.EventLoginFailed, SessionID: "sid"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Record blocked on a full queue")
	}
	close(svc.block)
	d.Close()
}

func TestDispatcher_ProcessErrorsDoNotStopWorker(t *testing.T) {
	svc := &collectingService{err: errors.New("mongo unavailable")}
	d := NewDispatcher(1, svc, zerolog.Nop())
	d.Start(context.Background())

	d.Record(domain.AuthEvent{Type: domain.EventLoginSucceeded, SessionID: "a"})
	d.Record(domain.AuthEvent{Type: domain.EventLogout, SessionID: "a"})
	d.Close()

	if n := len(svc.snapshot()); n != 2 {
		t.Fatalf("expected worker to keep going after errors, processed %d", n)
	}
}

func TestDispatcher_RecordAfterCloseIsIgnored(t *testing.T) {
	d := NewDispatcher(2, &collectingService{}, zerolog.Nop())
	d.Start(context.Background())
	d.Close()
	d.Close()

	d.Record(domain.AuthEvent{Type: domain.EventLogout, SessionID: "late"})
}

func TestDispatcher_CloseDrainsAfterStartContextCancelled(t *testing.T) {
	svc := &collectingService{}
	d := NewDispatcher(2, svc, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	cancel()
	time.Sleep(10 * time.Millisecond)
	for i := 0; i < 10; i++ {
		d.Record(domain.AuthEvent{Type: domain.EventLogout, SessionID: "sid-" + string(rune('a'+i))})
	}
	d.Close()

	if n := len(svc.snapshot()); n != 10 {
		t.Fatalf("expected all 10 events persisted after shutdown began, got %d", n)
	}
}
