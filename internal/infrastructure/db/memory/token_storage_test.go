package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/activity-tracker/tracker-web/internal/core/domain"
)

func TestTokenStorage_SaveLoadDelete(t *testing.T) {
	s := NewTokenStorage()
	ctx := context.Background()

	if pair, err := s.Load(ctx, "a"); err != nil || !pair.Empty() {
		t.Fatalf("expected an empty pair, got %+v %v", pair, err)
	}

	want := domain.TokenPair{AccessToken: "acc", RefreshToken: "ref"}
	if err := s.Save(ctx, "a", want); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got, _ := s.Load(ctx, "a"); got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
	if got, _ := s.Load(ctx, "b"); !got.Empty() {
		t.Fatalf("expected sessions to be isolated, got %+v", got)
	}

	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("expected delete to be idempotent: %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("expected no sessions, got %d", s.Len())
	}
}

func TestTokenStorage_ConcurrentWritesKeepPairsWhole(t *testing.T) {
	s := NewTokenStorage()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tok := string(rune('a' + i%26))
			_ = s.Save(ctx, "shared", domain.TokenPair{AccessToken: tok, RefreshToken: tok})
		}(i)
	}
	wg.Wait()

	pair, _ := s.Load(ctx, "shared")
	if pair.AccessToken != pair.RefreshToken {
		t.Fatalf("expected a whole pair, got %+v", pair)
	}
}
