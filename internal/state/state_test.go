package state

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/dropDatabas3/socialgate/internal/cache"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	return New(cache.NewMemory("test"), time.Minute)
}

func TestPutTake_RoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	st, err := s.Put(ctx, Entry{RedirectURI: "https://app.example/cb", CodeVerifier: "ver"})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	e, err := s.Take(ctx, st)
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	if e.RedirectURI != "https://app.example/cb" || e.CodeVerifier != "ver" {
		t.Fatalf("entry: %+v", e)
	}
}

func TestState_KeyIsOpaqueAlphanumeric(t *testing.T) {
	s := newStore(t)
	st, err := s.Put(context.Background(), Entry{RedirectURI: "https://a/cb"})
	if err != nil {
		t.Fatal(err)
	}
	if len(st) < 32 {
		t.Fatalf("state too short: %d", len(st))
	}
	if !regexp.MustCompile(`^[0-9a-zA-Z]+$`).MatchString(st) {
		t.Fatalf("state not alphanumeric: %q", st)
	}
}

func TestTake_SingleUse(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	st, _ := s.Put(ctx, Entry{RedirectURI: "https://a/cb"})

	if _, err := s.Take(ctx, st); err != nil {
		t.Fatalf("first Take: %v", err)
	}
	// repetido dentro del TTL: siempre NotFound
	for i := 0; i < 3; i++ {
		if _, err := s.Take(ctx, st); err != ErrNotFound {
			t.Fatalf("take %d: want ErrNotFound, got %v", i+2, err)
		}
	}
}

func TestTake_UnknownState(t *testing.T) {
	s := newStore(t)
	if _, err := s.Take(context.Background(), "deadbeefdeadbeefdeadbeefdeadbeef"); err != ErrNotFound {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestTake_Expired(t *testing.T) {
	s := New(cache.NewMemory(""), 10*time.Millisecond)
	ctx := context.Background()

	st, _ := s.Put(ctx, Entry{RedirectURI: "https://a/cb"})
	time.Sleep(30 * time.Millisecond)

	if _, err := s.Take(ctx, st); err != ErrNotFound {
		t.Fatalf("want ErrNotFound after expiry, got %v", err)
	}
}
