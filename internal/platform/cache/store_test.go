package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestStore_GetOrLoad_UsesSingleFlight(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var calls atomic.Int32

	loader := func(context.Context) (any, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return "Old Trafford", nil
	}

	const workers = 32
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	errCh := make(chan error, workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			v, err := store.GetOrLoad(context.Background(), "stadium:manchester united", loader)
			if err != nil {
				errCh <- err
				return
			}
			if got, _ := v.(string); got != "Old Trafford" {
				errCh <- errUnexpectedValue
			}
		}()
	}

	close(start)
	wg.Wait()
	close(errCh)
	for err := range errCh {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("loader called %d times, want 1", got)
	}
}

func TestStore_GetOrLoad_DoesNotCacheErrors(t *testing.T) {
	t.Parallel()

	store := NewStore(time.Minute)
	var calls atomic.Int32
	failing := func(context.Context) (any, error) {
		calls.Add(1)
		return nil, errUnexpectedValue
	}

	for i := 0; i < 2; i++ {
		if _, err := store.GetOrLoad(context.Background(), "k", failing); !errors.Is(err, errUnexpectedValue) {
			t.Fatalf("expected loader error, got %v", err)
		}
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("loader called %d times, want 2", got)
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store after failures")
	}
}

func TestStore_EntriesExpireWithClock(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClock()
	store := NewStore(time.Hour, WithClock(clock))
	ctx := context.Background()

	store.Set(ctx, "geo:emirates stadium", "51.55,-0.10")
	if _, ok := store.Get(ctx, "geo:emirates stadium"); !ok {
		t.Fatalf("expected fresh entry")
	}

	clock.Advance(59 * time.Minute)
	if _, ok := store.Get(ctx, "geo:emirates stadium"); !ok {
		t.Fatalf("entry expired too early")
	}

	clock.Advance(time.Minute)
	if _, ok := store.Get(ctx, "geo:emirates stadium"); ok {
		t.Fatalf("expected entry to expire at ttl")
	}
}

func TestStore_DeletePrefix(t *testing.T) {
	t.Parallel()

	store := NewStore(0)
	ctx := context.Background()
	store.Set(ctx, "competition:name:Premier League", "c1")
	store.Set(ctx, "competition:name:La Liga", "c2")
	store.Set(ctx, "stadium:arsenal", "Emirates Stadium")

	store.DeletePrefix(ctx, "competition:")
	if store.Len() != 1 {
		t.Fatalf("expected only stadium entry to remain, got %d", store.Len())
	}
}

var errUnexpectedValue = errors.New("unexpected loaded value")
