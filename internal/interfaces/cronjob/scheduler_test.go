package cronjob

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PrOLmOg/MatchMapProject/internal/platform/logging"
	"github.com/PrOLmOg/MatchMapProject/internal/usecase"
)

type importerFunc func(ctx context.Context) (usecase.ImportResult, error)

func (f importerFunc) Run(ctx context.Context) (usecase.ImportResult, error) {
	return f(ctx)
}

func TestNewScheduler_RejectsInvalidSpec(t *testing.T) {
	t.Parallel()

	noop := importerFunc(func(context.Context) (usecase.ImportResult, error) { return usecase.ImportResult{}, nil })
	for _, spec := range []string{"", "every day", "* * *"} {
		if _, err := NewScheduler(noop, Config{Spec: spec}, logging.NewNop()); err == nil {
			t.Fatalf("expected error for spec %q", spec)
		}
	}
	for _, spec := range []string{"@daily", "0 3 * * *", "@every 6h"} {
		if _, err := NewScheduler(noop, Config{Spec: spec}, logging.NewNop()); err != nil {
			t.Fatalf("spec %q: unexpected error %v", spec, err)
		}
	}
}

func TestScheduler_RunOnceRecoversPanic(t *testing.T) {
	t.Parallel()

	boom := importerFunc(func(context.Context) (usecase.ImportResult, error) {
		panic("provider exploded")
	})
	s, err := NewScheduler(boom, Config{Spec: "@daily"}, logging.NewNop())
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}

	_, err = s.RunOnce(context.Background())
	if err == nil || !strings.Contains(err.Error(), "provider exploded") {
		t.Fatalf("expected recovered panic as error, got %v", err)
	}

	// The guard is released after a panic.
	if _, err := s.RunOnce(context.Background()); err == nil || errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected second run to execute, got %v", err)
	}
}

func TestScheduler_RunOnceSkipsOverlap(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	started := make(chan struct{})
	slow := importerFunc(func(context.Context) (usecase.ImportResult, error) {
		close(started)
		<-release
		return usecase.ImportResult{Inserted: 2}, nil
	})
	s, err := NewScheduler(slow, Config{Spec: "@daily"}, logging.NewNop())
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}

	done := make(chan usecase.ImportResult, 1)
	go func() {
		result, _ := s.RunOnce(context.Background())
		done <- result
	}()
	<-started

	if _, err := s.RunOnce(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}

	close(release)
	if result := <-done; result.Inserted != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestScheduler_RunOnceAppliesTimeout(t *testing.T) {
	t.Parallel()

	waiter := importerFunc(func(ctx context.Context) (usecase.ImportResult, error) {
		<-ctx.Done()
		return usecase.ImportResult{}, ctx.Err()
	})
	s, err := NewScheduler(waiter, Config{Spec: "@daily", Timeout: 20 * time.Millisecond}, logging.NewNop())
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}

	if _, err := s.RunOnce(context.Background()); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestScheduler_StartRunsOnStartAndStopWaits(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	counting := importerFunc(func(context.Context) (usecase.ImportResult, error) {
		time.Sleep(10 * time.Millisecond)
		calls.Add(1)
		return usecase.ImportResult{}, nil
	})
	s, err := NewScheduler(counting, Config{Spec: "@daily", RunOnStart: true}, logging.NewNop())
	if err != nil {
		t.Fatalf("new scheduler: %v", err)
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	s.Stop()

	if got := calls.Load(); got != 1 {
		t.Fatalf("expected startup run to finish before Stop returned, got %d calls", got)
	}
}
