package opencage

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/PrOLmOg/MatchMapProject/internal/platform/logging"
	"github.com/PrOLmOg/MatchMapProject/internal/platform/resilience"
	"github.com/PrOLmOg/MatchMapProject/internal/usecase"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, mutate ...func(*ClientConfig)) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := ClientConfig{
		BaseURL: server.URL,
		APIKey:  "test-key",
		Timeout: 2 * time.Second,
		Logger:  logging.NewNop(),
	}
	for _, fn := range mutate {
		fn(&cfg)
	}
	return NewClient(cfg)
}

func TestGeocode_TopResult(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if q.Get("q") != "Emirates Stadium" || q.Get("key") != "test-key" || q.Get("limit") != "1" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		_ = jsoniter.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{{
				"confidence": 9,
				"formatted":  "Emirates Stadium, London N5 1BU, United Kingdom",
				"geometry":   map[string]any{"lat": 51.5549, "lng": -0.108436},
			}},
			"status":        map[string]any{"code": 200, "message": "OK"},
			"total_results": 1,
		})
	})

	point, ok, err := client.Geocode(context.Background(), "Emirates Stadium")
	if err != nil || !ok {
		t.Fatalf("expected hit, ok=%v err=%v", ok, err)
	}
	if point.Lat != 51.5549 || point.Lon != -0.108436 {
		t.Fatalf("unexpected point: %+v", point)
	}
}

func TestGeocode_NoResultsIsMiss(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = jsoniter.NewEncoder(w).Encode(map[string]any{"results": []any{}, "total_results": 0})
	})

	_, ok, err := client.Geocode(context.Background(), "Atlantis Arena")
	if err != nil || ok {
		t.Fatalf("expected definitive miss, ok=%v err=%v", ok, err)
	}
}

func TestGeocode_MissingKeySkipsRequest(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
	}, func(cfg *ClientConfig) { cfg.APIKey = "" })

	_, _, err := client.Geocode(context.Background(), "Anfield")
	if !errors.Is(err, usecase.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got=%v", err)
	}
	if calls.Load() != 0 {
		t.Fatalf("expected no upstream call, got=%d", calls.Load())
	}
}

func TestGeocode_StatusMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		want   error
	}{
		{name: "invalid key", status: http.StatusUnauthorized, want: usecase.ErrUnauthorized},
		{name: "quota", status: http.StatusPaymentRequired, want: usecase.ErrDependencyUnavailable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
			})
			_, _, err := client.Geocode(context.Background(), "Anfield")
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got=%v", tc.want, err)
			}
		})
	}
}

func TestGeocode_RateLimitTripsBreaker(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}, func(cfg *ClientConfig) {
		cfg.CircuitBreaker = resilience.CircuitBreakerConfig{Enabled: true, FailureThreshold: 1, OpenTimeout: time.Hour}
	})

	if _, _, err := client.Geocode(context.Background(), "Anfield"); err == nil {
		t.Fatalf("expected failure")
	}
	_, _, err := client.Geocode(context.Background(), "Anfield")
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected open breaker, got=%v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one upstream call, got=%d", calls.Load())
	}
}
