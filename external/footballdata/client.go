package footballdata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/jonboulle/clockwork"
	"github.com/valyala/bytebufferpool"

	"github.com/PrOLmOg/MatchMapProject/internal/platform/logging"
	"github.com/PrOLmOg/MatchMapProject/internal/platform/resilience"
	"github.com/PrOLmOg/MatchMapProject/internal/usecase"
)

const (
	defaultBaseURL      = "https://api.football-data.org/v4"
	defaultRetryBackoff = time.Second
	maxResponseBytes    = 6 << 20
)

var errTransient = crerr.New("football-data transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Token          string
	Timeout        time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
	Clock          clockwork.Clock
	Logger         *logging.Logger
}

// Client reads competitions and fixtures from football-data.org.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	token        string
	maxRetries   int
	retryBackoff time.Duration
	clock        clockwork.Clock
	logger       *logging.Logger
	breaker      *resilience.CircuitBreaker
	flight       resilience.SingleFlight[[]byte]
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = defaultRetryBackoff
	}

	return &Client{
		httpClient:   httpClient,
		baseURL:      baseURL,
		token:        strings.TrimSpace(cfg.Token),
		maxRetries:   max(cfg.MaxRetries, 0),
		retryBackoff: backoff,
		clock:        clock,
		logger:       logger.Named("footballdata"),
		breaker:      resilience.NewCircuitBreaker(cfg.CircuitBreaker, clock),
	}
}

func (c *Client) ListCompetitions(ctx context.Context) ([]usecase.ExternalCompetition, error) {
	var payload competitionsEnvelope
	if err := c.getJSON(ctx, "/competitions", &payload); err != nil {
		return nil, fmt.Errorf("list competitions: %w", err)
	}

	out := make([]usecase.ExternalCompetition, 0, len(payload.Competitions))
	for _, item := range payload.Competitions {
		out = append(out, usecase.ExternalCompetition{
			ExternalID: item.ID,
			Name:       strings.TrimSpace(item.Name),
		})
	}
	return out, nil
}

// ListMatches returns every fixture the provider lists for a competition.
// Ids that are not provider ids (admin-created competitions) report usecase.ErrNotFound.
func (c *Client) ListMatches(ctx context.Context, competitionID string) ([]usecase.ExternalMatch, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(competitionID), 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("%w: competition id=%q is not a provider id", usecase.ErrNotFound, competitionID)
	}

	var payload matchesEnvelope
	path := "/competitions/" + strconv.FormatInt(id, 10) + "/matches"
	if err := c.getJSON(ctx, path, &payload); err != nil {
		return nil, fmt.Errorf("list matches competition_id=%d: %w", id, err)
	}

	out := make([]usecase.ExternalMatch, 0, len(payload.Matches))
	for _, item := range payload.Matches {
		mapped, ok := mapMatch(item, id)
		if !ok {
			c.logger.DebugContext(ctx, "skip incomplete fixture", "competition_id", id, "match_id", item.ID)
			continue
		}
		out = append(out, mapped)
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, target any) error {
	if c.token == "" {
		return fmt.Errorf("%w: FOOTBALL_DATA_TOKEN is empty", usecase.ErrMissingCredential)
	}
	if err := c.breaker.Allow(); err != nil {
		c.logger.WarnContext(ctx, "football-data circuit breaker rejected request", "state", c.breaker.State())
		return fmt.Errorf("%w: fixtures provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
	}

	raw, err, _ := c.flight.Do(path, func() ([]byte, error) {
		raw, reqErr := c.executeRequest(ctx, c.baseURL+path)
		c.breaker.Observe(reqErr, errTransient)
		return raw, reqErr
	})
	if err != nil {
		return err
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode provider payload: %w", err)
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		raw, err := c.doOnce(ctx, fullURL)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if !errors.Is(err, errTransient) || attempt == c.maxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-c.clock.After(time.Duration(attempt+1) * c.retryBackoff):
		}
	}

	c.logger.WarnContext(ctx, "football-data request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func (c *Client) doOnce(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Auth-Token", c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, crerr.Wrapf(errTransient, "send request: %s", redactToken(err.Error(), c.token))
	}
	defer resp.Body.Close()

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if _, err := buf.ReadFrom(io.LimitReader(resp.Body, maxResponseBytes)); err != nil {
		return nil, crerr.Wrapf(errTransient, "read response body: %v", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return append([]byte(nil), buf.B...), nil
	}
	return nil, statusError(resp.StatusCode, buf.B)
}

func statusError(status int, body []byte) error {
	message := abbreviateBody(body)
	var payload errorEnvelope
	if err := sonic.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		message = payload.Message
	}

	switch {
	case status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
		return crerr.Wrapf(errTransient, "provider status=%d: %s", status, message)
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: provider status=%d: %s", usecase.ErrNotFound, status, message)
	case status == http.StatusUnauthorized:
		return fmt.Errorf("%w: provider rejected token: %s", usecase.ErrUnauthorized, message)
	case status == http.StatusForbidden:
		// Free tiers answer 403 for competitions outside the plan.
		return fmt.Errorf("%w: provider status=%d: %s", usecase.ErrForbidden, status, message)
	default:
		return fmt.Errorf("provider status=%d: %s", status, message)
	}
}

func mapMatch(item matchEntry, fallbackCompetitionID int64) (usecase.ExternalMatch, bool) {
	home := strings.TrimSpace(item.HomeTeam.Name)
	away := strings.TrimSpace(item.AwayTeam.Name)
	if item.ID <= 0 || home == "" || away == "" {
		return usecase.ExternalMatch{}, false
	}

	kickoff, err := time.Parse(time.RFC3339, strings.TrimSpace(item.UTCDate))
	if err != nil {
		return usecase.ExternalMatch{}, false
	}

	competitionID := item.Competition.ID
	if competitionID <= 0 {
		competitionID = fallbackCompetitionID
	}

	return usecase.ExternalMatch{
		ExternalID:    item.ID,
		CompetitionID: competitionID,
		HomeTeam:      home,
		AwayTeam:      away,
		KickoffAt:     kickoff.UTC(),
		Status:        strings.ToUpper(strings.TrimSpace(item.Status)),
	}, true
}

func redactToken(value, token string) string {
	if token == "" {
		return value
	}
	return strings.ReplaceAll(value, token, "REDACTED")
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
