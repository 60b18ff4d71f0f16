package opencage

import (
	"context"
	"fmt"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/jonboulle/clockwork"
	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"

	"github.com/PrOLmOg/MatchMapProject/internal/domain/stadium"
	"github.com/PrOLmOg/MatchMapProject/internal/platform/logging"
	"github.com/PrOLmOg/MatchMapProject/internal/platform/resilience"
	"github.com/PrOLmOg/MatchMapProject/internal/usecase"
)

const defaultBaseURL = "https://api.opencagedata.com/geocode/v1"

var errTransient = crerr.New("opencage transient failure")

type ClientConfig struct {
	BaseURL        string
	APIKey         string
	RatePerSec     float64
	Timeout        time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
	Clock          clockwork.Clock
	Logger         *logging.Logger
}

// Client forward-geocodes place names with the OpenCage JSON API.
type Client struct {
	http     *fasthttp.Client
	endpoint string
	apiKey   string
	timeout  time.Duration
	limiter  *rate.Limiter
	breaker  *resilience.CircuitBreaker
	logger   *logging.Logger
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}

	return &Client{
		http: &fasthttp.Client{
			Name:                "matchmap-geocoder",
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: time.Minute,
		},
		endpoint: baseURL + "/json",
		apiKey:   strings.TrimSpace(cfg.APIKey),
		timeout:  timeout,
		limiter:  rate.NewLimiter(limit, 1),
		breaker:  resilience.NewCircuitBreaker(cfg.CircuitBreaker, cfg.Clock),
		logger:   logger.Named("opencage"),
	}
}

type geocodeEnvelope struct {
	Results []struct {
		Confidence int `json:"confidence"`
		Geometry   struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"geometry"`
		Formatted string `json:"formatted"`
	} `json:"results"`
	Status struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"status"`
	TotalResults int `json:"total_results"`
}

// Geocode returns the top result for query. No results is a definitive miss.
func (c *Client) Geocode(ctx context.Context, query string) (stadium.Coordinates, bool, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return stadium.Coordinates{}, false, nil
	}
	if c.apiKey == "" {
		return stadium.Coordinates{}, false, fmt.Errorf("%w: OPENCAGE_API_KEY is empty", usecase.ErrMissingCredential)
	}
	if err := c.breaker.Allow(); err != nil {
		c.logger.WarnContext(ctx, "opencage circuit breaker rejected request", "state", c.breaker.State())
		return stadium.Coordinates{}, false, fmt.Errorf("%w: geocoder is temporarily unavailable", usecase.ErrDependencyUnavailable)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return stadium.Coordinates{}, false, fmt.Errorf("rate limit wait: %w", err)
	}

	raw, err := c.fetch(ctx, query)
	c.breaker.Observe(err, errTransient)
	if err != nil {
		return stadium.Coordinates{}, false, fmt.Errorf("geocode %q: %w", query, err)
	}

	var payload geocodeEnvelope
	if err := sonic.Unmarshal(raw, &payload); err != nil {
		return stadium.Coordinates{}, false, fmt.Errorf("decode geocode payload: %w", err)
	}
	if len(payload.Results) == 0 {
		return stadium.Coordinates{}, false, nil
	}

	top := payload.Results[0]
	c.logger.DebugContext(ctx, "geocoded", "query", query, "formatted", top.Formatted, "confidence", top.Confidence)
	return stadium.Coordinates{Lat: top.Geometry.Lat, Lon: top.Geometry.Lng}, true, nil
}

func (c *Client) fetch(ctx context.Context, query string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.endpoint)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	args := req.URI().QueryArgs()
	args.Add("q", query)
	args.Add("key", c.apiKey)
	args.Add("limit", "1")
	args.Add("no_annotations", "1")

	deadline := time.Now().Add(c.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, crerr.Wrapf(errTransient, "send request: %s", strings.ReplaceAll(err.Error(), c.apiKey, "REDACTED"))
	}

	status := resp.StatusCode()
	switch {
	case status == fasthttp.StatusOK:
		return append([]byte(nil), resp.Body()...), nil
	case status == fasthttp.StatusTooManyRequests || status >= fasthttp.StatusInternalServerError:
		return nil, crerr.Wrapf(errTransient, "geocoder status=%d", status)
	case status == fasthttp.StatusUnauthorized || status == fasthttp.StatusForbidden:
		return nil, fmt.Errorf("%w: geocoder rejected api key status=%d", usecase.ErrUnauthorized, status)
	case status == fasthttp.StatusPaymentRequired:
		// Daily quota exhausted; retrying today cannot succeed.
		return nil, fmt.Errorf("%w: geocoder quota exceeded", usecase.ErrDependencyUnavailable)
	default:
		return nil, fmt.Errorf("geocoder status=%d", status)
	}
}
