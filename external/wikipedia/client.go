package wikipedia

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/jonboulle/clockwork"
	"github.com/valyala/bytebufferpool"
	"golang.org/x/time/rate"

	"github.com/PrOLmOg/MatchMapProject/internal/domain/stadium"
	"github.com/PrOLmOg/MatchMapProject/internal/platform/logging"
	"github.com/PrOLmOg/MatchMapProject/internal/platform/resilience"
	"github.com/PrOLmOg/MatchMapProject/internal/usecase"
)

const (
	defaultAPIURL    = "https://en.wikipedia.org/w/api.php"
	defaultUserAgent = "MatchMap/1.0 (stadium resolver)"
	maxResponseBytes = 4 << 20
)

var errTransient = crerr.New("wikipedia transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	APIURL         string
	UserAgent      string
	RatePerSec     float64
	Timeout        time.Duration
	CircuitBreaker resilience.CircuitBreakerConfig
	Clock          clockwork.Clock
	Logger         *logging.Logger
}

// Client searches articles and reads infobox rows through the MediaWiki action API.
type Client struct {
	httpClient *http.Client
	apiURL     string
	userAgent  string
	limiter    *rate.Limiter
	breaker    *resilience.CircuitBreaker
	logger     *logging.Logger
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 10 * time.Second
	}

	apiURL := strings.TrimSpace(cfg.APIURL)
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}

	return &Client{
		httpClient: httpClient,
		apiURL:     apiURL,
		userAgent:  userAgent,
		limiter:    rate.NewLimiter(limit, 1),
		breaker:    resilience.NewCircuitBreaker(cfg.CircuitBreaker, cfg.Clock),
		logger:     logger.Named("wikipedia"),
	}
}

type searchEnvelope struct {
	Query struct {
		Search []struct {
			Title string `json:"title"`
		} `json:"search"`
	} `json:"query"`
	Error *apiError `json:"error"`
}

type parseEnvelope struct {
	Parse struct {
		Title string `json:"title"`
		Text  struct {
			HTML string `json:"*"`
		} `json:"text"`
	} `json:"parse"`
	Error *apiError `json:"error"`
}

type apiError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

// SearchFirstTitle returns the title of the top full-text search hit.
func (c *Client) SearchFirstTitle(ctx context.Context, query string) (string, bool, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "search")
	params.Set("srsearch", query)
	params.Set("srlimit", "1")
	params.Set("format", "json")

	var payload searchEnvelope
	if err := c.getJSON(ctx, params, &payload); err != nil {
		return "", false, fmt.Errorf("search %q: %w", query, err)
	}
	if payload.Error != nil {
		return "", false, fmt.Errorf("search %q: api error %s: %s", query, payload.Error.Code, payload.Error.Info)
	}
	if len(payload.Query.Search) == 0 {
		return "", false, nil
	}

	title := strings.TrimSpace(payload.Query.Search[0].Title)
	return title, title != "", nil
}

// FetchInfobox renders a page and returns the header/value rows of its infoboxes.
// A missing page or a page without an infobox yields no rows.
func (c *Client) FetchInfobox(ctx context.Context, title string) ([]stadium.InfoboxRow, error) {
	params := url.Values{}
	params.Set("action", "parse")
	params.Set("page", title)
	params.Set("prop", "text")
	params.Set("redirects", "1")
	params.Set("format", "json")

	var payload parseEnvelope
	if err := c.getJSON(ctx, params, &payload); err != nil {
		return nil, fmt.Errorf("parse page %q: %w", title, err)
	}
	if payload.Error != nil {
		if payload.Error.Code == "missingtitle" {
			return nil, nil
		}
		return nil, fmt.Errorf("parse page %q: api error %s: %s", title, payload.Error.Code, payload.Error.Info)
	}

	rows, err := parseInfobox(payload.Parse.Text.HTML)
	if err != nil {
		return nil, fmt.Errorf("parse page %q html: %w", title, err)
	}
	return rows, nil
}

func parseInfobox(html string) ([]stadium.InfoboxRow, error) {
	if strings.TrimSpace(html) == "" {
		return nil, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var rows []stadium.InfoboxRow
	doc.Find(".infobox tr").Each(func(_ int, tr *goquery.Selection) {
		header := tr.Find("th").First()
		cell := tr.Find("td").First()
		if header.Length() == 0 || cell.Length() == 0 {
			return
		}
		// Line breaks separate the stadium from capacity notes.
		cell.Find("br").ReplaceWithHtml("\n")
		rows = append(rows, stadium.InfoboxRow{
			Header: strings.TrimSpace(header.Text()),
			Value:  strings.TrimSpace(cell.Text()),
		})
	})
	return rows, nil
}

func (c *Client) getJSON(ctx context.Context, params url.Values, target any) error {
	if err := c.breaker.Allow(); err != nil {
		c.logger.WarnContext(ctx, "wikipedia circuit breaker rejected request", "state", c.breaker.State())
		return fmt.Errorf("%w: wikipedia is temporarily unavailable", usecase.ErrDependencyUnavailable)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	raw, err := c.doOnce(ctx, c.apiURL+"?"+params.Encode())
	c.breaker.Observe(err, errTransient)
	if err != nil {
		return err
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode wikipedia payload: %w", err)
	}
	return nil
}

func (c *Client) doOnce(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, crerr.Wrapf(errTransient, "send request: %v", err)
	}
	defer resp.Body.Close()

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if _, err := buf.ReadFrom(io.LimitReader(resp.Body, maxResponseBytes)); err != nil {
		return nil, crerr.Wrapf(errTransient, "read response body: %v", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return bytes.Clone(buf.B), nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return nil, crerr.Wrapf(errTransient, "wikipedia status=%d", resp.StatusCode)
	default:
		return nil, fmt.Errorf("wikipedia status=%d", resp.StatusCode)
	}
}
