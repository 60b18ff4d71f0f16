package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/PrOLmOg/MatchMapProject/external/footballdata"
	"github.com/PrOLmOg/MatchMapProject/external/opencage"
	"github.com/PrOLmOg/MatchMapProject/external/wikipedia"
	"github.com/PrOLmOg/MatchMapProject/internal/config"
	"github.com/PrOLmOg/MatchMapProject/internal/domain/competition"
	"github.com/PrOLmOg/MatchMapProject/internal/domain/match"
	"github.com/PrOLmOg/MatchMapProject/internal/infrastructure/account/jwtauth"
	"github.com/PrOLmOg/MatchMapProject/internal/interfaces/cronjob"
	"github.com/PrOLmOg/MatchMapProject/internal/interfaces/httpapi"
	idgen "github.com/PrOLmOg/MatchMapProject/internal/platform/id"
	"github.com/PrOLmOg/MatchMapProject/internal/platform/logging"
	"github.com/PrOLmOg/MatchMapProject/internal/usecase"
)

// Container holds the services shared by the API server, the scheduler and matchctl.
type Container struct {
	Competitions competition.Repository
	Matches      match.Repository
	Resolver     *usecase.StadiumResolver
	Importer     *usecase.ImportService
	MatchQuery   *usecase.MatchQueryService
	AdminMatch   *usecase.AdminMatchService

	db     *sqlx.DB
	logger *logging.Logger
}

func NewContainer(cfg config.Config, logger *logging.Logger) (*Container, error) {
	if logger == nil {
		logger = logging.Default()
	}
	clock := clockwork.NewRealClock()

	repos, err := newRepositories(cfg, clock, logger)
	if err != nil {
		return nil, err
	}

	provider := footballdata.NewClient(footballdata.ClientConfig{
		HTTPClient:     tracedHTTPClient(cfg.FootballDataTimeout),
		BaseURL:        cfg.FootballDataBaseURL,
		Token:          cfg.FootballDataToken,
		Timeout:        cfg.FootballDataTimeout,
		MaxRetries:     cfg.FootballDataMaxRetries,
		CircuitBreaker: cfg.FootballDataCircuit,
		Clock:          clock,
		Logger:         logger,
	})
	wiki := wikipedia.NewClient(wikipedia.ClientConfig{
		HTTPClient:     tracedHTTPClient(cfg.ResolverTimeout),
		APIURL:         cfg.WikiAPIURL,
		UserAgent:      cfg.WikiUserAgent,
		RatePerSec:     cfg.WikiRatePerSec,
		Timeout:        cfg.ResolverTimeout,
		CircuitBreaker: cfg.WikiCircuit,
		Clock:          clock,
		Logger:         logger,
	})
	geocoder := opencage.NewClient(opencage.ClientConfig{
		BaseURL:        cfg.OpenCageBaseURL,
		APIKey:         cfg.OpenCageAPIKey,
		RatePerSec:     cfg.OpenCageRatePerSec,
		Timeout:        cfg.ResolverTimeout,
		CircuitBreaker: cfg.OpenCageCircuit,
		Clock:          clock,
		Logger:         logger,
	})

	resolver := usecase.NewStadiumResolver(wiki, geocoder, usecase.StadiumResolverConfig{
		Timeout:  cfg.ResolverTimeout,
		CacheTTL: cfg.ResolverCacheTTL,
		Clock:    clock,
	}, logger.Named("resolver"))

	importer := usecase.NewImportService(provider, repos.competitions, repos.matches, resolver, usecase.ImportConfig{
		Horizon: cfg.ImportHorizon,
		Workers: cfg.ImportWorkers,
		Clock:   clock,
	}, logger.Named("import"))

	return &Container{
		Competitions: repos.competitions,
		Matches:      repos.matches,
		Resolver:     resolver,
		Importer:     importer,
		MatchQuery:   usecase.NewMatchQueryService(repos.matches, clock, logger),
		AdminMatch: usecase.NewAdminMatchService(
			repos.matches,
			repos.competitions,
			resolver,
			idgen.NewRandomGenerator("adm_"),
			idgen.NewRandomGenerator("cmp_"),
			logger,
		),
		db:     repos.db,
		logger: logger,
	}, nil
}

// Close releases the database pool, if one was opened.
func (c *Container) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

func NewHTTPServer(cfg config.Config, c *Container, logger *logging.Logger) (*http.Server, error) {
	if err := cfg.ValidateAPI(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Default()
	}

	verifier := jwtauth.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer, clockwork.NewRealClock(), logger.Named("jwtauth"))
	handler := httpapi.NewHandler(c.MatchQuery, c.AdminMatch, logger)
	router := httpapi.NewRouter(handler, verifier, logger, cfg.SwaggerEnabled, cfg.CORSAllowedOrigins)

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	if server.Addr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	return server, nil
}

func NewImportScheduler(cfg config.Config, c *Container, logger *logging.Logger) (*cronjob.Scheduler, error) {
	return cronjob.NewScheduler(c.Importer, cronjob.Config{
		Spec:       cfg.ImportSchedule,
		RunOnStart: cfg.ImportRunOnStart,
		Timeout:    cfg.ImportTimeout,
	}, logger)
}

func tracedHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}
