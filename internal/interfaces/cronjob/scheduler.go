// Package cronjob runs the fixture import on a cron schedule.
package cronjob

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"

	"github.com/PrOLmOg/MatchMapProject/internal/platform/logging"
	"github.com/PrOLmOg/MatchMapProject/internal/usecase"
)

// Importer is satisfied by usecase.ImportService.
type Importer interface {
	Run(ctx context.Context) (usecase.ImportResult, error)
}

type Config struct {
	// Spec is a standard five-field cron expression or a descriptor such as @daily.
	Spec       string
	RunOnStart bool
	// Timeout bounds a single run.
	Timeout time.Duration
}

// ErrAlreadyRunning is returned by RunOnce while another run is in flight.
var ErrAlreadyRunning = errors.New("import already running")

type Scheduler struct {
	cron       *cron.Cron
	importer   Importer
	spec       string
	runOnStart bool
	timeout    time.Duration
	logger     *logging.Logger

	running atomic.Bool
	wg      conc.WaitGroup
}

func NewScheduler(importer Importer, cfg Config, logger *logging.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.Named("cronjob")

	spec := strings.TrimSpace(cfg.Spec)
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("parse import schedule %q: %w", spec, err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Hour
	}

	adapter := cronLogger{logger: logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(adapter),
			cron.WithChain(cron.SkipIfStillRunning(adapter)),
		),
		importer:   importer,
		spec:       spec,
		runOnStart: cfg.RunOnStart,
		timeout:    cfg.Timeout,
		logger:     logger,
	}, nil
}

// Start registers the import job and starts ticking. Runs inherit ctx, so
// cancelling it aborts an in-flight import.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() {
		s.runLogged(ctx, "schedule")
	}); err != nil {
		return fmt.Errorf("register import job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("import scheduler started", "spec", s.spec, "run_on_start", s.runOnStart)

	if s.runOnStart {
		s.wg.Go(func() {
			s.runLogged(ctx, "startup")
		})
	}
	return nil
}

// Stop stops new ticks and waits for running jobs to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.logger.Info("import scheduler stopped")
}

// RunOnce executes one import. A panic inside the importer is returned as an error.
func (s *Scheduler) RunOnce(ctx context.Context) (usecase.ImportResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		return usecase.ImportResult{}, ErrAlreadyRunning
	}
	defer s.running.Store(false)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		result usecase.ImportResult
		err    error
		pc     panics.Catcher
	)
	pc.Try(func() {
		result, err = s.importer.Run(ctx)
	})
	if recovered := pc.Recovered(); recovered != nil {
		return usecase.ImportResult{}, fmt.Errorf("import panicked: %w", recovered.AsError())
	}
	return result, err
}

func (s *Scheduler) runLogged(ctx context.Context, trigger string) {
	s.logger.InfoContext(ctx, "import run starting", "trigger", trigger)
	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.ErrorContext(ctx, "import run failed", "trigger", trigger, "error", err)
	}
}

// cronLogger adapts logging.Logger to cron.Logger.
type cronLogger struct {
	logger *logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
