package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/PrOLmOg/MatchMapProject/internal/app"
	"github.com/PrOLmOg/MatchMapProject/internal/config"
	"github.com/PrOLmOg/MatchMapProject/internal/domain/user"
	"github.com/PrOLmOg/MatchMapProject/internal/infrastructure/account/jwtauth"
	"github.com/PrOLmOg/MatchMapProject/internal/observability"
	"github.com/PrOLmOg/MatchMapProject/internal/platform/logging"
)

func newRootCmd(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:          "matchctl",
		Short:        "MatchMap operator CLI",
		SilenceUsage: true,
	}
	root.SetOut(out)

	root.AddCommand(importCmd())
	root.AddCommand(scheduleCmd())
	root.AddCommand(tokenCmd())
	return root
}

// session is the shared setup of the import commands.
type session struct {
	cfg       config.Config
	logger    *logging.Logger
	container *app.Container
	shutdown  []func(context.Context) error
}

func newSession(component string) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := logging.NewJSON(cfg.LogLevel).With("service", cfg.ServiceName, "env", cfg.AppEnv, "component", component)
	logging.SetDefault(logger)

	rt := &session{cfg: cfg, logger: logger}

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init uptrace: %w", err)
	}
	rt.shutdown = append(rt.shutdown, shutdownTracing)

	stopProfiler, err := observability.InitPyroscope(cfg, component, logger)
	if err != nil {
		return nil, fmt.Errorf("init pyroscope: %w", err)
	}
	rt.shutdown = append(rt.shutdown, func(context.Context) error { return stopProfiler() })

	container, err := app.NewContainer(cfg, logger)
	if err != nil {
		rt.close()
		return nil, err
	}
	rt.container = container
	return rt, nil
}

func (rt *session) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := rt.container.Close(); err != nil {
		rt.logger.Warn("close storage", "error", err)
	}
	for i := len(rt.shutdown) - 1; i >= 0; i-- {
		if err := rt.shutdown[i](ctx); err != nil {
			rt.logger.Warn("observability shutdown", "error", err)
		}
	}
	_ = rt.logger.Sync()
}

func importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Sync competitions and upcoming matches once, then exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := newSession("import")
			if err != nil {
				return err
			}
			defer rt.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			ctx, cancel := context.WithTimeout(ctx, rt.cfg.ImportTimeout)
			defer cancel()

			result, err := rt.container.Importer.Run(ctx)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
}

func scheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Run the import on IMPORT_SCHEDULE until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := newSession("scheduler")
			if err != nil {
				return err
			}
			defer rt.close()

			scheduler, err := app.NewImportScheduler(rt.cfg, rt.container, rt.logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := scheduler.Start(ctx); err != nil {
				return err
			}
			<-ctx.Done()
			scheduler.Stop()
			return nil
		},
	}
}

type tokenOutput struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

func tokenCmd() *cobra.Command {
	var (
		username string
		admin    bool
		ttl      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed bearer token for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.ValidateAPI(); err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = cfg.JWTTokenTTL
			}

			principal := user.Principal{Username: username, IsAdmin: admin}
			issuer := jwtauth.NewIssuer(cfg.JWTSecret, cfg.JWTIssuer, ttl, clockwork.NewRealClock())
			token, expiresAt, err := issuer.Issue(principal)
			if err != nil {
				return err
			}

			return writeJSON(cmd.OutOrStdout(), tokenOutput{
				Token:     token,
				Username:  principal.Username,
				Role:      principal.Role(),
				ExpiresAt: expiresAt,
			})
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "username carried in the token")
	cmd.Flags().BoolVar(&admin, "admin", false, "grant admin routes")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default JWT_TOKEN_TTL)")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	raw, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(raw))
	return err
}
