package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"shiftsync/internal/app"
	"shiftsync/internal/config"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "shiftsync",
		Short:         "Workforce time tracking with spreadsheet-backed sync",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
			slog.SetDefault(slog.New(handler))
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newSyncCommand())
	root.AddCommand(newServeCommand())
	root.AddCommand(newClockInCommand())
	root.AddCommand(newClockOutCommand())
	return root
}

func newApp(ctx context.Context) (*app.App, config.Config, *slog.Logger, error) {
	logger := slog.Default()
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		return nil, cfg, nil, err
	}
	application, err := app.New(ctx, logger, cfg)
	if err != nil {
		logger.Error("failed to initialize app", slog.String("error", err.Error()))
		return nil, cfg, nil, err
	}
	return application, cfg, logger, nil
}

func newSyncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run a single pull/merge/push cycle and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			application, _, logger, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer application.Close()

			res, err := application.SyncOnce(ctx)
			if err != nil {
				logger.Error("sync failed",
					slog.String("result", res.String()),
					slog.String("error", err.Error()),
				)
				return err
			}
			logger.Info("sync completed")
			return nil
		},
	}
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP trigger server, optionally syncing on an interval",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			application, cfg, logger, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer application.Close()

			srv := application.HTTPServer(cfg.HTTP.Addr)
			errCh := make(chan error, 1)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			var tick <-chan time.Time
			if cfg.Sync.Interval > 0 {
				ticker := time.NewTicker(cfg.Sync.Interval)
				defer ticker.Stop()
				tick = ticker.C
				logger.Info("starting periodic sync", slog.Duration("interval", cfg.Sync.Interval))
			}

			for {
				select {
				case <-ctx.Done():
					logger.Info("shutting down")
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					return srv.Shutdown(shutdownCtx)
				case err := <-errCh:
					return err
				case <-tick:
					if _, err := application.SyncOnce(ctx); err != nil {
						logger.Error("periodic sync failed", slog.String("error", err.Error()))
					}
				}
			}
		},
	}
}

func newClockInCommand() *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "clock-in <employee-id> [employee-id...]",
		Short: "Open a shift for one or more employees",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			atTime, err := parseAtFlag(at)
			if err != nil {
				return err
			}
			application, _, logger, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer application.Close()

			if err := application.ClockIn(cmd.Context(), args, atTime); err != nil {
				logger.Error("clock-in failed", slog.String("error", err.Error()))
				return err
			}
			logger.Info("clock-in recorded", slog.String("employees", strings.Join(args, ",")))
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "shift start as RFC3339 (default: now)")
	return cmd
}

func newClockOutCommand() *cobra.Command {
	var (
		at           string
		breakMinutes int
	)
	cmd := &cobra.Command{
		Use:   "clock-out <entry-id>",
		Short: "Close an open shift",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			atTime, err := parseAtFlag(at)
			if err != nil {
				return err
			}
			if breakMinutes < 0 {
				return fmt.Errorf("--break must be >= 0")
			}
			application, _, logger, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer application.Close()

			if err := application.ClockOut(cmd.Context(), args[0], atTime, breakMinutes); err != nil {
				logger.Error("clock-out failed", slog.String("error", err.Error()))
				return err
			}
			logger.Info("clock-out recorded", slog.String("entry", args[0]))
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "shift end as RFC3339 (default: now)")
	cmd.Flags().IntVar(&breakMinutes, "break", 0, "break minutes to deduct")
	return cmd
}

func parseAtFlag(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --at, expected RFC3339: %w", err)
	}
	return t, nil
}
