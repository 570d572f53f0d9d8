package app

import (
	"context"
	"log/slog"
	"time"

	"shiftsync/internal/adapter/sheets"
	"shiftsync/internal/adapter/sqlite"
	"shiftsync/internal/config"
	"shiftsync/internal/store"
	"shiftsync/internal/usecase"
)

// App wires adapters and use cases.
type App struct {
	log     *slog.Logger
	backend *sqlite.Backend
	uc      *usecase.SyncUseCase
}

func New(ctx context.Context, log *slog.Logger, cfg config.Config) (*App, error) {
	backend, err := sqlite.Open(ctx, cfg.DB.Path, log)
	if err != nil {
		return nil, err
	}
	uc := &usecase.SyncUseCase{
		Log:    log,
		Store:  store.New(backend, log),
		Remote: sheets.NewClient(cfg.Remote.Timeout, log),
	}
	return &App{log: log, backend: backend, uc: uc}, nil
}

func (a *App) SyncOnce(ctx context.Context) (usecase.Result, error) {
	return a.uc.Sync(ctx)
}

func (a *App) ClockIn(ctx context.Context, employeeIDs []string, at time.Time) error {
	return a.uc.ClockIn(ctx, employeeIDs, at)
}

func (a *App) ClockOut(ctx context.Context, entryID string, at time.Time, breakMinutes int) error {
	return a.uc.ClockOut(ctx, entryID, at, breakMinutes)
}

func (a *App) Close() error { return a.backend.Close() }
