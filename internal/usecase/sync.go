// Package usecase drives the reconciliation cycle (pull the remote state,
// normalize its times, merge it with local state, persist, push the result
// back) and the two domain operations, clock-in and clock-out, that mutate
// the timesheet.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"shiftsync/internal/domain"
	"shiftsync/internal/merge"
	"shiftsync/internal/ports"
	"shiftsync/internal/store"
	"shiftsync/internal/timefmt"
)

var (
	// ErrSyncRunning reports a cycle already in flight; cycles are
	// serialized per process.
	ErrSyncRunning = errors.New("sync already running")

	// ErrNotConfigured reports a missing or document-shaped endpoint URL.
	ErrNotConfigured = errors.New("sync endpoint not configured")
)

// Result classifies the outcome of a sync cycle so callers can tell
// "nothing to sync" from "sync failed".
type Result int

const (
	ResultOK Result = iota
	ResultConfigError
	ResultTransportError
	ResultStorageError
	ResultBusy
)

func (r Result) String() string {
	switch r {
	case ResultOK:
		return "ok"
	case ResultConfigError:
		return "config_error"
	case ResultTransportError:
		return "transport_error"
	case ResultStorageError:
		return "storage_error"
	case ResultBusy:
		return "busy"
	default:
		return "unknown"
	}
}

// SyncUseCase coordinates the store, the merge engine, the time codec and
// the remote transport.
type SyncUseCase struct {
	Log    *slog.Logger
	Store  *store.Store
	Remote ports.RemoteClient
	Now    func() time.Time

	running atomic.Bool
}

func (uc *SyncUseCase) now() time.Time {
	if uc.Now != nil {
		return uc.Now()
	}
	return time.Now()
}

// Sync runs one full reconciliation cycle:
//
//  1. resolve the endpoint from the Company record; abort without network
//     I/O when it is absent or looks like a document-editing link;
//  2. pull the remote state; any transport failure leaves local state
//     untouched;
//  3. normalize remote timesheet times from wall clock to instants;
//  4. merge each collection last-write-wins (tax settings and the company
//     profile are replaced wholesale by a non-empty remote copy);
//  5. persist every merged collection locally, one at a time; there is no
//     cross-collection transaction, so a later failure does not roll back
//     an earlier collection;
//  6. re-encode the timesheet to wall clock and push the full state back.
//     The push is fire-and-forget, but a network failure during it still
//     surfaces so the caller retries the cycle and repairs the remote copy.
func (uc *SyncUseCase) Sync(ctx context.Context) (Result, error) {
	if uc.Store == nil || uc.Remote == nil {
		return ResultConfigError, errors.New("usecase not initialized: missing dependencies")
	}
	if !uc.running.CompareAndSwap(false, true) {
		return ResultBusy, ErrSyncRunning
	}
	defer uc.running.Store(false)

	endpoint, err := uc.endpoint(ctx)
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			return ResultConfigError, err
		}
		return ResultStorageError, err
	}

	uc.Log.Info("fetching remote state", slog.String("endpoint", endpoint))
	remote, err := uc.Remote.FetchState(ctx, endpoint)
	if err != nil {
		return ResultTransportError, fmt.Errorf("pull: %w", err)
	}
	remote.Timesheet = normalizeTimesheet(remote.Timesheet)

	if err := uc.mergeAndPersist(ctx, remote); err != nil {
		return ResultStorageError, fmt.Errorf("persist: %w", err)
	}

	state, err := uc.snapshot(ctx)
	if err != nil {
		return ResultStorageError, fmt.Errorf("snapshot: %w", err)
	}
	state.Timesheet = encodeTimesheet(state.Timesheet)
	if err := uc.Remote.PushState(ctx, endpoint, state); err != nil {
		// Local state has already advanced; retrying the cycle repairs
		// the remote copy.
		uc.Log.Warn("push failed after local persistence", slog.String("error", err.Error()))
		return ResultTransportError, fmt.Errorf("push: %w", err)
	}
	uc.Log.Info("sync completed")
	return ResultOK, nil
}

func (uc *SyncUseCase) endpoint(ctx context.Context) (string, error) {
	profiles, err := store.GetAll(ctx, uc.Store, store.Company)
	if err != nil {
		return "", err
	}
	if len(profiles) == 0 {
		return "", ErrNotConfigured
	}
	endpoint, ok := profiles[0].SyncEndpoint()
	if !ok {
		return "", ErrNotConfigured
	}
	return endpoint, nil
}

func (uc *SyncUseCase) mergeAndPersist(ctx context.Context, remote *domain.State) error {
	if err := mergeCollection(ctx, uc.Store, store.Employees, remote.Employees); err != nil {
		return err
	}
	if err := mergeCollection(ctx, uc.Store, store.Timesheet, remote.Timesheet); err != nil {
		return err
	}
	if err := mergeCollection(ctx, uc.Store, store.Leave, remote.Leave); err != nil {
		return err
	}
	if err := mergeCollection(ctx, uc.Store, store.PublicHolidays, remote.PublicHolidays); err != nil {
		return err
	}
	// Tax settings and the company profile are not merged per record: the
	// last full push wins for these collections.
	if len(remote.TaxSettings) > 0 {
		if err := store.ReplaceAll(ctx, uc.Store, store.TaxSettings, remote.TaxSettings); err != nil {
			return err
		}
	}
	if len(remote.Company) > 0 {
		if err := store.ReplaceAll(ctx, uc.Store, store.Company, remote.Company); err != nil {
			return err
		}
	}
	return nil
}

// mergeCollection merges the remote list into the local one under the
// store lock, so a write that lands while the merge computes cannot be
// overwritten by the merged result.
func mergeCollection[T domain.Record](ctx context.Context, s *store.Store, c store.Collection[T], remote []T) error {
	return store.Update(ctx, s, c, func(local []T) []T {
		return merge.Lists(local, remote)
	})
}

func (uc *SyncUseCase) snapshot(ctx context.Context) (*domain.State, error) {
	var (
		state domain.State
		err   error
	)
	if state.Employees, err = store.GetAll(ctx, uc.Store, store.Employees); err != nil {
		return nil, err
	}
	if state.Timesheet, err = store.GetAll(ctx, uc.Store, store.Timesheet); err != nil {
		return nil, err
	}
	if state.TaxSettings, err = store.GetAll(ctx, uc.Store, store.TaxSettings); err != nil {
		return nil, err
	}
	if state.Leave, err = store.GetAll(ctx, uc.Store, store.Leave); err != nil {
		return nil, err
	}
	if state.PublicHolidays, err = store.GetAll(ctx, uc.Store, store.PublicHolidays); err != nil {
		return nil, err
	}
	if state.Company, err = store.GetAll(ctx, uc.Store, store.Company); err != nil {
		return nil, err
	}
	return &state, nil
}

// normalizeTimesheet rewrites remote wall-clock times as instants so that
// duration math works locally. A value that cannot be reconstructed keeps
// its raw form; rows without keys are dropped by the merge.
func normalizeTimesheet(entries []domain.TimesheetEntry) []domain.TimesheetEntry {
	out := make([]domain.TimesheetEntry, 0, len(entries))
	for _, e := range entries {
		if in := timefmt.ToInstant(e.Date, e.TimeIn); in != "" {
			e.TimeIn = in
		}
		if e.TimeOut != nil {
			if outAt := timefmt.ToInstant(e.Date, *e.TimeOut); outAt != "" {
				e.TimeOut = &outAt
			}
		}
		out = append(out, e)
	}
	return out
}

// encodeTimesheet renders instants back to wall-clock HH:MM for the
// spreadsheet. Open shifts keep a nil timeOut.
func encodeTimesheet(entries []domain.TimesheetEntry) []domain.TimesheetEntry {
	out := make([]domain.TimesheetEntry, 0, len(entries))
	for _, e := range entries {
		e.TimeIn = timefmt.ToWallClock(e.TimeIn)
		if e.TimeOut != nil {
			hhmm := timefmt.ToWallClock(*e.TimeOut)
			e.TimeOut = &hhmm
		}
		out = append(out, e)
	}
	return out
}

// ClockIn opens a new shift for each employee, dated and timed at `at`
// (zero value: now). It writes locally only; syncing is a separate,
// explicit operation.
func (uc *SyncUseCase) ClockIn(ctx context.Context, employeeIDs []string, at time.Time) error {
	if at.IsZero() {
		at = uc.now()
	}
	at = at.UTC()

	employees, err := store.GetAll(ctx, uc.Store, store.Employees)
	if err != nil {
		return err
	}
	names := make(map[string]string, len(employees))
	for _, e := range employees {
		names[e.EmployeeID] = e.Name
	}

	for _, id := range employeeIDs {
		name, ok := names[id]
		if !ok {
			name = "Unknown"
		}
		entry := domain.TimesheetEntry{
			ID:           uuid.NewString(),
			EmployeeID:   id,
			EmployeeName: name,
			Date:         at.Format(timefmt.DateLayout),
			TimeIn:       at.Format(time.RFC3339),
			TimeOut:      nil,
			TotalHours:   0,
			BreakMinutes: 0,
		}
		if _, err := store.Upsert(ctx, uc.Store, store.Timesheet, entry); err != nil {
			return err
		}
		uc.Log.Info("clocked in",
			slog.String("employee", id),
			slog.String("entry", entry.ID),
		)
	}
	return nil
}

// ClockOut closes the shift with the given entry id at `at` (zero value:
// now). Total hours are the elapsed time minus the break, clamped to zero
// and rounded to two decimals. Unknown ids are a no-op.
func (uc *SyncUseCase) ClockOut(ctx context.Context, entryID string, at time.Time, breakMinutes int) error {
	if at.IsZero() {
		at = uc.now()
	}
	at = at.UTC()

	entries, err := store.GetAll(ctx, uc.Store, store.Timesheet)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.ID != entryID {
			continue
		}
		timeIn, err := time.Parse(time.RFC3339, e.TimeIn)
		if err != nil {
			return fmt.Errorf("clock-out %s: bad timeIn %q: %w", entryID, e.TimeIn, err)
		}
		elapsed := at.Sub(timeIn) - time.Duration(breakMinutes)*time.Minute
		hours := math.Round(elapsed.Hours()*100) / 100
		if hours < 0 {
			hours = 0
		}
		out := at.Format(time.RFC3339)
		e.TimeOut = &out
		e.TotalHours = hours
		e.BreakMinutes = breakMinutes
		if _, err := store.Upsert(ctx, uc.Store, store.Timesheet, e); err != nil {
			return err
		}
		uc.Log.Info("clocked out",
			slog.String("entry", entryID),
			slog.Float64("hours", hours),
		)
		return nil
	}
	uc.Log.Debug("clock-out for unknown entry", slog.String("entry", entryID))
	return nil
}
