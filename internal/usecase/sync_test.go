package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shiftsync/internal/domain"
	"shiftsync/internal/store"
)

const endpoint = "https://script.google.com/macros/s/AKfy123/exec"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// cloud is an in-memory stand-in for the spreadsheet endpoint: a GET
// returns a deep copy of the stored state, a POST replaces it wholesale
// with no merge logic, exactly like the real endpoint.
type cloud struct {
	state      *domain.State
	fetchErr   error
	pushErr    error
	fetchCalls atomic.Int32
	pushCalls  atomic.Int32
	block      chan struct{} // when set, FetchState waits on it
}

func (c *cloud) FetchState(ctx context.Context, _ string) (*domain.State, error) {
	c.fetchCalls.Add(1)
	if c.block != nil {
		select {
		case <-c.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if c.fetchErr != nil {
		return nil, c.fetchErr
	}
	if c.state == nil {
		return &domain.State{}, nil
	}
	return clone(c.state), nil
}

func (c *cloud) PushState(_ context.Context, _ string, state *domain.State) error {
	c.pushCalls.Add(1)
	if c.pushErr != nil {
		return c.pushErr
	}
	c.state = clone(state)
	return nil
}

func clone(s *domain.State) *domain.State {
	b, err := json.Marshal(s)
	if err != nil {
		panic(err)
	}
	var out domain.State
	if err := json.Unmarshal(b, &out); err != nil {
		panic(err)
	}
	return &out
}

// newDevice builds a use case over a fresh in-memory store with the sync
// endpoint already configured, stamping writes at the given wall-clock ms.
func newDevice(t *testing.T, remote *cloud, nowMs int64) *SyncUseCase {
	t.Helper()
	s := store.New(store.NewMemoryBackend(), testLogger()).WithClock(func() time.Time {
		return time.UnixMilli(nowMs)
	})
	profile := domain.DefaultCompany()
	profile.AppsScriptURL = endpoint
	_, err := store.Upsert(context.Background(), s, store.Company, profile)
	require.NoError(t, err)

	return &SyncUseCase{Log: testLogger(), Store: s, Remote: remote}
}

func TestSyncNotConfigured(t *testing.T) {
	remote := &cloud{}
	uc := newDevice(t, remote, 100)

	// Blank out the endpoint again.
	_, err := store.Upsert(context.Background(), uc.Store, store.Company, domain.DefaultCompany())
	require.NoError(t, err)

	res, err := uc.Sync(context.Background())
	assert.Equal(t, ResultConfigError, res)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Zero(t, remote.fetchCalls.Load(), "config errors must abort before any network call")
}

func TestSyncRefusesDocumentLink(t *testing.T) {
	remote := &cloud{}
	uc := newDevice(t, remote, 100)

	profile := domain.DefaultCompany()
	profile.AppsScriptURL = "https://docs.google.com/spreadsheets/d/abc/edit"
	_, err := store.Upsert(context.Background(), uc.Store, store.Company, profile)
	require.NoError(t, err)

	res, err := uc.Sync(context.Background())
	assert.Equal(t, ResultConfigError, res)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Zero(t, remote.fetchCalls.Load())
}

func TestSyncTransportErrorLeavesLocalUntouched(t *testing.T) {
	ctx := context.Background()
	remote := &cloud{fetchErr: errors.New("connection refused")}
	uc := newDevice(t, remote, 100)

	_, err := store.Upsert(ctx, uc.Store, store.Employees, domain.Employee{EmployeeID: "E1", Name: "Alice"})
	require.NoError(t, err)

	res, err := uc.Sync(ctx)
	assert.Equal(t, ResultTransportError, res)
	assert.Error(t, err)
	assert.Zero(t, remote.pushCalls.Load())

	employees, err := store.GetAll(ctx, uc.Store, store.Employees)
	require.NoError(t, err)
	require.Len(t, employees, 1)
	assert.Equal(t, "Alice", employees[0].Name)
}

// brokenBackend wraps a MemoryBackend and, once armed, fails every save,
// like a full disk.
type brokenBackend struct {
	*store.MemoryBackend
	failSaves atomic.Bool
}

func (b *brokenBackend) Save(ctx context.Context, collection string, doc []byte) error {
	if b.failSaves.Load() {
		return errors.New("disk full")
	}
	return b.MemoryBackend.Save(ctx, collection, doc)
}

func TestSyncLocalPersistFailureIsStorageError(t *testing.T) {
	ctx := context.Background()
	remoteEmp := domain.Employee{EmployeeID: "E9", Name: "Remote"}
	remoteEmp.UpdatedAt = 500
	remote := &cloud{state: &domain.State{Employees: []domain.Employee{remoteEmp}}}

	backend := &brokenBackend{MemoryBackend: store.NewMemoryBackend()}
	s := store.New(backend, testLogger())
	profile := domain.DefaultCompany()
	profile.AppsScriptURL = endpoint
	_, err := store.Upsert(ctx, s, store.Company, profile)
	require.NoError(t, err)
	backend.failSaves.Store(true)

	uc := &SyncUseCase{Log: testLogger(), Store: s, Remote: remote}
	res, err := uc.Sync(ctx)
	assert.Equal(t, ResultStorageError, res)
	assert.Error(t, err)
	assert.Zero(t, remote.pushCalls.Load(), "a local persistence failure must not be pushed over")
}

func TestSyncPushFailureSurfacesAfterLocalPersist(t *testing.T) {
	ctx := context.Background()
	remote := &cloud{pushErr: errors.New("connection reset")}
	remoteEmp := domain.Employee{EmployeeID: "E9", Name: "Remote"}
	remoteEmp.UpdatedAt = 500
	remote.state = &domain.State{Employees: []domain.Employee{remoteEmp}}

	uc := newDevice(t, remote, 100)
	res, err := uc.Sync(ctx)
	assert.Equal(t, ResultTransportError, res)
	assert.Error(t, err)

	// Local state advanced regardless; retrying the cycle repairs remote.
	employees, err := store.GetAll(ctx, uc.Store, store.Employees)
	require.NoError(t, err)
	require.Len(t, employees, 1)
	assert.Equal(t, "E9", employees[0].EmployeeID)
}

func TestSyncBusyGuard(t *testing.T) {
	remote := &cloud{block: make(chan struct{})}
	uc := newDevice(t, remote, 100)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = uc.Sync(context.Background())
	}()

	// Wait until the first cycle is inside the fetch.
	require.Eventually(t, func() bool { return remote.fetchCalls.Load() > 0 }, time.Second, time.Millisecond)

	res, err := uc.Sync(context.Background())
	assert.Equal(t, ResultBusy, res)
	assert.ErrorIs(t, err, ErrSyncRunning)

	close(remote.block)
	<-done
}

func TestSyncSettingsReplacedWholesale(t *testing.T) {
	ctx := context.Background()
	remote := &cloud{state: &domain.State{
		TaxSettings: []domain.TaxSetting{{TaxType: "Flat", Percentage: 10}},
	}}
	uc := newDevice(t, remote, 100)

	res, err := uc.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, ResultOK, res)

	settings, err := store.GetAll(ctx, uc.Store, store.TaxSettings)
	require.NoError(t, err)
	require.Len(t, settings, 1)
	assert.Equal(t, "Flat", settings[0].TaxType)
}

func TestSyncEmptyRemoteSettingsKeepLocal(t *testing.T) {
	ctx := context.Background()
	remote := &cloud{state: &domain.State{}}
	uc := newDevice(t, remote, 100)

	res, err := uc.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, ResultOK, res)

	settings, err := store.GetAll(ctx, uc.Store, store.TaxSettings)
	require.NoError(t, err)
	assert.Len(t, settings, 7, "seeded schedule survives an empty remote")
}

func TestSyncNormalizesRemoteWallClock(t *testing.T) {
	ctx := context.Background()
	out := "17:30"
	remote := &cloud{state: &domain.State{
		Timesheet: []domain.TimesheetEntry{{
			ID:         "t1",
			EmployeeID: "E1",
			Date:       "2025-08-01",
			TimeIn:     "09:00",
			TimeOut:    &out,
		}},
	}}
	uc := newDevice(t, remote, 100)

	res, err := uc.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, ResultOK, res)

	entries, err := store.GetAll(ctx, uc.Store, store.Timesheet)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "2025-08-01T09:00:00Z", entries[0].TimeIn)
	require.NotNil(t, entries[0].TimeOut)
	assert.Equal(t, "2025-08-01T17:30:00Z", *entries[0].TimeOut)
}

func TestSyncDropsRemoteRowsWithoutKey(t *testing.T) {
	ctx := context.Background()
	remote := &cloud{state: &domain.State{
		Timesheet: []domain.TimesheetEntry{
			{ID: "", EmployeeID: "E1", Date: "2025-08-01", TimeIn: "09:00"},
			{ID: "t1", EmployeeID: "E1", Date: "2025-08-01", TimeIn: "10:00"},
		},
	}}
	uc := newDevice(t, remote, 100)

	_, err := uc.Sync(ctx)
	require.NoError(t, err)

	entries, err := store.GetAll(ctx, uc.Store, store.Timesheet)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "t1", entries[0].ID)
}

// Device A creates an employee; device B, never having seen it, must end
// up with it after one cycle through the shared remote.
func TestTwoDeviceConvergence(t *testing.T) {
	ctx := context.Background()
	remote := &cloud{}

	deviceA := newDevice(t, remote, 100)
	deviceB := newDevice(t, remote, 110)

	_, err := store.Upsert(ctx, deviceA.Store, store.Employees, domain.Employee{EmployeeID: "E1", Name: "Alice"})
	require.NoError(t, err)

	res, err := deviceA.Sync(ctx)
	require.NoError(t, err)
	require.Equal(t, ResultOK, res)

	res, err = deviceB.Sync(ctx)
	require.NoError(t, err)
	require.Equal(t, ResultOK, res)

	employees, err := store.GetAll(ctx, deviceB.Store, store.Employees)
	require.NoError(t, err)
	require.Len(t, employees, 1)
	assert.Equal(t, "E1", employees[0].EmployeeID)
	assert.Equal(t, "Alice", employees[0].Name)
}

// Record-level last-write-wins: A edits the wage at revision 200, B edits
// the address at revision 150. After both sync, the revision-200 record is
// the final state everywhere, including the loss of B's address edit,
// which is the documented cost of record-level (not field-level) merging.
func TestTwoDeviceConflictingEdit(t *testing.T) {
	ctx := context.Background()
	remote := &cloud{}

	base := domain.Employee{EmployeeID: "E1", Name: "Alice", GrossHourlyWage: 10}
	base.UpdatedAt = 100

	deviceA := newDevice(t, remote, 200)
	deviceB := newDevice(t, remote, 150)
	require.NoError(t, store.ReplaceAll(ctx, deviceA.Store, store.Employees, []domain.Employee{base}))
	require.NoError(t, store.ReplaceAll(ctx, deviceB.Store, store.Employees, []domain.Employee{base}))

	edited := base
	edited.GrossHourlyWage = 20
	_, err := store.Upsert(ctx, deviceA.Store, store.Employees, edited) // stamped 200
	require.NoError(t, err)

	edited = base
	edited.Address = "New Street 1"
	_, err = store.Upsert(ctx, deviceB.Store, store.Employees, edited) // stamped 150
	require.NoError(t, err)

	for _, uc := range []*SyncUseCase{deviceA, deviceB, deviceA} {
		res, err := uc.Sync(ctx)
		require.NoError(t, err)
		require.Equal(t, ResultOK, res)
	}

	for _, uc := range []*SyncUseCase{deviceA, deviceB} {
		employees, err := store.GetAll(ctx, uc.Store, store.Employees)
		require.NoError(t, err)
		require.Len(t, employees, 1)
		assert.Equal(t, int64(200), employees[0].Revision())
		assert.Equal(t, float64(20), employees[0].GrossHourlyWage)
		assert.Empty(t, employees[0].Address, "the losing record's field edit is gone")
	}
}

func TestClockInCreatesOpenEntries(t *testing.T) {
	ctx := context.Background()
	uc := newDevice(t, &cloud{}, 100)

	_, err := store.Upsert(ctx, uc.Store, store.Employees, domain.Employee{EmployeeID: "E1", Name: "Alice"})
	require.NoError(t, err)

	at := time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, uc.ClockIn(ctx, []string{"E1", "E2"}, at))

	entries, err := store.GetAll(ctx, uc.Store, store.Timesheet)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.NotEmpty(t, e.ID)
		assert.True(t, e.Open())
		assert.Equal(t, "2025-08-01", e.Date)
		assert.Equal(t, "2025-08-01T09:00:00Z", e.TimeIn)
		assert.Zero(t, e.TotalHours)
		assert.Zero(t, e.BreakMinutes)
		assert.Positive(t, e.Revision())
	}
	assert.Equal(t, "Alice", entries[0].EmployeeName)
	assert.Equal(t, "Unknown", entries[1].EmployeeName)
	assert.NotEqual(t, entries[0].ID, entries[1].ID)
}

func TestClockOutArithmetic(t *testing.T) {
	ctx := context.Background()
	uc := newDevice(t, &cloud{}, 100)

	in := time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, uc.ClockIn(ctx, []string{"E1"}, in))

	entries, err := store.GetAll(ctx, uc.Store, store.Timesheet)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	out := time.Date(2025, 8, 1, 17, 30, 0, 0, time.UTC)
	require.NoError(t, uc.ClockOut(ctx, entries[0].ID, out, 30))

	entries, err = store.GetAll(ctx, uc.Store, store.Timesheet)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Open())
	assert.Equal(t, 8.0, entries[0].TotalHours)
	assert.Equal(t, 30, entries[0].BreakMinutes)
	require.NotNil(t, entries[0].TimeOut)
	assert.Equal(t, "2025-08-01T17:30:00Z", *entries[0].TimeOut)
}

func TestClockOutClampsNegativeDuration(t *testing.T) {
	ctx := context.Background()
	uc := newDevice(t, &cloud{}, 100)

	in := time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, uc.ClockIn(ctx, []string{"E1"}, in))
	entries, err := store.GetAll(ctx, uc.Store, store.Timesheet)
	require.NoError(t, err)

	out := in.Add(-time.Hour)
	require.NoError(t, uc.ClockOut(ctx, entries[0].ID, out, 0))

	entries, err = store.GetAll(ctx, uc.Store, store.Timesheet)
	require.NoError(t, err)
	assert.Equal(t, 0.0, entries[0].TotalHours)
}

func TestClockOutUnknownEntryIsNoOp(t *testing.T) {
	ctx := context.Background()
	uc := newDevice(t, &cloud{}, 100)
	require.NoError(t, uc.ClockOut(ctx, "missing", time.Now(), 0))
}

func TestPushEncodesWallClock(t *testing.T) {
	ctx := context.Background()
	remote := &cloud{}
	uc := newDevice(t, remote, 100)

	in := time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, uc.ClockIn(ctx, []string{"E1"}, in))

	res, err := uc.Sync(ctx)
	require.NoError(t, err)
	require.Equal(t, ResultOK, res)

	require.NotNil(t, remote.state)
	require.Len(t, remote.state.Timesheet, 1)
	assert.Equal(t, "09:00", remote.state.Timesheet[0].TimeIn)
	assert.Nil(t, remote.state.Timesheet[0].TimeOut, "open shifts stay null on the remote")
	require.Len(t, remote.state.Company, 1, "company is pushed as a single-element list")

	// Local copy keeps the instant form.
	entries, err := store.GetAll(ctx, uc.Store, store.Timesheet)
	require.NoError(t, err)
	assert.Equal(t, "2025-08-01T09:00:00Z", entries[0].TimeIn)
}
