// Package store is the revisioned entity store: durable per-collection CRUD
// with revision stamping. The store, not its callers, owns revision
// assignment: there is no API to set updatedAt directly, which keeps
// clock-skewed callers from producing stamps that break merge ordering.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"shiftsync/internal/domain"
	"shiftsync/internal/ports"
)

// Collection binds a storage key to its record type and seed data.
type Collection[T domain.Record] struct {
	Name string
	seed func() []T
}

var (
	Employees      = Collection[domain.Employee]{Name: domain.CollectionEmployees}
	Timesheet      = Collection[domain.TimesheetEntry]{Name: domain.CollectionTimesheet}
	Leave          = Collection[domain.LeaveEntry]{Name: domain.CollectionHolidays}
	PublicHolidays = Collection[domain.PublicHoliday]{Name: domain.CollectionPublicHolidays}
	TaxSettings    = Collection[domain.TaxSetting]{Name: domain.CollectionSettings, seed: domain.DefaultTaxSettings}
	Company        = Collection[domain.CompanyProfile]{Name: domain.CollectionCompany, seed: func() []domain.CompanyProfile {
		return []domain.CompanyProfile{domain.DefaultCompany()}
	}}
)

// Store wraps a raw Backend with typed, revision-stamping access. The mutex
// is held across every read-modify-write cycle, not just the individual
// backend calls: HTTP handlers and a periodic sync mutate the same
// collections from separate goroutines, and serializing only the backend
// calls would let one writer overwrite what another wrote in between its
// load and its save.
type Store struct {
	backend ports.Backend
	now     func() time.Time
	log     *slog.Logger
	mu      sync.Mutex
}

func New(backend ports.Backend, log *slog.Logger) *Store {
	return &Store{backend: backend, now: time.Now, log: log}
}

// WithClock substitutes the wall clock used for revision stamps. Test use.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// GetAll returns the collection in insertion order, seeding defaults when
// nothing has ever been written.
func GetAll[T domain.Record](ctx context.Context, s *Store, c Collection[T]) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return getAll(ctx, s, c)
}

// Upsert inserts the record if its key is absent, else replaces it in
// place. The store assigns updatedAt on every write, overwriting whatever
// the caller supplied; the stamp never moves backwards even if the wall
// clock does. The stamped record is returned.
func Upsert[T domain.Record](ctx context.Context, s *Store, c Collection[T], rec T) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := getAll(ctx, s, c)
	if err != nil {
		return rec, err
	}

	stamp := s.now().UnixMilli()
	pos := -1
	for i, r := range recs {
		if r.Key() == rec.Key() {
			pos = i
			if prev := r.Revision(); stamp <= prev {
				stamp = prev + 1
			}
			break
		}
	}
	setRevision(&rec, stamp)

	if pos >= 0 {
		recs[pos] = rec
	} else {
		recs = append(recs, rec)
	}
	if err := save(ctx, s, c, recs); err != nil {
		return rec, err
	}
	return rec, nil
}

// Remove deletes the record with the given key; no-op when absent. Deletes
// carry no revision or tombstone, so a remote copy that still holds the
// record will resurrect it on the next pull.
func Remove[T domain.Record](ctx context.Context, s *Store, c Collection[T], key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := getAll(ctx, s, c)
	if err != nil {
		return err
	}
	kept := recs[:0]
	for _, r := range recs {
		if r.Key() != key {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(recs) {
		return nil
	}
	return save(ctx, s, c, kept)
}

// ReplaceAll swaps the whole collection without restamping. Only the sync
// engine uses it: merged records must keep the revisions the merge decided
// on, otherwise every sync would bump stamps and manufacture conflicts.
func ReplaceAll[T domain.Record](ctx context.Context, s *Store, c Collection[T], recs []T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return save(ctx, s, c, recs)
}

// Update applies fn to the current contents of the collection and persists
// the result, all under the store lock. The sync engine merges through
// this so that a clock-in landing mid-merge cannot be overwritten by the
// merged list. fn must not call back into the store.
func Update[T domain.Record](ctx context.Context, s *Store, c Collection[T], fn func([]T) []T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := getAll(ctx, s, c)
	if err != nil {
		return err
	}
	return save(ctx, s, c, fn(recs))
}

func getAll[T domain.Record](ctx context.Context, s *Store, c Collection[T]) ([]T, error) {
	doc, err := s.backend.Load(ctx, c.Name)
	if err != nil {
		return nil, fmt.Errorf("store: load %s: %w", c.Name, err)
	}
	if doc == nil {
		if c.seed != nil {
			return c.seed(), nil
		}
		return []T{}, nil
	}
	var recs []T
	if err := json.Unmarshal(doc, &recs); err != nil {
		return nil, fmt.Errorf("store: decode %s: %w", c.Name, err)
	}
	return recs, nil
}

func save[T domain.Record](ctx context.Context, s *Store, c Collection[T], recs []T) error {
	if recs == nil {
		recs = []T{}
	}
	doc, err := json.Marshal(recs)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", c.Name, err)
	}
	if err := s.backend.Save(ctx, c.Name, doc); err != nil {
		return fmt.Errorf("store: save %s: %w", c.Name, err)
	}
	return nil
}

func setRevision(rec any, ms int64) {
	type stamper interface{ SetRevision(int64) }
	if st, ok := rec.(stamper); ok {
		st.SetRevision(ms)
	}
}
