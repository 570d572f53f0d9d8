package domain

import (
	"bytes"
	"strconv"
)

// Collection names match the remote endpoint's sheet names exactly and are
// also used as local storage keys.
const (
	CollectionEmployees      = "Employees"
	CollectionTimesheet      = "Timesheet"
	CollectionSettings       = "Settings"
	CollectionHolidays       = "Holidays"
	CollectionPublicHolidays = "Public Holidays"
	CollectionCompany        = "Company"
)

// Record is any entity that participates in revision-based merging.
type Record interface {
	// Key returns the record's identity within its collection. An empty
	// key marks a corrupt row; such rows are filtered before merging.
	Key() string
	// Revision returns the record's updatedAt stamp in wall-clock
	// milliseconds, zero when the record has never been stamped.
	Revision() int64
}

// Millis is a wall-clock millisecond timestamp with a tolerant JSON decode:
// spreadsheet exports deliver numbers as strings, and rows written by older
// clients may lack the field entirely. Anything non-numeric decodes to zero.
type Millis int64

func (m Millis) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatInt(int64(m), 10)), nil
}

func (m *Millis) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	s := string(b)
	if s == "" || s == "null" {
		*m = 0
		return nil
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		*m = Millis(v)
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		*m = Millis(int64(f))
		return nil
	}
	*m = 0
	return nil
}

// Rev carries the revision stamp shared by every synced record. The store
// is the only writer of UpdatedAt; callers never set it directly.
type Rev struct {
	UpdatedAt Millis `json:"updatedAt,omitempty"`
}

// Revision implements Record.
func (r Rev) Revision() int64 { return int64(r.UpdatedAt) }

// SetRevision is used by the store when stamping a write.
func (r *Rev) SetRevision(ms int64) { r.UpdatedAt = Millis(ms) }
