package sheets

import (
	"bytes"
	"strconv"

	"shiftsync/internal/domain"
)

// rawTimesheetRow mirrors the JSON the spreadsheet emits for a timesheet
// row. Numeric cells frequently come back as strings ("30", "8.5"), and
// timeIn/timeOut are wall-clock strings rather than instants; the row is
// decoded leniently here and normalized to instants by the sync engine.
type rawTimesheetRow struct {
	ID           string        `json:"id"`
	EmployeeID   string        `json:"employeeId"`
	EmployeeName string        `json:"employeeName"`
	Date         string        `json:"date"`
	TimeIn       string        `json:"timeIn"`
	TimeOut      *string       `json:"timeOut"`
	TotalHours   flexFloat     `json:"totalHours"`
	BreakMinutes flexInt       `json:"breakMinutes"`
	UpdatedAt    domain.Millis `json:"updatedAt"`
}

func (r rawTimesheetRow) toDomain() domain.TimesheetEntry {
	e := domain.TimesheetEntry{
		ID:           r.ID,
		EmployeeID:   r.EmployeeID,
		EmployeeName: r.EmployeeName,
		Date:         r.Date,
		TimeIn:       r.TimeIn,
		TimeOut:      r.TimeOut,
		TotalHours:   float64(r.TotalHours),
		BreakMinutes: int(r.BreakMinutes),
	}
	e.UpdatedAt = r.UpdatedAt
	return e
}

// flexFloat decodes from a JSON number or a numeric string; anything else
// becomes zero rather than failing the row.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := string(bytes.Trim(b, `"`))
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		*f = flexFloat(v)
	} else {
		*f = 0
	}
	return nil
}

// flexInt decodes like flexFloat, truncating fractional values.
type flexInt int

func (n *flexInt) UnmarshalJSON(b []byte) error {
	s := string(bytes.Trim(b, `"`))
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		*n = flexInt(v)
		return nil
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		*n = flexInt(int(v))
		return nil
	}
	*n = 0
	return nil
}
