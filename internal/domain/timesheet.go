package domain

// TimesheetEntry is one work shift. TimeIn/TimeOut hold RFC3339 instants
// locally; on the remote side they are wall-clock HH:MM strings and are
// converted at the sync boundary. An entry is open (active shift) while
// TimeOut is nil.
type TimesheetEntry struct {
	ID           string  `json:"id"`
	EmployeeID   string  `json:"employeeId"`
	EmployeeName string  `json:"employeeName,omitempty"`
	Date         string  `json:"date"` // YYYY-MM-DD
	TimeIn       string  `json:"timeIn"`
	TimeOut      *string `json:"timeOut"`
	TotalHours   float64 `json:"totalHours"`
	BreakMinutes int     `json:"breakMinutes"`
	Rev
}

func (t TimesheetEntry) Key() string { return t.ID }

// Open reports whether the shift has not been clocked out yet.
func (t TimesheetEntry) Open() bool { return t.TimeOut == nil }
