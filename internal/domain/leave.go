package domain

// LeaveEntry records a span of annual leave taken by an employee.
type LeaveEntry struct {
	ID           string  `json:"id"`
	EmployeeID   string  `json:"employeeId"`
	EmployeeName string  `json:"employeeName,omitempty"`
	StartDate    string  `json:"startDate"`
	EndDate      string  `json:"endDate"`
	TotalDays    float64 `json:"totalDays"`
	Rev
}

func (l LeaveEntry) Key() string { return l.ID }
