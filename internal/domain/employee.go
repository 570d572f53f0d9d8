package domain

// Employee is a payroll-relevant staff record. Field names on the wire
// follow the remote sheet's column headers.
type Employee struct {
	EmployeeID            string  `json:"employeeId"`
	Name                  string  `json:"nameAndSurname"`
	PhoneNumber           string  `json:"phoneNumber,omitempty"`
	Address               string  `json:"address,omitempty"`
	Email                 string  `json:"email,omitempty"`
	GrossHourlyWage       float64 `json:"grossHourlyWage"`
	MandatoryMonthlyHours float64 `json:"mandatoryMonthlyHours"`
	HolidayDays           float64 `json:"holidayDays"`
	Photo                 string  `json:"photo,omitempty"`
	Rev
}

func (e Employee) Key() string { return e.EmployeeID }
