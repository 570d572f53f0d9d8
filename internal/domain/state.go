package domain

// State is a full snapshot across all six collections, as exchanged with
// the remote endpoint. A nil slice means the remote sent nothing usable for
// that collection and the merge must leave the local copy untouched.
type State struct {
	Employees      []Employee
	Timesheet      []TimesheetEntry
	TaxSettings    []TaxSetting
	Leave          []LeaveEntry
	PublicHolidays []PublicHoliday
	Company        []CompanyProfile
}
