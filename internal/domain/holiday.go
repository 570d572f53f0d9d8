package domain

// PublicHoliday is a company-wide non-working day.
type PublicHoliday struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Date string `json:"date"` // YYYY-MM-DD
	Rev
}

func (p PublicHoliday) Key() string { return p.ID }
