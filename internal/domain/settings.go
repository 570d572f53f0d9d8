package domain

// TaxSetting is one payroll deduction rate, keyed by the deduction name.
// The whole schedule is replaced on sync rather than merged per record.
type TaxSetting struct {
	TaxType    string  `json:"taxType"`
	Percentage float64 `json:"percentage"`
	Rev
}

func (s TaxSetting) Key() string { return s.TaxType }

// DefaultTaxSettings is the starter deduction schedule seeded on first read.
func DefaultTaxSettings() []TaxSetting {
	return []TaxSetting{
		{TaxType: "Social Insurance Employee", Percentage: 8.8},
		{TaxType: "Social Insurance Employer", Percentage: 8.8},
		{TaxType: "GESY (Healthcare)Employee", Percentage: 2.65},
		{TaxType: "GESY (Healthcare)Employer", Percentage: 2.9},
		{TaxType: "Social Cohesion Fund", Percentage: 2.0},
		{TaxType: "Redundancy Fund", Percentage: 1.2},
		{TaxType: "Industrial Training", Percentage: 0.5},
	}
}
