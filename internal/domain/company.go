package domain

import "strings"

// companyKey is the fixed identity of the singleton company record.
const companyKey = "company"

// CompanyProfile is the singleton company identity. It also carries the
// sync endpoint URL, which makes the sync configuration itself a synced
// record rather than static config.
type CompanyProfile struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	AppsScriptURL string `json:"appsScriptUrl,omitempty"`
	Rev
}

func (c CompanyProfile) Key() string { return companyKey }

// SyncEndpoint returns the deployed endpoint URL, or ok=false when no URL
// is set or the URL points at the human-editable document rather than the
// deployed web app. Pasting the sheet's own link is the most common
// misconfiguration; syncing against it must be treated as "not configured".
func (c CompanyProfile) SyncEndpoint() (string, bool) {
	clean := strings.TrimSpace(c.AppsScriptURL)
	if clean == "" {
		return "", false
	}
	if strings.Contains(clean, "/edit") || strings.Contains(clean, "/d/") {
		return "", false
	}
	return clean, true
}

// DefaultCompany is the placeholder identity seeded on first read.
func DefaultCompany() CompanyProfile {
	return CompanyProfile{
		Name:  "Decathlan HR Services",
		Email: "hr@decathlan.com",
	}
}
