package orders

import (
	"regexp"
	"strings"

	"github.com/grovegear/storefront/internal/errs"
)

// ShippingDetails is the caller-supplied shipping block. Email travels here
// but is stored on the order only as guest contact metadata, never on the
// address snapshot.
type ShippingDetails struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address1 string `json:"address1"`
	Address2 string `json:"address2,omitempty"`
	City     string `json:"city"`
	State    string `json:"state"`
	Postal   string `json:"postal"`
	Country  string `json:"country,omitempty"`
}

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	zipPattern   = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
)

// normalizeShipping trims every field, uppercases state and country codes
// and defaults the country to US.
func normalizeShipping(s ShippingDetails) ShippingDetails {
	s.Name = strings.TrimSpace(s.Name)
	s.Email = strings.TrimSpace(s.Email)
	s.Phone = strings.TrimSpace(s.Phone)
	s.Address1 = strings.TrimSpace(s.Address1)
	s.Address2 = strings.TrimSpace(s.Address2)
	s.City = strings.TrimSpace(s.City)
	s.State = strings.ToUpper(strings.TrimSpace(s.State))
	s.Postal = strings.TrimSpace(s.Postal)
	s.Country = strings.ToUpper(strings.TrimSpace(s.Country))
	if s.Country == "" {
		s.Country = "US"
	}
	return s
}

// validateShipping checks normalized shipping details and reports every
// problem at once. No side effect happens before this passes.
func validateShipping(s ShippingDetails) *errs.ValidationError {
	var problems []string

	required := []struct {
		field string
		value string
	}{
		{"name", s.Name},
		{"email", s.Email},
		{"phone", s.Phone},
		{"address1", s.Address1},
		{"city", s.City},
		{"state", s.State},
		{"postal", s.Postal},
		{"country", s.Country},
	}
	for _, r := range required {
		if r.value == "" {
			problems = append(problems, r.field+" is required")
		}
	}

	if s.Email != "" && !emailPattern.MatchString(s.Email) {
		problems = append(problems, "email must be a valid address")
	}
	if s.Postal != "" && !zipPattern.MatchString(s.Postal) {
		problems = append(problems, "postal must be a US ZIP code (12345 or 12345-6789)")
	}
	if s.Country != "" && s.Country != "US" {
		problems = append(problems, "country must be US, shipping is US-only")
	}

	if len(problems) > 0 {
		return &errs.ValidationError{Problems: problems}
	}
	return nil
}
