package registrations

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mystik-app/backend/internal/models"
	"github.com/mystik-app/backend/pkg/apperr"
)

var (
	// The excluded class matches JavaScript's \s: RE2's \s alone is ASCII-only.
	emailPattern = regexp.MustCompile(`^[^\s\v\p{Z}\x{FEFF}@]+@[^\s\v\p{Z}\x{FEFF}@]+\.[^\s\v\p{Z}\x{FEFF}@]+$`)
	phonePattern = regexp.MustCompile(`^[0-9+()\- ]+$`)
)

// SignupRequest is the body for POST /medium-signup.
type SignupRequest struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
	Specialty  string `json:"specialty"`
	Experience string `json:"experience"`
	Message    string `json:"message,omitempty"`
}

// Validate checks a signup in a fixed order and returns the first failure.
func (r *SignupRequest) Validate() error {
	required := []struct{ name, value string }{
		{"firstName", r.FirstName},
		{"lastName", r.LastName},
		{"email", r.Email},
		{"country", r.Country},
		{"phone", r.Phone},
		{"specialty", r.Specialty},
		{"experience", r.Experience},
	}
	var missing []string
	for _, f := range required {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return apperr.Validation(apperr.ReasonMissingField, strings.Join(missing, ", "))
	}

	if !emailPattern.MatchString(r.Email) {
		return apperr.Validation(apperr.ReasonInvalidEmail, "")
	}
	if !phonePattern.MatchString(r.Phone) {
		return apperr.Validation(apperr.ReasonInvalidPhone, "use only digits, +, spaces, parentheses or hyphens")
	}
	if utf8.RuneCountInString(r.Country) != 2 && r.Country != models.CountryOther {
		return apperr.Validation(apperr.ReasonInvalidCountry, r.Country)
	}
	if !models.Specialty(r.Specialty).Valid() {
		return apperr.Validation(apperr.ReasonInvalidSpecialty, r.Specialty)
	}
	if !models.Experience(r.Experience).Valid() {
		return apperr.Validation(apperr.ReasonInvalidExperience, r.Experience)
	}
	return nil
}

// ParseStatus validates a requested status.
func ParseStatus(s string) (models.Status, error) {
	st := models.Status(s)
	if !st.Valid() {
		return "", apperr.Validation(apperr.ReasonInvalidStatus, "use pending, contacted, approved or rejected")
	}
	return st, nil
}
