package registrations

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/mystik-app/backend/pkg/apperr"
)

func validRequest() SignupRequest {
	return SignupRequest{
		FirstName:  "Maria",
		LastName:   "Silva",
		Email:      "maria@example.com",
		Country:    "BR",
		Phone:      "11999999999",
		Specialty:  "tarot",
		Experience: "professional",
	}
}

func reasonOf(t *testing.T, err error) string {
	t.Helper()
	ve, ok := apperr.IsValidation(err)
	require.True(t, ok, "expected validation error, got %v", err)
	return ve.Reason
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SignupRequest)
		reason string
	}{
		{"valid", func(*SignupRequest) {}, ""},
		{"missing first name", func(r *SignupRequest) { r.FirstName = "" }, apperr.ReasonMissingField},
		{"blank name is present", func(r *SignupRequest) { r.FirstName = "   " }, ""},
		{"blank experience is not a known level", func(r *SignupRequest) { r.Experience = "   " }, apperr.ReasonInvalidExperience},
		{"email without dot", func(r *SignupRequest) { r.Email = "maria@example" }, apperr.ReasonInvalidEmail},
		{"email with space", func(r *SignupRequest) { r.Email = "ma ria@example.com" }, apperr.ReasonInvalidEmail},
		{"email with no-break space", func(r *SignupRequest) { r.Email = "a\u00a0b@x.com" }, apperr.ReasonInvalidEmail},
		{"email with ideographic space", func(r *SignupRequest) { r.Email = "ab@x\u3000y.com" }, apperr.ReasonInvalidEmail},
		{"email with byte order mark", func(r *SignupRequest) { r.Email = "\ufeffab@x.com" }, apperr.ReasonInvalidEmail},
		{"email with vertical tab", func(r *SignupRequest) { r.Email = "ab@x.c\vom" }, apperr.ReasonInvalidEmail},
		{"non-ascii email letters", func(r *SignupRequest) { r.Email = "joão@exemplo.com.br" }, ""},
		{"letters in phone", func(r *SignupRequest) { r.Phone = "abc" }, apperr.ReasonInvalidPhone},
		{"tab in phone", func(r *SignupRequest) { r.Phone = "11\t999" }, apperr.ReasonInvalidPhone},
		{"formatted phone", func(r *SignupRequest) { r.Phone = "+1 (555) 123-4567" }, ""},
		{"three letter country", func(r *SignupRequest) { r.Country = "BRX" }, apperr.ReasonInvalidCountry},
		{"lowercase other", func(r *SignupRequest) { r.Country = "other" }, apperr.ReasonInvalidCountry},
		{"OTHER country", func(r *SignupRequest) { r.Country = "OTHER" }, ""},
		{"unknown specialty", func(r *SignupRequest) { r.Specialty = "crystals" }, apperr.ReasonInvalidSpecialty},
		{"unknown experience", func(r *SignupRequest) { r.Experience = "expert" }, apperr.ReasonInvalidExperience},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			err := req.Validate()
			if tt.reason == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.reason, reasonOf(t, err))
		})
	}
}

func TestValidateOrder(t *testing.T) {
	// Every field is wrong; the missing-field check wins, then email, then phone, then country.
	req := SignupRequest{Email: "bad", Phone: "abc", Country: "BRX"}
	assert.Equal(t, apperr.ReasonMissingField, reasonOf(t, req.Validate()))

	req = validRequest()
	req.Email, req.Phone, req.Country = "bad", "abc", "BRX"
	assert.Equal(t, apperr.ReasonInvalidEmail, reasonOf(t, req.Validate()))

	req.Email = "ok@example.com"
	assert.Equal(t, apperr.ReasonInvalidPhone, reasonOf(t, req.Validate()))

	req.Phone = "123"
	assert.Equal(t, apperr.ReasonInvalidCountry, reasonOf(t, req.Validate()))
}

func TestMissingFieldsAreListed(t *testing.T) {
	req := validRequest()
	req.LastName, req.Phone = "", ""
	err := req.Validate()
	assert.EqualError(t, err, "missing field: lastName, phone")
}

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"pending", "contacted", "approved", "rejected"} {
		_, err := ParseStatus(s)
		assert.NoError(t, err, s)
	}
	_, err := ParseStatus("bogus")
	assert.Equal(t, apperr.ReasonInvalidStatus, reasonOf(t, err))
	_, err = ParseStatus("")
	assert.Error(t, err)
}

var idPattern = regexp.MustCompile(`^medium_\d+_[a-z0-9]{9}$`)

func TestNewIDShape(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		ms := rapid.Int64Range(0, 1<<45).Draw(rt, "millis")
		id, err := NewID(time.UnixMilli(ms))
		if err != nil {
			rt.Fatalf("NewID: %v", err)
		}
		if !idPattern.MatchString(id) {
			rt.Fatalf("id %q does not match %s", id, idPattern)
		}
	})
}

func TestEmailIndexKeyLowercases(t *testing.T) {
	assert.Equal(t, "medium_email_maria@example.com", EmailIndexKey("Maria@Example.COM"))
}

// signupGen draws requests that pass validation.
func signupGen() *rapid.Generator[SignupRequest] {
	return rapid.Custom(func(t *rapid.T) SignupRequest {
		return SignupRequest{
			FirstName:  rapid.StringMatching(`[A-Za-z][A-Za-z' -]{0,19}`).Draw(t, "firstName"),
			LastName:   rapid.StringMatching(`[A-Za-z][A-Za-z' -]{0,19}`).Draw(t, "lastName"),
			Email:      rapid.StringMatching(`[a-z0-9._]{1,12}@[a-z0-9]{1,10}\.[a-z]{2,5}`).Draw(t, "email"),
			Country:    rapid.OneOf(rapid.StringMatching(`[A-Z]{2}`), rapid.Just("OTHER")).Draw(t, "country"),
			Phone:      rapid.StringMatching(`\+?[0-9][0-9 ()-]{0,18}`).Draw(t, "phone"),
			Specialty:  rapid.SampledFrom([]string{"tarot", "lenormand", "runes", "buzios", "iching", "angels", "astrology", "numerology", "mediumship", "other"}).Draw(t, "specialty"),
			Experience: rapid.SampledFrom([]string{"beginner", "intermediate", "advanced", "professional"}).Draw(t, "experience"),
			Message:    rapid.String().Draw(t, "message"),
		}
	})
}

func TestGeneratedRequestsAreValid(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		req := signupGen().Draw(rt, "req")
		if err := req.Validate(); err != nil {
			rt.Fatalf("valid request rejected: %v (%+v)", err, req)
		}
	})
}
