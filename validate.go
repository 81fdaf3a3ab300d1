package visage

import (
	"net/http"
	"net/mail"
	"regexp"
)

// SearchParams carries the raw search input, at most one dimension populated.
type SearchParams struct {
	Name     string
	Email    string
	Phone    string
	UserCode string
}

const (
	maxNameLength  = 255
	userCodeLength = 40
)

// phonePattern accepts E.164-normalized numbers.
var phonePattern = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

// Validate checks shape and cardinality of the search input and returns the
// single populated dimension with its value. Zero or multiple populated
// dimensions, or a malformed value, yield a *ValidationFault with a
// machine-readable field map. Validation always runs before any query is
// compiled or executed.
func (p SearchParams) Validate() (Dimension, string, error) {
	count := 0
	if p.Name != "" {
		count++
	}
	if p.Email != "" {
		count++
	}
	if p.Phone != "" {
		count++
	}
	if p.UserCode != "" {
		count++
	}

	if count > 1 {
		return DimensionUnset, "", &ValidationFault{
			Status:  http.StatusUnprocessableEntity,
			Message: "Must provide only one search parameter",
		}
	}

	if count < 1 {
		return DimensionUnset, "", &ValidationFault{
			Status:  http.StatusUnprocessableEntity,
			Message: "Must provide a search parameter",
			Fields: map[string]string{
				"name":     "string",
				"email":    "string",
				"phone":    "string",
				"userCode": "string",
			},
		}
	}

	switch {
	case p.Name != "":
		if len(p.Name) > maxNameLength {
			return DimensionUnset, "", invalidParam("name", "must be at most 255 characters")
		}
		return DimensionName, p.Name, nil

	case p.Email != "":
		if _, err := mail.ParseAddress(p.Email); err != nil {
			return DimensionUnset, "", invalidParam("email", "must be a valid email address")
		}
		return DimensionEmail, p.Email, nil

	case p.Phone != "":
		if !phonePattern.MatchString(p.Phone) {
			return DimensionUnset, "", invalidParam("phone", "must be an E.164 phone number")
		}
		return DimensionPhone, p.Phone, nil

	default:
		if len(p.UserCode) != userCodeLength {
			return DimensionUnset, "", invalidParam("userCode", "must be exactly 40 characters")
		}
		return DimensionUserCode, p.UserCode, nil
	}
}

func invalidParam(field, reason string) *ValidationFault {
	return &ValidationFault{
		Status:  http.StatusUnprocessableEntity,
		Message: "Invalid search parameter " + `"` + field + `"`,
		Fields:  map[string]string{field: reason},
	}
}
