// Package template substitutes {{field}} tokens in user-authored subject
// and body text against a single contact's fields. It is deliberately not a
// template language: one pass, no conditionals, no escaping, and unknown
// tokens render as the empty string rather than erroring.
package template

import (
	"regexp"

	"SendWave/internal/models"
)

var tokenPattern = regexp.MustCompile(`\{\{([A-Za-z0-9_]+)\}\}`)

// Render replaces every {{identifier}} token in tmpl with the matching
// contact field, or "" when the identifier is unknown.
func Render(tmpl string, contact models.Contact) string {
	return tokenPattern.ReplaceAllStringFunc(tmpl, func(tok string) string {
		name := tok[2 : len(tok)-2]
		return fieldValue(contact, name)
	})
}

func fieldValue(c models.Contact, name string) string {
	switch name {
	case "firstName":
		return c.FirstName
	case "lastName":
		return c.LastName
	case "phone":
		return c.Phone
	case "address":
		return c.Address
	case "email":
		return c.Email
	default:
		return ""
	}
}
