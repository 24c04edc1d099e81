package contacts

import (
	"strings"

	"SendWave/internal/models"
)

// Normalize maps raw rows onto the contact schema using the given field
// mapping. Rows whose resolved email is empty are silently dropped; this is
// a data-cleaning step, not validation. When more than max contacts remain
// the list is truncated to the first max entries and truncated is set.
//
// max <= 0 disables truncation.
func Normalize(rows []map[string]string, mapping models.FieldMapping, max int) (contacts []models.Contact, truncated bool, err error) {
	if strings.TrimSpace(mapping.Email) == "" {
		return nil, false, models.NewConfigError("field mapping must assign a source column to email")
	}

	contacts = make([]models.Contact, 0, len(rows))
	for _, row := range rows {
		c := models.Contact{
			FirstName: lookup(row, mapping.FirstName),
			LastName:  lookup(row, mapping.LastName),
			Phone:     lookup(row, mapping.Phone),
			Address:   lookup(row, mapping.Address),
			Email:     lookup(row, mapping.Email),
		}
		if c.Email == "" {
			continue
		}
		contacts = append(contacts, c)
	}

	if max > 0 && len(contacts) > max {
		return contacts[:max], true, nil
	}
	return contacts, false, nil
}

func lookup(row map[string]string, column string) string {
	if column == "" {
		return ""
	}
	return strings.TrimSpace(row[column])
}

// AutoMap suggests a default field mapping from column names. Matching is
// case-insensitive and first match wins per field. The result is a
// best-effort default for the operator to adjust, never a requirement.
func AutoMap(columns []string) models.FieldMapping {
	var m models.FieldMapping
	for _, col := range columns {
		lower := strings.ToLower(strings.TrimSpace(col))
		switch {
		case m.FirstName == "" && strings.Contains(lower, "first") && strings.Contains(lower, "name"):
			m.FirstName = col
		case m.LastName == "" && strings.Contains(lower, "last") && strings.Contains(lower, "name"):
			m.LastName = col
		case m.Email == "" && strings.Contains(lower, "email"):
			m.Email = col
		case m.Phone == "" && strings.Contains(lower, "phone"):
			m.Phone = col
		case m.Address == "" && strings.Contains(lower, "address"):
			m.Address = col
		}
	}
	return m
}
