package contacts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SendWave/internal/models"
)

func TestNormalizeDropsRowsWithoutEmail(t *testing.T) {
	rows := []map[string]string{
		{"n": "A"},
		{"n": "B", "e": "b@x.com"},
	}
	mapping := models.FieldMapping{FirstName: "n", Email: "e"}

	contacts, truncated, err := Normalize(rows, mapping, 0)
	require.NoError(t, err)
	assert.False(t, truncated)
	require.Len(t, contacts, 1)
	assert.Equal(t, "b@x.com", contacts[0].Email)
	assert.Equal(t, "B", contacts[0].FirstName)
}

func TestNormalizeRequiresEmailMapping(t *testing.T) {
	rows := []map[string]string{{"e": "a@x.com"}}

	_, _, err := Normalize(rows, models.FieldMapping{FirstName: "n"}, 0)
	require.Error(t, err)
	assert.True(t, models.IsConfigError(err))
}

func TestNormalizeUnmappedFieldsDefaultToEmpty(t *testing.T) {
	rows := []map[string]string{
		{"mail": "a@x.com", "fn": "Ana", "extra": "ignored"},
	}
	mapping := models.FieldMapping{FirstName: "fn", LastName: "missing_column", Email: "mail"}

	contacts, _, err := Normalize(rows, mapping, 0)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Ana", contacts[0].FirstName)
	assert.Empty(t, contacts[0].LastName)
	assert.Empty(t, contacts[0].Phone)
	assert.Empty(t, contacts[0].Address)
}

func TestNormalizeTruncatesOversizedBatch(t *testing.T) {
	rows := make([]map[string]string, 5)
	emails := []string{"a@x.com", "b@x.com", "c@x.com", "d@x.com", "e@x.com"}
	for i, e := range emails {
		rows[i] = map[string]string{"e": e}
	}

	contacts, truncated, err := Normalize(rows, models.FieldMapping{Email: "e"}, 3)
	require.NoError(t, err)
	assert.True(t, truncated)
	require.Len(t, contacts, 3)
	// order preserved
	assert.Equal(t, "a@x.com", contacts[0].Email)
	assert.Equal(t, "c@x.com", contacts[2].Email)
}

func TestAutoMap(t *testing.T) {
	mapping := AutoMap([]string{"First Name", "LAST NAME", "Email Address", "Phone Number", "Home Address", "Notes"})

	assert.Equal(t, "First Name", mapping.FirstName)
	assert.Equal(t, "LAST NAME", mapping.LastName)
	assert.Equal(t, "Email Address", mapping.Email)
	assert.Equal(t, "Phone Number", mapping.Phone)
	assert.Equal(t, "Home Address", mapping.Address)
}

func TestAutoMapFirstMatchWins(t *testing.T) {
	mapping := AutoMap([]string{"email_primary", "email_secondary"})
	assert.Equal(t, "email_primary", mapping.Email)
}

func TestAutoMapNoMatches(t *testing.T) {
	mapping := AutoMap([]string{"col1", "col2"})
	assert.Equal(t, models.FieldMapping{}, mapping)
}
