package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapHeaderFullScheme(t *testing.T) {
	header := []string{
		"Mitgliedsnummer", "Vorname", "Nachname", "Titel", "IstMaennlich",
		"Geburtstag", "Strasse", "Hausnummer", "PLZ", "Ort", "IstBeitragsfrei",
		"Iban", "Bic", "KontoinhaberVorname", "KontoinhaberNachname",
		"MandatErstellt", "Beitrag", "IstAktiv",
	}

	mapping, err := MapHeader(MemberTable, header)
	require.NoError(t, err)

	index, ok := mapping.IndexOf(MembershipNumber)
	require.True(t, ok)
	assert.Equal(t, 0, index)

	index, ok = mapping.IndexOf(Contribution)
	require.True(t, ok)
	assert.Equal(t, 16, index)
}

func TestMapHeaderIgnoresColumnOrder(t *testing.T) {
	header := []string{"Spitzname", "Name"}

	mapping, err := MapHeader(NicknameTable, header)
	require.NoError(t, err)

	index, ok := mapping.IndexOf(NicknameRealName)
	require.True(t, ok)
	assert.Equal(t, 1, index)
	index, ok = mapping.IndexOf(Nickname)
	require.True(t, ok)
	assert.Equal(t, 0, index)
}

func TestMapHeaderMissingMandatoryColumn(t *testing.T) {
	header := []string{"Name"}

	_, err := MapHeader(NicknameTable, header)
	var mismatch *SchemaMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "Spitzname", mismatch.Column)
	assert.Equal(t, "Spitznamen", mismatch.Table)
}

func TestMapHeaderOptionalColumnsMayBeAbsent(t *testing.T) {
	header := []string{
		"Mitgliedsnummer", "Vorname", "Nachname", "Titel", "IstMaennlich",
		"Geburtstag", "Strasse", "Hausnummer", "PLZ", "Ort", "IstBeitragsfrei",
		"Iban", "Bic", "MandatErstellt",
	}

	mapping, err := MapHeader(MemberTable, header)
	require.NoError(t, err)

	assert.False(t, mapping.Contains(Contribution))
	assert.False(t, mapping.Contains(IsActive))
	assert.False(t, mapping.Contains(AccountHolderPrename))
	assert.True(t, mapping.Contains(MandateSigned))
}

func TestMapHeaderIsCaseSensitive(t *testing.T) {
	header := []string{"name", "spitzname"}

	_, err := MapHeader(NicknameTable, header)
	var mismatch *SchemaMismatchError
	require.ErrorAs(t, err, &mismatch)
}

func TestMapHeaderIsIdempotent(t *testing.T) {
	header := []string{"Name", "Spitzname"}

	first, err := MapHeader(NicknameTable, header)
	require.NoError(t, err)
	second, err := MapHeader(NicknameTable, header)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
