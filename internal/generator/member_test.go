package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vereinskasse/sepa-exporter/internal/money"
	"github.com/vereinskasse/sepa-exporter/internal/schema"
)

// memberHeader is a full member table header in scheme order.
var memberHeader = []string{
	"Mitgliedsnummer", "Vorname", "Nachname", "Titel", "IstMaennlich",
	"Geburtstag", "Strasse", "Hausnummer", "PLZ", "Ort", "IstBeitragsfrei",
	"Iban", "Bic", "KontoinhaberVorname", "KontoinhaberNachname",
	"MandatErstellt", "Beitrag", "IstAktiv",
}

// memberRow returns a complete, parseable data row. Tests mutate single
// cells to exercise specific behavior.
func memberRow(number string) []string {
	return []string{
		number, "Max", "Mustermann", "", "1",
		"1990-05-04", "Musterweg", "12", "12345", "Beispielstadt", "0",
		"DE02100500000024290661", "BELADEBEXXX", "", "",
		"2015-03-01", "25.00", "1",
	}
}

func fullMapping(t *testing.T) schema.Mapping {
	t.Helper()
	mapping, err := schema.MapHeader(schema.MemberTable, memberHeader)
	require.NoError(t, err)
	return mapping
}

func TestBuildMembersFullRow(t *testing.T) {
	members, warnings, err := BuildMembers(fullMapping(t), [][]string{memberRow("42")}, DefaultBuildOptions())
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Len(t, members, 1)

	member := members[0]
	assert.Equal(t, 42, member.MembershipNumber)
	assert.Equal(t, "Max", member.Person.Prename)
	assert.Equal(t, "Mustermann", member.Person.Lastname)
	assert.True(t, member.Person.IsMale)
	assert.Equal(t, "1990-05-04", member.Person.Birthday.Format("2006-01-02"))
	assert.Equal(t, "Musterweg", member.Home.Street)
	assert.Equal(t, "12", member.Home.HouseNumber)
	assert.False(t, member.ContributionFree)
	assert.Equal(t, "DE02100500000024290661", member.AccountHolder.IBAN)
	assert.Equal(t, "2015-03-01", member.AccountHolder.MandateSigned.Format("2006-01-02"))
	require.NotNil(t, member.Active)
	assert.True(t, *member.Active)
	require.NotNil(t, member.Contribution)
	assert.Equal(t, money.MustParseAmount("25.00"), *member.Contribution)
}

func TestBuildMembersAccountHolderFallback(t *testing.T) {
	own := memberRow("1")
	other := memberRow("2")
	other[13] = "Erika" // KontoinhaberVorname
	other[14] = "Musterfrau"

	members, _, err := BuildMembers(fullMapping(t), [][]string{own, other}, DefaultBuildOptions())
	require.NoError(t, err)
	require.Len(t, members, 2)

	// Empty holder columns mean the member pays from their own account.
	assert.Equal(t, "Mustermann, Max", members[0].AccountHolder.Name())
	assert.Equal(t, "Musterfrau, Erika", members[1].AccountHolder.Name())
}

func TestBuildMembersContributionResolution(t *testing.T) {
	fallback := money.MustParseAmount("15.00")

	t.Run("row value wins when enabled", func(t *testing.T) {
		options := DefaultBuildOptions()
		options.DefaultContribution = &fallback

		members, _, err := BuildMembers(fullMapping(t), [][]string{memberRow("1")}, options)
		require.NoError(t, err)
		assert.Equal(t, money.MustParseAmount("25.00"), *members[0].Contribution)
	})

	t.Run("default fills empty cell", func(t *testing.T) {
		options := DefaultBuildOptions()
		options.DefaultContribution = &fallback

		row := memberRow("1")
		row[16] = "" // Beitrag
		members, _, err := BuildMembers(fullMapping(t), [][]string{row}, options)
		require.NoError(t, err)
		assert.Equal(t, fallback, *members[0].Contribution)
	})

	t.Run("default wins when member contributions disabled", func(t *testing.T) {
		options := DefaultBuildOptions()
		options.DefaultContribution = &fallback
		options.UseMemberContributions = false

		members, _, err := BuildMembers(fullMapping(t), [][]string{memberRow("1")}, options)
		require.NoError(t, err)
		assert.Equal(t, fallback, *members[0].Contribution)
	})

	t.Run("no value at all leaves contribution nil", func(t *testing.T) {
		row := memberRow("1")
		row[16] = ""
		members, _, err := BuildMembers(fullMapping(t), [][]string{row}, DefaultBuildOptions())
		require.NoError(t, err)
		assert.Nil(t, members[0].Contribution)
	})
}

func TestBuildMembersWithoutOptionalColumns(t *testing.T) {
	// Older table layouts: no holder override, no contribution, no activity.
	header := append([]string{}, memberHeader[:13]...) // up to and including Bic
	header = append(header, "MandatErstellt")
	mapping, err := schema.MapHeader(schema.MemberTable, header)
	require.NoError(t, err)

	row := memberRow("7")[:13]
	row = append(row, "2015-03-01")

	members, warnings, err := BuildMembers(mapping, [][]string{row}, DefaultBuildOptions())
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Len(t, members, 1)

	assert.Nil(t, members[0].Active)
	assert.Nil(t, members[0].Contribution)
	assert.Equal(t, "Mustermann, Max", members[0].AccountHolder.Name())
}

func TestBuildMembersRejectsMappingWithoutMandatoryColumn(t *testing.T) {
	// A hand-built mapping missing a mandatory column is a caller error and
	// fails the whole batch, unlike broken cells which only warn.
	mapping := schema.Mapping{"Mitgliedsnummer": 0, "Nachname": 1}

	members, warnings, err := BuildMembers(mapping, [][]string{{"1", "Mustermann"}}, DefaultBuildOptions())
	var mismatch *schema.SchemaMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "Vorname", mismatch.Column)
	assert.Nil(t, members)
	assert.Nil(t, warnings)
}

func TestBuildMembersSkipsRowWithBrokenKey(t *testing.T) {
	broken := memberRow("not-a-number")
	fine := memberRow("2")

	members, warnings, err := BuildMembers(fullMapping(t), [][]string{broken, fine}, DefaultBuildOptions())
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, 2, members[0].MembershipNumber)

	require.Len(t, warnings, 1)
	assert.Equal(t, 1, warnings[0].Row)
	assert.Contains(t, warnings[0].Detail, "Mitgliedsnummer")
}

func TestBuildMembersKeepsRowWithBrokenCell(t *testing.T) {
	// A broken non-key cell warns but does not cost the member.
	row := memberRow("9")
	row[5] = "not-a-date" // Geburtstag

	members, warnings, err := BuildMembers(fullMapping(t), [][]string{row}, DefaultBuildOptions())
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, 9, members[0].MembershipNumber)
	assert.True(t, members[0].Person.Birthday.IsZero())

	require.Len(t, warnings, 1)
	assert.Equal(t, 1, warnings[0].Row)
	assert.Contains(t, warnings[0].Detail, "Geburtstag")
}

func TestBuildMembersEmptyMandateDate(t *testing.T) {
	row := memberRow("1")
	row[15] = "" // MandatErstellt

	members, warnings, err := BuildMembers(fullMapping(t), [][]string{row}, DefaultBuildOptions())
	require.NoError(t, err)
	require.Empty(t, warnings)
	assert.False(t, members[0].AccountHolder.HasMandate())
}

func TestBuildMembersDuplicatePolicies(t *testing.T) {
	first := memberRow("5")
	second := memberRow("5")
	second[1] = "Moritz" // Vorname differs so the survivor is observable

	t.Run("reject", func(t *testing.T) {
		_, _, err := BuildMembers(fullMapping(t), [][]string{first, second}, DefaultBuildOptions())
		var dupErr *DuplicateMemberError
		require.ErrorAs(t, err, &dupErr)
		assert.Equal(t, 5, dupErr.MembershipNumber)
		assert.Equal(t, 1, dupErr.FirstRow)
		assert.Equal(t, 2, dupErr.SecondRow)
	})

	t.Run("first wins", func(t *testing.T) {
		options := DefaultBuildOptions()
		options.Duplicates = DuplicateFirstWins

		members, warnings, err := BuildMembers(fullMapping(t), [][]string{first, second}, options)
		require.NoError(t, err)
		require.Len(t, members, 1)
		assert.Equal(t, "Max", members[0].Person.Prename)
		require.Len(t, warnings, 1)
	})

	t.Run("last wins", func(t *testing.T) {
		options := DefaultBuildOptions()
		options.Duplicates = DuplicateLastWins

		members, warnings, err := BuildMembers(fullMapping(t), [][]string{first, second}, options)
		require.NoError(t, err)
		require.Len(t, members, 1)
		assert.Equal(t, "Moritz", members[0].Person.Prename)
		require.Len(t, warnings, 1)
	})

	t.Run("unknown policy", func(t *testing.T) {
		options := DefaultBuildOptions()
		options.Duplicates = DuplicatePolicy("coin-toss")
		_, _, err := BuildMembers(fullMapping(t), nil, options)
		require.Error(t, err)
	})
}

func TestBuildMembersKeepsRowOrder(t *testing.T) {
	rows := [][]string{memberRow("3"), memberRow("1"), memberRow("2")}
	members, _, err := BuildMembers(fullMapping(t), rows, DefaultBuildOptions())
	require.NoError(t, err)
	require.Len(t, members, 3)
	assert.Equal(t, 3, members[0].MembershipNumber)
	assert.Equal(t, 1, members[1].MembershipNumber)
	assert.Equal(t, 2, members[2].MembershipNumber)
}
