package sepa

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vereinskasse/sepa-exporter/internal/people"
)

func testOriginator() people.Originator {
	return people.Originator{
		Creator:       "Musikverein Beispielstadt e.V.",
		Creditor:      "Musikverein Beispielstadt e.V.",
		IBAN:          "DE89370400440532013000",
		BIC:           "BELADEBEXXX",
		CreditorID:    "DE98ZZZ09999999999",
		Purpose:       "Mitgliedsbeitrag 2024",
		MsgID:         "2024-02-02 Membercontributions",
		PmtInfID:      "2024-Q1",
		ExecutionDate: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
	}
}

func fixedClockOptions() AssembleOptions {
	options := DefaultAssembleOptions()
	options.Now = func() time.Time {
		return time.Date(2024, time.February, 2, 9, 30, 0, 0, time.UTC)
	}
	return options
}

func TestAssembleDocument(t *testing.T) {
	members := []people.Member{
		collectableMember(11, "Berg", "10.00"),
		collectableMember(12, "Zimmer", "10.00"),
	}
	excluded := collectableMember(13, "Kaputt", "10.00")
	excluded.AccountHolder.IBAN = "DE03100500000024290661"

	grouping, err := GroupMembers(append(members, excluded), "2024-Q1")
	require.NoError(t, err)
	require.Len(t, grouping.Groups, 1)
	require.Len(t, grouping.Excluded, 1)

	document, err := AssembleWithOptions(testOriginator(), grouping, SequenceRecurring, fixedClockOptions())
	require.NoError(t, err)

	// BOM first, declaration right after.
	assert.True(t, bytes.HasPrefix(document, []byte{0xEF, 0xBB, 0xBF}))
	content := string(bytes.TrimPrefix(document, []byte{0xEF, 0xBB, 0xBF}))
	assert.True(t, strings.HasPrefix(content, "<?xml version=\"1.0\" encoding=\"UTF-8\"?>"))

	assert.Contains(t, content, `xmlns="urn:iso:std:iso:20022:tech:xsd:pain.008.003.02"`)

	// Group header totals cover the two collectable members only.
	assert.Contains(t, content, "<MsgId>2024-02-02 Membercontributions</MsgId>")
	assert.Contains(t, content, "<CreDtTm>2024-02-02T09:30:00</CreDtTm>")
	assert.Contains(t, content, "<NbOfTxs>2</NbOfTxs>")
	assert.Contains(t, content, "<CtrlSum>20.00</CtrlSum>")
	assert.Contains(t, content, "<InitgPty>")

	// One payment group with the derived id.
	assert.Equal(t, 1, strings.Count(content, "<PmtInf>"))
	assert.Contains(t, content, "<PmtInfId>2024-Q1-0</PmtInfId>")
	assert.Contains(t, content, "<PmtMtd>DD</PmtMtd>")
	assert.Contains(t, content, "<BtchBookg>true</BtchBookg>")
	assert.Contains(t, content, "<Cd>SEPA</Cd>")
	assert.Contains(t, content, "<Cd>CORE</Cd>")
	assert.Contains(t, content, "<SeqTp>RCUR</SeqTp>")
	assert.Contains(t, content, "<ReqdColltnDt>2024-03-01</ReqdColltnDt>")
	assert.Contains(t, content, "<ChrgBr>SLEV</ChrgBr>")
	assert.Contains(t, content, "<Id>DE98ZZZ09999999999</Id>")
	assert.Contains(t, content, "<Prtry>SEPA</Prtry>")

	// Two transactions, one per member, excluded member absent.
	assert.Equal(t, 2, strings.Count(content, "<DrctDbtTxInf>"))
	assert.Equal(t, 2, strings.Count(content, "<EndToEndId>NOTPROVIDED</EndToEndId>"))
	assert.Contains(t, content, `<InstdAmt Ccy="EUR">10.00</InstdAmt>`)
	assert.Contains(t, content, "<MndtId>11</MndtId>")
	assert.Contains(t, content, "<MndtId>12</MndtId>")
	assert.Contains(t, content, "<DtOfSgntr>2015-03-01</DtOfSgntr>")
	assert.Contains(t, content, "<AmdmntInd>false</AmdmntInd>")
	assert.Contains(t, content, "<Nm>Berg, Max</Nm>")
	assert.Contains(t, content, "<Nm>Zimmer, Max</Nm>")
	assert.NotContains(t, content, "Kaputt")
	assert.Contains(t, content, "<Ustrd>Mitgliedsbeitrag 2024</Ustrd>")
}

func TestAssembleWithoutBOM(t *testing.T) {
	grouping, err := GroupMembers([]people.Member{collectableMember(1, "Berg", "10.00")}, "base")
	require.NoError(t, err)

	options := fixedClockOptions()
	options.WithBOM = false
	document, err := AssembleWithOptions(testOriginator(), grouping, SequenceFirst, options)
	require.NoError(t, err)

	assert.False(t, bytes.HasPrefix(document, []byte{0xEF, 0xBB, 0xBF}))
	assert.Contains(t, string(document), "<SeqTp>FRST</SeqTp>")
}

func TestAssembleEscapesNames(t *testing.T) {
	member := collectableMember(1, "M<ller & Söhne", "10.00")
	grouping, err := GroupMembers([]people.Member{member}, "base")
	require.NoError(t, err)

	document, err := AssembleWithOptions(testOriginator(), grouping, SequenceRecurring, fixedClockOptions())
	require.NoError(t, err)

	content := string(document)
	assert.Contains(t, content, "M&lt;ller &amp; Söhne, Max")
	assert.NotContains(t, content, "<Nm>M<ller")
}

func TestAssembleEmptyGroupingStillValid(t *testing.T) {
	// Nothing collectable yields a document with zero transactions rather
	// than an error; the operator sees the exclusions in the summary.
	document, err := AssembleWithOptions(testOriginator(), Grouping{}, SequenceRecurring, fixedClockOptions())
	require.NoError(t, err)

	content := string(document)
	assert.Contains(t, content, "<NbOfTxs>0</NbOfTxs>")
	assert.Contains(t, content, "<CtrlSum>0.00</CtrlSum>")
	assert.NotContains(t, content, "<PmtInf>")
}

func TestAssembleRejectsBrokenOriginator(t *testing.T) {
	grouping := Grouping{}

	tests := []struct {
		name   string
		mutate func(*people.Originator)
	}{
		{"broken iban", func(o *people.Originator) { o.IBAN = "DE00123" }},
		{"broken bic", func(o *people.Originator) { o.BIC = "nope" }},
		{"broken creditor id", func(o *people.Originator) { o.CreditorID = "DE98XXX09999999999" }},
		{"empty message id", func(o *people.Originator) { o.MsgID = "" }},
		{"message id too long", func(o *people.Originator) { o.MsgID = strings.Repeat("a", 36) }},
		{"empty creator", func(o *people.Originator) { o.Creator = "" }},
		{"missing execution date", func(o *people.Originator) { o.ExecutionDate = time.Time{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			originator := testOriginator()
			tt.mutate(&originator)
			_, err := AssembleWithOptions(originator, grouping, SequenceRecurring, fixedClockOptions())
			var assemblyErr *AssemblyError
			require.ErrorAs(t, err, &assemblyErr)
		})
	}
}

func TestAssembleRejectsUnknownSequenceType(t *testing.T) {
	_, err := AssembleWithOptions(testOriginator(), Grouping{}, SequenceType("WEEKLY"), fixedClockOptions())
	var assemblyErr *AssemblyError
	require.ErrorAs(t, err, &assemblyErr)
}
