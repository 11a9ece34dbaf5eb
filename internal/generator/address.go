// =============================================================================
// SEPA Member Collection Exporter - Serial Letter Address Generator
// =============================================================================
//
// This module produces the address data for serial letters: one
// semicolon-separated row per member with their home address, birthday and a
// personal salutation. The salutation prefers the member's nickname when the
// nickname table knows one, so letters read "Lieber Max" instead of
// "Lieber Maximilian".
//
// The output format is fixed by the word processor templates in use:
//   Vorname;Nachname;Strasse;Hausnummer;PLZ;Ort;Geburtstag;Anrede
//
// =============================================================================

package generator

import (
	"sort"
	"strings"

	"github.com/vereinskasse/sepa-exporter/internal/people"
	"github.com/vereinskasse/sepa-exporter/internal/schema"
	"github.com/vereinskasse/sepa-exporter/internal/sepa"
)

// addressHeader is the fixed header row of the serial letter data.
const addressHeader = "Vorname;Nachname;Strasse;Hausnummer;PLZ;Ort;Geburtstag;Anrede"

const (
	salutationMale   = "Lieber "
	salutationFemale = "Liebe "
)

// Nicknames maps a member's real prename to the nickname used in letters.
type Nicknames map[string]string

// Salutation builds the letter salutation for a member: "Lieber " or
// "Liebe " followed by the nickname, falling back to the prename when no
// nickname is known.
func Salutation(member people.Member, nicknames Nicknames) string {
	name := member.Person.Prename
	if nickname, ok := nicknames[name]; ok && nickname != "" {
		name = nickname
	}
	if member.Person.IsMale {
		return salutationMale + name
	}
	return salutationFemale + name
}

// GenerateAddresses renders the serial letter data for the given members.
//
// PARAMETERS:
//   - members: The members to address. Order of the input does not matter;
//     rows are emitted sorted by display name.
//   - nicknames: Real prename to nickname. May be nil.
//
// RETURNS:
//   - The complete semicolon-separated data, header included, with a trailing
//     newline.
func GenerateAddresses(members []people.Member, nicknames Nicknames) string {
	ordered := make([]people.Member, len(members))
	copy(ordered, members)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Less(ordered[j]) })

	var builder strings.Builder
	builder.WriteString(addressHeader)
	builder.WriteByte('\n')

	for _, member := range ordered {
		fields := []string{
			member.Person.Prename,
			member.Person.Lastname,
			member.Home.Street,
			member.Home.HouseNumber,
			member.Home.Postcode,
			member.Home.Place,
			sepa.DateString(member.Person.Birthday),
			Salutation(member, nicknames),
		}
		builder.WriteString(strings.Join(fields, ";"))
		builder.WriteByte('\n')
	}

	return builder.String()
}

// BuildNicknames turns the rows of the nickname table into a lookup map.
// Later rows override earlier ones; the table is small and maintained by
// hand, so a duplicate is a correction, not an error.
func BuildNicknames(mapping schema.Mapping, rows [][]string) Nicknames {
	nameIndex, nameOK := mapping.IndexOf(schema.NicknameRealName)
	nickIndex, nickOK := mapping.IndexOf(schema.Nickname)
	if !nameOK || !nickOK {
		return nil
	}

	nicknames := make(Nicknames, len(rows))
	for _, row := range rows {
		if nameIndex >= len(row) || nickIndex >= len(row) {
			continue
		}
		name := strings.TrimSpace(row[nameIndex])
		nickname := strings.TrimSpace(row[nickIndex])
		if name != "" {
			nicknames[name] = nickname
		}
	}
	return nicknames
}
