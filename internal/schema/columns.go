// =============================================================================
// SEPA Member Collection Exporter - Column Descriptor Table
// =============================================================================
//
// This module describes the logical columns of the two database tables the
// exporter reads: "Mitglieder" (the member table) and "Spitznamen" (real name
// to nickname, used by the serial letter generator). Each descriptor carries
// the physical column label, whether the column is optional, and its field
// type. Parsing is a single switch over the field type instead of a method
// per column, so all conversion rules live in one place.
//
// The descriptor tables are static: they are defined once at package load and
// never mutated at runtime.
//
// =============================================================================

package schema

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vereinskasse/sepa-exporter/internal/money"
)

// =============================================================================
// FIELD TYPES
// =============================================================================

// FieldType enumerates the typed representations a column value can parse to.
type FieldType int

const (
	// FieldString passes the cell through unchanged.
	FieldString FieldType = iota

	// FieldInteger parses a base-10 integer (membership numbers).
	FieldInteger

	// FieldBoolean parses the persistence layer's flag encoding: "1" is
	// true, everything else is false.
	FieldBoolean

	// FieldDate parses an ISO local date ("2006-01-02").
	FieldDate

	// FieldAmount parses a decimal euro value into cents.
	FieldAmount
)

// dateLayout is the date format the persistence layer delivers.
const dateLayout = "2006-01-02"

// =============================================================================
// COLUMN DESCRIPTOR
// =============================================================================

// ColumnDescriptor is the static metadata of one logical column.
type ColumnDescriptor struct {
	// Name is the physical column label in the database scheme.
	Name string

	// Type selects the parse rule for cell values of this column.
	Type FieldType

	// Optional marks columns a table is allowed to lack entirely. Missing
	// mandatory columns abort the extraction; missing optional columns are
	// simply absent from the mapping.
	Optional bool
}

// Parse converts a raw cell value to the typed representation of this column.
//
// RETURNS:
//   - One of string, int, bool, time.Time or money.Amount.
//   - An error if the cell cannot be parsed as the declared type.
func (c ColumnDescriptor) Parse(cell string) (any, error) {
	switch c.Type {
	case FieldString:
		return cell, nil

	case FieldInteger:
		number, err := strconv.Atoi(strings.TrimSpace(cell))
		if err != nil {
			return nil, fmt.Errorf("column %s: %q is not an integer", c.Name, cell)
		}
		return number, nil

	case FieldBoolean:
		return strings.TrimSpace(cell) == "1", nil

	case FieldDate:
		date, err := time.Parse(dateLayout, strings.TrimSpace(cell))
		if err != nil {
			return nil, fmt.Errorf("column %s: %q is not a date", c.Name, cell)
		}
		return date, nil

	case FieldAmount:
		amount, err := money.ParseAmount(cell)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", c.Name, err)
		}
		return amount, nil

	default:
		return nil, fmt.Errorf("column %s has unknown field type %d", c.Name, c.Type)
	}
}

// =============================================================================
// MEMBER TABLE COLUMNS
// =============================================================================
// The physical labels follow the German naming of the persistence layer.

var (
	MembershipNumber   = ColumnDescriptor{Name: "Mitgliedsnummer", Type: FieldInteger}
	Prename            = ColumnDescriptor{Name: "Vorname", Type: FieldString}
	Lastname           = ColumnDescriptor{Name: "Nachname", Type: FieldString}
	Title              = ColumnDescriptor{Name: "Titel", Type: FieldString}
	IsMale             = ColumnDescriptor{Name: "IstMaennlich", Type: FieldBoolean}
	Birthday           = ColumnDescriptor{Name: "Geburtstag", Type: FieldDate}
	Street             = ColumnDescriptor{Name: "Strasse", Type: FieldString}
	HouseNumber        = ColumnDescriptor{Name: "Hausnummer", Type: FieldString}
	Postcode           = ColumnDescriptor{Name: "PLZ", Type: FieldString}
	Place              = ColumnDescriptor{Name: "Ort", Type: FieldString}
	IsContributionFree = ColumnDescriptor{Name: "IstBeitragsfrei", Type: FieldBoolean}
	IBAN               = ColumnDescriptor{Name: "Iban", Type: FieldString}
	BIC                = ColumnDescriptor{Name: "Bic", Type: FieldString}
	MandateSigned      = ColumnDescriptor{Name: "MandatErstellt", Type: FieldDate}

	// Account holder overrides: empty or absent means the member pays from
	// an account in their own name.
	AccountHolderPrename  = ColumnDescriptor{Name: "KontoinhaberVorname", Type: FieldString, Optional: true}
	AccountHolderLastname = ColumnDescriptor{Name: "KontoinhaberNachname", Type: FieldString, Optional: true}

	// IsActive and Contribution are optional columns: older table layouts do
	// not carry them.
	IsActive     = ColumnDescriptor{Name: "IstAktiv", Type: FieldBoolean, Optional: true}
	Contribution = ColumnDescriptor{Name: "Beitrag", Type: FieldAmount, Optional: true}
)

// =============================================================================
// NICKNAME TABLE COLUMNS
// =============================================================================

var (
	NicknameRealName = ColumnDescriptor{Name: "Name", Type: FieldString}
	Nickname         = ColumnDescriptor{Name: "Spitzname", Type: FieldString}
)

// =============================================================================
// TABLES
// =============================================================================

// Table is the scheme of one database table: its physical name and the
// columns it can have.
type Table struct {
	Name    string
	Columns []ColumnDescriptor
}

// MemberTable is the scheme of the "Mitglieder" table.
var MemberTable = Table{
	Name: "Mitglieder",
	Columns: []ColumnDescriptor{
		MembershipNumber,
		Prename,
		Lastname,
		Title,
		IsMale,
		Birthday,
		Street,
		HouseNumber,
		Postcode,
		Place,
		IsContributionFree,
		IBAN,
		BIC,
		AccountHolderPrename,
		AccountHolderLastname,
		MandateSigned,
		Contribution,
		IsActive,
	},
}

// NicknameTable is the scheme of the "Spitznamen" table.
var NicknameTable = Table{
	Name: "Spitznamen",
	Columns: []ColumnDescriptor{
		NicknameRealName,
		Nickname,
	},
}

// SelectQuery returns a SELECT statement over the scheme columns for which
// the given predicate reports existence, without WHERE clause and without
// trailing semicolon. Callers pass a predicate backed by the concrete
// database's catalog so the statement never names a column the table lacks.
// Identifiers are double-quoted; the physical names are mixed-case and would
// otherwise be folded to lowercase.
//
// RETURNS:
//   - The statement and true, or "" and false if no scheme column exists.
func (t Table) SelectQuery(exists func(columnName string) bool) (string, bool) {
	var names []string
	for _, column := range t.Columns {
		if exists(column.Name) {
			names = append(names, `"`+column.Name+`"`)
		}
	}
	if len(names) == 0 {
		return "", false
	}
	return "SELECT " + strings.Join(names, ", ") + ` FROM "` + t.Name + `"`, true
}
