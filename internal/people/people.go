// =============================================================================
// SEPA Member Collection Exporter - Member Domain Types
// =============================================================================
//
// This package contains the value types one extraction pass produces from the
// member table: Person, Address, AccountHolder and Member, plus the club's
// own SEPA identity (Originator). All types are plain immutable values; they
// are constructed once per extraction and never mutated afterwards.
//
// Optionality conventions:
//   - A zero time.Time means "the database did not provide a date".
//   - A nil *bool / *money.Amount means "the column was absent or null".
//   - Empty strings on the account holder mean "this member cannot be
//     collected from" (see AccountHolder.HasIBAN / HasBIC).
//
// =============================================================================

package people

import (
	"fmt"
	"time"

	"github.com/vereinskasse/sepa-exporter/internal/money"
)

// =============================================================================
// PERSON AND ADDRESS
// =============================================================================

// Person holds the personal data of a member as stored in the member table.
type Person struct {
	Prename  string
	Lastname string
	Title    string
	Birthday time.Time
	IsMale   bool
}

// Name returns lastname and prename separated with a comma, e.g. "Doe, John".
// This is the display form used for sorting and for the Dbtr name element.
func (p Person) Name() string {
	return p.Lastname + ", " + p.Prename
}

// Address is the home address of a member.
type Address struct {
	Street      string
	HouseNumber string
	Postcode    string
	Place       string
}

// =============================================================================
// ACCOUNT HOLDER
// =============================================================================

// AccountHolder identifies the bank account contributions are collected from.
// The holder is usually the member, but the table may name someone else
// (e.g. a parent paying for a minor).
type AccountHolder struct {
	Prename        string
	Lastname       string
	IBAN           string
	BIC            string
	MandateSigned  time.Time
	MandateChanged bool
}

// HasIBAN reports whether an IBAN is present at all. Presence does not imply
// the checksum is valid.
func (a AccountHolder) HasIBAN() bool {
	return a.IBAN != ""
}

// HasBIC reports whether a BIC is present.
func (a AccountHolder) HasBIC() bool {
	return a.BIC != ""
}

// HasMandate reports whether a mandate signature date is recorded.
func (a AccountHolder) HasMandate() bool {
	return !a.MandateSigned.IsZero()
}

// Name returns lastname and prename separated with a comma.
func (a AccountHolder) Name() string {
	return a.Lastname + ", " + a.Prename
}

// =============================================================================
// MEMBER
// =============================================================================

// Member is one row of the member table turned into a typed aggregate. The
// membership number is the unique key; two members are the same member if and
// only if their membership numbers are equal.
type Member struct {
	MembershipNumber int
	Person           Person
	Home             Address
	AccountHolder    AccountHolder

	// Active is nil if the member table has no activity column.
	Active *bool

	// ContributionFree marks members which never pay contributions.
	ContributionFree bool

	// Contribution is the resolved contribution in euro cents. It is nil if
	// neither the member table nor the configured default supplied a value.
	Contribution *money.Amount
}

// DisplayName returns the sortable display form "Lastname, Prename".
func (m Member) DisplayName() string {
	return m.Person.Name()
}

// Less orders members by display name; membership number breaks ties so that
// the order is total and the generated output is reproducible.
func (m Member) Less(other Member) bool {
	if m.Person.Lastname != other.Person.Lastname {
		return m.Person.Lastname < other.Person.Lastname
	}
	if m.Person.Prename != other.Person.Prename {
		return m.Person.Prename < other.Person.Prename
	}
	return m.MembershipNumber < other.MembershipNumber
}

// String identifies a member in logs and exclusion reports.
func (m Member) String() string {
	return fmt.Sprintf("%d: %s", m.MembershipNumber, m.DisplayName())
}

// =============================================================================
// ORIGINATOR
// =============================================================================

// Originator is the club's own SEPA identity: the party initiating the direct
// debit. It is loaded from the profile configuration and consumed by the
// document assembler.
type Originator struct {
	// Creator is the name of the party creating the document (InitgPty).
	Creator string

	// Creditor is the name of the party collecting the money (Cdtr).
	Creditor string

	IBAN       string
	BIC        string
	CreditorID string

	// Purpose is the unstructured remittance information (Ustrd) repeated on
	// every transaction.
	Purpose string

	// MsgID identifies the whole document. It has to be unique for 15 days.
	MsgID string

	// PmtInfID is the base payment information identifier. Each payment
	// group appends its own suffix to it. It has to be unique for 3 months.
	PmtInfID string

	// ExecutionDate is the requested collection date (ReqdColltnDt).
	ExecutionDate time.Time
}
