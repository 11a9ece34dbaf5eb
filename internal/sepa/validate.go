// =============================================================================
// SEPA Member Collection Exporter - Identifier Validation
// =============================================================================
//
// This module contains the checks for the financial identifiers a SEPA direct
// debit carries: IBAN, creditor identifier, BIC and message/payment
// information identifiers, plus the date renderings the pain.008 schema
// expects.
//
// All functions here are total: invalid input yields false (or a well-defined
// string), never a panic or an error. Callers decide how to react; the
// collection grouper uses these predicates to exclude members rather than
// abort the batch.
//
// =============================================================================

package sepa

import (
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// UniqueDaysMessageID is the number of days a message id has to stay
	// unique. Format and length are validated here; tracking the rolling
	// window is the caller's responsibility.
	UniqueDaysMessageID = 15

	// UniqueMonthsPmtInfID is the number of months a payment information id
	// has to stay unique.
	UniqueMonthsPmtInfID = 3

	// MaxCharMessageID is the maximum length of a message id.
	MaxCharMessageID = 35

	// MaxCharPmtInfID is the maximum length of a payment information id.
	MaxCharPmtInfID = 35

	// MaxCharIBAN is the maximum length of an IBAN.
	MaxCharIBAN = 34

	// MaxCharNameField is the maximum length of the party name fields.
	MaxCharNameField = 70
)

const (
	countryCodeLength = 2
	// Country code plus the two checksum digits.
	checksumHeaderLength = countryCodeLength + 2
	// Header plus at least one BBAN digit.
	minIBANLength = checksumHeaderLength + 1
	// A=10, B=11, ... Z=35 in the checksum encoding.
	countryCodeShift = 10
	checksumModulo   = 97

	// businessCode is the fixed marker every creditor identifier contains.
	businessCode = "ZZZ"
)

var (
	// ibanPattern describes the shape of a possibly valid IBAN. The checksum
	// is verified separately.
	ibanPattern = regexp.MustCompile(`^[A-Z]{2}\d{2,32}$`)

	// bicPattern checks length and character set only.
	bicPattern = regexp.MustCompile(`^[A-Z0-9]{8}([A-Z0-9]{3})?$`)

	// messageIDPattern lists the characters SEPA payments accept.
	messageIDPattern = regexp.MustCompile(`^[a-zA-Z0-9/ \-?:().,'+]*$`)
)

// =============================================================================
// IBAN
// =============================================================================

// IsValidIBAN reports whether the given IBAN has a valid shape and checksum.
// Spaces are stripped before checking.
//
// CHECKSUM ALGORITHM:
//   The first four characters (country code and checksum digits) move to the
//   end, the two country letters are replaced by their numeric equivalents
//   (A=10 ... Z=35), and the resulting decimal number must leave remainder 1
//   when divided by 97.
func IsValidIBAN(iban string) bool {
	trimmed := strings.ReplaceAll(iban, " ", "")
	if len(trimmed) < minIBANLength {
		return false
	}
	if !ibanPattern.MatchString(trimmed) {
		return false
	}

	first := int(trimmed[0]) - 'A' + countryCodeShift
	second := int(trimmed[1]) - 'A' + countryCodeShift
	if first < countryCodeShift || second < countryCodeShift {
		return false
	}

	rearranged := trimmed[checksumHeaderLength:] +
		strconv.Itoa(first) + strconv.Itoa(second) +
		trimmed[countryCodeLength:checksumHeaderLength]

	// The rearranged string can be well over 19 digits, so big.Int instead
	// of int64.
	value, ok := new(big.Int).SetString(rearranged, 10)
	if !ok {
		return false
	}
	return new(big.Int).Mod(value, big.NewInt(checksumModulo)).Int64() == 1
}

// =============================================================================
// CREDITOR IDENTIFIER
// =============================================================================

// IsValidCreditorID reports whether the given creditor identifier is valid.
// A creditor identifier contains the fixed business code "ZZZ"; removing it
// leaves an IBAN-shaped checksum string which is validated like an IBAN.
func IsValidCreditorID(creditorID string) bool {
	trimmed := strings.ReplaceAll(creditorID, " ", "")
	if !strings.Contains(trimmed, businessCode) {
		return false
	}
	return IsValidIBAN(strings.ReplaceAll(trimmed, businessCode, ""))
}

// =============================================================================
// BIC
// =============================================================================

// IsValidBIC reports whether the given BIC is valid. Only length and
// character set are checked.
func IsValidBIC(bic string) bool {
	return bicPattern.MatchString(bic)
}

// =============================================================================
// MESSAGE AND PAYMENT INFORMATION IDENTIFIERS
// =============================================================================

// IsValidMessageID reports whether the given message id may be used in a SEPA
// direct debit: at most 35 characters, all from the SEPA character set.
func IsValidMessageID(messageID string) bool {
	return len(messageID) <= MaxCharMessageID && messageIDPattern.MatchString(messageID)
}

// IsValidPmtInfID reports whether the given payment information id may be
// used in a SEPA direct debit. The character rules equal those of message
// ids.
func IsValidPmtInfID(pmtInfID string) bool {
	return len(pmtInfID) <= MaxCharPmtInfID && messageIDPattern.MatchString(pmtInfID)
}

// =============================================================================
// DATE RENDERING
// =============================================================================

// DateTimeString renders a date-time the way pain.008 date-time elements
// (CreDtTm) expect it: ISO-8601 local date-time without zone offset.
func DateTimeString(t time.Time) string {
	return t.Format("2006-01-02T15:04:05")
}

// DateString renders a date the way pain.008 date elements (ReqdColltnDt,
// DtOfSgntr) expect it.
func DateString(t time.Time) string {
	return t.Format("2006-01-02")
}
