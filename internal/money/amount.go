// =============================================================================
// SEPA Member Collection Exporter - Monetary Amounts
// =============================================================================
//
// This package represents euro amounts as integer cents. Contribution amounts
// are grouping keys and feed the control sum of the generated direct debit
// document, so they must compare and add exactly. Binary floating point
// cannot guarantee that (0.1 + 0.2 != 0.3), integer cents can.
//
// PARSING RULES:
//   - Decimal separator is "." (a "," is accepted and normalized, since the
//     member table is maintained with German locale tooling).
//   - At most two decimal places. More precise values are rejected rather
//     than rounded; a contribution of 10.005 EUR is a data error, not a
//     rounding candidate.
//
// =============================================================================

package money

import (
	"fmt"
	"strconv"
	"strings"
)

// Amount is a euro amount in cents. 1050 represents 10.50 EUR.
type Amount int64

// ParseAmount parses a decimal euro value like "10", "10.5" or "10.50" into
// cents.
//
// RETURNS:
//   - The parsed amount.
//   - An error if the value is not a decimal number or carries more than two
//     decimal places.
func ParseAmount(value string) (Amount, error) {
	trimmed := strings.TrimSpace(value)
	trimmed = strings.ReplaceAll(trimmed, ",", ".")
	if trimmed == "" {
		return 0, fmt.Errorf("empty amount")
	}

	negative := false
	if strings.HasPrefix(trimmed, "-") {
		negative = true
		trimmed = trimmed[1:]
	}

	euros := trimmed
	cents := ""
	if dot := strings.Index(trimmed, "."); dot >= 0 {
		euros = trimmed[:dot]
		cents = trimmed[dot+1:]
	}

	if len(cents) > 2 {
		return 0, fmt.Errorf("amount %q has more than two decimal places", value)
	}
	// Pad "5" to "50" so that 10.5 means 10.50.
	for len(cents) < 2 {
		cents += "0"
	}
	if euros == "" {
		euros = "0"
	}

	euroPart, err := strconv.ParseInt(euros, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q is not a decimal number", value)
	}
	centPart, err := strconv.ParseInt(cents, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q is not a decimal number", value)
	}

	total := euroPart*100 + centPart
	if negative {
		total = -total
	}
	return Amount(total), nil
}

// MustParseAmount is like ParseAmount but panics on invalid input. Intended
// for constants in tests and configuration defaults.
func MustParseAmount(value string) Amount {
	amount, err := ParseAmount(value)
	if err != nil {
		panic(err)
	}
	return amount
}

// IsPositive reports whether the amount is strictly greater than zero.
func (a Amount) IsPositive() bool {
	return a > 0
}

// String renders the amount with exactly two decimal places, the form the
// InstdAmt and CtrlSum elements of a pain.008 document expect.
func (a Amount) String() string {
	sign := ""
	cents := int64(a)
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
