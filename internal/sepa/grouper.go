// =============================================================================
// SEPA Member Collection Exporter - Collection Grouper
// =============================================================================
//
// This module splits the member list into collectable payment groups and an
// exclusion report. A member is collectable when their account data suffices
// for a direct debit: valid IBAN, a BIC, a signed mandate and a strictly
// positive contribution. Collectable members are grouped by contribution
// amount; each group becomes one payment information block (PmtInf) in the
// generated document.
//
// Exclusion is per member, never per batch: a member with broken account data
// ends up in the report while the rest of the batch is still collected.
//
// =============================================================================

package sepa

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/vereinskasse/sepa-exporter/internal/money"
	"github.com/vereinskasse/sepa-exporter/internal/people"
)

// =============================================================================
// EXCLUSION REPORT
// =============================================================================

// ExclusionReason names the first check a member failed.
type ExclusionReason string

const (
	// ExcludedInvalidIBAN marks members whose IBAN is missing or fails the
	// checksum.
	ExcludedInvalidIBAN ExclusionReason = "invalid iban"

	// ExcludedMissingBIC marks members without a BIC.
	ExcludedMissingBIC ExclusionReason = "missing bic"

	// ExcludedMissingMandate marks members without a recorded mandate
	// signature date.
	ExcludedMissingMandate ExclusionReason = "missing mandate date"

	// ExcludedNoContribution marks members whose resolved contribution is
	// absent or not strictly positive.
	ExcludedNoContribution ExclusionReason = "no positive contribution"

	// ExcludedContributionFree marks members flagged as never paying
	// contributions.
	ExcludedContributionFree ExclusionReason = "contribution-free"
)

// Exclusion is one entry of the exclusion report.
type Exclusion struct {
	Member people.Member
	Reason ExclusionReason
}

// String renders the entry for logs and the operator summary.
func (e Exclusion) String() string {
	return fmt.Sprintf("%s (%s)", e.Member, e.Reason)
}

// =============================================================================
// ERRORS
// =============================================================================

// GroupingInputError reports that the grouper was called with input it cannot
// form groups from.
type GroupingInputError struct {
	Detail string
}

// Error implements the error interface.
func (e *GroupingInputError) Error() string {
	return "cannot group members for collection: " + e.Detail
}

// =============================================================================
// PAYMENT GROUPS
// =============================================================================

// PaymentGroup is one batch of members sharing the same contribution amount.
// It maps to exactly one PmtInf block in the generated document.
type PaymentGroup struct {
	// PmtInfID is the payment information identifier of this group: the
	// originator's base id plus "-" plus the group index.
	PmtInfID string

	// Amount is the contribution collected from every member of the group.
	Amount money.Amount

	// Members are ordered by display name (membership number breaking ties)
	// so that the generated document is reproducible.
	Members []people.Member
}

// Sum returns the total collected from this group.
func (g PaymentGroup) Sum() money.Amount {
	return g.Amount * money.Amount(len(g.Members))
}

// Grouping is the complete result of one grouping pass.
type Grouping struct {
	// Groups are ordered by ascending amount.
	Groups []PaymentGroup

	// Excluded lists every member that cannot be collected from, with the
	// first failed check as reason. Ordered by display name.
	Excluded []Exclusion
}

// TransactionCount returns the number of direct debit transactions across all
// groups.
func (g Grouping) TransactionCount() int {
	count := 0
	for _, group := range g.Groups {
		count += len(group.Members)
	}
	return count
}

// ControlSum returns the total amount collected across all groups.
func (g Grouping) ControlSum() money.Amount {
	var sum money.Amount
	for _, group := range g.Groups {
		sum += group.Sum()
	}
	return sum
}

// =============================================================================
// GROUPER
// =============================================================================

// GroupMembers splits the member list into payment groups keyed by
// contribution amount and an exclusion report for everyone else.
//
// CHECK ORDER (the first failed check becomes the exclusion reason):
//  1. not flagged contribution-free
//  2. IBAN present and checksum-valid
//  3. BIC present
//  4. mandate signature date present
//  5. contribution present and strictly positive
//
// PARAMETERS:
//   - members: The extracted member list. May be empty; an empty list yields
//     an empty grouping, not an error.
//   - basePmtInfID: The originator's payment information id. Group ids are
//     derived from it as basePmtInfID + "-" + index.
//
// RETURNS:
//   - The grouping with groups ordered by ascending amount and members
//     ordered by display name within each group.
//   - A *GroupingInputError if the base id is empty or any member carries a
//     negative contribution (a data error no grouping can repair).
func GroupMembers(members []people.Member, basePmtInfID string) (Grouping, error) {
	if basePmtInfID == "" {
		return Grouping{}, &GroupingInputError{Detail: "empty payment information id"}
	}

	var grouping Grouping
	byAmount := make(map[money.Amount][]people.Member)

	for _, member := range members {
		if member.Contribution != nil && *member.Contribution < 0 {
			return Grouping{}, &GroupingInputError{
				Detail: fmt.Sprintf("member %s has negative contribution %s", member, *member.Contribution),
			}
		}

		if reason, ok := exclusionReason(member); ok {
			grouping.Excluded = append(grouping.Excluded, Exclusion{Member: member, Reason: reason})
			continue
		}
		byAmount[*member.Contribution] = append(byAmount[*member.Contribution], member)
	}

	amounts := make([]money.Amount, 0, len(byAmount))
	for amount := range byAmount {
		amounts = append(amounts, amount)
	}
	sort.Slice(amounts, func(i, j int) bool { return amounts[i] < amounts[j] })

	for index, amount := range amounts {
		group := PaymentGroup{
			PmtInfID: basePmtInfID + "-" + strconv.Itoa(index),
			Amount:   amount,
			Members:  byAmount[amount],
		}
		sort.Slice(group.Members, func(i, j int) bool {
			return group.Members[i].Less(group.Members[j])
		})
		grouping.Groups = append(grouping.Groups, group)
	}

	sort.Slice(grouping.Excluded, func(i, j int) bool {
		return grouping.Excluded[i].Member.Less(grouping.Excluded[j].Member)
	})

	return grouping, nil
}

// exclusionReason runs the collectability checks in order and returns the
// first failed one.
func exclusionReason(member people.Member) (ExclusionReason, bool) {
	account := member.AccountHolder
	switch {
	case member.ContributionFree:
		return ExcludedContributionFree, true
	case !account.HasIBAN() || !IsValidIBAN(account.IBAN):
		return ExcludedInvalidIBAN, true
	case !account.HasBIC():
		return ExcludedMissingBIC, true
	case !account.HasMandate():
		return ExcludedMissingMandate, true
	case member.Contribution == nil || !member.Contribution.IsPositive():
		return ExcludedNoContribution, true
	default:
		return "", false
	}
}
