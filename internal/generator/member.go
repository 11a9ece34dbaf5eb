// =============================================================================
// SEPA Member Collection Exporter - Member Record Builder
// =============================================================================
//
// This module turns the raw data rows of a member query into typed Member
// aggregates. Each row is parsed independently in its own goroutine; the
// results are collected in row order so repeated runs over the same data
// yield the same member list.
//
// ERROR PHILOSOPHY:
//   A broken cell never aborts the batch. A broken membership number skips
//   its row (the key is gone, the row identifies nobody); any other broken
//   cell leaves the field zero-valued and the member is kept. Both cases are
//   reported as RowWarning entries, and the caller decides whether a partial
//   extraction is acceptable. Only structural problems are fatal: a mapping
//   lacking a mandatory column, or duplicate membership numbers under the
//   reject policy.
//
// =============================================================================

package generator

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vereinskasse/sepa-exporter/internal/money"
	"github.com/vereinskasse/sepa-exporter/internal/people"
	"github.com/vereinskasse/sepa-exporter/internal/schema"
)

// =============================================================================
// WARNINGS AND ERRORS
// =============================================================================

// RowWarning reports a data row that was skipped or repaired during member
// extraction. Row numbers are 1-based positions within the data rows, i.e.
// excluding the header.
type RowWarning struct {
	Row    int
	Detail string
}

// String renders the warning for logs and the operator summary.
func (w RowWarning) String() string {
	return fmt.Sprintf("row %d: %s", w.Row, w.Detail)
}

// DuplicateMemberError reports two data rows claiming the same membership
// number under the reject policy.
type DuplicateMemberError struct {
	MembershipNumber int
	FirstRow         int
	SecondRow        int
}

// Error implements the error interface.
func (e *DuplicateMemberError) Error() string {
	return fmt.Sprintf("membership number %d appears in row %d and row %d",
		e.MembershipNumber, e.FirstRow, e.SecondRow)
}

// =============================================================================
// DUPLICATE POLICY
// =============================================================================

// DuplicatePolicy decides what happens when two rows carry the same
// membership number.
type DuplicatePolicy string

const (
	// DuplicateReject aborts the extraction. This is the default: a
	// duplicate key means the source data is broken.
	DuplicateReject DuplicatePolicy = "reject"

	// DuplicateFirstWins keeps the first row and warns about the rest.
	DuplicateFirstWins DuplicatePolicy = "first-wins"

	// DuplicateLastWins keeps the last row and warns about the rest.
	DuplicateLastWins DuplicatePolicy = "last-wins"
)

// Valid reports whether the policy is one of the three known values.
func (p DuplicatePolicy) Valid() bool {
	switch p {
	case DuplicateReject, DuplicateFirstWins, DuplicateLastWins:
		return true
	}
	return false
}

// =============================================================================
// BUILD OPTIONS
// =============================================================================

// BuildOptions control how rows become members.
type BuildOptions struct {
	// DefaultContribution is used for members whose contribution column is
	// absent or empty. Nil means "no default"; such members end up without a
	// contribution and are excluded by the grouper.
	DefaultContribution *money.Amount

	// UseMemberContributions enables per-member amounts from the
	// contribution column. When false the default applies to everyone.
	// Default: true
	UseMemberContributions bool

	// Duplicates selects the duplicate membership number policy.
	// Default: DuplicateReject
	Duplicates DuplicatePolicy
}

// DefaultBuildOptions returns the default build options.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{
		UseMemberContributions: true,
		Duplicates:             DuplicateReject,
	}
}

// =============================================================================
// BUILDER
// =============================================================================

// rowResult carries one parsed row from a worker back to the collector.
type rowResult struct {
	row      int
	member   people.Member
	skipped  bool
	problems []string
}

// BuildMembers turns the data rows of a member query into Member values.
//
// PARAMETERS:
//   - mapping: The resolved header mapping for the member table.
//   - rows: The data rows, header excluded.
//   - options: Contribution and duplicate handling.
//
// RETURNS:
//   - The members in source row order (duplicates resolved per policy).
//   - Warnings for every skipped row and every broken cell.
//   - A *schema.SchemaMismatchError when the mapping lacks a mandatory
//     column, a *DuplicateMemberError under the reject policy, or an error
//     for an invalid policy value.
func BuildMembers(mapping schema.Mapping, rows [][]string, options BuildOptions) ([]people.Member, []RowWarning, error) {
	if !options.Duplicates.Valid() {
		return nil, nil, fmt.Errorf("unknown duplicate policy %q", options.Duplicates)
	}
	// A mapping without a mandatory column is a caller error, not a data
	// condition: no row could ever supply the field. MapHeader never produces
	// such a mapping, so this only trips hand-built ones.
	for _, column := range schema.MemberTable.Columns {
		if !column.Optional && !mapping.Contains(column) {
			return nil, nil, &schema.SchemaMismatchError{Column: column.Name, Table: schema.MemberTable.Name}
		}
	}

	// Parse each row in its own goroutine. Rows are independent, so the only
	// shared state is the buffered results channel.
	var wg sync.WaitGroup
	results := make(chan rowResult, len(rows))

	for index, row := range rows {
		wg.Add(1)
		go func(rowNumber int, cells []string) {
			defer wg.Done()
			member, problems, err := buildMember(mapping, cells, options)
			if err != nil {
				results <- rowResult{row: rowNumber, skipped: true, problems: []string{err.Error()}}
				return
			}
			results <- rowResult{row: rowNumber, member: member, problems: problems}
		}(index+1, row)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	collected := make([]rowResult, 0, len(rows))
	for result := range results {
		collected = append(collected, result)
	}
	// Channel delivery order depends on goroutine scheduling; restore source
	// row order before resolving duplicates.
	sort.Slice(collected, func(i, j int) bool { return collected[i].row < collected[j].row })

	var warnings []RowWarning
	var members []people.Member
	seen := make(map[int]int) // membership number -> index into members
	seenRow := make(map[int]int)

	for _, result := range collected {
		for _, problem := range result.problems {
			warnings = append(warnings, RowWarning{Row: result.row, Detail: problem})
		}
		if result.skipped {
			continue
		}

		number := result.member.MembershipNumber
		previous, duplicate := seen[number]
		if !duplicate {
			seen[number] = len(members)
			seenRow[number] = result.row
			members = append(members, result.member)
			continue
		}

		switch options.Duplicates {
		case DuplicateReject:
			return nil, nil, &DuplicateMemberError{
				MembershipNumber: number,
				FirstRow:         seenRow[number],
				SecondRow:        result.row,
			}
		case DuplicateFirstWins:
			warnings = append(warnings, RowWarning{
				Row:    result.row,
				Detail: fmt.Sprintf("duplicate membership number %d, keeping row %d", number, seenRow[number]),
			})
		case DuplicateLastWins:
			warnings = append(warnings, RowWarning{
				Row:    result.row,
				Detail: fmt.Sprintf("duplicate membership number %d, replacing row %d", number, seenRow[number]),
			})
			members[previous] = result.member
			seenRow[number] = result.row
		}
	}

	return members, warnings, nil
}

// =============================================================================
// SINGLE ROW PARSING
// =============================================================================

// buildMember parses one data row into a Member.
//
// RETURNS:
//   - The member.
//   - Warnings for cells that could not be parsed; the affected fields stay
//     zero-valued and the member is kept.
//   - An error only when the membership number is unusable: without the key
//     the row cannot identify anyone, so it is skipped entirely.
func buildMember(mapping schema.Mapping, cells []string, options BuildOptions) (people.Member, []string, error) {
	parser := rowParser{mapping: mapping, cells: cells}

	number := parser.integer(schema.MembershipNumber)
	if len(parser.problems) > 0 {
		return people.Member{}, nil, fmt.Errorf("%s, skipping row", parser.problems[0])
	}

	member := people.Member{
		MembershipNumber: number,
		Person: people.Person{
			Prename:  parser.text(schema.Prename),
			Lastname: parser.text(schema.Lastname),
			Title:    parser.text(schema.Title),
			Birthday: parser.date(schema.Birthday),
			IsMale:   parser.boolean(schema.IsMale),
		},
		Home: people.Address{
			Street:      parser.text(schema.Street),
			HouseNumber: parser.text(schema.HouseNumber),
			Postcode:    parser.text(schema.Postcode),
			Place:       parser.text(schema.Place),
		},
		ContributionFree: parser.boolean(schema.IsContributionFree),
	}

	member.AccountHolder = people.AccountHolder{
		Prename:       parser.text(schema.AccountHolderPrename),
		Lastname:      parser.text(schema.AccountHolderLastname),
		IBAN:          parser.text(schema.IBAN),
		BIC:           parser.text(schema.BIC),
		MandateSigned: parser.optionalDate(schema.MandateSigned),
	}
	// An empty holder name means the member pays from an account in their
	// own name.
	if member.AccountHolder.Prename == "" && member.AccountHolder.Lastname == "" {
		member.AccountHolder.Prename = member.Person.Prename
		member.AccountHolder.Lastname = member.Person.Lastname
	}

	if mapping.Contains(schema.IsActive) {
		active := parser.boolean(schema.IsActive)
		member.Active = &active
	}

	member.Contribution = resolveContribution(&parser, options)

	return member, parser.problems, nil
}

// resolveContribution picks the member's contribution: the row value when
// per-member contributions are enabled and present, the configured default
// otherwise. An unparseable row value warns and falls back to the default.
func resolveContribution(parser *rowParser, options BuildOptions) *money.Amount {
	if options.UseMemberContributions && parser.mapping.Contains(schema.Contribution) {
		if cell, ok := parser.cell(schema.Contribution); ok && cell != "" {
			if value, ok := parser.parse(schema.Contribution); ok {
				amount := value.(money.Amount)
				return &amount
			}
		}
	}
	return options.DefaultContribution
}

// =============================================================================
// CELL ACCESS
// =============================================================================

// rowParser extracts typed cells from one row. Parse failures accumulate as
// problems and the accessor returns a zero value, so buildMember can assemble
// the struct in one expression and report every broken cell at once.
type rowParser struct {
	mapping  schema.Mapping
	cells    []string
	problems []string
}

func (p *rowParser) cell(column schema.ColumnDescriptor) (string, bool) {
	index, ok := p.mapping.IndexOf(column)
	if !ok || index >= len(p.cells) {
		return "", false
	}
	return p.cells[index], true
}

func (p *rowParser) parse(column schema.ColumnDescriptor) (any, bool) {
	// BuildMembers rejects mappings lacking mandatory columns up front and
	// the sources deliver rectangular rows, so a missing cell here can only
	// be an unmapped optional column.
	cell, ok := p.cell(column)
	if !ok {
		return nil, false
	}
	value, err := column.Parse(cell)
	if err != nil {
		p.problems = append(p.problems, err.Error())
		return nil, false
	}
	return value, true
}

func (p *rowParser) text(column schema.ColumnDescriptor) string {
	if value, ok := p.parse(column); ok {
		return value.(string)
	}
	return ""
}

func (p *rowParser) integer(column schema.ColumnDescriptor) int {
	if value, ok := p.parse(column); ok {
		return value.(int)
	}
	return 0
}

func (p *rowParser) boolean(column schema.ColumnDescriptor) bool {
	if value, ok := p.parse(column); ok {
		return value.(bool)
	}
	return false
}

func (p *rowParser) date(column schema.ColumnDescriptor) time.Time {
	if value, ok := p.parse(column); ok {
		return value.(time.Time)
	}
	return time.Time{}
}

// optionalDate treats an empty cell as "no date" instead of a parse error.
// Mandate dates are frequently blank for members without a direct debit
// mandate.
func (p *rowParser) optionalDate(column schema.ColumnDescriptor) time.Time {
	if cell, ok := p.cell(column); !ok || cell == "" {
		return time.Time{}
	}
	return p.date(column)
}
