// =============================================================================
// SEPA Member Collection Exporter - Schema Mapper
// =============================================================================
//
// This module resolves the header row of a concrete query result against a
// table's column descriptor set. The result is a mapping from logical column
// to physical column index which the record builder uses to pick cells out of
// data rows.
//
// MATCHING RULES:
//   - Labels are compared by literal, case-sensitive equality with the
//     descriptor's physical column name.
//   - A mandatory descriptor without a matching label is a fatal
//     SchemaMismatchError: the extraction cannot proceed without that data.
//   - An optional descriptor without a matching label is simply absent from
//     the mapping.
//
// MapHeader is a pure function of its inputs: mapping the same header twice
// yields identical index assignments.
//
// =============================================================================

package schema

import "fmt"

// =============================================================================
// ERRORS
// =============================================================================

// SchemaMismatchError reports that a mandatory logical column has no matching
// physical column in the header row.
type SchemaMismatchError struct {
	// Column is the physical name of the missing mandatory column.
	Column string

	// Table is the name of the table scheme that requires the column.
	Table string
}

// Error implements the error interface.
func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("table %s: mandatory column %q not found in result header", e.Table, e.Column)
}

// =============================================================================
// MAPPING
// =============================================================================

// Mapping assigns each resolved logical column its physical index in the data
// rows. Keys are the physical column names of the descriptors. A Mapping is
// built fresh per extraction call and never shared across queries with
// different column sets.
type Mapping map[string]int

// IndexOf returns the physical column index of the given descriptor and
// whether the descriptor was resolved at all.
func (m Mapping) IndexOf(column ColumnDescriptor) (int, bool) {
	index, ok := m[column.Name]
	return index, ok
}

// Contains reports whether the descriptor was resolved.
func (m Mapping) Contains(column ColumnDescriptor) bool {
	_, ok := m[column.Name]
	return ok
}

// =============================================================================
// MAPPER
// =============================================================================

// MapHeader resolves a result-set header row against the table's descriptor
// set.
//
// PARAMETERS:
//   - table: The table scheme to resolve against.
//   - header: The column labels of row 0 of the query result.
//
// RETURNS:
//   - The mapping from logical column to physical index.
//   - A *SchemaMismatchError if any mandatory column has no matching label.
func MapHeader(table Table, header []string) (Mapping, error) {
	mapping := make(Mapping, len(table.Columns))
	for _, column := range table.Columns {
		found := false
		for index, label := range header {
			if label == column.Name {
				mapping[column.Name] = index
				found = true
				break
			}
		}
		if !found && !column.Optional {
			return nil, &SchemaMismatchError{Column: column.Name, Table: table.Name}
		}
	}
	return mapping, nil
}
