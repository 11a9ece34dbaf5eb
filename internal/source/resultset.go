// =============================================================================
// SEPA Member Collection Exporter - Source Result Set
// =============================================================================
//
// This package contains the data source adapters of the exporter. A source
// answers a table scheme with a ResultSet: one header row of physical column
// labels plus rectangular string data rows. All downstream stages (schema
// mapping, record building) work on ResultSets only, so the pipeline does not
// care whether members come from Postgres, a CSV export or an XLSX workbook.
//
// =============================================================================

package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/vereinskasse/sepa-exporter/internal/schema"
)

// ErrTableUnavailable is returned when a source has no data for the requested
// table at all, e.g. a file source without a nickname file. Callers treat it
// as "feature not available here", not as a failure.
var ErrTableUnavailable = errors.New("table not available in this source")

// ResultSet is the uniform answer of every source adapter.
type ResultSet struct {
	// Header contains the physical column labels, in the order the cells
	// appear in Rows.
	Header []string

	// Rows contains the data rows. Every row has exactly len(Header) cells;
	// absent database values are empty strings.
	Rows [][]string

	// Source names where the data came from (a file path or a DSN without
	// credentials), for logs and error messages.
	Source string
}

// Source delivers the rows of a table scheme.
type Source interface {
	// Query answers the scheme with all rows of the corresponding table.
	// Columns the underlying store lacks are omitted from the header, never
	// padded; the schema mapper decides whether the remainder suffices.
	Query(ctx context.Context, table schema.Table) (ResultSet, error)

	// Close releases the adapter's resources.
	Close() error
}

// checkRectangular verifies that every row has exactly the header's width.
func checkRectangular(set ResultSet) error {
	for index, row := range set.Rows {
		if len(row) != len(set.Header) {
			return fmt.Errorf("%s: row %d has %d cells, header has %d",
				set.Source, index+1, len(row), len(set.Header))
		}
	}
	return nil
}
