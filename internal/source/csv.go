// =============================================================================
// SEPA Member Collection Exporter - CSV Source Adapter
// =============================================================================
//
// This adapter reads table exports from CSV files, the format the previous
// bookkeeping tool produced. One file per table: the member export is
// mandatory, the nickname export optional.
//
// FORMAT:
//   - Row 0 is the header row with the physical column labels.
//   - Configurable delimiter (the exports use ';', the German Excel default).
//   - Quoted fields per RFC 4180.
//
// =============================================================================

package source

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/vereinskasse/sepa-exporter/internal/schema"
)

// CSVSource reads one CSV file per table.
type CSVSource struct {
	// paths maps the physical table name to the export file.
	paths map[string]string

	// delimiter is the field separator of the export files.
	delimiter rune
}

// NewCSVSource creates a CSV adapter over per-table export files.
//
// PARAMETERS:
//   - paths: Physical table name to file path. Tables without an entry answer
//     ErrTableUnavailable.
//   - delimiter: The field separator. 0 selects ';'.
func NewCSVSource(paths map[string]string, delimiter rune) *CSVSource {
	if delimiter == 0 {
		delimiter = ';'
	}
	return &CSVSource{paths: paths, delimiter: delimiter}
}

// Query implements Source.
func (s *CSVSource) Query(ctx context.Context, table schema.Table) (ResultSet, error) {
	if err := ctx.Err(); err != nil {
		return ResultSet{}, err
	}

	path, ok := s.paths[table.Name]
	if !ok || path == "" {
		return ResultSet{}, fmt.Errorf("table %s: %w", table.Name, ErrTableUnavailable)
	}

	file, err := os.Open(path)
	if err != nil {
		return ResultSet{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(bufio.NewReader(file))
	reader.Comma = s.delimiter
	reader.TrimLeadingSpace = true
	// Width is verified against the header afterwards, with row numbers in
	// the error message.
	reader.FieldsPerRecord = -1

	allRows, err := reader.ReadAll()
	if err != nil {
		return ResultSet{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(allRows) == 0 {
		return ResultSet{}, fmt.Errorf("%s: file is empty, expected a header row", path)
	}

	set := ResultSet{
		Header: allRows[0],
		Rows:   allRows[1:],
		Source: path,
	}
	if err := checkRectangular(set); err != nil {
		return ResultSet{}, err
	}
	return set, nil
}

// Close implements Source. File handles are closed per query, so there is
// nothing to release.
func (s *CSVSource) Close() error {
	return nil
}
