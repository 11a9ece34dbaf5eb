// =============================================================================
// SEPA Member Collection Exporter - XLSX Source Adapter
// =============================================================================
//
// This adapter reads tables from an XLSX workbook, the format the treasurer
// maintains between database migrations. One sheet per table, named like the
// physical table ("Mitglieder", "Spitznamen"); row 0 is the header row.
//
// Excelize returns rows trimmed to their last non-empty cell, so short rows
// are padded to header width here instead of being rejected.
//
// =============================================================================

package source

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/vereinskasse/sepa-exporter/internal/schema"
)

// XLSXSource reads tables from the sheets of one workbook.
type XLSXSource struct {
	path string
	file *excelize.File
}

// NewXLSXSource opens the workbook at the given path.
func NewXLSXSource(path string) (*XLSXSource, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	return &XLSXSource{path: path, file: file}, nil
}

// Query implements Source.
func (s *XLSXSource) Query(ctx context.Context, table schema.Table) (ResultSet, error) {
	if err := ctx.Err(); err != nil {
		return ResultSet{}, err
	}

	index, err := s.file.GetSheetIndex(table.Name)
	if err != nil {
		return ResultSet{}, fmt.Errorf("workbook %s: %w", s.path, err)
	}
	if index < 0 {
		return ResultSet{}, fmt.Errorf("workbook %s has no sheet %s: %w", s.path, table.Name, ErrTableUnavailable)
	}

	rows, err := s.file.GetRows(table.Name)
	if err != nil {
		return ResultSet{}, fmt.Errorf("failed to read sheet %s of %s: %w", table.Name, s.path, err)
	}
	if len(rows) == 0 {
		return ResultSet{}, fmt.Errorf("sheet %s of %s is empty, expected a header row", table.Name, s.path)
	}

	header := rows[0]
	data := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		// Pad rows whose trailing cells are empty.
		for len(row) < len(header) {
			row = append(row, "")
		}
		if len(row) > len(header) {
			row = row[:len(header)]
		}
		data = append(data, row)
	}

	return ResultSet{
		Header: header,
		Rows:   data,
		Source: fmt.Sprintf("%s#%s", s.path, table.Name),
	}, nil
}

// Close implements Source.
func (s *XLSXSource) Close() error {
	return s.file.Close()
}
