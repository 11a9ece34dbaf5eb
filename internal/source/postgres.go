// =============================================================================
// SEPA Member Collection Exporter - Postgres Source Adapter
// =============================================================================
//
// This adapter reads tables from the club's Postgres database. The table
// layout varies between installations (older databases lack the optional
// columns), so the adapter first asks information_schema which scheme columns
// the table actually has and only selects those. The schema mapper downstream
// decides whether the remainder suffices.
//
// VALUE RENDERING:
//   Result sets are stringly typed; the column descriptors own the parse
//   rules. Database values render as:
//     - NULL         -> ""
//     - booleans     -> "1" / "0"
//     - dates        -> "2006-01-02"
//     - everything else via its default formatting
//
// =============================================================================

package source

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vereinskasse/sepa-exporter/internal/schema"
)

// PostgresSource reads tables from a Postgres database.
type PostgresSource struct {
	pool *pgxpool.Pool

	// source is the DSN with credentials stripped, for logs.
	source string
}

// NewPostgresSource connects to the database behind the DSN and verifies the
// connection with a ping.
func NewPostgresSource(ctx context.Context, dsn string) (*PostgresSource, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	return &PostgresSource{
		pool:   pool,
		source: fmt.Sprintf("postgres://%s/%s", config.ConnConfig.Host, config.ConnConfig.Database),
	}, nil
}

// Query implements Source.
func (s *PostgresSource) Query(ctx context.Context, table schema.Table) (ResultSet, error) {
	existing, err := s.existingColumns(ctx, table.Name)
	if err != nil {
		return ResultSet{}, err
	}
	if len(existing) == 0 {
		return ResultSet{}, fmt.Errorf("table %s: %w", table.Name, ErrTableUnavailable)
	}

	statement, ok := table.SelectQuery(func(columnName string) bool {
		return existing[columnName]
	})
	if !ok {
		return ResultSet{}, fmt.Errorf("table %s has none of the expected columns", table.Name)
	}

	rows, err := s.pool.Query(ctx, statement)
	if err != nil {
		return ResultSet{}, fmt.Errorf("failed to query table %s: %w", table.Name, err)
	}
	defer rows.Close()

	descriptions := rows.FieldDescriptions()
	header := make([]string, len(descriptions))
	for index, description := range descriptions {
		header[index] = description.Name
	}

	var data [][]string
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return ResultSet{}, fmt.Errorf("failed to read row of table %s: %w", table.Name, err)
		}
		row := make([]string, len(values))
		for index, value := range values {
			row[index] = renderValue(value)
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return ResultSet{}, fmt.Errorf("failed to read table %s: %w", table.Name, err)
	}

	return ResultSet{
		Header: header,
		Rows:   data,
		Source: s.source + "/" + table.Name,
	}, nil
}

// existingColumns asks the catalog which columns the table has.
func (s *PostgresSource) existingColumns(ctx context.Context, tableName string) (map[string]bool, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT column_name FROM information_schema.columns WHERE table_name = $1`,
		tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect table %s: %w", tableName, err)
	}
	defer rows.Close()

	existing := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to inspect table %s: %w", tableName, err)
		}
		existing[name] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to inspect table %s: %w", tableName, err)
	}
	return existing, nil
}

// renderValue turns a database value into the string form the column
// descriptors parse.
func renderValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case bool:
		if typed {
			return "1"
		}
		return "0"
	case time.Time:
		return typed.Format("2006-01-02")
	case string:
		return typed
	default:
		return fmt.Sprintf("%v", typed)
	}
}

// Close implements Source.
func (s *PostgresSource) Close() error {
	s.pool.Close()
	return nil
}
