// Package catalog resolves external data-source locations from a metastore.
// The execution engine itself never talks to the metastore; the host that
// builds pipelines uses this client to find the files a scan should read.
package catalog

import (
	"context"
	"database/sql"
	"fmt"

	// Registers the "postgres" driver used for metastore endpoints.
	_ "github.com/lib/pq"
)

// TableRef names a table within a namespace.
type TableRef struct {
	Schema string
	Table  string
}

func (r TableRef) String() string {
	return fmt.Sprintf("%s.%s", r.Schema, r.Table)
}

// Location describes one data file of an external table.
type Location struct {
	Path   string
	Format string
}

// Store resolves table locations from one metastore endpoint.
type Store interface {
	Locations(ctx context.Context, ref TableRef) ([]Location, error)
	Close() error
}

// SQLStore is a Store backed by a Postgres-compatible metastore.
type SQLStore struct {
	db  *sql.DB
	dsn string
}

// OpenSQLStore opens a metastore endpoint. The connection is established
// lazily; failures surface on first use, where the client's failover can
// route around them.
func OpenSQLStore(dsn string) (*SQLStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open metastore endpoint: %w", err)
	}
	return &SQLStore{db: db, dsn: dsn}, nil
}

// Locations returns the data files registered for the table, in stable order.
func (s *SQLStore) Locations(ctx context.Context, ref TableRef) ([]Location, error) {
	const q = `SELECT path, format
		FROM table_locations
		WHERE schema_name = $1 AND table_name = $2
		ORDER BY path`

	rows, err := s.db.QueryContext(ctx, q, ref.Schema, ref.Table)
	if err != nil {
		return nil, fmt.Errorf("metastore query failed: %w", err)
	}
	defer rows.Close()

	var locations []Location
	for rows.Next() {
		var loc Location
		if err := rows.Scan(&loc.Path, &loc.Format); err != nil {
			return nil, fmt.Errorf("metastore row scan failed: %w", err)
		}
		locations = append(locations, loc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("metastore iteration failed: %w", err)
	}
	return locations, nil
}

// Close releases the endpoint's connection pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
