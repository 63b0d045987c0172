// Package adapter defines the execution collaborator: the warehouse
// connection that materializes generated SQL as queryable views. The
// compiler core never touches a database; everything with side effects
// goes through an Adapter.
package adapter

import (
	"context"
	"database/sql"
)

// Config holds the configuration for connecting to a warehouse.
type Config struct {
	// Type specifies the adapter type (e.g. "duckdb", "postgres").
	Type string

	// Path is the file path for file-based databases. ":memory:" opens an
	// in-memory database.
	Path string

	// Host and Port locate network databases.
	Host string
	Port int

	// Database is the database name.
	Database string

	// Username and Password authenticate network databases.
	Username string
	Password string

	// Schema is the default schema.
	Schema string

	// Options carries additional driver-specific options.
	Options map[string]string
}

// Column describes one column of a warehouse table.
type Column struct {
	Name     string
	Type     string
	Nullable bool
	Position int
}

// TableMetadata describes a warehouse table.
type TableMetadata struct {
	Schema   string
	Name     string
	Columns  []Column
	RowCount int64
}

// Rows wraps sql.Rows to keep a consistent interface across adapters.
type Rows struct {
	*sql.Rows
}

// Adapter is implemented by every warehouse backend.
type Adapter interface {
	// Connect establishes the warehouse connection.
	Connect(ctx context.Context, cfg Config) error

	// Close releases the connection.
	Close() error

	// Exec runs a statement that returns no rows.
	Exec(ctx context.Context, sql string) error

	// Query runs a statement that returns rows.
	Query(ctx context.Context, sql string) (*Rows, error)

	// TableMetadata retrieves column metadata for a table, given as
	// "schema.table" or a bare name resolved against the default schema.
	TableMetadata(ctx context.Context, table string) (*TableMetadata, error)

	// DialectName returns the SQL dialect generated statements must
	// target (e.g. "duckdb", "postgres").
	DialectName() string
}
