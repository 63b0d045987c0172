// Package duckdb provides a DuckDB execution adapter. DuckDB serves as the
// local development warehouse; generated views run against it unchanged.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
	"github.com/futureanalytics-io/data-vault-MS-Fabric/pkg/adapter"
)

func init() {
	adapter.Register("duckdb", func(logger *slog.Logger) adapter.Adapter { return New(logger) })
}

// Adapter implements adapter.Adapter for DuckDB.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a DuckDB adapter. A nil logger uses a discard logger.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger}}
}

// DialectName returns the SQL dialect generated statements must target.
func (a *Adapter) DialectName() string {
	return "duckdb"
}

// Connect opens the DuckDB database. An empty path opens an in-memory
// database.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	path := cfg.Path
	if path == ":memory:" {
		path = ""
	}

	a.Logger.Debug("connecting to duckdb", slog.String("path", path))

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// TableMetadata retrieves column metadata via information_schema.
func (a *Adapter) TableMetadata(ctx context.Context, table string) (*adapter.TableMetadata, error) {
	return a.TableMetadataCommon(ctx, table, "main", "?", "?")
}

var _ adapter.Adapter = (*Adapter)(nil)
