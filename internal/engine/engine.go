// Package engine holds the vault manager: it owns the entity graph, drives
// the validate, generate, execute pipeline, and round-trips the graph through
// the interchange codec.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/futureanalytics-io/data-vault-MS-Fabric/internal/codec"
	"github.com/futureanalytics-io/data-vault-MS-Fabric/internal/generate"
	"github.com/futureanalytics-io/data-vault-MS-Fabric/internal/state"
	"github.com/futureanalytics-io/data-vault-MS-Fabric/pkg/adapter"
	"github.com/futureanalytics-io/data-vault-MS-Fabric/pkg/dialect"
	"github.com/futureanalytics-io/data-vault-MS-Fabric/pkg/vault"
)

// Engine orchestrates vault construction. Validation, key derivation, and
// generation are pure functions of the graph snapshot, so separate engines
// can compile concurrently; mutating one engine's graph from multiple
// goroutines is not supported.
type Engine struct {
	// Warehouse adapter (lazily connected; dry runs never connect).
	db          adapter.Adapter
	dbConfig    adapter.Config
	dbConnected bool
	dbMu        sync.Mutex

	dialect *dialect.Dialect
	logger  *slog.Logger
	store   state.Store
	graph   *vault.Graph
	gen     *generate.Generator

	// loadColumn is the configured default ingestion-timestamp column,
	// re-applied to graphs imported without one of their own.
	loadColumn string
}

// Config holds engine configuration.
type Config struct {
	// Dialect names the SQL dialect generated statements target. When an
	// adapter is configured the adapter's dialect wins at execution time.
	// Defaults to "fabric".
	Dialect string

	// AdapterConfig configures the execution collaborator. Optional for
	// dry runs.
	AdapterConfig *adapter.Config

	// StatePath is the SQLite run-history database. Empty disables run
	// recording.
	StatePath string

	// DefaultLoadColumn overrides the graph-level ingestion-timestamp
	// column.
	DefaultLoadColumn string

	// Logger is the structured logger (nil uses a discard handler).
	Logger *slog.Logger
}

// New creates an engine with an empty graph and a lazy warehouse
// connection.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	name := cfg.Dialect
	if name == "" {
		name = "fabric"
	}
	d, ok := dialect.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown dialect %q (available: %v)", name, dialect.List())
	}

	logger.Debug("initializing engine", "dialect", d.Name)

	var store state.Store
	if cfg.StatePath != "" {
		s := state.NewSQLiteStore(logger)
		if err := s.Open(cfg.StatePath); err != nil {
			return nil, fmt.Errorf("failed to open state store: %w", err)
		}
		if err := s.Migrate(); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("failed to migrate state store: %w", err)
		}
		store = s
	}

	var dbConfig adapter.Config
	if cfg.AdapterConfig != nil {
		dbConfig = *cfg.AdapterConfig
	}

	graph := vault.NewGraph()
	if cfg.DefaultLoadColumn != "" {
		graph.LoadColumn = cfg.DefaultLoadColumn
	}

	return &Engine{
		dbConfig:   dbConfig,
		dialect:    d,
		logger:     logger,
		store:      store,
		graph:      graph,
		gen:        generate.New(d),
		loadColumn: cfg.DefaultLoadColumn,
	}, nil
}

// Close releases the warehouse connection and the state store.
func (e *Engine) Close() error {
	e.logger.Debug("closing engine")

	var errs []error
	if e.db != nil {
		if err := e.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// AddHub registers a hub. Returns the engine for chaining.
func (e *Engine) AddHub(h vault.Hub) *Engine {
	e.graph.AddHub(h)
	return e
}

// AddLink registers a link. Returns the engine for chaining.
func (e *Engine) AddLink(l vault.Link) *Engine {
	e.graph.AddLink(l)
	return e
}

// AddSatellite registers a satellite. Returns the engine for chaining.
func (e *Engine) AddSatellite(s vault.Satellite) *Engine {
	e.graph.AddSatellite(s)
	return e
}

// Remove deletes an entity (and thereby its derived stage) by name.
// Returns the engine for chaining.
func (e *Engine) Remove(name string) *Engine {
	e.graph.Remove(name)
	return e
}

// Graph returns the entity graph.
func (e *Engine) Graph() *vault.Graph {
	return e.graph
}

// Dialect returns the dialect generated statements target.
func (e *Engine) Dialect() *dialect.Dialect {
	return e.dialect
}

// Store returns the run-history store, or nil when disabled.
func (e *Engine) Store() state.Store {
	return e.store
}

// ExportConfig snapshots the graph to the interchange document at path.
func (e *Engine) ExportConfig(path string) error {
	e.logger.Debug("exporting vault config", "path", path)
	return codec.WriteFile(path, e.graph)
}

// FromConfig replaces the graph with the one reconstructed from path.
// A ConfigError leaves the current graph untouched. A document that sets
// no default load column inherits the engine's configured one.
func (e *Engine) FromConfig(path string) error {
	e.logger.Debug("importing vault config", "path", path)
	g, err := codec.ReadFile(path)
	if err != nil {
		return err
	}
	if g.LoadColumn == "" {
		g.LoadColumn = e.loadColumn
	}
	e.graph = g
	return nil
}

// ensureDBConnected lazily connects to the warehouse and switches the
// generator to the adapter's dialect.
func (e *Engine) ensureDBConnected(ctx context.Context) error {
	e.dbMu.Lock()
	defer e.dbMu.Unlock()

	if e.dbConnected {
		return nil
	}

	e.logger.Debug("connecting to warehouse", "adapter_type", e.dbConfig.Type)

	db, err := adapter.New(e.dbConfig, e.logger)
	if err != nil {
		return fmt.Errorf("failed to create warehouse adapter: %w", err)
	}
	if err := db.Connect(ctx, e.dbConfig); err != nil {
		return fmt.Errorf("failed to connect to warehouse: %w", err)
	}

	e.db = db
	e.dbConnected = true

	name := db.DialectName()
	d, ok := dialect.Get(name)
	if !ok {
		return fmt.Errorf("dialect %q not found for adapter type %q", name, e.dbConfig.Type)
	}
	e.dialect = d
	e.gen = generate.New(d)

	e.logger.Debug("warehouse connected", "dialect", name)
	return nil
}
