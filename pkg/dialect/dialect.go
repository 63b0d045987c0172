// Package dialect describes the SQL surface the generator targets. A
// dialect carries the few expressions that differ between warehouses:
// the SHA-1 digest call, the VARCHAR spelling used for key normalization,
// and the default schema.
package dialect

import (
	"fmt"
	"sort"
	"sync"
)

// Dialect holds the warehouse-specific SQL fragments.
type Dialect struct {
	// Name is the registry key, e.g. "fabric", "duckdb", "postgres".
	Name string

	// DefaultSchema is assumed when a table reference has no schema.
	DefaultSchema string

	// VarcharType is the cast target for key normalization.
	VarcharType string

	// HashFormat wraps a string expression (the %s verb) in a SHA-1 call
	// producing 40 lowercase hex characters.
	HashFormat string
}

// HashExpr wraps expr in this dialect's SHA-1 digest call. The result is
// always a 40-character lowercase hex string.
func (d *Dialect) HashExpr(expr string) string {
	return fmt.Sprintf(d.HashFormat, expr)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]*Dialect)
)

// Register adds a dialect to the registry.
func Register(d *Dialect) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[d.Name] = d
}

// Get retrieves a dialect by name.
func Get(name string) (*Dialect, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	d, ok := registry[name]
	return d, ok
}

// List returns all registered dialect names (sorted).
func List() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	// Fabric warehouses speak T-SQL. HASHBYTES returns VARBINARY; style 2
	// converts to bare hex.
	Register(&Dialect{
		Name:          "fabric",
		DefaultSchema: "dbo",
		VarcharType:   "VARCHAR(8000)",
		HashFormat:    "LOWER(CONVERT(CHAR(40), HASHBYTES('SHA1', %s), 2))",
	})
	Register(&Dialect{
		Name:          "duckdb",
		DefaultSchema: "main",
		VarcharType:   "VARCHAR",
		HashFormat:    "sha1(%s)",
	})
	// Postgres needs the pgcrypto extension for digest().
	Register(&Dialect{
		Name:          "postgres",
		DefaultSchema: "public",
		VarcharType:   "VARCHAR",
		HashFormat:    "encode(digest(%s, 'sha1'), 'hex')",
	})
}
