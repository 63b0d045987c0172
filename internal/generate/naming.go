// Package generate converts validated vault entities into SQL text. Every
// template is a pure function of the entity, its already-validated
// dependencies, and the target dialect: column lists, join order, and hash
// input order are taken directly from the declared ordered sequences, never
// from map iteration.
package generate

import "github.com/futureanalytics-io/data-vault-MS-Fabric/pkg/vault"

// Metadata column names shared by every staging relation and vault view.
const (
	LoadDateColumn     = "load_date"
	RecordSourceColumn = "record_source"
	HashDiffColumn     = "hash_diff"
)

// HashKeyColumn returns the hash-key column name for a hub or link.
func HashKeyColumn(name string) string {
	return "hk_" + name
}

// StageTable returns the staging table name derived for a hub or link.
// Entity names are unique across the graph, so the prefix cannot collide.
func StageTable(name string) string {
	return "stg_" + name
}

// ViewName returns the vault view name for an entity.
func ViewName(e vault.Entity) string {
	switch e.Kind {
	case vault.KindHub:
		return "hub_" + e.Hub.Name
	case vault.KindLink:
		return "lnk_" + e.Link.Name
	case vault.KindSatellite:
		return "sat_" + e.Satellite.Name
	}
	return ""
}

// qualify joins a schema and relation name.
func qualify(schema, name string) string {
	if schema == "" {
		return name
	}
	return schema + "." + name
}
