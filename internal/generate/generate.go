package generate

import (
	"fmt"
	"strings"

	"github.com/futureanalytics-io/data-vault-MS-Fabric/pkg/dialect"
	"github.com/futureanalytics-io/data-vault-MS-Fabric/pkg/hashkey"
	"github.com/futureanalytics-io/data-vault-MS-Fabric/pkg/vault"
)

// Generator renders SQL for vault entities against one dialect. It holds no
// mutable state; the same generator can render any number of graphs.
type Generator struct {
	dialect *dialect.Dialect
}

// New creates a generator for the given dialect.
func New(d *dialect.Dialect) *Generator {
	return &Generator{dialect: d}
}

// SQL renders the vault view SELECT for an entity. The graph must already
// be validated; unresolved references become errors here only because the
// generator stays a pure function with no access to prior validation state.
func (g *Generator) SQL(graph *vault.Graph, e vault.Entity) (string, error) {
	switch e.Kind {
	case vault.KindHub:
		return g.hubSQL(graph, *e.Hub), nil
	case vault.KindLink:
		return g.linkSQL(graph, *e.Link), nil
	case vault.KindSatellite:
		return g.satelliteSQL(graph, *e.Satellite)
	}
	return "", &vault.GenerationError{Entity: e.Name(), Reason: fmt.Sprintf("unknown entity kind %q", e.Kind)}
}

// StageSQL renders the staging SELECT for a hub or link. Satellites have no
// stage of their own; they read their parent's.
func (g *Generator) StageSQL(graph *vault.Graph, e vault.Entity) (string, error) {
	switch e.Kind {
	case vault.KindHub:
		return g.HubStageSQL(graph, *e.Hub), nil
	case vault.KindLink:
		return g.LinkStageSQL(graph, *e.Link), nil
	}
	return "", &vault.GenerationError{Entity: e.Name(), Reason: "only hubs and links have staging relations"}
}

// hubSQL renders the hub view: distinct business keys, deduplicated on the
// hash key. The earliest load_date wins; ties are broken by record_source
// and finally by the raw business-key columns, so the winner is stable even
// when one source delivers normalization-equal variants at the same instant.
func (g *Generator) hubSQL(graph *vault.Graph, h vault.Hub) string {
	hk := HashKeyColumn(h.Name)
	cols := append([]string{hk}, h.BusinessKeys...)
	cols = append(cols, LoadDateColumn, RecordSourceColumn)
	colList := strings.Join(cols, ",\n    ")

	stage := qualify(h.Schema, StageTable(h.Name))

	var sb strings.Builder
	sb.WriteString("SELECT\n    ")
	sb.WriteString(colList)
	sb.WriteString("\nFROM (\n    SELECT\n        ")
	sb.WriteString(strings.Join(cols, ",\n        "))
	sb.WriteString(fmt.Sprintf(",\n        ROW_NUMBER() OVER (PARTITION BY %s ORDER BY %s) AS row_num",
		hk, dedupOrder(h.BusinessKeys)))
	sb.WriteString("\n    FROM ")
	sb.WriteString(stage)
	sb.WriteString("\n) ranked\nWHERE row_num = 1")
	return sb.String()
}

// dedupOrder builds the ORDER BY list for hash-key deduplication: earliest
// load_date first, then record_source, then the given key columns as the
// stable final tie-break.
func dedupOrder(keys []string) string {
	parts := []string{LoadDateColumn + " ASC", RecordSourceColumn + " ASC"}
	for _, k := range keys {
		parts = append(parts, k+" ASC")
	}
	return strings.Join(parts, ", ")
}

// linkSQL renders the link view: the composite hash key plus each component
// hub's hash key, deduplicated on the composite hash with the same
// earliest-load_date rule as hubs.
func (g *Generator) linkSQL(graph *vault.Graph, l vault.Link) string {
	hk := HashKeyColumn(l.Name)
	roles := linkRoles(l)
	cols := []string{hk}
	for _, r := range roles {
		cols = append(cols, HashKeyColumn(r))
	}
	cols = append(cols, LoadDateColumn, RecordSourceColumn)

	// Tie-break on the staged key columns: the anchor's raw keys plus the
	// role-aliased join keys.
	keys := append([]string(nil), l.Anchor.BusinessKeys...)
	for i, j := range l.Joins {
		for _, k := range j.BusinessKeys {
			keys = append(keys, fmt.Sprintf("%s_%s", roles[i+1], k))
		}
	}

	schema := l.StageSchema
	if schema == "" {
		schema = l.Schema
	}
	stage := qualify(schema, StageTable(l.Name))

	var sb strings.Builder
	sb.WriteString("SELECT\n    ")
	sb.WriteString(strings.Join(cols, ",\n    "))
	sb.WriteString("\nFROM (\n    SELECT\n        ")
	sb.WriteString(strings.Join(cols, ",\n        "))
	sb.WriteString(fmt.Sprintf(",\n        ROW_NUMBER() OVER (PARTITION BY %s ORDER BY %s) AS row_num",
		hk, dedupOrder(keys)))
	sb.WriteString("\n    FROM ")
	sb.WriteString(stage)
	sb.WriteString("\n) ranked\nWHERE row_num = 1")
	return sb.String()
}

// satelliteSQL renders the satellite view: the parent hash key, a hash_diff
// over the resolved descriptive set, the descriptive columns, and load_date.
// A row survives only when its hash_diff differs from the previous version
// for the same parent key, so unchanged rows are never re-emitted.
func (g *Generator) satelliteSQL(graph *vault.Graph, s vault.Satellite) (string, error) {
	parent, ok := graph.Get(s.Parent)
	if !ok {
		return "", &vault.GenerationError{Entity: s.Name, Reason: fmt.Sprintf("parent %q is not registered", s.Parent)}
	}
	if parent.Kind == vault.KindSatellite {
		return "", &vault.GenerationError{Entity: s.Name, Reason: fmt.Sprintf("parent %q is a satellite", s.Parent)}
	}

	descriptive, err := g.DescriptiveColumns(graph, s)
	if err != nil {
		return "", err
	}

	stage, err := g.parentStage(graph, parent)
	if err != nil {
		return "", err
	}

	hk := HashKeyColumn(s.Parent)
	diffExpr := hashkey.KeyExpr(g.dialect, descriptive)

	outer := append([]string{hk, HashDiffColumn}, descriptive...)
	outer = append(outer, LoadDateColumn, RecordSourceColumn)

	inner := []string{hk, fmt.Sprintf("%s AS %s", diffExpr, HashDiffColumn)}
	inner = append(inner, descriptive...)
	inner = append(inner, LoadDateColumn, RecordSourceColumn)
	inner = append(inner, fmt.Sprintf("LAG(%s) OVER (PARTITION BY %s ORDER BY %s ASC) AS prev_hash_diff",
		diffExpr, hk, LoadDateColumn))

	var sb strings.Builder
	sb.WriteString("SELECT\n    ")
	sb.WriteString(strings.Join(outer, ",\n    "))
	sb.WriteString("\nFROM (\n    SELECT\n        ")
	sb.WriteString(strings.Join(inner, ",\n        "))
	sb.WriteString("\n    FROM ")
	sb.WriteString(stage)
	sb.WriteString("\n) versioned\nWHERE prev_hash_diff IS NULL OR prev_hash_diff <> hash_diff")
	return sb.String(), nil
}

// DescriptiveColumns resolves a satellite's descriptive set. Inclusion mode
// takes the declared list as-is. Exclusion mode starts from the source's
// declared columns (the parent's source when the satellite declares none)
// and removes the excluded list, the parent's key columns, and the
// ingestion-timestamp column. An empty result is a generation error.
func (g *Generator) DescriptiveColumns(graph *vault.Graph, s vault.Satellite) ([]string, error) {
	if s.Include {
		if len(s.Columns) == 0 {
			return nil, &vault.GenerationError{Entity: s.Name, Reason: "inclusion mode with no descriptive columns"}
		}
		return s.Columns, nil
	}

	parent, ok := graph.Get(s.Parent)
	if !ok {
		return nil, &vault.GenerationError{Entity: s.Name, Reason: fmt.Sprintf("parent %q is not registered", s.Parent)}
	}

	candidates := s.Source.Columns
	drop := make(map[string]bool, len(s.Columns))
	for _, c := range s.Columns {
		drop[c] = true
	}
	switch parent.Kind {
	case vault.KindHub:
		if len(candidates) == 0 {
			candidates = parent.Hub.Source.Columns
		}
		for _, k := range parent.Hub.BusinessKeys {
			drop[k] = true
		}
	case vault.KindLink:
		if len(candidates) == 0 {
			candidates = parent.Link.Anchor.Source.Columns
		}
		for _, k := range parent.Link.Anchor.BusinessKeys {
			drop[k] = true
		}
	}
	drop[graph.EntityLoadColumn(parent)] = true

	var descriptive []string
	for _, c := range candidates {
		if !drop[c] {
			descriptive = append(descriptive, c)
		}
	}
	if len(descriptive) == 0 {
		return nil, &vault.GenerationError{Entity: s.Name, Reason: "no descriptive columns remain after exclusion"}
	}
	return descriptive, nil
}

// parentStage returns the qualified staging relation a satellite reads:
// the Standard Stage for a hub parent, the Special Link Stage for a link
// parent. The join and hash cost were paid once at staging time.
func (g *Generator) parentStage(graph *vault.Graph, parent vault.Entity) (string, error) {
	switch parent.Kind {
	case vault.KindHub:
		return qualify(parent.Hub.Schema, StageTable(parent.Hub.Name)), nil
	case vault.KindLink:
		schema := parent.Link.StageSchema
		if schema == "" {
			schema = parent.Link.Schema
		}
		return qualify(schema, StageTable(parent.Link.Name)), nil
	}
	return "", &vault.GenerationError{Entity: parent.Name(), Reason: "entity has no staging relation"}
}
