package generate

import (
	"fmt"
	"strings"

	"github.com/futureanalytics-io/data-vault-MS-Fabric/pkg/hashkey"
	"github.com/futureanalytics-io/data-vault-MS-Fabric/pkg/vault"
)

// HubStage derives the Standard Stage for a hub: the source's raw columns
// plus load_date, record_source, and the precomputed business-key hash.
func (g *Generator) HubStage(graph *vault.Graph, h vault.Hub) vault.StageDefinition {
	raw := h.Source.Columns
	if len(raw) == 0 {
		raw = h.BusinessKeys
	}
	loadCol := graph.EntityLoadColumn(vault.Entity{Kind: vault.KindHub, Hub: &h})
	return vault.StageDefinition{
		Owner:      h.Name,
		OwnerKind:  vault.KindHub,
		Schema:     h.Schema,
		Table:      StageTable(h.Name),
		Source:     h.Source,
		RawColumns: raw,
		LoadColumn: loadCol,
		Computed: []vault.StageColumn{
			{Name: LoadDateColumn, Expr: loadCol},
			{Name: RecordSourceColumn, Expr: sqlLiteral(h.Source.Qualified())},
			{Name: HashKeyColumn(h.Name), Expr: hashkey.KeyExpr(g.dialect, h.BusinessKeys)},
		},
	}
}

// HubStageSQL renders the Standard Stage SELECT for a hub.
func (g *Generator) HubStageSQL(graph *vault.Graph, h vault.Hub) string {
	def := g.HubStage(graph, h)

	var cols []string
	cols = append(cols, def.RawColumns...)
	for _, c := range def.Computed {
		cols = append(cols, fmt.Sprintf("%s AS %s", c.Expr, c.Name))
	}

	var sb strings.Builder
	sb.WriteString("SELECT\n    ")
	sb.WriteString(strings.Join(cols, ",\n    "))
	sb.WriteString("\nFROM ")
	sb.WriteString(def.Source.Qualified())
	return sb.String()
}

// LinkStage derives the Special Link Stage: the anchor↔join joins are
// performed once and every hub-key hash plus the composite link hash is
// precomputed, so satellites attached to the link read a pre-joined,
// pre-hashed relation instead of repeating the join.
func (g *Generator) LinkStage(graph *vault.Graph, l vault.Link) vault.StageDefinition {
	loadCol := graph.EntityLoadColumn(vault.Entity{Kind: vault.KindLink, Link: &l})

	// Raw columns: the anchor's declared projection (satellites resolve
	// their descriptive set against it), then each joined hub's business
	// keys aliased <hub>_<column>.
	raw := append([]string(nil), l.Anchor.Source.Columns...)
	if len(raw) == 0 {
		raw = append(raw, l.Anchor.BusinessKeys...)
	}

	roles := linkRoles(l)
	composite := qualifyAll("a", l.Anchor.BusinessKeys)
	computed := []vault.StageColumn{
		{Name: LoadDateColumn, Expr: "a." + loadCol},
		{Name: RecordSourceColumn, Expr: sqlLiteral(l.Anchor.Source.Qualified())},
	}
	hubHashes := []vault.StageColumn{
		{Name: HashKeyColumn(roles[0]), Expr: hashkey.KeyExpr(g.dialect, qualifyAll("a", l.Anchor.BusinessKeys))},
	}
	for i, j := range l.Joins {
		alias := joinAlias(i)
		keys := qualifyAll(alias, j.BusinessKeys)
		composite = append(composite, keys...)
		hubHashes = append(hubHashes, vault.StageColumn{
			Name: HashKeyColumn(roles[i+1]),
			Expr: hashkey.KeyExpr(g.dialect, keys),
		})
	}
	computed = append(computed, vault.StageColumn{
		Name: HashKeyColumn(l.Name),
		Expr: hashkey.KeyExpr(g.dialect, composite),
	})
	computed = append(computed, hubHashes...)

	schema := l.StageSchema
	if schema == "" {
		schema = l.Schema
	}
	return vault.StageDefinition{
		Owner:      l.Name,
		OwnerKind:  vault.KindLink,
		Schema:     schema,
		Table:      StageTable(l.Name),
		Source:     l.Anchor.Source,
		RawColumns: raw,
		LoadColumn: loadCol,
		Computed:   computed,
	}
}

// LinkStageSQL renders the Special Link Stage SELECT: anchor source as the
// FROM clause, one INNER JOIN per hub join on its declared predicate.
func (g *Generator) LinkStageSQL(graph *vault.Graph, l vault.Link) string {
	def := g.LinkStage(graph, l)

	roles := linkRoles(l)
	var cols []string
	for _, c := range def.RawColumns {
		cols = append(cols, "a."+c)
	}
	for i, j := range l.Joins {
		alias := joinAlias(i)
		for _, k := range j.BusinessKeys {
			cols = append(cols, fmt.Sprintf("%s.%s AS %s_%s", alias, k, roles[i+1], k))
		}
	}
	for _, c := range def.Computed {
		cols = append(cols, fmt.Sprintf("%s AS %s", c.Expr, c.Name))
	}

	var sb strings.Builder
	sb.WriteString("SELECT\n    ")
	sb.WriteString(strings.Join(cols, ",\n    "))
	sb.WriteString("\nFROM ")
	sb.WriteString(l.Anchor.Source.Qualified())
	sb.WriteString(" a")
	for i, j := range l.Joins {
		alias := joinAlias(i)
		preds := make([]string, len(j.On))
		for pi, pair := range j.On {
			preds[pi] = fmt.Sprintf("a.%s = %s.%s", pair.AnchorColumn, alias, pair.JoinColumn)
		}
		sb.WriteString(fmt.Sprintf("\nINNER JOIN %s %s ON %s",
			j.Source.Qualified(), alias, strings.Join(preds, " AND ")))
	}
	return sb.String()
}

func joinAlias(i int) string {
	return fmt.Sprintf("j%d", i+1)
}

// StageProjection lists the column names a hub's or link's staging view
// projects: the raw columns (role-aliased for joined hub keys), then the
// computed metadata and hash-key columns. Satellites may only select from
// their parent's projection. Nil for entities without a stage.
func StageProjection(graph *vault.Graph, e vault.Entity) []string {
	switch e.Kind {
	case vault.KindHub:
		h := *e.Hub
		cols := append([]string(nil), h.Source.Columns...)
		if len(cols) == 0 {
			cols = append(cols, h.BusinessKeys...)
		}
		return append(cols, LoadDateColumn, RecordSourceColumn, HashKeyColumn(h.Name))
	case vault.KindLink:
		l := *e.Link
		roles := linkRoles(l)
		cols := append([]string(nil), l.Anchor.Source.Columns...)
		if len(cols) == 0 {
			cols = append(cols, l.Anchor.BusinessKeys...)
		}
		for i, j := range l.Joins {
			for _, k := range j.BusinessKeys {
				cols = append(cols, fmt.Sprintf("%s_%s", roles[i+1], k))
			}
		}
		cols = append(cols, LoadDateColumn, RecordSourceColumn, HashKeyColumn(l.Name))
		for _, r := range roles {
			cols = append(cols, HashKeyColumn(r))
		}
		return cols
	}
	return nil
}

// linkRoles names the anchor (index 0) and each join position of a link.
// A hub referenced more than once, as in self and hierarchy links, gets a
// positional suffix so the staged key and hash-key columns stay unique.
func linkRoles(l vault.Link) []string {
	roles := make([]string, 0, len(l.Joins)+1)
	seen := make(map[string]int, len(l.Joins)+1)
	add := func(hub string) {
		seen[hub]++
		if seen[hub] == 1 {
			roles = append(roles, hub)
			return
		}
		roles = append(roles, fmt.Sprintf("%s_%d", hub, seen[hub]))
	}
	add(l.Anchor.Hub)
	for _, j := range l.Joins {
		add(j.Hub)
	}
	return roles
}

func qualifyAll(alias string, columns []string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = alias + "." + c
	}
	return out
}

func sqlLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
