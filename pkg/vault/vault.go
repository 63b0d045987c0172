// Package vault defines the Data Vault 2.0 entity model: hubs, links,
// satellites, and the staging definitions derived from them. Entities are
// immutable value definitions; registering the same name again replaces the
// previous definition. Entities reference each other by name only, so a
// graph can be serialized and reconstructed without dangling pointers.
package vault

// Kind identifies the entity variant.
type Kind string

const (
	KindStage     Kind = "stage"
	KindHub       Kind = "hub"
	KindLink      Kind = "link"
	KindSatellite Kind = "satellite"
)

// SourceRef references a source table and its declared projected columns.
// Columns may be empty when the caller has no column metadata; validation
// then downgrades column-existence checks to warnings.
type SourceRef struct {
	Schema  string
	Table   string
	Columns []string
}

// Qualified returns the schema-qualified table name.
func (s SourceRef) Qualified() string {
	if s.Schema == "" {
		return s.Table
	}
	return s.Schema + "." + s.Table
}

// HasColumn reports whether the source declares the given column.
// Returns false when no columns are declared.
func (s SourceRef) HasColumn(name string) bool {
	for _, c := range s.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Hub holds the unique business keys for one business concept.
type Hub struct {
	Name         string
	Schema       string
	BusinessKeys []string
	Source       SourceRef
	// LoadColumn overrides the graph default ingestion-timestamp column.
	LoadColumn string
}

// JoinPair maps an anchor-table column to a join-table column in a link
// join predicate.
type JoinPair struct {
	AnchorColumn string
	JoinColumn   string
}

// LinkAnchor is the driving side of a link: the table that forms the FROM
// clause of the link stage, carrying the anchor hub's business keys.
type LinkAnchor struct {
	Hub          string
	Source       SourceRef
	BusinessKeys []string
}

// HubJoin joins one additional hub into a link. The join table is joined to
// the anchor on the declared predicate pairs, in declared order.
type HubJoin struct {
	Hub          string
	Source       SourceRef
	BusinessKeys []string
	On           []JoinPair
}

// Link holds a relationship between two or more hubs' business keys.
type Link struct {
	Name        string
	Schema      string
	StageSchema string
	Anchor      LinkAnchor
	Joins       []HubJoin
	LoadColumn  string
}

// Hubs returns the referenced hub names: the anchor hub first, then the
// joined hubs in declared order.
func (l Link) Hubs() []string {
	hubs := make([]string, 0, len(l.Joins)+1)
	hubs = append(hubs, l.Anchor.Hub)
	for _, j := range l.Joins {
		hubs = append(hubs, j.Hub)
	}
	return hubs
}

// Satellite holds descriptive, time-versioned attributes for a hub or link.
//
// Columns is interpreted per Include: when true, Columns is the descriptive
// set; when false, Columns is excluded and the remainder of the source's
// declared columns (minus key and metadata columns) becomes descriptive.
type Satellite struct {
	Name       string
	Schema     string
	Parent     string
	Columns    []string
	Include    bool
	Source     SourceRef
	LoadColumn string
}

// StageColumn is a computed column added to a staging relation.
type StageColumn struct {
	Name string
	Expr string
}

// StageDefinition is the derived staging relation for a hub or link. It is
// never registered by callers; the generator derives it from the owning
// entity at generation time and it goes away with that entity.
type StageDefinition struct {
	// Owner is the hub or link this stage was derived for.
	Owner       string
	OwnerKind   Kind
	Schema      string
	Table       string
	Source      SourceRef
	RawColumns  []string
	LoadColumn  string
	// Computed holds the metadata columns in emission order: load_date,
	// record_source, then the precomputed hash keys.
	Computed []StageColumn
}

// Entity is the closed tagged union over the registrable entity kinds.
// Exactly one of Hub, Link, Satellite is non-nil.
type Entity struct {
	Kind      Kind
	Hub       *Hub
	Link      *Link
	Satellite *Satellite
}

// Name returns the entity's registered name.
func (e Entity) Name() string {
	switch e.Kind {
	case KindHub:
		return e.Hub.Name
	case KindLink:
		return e.Link.Name
	case KindSatellite:
		return e.Satellite.Name
	}
	return ""
}

// Schema returns the entity's target schema.
func (e Entity) Schema() string {
	switch e.Kind {
	case KindHub:
		return e.Hub.Schema
	case KindLink:
		return e.Link.Schema
	case KindSatellite:
		return e.Satellite.Schema
	}
	return ""
}
