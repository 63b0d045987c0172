package vault

import "sort"

// DefaultLoadColumn is the ingestion-timestamp column assumed when neither
// the graph nor the entity overrides it.
const DefaultLoadColumn = "ingestion_ts"

// Graph owns the full mapping from entity name to entity definition across
// all kinds. Entities of the same kind and name replace each other on
// registration; a name colliding across kinds is representable and rejected
// by validation, not silently overwritten. The graph is not safe for
// concurrent mutation; callers serialize registration.
type Graph struct {
	hubs       map[string]Hub
	links      map[string]Link
	satellites map[string]Satellite

	// LoadColumn is the graph-level default ingestion-timestamp column.
	// Empty falls back to DefaultLoadColumn at resolution time, so callers
	// can tell an explicit setting apart from the built-in default.
	LoadColumn string
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		hubs:       make(map[string]Hub),
		links:      make(map[string]Link),
		satellites: make(map[string]Satellite),
	}
}

// AddHub registers a hub, replacing any previous hub of the same name.
func (g *Graph) AddHub(h Hub) { g.hubs[h.Name] = h }

// AddLink registers a link, replacing any previous link of the same name.
func (g *Graph) AddLink(l Link) { g.links[l.Name] = l }

// AddSatellite registers a satellite, replacing any previous satellite of
// the same name.
func (g *Graph) AddSatellite(s Satellite) { g.satellites[s.Name] = s }

// Remove deletes the entity with the given name from every kind. Derived
// stages go away with their owner since stages are never stored on the
// graph.
func (g *Graph) Remove(name string) {
	delete(g.hubs, name)
	delete(g.links, name)
	delete(g.satellites, name)
}

// Hub resolves a hub by name.
func (g *Graph) Hub(name string) (Hub, bool) {
	h, ok := g.hubs[name]
	return h, ok
}

// Link resolves a link by name.
func (g *Graph) Link(name string) (Link, bool) {
	l, ok := g.links[name]
	return l, ok
}

// Satellite resolves a satellite by name.
func (g *Graph) Satellite(name string) (Satellite, bool) {
	s, ok := g.satellites[name]
	return s, ok
}

// Get resolves an entity by name across all kinds. When a name collides
// across kinds (a validation error), hubs win over links over satellites.
func (g *Graph) Get(name string) (Entity, bool) {
	if h, ok := g.hubs[name]; ok {
		return Entity{Kind: KindHub, Hub: &h}, true
	}
	if l, ok := g.links[name]; ok {
		return Entity{Kind: KindLink, Link: &l}, true
	}
	if s, ok := g.satellites[name]; ok {
		return Entity{Kind: KindSatellite, Satellite: &s}, true
	}
	return Entity{}, false
}

// Len returns the number of registered entities.
func (g *Graph) Len() int {
	return len(g.hubs) + len(g.links) + len(g.satellites)
}

// Names returns the names of all registered entities, sorted and
// deduplicated across kinds.
func (g *Graph) Names() []string {
	seen := make(map[string]bool, g.Len())
	names := make([]string, 0, g.Len())
	for name := range g.hubs {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	for name := range g.links {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	for name := range g.satellites {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Entities returns all entities sorted by name, hubs first within a
// colliding name.
func (g *Graph) Entities() []Entity {
	entities := make([]Entity, 0, g.Len())
	for _, name := range sortedKeys(g.hubs) {
		h := g.hubs[name]
		entities = append(entities, Entity{Kind: KindHub, Hub: &h})
	}
	for _, name := range sortedKeys(g.links) {
		l := g.links[name]
		entities = append(entities, Entity{Kind: KindLink, Link: &l})
	}
	for _, name := range sortedKeys(g.satellites) {
		s := g.satellites[name]
		entities = append(entities, Entity{Kind: KindSatellite, Satellite: &s})
	}
	return entities
}

// DuplicateNames returns names registered under more than one kind, sorted.
func (g *Graph) DuplicateNames() []string {
	var dups []string
	for name := range g.hubs {
		if _, ok := g.links[name]; ok {
			dups = append(dups, name)
			continue
		}
		if _, ok := g.satellites[name]; ok {
			dups = append(dups, name)
		}
	}
	for name := range g.links {
		if _, ok := g.satellites[name]; ok {
			dups = append(dups, name)
		}
	}
	sort.Strings(dups)
	return dups
}

// EntityLoadColumn resolves the ingestion-timestamp column for an entity:
// the entity override when set, otherwise the graph default.
func (g *Graph) EntityLoadColumn(e Entity) string {
	var override string
	switch e.Kind {
	case KindHub:
		override = e.Hub.LoadColumn
	case KindLink:
		override = e.Link.LoadColumn
	case KindSatellite:
		override = e.Satellite.LoadColumn
	}
	if override != "" {
		return override
	}
	if g.LoadColumn != "" {
		return g.LoadColumn
	}
	return DefaultLoadColumn
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
