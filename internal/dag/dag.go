// Package dag orders vault entities for construction. It provides cycle
// detection and a deterministic topological sort over the dependency edges
// the orchestrator declares (hub before referencing link, parent before
// satellite).
package dag

import (
	"fmt"
	"sort"

	"github.com/futureanalytics-io/data-vault-MS-Fabric/pkg/vault"
)

// Graph is a directed acyclic graph of entity names.
type Graph struct {
	nodes    map[string]vault.Entity
	children map[string][]string // dependency -> dependents
	parents  map[string][]string // dependent -> dependencies
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[string]vault.Entity),
		children: make(map[string][]string),
		parents:  make(map[string][]string),
	}
}

// Add inserts an entity node, replacing the stored entity if the name is
// already present.
func (g *Graph) Add(e vault.Entity) {
	name := e.Name()
	if _, ok := g.nodes[name]; !ok {
		g.children[name] = nil
		g.parents[name] = nil
	}
	g.nodes[name] = e
}

// Depend declares that dependent must be built after dependency. Both nodes
// must already exist; self-dependencies are rejected.
func (g *Graph) Depend(dependency, dependent string) error {
	if _, ok := g.nodes[dependency]; !ok {
		return fmt.Errorf("unknown entity %q", dependency)
	}
	if _, ok := g.nodes[dependent]; !ok {
		return fmt.Errorf("unknown entity %q", dependent)
	}
	if dependency == dependent {
		return fmt.Errorf("entity %q depends on itself", dependency)
	}
	if !contains(g.children[dependency], dependent) {
		g.children[dependency] = append(g.children[dependency], dependent)
	}
	if !contains(g.parents[dependent], dependency) {
		g.parents[dependent] = append(g.parents[dependent], dependency)
	}
	return nil
}

// Len returns the node count.
func (g *Graph) Len() int { return len(g.nodes) }

// Parents returns the dependencies of an entity.
func (g *Graph) Parents(name string) []string { return g.parents[name] }

// Children returns the dependents of an entity.
func (g *Graph) Children(name string) []string { return g.children[name] }

// Cycle reports whether the graph contains a dependency cycle, returning
// the cycle path when found.
func (g *Graph) Cycle() (bool, []string) {
	visited := make(map[string]bool)
	inStack := make(map[string]bool)
	cameFrom := make(map[string]string)

	var cycle []string
	var visit func(name string) bool
	visit = func(name string) bool {
		visited[name] = true
		inStack[name] = true
		for _, child := range g.children[name] {
			if !visited[child] {
				cameFrom[child] = name
				if visit(child) {
					return true
				}
			} else if inStack[child] {
				cycle = []string{child}
				for cur := name; cur != child; cur = cameFrom[cur] {
					cycle = append([]string{cur}, cycle...)
				}
				cycle = append([]string{child}, cycle...)
				return true
			}
		}
		inStack[name] = false
		return false
	}

	for name := range g.nodes {
		if !visited[name] && visit(name) {
			return true, cycle
		}
	}
	return false, nil
}

// Sort returns the entities in construction order: every dependency before
// its dependents. Node names are visited in sorted order so the result is
// deterministic regardless of registration order.
func (g *Graph) Sort() ([]vault.Entity, error) {
	if has, cycle := g.Cycle(); has {
		return nil, fmt.Errorf("dependency cycle: %v", cycle)
	}

	visited := make(map[string]bool)
	var order []vault.Entity

	var visit func(name string)
	visit = func(name string) {
		if visited[name] {
			return
		}
		visited[name] = true
		deps := append([]string(nil), g.parents[name]...)
		sort.Strings(deps)
		for _, dep := range deps {
			visit(dep)
		}
		order = append(order, g.nodes[name])
	}

	names := make([]string, 0, len(g.nodes))
	for name := range g.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		visit(name)
	}
	return order, nil
}

// Affected returns the given entities plus all their transitive dependents,
// sorted by name. Unknown names are ignored.
func (g *Graph) Affected(names []string) []string {
	marked := make(map[string]bool)
	var mark func(name string)
	mark = func(name string) {
		if marked[name] {
			return
		}
		marked[name] = true
		for _, child := range g.children[name] {
			mark(child)
		}
	}
	for _, name := range names {
		if _, ok := g.nodes[name]; ok {
			mark(name)
		}
	}

	result := make([]string, 0, len(marked))
	for name := range marked {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// Subgraph returns a new graph restricted to the given names, keeping only
// edges between included nodes.
func (g *Graph) Subgraph(names []string) *Graph {
	sub := New()
	included := make(map[string]bool, len(names))
	for _, name := range names {
		if e, ok := g.nodes[name]; ok {
			included[name] = true
			sub.Add(e)
		}
	}
	for name := range included {
		for _, child := range g.children[name] {
			if included[child] {
				_ = sub.Depend(name, child)
			}
		}
	}
	return sub
}

func contains(slice []string, s string) bool {
	for _, v := range slice {
		if v == s {
			return true
		}
	}
	return false
}
