package dag

import (
	"testing"

	"github.com/futureanalytics-io/data-vault-MS-Fabric/pkg/vault"
)

func hubEntity(name string) vault.Entity {
	return vault.Entity{Kind: vault.KindHub, Hub: &vault.Hub{Name: name}}
}

func TestGraph_AddAndDepend(t *testing.T) {
	g := New()
	g.Add(hubEntity("a"))
	g.Add(hubEntity("b"))
	g.Add(hubEntity("c"))

	if g.Len() != 3 {
		t.Errorf("expected 3 nodes, got %d", g.Len())
	}

	if err := g.Depend("a", "b"); err != nil {
		t.Errorf("failed to add edge: %v", err)
	}
	if err := g.Depend("b", "c"); err != nil {
		t.Errorf("failed to add edge: %v", err)
	}

	if got := g.Children("a"); len(got) != 1 || got[0] != "b" {
		t.Errorf("expected a -> [b], got %v", got)
	}
	if got := g.Parents("c"); len(got) != 1 || got[0] != "b" {
		t.Errorf("expected c <- [b], got %v", got)
	}
}

func TestGraph_Depend_UnknownNode(t *testing.T) {
	g := New()
	g.Add(hubEntity("a"))

	if err := g.Depend("a", "nonexistent"); err == nil {
		t.Error("expected error for unknown dependent")
	}
	if err := g.Depend("nonexistent", "a"); err == nil {
		t.Error("expected error for unknown dependency")
	}
}

func TestGraph_Depend_SelfLoop(t *testing.T) {
	g := New()
	g.Add(hubEntity("a"))

	if err := g.Depend("a", "a"); err == nil {
		t.Error("expected error for self-dependency")
	}
}

func TestGraph_Depend_Duplicate(t *testing.T) {
	g := New()
	g.Add(hubEntity("a"))
	g.Add(hubEntity("b"))

	if err := g.Depend("a", "b"); err != nil {
		t.Fatalf("first edge: %v", err)
	}
	if err := g.Depend("a", "b"); err != nil {
		t.Fatalf("duplicate edge: %v", err)
	}
	if got := g.Children("a"); len(got) != 1 {
		t.Errorf("duplicate edge stored twice: %v", got)
	}
}

func TestGraph_Cycle_None(t *testing.T) {
	g := New()
	g.Add(hubEntity("a"))
	g.Add(hubEntity("b"))
	g.Add(hubEntity("c"))
	g.Depend("a", "b")
	g.Depend("b", "c")

	if has, cycle := g.Cycle(); has {
		t.Errorf("unexpected cycle %v", cycle)
	}
}

func TestGraph_Cycle_Detected(t *testing.T) {
	g := New()
	g.Add(hubEntity("a"))
	g.Add(hubEntity("b"))
	g.Add(hubEntity("c"))
	g.Depend("a", "b")
	g.Depend("b", "c")
	g.Depend("c", "a")

	has, cycle := g.Cycle()
	if !has {
		t.Fatal("expected cycle")
	}
	if len(cycle) < 3 {
		t.Errorf("expected cycle path with at least 3 nodes, got %v", cycle)
	}
}

func TestGraph_Sort_DependenciesFirst(t *testing.T) {
	g := New()
	g.Add(hubEntity("sat_customer"))
	g.Add(hubEntity("customer"))
	g.Add(hubEntity("customer_order"))
	g.Add(hubEntity("order"))
	g.Depend("customer", "customer_order")
	g.Depend("order", "customer_order")
	g.Depend("customer", "sat_customer")

	order, err := g.Sort()
	if err != nil {
		t.Fatalf("sort failed: %v", err)
	}
	if len(order) != 4 {
		t.Fatalf("expected 4 entities, got %d", len(order))
	}

	pos := make(map[string]int)
	for i, e := range order {
		pos[e.Name()] = i
	}
	if pos["customer"] > pos["customer_order"] {
		t.Error("customer must sort before customer_order")
	}
	if pos["order"] > pos["customer_order"] {
		t.Error("order must sort before customer_order")
	}
	if pos["customer"] > pos["sat_customer"] {
		t.Error("customer must sort before sat_customer")
	}
}

func TestGraph_Sort_Deterministic(t *testing.T) {
	build := func(names []string) []string {
		g := New()
		for _, n := range names {
			g.Add(hubEntity(n))
		}
		order, err := g.Sort()
		if err != nil {
			t.Fatalf("sort failed: %v", err)
		}
		result := make([]string, len(order))
		for i, e := range order {
			result[i] = e.Name()
		}
		return result
	}

	first := build([]string{"c", "a", "b"})
	second := build([]string{"b", "c", "a"})
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("sort order depends on registration order: %v vs %v", first, second)
		}
	}
}

func TestGraph_Sort_CycleError(t *testing.T) {
	g := New()
	g.Add(hubEntity("a"))
	g.Add(hubEntity("b"))
	g.Depend("a", "b")
	g.Depend("b", "a")

	if _, err := g.Sort(); err == nil {
		t.Error("expected cycle error")
	}
}

func TestGraph_Affected(t *testing.T) {
	g := New()
	g.Add(hubEntity("customer"))
	g.Add(hubEntity("customer_order"))
	g.Add(hubEntity("sat_order"))
	g.Add(hubEntity("unrelated"))
	g.Depend("customer", "customer_order")
	g.Depend("customer_order", "sat_order")

	got := g.Affected([]string{"customer"})
	want := []string{"customer", "customer_order", "sat_order"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}

	if got := g.Affected([]string{"missing"}); len(got) != 0 {
		t.Errorf("unknown name should yield nothing, got %v", got)
	}
}

func TestGraph_Subgraph(t *testing.T) {
	g := New()
	g.Add(hubEntity("a"))
	g.Add(hubEntity("b"))
	g.Add(hubEntity("c"))
	g.Depend("a", "b")
	g.Depend("b", "c")

	sub := g.Subgraph([]string{"a", "b"})
	if sub.Len() != 2 {
		t.Fatalf("expected 2 nodes, got %d", sub.Len())
	}
	if got := sub.Children("a"); len(got) != 1 || got[0] != "b" {
		t.Errorf("expected edge a -> b, got %v", got)
	}
	if got := sub.Children("b"); len(got) != 0 {
		t.Errorf("edge to excluded node kept: %v", got)
	}
}
