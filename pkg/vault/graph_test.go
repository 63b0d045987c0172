package vault

import (
	"reflect"
	"testing"
)

func TestGraph_AddReplacesSameKind(t *testing.T) {
	g := NewGraph()
	g.AddHub(Hub{Name: "customer", BusinessKeys: []string{"id"}})
	g.AddHub(Hub{Name: "customer", BusinessKeys: []string{"customer_id"}})

	if g.Len() != 1 {
		t.Fatalf("expected 1 entity, got %d", g.Len())
	}
	h, ok := g.Hub("customer")
	if !ok {
		t.Fatal("hub not found")
	}
	if !reflect.DeepEqual(h.BusinessKeys, []string{"customer_id"}) {
		t.Errorf("registration did not replace: %v", h.BusinessKeys)
	}
}

func TestGraph_CrossKindCollisionIsRepresentable(t *testing.T) {
	g := NewGraph()
	g.AddHub(Hub{Name: "customer"})
	g.AddSatellite(Satellite{Name: "customer", Parent: "customer"})

	if g.Len() != 2 {
		t.Fatalf("expected both kinds registered, got %d", g.Len())
	}
	if got := g.DuplicateNames(); !reflect.DeepEqual(got, []string{"customer"}) {
		t.Errorf("expected duplicate [customer], got %v", got)
	}

	// Resolution precedence: hub wins.
	e, ok := g.Get("customer")
	if !ok || e.Kind != KindHub {
		t.Errorf("expected hub precedence, got %v", e.Kind)
	}
}

func TestGraph_Remove(t *testing.T) {
	g := NewGraph()
	g.AddHub(Hub{Name: "customer"})
	g.AddSatellite(Satellite{Name: "customer_details", Parent: "customer"})

	g.Remove("customer")
	if _, ok := g.Hub("customer"); ok {
		t.Error("hub still present after remove")
	}
	// Dependents stay registered; validation reports the dangling parent.
	if _, ok := g.Satellite("customer_details"); !ok {
		t.Error("unrelated satellite removed")
	}
}

func TestGraph_EntitiesSorted(t *testing.T) {
	g := NewGraph()
	g.AddSatellite(Satellite{Name: "z_sat", Parent: "b"})
	g.AddLink(Link{Name: "m_link"})
	g.AddHub(Hub{Name: "b"})
	g.AddHub(Hub{Name: "a"})

	entities := g.Entities()
	got := make([]string, len(entities))
	for i, e := range entities {
		got[i] = e.Name()
	}
	want := []string{"a", "b", "m_link", "z_sat"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestGraph_EntityLoadColumn(t *testing.T) {
	g := NewGraph()

	hub := Entity{Kind: KindHub, Hub: &Hub{Name: "customer"}}
	if got := g.EntityLoadColumn(hub); got != DefaultLoadColumn {
		t.Errorf("expected default %q, got %q", DefaultLoadColumn, got)
	}

	g.LoadColumn = "loaded_at"
	if got := g.EntityLoadColumn(hub); got != "loaded_at" {
		t.Errorf("graph default not applied, got %q", got)
	}

	hub.Hub.LoadColumn = "event_ts"
	if got := g.EntityLoadColumn(hub); got != "event_ts" {
		t.Errorf("entity override not applied, got %q", got)
	}
}

func TestSourceRef_Qualified(t *testing.T) {
	src := SourceRef{Schema: "raw", Table: "customers"}
	if got := src.Qualified(); got != "raw.customers" {
		t.Errorf("got %q", got)
	}
	src.Schema = ""
	if got := src.Qualified(); got != "customers" {
		t.Errorf("got %q", got)
	}
}

func TestLink_Hubs(t *testing.T) {
	l := Link{
		Name:   "customer_order",
		Anchor: LinkAnchor{Hub: "customer"},
		Joins: []HubJoin{
			{Hub: "order"},
			{Hub: "store"},
		},
	}
	want := []string{"customer", "order", "store"}
	if got := l.Hubs(); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}
