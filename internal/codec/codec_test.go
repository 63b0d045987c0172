package codec

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/futureanalytics-io/data-vault-MS-Fabric/internal/generate"
	"github.com/futureanalytics-io/data-vault-MS-Fabric/pkg/dialect"
	"github.com/futureanalytics-io/data-vault-MS-Fabric/pkg/vault"
)

func roundtripGraph() *vault.Graph {
	g := vault.NewGraph()
	g.LoadColumn = "loaded_at"
	g.AddHub(vault.Hub{
		Name:         "customer",
		Schema:       "vault",
		BusinessKeys: []string{"customer_id"},
		Source: vault.SourceRef{
			Schema:  "raw",
			Table:   "customers",
			Columns: []string{"customer_id", "name", "email", "loaded_at"},
		},
	})
	g.AddHub(vault.Hub{
		Name:         "order",
		Schema:       "vault",
		BusinessKeys: []string{"order_id"},
		Source: vault.SourceRef{
			Schema:  "raw",
			Table:   "orders",
			Columns: []string{"order_id", "customer_id", "store_id", "total", "loaded_at"},
		},
	})
	g.AddHub(vault.Hub{
		Name:         "store",
		Schema:       "vault",
		BusinessKeys: []string{"store_id"},
		Source: vault.SourceRef{
			Schema:  "raw",
			Table:   "stores",
			Columns: []string{"store_id", "city", "loaded_at"},
		},
	})
	g.AddLink(vault.Link{
		Name:        "order_placement",
		Schema:      "vault",
		StageSchema: "staging",
		Anchor: vault.LinkAnchor{
			Hub:          "order",
			Source:       vault.SourceRef{Schema: "raw", Table: "orders", Columns: []string{"order_id", "customer_id", "store_id", "total", "loaded_at"}},
			BusinessKeys: []string{"order_id"},
		},
		Joins: []vault.HubJoin{
			{
				Hub:          "customer",
				Source:       vault.SourceRef{Schema: "raw", Table: "customers", Columns: []string{"customer_id", "name"}},
				BusinessKeys: []string{"customer_id"},
				On:           []vault.JoinPair{{AnchorColumn: "customer_id", JoinColumn: "customer_id"}},
			},
			{
				Hub:          "store",
				Source:       vault.SourceRef{Schema: "raw", Table: "stores", Columns: []string{"store_id", "city"}},
				BusinessKeys: []string{"store_id"},
				On:           []vault.JoinPair{{AnchorColumn: "store_id", JoinColumn: "store_id"}},
			},
		},
	})
	// Exclusion-mode satellite resolving against its parent's source.
	g.AddSatellite(vault.Satellite{
		Name:    "customer_details",
		Schema:  "vault",
		Parent:  "customer",
		Include: false,
		Columns: []string{"email"},
	})
	return g
}

func TestRoundtrip_IdenticalSQL(t *testing.T) {
	g := roundtripGraph()

	data, err := Encode(g)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	restored, err := Decode(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if restored.LoadColumn != g.LoadColumn {
		t.Errorf("load column lost: %q", restored.LoadColumn)
	}
	if restored.Len() != g.Len() {
		t.Fatalf("entity count changed: %d vs %d", restored.Len(), g.Len())
	}

	d, _ := dialect.Get("fabric")
	gen := generate.New(d)
	for _, e := range g.Entities() {
		want, err := gen.SQL(g, e)
		if err != nil {
			t.Fatalf("generation against original failed for %s: %v", e.Name(), err)
		}
		re, ok := restored.Get(e.Name())
		if !ok {
			t.Fatalf("entity %s missing after roundtrip", e.Name())
		}
		got, err := gen.SQL(restored, re)
		if err != nil {
			t.Fatalf("generation against restored failed for %s: %v", e.Name(), err)
		}
		if got != want {
			t.Errorf("SQL for %s changed across roundtrip:\n--- original\n%s\n--- restored\n%s", e.Name(), want, got)
		}

		if e.Kind == vault.KindSatellite {
			continue
		}
		wantStage, _ := gen.StageSQL(g, e)
		gotStage, _ := gen.StageSQL(restored, re)
		if gotStage != wantStage {
			t.Errorf("stage SQL for %s changed across roundtrip", e.Name())
		}
	}
}

func TestEncode_Deterministic(t *testing.T) {
	g := roundtripGraph()

	first, err := Encode(g)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	second, _ := Encode(g)
	if string(first) != string(second) {
		t.Error("repeated encodes differ")
	}
}

func TestDecode_UnknownKind(t *testing.T) {
	_, err := Decode([]byte("entities:\n  - kind: warehouse\n    name: x\n"))
	var cfgErr *vault.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if !strings.Contains(cfgErr.Reason, "unknown kind") {
		t.Errorf("unexpected reason %q", cfgErr.Reason)
	}
}

func TestDecode_MissingName(t *testing.T) {
	_, err := Decode([]byte("entities:\n  - kind: hub\n"))
	var cfgErr *vault.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestDecode_DuplicateSameKind(t *testing.T) {
	doc := `entities:
  - kind: hub
    name: customer
    business_keys: [customer_id]
  - kind: hub
    name: customer
    business_keys: [id]
`
	_, err := Decode([]byte(doc))
	var cfgErr *vault.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError for same-kind duplicate, got %v", err)
	}
}

func TestDecode_CrossKindDuplicateAllowed(t *testing.T) {
	doc := `entities:
  - kind: hub
    name: customer
    business_keys: [customer_id]
  - kind: satellite
    name: customer
    parent: customer
    include: true
    columns: [name]
`
	g, err := Decode([]byte(doc))
	if err != nil {
		t.Fatalf("cross-kind duplicate must decode (validation flags it): %v", err)
	}
	if g.Len() != 2 {
		t.Errorf("expected 2 entities, got %d", g.Len())
	}
}

func TestDecode_LinkWithoutAnchor(t *testing.T) {
	doc := `entities:
  - kind: link
    name: customer_order
`
	_, err := Decode([]byte(doc))
	var cfgErr *vault.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestDecode_UnknownField(t *testing.T) {
	doc := `entities:
  - kind: hub
    name: customer
    business_keys: [customer_id]
    surrogate_key: nope
`
	if _, err := Decode([]byte(doc)); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestDecode_MalformedYAML(t *testing.T) {
	_, err := Decode([]byte("entities: [\n"))
	var cfgErr *vault.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestDecode_EmptyDocument(t *testing.T) {
	g, err := Decode(nil)
	if err != nil {
		t.Fatalf("empty document must decode to an empty graph: %v", err)
	}
	if g.Len() != 0 {
		t.Errorf("expected empty graph, got %d entities", g.Len())
	}
}

func TestDecode_IncludeDefaultsTrue(t *testing.T) {
	doc := `entities:
  - kind: satellite
    name: customer_details
    parent: customer
    columns: [name]
`
	g, err := Decode([]byte(doc))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	s, ok := g.Satellite("customer_details")
	if !ok {
		t.Fatal("satellite missing")
	}
	if !s.Include {
		t.Error("include should default to true when omitted")
	}
}

func TestReadFile_PathInError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vault.yaml")
	if err := os.WriteFile(path, []byte("entities:\n  - kind: nope\n    name: x\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := ReadFile(path)
	var cfgErr *vault.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
	if cfgErr.Path != path {
		t.Errorf("expected path %q in error, got %q", path, cfgErr.Path)
	}
}

func TestWriteFileReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vault.yaml")

	g := roundtripGraph()
	if err := WriteFile(path, g); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	restored, err := ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if restored.Len() != g.Len() {
		t.Errorf("entity count changed: %d vs %d", restored.Len(), g.Len())
	}
}
