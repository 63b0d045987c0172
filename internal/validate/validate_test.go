package validate

import (
	"testing"

	"github.com/futureanalytics-io/data-vault-MS-Fabric/pkg/vault"
)

func customerHub() vault.Hub {
	return vault.Hub{
		Name:         "customer",
		BusinessKeys: []string{"customer_id"},
		Source: vault.SourceRef{
			Schema:  "raw",
			Table:   "customers",
			Columns: []string{"customer_id", "name", "email", "ingestion_ts", "record_source"},
		},
	}
}

func orderHub() vault.Hub {
	return vault.Hub{
		Name:         "order",
		BusinessKeys: []string{"order_id"},
		Source: vault.SourceRef{
			Schema:  "raw",
			Table:   "orders",
			Columns: []string{"order_id", "customer_id", "total", "ingestion_ts"},
		},
	}
}

func customerOrderLink() vault.Link {
	return vault.Link{
		Name: "customer_order",
		Anchor: vault.LinkAnchor{
			Hub:          "order",
			Source:       vault.SourceRef{Schema: "raw", Table: "orders", Columns: []string{"order_id", "customer_id", "total", "ingestion_ts"}},
			BusinessKeys: []string{"order_id"},
		},
		Joins: []vault.HubJoin{{
			Hub:          "customer",
			Source:       vault.SourceRef{Schema: "raw", Table: "customers", Columns: []string{"customer_id", "name"}},
			BusinessKeys: []string{"customer_id"},
			On:           []vault.JoinPair{{AnchorColumn: "customer_id", JoinColumn: "customer_id"}},
		}},
	}
}

func hasIssue(issues []vault.Issue, code, entity string) bool {
	for _, i := range issues {
		if i.Code == code && i.Entity == entity {
			return true
		}
	}
	return false
}

func TestCheck_CleanGraph(t *testing.T) {
	g := vault.NewGraph()
	g.AddHub(customerHub())
	g.AddHub(orderHub())
	g.AddLink(customerOrderLink())
	g.AddSatellite(vault.Satellite{
		Name:    "customer_details",
		Parent:  "customer",
		Columns: []string{"name", "email"},
		Include: true,
		Source:  customerHub().Source,
	})

	if issues := Check(g); len(issues) != 0 {
		t.Errorf("expected no issues, got %v", issues)
	}
}

func TestCheck_DuplicateNameAcrossKinds(t *testing.T) {
	g := vault.NewGraph()
	g.AddHub(customerHub())
	g.AddSatellite(vault.Satellite{Name: "customer", Parent: "customer", Include: true, Columns: []string{"name"}})

	issues := Check(g)
	if !hasIssue(issues, CodeDuplicateName, "customer") {
		t.Errorf("expected duplicate-name issue, got %v", issues)
	}
}

func TestCheck_HubWithoutKeys(t *testing.T) {
	g := vault.NewGraph()
	h := customerHub()
	h.BusinessKeys = nil
	g.AddHub(h)

	issues := Check(g)
	if !hasIssue(issues, CodeEmptyKeys, "customer") {
		t.Errorf("expected empty-keys issue, got %v", issues)
	}
}

func TestCheck_HubKeyNotInSource(t *testing.T) {
	g := vault.NewGraph()
	h := customerHub()
	h.BusinessKeys = []string{"no_such_column"}
	g.AddHub(h)

	issues := Check(g)
	if !hasIssue(issues, CodeMissingColumn, "customer") {
		t.Errorf("expected missing-column issue, got %v", issues)
	}
}

func TestCheck_SourceWithoutColumnsWarnsOnly(t *testing.T) {
	g := vault.NewGraph()
	h := customerHub()
	h.Source.Columns = nil
	g.AddHub(h)

	issues := Check(g)
	if !hasIssue(issues, CodeNoSourceColumns, "customer") {
		t.Fatalf("expected no-source-columns warning, got %v", issues)
	}
	if len(Blocking(issues)) != 0 {
		t.Errorf("column warnings must not block, got %v", Blocking(issues))
	}
}

func TestCheck_LinkMissingAnchorHub(t *testing.T) {
	g := vault.NewGraph()
	g.AddHub(customerHub())
	g.AddLink(customerOrderLink()) // anchor hub "order" not registered

	issues := Check(g)
	if !hasIssue(issues, CodeMissingHub, "customer_order") {
		t.Fatalf("expected missing-hub issue, got %v", issues)
	}

	// Registering the hub clears the finding.
	g.AddHub(orderHub())
	issues = Check(g)
	if hasIssue(issues, CodeMissingHub, "customer_order") {
		t.Errorf("issue not cleared after hub registration: %v", issues)
	}
}

func TestCheck_LinkWithoutJoins(t *testing.T) {
	g := vault.NewGraph()
	g.AddHub(orderHub())
	l := customerOrderLink()
	l.Joins = nil
	g.AddLink(l)

	issues := Check(g)
	if !hasIssue(issues, CodeEmptyKeys, "customer_order") {
		t.Errorf("expected empty-keys issue for joinless link, got %v", issues)
	}
}

func TestCheck_LinkJoinPredicateMissingColumn(t *testing.T) {
	g := vault.NewGraph()
	g.AddHub(customerHub())
	g.AddHub(orderHub())
	l := customerOrderLink()
	l.Joins[0].On = []vault.JoinPair{{AnchorColumn: "bogus", JoinColumn: "customer_id"}}
	g.AddLink(l)

	issues := Check(g)
	if !hasIssue(issues, CodeMissingColumn, "customer_order") {
		t.Errorf("expected missing-column for predicate anchor side, got %v", issues)
	}
}

func TestCheck_SatelliteMissingParent(t *testing.T) {
	g := vault.NewGraph()
	g.AddSatellite(vault.Satellite{Name: "customer_details", Parent: "customer", Include: true, Columns: []string{"name"}})

	issues := Check(g)
	if !hasIssue(issues, CodeMissingParent, "customer_details") {
		t.Fatalf("expected missing-parent issue, got %v", issues)
	}

	g.AddHub(customerHub())
	issues = Check(g)
	if hasIssue(issues, CodeMissingParent, "customer_details") {
		t.Errorf("issue not cleared after parent registration: %v", issues)
	}
}

func TestCheck_SatelliteOnSatellite(t *testing.T) {
	g := vault.NewGraph()
	g.AddHub(customerHub())
	g.AddSatellite(vault.Satellite{Name: "first", Parent: "customer", Include: true, Columns: []string{"name"}, Source: customerHub().Source})
	g.AddSatellite(vault.Satellite{Name: "second", Parent: "first", Include: true, Columns: []string{"name"}, Source: customerHub().Source})

	issues := Check(g)
	if !hasIssue(issues, CodeParentKind, "second") {
		t.Errorf("expected parent-kind issue, got %v", issues)
	}
}

func TestCheck_SatelliteEmptyDescriptive(t *testing.T) {
	g := vault.NewGraph()
	g.AddHub(customerHub())

	// Inclusion mode with no columns.
	g.AddSatellite(vault.Satellite{Name: "empty_include", Parent: "customer", Include: true})
	// Exclusion mode that removes everything.
	g.AddSatellite(vault.Satellite{
		Name:    "empty_exclude",
		Parent:  "customer",
		Include: false,
		Columns: []string{"a", "b"},
		Source:  vault.SourceRef{Table: "t", Columns: []string{"a", "b"}},
	})

	issues := Check(g)
	if !hasIssue(issues, CodeEmptyDescriptive, "empty_include") {
		t.Errorf("expected empty-descriptive for inclusion mode, got %v", issues)
	}
	if !hasIssue(issues, CodeEmptyDescriptive, "empty_exclude") {
		t.Errorf("expected empty-descriptive for exclusion mode, got %v", issues)
	}
}

func TestCheck_SatelliteSourceMismatch(t *testing.T) {
	g := vault.NewGraph()
	g.AddHub(customerHub())
	g.AddSatellite(vault.Satellite{
		Name:    "customer_prefs",
		Parent:  "customer",
		Include: true,
		Columns: []string{"newsletter_opt_in"},
		Source: vault.SourceRef{
			Schema:  "raw",
			Table:   "customer_prefs",
			Columns: []string{"customer_id", "newsletter_opt_in", "ingestion_ts"},
		},
	})

	issues := Check(g)
	if !hasIssue(issues, CodeSourceMismatch, "customer_prefs") {
		t.Errorf("expected source-mismatch for satellite on a foreign source, got %v", issues)
	}
	if !hasIssue(issues, CodeMissingColumn, "customer_prefs") {
		t.Errorf("expected missing-column: parent stage cannot project newsletter_opt_in, got %v", issues)
	}
}

func TestCheck_SatelliteColumnNotInParentStage(t *testing.T) {
	g := vault.NewGraph()
	g.AddHub(customerHub())
	// Same source as the parent but naming a column the parent never
	// declared, so the stage cannot project it.
	g.AddSatellite(vault.Satellite{
		Name:    "customer_details",
		Parent:  "customer",
		Include: true,
		Columns: []string{"name", "loyalty_tier"},
		Source:  customerHub().Source,
	})

	issues := Check(g)
	if !hasIssue(issues, CodeMissingColumn, "customer_details") {
		t.Errorf("expected missing-column for unprojected descriptive column, got %v", issues)
	}
}

func TestCheck_SatelliteOnLinkStageAliases(t *testing.T) {
	g := vault.NewGraph()
	g.AddHub(customerHub())
	g.AddHub(orderHub())
	g.AddLink(customerOrderLink())
	// A link satellite may select the role-aliased join key the Special
	// Link Stage projects.
	g.AddSatellite(vault.Satellite{
		Name:    "order_amounts",
		Parent:  "customer_order",
		Include: true,
		Columns: []string{"total", "customer_customer_id"},
	})

	if issues := Blocking(Check(g)); len(issues) != 0 {
		t.Errorf("expected no blocking issues, got %v", issues)
	}
}

func TestDowngrade(t *testing.T) {
	issues := []vault.Issue{
		{Code: CodeMissingParent, Severity: vault.SeverityBlocking},
		{Code: CodeNoSourceColumns, Severity: vault.SeverityWarning},
	}
	downgraded := Downgrade(issues)
	if len(Blocking(downgraded)) != 0 {
		t.Errorf("expected no blocking issues after downgrade, got %v", downgraded)
	}
	// Original slice untouched.
	if issues[0].Severity != vault.SeverityBlocking {
		t.Error("downgrade mutated its input")
	}
}
