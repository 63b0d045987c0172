// Package validate checks referential integrity and structural invariants
// across a vault graph before any SQL is generated. The whole graph is
// checked in one pass and every finding is collected, so forward references
// (a link declared before its target hub) are caught deterministically and
// the caller sees the complete issue list instead of the first generation
// failure.
package validate

import (
	"fmt"

	"github.com/futureanalytics-io/data-vault-MS-Fabric/internal/generate"
	"github.com/futureanalytics-io/data-vault-MS-Fabric/pkg/vault"
)

// Issue codes. Stable identifiers for programmatic handling.
const (
	CodeDuplicateName    = "duplicate-name"
	CodeMissingHub       = "missing-hub"
	CodeMissingParent    = "missing-parent"
	CodeParentKind       = "parent-kind"
	CodeEmptyKeys        = "empty-keys"
	CodeEmptyDescriptive = "empty-descriptive"
	CodeMissingColumn    = "missing-column"
	CodeNoSourceColumns  = "no-source-columns"
	CodeSourceMismatch   = "source-mismatch"
)

// Check validates the whole graph and returns every finding. An empty
// result means generation may proceed.
func Check(g *vault.Graph) []vault.Issue {
	var issues []vault.Issue

	for _, name := range g.DuplicateNames() {
		issues = append(issues, blocking(CodeDuplicateName, name,
			"name is registered under more than one entity kind"))
	}

	for _, e := range g.Entities() {
		switch e.Kind {
		case vault.KindHub:
			issues = append(issues, checkHub(g, *e.Hub)...)
		case vault.KindLink:
			issues = append(issues, checkLink(g, *e.Link)...)
		case vault.KindSatellite:
			issues = append(issues, checkSatellite(g, *e.Satellite)...)
		}
	}
	return issues
}

// Blocking filters a finding list down to the blocking issues.
func Blocking(issues []vault.Issue) []vault.Issue {
	var out []vault.Issue
	for _, i := range issues {
		if i.Severity == vault.SeverityBlocking {
			out = append(out, i)
		}
	}
	return out
}

// Downgrade returns a copy of the findings with every blocking issue
// demoted to a warning. Used by the force escape hatch.
func Downgrade(issues []vault.Issue) []vault.Issue {
	out := make([]vault.Issue, len(issues))
	for i, issue := range issues {
		issue.Severity = vault.SeverityWarning
		out[i] = issue
	}
	return out
}

func checkHub(_ *vault.Graph, h vault.Hub) []vault.Issue {
	var issues []vault.Issue
	if len(h.BusinessKeys) == 0 {
		issues = append(issues, blocking(CodeEmptyKeys, h.Name, "hub has no business-key columns"))
	}
	issues = append(issues, checkColumns(h.Name, h.Source, h.BusinessKeys, "business key")...)
	return issues
}

func checkLink(g *vault.Graph, l vault.Link) []vault.Issue {
	var issues []vault.Issue

	if len(l.Anchor.BusinessKeys) == 0 {
		issues = append(issues, blocking(CodeEmptyKeys, l.Name, "link anchor has no business-key columns"))
	}
	if _, ok := g.Hub(l.Anchor.Hub); !ok {
		issues = append(issues, blocking(CodeMissingHub, l.Name,
			fmt.Sprintf("anchor hub %q is not registered", l.Anchor.Hub)))
	}
	issues = append(issues, checkColumns(l.Name, l.Anchor.Source, l.Anchor.BusinessKeys, "anchor business key")...)

	if len(l.Joins) == 0 {
		issues = append(issues, blocking(CodeEmptyKeys, l.Name, "link declares no hub joins"))
	}
	for _, j := range l.Joins {
		if _, ok := g.Hub(j.Hub); !ok {
			issues = append(issues, blocking(CodeMissingHub, l.Name,
				fmt.Sprintf("joined hub %q is not registered", j.Hub)))
		}
		if len(j.BusinessKeys) == 0 {
			issues = append(issues, blocking(CodeEmptyKeys, l.Name,
				fmt.Sprintf("join on hub %q has no business-key columns", j.Hub)))
		}
		if len(j.On) == 0 {
			issues = append(issues, blocking(CodeEmptyKeys, l.Name,
				fmt.Sprintf("join on hub %q has no join predicate", j.Hub)))
		}
		issues = append(issues, checkColumns(l.Name, j.Source, j.BusinessKeys, "join business key")...)

		// Predicate columns must exist on both sides.
		for _, pair := range j.On {
			issues = append(issues, checkColumns(l.Name, l.Anchor.Source,
				[]string{pair.AnchorColumn}, "join predicate (anchor side)")...)
			issues = append(issues, checkColumns(l.Name, j.Source,
				[]string{pair.JoinColumn}, "join predicate (join side)")...)
		}
	}
	return issues
}

func checkSatellite(g *vault.Graph, s vault.Satellite) []vault.Issue {
	var issues []vault.Issue

	parent, ok := g.Get(s.Parent)
	switch {
	case !ok:
		issues = append(issues, blocking(CodeMissingParent, s.Name,
			fmt.Sprintf("parent %q is not registered", s.Parent)))
	case parent.Kind == vault.KindSatellite:
		issues = append(issues, blocking(CodeParentKind, s.Name,
			fmt.Sprintf("parent %q is a satellite; satellites attach to hubs or links", s.Parent)))
	}

	if s.Include && len(s.Columns) == 0 {
		issues = append(issues, blocking(CodeEmptyDescriptive, s.Name,
			"inclusion mode with an empty column list leaves no descriptive columns"))
	}

	if !ok || parent.Kind == vault.KindSatellite {
		// No parent stage to resolve against; fall back to the satellite's
		// own declaration so column typos are still caught.
		if s.Include {
			issues = append(issues, checkColumns(s.Name, s.Source, s.Columns, "descriptive")...)
		}
		return issues
	}

	// The generated view reads the parent's stage, never the satellite's
	// own source. A source of its own must name the same relation.
	parentSrc := parentSource(parent)
	if s.Source.Table != "" && s.Source.Qualified() != parentSrc.Qualified() {
		issues = append(issues, blocking(CodeSourceMismatch, s.Name,
			fmt.Sprintf("source %s differs from parent %q source %s; a satellite reads its parent's stage",
				s.Source.Qualified(), s.Parent, parentSrc.Qualified())))
	}

	if len(parentSrc.Columns) == 0 {
		if s.Include && len(s.Columns) > 0 {
			issues = append(issues, warning(CodeNoSourceColumns, s.Name,
				fmt.Sprintf("parent %q source %s declares no columns; descriptive columns cannot be verified",
					s.Parent, parentSrc.Qualified())))
		}
		return issues
	}

	projected := make(map[string]bool)
	for _, c := range generate.StageProjection(g, parent) {
		projected[c] = true
	}

	if s.Include {
		for _, c := range s.Columns {
			if !projected[c] {
				issues = append(issues, blocking(CodeMissingColumn, s.Name,
					fmt.Sprintf("descriptive column %q is not projected by the stage of parent %q", c, s.Parent)))
			}
		}
		return issues
	}

	// Exclusion mode: every candidate the generator will select must be
	// staged, and the remainder must be non-empty.
	excluded := make(map[string]bool, len(s.Columns))
	for _, c := range s.Columns {
		excluded[c] = true
	}
	candidates := s.Source.Columns
	if len(candidates) == 0 {
		candidates = parentSrc.Columns
	}
	remaining := 0
	for _, c := range candidates {
		if excluded[c] {
			continue
		}
		remaining++
		if !projected[c] {
			issues = append(issues, blocking(CodeMissingColumn, s.Name,
				fmt.Sprintf("descriptive column %q is not projected by the stage of parent %q", c, s.Parent)))
		}
	}
	if remaining == 0 {
		issues = append(issues, blocking(CodeEmptyDescriptive, s.Name,
			"exclusion list removes every source column"))
	}
	return issues
}

// parentSource returns the relation a satellite's parent stages from.
func parentSource(parent vault.Entity) vault.SourceRef {
	switch parent.Kind {
	case vault.KindHub:
		return parent.Hub.Source
	case vault.KindLink:
		return parent.Link.Anchor.Source
	}
	return vault.SourceRef{}
}

// checkColumns verifies that the named columns exist in the source's
// declared projection. A source with no declared columns cannot be checked
// and yields a single warning instead.
func checkColumns(entity string, src vault.SourceRef, columns []string, role string) []vault.Issue {
	if len(columns) == 0 {
		return nil
	}
	if len(src.Columns) == 0 {
		return []vault.Issue{warning(CodeNoSourceColumns, entity,
			fmt.Sprintf("source %s declares no columns; %s columns cannot be verified", src.Qualified(), role))}
	}
	var issues []vault.Issue
	for _, col := range columns {
		if !src.HasColumn(col) {
			issues = append(issues, blocking(CodeMissingColumn, entity,
				fmt.Sprintf("%s column %q does not exist in source %s", role, col, src.Qualified())))
		}
	}
	return issues
}

func blocking(code, entity, msg string) vault.Issue {
	return vault.Issue{Code: code, Severity: vault.SeverityBlocking, Entity: entity, Message: msg}
}

func warning(code, entity, msg string) vault.Issue {
	return vault.Issue{Code: code, Severity: vault.SeverityWarning, Entity: entity, Message: msg}
}
