// Package codec translates a vault graph to and from its YAML interchange
// form: one record per entity carrying the kind, name, schema, and every
// attribute, plus the graph-level default ingestion-timestamp column.
// Export followed by import reconstructs a graph that validates identically
// and generates byte-identical SQL.
//
// The core never depends on the textual format; this package is the only
// place that knows the documents are YAML.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/futureanalytics-io/data-vault-MS-Fabric/pkg/vault"
)

// Document is the root of the interchange format.
type Document struct {
	DefaultLoadColumn string         `yaml:"default_load_column,omitempty"`
	Entities          []EntityRecord `yaml:"entities"`
}

// EntityRecord is one entity in the interchange document. Kind selects
// which attribute groups are meaningful.
type EntityRecord struct {
	Kind   string `yaml:"kind"`
	Name   string `yaml:"name"`
	Schema string `yaml:"schema,omitempty"`

	// Hub attributes.
	BusinessKeys []string `yaml:"business_keys,omitempty"`

	// Link attributes.
	StageSchema string       `yaml:"stage_schema,omitempty"`
	Anchor      *AnchorDoc   `yaml:"anchor,omitempty"`
	Joins       []HubJoinDoc `yaml:"joins,omitempty"`

	// Satellite attributes.
	Parent  string   `yaml:"parent,omitempty"`
	Columns []string `yaml:"columns,omitempty"`
	Include *bool    `yaml:"include,omitempty"`

	Source     *SourceDoc `yaml:"source,omitempty"`
	LoadColumn string     `yaml:"load_column,omitempty"`
}

// SourceDoc mirrors vault.SourceRef.
type SourceDoc struct {
	Schema  string   `yaml:"schema,omitempty"`
	Table   string   `yaml:"table"`
	Columns []string `yaml:"columns,omitempty"`
}

// AnchorDoc mirrors vault.LinkAnchor.
type AnchorDoc struct {
	Hub          string    `yaml:"hub"`
	Source       SourceDoc `yaml:"source"`
	BusinessKeys []string  `yaml:"business_keys"`
}

// HubJoinDoc mirrors vault.HubJoin.
type HubJoinDoc struct {
	Hub          string        `yaml:"hub"`
	Source       SourceDoc     `yaml:"source"`
	BusinessKeys []string      `yaml:"business_keys"`
	On           []JoinPairDoc `yaml:"on"`
}

// JoinPairDoc mirrors vault.JoinPair.
type JoinPairDoc struct {
	AnchorColumn string `yaml:"anchor_column"`
	JoinColumn   string `yaml:"join_column"`
}

// Encode serializes a graph. Entities are emitted hubs first, then links,
// then satellites, each group sorted by name, so repeated exports of the
// same graph are byte-identical.
func Encode(g *vault.Graph) ([]byte, error) {
	doc := Document{DefaultLoadColumn: g.LoadColumn}
	for _, e := range g.Entities() {
		doc.Entities = append(doc.Entities, toRecord(e))
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode vault config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode vault config: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode reconstructs a graph from interchange bytes. Any malformation is a
// ConfigError and no partial graph is ever returned.
func Decode(data []byte) (*vault.Graph, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, &vault.ConfigError{Reason: "malformed YAML document", Err: err}
	}

	g := vault.NewGraph()
	if doc.DefaultLoadColumn != "" {
		g.LoadColumn = doc.DefaultLoadColumn
	}

	// Two records of the same kind and name would silently overwrite each
	// other; reject the document instead. A name shared across kinds is
	// representable and left for validation to flag.
	seen := make(map[string]bool, len(doc.Entities))
	for i, rec := range doc.Entities {
		if rec.Name == "" {
			return nil, &vault.ConfigError{Reason: fmt.Sprintf("entity %d has no name", i)}
		}
		key := rec.Kind + "/" + rec.Name
		if seen[key] {
			return nil, &vault.ConfigError{Reason: fmt.Sprintf("duplicate %s %q", rec.Kind, rec.Name)}
		}
		seen[key] = true

		switch vault.Kind(rec.Kind) {
		case vault.KindHub:
			g.AddHub(hubFromRecord(rec))
		case vault.KindLink:
			link, err := linkFromRecord(rec)
			if err != nil {
				return nil, err
			}
			g.AddLink(link)
		case vault.KindSatellite:
			g.AddSatellite(satelliteFromRecord(rec))
		default:
			return nil, &vault.ConfigError{Reason: fmt.Sprintf("entity %q has unknown kind %q", rec.Name, rec.Kind)}
		}
	}
	return g, nil
}

// WriteFile exports a graph to path.
func WriteFile(path string, g *vault.Graph) error {
	data, err := Encode(g)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write vault config: %w", err)
	}
	return nil
}

// ReadFile imports a graph from path.
func ReadFile(path string) (*vault.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &vault.ConfigError{Path: path, Reason: "cannot read file", Err: err}
	}
	g, err := Decode(data)
	if err != nil {
		var cfgErr *vault.ConfigError
		if errors.As(err, &cfgErr) {
			cfgErr.Path = path
		}
		return nil, err
	}
	return g, nil
}

func toRecord(e vault.Entity) EntityRecord {
	switch e.Kind {
	case vault.KindHub:
		h := e.Hub
		return EntityRecord{
			Kind:         string(vault.KindHub),
			Name:         h.Name,
			Schema:       h.Schema,
			BusinessKeys: h.BusinessKeys,
			Source:       sourceDoc(h.Source),
			LoadColumn:   h.LoadColumn,
		}
	case vault.KindLink:
		l := e.Link
		rec := EntityRecord{
			Kind:        string(vault.KindLink),
			Name:        l.Name,
			Schema:      l.Schema,
			StageSchema: l.StageSchema,
			Anchor: &AnchorDoc{
				Hub:          l.Anchor.Hub,
				Source:       *sourceDoc(l.Anchor.Source),
				BusinessKeys: l.Anchor.BusinessKeys,
			},
			LoadColumn: l.LoadColumn,
		}
		for _, j := range l.Joins {
			jd := HubJoinDoc{
				Hub:          j.Hub,
				Source:       *sourceDoc(j.Source),
				BusinessKeys: j.BusinessKeys,
			}
			for _, p := range j.On {
				jd.On = append(jd.On, JoinPairDoc{AnchorColumn: p.AnchorColumn, JoinColumn: p.JoinColumn})
			}
			rec.Joins = append(rec.Joins, jd)
		}
		return rec
	default:
		s := e.Satellite
		include := s.Include
		return EntityRecord{
			Kind:       string(vault.KindSatellite),
			Name:       s.Name,
			Schema:     s.Schema,
			Parent:     s.Parent,
			Columns:    s.Columns,
			Include:    &include,
			Source:     sourceDoc(s.Source),
			LoadColumn: s.LoadColumn,
		}
	}
}

func sourceDoc(s vault.SourceRef) *SourceDoc {
	if s.Table == "" && s.Schema == "" && len(s.Columns) == 0 {
		return nil
	}
	return &SourceDoc{Schema: s.Schema, Table: s.Table, Columns: s.Columns}
}

func sourceRef(d *SourceDoc) vault.SourceRef {
	if d == nil {
		return vault.SourceRef{}
	}
	return vault.SourceRef{Schema: d.Schema, Table: d.Table, Columns: d.Columns}
}

func hubFromRecord(rec EntityRecord) vault.Hub {
	return vault.Hub{
		Name:         rec.Name,
		Schema:       rec.Schema,
		BusinessKeys: rec.BusinessKeys,
		Source:       sourceRef(rec.Source),
		LoadColumn:   rec.LoadColumn,
	}
}

func linkFromRecord(rec EntityRecord) (vault.Link, error) {
	if rec.Anchor == nil {
		return vault.Link{}, &vault.ConfigError{Reason: fmt.Sprintf("link %q has no anchor", rec.Name)}
	}
	l := vault.Link{
		Name:        rec.Name,
		Schema:      rec.Schema,
		StageSchema: rec.StageSchema,
		Anchor: vault.LinkAnchor{
			Hub:          rec.Anchor.Hub,
			Source:       sourceRef(&rec.Anchor.Source),
			BusinessKeys: rec.Anchor.BusinessKeys,
		},
		LoadColumn: rec.LoadColumn,
	}
	for _, jd := range rec.Joins {
		j := vault.HubJoin{
			Hub:          jd.Hub,
			Source:       sourceRef(&jd.Source),
			BusinessKeys: jd.BusinessKeys,
		}
		for _, p := range jd.On {
			j.On = append(j.On, vault.JoinPair{AnchorColumn: p.AnchorColumn, JoinColumn: p.JoinColumn})
		}
		l.Joins = append(l.Joins, j)
	}
	return l, nil
}

func satelliteFromRecord(rec EntityRecord) vault.Satellite {
	include := true
	if rec.Include != nil {
		include = *rec.Include
	}
	return vault.Satellite{
		Name:       rec.Name,
		Schema:     rec.Schema,
		Parent:     rec.Parent,
		Columns:    rec.Columns,
		Include:    include,
		Source:     sourceRef(rec.Source),
		LoadColumn: rec.LoadColumn,
	}
}
