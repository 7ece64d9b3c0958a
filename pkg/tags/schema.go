package tags

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed catalogue.yaml
var standardCatalogue []byte

// Entry is the binary schema of a named tag.
type Entry struct {
	Name    string
	Section Section
	ID      uint16
	Type    ValueType
}

// Schema maps tag names to their section, id and type. It is never mutated
// after construction and is safe for concurrent reads.
type Schema struct {
	byName map[string]Entry
	byID   map[Section]map[uint16]Entry
}

type catalogue struct {
	Sections []struct {
		Name    string `yaml:"name"`
		Inherit string `yaml:"inherit"`
		Tags    []struct {
			ID   uint16 `yaml:"id"`
			Name string `yaml:"name"`
			Type string `yaml:"type"`
		} `yaml:"tags"`
	} `yaml:"sections"`
}

var standard = mustLoadStandard()

func mustLoadStandard() *Schema {
	s, err := NewSchema(bytes.NewReader(standardCatalogue))
	if err != nil {
		panic(fmt.Sprintf("invalid embedded tag catalogue: %s", err))
	}

	return s
}

// Standard returns the schema built from the embedded standard tag
// catalogue.
func Standard() *Schema {
	return standard
}

// NewSchema builds a schema from a YAML catalogue. Sections are read in
// order and a name keeps the first mapping it was given. Entries without
// both a name and a type are skipped.
func NewSchema(r io.Reader) (*Schema, error) {
	var c catalogue
	if err := yaml.NewDecoder(r).Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to decode tag catalogue: %w", err)
	}

	s := &Schema{
		byName: make(map[string]Entry),
		byID:   make(map[Section]map[uint16]Entry),
	}

	for _, cs := range c.Sections {
		section, ok := ParseSection(cs.Name)
		if !ok {
			return nil, fmt.Errorf("unknown section %q in tag catalogue", cs.Name)
		}

		if _, ok := s.byID[section]; !ok {
			s.byID[section] = make(map[uint16]Entry)
		}

		var entries []Entry
		if cs.Inherit != "" {
			parent, ok := ParseSection(cs.Inherit)
			if !ok {
				return nil, fmt.Errorf("section %s inherits unknown section %q", cs.Name, cs.Inherit)
			}

			for _, id := range sortedIDs(s.byID[parent]) {
				e := s.byID[parent][id]
				e.Section = section
				entries = append(entries, e)
			}
		}

		for _, ct := range cs.Tags {
			if ct.Name == "" || ct.Type == "" {
				continue
			}

			t, ok := ParseValueType(ct.Type)
			if !ok {
				return nil, fmt.Errorf("tag %s has unknown type %q", ct.Name, ct.Type)
			}

			entries = append(entries, Entry{
				Name:    ct.Name,
				Section: section,
				ID:      ct.ID,
				Type:    t,
			})
		}

		for _, e := range entries {
			s.byID[section][e.ID] = e

			if _, exists := s.byName[e.Name]; !exists {
				s.byName[e.Name] = e
			}
		}
	}

	return s, nil
}

// Lookup returns the schema entry for a tag name.
func (s *Schema) Lookup(name string) (Entry, bool) {
	e, ok := s.byName[name]
	return e, ok
}

// Describe returns the entry registered for an id within a section.
func (s *Schema) Describe(section Section, id uint16) (Entry, bool) {
	e, ok := s.byID[section][id]
	return e, ok
}

// Name returns the tag name for an id within a section, or the decimal id
// when the tag is not in the catalogue.
func (s *Schema) Name(section Section, id uint16) string {
	if e, ok := s.byID[section][id]; ok {
		return e.Name
	}

	return strconv.Itoa(int(id))
}
