package crud

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/webapp-skeleton/cms/internal/pkg/populate"
	"github.com/webapp-skeleton/cms/internal/pkg/query"
)

// Kind is the value type of an attribute, used to convert filter values.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindBool
	KindTime
)

// Attribute maps an API attribute to its column.
type Attribute struct {
	Column string
	Kind   Kind
}

// Relation maps an API relation to the gorm association that loads it.
type Relation struct {
	Field  string
	Target *Schema
	// Order is applied when preloading ordered component lists.
	Order string
}

// Schema describes one content type for the engine.
type Schema struct {
	Name       string
	Attributes map[string]Attribute
	Relations  map[string]Relation
}

func baseAttributes(extra map[string]Attribute) map[string]Attribute {
	out := map[string]Attribute{
		"id":         {Column: "id", Kind: KindInt},
		"documentId": {Column: "document_id", Kind: KindString},
		"createdAt":  {Column: "created_at", Kind: KindTime},
		"updatedAt":  {Column: "updated_at", Kind: KindTime},
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func componentAttributes(extra map[string]Attribute) map[string]Attribute {
	out := map[string]Attribute{"id": {Column: "id", Kind: KindInt}}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// RelationNames returns the first-level relations in sorted order.
func (s *Schema) RelationNames() []string {
	names := make([]string, 0, len(s.Relations))
	for name := range s.Relations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Expand is the populate tree naming every first-level relation.
func (s *Schema) Expand() populate.Tree {
	return populate.Of(s.RelationNames()...)
}

// Preload is one gorm preload path plus its optional ordering.
type Preload struct {
	Path  string
	Order string
}

// Preloads resolves a populate tree into gorm preload paths, parents first.
// The wildcard selects every first-level relation not named explicitly.
func (s *Schema) Preloads(tree populate.Tree) ([]Preload, error) {
	var out []Preload
	if err := s.collect(tree, "", "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Schema) collect(tree populate.Tree, gormPrefix, apiPrefix string, out *[]Preload) error {
	selected := populate.Tree{}
	for _, key := range tree.Keys() {
		if key == populate.Wildcard {
			continue
		}
		if _, ok := s.Relations[key]; !ok {
			return query.Invalid("populate", "unknown relation %q on %s", apiPrefix+key, s.Name)
		}
		selected[key] = tree[key]
	}
	if tree.Has(populate.Wildcard) {
		for _, name := range s.RelationNames() {
			if !selected.Has(name) {
				selected[name] = populate.Leaf()
			}
		}
	}

	for _, key := range selected.Keys() {
		rel := s.Relations[key]
		path := rel.Field
		if gormPrefix != "" {
			path = gormPrefix + "." + rel.Field
		}
		*out = append(*out, Preload{Path: path, Order: rel.Order})
		if node := selected[key]; !node.Leaf() {
			if err := rel.Target.collect(node.Populate, path, apiPrefix+key+".", out); err != nil {
				return err
			}
		}
	}
	return nil
}

// value converts a raw filter value to the attribute's kind.
func (a Attribute) value(field, raw string) (any, error) {
	switch a.Kind {
	case KindInt:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, query.Invalid("filters["+field+"]", "expected an integer")
		}
		return n, nil
	case KindBool:
		switch strings.ToLower(strings.TrimSpace(raw)) {
		case "true", "1":
			return true, nil
		case "false", "0":
			return false, nil
		}
		return nil, query.Invalid("filters["+field+"]", "expected a boolean")
	case KindTime:
		if t, ok := ParseTime(raw); ok {
			return t, nil
		}
		return nil, query.Invalid("filters["+field+"]", "expected an RFC 3339 timestamp or a date")
	}
	return raw, nil
}

// condition renders c as a where clause with bound arguments.
func (s *Schema) condition(c query.Condition) (string, []any, error) {
	attr, ok := s.Attributes[c.Field]
	if !ok {
		return "", nil, query.Invalid("filters["+c.Field+"]", "unknown attribute on %s", s.Name)
	}
	if c.Op == query.OpContains {
		if attr.Kind != KindString {
			return "", nil, query.Invalid("filters["+c.Field+"]", "$contains needs a text attribute")
		}
		return attr.Column + " LIKE ?", []any{"%" + c.Values[0] + "%"}, nil
	}

	vals := make([]any, 0, len(c.Values))
	for _, raw := range c.Values {
		v, err := attr.value(c.Field, raw)
		if err != nil {
			return "", nil, err
		}
		vals = append(vals, v)
	}
	switch c.Op {
	case query.OpEq:
		return attr.Column + " = ?", vals, nil
	case query.OpNe:
		return attr.Column + " <> ?", vals, nil
	case query.OpIn:
		return attr.Column + " IN ?", []any{vals}, nil
	}
	return "", nil, fmt.Errorf("operator %s not handled", c.Op)
}
