package query

import (
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/webapp-skeleton/cms/internal/pkg/populate"
)

// Operator is a filter comparison.
type Operator string

const (
	OpEq       Operator = "$eq"
	OpNe       Operator = "$ne"
	OpIn       Operator = "$in"
	OpContains Operator = "$contains"
)

func (o Operator) valid() bool {
	switch o {
	case OpEq, OpNe, OpIn, OpContains:
		return true
	}
	return false
}

// Condition is a single `filters[field][op]=value` clause.
type Condition struct {
	Field  string
	Op     Operator
	Values []string
}

// Pagination selects a page. Zero values mean "use the server default".
type Pagination struct {
	Page     int
	PageSize int
}

// Sort orders results by an attribute.
type Sort struct {
	Field string
	Desc  bool
}

func (s Sort) String() string {
	if s.Desc {
		return s.Field + ":desc"
	}
	return s.Field + ":asc"
}

// Spec is the request-scoped description of a content read.
type Spec struct {
	Filters    []Condition
	Pagination Pagination
	Sort       []Sort
	Populate   populate.Tree
}

// Eq returns an equality condition.
func Eq(field, value string) Condition {
	return Condition{Field: field, Op: OpEq, Values: []string{value}}
}

// WithFilter returns a copy of s with an extra condition.
func (s Spec) WithFilter(c Condition) Spec {
	out := s
	out.Filters = append(append([]Condition(nil), s.Filters...), c)
	return out
}

// WithPopulate returns a copy of s with the populate tree replaced.
func (s Spec) WithPopulate(t populate.Tree) Spec {
	out := s
	out.Populate = t
	return out
}

// Parse reads a Spec from request query values. Unrelated keys are ignored.
func Parse(values url.Values) (Spec, error) {
	tree, err := Decode(values)
	if err != nil {
		return Spec{}, err
	}
	var spec Spec
	if raw, ok := tree["filters"]; ok {
		if spec.Filters, err = parseFilters(raw); err != nil {
			return Spec{}, err
		}
	}
	if raw, ok := tree["pagination"]; ok {
		if spec.Pagination, err = parsePagination(raw); err != nil {
			return Spec{}, err
		}
	}
	if raw, ok := tree["sort"]; ok {
		if spec.Sort, err = parseSort(raw); err != nil {
			return Spec{}, err
		}
	}
	if raw, ok := tree["populate"]; ok {
		if spec.Populate, err = ParsePopulate(raw); err != nil {
			return Spec{}, err
		}
	}
	return spec, nil
}

func parseFilters(raw any) ([]Condition, error) {
	fields, ok := raw.(map[string]any)
	if !ok {
		return nil, Invalid("filters", "expected an object")
	}
	var out []Condition
	for _, field := range sortedKeys(fields) {
		if strings.HasPrefix(field, "$") {
			return nil, Invalid("filters", "logical operator %s is not supported", field)
		}
		switch v := fields[field].(type) {
		case string:
			out = append(out, Condition{Field: field, Op: OpEq, Values: []string{v}})
		case map[string]any:
			for _, op := range sortedKeys(v) {
				operator := Operator(op)
				if !operator.valid() {
					return nil, Invalid("filters["+field+"]", "unsupported operator %s", op)
				}
				vals, err := stringList(v[op])
				if err != nil {
					return nil, Invalid("filters["+field+"]["+op+"]", "%s", err.Message)
				}
				if operator != OpIn && len(vals) != 1 {
					return nil, Invalid("filters["+field+"]["+op+"]", "expected a single value")
				}
				out = append(out, Condition{Field: field, Op: operator, Values: vals})
			}
		default:
			return nil, Invalid("filters["+field+"]", "expected a value or an operator object")
		}
	}
	return out, nil
}

func parsePagination(raw any) (Pagination, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return Pagination{}, Invalid("pagination", "expected an object")
	}
	var p Pagination
	for key, dst := range map[string]*int{"page": &p.Page, "pageSize": &p.PageSize} {
		v, ok := m[key]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return Pagination{}, Invalid("pagination["+key+"]", "expected an integer")
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return Pagination{}, Invalid("pagination["+key+"]", "expected an integer")
		}
		if n < 1 {
			return Pagination{}, Invalid("pagination["+key+"]", "must be at least 1")
		}
		*dst = n
	}
	if p.Page > 1 && p.PageSize > 0 && p.Page-1 > math.MaxInt/p.PageSize {
		return Pagination{}, Invalid("pagination[page]", "is out of range for pageSize %d", p.PageSize)
	}
	return p, nil
}

func parseSort(raw any) ([]Sort, error) {
	items, err := stringList(raw)
	if err != nil {
		return nil, Invalid("sort", "%s", err.Message)
	}
	var out []Sort
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			field, dir, _ := strings.Cut(part, ":")
			s := Sort{Field: strings.TrimSpace(field)}
			switch strings.ToLower(strings.TrimSpace(dir)) {
			case "", "asc":
			case "desc":
				s.Desc = true
			default:
				return nil, Invalid("sort", "unknown direction %q", dir)
			}
			out = append(out, s)
		}
	}
	return out, nil
}

// ParsePopulate accepts every populate form the API documents: `*`, `a,b`,
// lists, `[a]=true`, `[a][populate]=...` recursively.
func ParsePopulate(raw any) (populate.Tree, error) {
	switch v := raw.(type) {
	case string:
		return populateFromString(v), nil
	case []any:
		out := populate.Tree{}
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, Invalid("populate", "list entries must be relation names")
			}
			for k, n := range populateFromString(s) {
				out[k] = n
			}
		}
		return out, nil
	case map[string]any:
		out := populate.Tree{}
		for _, rel := range sortedKeys(v) {
			switch entry := v[rel].(type) {
			case string:
				switch strings.ToLower(strings.TrimSpace(entry)) {
				case "true", "1", "*":
					out[rel] = populate.Leaf()
				case "false", "0":
				default:
					return nil, Invalid("populate["+rel+"]", "expected true, false or an object")
				}
			case map[string]any:
				node := populate.Leaf()
				for _, key := range sortedKeys(entry) {
					switch key {
					case "populate":
						nested, err := ParsePopulate(entry[key])
						if err != nil {
							return nil, err
						}
						node.Populate = nested
					case "fields", "filters", "sort", "count":
					default:
						return nil, Invalid("populate["+rel+"]", "unknown key %q", key)
					}
				}
				out[rel] = node
			default:
				return nil, Invalid("populate["+rel+"]", "expected true, false or an object")
			}
		}
		return out, nil
	}
	return nil, Invalid("populate", "unsupported value")
}

func populateFromString(s string) populate.Tree {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return populate.FromPaths(strings.Split(s, ",")...)
}

// Values encodes the Spec in the bracketed wire format.
func (s Spec) Values() url.Values {
	tree := map[string]any{}
	if len(s.Filters) > 0 {
		filters := map[string]any{}
		for _, c := range s.Filters {
			ops, _ := filters[c.Field].(map[string]any)
			if ops == nil {
				ops = map[string]any{}
				filters[c.Field] = ops
			}
			if c.Op == OpIn {
				ops[string(c.Op)] = append([]string(nil), c.Values...)
			} else if len(c.Values) > 0 {
				ops[string(c.Op)] = c.Values[0]
			}
		}
		tree["filters"] = filters
	}
	pag := map[string]any{}
	if s.Pagination.Page > 0 {
		pag["page"] = s.Pagination.Page
	}
	if s.Pagination.PageSize > 0 {
		pag["pageSize"] = s.Pagination.PageSize
	}
	if len(pag) > 0 {
		tree["pagination"] = pag
	}
	if len(s.Sort) > 0 {
		sorts := make([]any, len(s.Sort))
		for i, so := range s.Sort {
			sorts[i] = so.String()
		}
		tree["sort"] = sorts
	}
	if len(s.Populate) > 0 {
		tree["populate"] = EncodePopulate(s.Populate)
	}
	return Encode(tree)
}

// EncodePopulate renders a tree in the object form, or `*` for the bare wildcard.
func EncodePopulate(t populate.Tree) any {
	if len(t) == 1 && t.Has(populate.Wildcard) && t[populate.Wildcard].Leaf() {
		return populate.Wildcard
	}
	out := map[string]any{}
	for k, n := range t {
		if n.Leaf() {
			out[k] = "true"
			continue
		}
		out[k] = map[string]any{"populate": EncodePopulate(n.Populate)}
	}
	return out
}

func stringList(raw any) ([]string, *ValidationError) {
	switch v := raw.(type) {
	case string:
		return []string{v}, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, &ValidationError{Message: "expected a list of values"}
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, &ValidationError{Message: "expected a value"}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
