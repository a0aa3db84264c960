package query

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Decode expands bracketed query keys (`a[b][0]=c`) into nested maps. Objects
// whose keys are all non-negative integers become slices ordered by index.
// Repeated plain keys (`a=1&a=2`) become slices as well.
func Decode(values url.Values) (map[string]any, error) {
	root := map[string]any{}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		path := splitKey(key)
		if len(path) == 0 {
			continue
		}
		vals := values[key]
		var leaf any
		switch len(vals) {
		case 0:
			continue
		case 1:
			leaf = vals[0]
		default:
			list := make([]any, len(vals))
			for i, v := range vals {
				list[i] = v
			}
			leaf = list
		}
		if len(path) > 1 && path[len(path)-1] == "" {
			path = path[:len(path)-1]
			if _, isList := leaf.([]any); !isList {
				leaf = []any{leaf}
			}
		}
		if err := assign(root, path, leaf, key); err != nil {
			return nil, err
		}
	}
	return arrayify(root).(map[string]any), nil
}

// splitKey turns `filters[slug][$eq]` into ["filters", "slug", "$eq"]. A key with
// unbalanced brackets is kept whole.
func splitKey(key string) []string {
	open := strings.IndexByte(key, '[')
	if open <= 0 {
		if key == "" {
			return nil
		}
		return []string{key}
	}
	parts := []string{key[:open]}
	rest := key[open:]
	for rest != "" {
		if rest[0] != '[' {
			return []string{key}
		}
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			return []string{key}
		}
		parts = append(parts, rest[1:end])
		rest = rest[end+1:]
	}
	return parts
}

func assign(node map[string]any, path []string, leaf any, rawKey string) error {
	head := path[0]
	if len(path) == 1 {
		if head == "" {
			head = strconv.Itoa(len(node))
		}
		if existing, ok := node[head]; ok {
			if _, isMap := existing.(map[string]any); isMap {
				return &ValidationError{Key: rawKey, Message: "conflicting value for nested key"}
			}
		}
		node[head] = leaf
		return nil
	}
	if head == "" {
		head = strconv.Itoa(len(node))
	}
	child, ok := node[head]
	if !ok {
		next := map[string]any{}
		node[head] = next
		return assign(next, path[1:], leaf, rawKey)
	}
	next, isMap := child.(map[string]any)
	if !isMap {
		return &ValidationError{Key: rawKey, Message: fmt.Sprintf("%q is both a value and an object", head)}
	}
	return assign(next, path[1:], leaf, rawKey)
}

func arrayify(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	for k, child := range m {
		m[k] = arrayify(child)
	}
	if len(m) == 0 {
		return m
	}
	indexes := make([]int, 0, len(m))
	for k := range m {
		i, err := strconv.Atoi(k)
		if err != nil || i < 0 {
			return m
		}
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)
	out := make([]any, 0, len(indexes))
	for _, i := range indexes {
		out = append(out, m[strconv.Itoa(i)])
	}
	return out
}

// Encode flattens a nested map back into bracketed query keys. url.Values.Encode
// sorts keys, so the encoded form is deterministic.
func Encode(tree map[string]any) url.Values {
	out := url.Values{}
	for k, v := range tree {
		encodeValue(out, k, v)
	}
	return out
}

func encodeValue(out url.Values, prefix string, v any) {
	switch val := v.(type) {
	case nil:
	case map[string]any:
		for k, child := range val {
			encodeValue(out, prefix+"["+k+"]", child)
		}
	case []any:
		for i, child := range val {
			encodeValue(out, prefix+"["+strconv.Itoa(i)+"]", child)
		}
	case []string:
		for i, child := range val {
			out.Set(prefix+"["+strconv.Itoa(i)+"]", child)
		}
	case string:
		out.Set(prefix, val)
	case bool:
		out.Set(prefix, strconv.FormatBool(val))
	case int:
		out.Set(prefix, strconv.Itoa(val))
	default:
		out.Set(prefix, fmt.Sprint(val))
	}
}
