package populate

import (
	"sort"
	"strings"
)

// Wildcard selects every first-level relation of the entity it is applied to.
const Wildcard = "*"

// Node is the selection for a single relation. A node without a nested tree is
// the `true` leaf: the relation is expanded but its own relations are not.
type Node struct {
	Populate Tree
}

// Leaf reports whether the node expands the relation without nested relations.
func (n Node) Leaf() bool { return len(n.Populate) == 0 }

// Tree maps relation names to their selection.
type Tree map[string]Node

// Leaf returns a `true` node.
func Leaf() Node { return Node{} }

// Nested returns a node that also expands the given relations of the target.
func Nested(children Tree) Node { return Node{Populate: children} }

// Of builds a tree of leaves.
func Of(relations ...string) Tree {
	t := make(Tree, len(relations))
	for _, r := range relations {
		r = strings.TrimSpace(r)
		if r != "" {
			t[r] = Leaf()
		}
	}
	return t
}

// All is the `populate=*` tree.
func All() Tree { return Tree{Wildcard: Leaf()} }

// FromPaths builds a tree from dotted relation paths such as "author.profilePicture".
func FromPaths(paths ...string) Tree {
	t := Tree{}
	for _, p := range paths {
		t.add(strings.Split(strings.TrimSpace(p), "."))
	}
	return t
}

func (t Tree) add(parts []string) {
	if len(parts) == 0 || parts[0] == "" {
		return
	}
	node := t[parts[0]]
	if len(parts) > 1 && parts[1] != "" {
		if node.Populate == nil {
			node.Populate = Tree{}
		}
		node.Populate.add(parts[1:])
	}
	t[parts[0]] = node
}

// Has reports whether the relation is selected.
func (t Tree) Has(relation string) bool {
	_, ok := t[relation]
	return ok
}

// Keys returns the relation names in sorted order.
func (t Tree) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a deep copy.
func (t Tree) Clone() Tree {
	if t == nil {
		return nil
	}
	out := make(Tree, len(t))
	for k, n := range t {
		out[k] = Node{Populate: n.Populate.Clone()}
	}
	return out
}

// Equal compares two trees structurally. Nil and empty trees are equal.
func Equal(a, b Tree) bool {
	if len(a) != len(b) {
		return false
	}
	for k, na := range a {
		nb, ok := b[k]
		if !ok || !Equal(na.Populate, nb.Populate) {
			return false
		}
	}
	return true
}

// Merge returns the top-level union of caller and required. On a key present in
// both, required's node is kept whole: callers may add relations but never
// narrow or replace a required one. Nested branches are not merged. Neither
// input is modified.
func Merge(caller, required Tree) Tree {
	out := make(Tree, len(caller)+len(required))
	for k, n := range caller {
		out[k] = Node{Populate: n.Populate.Clone()}
	}
	for k, n := range required {
		out[k] = Node{Populate: n.Populate.Clone()}
	}
	return out
}

// Paths flattens the tree into dotted paths, parents before children, sorted.
func (t Tree) Paths() []string {
	var out []string
	var walk func(prefix string, tree Tree)
	walk = func(prefix string, tree Tree) {
		for _, k := range tree.Keys() {
			p := k
			if prefix != "" {
				p = prefix + "." + k
			}
			out = append(out, p)
			walk(p, tree[k].Populate)
		}
	}
	walk("", t)
	return out
}
