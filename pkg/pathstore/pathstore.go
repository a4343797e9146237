// Package pathstore implements a nested, auto-vivifying tree addressed by
// dot-delimited paths. Leaves are int64 counters, bools, or strings; inner
// nodes are Trees.
//
// A literal "." (or "*" or "\") inside a key must be escaped with a backslash
// before the key is joined into a path. Join does this for callers; the
// escaping matches gjson path syntax so a tree marshalled to JSON can be
// queried with the same paths.
package pathstore

import (
	"fmt"
	"sort"
	"strings"
)

const (
	// Separator delimits keys inside a path.
	Separator = '.'
	// Wildcard as a whole path segment matches every key at that level.
	Wildcard = "*"
)

// Tree is one node of the store. The zero value is not usable; use New.
type Tree map[string]any

// New returns an empty tree.
func New() Tree {
	return Tree{}
}

// TypeConversionError is returned when a write meets an existing value of the
// wrong kind, e.g. Increment on a bool or Set through a leaf.
type TypeConversionError struct {
	Path  string
	Value any
	Want  string
}

func (e *TypeConversionError) Error() string {
	return fmt.Sprintf("pathstore: value at %q is %T, not %s", e.Path, e.Value, e.Want)
}

// EscapeKey escapes the characters that carry meaning inside a path.
func EscapeKey(key string) string {
	if !strings.ContainsAny(key, `.*\`) {
		return key
	}
	var b strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Join escapes every key and joins them into a path.
func Join(keys ...string) string {
	escaped := make([]string, len(keys))
	for i, k := range keys {
		escaped[i] = EscapeKey(k)
	}
	return strings.Join(escaped, string(Separator))
}

// Split breaks a path into raw keys, removing escapes. An escaped "*" is
// returned as a literal key; use segments when the wildcard flag matters.
func Split(path string) []string {
	segs := segments(path)
	keys := make([]string, len(segs))
	for i, s := range segs {
		keys[i] = s.key
	}
	return keys
}

type segment struct {
	key      string
	wildcard bool
}

func segments(path string) []segment {
	if path == "" {
		return nil
	}
	var (
		out     []segment
		cur     strings.Builder
		escaped bool
		literal bool
	)
	flush := func() {
		k := cur.String()
		out = append(out, segment{key: k, wildcard: k == Wildcard && !literal})
		cur.Reset()
		literal = false
	}
	for _, r := range path {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
			literal = true
		case r == '\\':
			escaped = true
		case r == Separator:
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	if escaped {
		cur.WriteByte('\\')
	}
	flush()
	return out
}

func asTree(v any) (Tree, bool) {
	switch m := v.(type) {
	case Tree:
		return m, true
	case map[string]any:
		return Tree(m), true
	}
	return nil, false
}

// Lookup returns the value at path and whether it exists. An empty path
// addresses the tree itself.
func (t Tree) Lookup(path string) (any, bool) {
	var cur any = t
	for _, key := range Split(path) {
		node, ok := asTree(cur)
		if !ok {
			return nil, false
		}
		cur, ok = node[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Get returns the value at path, or def when any key along the way is missing.
func (t Tree) Get(path string, def any) any {
	if v, ok := t.Lookup(path); ok {
		return v
	}
	return def
}

// Subtree returns the tree at path, or nil when the path is missing or a leaf.
func (t Tree) Subtree(path string) Tree {
	v, ok := t.Lookup(path)
	if !ok {
		return nil
	}
	sub, _ := asTree(v)
	return sub
}

// parent walks to the node holding the last key of path, creating missing
// intermediate nodes.
func (t Tree) parent(path string) (Tree, string, error) {
	keys := Split(path)
	if len(keys) == 0 {
		return nil, "", fmt.Errorf("pathstore: empty path")
	}
	node := t
	for i, key := range keys[:len(keys)-1] {
		next, ok := node[key]
		if !ok {
			child := Tree{}
			node[key] = child
			node = child
			continue
		}
		child, ok := asTree(next)
		if !ok {
			return nil, "", &TypeConversionError{Path: Join(keys[:i+1]...), Value: next, Want: "map"}
		}
		node = child
	}
	return node, keys[len(keys)-1], nil
}

// Set stores v at path. Ints are widened to int64 so counters compare alike.
func (t Tree) Set(path string, v any) error {
	node, key, err := t.parent(path)
	if err != nil {
		return err
	}
	node[key] = normalize(v)
	return nil
}

// Increment adds one to the counter at path, starting from zero.
func (t Tree) Increment(path string) (int64, error) {
	return t.Accumulate(path, 1)
}

// Accumulate adds delta to the counter at path, starting from zero.
func (t Tree) Accumulate(path string, delta int64) (int64, error) {
	node, key, err := t.parent(path)
	if err != nil {
		return 0, err
	}
	cur, ok := node[key]
	if !ok {
		node[key] = delta
		return delta, nil
	}
	n, ok := Int(cur)
	if !ok {
		return 0, &TypeConversionError{Path: path, Value: cur, Want: "integer"}
	}
	n += delta
	node[key] = n
	return n, nil
}

// Keys returns the sorted keys of the node at path.
func (t Tree) Keys(path string) []string {
	node := t.Subtree(path)
	keys := make([]string, 0, len(node))
	for k := range node {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Match is one concrete location produced by Expand.
type Match struct {
	// Path is the concrete, escaped path of the value.
	Path string
	// Captures holds the keys matched by each wildcard segment, in order.
	Captures []string
	Value    any
}

// Item joins the wildcard captures into a single identifier.
func (m Match) Item() string {
	return strings.Join(m.Captures, string(Separator))
}

// Expand resolves every wildcard segment of path against the keys present in
// the tree. Matches are ordered by key. A path without wildcards yields at
// most one match.
func (t Tree) Expand(path string) []Match {
	var out []Match
	var walk func(cur any, segs []segment, done []string, captures []string)
	walk = func(cur any, segs []segment, done []string, captures []string) {
		if len(segs) == 0 {
			out = append(out, Match{
				Path:     Join(done...),
				Captures: append([]string(nil), captures...),
				Value:    cur,
			})
			return
		}
		node, ok := asTree(cur)
		if !ok {
			return
		}
		seg := segs[0]
		if !seg.wildcard {
			next, ok := node[seg.key]
			if !ok {
				return
			}
			walk(next, segs[1:], append(done, seg.key), captures)
			return
		}
		keys := make([]string, 0, len(node))
		for k := range node {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			walk(node[k], segs[1:], append(done, k), append(captures, k))
		}
	}
	walk(t, segments(path), nil, nil)
	return out
}

// HasWildcard reports whether any segment of path is an unescaped wildcard.
func HasWildcard(path string) bool {
	for _, s := range segments(path) {
		if s.wildcard {
			return true
		}
	}
	return false
}

// Int converts a stored numeric leaf to int64.
func Int(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case float64:
		return int64(n), true
	}
	return 0, false
}

// Count reads a tally: numbers as-is, a node through its "count" key, bools
// as 1 or 0. Anything else counts as zero.
func Count(v any) (int64, bool) {
	if n, ok := Int(v); ok {
		return n, true
	}
	if node, ok := asTree(v); ok {
		return Int(node["count"])
	}
	if b, ok := v.(bool); ok {
		if b {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func normalize(v any) any {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case map[string]any:
		return Tree(n)
	}
	return v
}
