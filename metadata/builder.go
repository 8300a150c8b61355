// Package metadata turns flat property declarations such as
// "snippet.title" or "snippet.tags[]" into the nested video resource sent
// with an upload.
package metadata

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

const listSuffix = "[]"

var (
	// ErrInvalidPath indicates a property key that is not a dotted path.
	ErrInvalidPath = errors.New("metadata: invalid property path")
	// ErrConflict indicates two properties disagree on the shape of a node.
	ErrConflict = errors.New("metadata: conflicting property paths")
)

// Path is a parsed property key.
type Path struct {
	Segments []string
	// List marks a "[]" suffixed key whose value is a comma-delimited list.
	List bool
}

func (p Path) String() string {
	s := strings.Join(p.Segments, ".")
	if p.List {
		s += listSuffix
	}
	return s
}

// ParsePath splits a dotted key into its segments. A trailing "[]" marks
// the final segment as a list.
func ParsePath(key string) (Path, error) {
	var p Path
	rest := strings.TrimSpace(key)
	if strings.HasSuffix(rest, listSuffix) {
		p.List = true
		rest = strings.TrimSuffix(rest, listSuffix)
	}
	if rest == "" {
		return Path{}, fmt.Errorf("%w: %q", ErrInvalidPath, key)
	}

	for _, seg := range strings.Split(rest, ".") {
		if seg == "" || strings.ContainsAny(seg, "[] ") {
			return Path{}, fmt.Errorf("%w: %q", ErrInvalidPath, key)
		}
		p.Segments = append(p.Segments, seg)
	}
	return p, nil
}

// Resource is a nested property map ready to be JSON encoded.
type Resource map[string]any

type nodeKind int

const (
	branchNode nodeKind = iota
	scalarNode
	listNode
)

type node struct {
	kind     nodeKind
	scalar   string
	list     []string
	children map[string]*node
}

func newBranch() *node {
	return &node{kind: branchNode, children: make(map[string]*node)}
}

// Build converts property declarations into a Resource. Scalar properties
// with an empty value are omitted; only the empty string counts as empty,
// so values such as "0" and "false" are kept as given. List properties
// always appear, as an empty list when the value is empty. Keys are applied
// in sorted order so errors are deterministic.
func Build(props map[string]string) (Resource, error) {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	root := newBranch()
	for _, key := range keys {
		path, err := ParsePath(key)
		if err != nil {
			return nil, err
		}
		value := props[key]
		if value == "" && !path.List {
			continue
		}
		if err := root.insert(path, value); err != nil {
			return nil, err
		}
	}
	return root.resource(), nil
}

func (n *node) insert(p Path, value string) error {
	cur := n
	last := len(p.Segments) - 1
	for _, seg := range p.Segments[:last] {
		child, ok := cur.children[seg]
		if !ok {
			child = newBranch()
			cur.children[seg] = child
		} else if child.kind != branchNode {
			return fmt.Errorf("%w: %s passes through a value", ErrConflict, p)
		}
		cur = child
	}

	leafName := p.Segments[last]
	if _, exists := cur.children[leafName]; exists {
		return fmt.Errorf("%w: %s is already set", ErrConflict, p)
	}

	leaf := &node{kind: scalarNode, scalar: value}
	if p.List {
		leaf = &node{kind: listNode, list: splitList(value)}
	}
	cur.children[leafName] = leaf
	return nil
}

func (n *node) resource() Resource {
	out := make(Resource, len(n.children))
	for name, child := range n.children {
		switch child.kind {
		case branchNode:
			out[name] = child.resource()
		case listNode:
			out[name] = child.list
		default:
			out[name] = child.scalar
		}
	}
	return out
}

func splitList(value string) []string {
	items := []string{}
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
