// Package depgraph records which file declared which dependency during a
// closure resolution.
//
// Unlike a layered DAG, a DLL dependency graph can contain cycles (two DLLs
// importing each other), so no acyclicity is enforced. Node IDs are resolved
// file paths for libraries and the root, and "missing:<name>" for names that
// could not be resolved.
package depgraph

import (
	"errors"
	"maps"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same ID already exists.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the From node
	// does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the To node
	// does not exist.
	ErrUnknownTargetNode = errors.New("unknown target node")
)

// Metadata stores arbitrary key-value pairs attached to nodes.
type Metadata map[string]any

// NodeKind distinguishes the root binary, resolved libraries and unresolved names.
type NodeKind int

const (
	// KindLibrary is a dependency resolved to a file.
	KindLibrary NodeKind = iota
	// KindRoot is the binary the resolution started from.
	KindRoot
	// KindMissing is a dependency name not found on the search path.
	KindMissing
)

// String returns the lower-case kind name used in exports.
func (k NodeKind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindMissing:
		return "missing"
	default:
		return "library"
	}
}

// Node is a file or an unresolved name.
type Node struct {
	ID    string   // Resolved path, or "missing:<name>"
	Label string   // Display name (base name or declared name)
	Kind  NodeKind // Root, library or missing
	Meta  Metadata // Never nil after AddNode
}

// Edge means From declares a dependency on To.
type Edge struct {
	From string
	To   string
}

// Graph is a directed graph of declared dependencies. The zero value is not
// usable; call [New]. Graph is not safe for concurrent use.
type Graph struct {
	nodes    map[string]*Node
	edges    []Edge
	edgeSet  map[Edge]bool
	outgoing map[string][]string
	incoming map[string][]string
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[string]*Node),
		edgeSet:  make(map[Edge]bool),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
	}
}

// MissingID returns the node ID used for an unresolved dependency key.
func MissingID(key string) string { return "missing:" + key }

// AddNode adds n. Returns ErrInvalidNodeID for an empty ID and
// ErrDuplicateNodeID if the ID is taken.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, exists := g.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	if n.Meta == nil {
		n.Meta = Metadata{}
	}
	if n.Label == "" {
		n.Label = n.ID
	}
	g.nodes[n.ID] = &n
	return nil
}

// AddEdge adds from→to between existing nodes. Adding an edge that already
// exists is a no-op. Self-loops are allowed.
func (g *Graph) AddEdge(e Edge) error {
	if _, ok := g.nodes[e.From]; !ok {
		return ErrUnknownSourceNode
	}
	if _, ok := g.nodes[e.To]; !ok {
		return ErrUnknownTargetNode
	}
	if g.edgeSet[e] {
		return nil
	}
	g.edgeSet[e] = true
	g.edges = append(g.edges, e)
	g.outgoing[e.From] = append(g.outgoing[e.From], e.To)
	g.incoming[e.To] = append(g.incoming[e.To], e.From)
	return nil
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns all nodes sorted by ID.
func (g *Graph) Nodes() []*Node {
	ids := slices.Sorted(maps.Keys(g.nodes))
	out := make([]*Node, len(ids))
	for i, id := range ids {
		out[i] = g.nodes[id]
	}
	return out
}

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Children returns the IDs id depends on, in insertion order.
func (g *Graph) Children(id string) []string { return g.outgoing[id] }

// Parents returns the IDs that depend on id, in insertion order.
func (g *Graph) Parents(id string) []string { return g.incoming[id] }
