package graph

import "errors"

var (
	ErrNodeNotFound = errors.New("[graph] node does not exist")
	ErrEdgeNotFound = errors.New("[graph] edge does not exist")
)

// Edge is undirected, (A, B) and (B, A) are the same edge.
type Edge struct {
	A uint64
	B uint64
}

func (e Edge) Equal(o Edge) bool {
	return (e.A == o.A && e.B == o.B) || (e.A == o.B && e.B == o.A)
}

// Has reports whether the node id is one of the edge ends.
func (e Edge) Has(id uint64) bool {
	return e.A == id || e.B == id
}

// Other returns the opposite end of the edge.
func (e Edge) Other(id uint64) uint64 {
	if e.A == id {
		return e.B
	}
	return e.A
}

// Node color 0 means uncolored.
type Node struct {
	ID    uint64
	Color int
	edges []*Edge
}

func (n *Node) Degree() int {
	return len(n.edges)
}

type Graph interface {
	Nodes() []*Node
	Edges() []Edge
	// AddNode returns nil if the node id exists.
	AddNode(id uint64) *Node
	// AddEdge returns false for a self loop or an existed edge.
	// The missing ends are added as nodes.
	AddEdge(edge Edge) bool
	AddMultipleEdges(edges []Edge)
	GetNode(id uint64) *Node
	ContainsEdge(edge Edge) bool
	RemoveNode(id uint64) error
	RemoveEdge(edge Edge) error
	NodeCount() int
	EdgeCount() int
	NodeDegree(id uint64) (int, error)
	GraphDegree() int
	Coloring()
	Clear()
}
