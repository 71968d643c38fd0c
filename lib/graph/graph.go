package graph

import (
	"github.com/samber/lo"
)

type graph struct {
	nodes []*Node // insertion order
	index map[uint64]*Node
	edges []*Edge
}

func (g *graph) Nodes() []*Node {
	nodes := make([]*Node, len(g.nodes))
	copy(nodes, g.nodes)
	return nodes
}

func (g *graph) Edges() []Edge {
	return lo.Map(g.edges, func(e *Edge, _ int) Edge {
		return *e
	})
}

func (g *graph) AddNode(id uint64) *Node {
	if _, ok := g.index[id]; ok {
		return nil
	}
	node := &Node{
		ID:    id,
		edges: make([]*Edge, 0, 4),
	}
	g.nodes = append(g.nodes, node)
	g.index[id] = node
	return node
}

func (g *graph) AddEdge(edge Edge) bool {
	if edge.A == edge.B || g.ContainsEdge(edge) {
		return false
	}

	a, b := g.GetNode(edge.A), g.GetNode(edge.B)
	if a == nil {
		a = g.AddNode(edge.A)
	}
	if b == nil {
		b = g.AddNode(edge.B)
	}
	e := &Edge{A: edge.A, B: edge.B}
	a.edges = append(a.edges, e)
	b.edges = append(b.edges, e)
	g.edges = append(g.edges, e)
	return true
}

func (g *graph) AddMultipleEdges(edges []Edge) {
	for _, e := range edges {
		g.AddEdge(e)
	}
}

func (g *graph) GetNode(id uint64) *Node {
	return g.index[id]
}

func (g *graph) findEdge(edge Edge) (*Edge, bool) {
	node := g.GetNode(edge.A)
	if node == nil {
		return nil, false
	}
	return lo.Find(node.edges, func(e *Edge) bool {
		return e.Equal(edge)
	})
}

func (g *graph) ContainsEdge(edge Edge) bool {
	_, ok := g.findEdge(edge)
	return ok
}

func (g *graph) RemoveNode(id uint64) error {
	node := g.GetNode(id)
	if node == nil {
		return ErrNodeNotFound
	}
	// RemoveEdge mutates node.edges.
	for _, e := range lo.Map(node.edges, func(e *Edge, _ int) Edge { return *e }) {
		if err := g.RemoveEdge(e); err != nil {
			return err
		}
	}
	g.nodes = lo.Without(g.nodes, node)
	delete(g.index, id)
	return nil
}

func (g *graph) RemoveEdge(edge Edge) error {
	e, ok := g.findEdge(edge)
	if !ok {
		return ErrEdgeNotFound
	}
	a, b := g.GetNode(e.A), g.GetNode(e.B)
	a.edges = lo.Without(a.edges, e)
	b.edges = lo.Without(b.edges, e)
	g.edges = lo.Without(g.edges, e)
	return nil
}

func (g *graph) NodeCount() int {
	return len(g.nodes)
}

func (g *graph) EdgeCount() int {
	return len(g.edges)
}

func (g *graph) NodeDegree(id uint64) (int, error) {
	node := g.GetNode(id)
	if node == nil {
		return 0, ErrNodeNotFound
	}
	return node.Degree(), nil
}

func (g *graph) GraphDegree() int {
	if len(g.nodes) == 0 {
		return 0
	}
	return lo.MaxBy(g.nodes, func(a, b *Node) bool {
		return a.Degree() > b.Degree()
	}).Degree()
}

// Coloring is the greedy (first fit) coloring. Nodes are visited in
// insertion order and take the smallest color >= 1 that none of
// their neighbors holds. It needs at most GraphDegree()+1 colors.
func (g *graph) Coloring() {
	for _, node := range g.nodes {
		node.Color = 0
	}
	for _, node := range g.nodes {
		used := lo.Map(node.edges, func(e *Edge, _ int) int {
			return g.index[e.Other(node.ID)].Color
		})
		for c := 1; c <= len(used)+1; c++ {
			if !lo.Contains(used, c) {
				node.Color = c
				break
			}
		}
	}
}

func (g *graph) Clear() {
	clear(g.nodes)
	clear(g.edges)
	g.nodes = g.nodes[:0]
	g.edges = g.edges[:0]
	g.index = make(map[uint64]*Node)
}

func NewGraph() Graph {
	return &graph{
		nodes: make([]*Node, 0, 16),
		index: make(map[uint64]*Node),
		edges: make([]*Edge, 0, 16),
	}
}
