package stacklayout

// Node is whatever the active NodeAbstraction chose to key the interference
// graph by; the default abstraction uses Area values, but a finer-grained
// abstraction could use something else. Callers must only ever produce
// comparable values here, since Node is used as a map key.
type Node = any

// IGraph is an undirected interference graph: an edge (a,b) is stored in
// both directions.
type IGraph struct {
	edges map[Node]map[Node]struct{}
}

func NewIGraph() IGraph {
	return IGraph{edges: make(map[Node]map[Node]struct{})}
}

// AddEdge records that a and b interfere. A self-edge is a no-op.
func (g IGraph) AddEdge(a, b Node) {
	if a == b {
		return
	}
	if g.edges[a] == nil {
		g.edges[a] = make(map[Node]struct{})
	}
	if g.edges[b] == nil {
		g.edges[b] = make(map[Node]struct{})
	}
	g.edges[a][b] = struct{}{}
	g.edges[b][a] = struct{}{}
}

// Neighbors returns every node known to interfere with n.
func (g IGraph) Neighbors(n Node) []Node {
	nbrs := g.edges[n]
	out := make([]Node, 0, len(nbrs))
	for nb := range nbrs {
		out = append(out, nb)
	}
	return out
}

func (g IGraph) HasEdge(a, b Node) bool {
	nbrs, ok := g.edges[a]
	if !ok {
		return false
	}
	_, ok = nbrs[b]
	return ok
}
