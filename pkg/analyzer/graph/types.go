package graph

// Node is a feature in the dependency graph.
type Node struct {
	ID   string `json:"id" toon:"id"`
	Name string `json:"name" toon:"name"`
}

// EdgeType represents the kind of dependency.
type EdgeType string

const (
	// EdgeDependsOn points from a feature to a feature it depends on.
	EdgeDependsOn EdgeType = "depends-on"
)

// String returns the string representation.
func (e EdgeType) String() string {
	return string(e)
}

// Edge represents a dependency between two features.
type Edge struct {
	From string   `json:"from" toon:"from"`
	To   string   `json:"to" toon:"to"`
	Type EdgeType `json:"type" toon:"type"`
}

// DependencyGraph is an explicit adjacency structure over feature IDs, kept
// apart from the features it was built from.
type DependencyGraph struct {
	Nodes []Node `json:"nodes" toon:"nodes"`
	Edges []Edge `json:"edges" toon:"edges"`
	// Unresolved maps a feature ID to dependency names that match no feature.
	Unresolved map[string][]string `json:"unresolved,omitempty" toon:"unresolved,omitempty"`

	index map[string]int
	adj   map[string][]string
}

// NewDependencyGraph creates an empty graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		Nodes:      make([]Node, 0),
		Edges:      make([]Edge, 0),
		Unresolved: make(map[string][]string),
		index:      make(map[string]int),
		adj:        make(map[string][]string),
	}
}

// AddNode adds a node. Adding an existing ID is a no-op.
func (g *DependencyGraph) AddNode(node Node) {
	if _, ok := g.index[node.ID]; ok {
		return
	}
	g.index[node.ID] = len(g.Nodes)
	g.Nodes = append(g.Nodes, node)
}

// AddEdge adds an edge between two known nodes. Repeated edges are ignored.
func (g *DependencyGraph) AddEdge(edge Edge) {
	if !g.HasNode(edge.From) || !g.HasNode(edge.To) {
		return
	}
	for _, to := range g.adj[edge.From] {
		if to == edge.To {
			return
		}
	}
	g.adj[edge.From] = append(g.adj[edge.From], edge.To)
	g.Edges = append(g.Edges, edge)
}

// HasNode reports whether the ID is a node of the graph.
func (g *DependencyGraph) HasNode(id string) bool {
	_, ok := g.index[id]
	return ok
}

// Neighbors returns the IDs a node depends on, in insertion order.
func (g *DependencyGraph) Neighbors(id string) []string {
	return g.adj[id]
}
