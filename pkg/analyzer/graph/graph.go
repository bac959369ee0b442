// Package graph models dependencies between features and finds cycles and a
// valid implementation order in them.
package graph

import (
	"errors"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/panbanda/reqbdd/pkg/models"
)

// FromFeatures builds the graph with one node per feature and one edge per
// resolved dependency. Dependencies naming no feature are kept in Unresolved.
func FromFeatures(features []models.Feature) *DependencyGraph {
	g := NewDependencyGraph()
	for _, f := range features {
		g.AddNode(Node{ID: f.ID, Name: f.Name})
	}
	for _, f := range features {
		for _, dep := range f.Dependencies {
			if !g.HasNode(dep) {
				g.Unresolved[f.ID] = append(g.Unresolved[f.ID], dep)
				continue
			}
			g.AddEdge(Edge{From: f.ID, To: dep, Type: EdgeDependsOn})
		}
	}
	return g
}

// DetectCycles walks the graph depth-first from every unvisited node in node
// order and reports one cycle per back-edge, as the ID path from the
// back-edge target to its source. The walk keeps its own stack, so deep
// dependency chains cannot exhaust the goroutine stack.
func DetectCycles(g *DependencyGraph) [][]string {
	const (
		unvisited = iota
		onStack
		done
	)

	state := make(map[string]int, len(g.Nodes))
	var cycles [][]string

	type frame struct {
		id   string
		next int
	}

	for _, root := range g.Nodes {
		if state[root.ID] != unvisited {
			continue
		}

		stack := []frame{{id: root.ID}}
		path := []string{root.ID}
		state[root.ID] = onStack

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			neighbors := g.Neighbors(top.id)
			if top.next >= len(neighbors) {
				state[top.id] = done
				stack = stack[:len(stack)-1]
				path = path[:len(path)-1]
				continue
			}

			to := neighbors[top.next]
			top.next++

			switch state[to] {
			case unvisited:
				state[to] = onStack
				stack = append(stack, frame{id: to})
				path = append(path, to)
			case onStack:
				for i := len(path) - 1; i >= 0; i-- {
					if path[i] == to {
						cycles = append(cycles, append([]string(nil), path[i:]...))
						break
					}
				}
			}
		}
	}
	return cycles
}

// ErrCyclic is returned by ImplementationOrder when no valid order exists.
var ErrCyclic = errors.New("feature dependencies contain a cycle")

// ImplementationOrder returns feature IDs so that every feature comes after
// the features it depends on. Independent features keep node order. A cyclic
// graph yields an empty order and ErrCyclic.
func ImplementationOrder(g *DependencyGraph) ([]string, error) {
	dg := simple.NewDirectedGraph()
	for i := range g.Nodes {
		dg.AddNode(simple.Node(int64(i)))
	}
	for _, e := range g.Edges {
		from, to := g.index[e.From], g.index[e.To]
		if from == to {
			return []string{}, ErrCyclic
		}
		// dependency first: edge runs from the dependency to its dependent
		dg.SetEdge(simple.Edge{F: simple.Node(int64(to)), T: simple.Node(int64(from))})
	}

	sorted, err := topo.SortStabilized(dg, byID)
	if err != nil {
		return []string{}, ErrCyclic
	}

	order := make([]string, len(sorted))
	for i, n := range sorted {
		order[i] = g.Nodes[n.ID()].ID
	}
	return order, nil
}

// byID breaks ties between ready nodes by their position in the graph.
func byID(nodes []graph.Node) {
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].ID() < nodes[j].ID()
	})
}
