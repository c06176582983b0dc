package compiler

import (
	"strings"

	"github.com/roach88/flatbind/internal/ir"
)

// CheckContainment reports records that contain each other by value, which
// no layout can satisfy.
//
// Containment through a pointer or reference is fine and is not an edge.
// The algorithm:
//  1. Build record -> records-held-by-value graph from field types
//  2. Use Tarjan's algorithm to find strongly connected components
//  3. Report each SCC with size > 1 or a self-loop as an E110 error
//
// Nodes are visited in declaration order so the report is deterministic.
func CheckContainment(m *ir.Model) []ValidationError {
	graph, order := buildContainmentGraph(m)

	var errs []ValidationError
	for _, scc := range tarjanSCC(graph, order) {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			path := reconstructCyclePath(scc, graph)
			errs = append(errs, ValidationError{
				Field:   path[0],
				Message: "records contain each other by value: " + strings.Join(path, " -> "),
				Code:    ErrContainmentCycle,
			})
		}
	}
	return errs
}

// containmentGraph maps a record's C++ spelling to the records its fields
// hold by value.
type containmentGraph map[string][]string

func buildContainmentGraph(m *ir.Model) (containmentGraph, []string) {
	graph := make(containmentGraph)
	var order []string
	for i := range m.Decls {
		d := &m.Decls[i]
		if !d.Kind.IsRecord() {
			continue
		}
		key := d.Qualified()
		if _, seen := graph[key]; seen {
			continue
		}
		order = append(order, key)

		// Initialize with empty slice (ensures node exists in graph)
		graph[key] = []string{}
		for _, f := range d.Fields {
			if f.Type.Kind == ir.RefNamed {
				graph[key] = append(graph[key], f.Type.Qualified())
			}
		}
	}
	return graph, order
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph containmentGraph) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm,
// starting from nodes in the given order. Edges to nodes outside the graph
// (enums, unresolved names) are ignored.
func tarjanSCC(graph containmentGraph, order []string) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, ok := graph[w]; !ok {
				continue
			}
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		// If v is a root node, pop the stack and create an SCC
		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	for _, node := range order {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

// reconstructCyclePath returns the shortest closed path through an SCC,
// starting at the member Tarjan popped last (the first one visited).
func reconstructCyclePath(scc []string, graph containmentGraph) []string {
	if len(scc) == 1 {
		return []string{scc[0], scc[0]}
	}

	sccSet := make(map[string]bool, len(scc))
	for _, node := range scc {
		sccSet[node] = true
	}

	start := scc[len(scc)-1]
	prev := make(map[string]string)
	seen := map[string]bool{start: true}
	queue := []string{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range graph[cur] {
			if !sccSet[next] {
				continue
			}
			if next == start {
				var rev []string
				for c := cur; c != start; c = prev[c] {
					rev = append(rev, c)
				}
				path := []string{start}
				for i := len(rev) - 1; i >= 0; i-- {
					path = append(path, rev[i])
				}
				return append(path, start)
			}
			if !seen[next] {
				seen[next] = true
				prev[next] = cur
				queue = append(queue, next)
			}
		}
	}
	return append(scc, scc[0])
}
