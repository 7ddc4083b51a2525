package compiler

import (
	"fmt"
	"strings"
)

// CycleWarning represents tables that reference each other.
//
// Cycles are warnings, not errors: SQLite checks foreign keys when rows are
// written, so mutually referencing tables can still be created in any
// order.
type CycleWarning struct {
	Path    []string `json:"path"`    // Cycle path: ["a", "b", "a"]
	Message string   `json:"message"` // Human-readable description
	Level   string   `json:"level"`   // "warning" or "info"
}

// CreationOrder sorts tables so that every table follows the tables its
// foreign keys reference, and reports reference cycles.
//
// The algorithm:
//  1. Build the table → referenced tables graph from column references
//  2. Use Tarjan's algorithm to find strongly connected components, which
//     it emits referenced-first
//  3. Report each SCC with size > 1 or self-loops as a cycle warning
//
// Tables in no particular dependency keep their declaration order.
// References to unknown tables are ignored; ValidateSchema reports them.
func CreationOrder(specs []*TableSpec) ([]*TableSpec, []CycleWarning) {
	graph, nodes := buildReferenceGraph(specs)
	sccs := tarjanSCC(graph, nodes)

	byName := make(map[string]*TableSpec, len(specs))
	for _, s := range specs {
		byName[s.Name] = s
	}

	ordered := make([]*TableSpec, 0, len(specs))
	var warnings []CycleWarning
	for _, scc := range sccs {
		if len(scc) > 1 || hasSelfLoop(scc[0], graph) {
			warnings = append(warnings, cycleSCCToWarning(scc, graph))
		}
		for _, name := range scc {
			ordered = append(ordered, byName[name])
		}
	}
	return ordered, warnings
}

// referenceGraph maps table name → names of tables it references.
type referenceGraph map[string][]string

func buildReferenceGraph(specs []*TableSpec) (referenceGraph, []string) {
	graph := make(referenceGraph, len(specs))
	var nodes []string
	for _, s := range specs {
		if _, ok := graph[s.Name]; ok {
			continue
		}
		graph[s.Name] = []string{}
		nodes = append(nodes, s.Name)
	}
	for _, s := range specs {
		for _, c := range s.Columns {
			table, _, ok := strings.Cut(c.References, ".")
			if !ok {
				continue
			}
			if _, known := graph[table]; known {
				graph[s.Name] = append(graph[s.Name], table)
			}
		}
	}
	return graph, nodes
}

// hasSelfLoop checks if a node has an edge to itself.
func hasSelfLoop(node string, graph referenceGraph) bool {
	for _, neighbor := range graph[node] {
		if neighbor == node {
			return true
		}
	}
	return false
}

// tarjanSCC finds strongly connected components using Tarjan's algorithm,
// visiting nodes in the given order so the result is deterministic.
//
// A component is emitted only after every component it reaches.
func tarjanSCC(graph referenceGraph, nodes []string) [][]string {
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

	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}

	return sccs
}

// cycleSCCToWarning converts an SCC to a CycleWarning.
func cycleSCCToWarning(scc []string, graph referenceGraph) CycleWarning {
	if len(scc) == 1 {
		name := scc[0]
		return CycleWarning{
			Path:    []string{name, name},
			Message: fmt.Sprintf("Self-referencing table: %s → %s", name, name),
			Level:   "info",
		}
	}

	path := reconstructCyclePath(scc, graph)
	return CycleWarning{
		Path:    path,
		Message: fmt.Sprintf("Reference cycle detected: %s", strings.Join(path, " → ")),
		Level:   "warning",
	}
}

// reconstructCyclePath builds a cycle path from an SCC.
//
// Strategy: Start at first node in SCC, follow edges to other SCC members,
// continue until we return to start node.
func reconstructCyclePath(scc []string, graph referenceGraph) []string {
	sccSet := make(map[string]bool)
	for _, node := range scc {
		sccSet[node] = true
	}

	start := scc[0]
	current := start
	path := []string{current}
	visited := make(map[string]bool)

	for {
		visited[current] = true

		var next string
		for _, neighbor := range graph[current] {
			if sccSet[neighbor] && (!visited[neighbor] || neighbor == start) {
				next = neighbor
				break
			}
		}
		if next == "" {
			break
		}

		path = append(path, next)
		if next == start {
			break
		}
		current = next
	}

	return path
}
