package plugin

import "slices"

// DependencyGraph tracks plugin relationships for initialization ordering.
// Nodes and edges keep the order in which they were added so that ordering is
// stable and follows registration order between unrelated plugins.
type DependencyGraph struct {
	order    []string
	nodes    map[string]struct{}
	outgoing map[string][]string
}

// NewDependencyGraph creates an empty dependency graph.
func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		nodes:    make(map[string]struct{}),
		outgoing: make(map[string][]string),
	}
}

// AddNode ensures the plugin exists within the graph.
func (g *DependencyGraph) AddNode(name string) {
	if _, exists := g.nodes[name]; exists {
		return
	}
	g.nodes[name] = struct{}{}
	g.order = append(g.order, name)
}

// AddEdge records that dependent needs dependency first.
func (g *DependencyGraph) AddEdge(dependent, dependency string) {
	g.AddNode(dependent)
	g.AddNode(dependency)

	if slices.Contains(g.outgoing[dependent], dependency) {
		return
	}
	g.outgoing[dependent] = append(g.outgoing[dependent], dependency)
}

// Order returns every node with its dependencies ahead of it. A dependency
// cycle does not fail the ordering: the edge that closes the cycle is not
// followed, the cycle is reported, and every node still appears exactly once.
func (g *DependencyGraph) Order() ([]string, []CircularDependencyWarning) {
	var (
		result   = make([]string, 0, len(g.order))
		warnings []CircularDependencyWarning
		visited  = make(map[string]bool, len(g.order))
		visiting = make(map[string]bool)
		path     []string
	)

	var visit func(node string)
	visit = func(node string) {
		if visited[node] {
			return
		}
		if visiting[node] {
			idx := slices.Index(path, node)
			warnings = append(warnings, CircularDependencyWarning{Cycle: slices.Clone(path[idx:])})
			return
		}

		visiting[node] = true
		path = append(path, node)
		for _, dependency := range g.outgoing[node] {
			visit(dependency)
		}
		path = path[:len(path)-1]
		delete(visiting, node)

		visited[node] = true
		result = append(result, node)
	}

	for _, node := range g.order {
		visit(node)
	}
	return result, warnings
}
