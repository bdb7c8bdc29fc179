package plugin

// Ordering is the result of ordering a set of descriptors.
type Ordering struct {
	// IDs lists plugins with each discovered dependency before its dependents.
	IDs []string
	// Cycles reports every dependency cycle found.
	Cycles []CircularDependencyWarning
	// Warnings holds missing dependencies and version conflicts.
	Warnings []error
}

// OrderDescriptors computes the initialization order of descs. Dependencies that
// are not among descs are ignored for ordering and reported as warnings.
func OrderDescriptors(descs []Descriptor) Ordering {
	graph := NewDependencyGraph()
	byID := make(map[string]Descriptor, len(descs))
	for _, d := range descs {
		graph.AddNode(d.ID)
		byID[d.ID] = d
	}

	var warnings []error
	for _, d := range descs {
		for _, dep := range d.Dependencies {
			target, ok := byID[dep.ID]
			if !ok {
				warnings = append(warnings, MissingDependencyWarning{Plugin: d.ID, Dependency: dep.ID})
				continue
			}
			if dep.Constraint != nil && !dep.Constraint.Satisfies(target.Version) {
				warnings = append(warnings, VersionConflictWarning{
					Plugin:        d.ID,
					Dependency:    dep.ID,
					Constraint:    dep.Constraint.String(),
					ActualVersion: target.Version,
				})
			}
			graph.AddEdge(d.ID, dep.ID)
		}
	}

	ids, cycles := graph.Order()
	return Ordering{IDs: ids, Cycles: cycles, Warnings: warnings}
}
