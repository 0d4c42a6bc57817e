package dag

import "sort"

// Reverse returns the map of dependents: for every task, the tasks that
// list it as a dependency. Every key of m is present in the result.
func (m DependencyMap) Reverse() DependencyMap {
	out := make(DependencyMap, len(m))
	for name := range m {
		out[name] = nil
	}
	for name, deps := range m {
		for _, dep := range deps {
			out[dep] = append(out[dep], name)
		}
	}
	for name := range out {
		sort.Strings(out[name])
	}
	return out
}

// Roots returns the tasks nothing depends on, sorted.
func (m DependencyMap) Roots() []string {
	depended := make(map[string]bool)
	for _, deps := range m {
		for _, dep := range deps {
			depended[dep] = true
		}
	}
	var roots []string
	for name := range m {
		if !depended[name] {
			roots = append(roots, name)
		}
	}
	sort.Strings(roots)
	return roots
}
