package executor

import (
	"fmt"
	"io"
	"strings"

	"github.com/specialistvlad/gridflow/internal/dag"
)

// PlanNode is a task in the dry-run plan together with its prerequisites.
type PlanNode struct {
	Name         string
	Dependencies []*PlanNode
}

// Plan is the dependency tree printed by a dry run. Roots are the tasks no
// other task depends on; a task shared by several branches appears under
// each of them.
type Plan struct {
	Roots []*PlanNode
}

// NewPlan builds the plan for an acyclic dependency map.
func NewPlan(deps dag.DependencyMap) *Plan {
	var build func(name string) *PlanNode
	build = func(name string) *PlanNode {
		n := &PlanNode{Name: name}
		for _, dep := range deps[name] {
			if _, ok := deps[dep]; !ok {
				continue
			}
			n.Dependencies = append(n.Dependencies, build(dep))
		}
		return n
	}

	p := &Plan{}
	for _, root := range deps.Roots() {
		p.Roots = append(p.Roots, build(root))
	}
	return p
}

// Render writes the plan depth-first, one task per line, indented four
// spaces per level.
func (p *Plan) Render(w io.Writer) error {
	var walk func(n *PlanNode, depth int) error
	walk = func(n *PlanNode, depth int) error {
		if _, err := fmt.Fprintf(w, "%s%s\n", strings.Repeat("    ", depth), n.Name); err != nil {
			return err
		}
		for _, dep := range n.Dependencies {
			if err := walk(dep, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	for _, root := range p.Roots {
		if err := walk(root, 0); err != nil {
			return err
		}
	}
	return nil
}

func (p *Plan) String() string {
	var b strings.Builder
	_ = p.Render(&b)
	return b.String()
}
