// Package expand turns workflow templates into concrete task descriptors
// and checks the result for structural mistakes before anything runs.
package expand

import (
	"sort"

	"github.com/specialistvlad/gridflow/internal/model"
	"github.com/specialistvlad/gridflow/internal/task"
)

// Expand produces the descriptors for every template of def, in template
// order. A template with foreach loops yields one descriptor per element of
// the cross product of its loop variables; a loop over an undeclared
// variable iterates nothing, so the template yields no descriptors.
func Expand(def *model.Definition) []task.Descriptor {
	base := make(map[string]string, len(def.Variables))
	for name, values := range def.Variables {
		base[name] = render(values)
	}

	var out []task.Descriptor
	for _, tmpl := range def.Tasks {
		if len(tmpl.ForEach) == 0 {
			out = append(out, instantiate(tmpl, base))
			continue
		}
		for _, binding := range combinations(tmpl.ForEach, def.Variables) {
			values := make(map[string]string, len(base)+len(binding))
			for k, v := range base {
				values[k] = v
			}
			for k, v := range binding {
				values[k] = v
			}
			out = append(out, instantiate(tmpl, values))
		}
	}
	return out
}

// ExpandAndValidate expands def, validates the result and indexes it.
func ExpandAndValidate(def *model.Definition) (*task.Collection, error) {
	descs := Expand(def)
	if err := Validate(descs); err != nil {
		return nil, err
	}
	return task.NewCollection(descs)
}

// Validate runs every static check and reports all findings together.
func Validate(descs []task.Descriptor) error {
	derr := &DefinitionError{}

	counts := make(map[string]int, len(descs))
	for _, d := range descs {
		counts[d.Name]++
	}
	for name, n := range counts {
		if n > 1 {
			derr.Duplicates = append(derr.Duplicates, name)
		}
	}

	missing := make(map[string]struct{})
	for _, d := range descs {
		for _, dep := range d.Dependencies {
			if _, ok := counts[dep]; !ok {
				missing[dep] = struct{}{}
			}
		}
		if d.Do == nil {
			derr.WithoutActions = append(derr.WithoutActions, d.Name)
		}
	}
	for name := range missing {
		derr.Missing = append(derr.Missing, name)
	}

	if derr.empty() {
		return nil
	}
	sort.Strings(derr.Duplicates)
	sort.Strings(derr.Missing)
	sort.Strings(derr.WithoutActions)
	return derr
}

// combinations returns the cross product of the loop sequences as a list of
// placeholder bindings, first loop varying slowest.
func combinations(loops []model.Loop, vars map[string][]any) []map[string]string {
	result := []map[string]string{{}}
	for _, loop := range loops {
		seq := vars[loop.Variable]
		next := make([]map[string]string, 0, len(result)*len(seq))
		for _, partial := range result {
			for _, item := range seq {
				binding := make(map[string]string, len(partial)+1)
				for k, v := range partial {
					binding[k] = v
				}
				binding[loop.As] = render(item)
				next = append(next, binding)
			}
		}
		result = next
	}
	return result
}

func instantiate(tmpl *model.Task, values map[string]string) task.Descriptor {
	d := task.Descriptor{
		Name:    substitute(tmpl.Name, values),
		Do:      resolveAction(tmpl.Do, values),
		Cleanup: resolveAction(tmpl.Cleanup, values),
	}
	if len(tmpl.DependsOn) > 0 {
		d.Dependencies = make([]string, len(tmpl.DependsOn))
		for i, dep := range tmpl.DependsOn {
			d.Dependencies[i] = substitute(dep, values)
		}
	}
	return d
}

func resolveAction(a *model.Action, values map[string]string) *task.Action {
	if a == nil {
		return nil
	}
	params, _ := substituteValue(a.With, values).(map[string]any)
	if params == nil {
		params = map[string]any{}
	}
	return &task.Action{
		Type:   substitute(a.This, values),
		Params: params,
	}
}
