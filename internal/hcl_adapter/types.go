package hcl_adapter

import "github.com/hashicorp/hcl/v2"

// fileRoot is the top level of a workflow file.
type fileRoot struct {
	Variables hcl.Expression `hcl:"variables,optional"`
	Tasks     []*Task        `hcl:"task,block"`
}

// Task is the HCL schema of a `task "<name>" { ... }` block.
type Task struct {
	Name      string   `hcl:"name,label"`
	DependsOn []string `hcl:"depends_on,optional"`
	ForEach   []*Loop  `hcl:"foreach,block"`
	Do        *Action  `hcl:"do,block"`
	Cleanup   *Action  `hcl:"cleanup,block"`
}

// Loop is the HCL schema of a `foreach { ... }` block.
type Loop struct {
	Variable string `hcl:"variable"`
	As       string `hcl:"as"`
}

// Action is the HCL schema of a `do` or `cleanup` block.
type Action struct {
	This string         `hcl:"this"`
	With hcl.Expression `hcl:"with,optional"`
}
