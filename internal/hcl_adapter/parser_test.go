package hcl_adapter

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/gridflow/internal/ctxlog"
	"github.com/specialistvlad/gridflow/internal/model"
)

func testCtx() context.Context {
	return ctxlog.WithLogger(context.Background(), slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
}

func TestParse(t *testing.T) {
	// --- Arrange ---
	src := `variables = {
  agents = ["ubuntu", "centos"]
  ports  = [80, 443]
}

task "allocate-{agent}" {
  foreach {
    variable = "agents"
    as       = "agent"
  }
  do {
    this = "dummy"
  }
}

task "install-{agent}-{port}" {
  depends_on = ["allocate-{agent}"]
  foreach {
    variable = "agents"
    as       = "agent"
  }
  foreach {
    variable = "ports"
    as       = "port"
  }
  do {
    this = "process"
    with = {
      path = "/usr/bin/python3"
      args = [{ target = "{agent}" }, "provision.py", { port = "{port}" }]
    }
  }
  cleanup {
    this = "process"
    with = { path = "/usr/bin/python3", args = "deprovision.py" }
  }
}
`

	// --- Act ---
	def, err := NewParser().Parse(testCtx(), "wf.hcl", []byte(src))

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, []any{"ubuntu", "centos"}, def.Variables["agents"])
	assert.Equal(t, []any{80, 443}, def.Variables["ports"])
	require.Len(t, def.Tasks, 2)

	want := &model.Task{
		Name:      "install-{agent}-{port}",
		DependsOn: []string{"allocate-{agent}"},
		ForEach:   []model.Loop{{Variable: "agents", As: "agent"}, {Variable: "ports", As: "port"}},
		Do: &model.Action{This: "process", With: map[string]any{
			"path": "/usr/bin/python3",
			"args": []any{
				map[string]any{"target": "{agent}"},
				"provision.py",
				map[string]any{"port": "{port}"},
			},
		}},
		Cleanup: &model.Action{This: "process", With: map[string]any{
			"path": "/usr/bin/python3",
			"args": "deprovision.py",
		}},
		Source: model.Source{File: "wf.hcl", Line: 16},
	}
	if diff := cmp.Diff(want, def.Tasks[1]); diff != "" {
		t.Errorf("decoded task mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 6, def.Tasks[0].Source.Line)
	assert.Nil(t, def.Tasks[0].Do.With)
}

func TestParse_NoVariables(t *testing.T) {
	// --- Arrange ---
	src := "task \"a\" {\n  do {\n    this = \"dummy\"\n  }\n}\n"

	// --- Act ---
	def, err := NewParser().Parse(testCtx(), "wf.hcl", []byte(src))

	// --- Assert ---
	require.NoError(t, err)
	assert.Empty(t, def.Variables)
	require.Len(t, def.Tasks, 1)
	assert.Nil(t, def.Tasks[0].DependsOn)
	assert.Nil(t, def.Tasks[0].Cleanup)
}

func TestParse_Errors(t *testing.T) {
	cases := map[string]struct {
		src  string
		want string
	}{
		"bad syntax":         {"task \"a\" {", "wf.hcl"},
		"unknown attribute":  {"task \"a\" {\n  depends-on = []\n}\n", "Unsupported argument"},
		"variables not list": {"variables = { xs = \"one\" }\n", "variable 'xs' must be a list"},
		"variables scalar":   {"variables = 3\n", "'variables' must be an object"},
		"missing this":       {"task \"a\" {\n  do {\n    this = \"\"\n  }\n}\n", "missing its 'this'"},
		"with not object":    {"task \"a\" {\n  do {\n    this = \"x\"\n    with = [1]\n  }\n}\n", "must be an object"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewParser().Parse(testCtx(), "wf.hcl", []byte(tc.src))
			require.Error(t, err)
			assert.ErrorContains(t, err, tc.want)
			assert.ErrorContains(t, err, "wf.hcl")
		})
	}
}

func TestCtyValueToInterface(t *testing.T) {
	val := cty.ObjectVal(map[string]cty.Value{
		"n":    cty.NumberIntVal(3),
		"f":    cty.NumberFloatVal(1.5),
		"b":    cty.True,
		"s":    cty.StringVal("x"),
		"null": cty.NullVal(cty.String),
		"l":    cty.ListVal([]cty.Value{cty.StringVal("a")}),
	})

	got, err := ctyValueToInterface(val)

	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"n": 3, "f": 1.5, "b": true, "s": "x", "null": nil, "l": []any{"a"},
	}, got)

	_, err = ctyValueToInterface(cty.UnknownVal(cty.String))
	assert.Error(t, err)
}
