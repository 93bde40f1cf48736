package bytecode

import (
	"testing"

	"github.com/deepnoodle-ai/cilsil/op"
	"github.com/stretchr/testify/require"
)

const listing = `{
  "name": "Demo.dll",
  "methods": [
    {
      "name": "Demo.C::F()",
      "return_type": "System.Int32",
      "source_file": "C.cs",
      "locals": ["System.Int32"],
      "instructions": [
        {"offset": 0, "opcode": "ldc.i4.1", "location": {"line": 3, "column": 9}},
        {"offset": 1, "opcode": "stloc.0"},
        {"offset": 2, "opcode": "leave.s", "operand": 7},
        {"offset": 4, "opcode": "ldc.i4.2"},
        {"offset": 5, "opcode": "stloc.0"},
        {"offset": 6, "opcode": "endfinally"},
        {"offset": 7, "opcode": "ldloc.0"},
        {"offset": 8, "opcode": "ret"}
      ],
      "handlers": [
        {"kind": "finally", "try_start": 0, "try_end": 4, "handler_start": 4, "handler_end": 7}
      ]
    },
    {
      "name": "Demo.C::G(System.String)",
      "is_static": true,
      "parameters": [{"name": "s", "type": "System.String"}],
      "instructions": [
        {"offset": 0, "opcode": "ldstr", "operand": "x"},
        {"offset": 5, "opcode": "pop"},
        {"offset": 6, "opcode": "ret"}
      ]
    }
  ]
}`

func TestUnmarshalListing(t *testing.T) {
	module, err := Unmarshal([]byte(listing))
	require.NoError(t, err)
	require.Equal(t, "Demo.dll", module.Name())
	require.Equal(t, 2, module.MethodCount())

	f, ok := module.Method("Demo.C::F()")
	require.True(t, ok)
	require.Equal(t, "System.Int32", f.ReturnType())
	require.Equal(t, "C.cs", f.SourceFile())
	require.Equal(t, 8, f.InstructionCount())
	require.Equal(t, SourceLocation{Line: 3, Column: 9}, f.InstructionAt(0).Location)
	require.Equal(t, op.LeaveS, f.InstructionAt(2).OpCode)
	require.Equal(t, 7, f.InstructionAt(2).Operand)
	require.Equal(t, 1, f.HandlerCount())
	require.Equal(t, HandlerFinally, f.HandlerAt(0).Kind)
	require.NoError(t, f.Validate())

	g := module.MethodAt(1)
	require.True(t, g.IsStatic())
	require.Equal(t, "System.Void", g.ReturnType())
	require.Equal(t, Parameter{Name: "s", Type: "System.String"}, g.ParameterAt(0))
	require.Equal(t, "x", g.InstructionAt(0).Operand)

	require.Equal(t, Stats{
		MethodCount:      2,
		InstructionCount: 11,
		HandlerCount:     1,
		FinallyCount:     1,
	}, module.Stats())
}

func TestMarshalPreservesListing(t *testing.T) {
	module, err := Unmarshal([]byte(listing))
	require.NoError(t, err)
	data, err := Marshal(module)
	require.NoError(t, err)
	restored, err := Unmarshal(data)
	require.NoError(t, err)
	require.Equal(t, module.Stats(), restored.Stats())

	f := restored.MethodAt(0)
	require.Equal(t, "Demo.C::F()", f.FullName())
	require.Equal(t, 7, f.InstructionAt(2).Operand)
	require.Equal(t, module.MethodAt(0).HandlerAt(0), f.HandlerAt(0))
}

func TestUnmarshalErrors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		errMsg string
	}{
		{"bad json", `{"methods": [`, "unexpected end of JSON input"},
		{"unknown opcode", `{"methods": [{"name": "M", "instructions": [{"offset": 0, "opcode": "callvirt"}]}]}`, `unknown opcode "callvirt"`},
		{"bad handler", `{"methods": [{"name": "M", "instructions": [], "handlers": [{"kind": "filter"}]}]}`, `unknown handler kind "filter"`},
		{"fractional operand", `{"methods": [{"name": "M", "instructions": [{"offset": 0, "opcode": "br", "operand": 1.5}]}]}`, "expected integer operand"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal([]byte(tt.input))
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
