package dis

import (
	"bytes"
	"strings"
	"testing"

	"github.com/deepnoodle-ai/cilsil/bytecode"
	"github.com/deepnoodle-ai/cilsil/op"
	"github.com/fatih/color"
	"github.com/stretchr/testify/require"
)

func in(offset int, code op.Code, operand ...any) bytecode.Instruction {
	instr := bytecode.Instruction{Offset: offset, OpCode: code}
	if len(operand) > 0 {
		instr.Operand = operand[0]
	}
	return instr
}

func tryFinally(t *testing.T) *bytecode.Method {
	m, err := bytecode.NewMethod(bytecode.MethodParams{
		FullName:   "Demo.C::Single()",
		ReturnType: "System.Int32",
		IsStatic:   true,
		Locals:     []string{"System.Int32"},
		Instructions: []bytecode.Instruction{
			in(0, op.LdcI41),
			in(1, op.Stloc0),
			in(5, op.Leave, 10),
			in(10, op.LdcI42),
			in(11, op.Stloc0),
			in(14, op.Nop),
			in(15, op.Endfinally),
			in(16, op.Ldloc0),
			in(17, op.Ret),
		},
		Handlers: []bytecode.ExceptionHandler{{
			Kind:         bytecode.HandlerFinally,
			TryStart:     0,
			TryEnd:       10,
			HandlerStart: 10,
			HandlerEnd:   16,
		}},
	})
	require.NoError(t, err)
	return m
}

func TestMethodDisassembly(t *testing.T) {
	// Disable colors for consistent test output
	color.NoColor = true
	defer func() { color.NoColor = false }()

	instructions, err := Disassemble(tryFinally(t))
	require.NoError(t, err)
	require.Len(t, instructions, 9)
	require.Equal(t, []string{"+try#0"}, instructions[0].Regions)
	require.Equal(t, op.FlowBranch, instructions[2].Flow)

	var buf bytes.Buffer
	Print(instructions, &buf)

	expected := strings.TrimSpace(`
+---------+------------+---------+------------+
| Offset  |   Opcode   | Operand |  Regions   |
+---------+------------+---------+------------+
| IL_0000 | ldc.i4.1   |         | +try#0     |
| IL_0001 | stloc.0    |         | try#0      |
| IL_0005 | leave      | IL_000a | try#0      |
| IL_000a | ldc.i4.2   |         | +finally#0 |
| IL_000b | stloc.0    |         | finally#0  |
| IL_000e | nop        |         | finally#0  |
| IL_000f | endfinally |         | finally#0  |
| IL_0010 | ldloc.0    |         |            |
| IL_0011 | ret        |         |            |
+---------+------------+---------+------------+
`)
	require.Equal(t, expected+"\n", buf.String())
}

func TestOperands(t *testing.T) {
	m, err := bytecode.NewMethod(bytecode.MethodParams{
		FullName: "Demo.C::Operands()",
		IsStatic: true,
		Instructions: []bytecode.Instruction{
			in(0, op.Ldstr, "a b"),
			in(5, op.Pop),
			in(6, op.LdcI4S, -3),
			in(8, op.Pop),
			in(9, op.Ret),
		},
	})
	require.NoError(t, err)
	instructions, err := Disassemble(m)
	require.NoError(t, err)
	require.Equal(t, `"a b"`, instructions[0].Operand)
	require.Equal(t, "-3", instructions[2].Operand)
	require.Empty(t, instructions[4].Operand)
	require.Empty(t, instructions[4].Regions)
}
