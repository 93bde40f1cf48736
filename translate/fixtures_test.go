package translate

import (
	"testing"

	"github.com/deepnoodle-ai/cilsil/bytecode"
	"github.com/deepnoodle-ai/cilsil/op"
	"github.com/deepnoodle-ai/cilsil/sil"
	"github.com/stretchr/testify/require"
)

func in(offset int, code op.Code, operand ...any) bytecode.Instruction {
	instr := bytecode.Instruction{Offset: offset, OpCode: code}
	if len(operand) > 0 {
		instr.Operand = operand[0]
	}
	return instr
}

func finally(tryStart, tryEnd, handlerStart, handlerEnd int) bytecode.ExceptionHandler {
	return bytecode.ExceptionHandler{
		Kind:         bytecode.HandlerFinally,
		TryStart:     tryStart,
		TryEnd:       tryEnd,
		HandlerStart: handlerStart,
		HandlerEnd:   handlerEnd,
	}
}

func newMethod(t *testing.T, params bytecode.MethodParams) *bytecode.Method {
	t.Helper()
	if params.FullName == "" {
		params.FullName = "Demo.C::" + t.Name() + "()"
	}
	m, err := bytecode.NewMethod(params)
	require.NoError(t, err)
	return m
}

// singleFinally is
//
//	int x;
//	try { x = 1; } finally { x = 2; }
//	return x;
//
// laid out with the leave jumping at the finally handler.
func singleFinally(t *testing.T) *bytecode.Method {
	return newMethod(t, bytecode.MethodParams{
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
		Handlers: []bytecode.ExceptionHandler{finally(0, 10, 10, 16)},
	})
}

// sharedFinally has two adjacent protected regions that share the finally
// handler at offset 10.
func sharedFinally(t *testing.T) *bytecode.Method {
	return newMethod(t, bytecode.MethodParams{
		FullName:   "Demo.C::Shared()",
		ReturnType: "System.Int32",
		IsStatic:   true,
		Locals:     []string{"System.Int32", "System.Int32"},
		Instructions: []bytecode.Instruction{
			in(0, op.LdcI41),
			in(1, op.Stloc0),
			in(2, op.LeaveS, 5),
			in(5, op.LdcI42),
			in(6, op.Stloc0),
			in(7, op.LeaveS, 16),
			in(10, op.LdcI43),
			in(11, op.Stloc1),
			in(15, op.Endfinally),
			in(16, op.Ldloc0),
			in(17, op.Ret),
		},
		Handlers: []bytecode.ExceptionHandler{
			finally(0, 5, 10, 16),
			finally(5, 10, 10, 16),
		},
	})
}

// brokenFinally has a call, which the translator does not support, inside
// its finally block.
func brokenFinally(t *testing.T) *bytecode.Method {
	return newMethod(t, bytecode.MethodParams{
		FullName: "Demo.C::Broken()",
		IsStatic: true,
		Instructions: []bytecode.Instruction{
			in(0, op.Nop),
			in(1, op.LeaveS, 9),
			in(3, op.Call, "System.Void Demo.C::Log()"),
			in(8, op.Endfinally),
			in(9, op.Ret),
		},
		Handlers: []bytecode.ExceptionHandler{finally(0, 3, 3, 9)},
	})
}

// nestedFinally is
//
//	int x;
//	try { try { x = 1; } finally { x = 2; } } finally { x = 3; }
//	return x;
//
// with one leave crossing both protected regions.
func nestedFinally(t *testing.T) *bytecode.Method {
	return newMethod(t, bytecode.MethodParams{
		FullName:   "Demo.C::Nested()",
		ReturnType: "System.Int32",
		IsStatic:   true,
		Locals:     []string{"System.Int32"},
		Instructions: []bytecode.Instruction{
			in(0, op.LdcI41),
			in(1, op.Stloc0),
			in(2, op.LeaveS, 10),
			in(4, op.LdcI42),
			in(5, op.Stloc0),
			in(6, op.Endfinally),
			in(7, op.LdcI43),
			in(8, op.Stloc0),
			in(9, op.Endfinally),
			in(10, op.Ldloc0),
			in(11, op.Ret),
		},
		Handlers: []bytecode.ExceptionHandler{
			finally(0, 4, 4, 7),
			finally(0, 7, 7, 10),
		},
	})
}

// throwingFinally is a protected region that always throws, so its finally
// block is never reached through a leave.
func throwingFinally(t *testing.T) *bytecode.Method {
	return newMethod(t, bytecode.MethodParams{
		FullName: "Demo.C::Throwing()",
		IsStatic: true,
		Locals:   []string{"System.Int32"},
		Instructions: []bytecode.Instruction{
			in(0, op.Ldnull),
			in(1, op.Throw),
			in(2, op.LdcI42),
			in(3, op.Stloc0),
			in(4, op.Endfinally),
		},
		Handlers: []bytecode.ExceptionHandler{finally(0, 2, 2, 5)},
	})
}

// nodeWith returns the node holding the instruction printed as want.
func nodeWith(t *testing.T, pd *sil.ProcDesc, want string) *sil.CfgNode {
	t.Helper()
	for _, n := range pd.Nodes() {
		for _, s := range instrStrings(n) {
			if s == want {
				return n
			}
		}
	}
	require.Failf(t, "instruction not found", "%q", want)
	return nil
}

func instrStrings(n *sil.CfgNode) []string {
	out := make([]string, len(n.Instrs))
	for i, instr := range n.Instrs {
		out[i] = instr.String()
	}
	return out
}

// requireSymmetric checks that every edge is recorded on both of its ends.
func requireSymmetric(t *testing.T, pd *sil.ProcDesc) {
	t.Helper()
	for _, n := range pd.Nodes() {
		for _, s := range n.Succs {
			require.True(t, pd.Node(s).HasPred(n.ID), "edge %d->%d", n.ID, s)
		}
		for _, e := range n.Exns {
			require.True(t, pd.Node(e).HasPred(n.ID), "exception edge %d->%d", n.ID, e)
		}
		for _, p := range n.Preds {
			pred := pd.Node(p)
			require.True(t, pred.HasSucc(n.ID) || pred.HasExn(n.ID), "predecessor %d of %d", p, n.ID)
		}
	}
	require.NoError(t, pd.Validate())
}

type stageObserver struct {
	NoOpObserver
	stages []FinallyStage
	reused []bool
	haltOn op.Code
	depths map[int]int
}

func (o *stageObserver) OnFinallyStage(e FinallyEvent) {
	o.stages = append(o.stages, e.Stage)
	o.reused = append(o.reused, e.Reused)
}

func (o *stageObserver) OnInstruction(e InstructionEvent) bool {
	if o.depths != nil {
		o.depths[e.Offset] = e.StackDepth
	}
	return o.haltOn == 0 || e.Opcode != o.haltOn
}
