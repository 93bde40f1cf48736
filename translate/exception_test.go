package translate

import (
	"testing"

	"github.com/deepnoodle-ai/cilsil/bytecode"
	"github.com/deepnoodle-ai/cilsil/op"
	"github.com/deepnoodle-ai/cilsil/sil"
	"github.com/stretchr/testify/require"
)

func TestCreateExceptionDoor(t *testing.T) {
	tests := []struct {
		returnType string
		instrs     []string
		pushed     bool
	}{
		{
			returnType: "System.Int32",
			instrs: []string{
				"n$1=*&return:int",
				"*&return:int=null",
				"n$2=_fun___unwrap_exception(n$1:int)",
			},
			pushed: true,
		},
		{
			returnType: "System.Void",
			instrs: []string{
				"n$1=*&return:void",
				"*&return:void=null",
				"n$2=_fun___unwrap_exception(n$1:void)",
			},
			pushed: true,
		},
		{
			returnType: "System.Object",
			instrs: []string{
				"n$1=*&return:System.Object*",
				"*&return:System.Object*=null",
				"n$2=_fun___unwrap_exception(n$1:System.Object*)",
			},
			pushed: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.returnType, func(t *testing.T) {
			state := NewProgramState(newMethod(t, bytecode.MethodParams{
				FullName:     "Demo.C::Door()",
				ReturnType:   tt.returnType,
				Instructions: []bytecode.Instruction{in(0, op.Ret)},
			}))
			id := CreateExceptionDoor(state)
			door := state.ProcDesc.Node(id)
			require.Equal(t, sil.NodeExceptionHandler, door.Kind)
			require.Equal(t, tt.instrs, instrStrings(door))

			call, ok := door.Instrs[2].(*sil.Call)
			require.True(t, ok)
			require.Equal(t, sil.FunConst{Name: sil.BuiltinUnwrapException}, call.Function.(sil.ConstExpr).Const)

			if !tt.pushed {
				require.Equal(t, 0, state.StackDepth())
				return
			}
			require.Equal(t, 1, state.StackDepth())
			top, typ, err := state.Pop()
			require.NoError(t, err)
			require.Equal(t, sil.VarExpr{ID: call.ReturnID}, top)
			require.Equal(t, sil.FromTypeName(tt.returnType), typ)
		})
	}
}

func TestDoorsAreNotDeduplicated(t *testing.T) {
	state := NewProgramState(singleFinally(t))
	a := CreateExceptionDoor(state)
	b := CreateExceptionDoor(state)
	require.NotEqual(t, a, b)

	// The leave bridge keeps one door per protected region.
	require.Equal(t, state.exceptionDoor(0), state.exceptionDoor(0))
	require.NotEqual(t, state.exceptionDoor(0), state.exceptionDoor(1))
}

func TestFinallyAtriumShape(t *testing.T) {
	state := NewProgramState(singleFinally(t))
	catchVar := sil.NewPvar(state.GetIdentifier(sil.IdentCatch), "Demo.C::Single()")
	atrium, bcvar := FinallyParser{}.createAtriumNode(state, sil.LvarExpr{Pvar: catchVar})
	require.Equal(t, sil.NodeExceptionHandler, atrium.Kind)
	require.Equal(t, sil.NoNode, atrium.ID)
	require.Equal(t, []string{
		"n$2=*&CatchVar1:System.Object*",
		"*&$bcvar3:System.Object*=n$2",
	}, instrStrings(atrium))
	require.Equal(t, "$bcvar3", bcvar.Name)

	epilogue, err := FinallyParser{}.createReturnExceptionNode(state, bcvar)
	require.NoError(t, err)
	require.Equal(t, sil.NodeReturnException, epilogue.Kind)
	require.Equal(t, []string{
		"n$4=*&$bcvar3:System.Object*",
		"*&return:int=EXN n$4",
	}, instrStrings(epilogue))
	require.Equal(t, 0, state.StackDepth())
}
