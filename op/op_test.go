package op

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetInfo(t *testing.T) {
	info := GetInfo(LeaveS)
	require.Equal(t, "leave.s", info.Name)
	require.Equal(t, ShortInlineBrTarget, info.Operand)
	require.Equal(t, FlowBranch, info.Flow)
	require.Equal(t, LeaveS, info.Code)
}

func TestGetInfoAllOpcodes(t *testing.T) {
	tests := []struct {
		code    Code
		name    string
		operand OperandType
		size    int
	}{
		{Nop, "nop", InlineNone, 1},
		{Ldarg0, "ldarg.0", InlineNone, 1},
		{LdlocS, "ldloc.s", ShortInlineVar, 2},
		{StlocS, "stloc.s", ShortInlineVar, 2},
		{Ldnull, "ldnull", InlineNone, 1},
		{LdcI4S, "ldc.i4.s", ShortInlineI, 2},
		{LdcI4, "ldc.i4", InlineI, 5},
		{LdcI8, "ldc.i8", InlineI8, 9},
		{LdcR8, "ldc.r8", InlineR, 9},
		{Ldstr, "ldstr", InlineString, 5},
		{Call, "call", InlineMethod, 5},
		{Ret, "ret", InlineNone, 1},
		{BrS, "br.s", ShortInlineBrTarget, 2},
		{Brtrue, "brtrue", InlineBrTarget, 5},
		{Throw, "throw", InlineNone, 1},
		{Endfinally, "endfinally", InlineNone, 1},
		{Leave, "leave", InlineBrTarget, 5},
		{LeaveS, "leave.s", ShortInlineBrTarget, 2},
		{Ceq, "ceq", InlineNone, 2},
		{Ldloc, "ldloc", InlineVar, 4},
		{Rethrow, "rethrow", InlineNone, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := GetInfo(tt.code)
			require.Equal(t, tt.name, info.Name)
			require.Equal(t, tt.operand, info.Operand)
			require.Equal(t, tt.size, info.Size())
			require.Equal(t, tt.name, tt.code.String())
		})
	}
}

func TestLookup(t *testing.T) {
	code, ok := Lookup("endfinally")
	require.True(t, ok)
	require.Equal(t, Endfinally, code)

	_, ok = Lookup("callvirt")
	require.False(t, ok)
}

func TestUnknownOpcode(t *testing.T) {
	info := GetInfo(Code(0xFFFF))
	require.Equal(t, "", info.Name)
	require.Equal(t, "", Code(0xFFFF).String())
}

func TestIsLeave(t *testing.T) {
	require.True(t, Leave.IsLeave())
	require.True(t, LeaveS.IsLeave())
	require.False(t, Br.IsLeave())
	require.False(t, Endfinally.IsLeave())
}

func TestOperandTypeBranchTarget(t *testing.T) {
	require.True(t, ShortInlineBrTarget.IsBranchTarget())
	require.True(t, InlineBrTarget.IsBranchTarget())
	require.False(t, InlineI.IsBranchTarget())
	require.Equal(t, "InlineBrTarget", InlineBrTarget.String())
}

func TestFlowControlString(t *testing.T) {
	tests := []struct {
		flow FlowControl
		want string
	}{
		{FlowNext, "next"},
		{FlowBranch, "branch"},
		{FlowCondBranch, "cond_branch"},
		{FlowCall, "call"},
		{FlowReturn, "return"},
		{FlowThrow, "throw"},
		{FlowControl(99), ""},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, tt.flow.String())
	}
}
