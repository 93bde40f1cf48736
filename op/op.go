// Package op defines the CIL opcodes understood by the cilsil translator.
package op

// Code is a CIL opcode. Single-byte opcodes use their byte value and
// two-byte opcodes use the 0xFE prefix in the high byte.
type Code uint16

const (
	Nop Code = 0x00

	// Arguments and locals
	Ldarg0 Code = 0x02
	Ldarg1 Code = 0x03
	Ldarg2 Code = 0x04
	Ldarg3 Code = 0x05
	Ldloc0 Code = 0x06
	Ldloc1 Code = 0x07
	Ldloc2 Code = 0x08
	Ldloc3 Code = 0x09
	Stloc0 Code = 0x0A
	Stloc1 Code = 0x0B
	Stloc2 Code = 0x0C
	Stloc3 Code = 0x0D
	LdargS Code = 0x0E
	StargS Code = 0x10
	LdlocS Code = 0x11
	StlocS Code = 0x13

	// Constants
	Ldnull  Code = 0x14
	LdcI4M1 Code = 0x15
	LdcI40  Code = 0x16
	LdcI41  Code = 0x17
	LdcI42  Code = 0x18
	LdcI43  Code = 0x19
	LdcI44  Code = 0x1A
	LdcI45  Code = 0x1B
	LdcI46  Code = 0x1C
	LdcI47  Code = 0x1D
	LdcI48  Code = 0x1E
	LdcI4S  Code = 0x1F
	LdcI4   Code = 0x20
	LdcI8   Code = 0x21
	LdcR8   Code = 0x23
	Ldstr   Code = 0x72

	// Stack
	Dup Code = 0x25
	Pop Code = 0x26

	// Calls and returns
	Call Code = 0x28
	Ret  Code = 0x2A

	// Branches
	BrS      Code = 0x2B
	BrfalseS Code = 0x2C
	BrtrueS  Code = 0x2D
	Br       Code = 0x38
	Brfalse  Code = 0x39
	Brtrue   Code = 0x3A

	// Arithmetic
	Add Code = 0x58
	Sub Code = 0x59
	Mul Code = 0x5A
	Div Code = 0x5B
	Rem Code = 0x5D
	Neg Code = 0x65

	// Exception handling
	Throw      Code = 0x7A
	Endfinally Code = 0xDC
	Leave      Code = 0xDD
	LeaveS     Code = 0xDE

	// Two-byte opcodes
	Ceq     Code = 0xFE01
	Cgt     Code = 0xFE02
	Clt     Code = 0xFE04
	Ldarg   Code = 0xFE09
	Starg   Code = 0xFE0B
	Ldloc   Code = 0xFE0C
	Stloc   Code = 0xFE0E
	Rethrow Code = 0xFE1A
)

// OperandType describes the inline operand that follows an opcode.
type OperandType uint8

const (
	InlineNone OperandType = iota
	ShortInlineVar
	InlineVar
	ShortInlineI
	InlineI
	InlineI8
	InlineR
	InlineString
	InlineMethod
	ShortInlineBrTarget
	InlineBrTarget
)

// String returns the ECMA-335 name of the operand type.
func (t OperandType) String() string {
	switch t {
	case InlineNone:
		return "InlineNone"
	case ShortInlineVar:
		return "ShortInlineVar"
	case InlineVar:
		return "InlineVar"
	case ShortInlineI:
		return "ShortInlineI"
	case InlineI:
		return "InlineI"
	case InlineI8:
		return "InlineI8"
	case InlineR:
		return "InlineR"
	case InlineString:
		return "InlineString"
	case InlineMethod:
		return "InlineMethod"
	case ShortInlineBrTarget:
		return "ShortInlineBrTarget"
	case InlineBrTarget:
		return "InlineBrTarget"
	default:
		return ""
	}
}

// IsBranchTarget reports whether the operand is a branch target offset.
func (t OperandType) IsBranchTarget() bool {
	return t == ShortInlineBrTarget || t == InlineBrTarget
}

// Size returns the encoded size of the operand in bytes.
func (t OperandType) Size() int {
	switch t {
	case ShortInlineVar, ShortInlineI, ShortInlineBrTarget:
		return 1
	case InlineVar:
		return 2
	case InlineI, InlineString, InlineMethod, InlineBrTarget:
		return 4
	case InlineI8, InlineR:
		return 8
	default:
		return 0
	}
}

// FlowControl describes how an opcode affects control flow.
type FlowControl uint8

const (
	FlowNext FlowControl = iota
	FlowBranch
	FlowCondBranch
	FlowCall
	FlowReturn
	FlowThrow
)

// String returns a string representation of the flow control kind.
func (f FlowControl) String() string {
	switch f {
	case FlowNext:
		return "next"
	case FlowBranch:
		return "branch"
	case FlowCondBranch:
		return "cond_branch"
	case FlowCall:
		return "call"
	case FlowReturn:
		return "return"
	case FlowThrow:
		return "throw"
	default:
		return ""
	}
}

// Info contains information about an opcode.
type Info struct {
	Code    Code
	Name    string
	Operand OperandType
	Flow    FlowControl
}

// Size returns the encoded size of an instruction with this opcode.
func (i Info) Size() int {
	size := 1
	if i.Code > 0xFF {
		size = 2
	}
	return size + i.Operand.Size()
}

var (
	infos  = map[Code]Info{}
	byName = map[string]Code{}
)

func init() {
	type opInfo struct {
		op      Code
		name    string
		operand OperandType
		flow    FlowControl
	}
	ops := []opInfo{
		{Nop, "nop", InlineNone, FlowNext},
		{Ldarg0, "ldarg.0", InlineNone, FlowNext},
		{Ldarg1, "ldarg.1", InlineNone, FlowNext},
		{Ldarg2, "ldarg.2", InlineNone, FlowNext},
		{Ldarg3, "ldarg.3", InlineNone, FlowNext},
		{Ldloc0, "ldloc.0", InlineNone, FlowNext},
		{Ldloc1, "ldloc.1", InlineNone, FlowNext},
		{Ldloc2, "ldloc.2", InlineNone, FlowNext},
		{Ldloc3, "ldloc.3", InlineNone, FlowNext},
		{Stloc0, "stloc.0", InlineNone, FlowNext},
		{Stloc1, "stloc.1", InlineNone, FlowNext},
		{Stloc2, "stloc.2", InlineNone, FlowNext},
		{Stloc3, "stloc.3", InlineNone, FlowNext},
		{LdargS, "ldarg.s", ShortInlineVar, FlowNext},
		{StargS, "starg.s", ShortInlineVar, FlowNext},
		{LdlocS, "ldloc.s", ShortInlineVar, FlowNext},
		{StlocS, "stloc.s", ShortInlineVar, FlowNext},
		{Ldnull, "ldnull", InlineNone, FlowNext},
		{LdcI4M1, "ldc.i4.m1", InlineNone, FlowNext},
		{LdcI40, "ldc.i4.0", InlineNone, FlowNext},
		{LdcI41, "ldc.i4.1", InlineNone, FlowNext},
		{LdcI42, "ldc.i4.2", InlineNone, FlowNext},
		{LdcI43, "ldc.i4.3", InlineNone, FlowNext},
		{LdcI44, "ldc.i4.4", InlineNone, FlowNext},
		{LdcI45, "ldc.i4.5", InlineNone, FlowNext},
		{LdcI46, "ldc.i4.6", InlineNone, FlowNext},
		{LdcI47, "ldc.i4.7", InlineNone, FlowNext},
		{LdcI48, "ldc.i4.8", InlineNone, FlowNext},
		{LdcI4S, "ldc.i4.s", ShortInlineI, FlowNext},
		{LdcI4, "ldc.i4", InlineI, FlowNext},
		{LdcI8, "ldc.i8", InlineI8, FlowNext},
		{LdcR8, "ldc.r8", InlineR, FlowNext},
		{Ldstr, "ldstr", InlineString, FlowNext},
		{Dup, "dup", InlineNone, FlowNext},
		{Pop, "pop", InlineNone, FlowNext},
		{Call, "call", InlineMethod, FlowCall},
		{Ret, "ret", InlineNone, FlowReturn},
		{BrS, "br.s", ShortInlineBrTarget, FlowBranch},
		{BrfalseS, "brfalse.s", ShortInlineBrTarget, FlowCondBranch},
		{BrtrueS, "brtrue.s", ShortInlineBrTarget, FlowCondBranch},
		{Br, "br", InlineBrTarget, FlowBranch},
		{Brfalse, "brfalse", InlineBrTarget, FlowCondBranch},
		{Brtrue, "brtrue", InlineBrTarget, FlowCondBranch},
		{Add, "add", InlineNone, FlowNext},
		{Sub, "sub", InlineNone, FlowNext},
		{Mul, "mul", InlineNone, FlowNext},
		{Div, "div", InlineNone, FlowNext},
		{Rem, "rem", InlineNone, FlowNext},
		{Neg, "neg", InlineNone, FlowNext},
		{Throw, "throw", InlineNone, FlowThrow},
		{Endfinally, "endfinally", InlineNone, FlowReturn},
		{Leave, "leave", InlineBrTarget, FlowBranch},
		{LeaveS, "leave.s", ShortInlineBrTarget, FlowBranch},
		{Ceq, "ceq", InlineNone, FlowNext},
		{Cgt, "cgt", InlineNone, FlowNext},
		{Clt, "clt", InlineNone, FlowNext},
		{Ldarg, "ldarg", InlineVar, FlowNext},
		{Starg, "starg", InlineVar, FlowNext},
		{Ldloc, "ldloc", InlineVar, FlowNext},
		{Stloc, "stloc", InlineVar, FlowNext},
		{Rethrow, "rethrow", InlineNone, FlowThrow},
	}
	for _, o := range ops {
		infos[o.op] = Info{
			Code:    o.op,
			Name:    o.name,
			Operand: o.operand,
			Flow:    o.flow,
		}
		byName[o.name] = o.op
	}
}

// GetInfo returns information about the given opcode. Unknown opcodes
// return an Info with an empty name.
func GetInfo(op Code) Info {
	return infos[op]
}

// Lookup returns the opcode with the given ECMA-335 mnemonic.
func Lookup(name string) (Code, bool) {
	code, ok := byName[name]
	return code, ok
}

// String returns the mnemonic of the opcode.
func (c Code) String() string {
	if info, ok := infos[c]; ok {
		return info.Name
	}
	return ""
}

// IsLeave reports whether the opcode exits a protected region.
func (c Code) IsLeave() bool {
	return c == Leave || c == LeaveS
}
