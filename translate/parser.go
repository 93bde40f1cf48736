package translate

import (
	"errors"

	"github.com/deepnoodle-ai/cilsil/bytecode"
	"github.com/deepnoodle-ai/cilsil/errz"
	"github.com/deepnoodle-ai/cilsil/op"
	"github.com/deepnoodle-ai/cilsil/sil"
)

// errDeclined is returned by a parser that matched an opcode but leaves the
// instruction to the next parser in the table.
var errDeclined = errors.New("instruction declined")

type instructionParser struct {
	name  string
	codes []op.Code
	parse func(instr *bytecode.Instruction, state *ProgramState) error
}

func (p instructionParser) matches(code op.Code) bool {
	for _, c := range p.codes {
		if c == code {
			return true
		}
	}
	return false
}

// parsers is the ordered dispatch table. The first parser that matches and
// does not decline translates the instruction. It is filled in init since
// the leave parser reaches back into ParseCilInstruction.
var parsers []instructionParser

func init() {
	parsers = []instructionParser{
		{name: "nop", codes: []op.Code{op.Nop}, parse: parseNop},
		{name: "ldarg", codes: []op.Code{op.Ldarg0, op.Ldarg1, op.Ldarg2, op.Ldarg3, op.LdargS, op.Ldarg}, parse: parseLdarg},
		{name: "starg", codes: []op.Code{op.StargS, op.Starg}, parse: parseStarg},
		{name: "ldloc", codes: []op.Code{op.Ldloc0, op.Ldloc1, op.Ldloc2, op.Ldloc3, op.LdlocS, op.Ldloc}, parse: parseLdloc},
		{name: "stloc", codes: []op.Code{op.Stloc0, op.Stloc1, op.Stloc2, op.Stloc3, op.StlocS, op.Stloc}, parse: parseStloc},
		{name: "const", codes: []op.Code{
			op.LdcI4M1, op.LdcI40, op.LdcI41, op.LdcI42, op.LdcI43, op.LdcI44,
			op.LdcI45, op.LdcI46, op.LdcI47, op.LdcI48, op.LdcI4S, op.LdcI4,
			op.LdcI8, op.LdcR8, op.Ldnull, op.Ldstr,
		}, parse: parseConst},
		{name: "stack", codes: []op.Code{op.Dup, op.Pop}, parse: parseStack},
		{name: "arith", codes: []op.Code{op.Add, op.Sub, op.Mul, op.Div, op.Rem, op.Ceq, op.Cgt, op.Clt}, parse: parseBinop},
		{name: "neg", codes: []op.Code{op.Neg}, parse: parseNeg},
		{name: "leave", codes: []op.Code{op.Leave, op.LeaveS}, parse: parseLeave},
		{name: "branch", codes: []op.Code{op.Br, op.BrS, op.Leave, op.LeaveS}, parse: parseBranch},
		{name: "condbranch", codes: []op.Code{op.Brtrue, op.BrtrueS, op.Brfalse, op.BrfalseS}, parse: parseCondBranch},
		{name: "ret", codes: []op.Code{op.Ret}, parse: parseRet},
		{name: "throw", codes: []op.Code{op.Throw}, parse: parseThrow},
		{name: "endfinally", codes: []op.Code{op.Endfinally}, parse: parseEndfinally},
	}
}

// ParseCilInstruction translates one instruction. isFallthrough reports
// whether the instruction may extend the node of the instruction translated
// before it.
//
// An instruction whose offset already has a node other than the one it is
// attached to is a join: the attach node is linked to the cached node and
// nothing is translated.
func ParseCilInstruction(instr *bytecode.Instruction, state *ProgramState, isFallthrough bool) error {
	state.setCurrent(instr)
	state.AppendToPreviousNode = isFallthrough

	if node, visits := state.GetOffsetNode(instr.Offset); node != sil.NoNode && node != state.PreviousNode {
		if visits > state.cfg.maxOffsetVisits {
			return state.errorf(errz.ErrInvalidMethod, "offset reached %d times", visits)
		}
		state.ProcDesc.AddEdge(state.PreviousNode, node)
		return nil
	}

	if !state.cfg.observer.OnInstruction(InstructionEvent{
		Method:      state.Method.FullName(),
		Offset:      instr.Offset,
		Opcode:      instr.OpCode,
		OpcodeName:  instr.OpCode.String(),
		StackDepth:  state.StackDepth(),
		Fallthrough: isFallthrough,
	}) {
		return state.errorf(errz.ErrUnfinishedMethod, "translation halted by observer")
	}

	for _, p := range parsers {
		if !p.matches(instr.OpCode) {
			continue
		}
		err := p.parse(instr, state)
		if errors.Is(err, errDeclined) {
			continue
		}
		if err != nil {
			return err
		}
		if state.StackDepth() > state.cfg.maxStackDepth {
			return state.errorf(errz.ErrInvalidMethod, "operand stack depth %d exceeds %d", state.StackDepth(), state.cfg.maxStackDepth)
		}
		return nil
	}
	return state.errorf(errz.ErrUnsupportedInstruction, "no translator for %s", instr.OpCode)
}
