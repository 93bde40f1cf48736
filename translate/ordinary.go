package translate

import (
	"github.com/deepnoodle-ai/cilsil/bytecode"
	"github.com/deepnoodle-ai/cilsil/errz"
	"github.com/deepnoodle-ai/cilsil/op"
	"github.com/deepnoodle-ai/cilsil/sil"
)

var (
	int32Type  = sil.Tint{Kind: sil.IInt}
	int64Type  = sil.Tint{Kind: sil.ILong}
	stringType = sil.FromTypeName("System.String")
)

// fallthroughTo schedules the instruction after instr, attached to the node
// the current instruction ended in.
func fallthroughTo(instr *bytecode.Instruction, state *ProgramState) {
	state.PushInstruction(state.Method.Next(instr), state.PreviousNode)
}

func parseNop(instr *bytecode.Instruction, state *ProgramState) error {
	state.AppendInstructions()
	fallthroughTo(instr, state)
	return nil
}

func parseLdarg(instr *bytecode.Instruction, state *ProgramState) error {
	pvar, typ, err := argument(instr, state)
	if err != nil {
		return err
	}
	state.AppendInstructions(state.LoadAndPush(sil.LvarExpr{Pvar: pvar}, typ))
	fallthroughTo(instr, state)
	return nil
}

func parseStarg(instr *bytecode.Instruction, state *ProgramState) error {
	pvar, typ, err := argument(instr, state)
	if err != nil {
		return err
	}
	return store(instr, state, pvar, typ)
}

func parseLdloc(instr *bytecode.Instruction, state *ProgramState) error {
	pvar, typ, err := local(instr, state)
	if err != nil {
		return err
	}
	state.AppendInstructions(state.LoadAndPush(sil.LvarExpr{Pvar: pvar}, typ))
	fallthroughTo(instr, state)
	return nil
}

func parseStloc(instr *bytecode.Instruction, state *ProgramState) error {
	pvar, typ, err := local(instr, state)
	if err != nil {
		return err
	}
	return store(instr, state, pvar, typ)
}

func store(instr *bytecode.Instruction, state *ProgramState, pvar sil.Pvar, typ sil.Typ) error {
	value, _, err := state.Pop()
	if err != nil {
		return err
	}
	state.AppendInstructions(&sil.Store{
		Lvalue: sil.LvarExpr{Pvar: pvar},
		Rvalue: value,
		Type:   typ,
		Loc:    state.CurrentLocation,
	})
	fallthroughTo(instr, state)
	return nil
}

func parseConst(instr *bytecode.Instruction, state *ProgramState) error {
	switch instr.OpCode {
	case op.Ldnull:
		state.Push(sil.Null, sil.ObjectType)
	case op.Ldstr:
		s, ok := instr.StringOperand()
		if !ok {
			return state.errorf(errz.ErrInvalidMethod, "ldstr without a string operand")
		}
		state.Push(sil.ConstExpr{Const: sil.StrConst{Value: s}}, stringType)
	case op.LdcR8:
		f, ok := instr.Operand.(float64)
		if !ok {
			return state.errorf(errz.ErrInvalidMethod, "ldc.r8 without a float operand")
		}
		state.Push(sil.ConstExpr{Const: sil.FloatConst{Value: f}}, sil.Tfloat{})
	case op.LdcI8:
		v, ok := instr.IntOperand()
		if !ok {
			return state.errorf(errz.ErrInvalidMethod, "ldc.i8 without an integer operand")
		}
		state.Push(sil.ConstExpr{Const: sil.IntConst{Value: v}}, int64Type)
	case op.LdcI4, op.LdcI4S:
		v, ok := instr.IntOperand()
		if !ok {
			return state.errorf(errz.ErrInvalidMethod, "%s without an integer operand", instr.OpCode)
		}
		state.Push(sil.ConstExpr{Const: sil.IntConst{Value: v}}, int32Type)
	default:
		// ldc.i4.m1 through ldc.i4.8 are contiguous.
		v := int64(instr.OpCode) - int64(op.LdcI40)
		state.Push(sil.ConstExpr{Const: sil.IntConst{Value: v}}, int32Type)
	}
	state.AppendInstructions()
	fallthroughTo(instr, state)
	return nil
}

func parseStack(instr *bytecode.Instruction, state *ProgramState) error {
	if instr.OpCode == op.Dup {
		expr, typ, err := state.Peek()
		if err != nil {
			return err
		}
		state.Push(expr, typ)
	} else if _, _, err := state.Pop(); err != nil {
		return err
	}
	state.AppendInstructions()
	fallthroughTo(instr, state)
	return nil
}

var binops = map[op.Code]sil.BinOp{
	op.Add: sil.PlusA,
	op.Sub: sil.MinusA,
	op.Mul: sil.Mult,
	op.Div: sil.Div,
	op.Rem: sil.Mod,
	op.Ceq: sil.Eq,
	op.Cgt: sil.Gt,
	op.Clt: sil.Lt,
}

func parseBinop(instr *bytecode.Instruction, state *ProgramState) error {
	right, _, err := state.Pop()
	if err != nil {
		return err
	}
	left, typ, err := state.Pop()
	if err != nil {
		return err
	}
	binop := binops[instr.OpCode]
	switch binop {
	case sil.Eq, sil.Gt, sil.Lt:
		typ = int32Type
	}
	state.Push(sil.BinopExpr{Op: binop, Left: left, Right: right}, typ)
	state.AppendInstructions()
	fallthroughTo(instr, state)
	return nil
}

func parseNeg(instr *bytecode.Instruction, state *ProgramState) error {
	operand, typ, err := state.Pop()
	if err != nil {
		return err
	}
	state.Push(sil.UnopExpr{Op: sil.Neg, Operand: operand}, typ)
	state.AppendInstructions()
	fallthroughTo(instr, state)
	return nil
}

// branchTo routes control from the current node to target. A target that
// already has a node is linked directly; otherwise it is scheduled as the
// start of a new node.
func branchTo(target *bytecode.Instruction, state *ProgramState, from sil.NodeID) {
	if node, _ := state.GetOffsetNode(target.Offset); node != sil.NoNode {
		state.ProcDesc.AddEdge(from, node)
		return
	}
	state.AppendToPreviousNode = false
	state.PushInstruction(target, from)
}

func branchTarget(instr *bytecode.Instruction, state *ProgramState) (*bytecode.Instruction, error) {
	offset, ok := instr.BranchTarget()
	if !ok {
		return nil, state.errorf(errz.ErrInvalidMethod, "%s without a branch target", instr.OpCode)
	}
	target, ok := state.Method.InstructionAtOffset(offset)
	if !ok {
		return nil, state.errorf(errz.ErrInvalidMethod, "branch target IL_%04x is not an instruction", offset)
	}
	return target, nil
}

func parseBranch(instr *bytecode.Instruction, state *ProgramState) error {
	target, err := branchTarget(instr, state)
	if err != nil {
		return err
	}
	if instr.OpCode.IsLeave() {
		// Leaving a region empties the evaluation stack.
		state.ClearStack()
	}
	node := state.AppendInstructions()
	branchTo(target, state, node)
	return nil
}

// parseCondBranch splits control into a pair of prune nodes, one assuming
// the condition holds and one assuming it does not.
func parseCondBranch(instr *bytecode.Instruction, state *ProgramState) error {
	target, err := branchTarget(instr, state)
	if err != nil {
		return err
	}
	cond, _, err := state.Pop()
	if err != nil {
		return err
	}
	from := state.AppendInstructions()

	prune := func(c sil.Expr, branch bool) sil.NodeID {
		n := state.NewNode(sil.NodePrune)
		n.Append(&sil.Prune{Cond: c, TrueBranch: branch, Kind: sil.PruneIfKind, Loc: state.CurrentLocation})
		id := state.RegisterNode(n)
		state.ProcDesc.AddEdge(from, id)
		return id
	}
	whenTrue := prune(cond, true)
	whenFalse := prune(sil.UnopExpr{Op: sil.LNot, Operand: cond}, false)

	taken, notTaken := whenTrue, whenFalse
	if instr.OpCode == op.Brfalse || instr.OpCode == op.BrfalseS {
		taken, notTaken = whenFalse, whenTrue
	}
	branchTo(target, state, taken)
	state.AppendToPreviousNode = false
	state.PushInstruction(state.Method.Next(instr), notTaken)
	return nil
}

func parseRet(instr *bytecode.Instruction, state *ProgramState) error {
	node := state.NewNode(sil.NodeReturnStmt)
	if _, void := state.ReturnType().(sil.Tvoid); !void {
		value, _, err := state.Pop()
		if err != nil {
			return err
		}
		node.Append(&sil.Store{
			Lvalue: sil.LvarExpr{Pvar: sil.ReturnPvar(state.Method.FullName())},
			Rvalue: value,
			Type:   state.ReturnType(),
			Loc:    state.CurrentLocation,
		})
	}
	return terminate(instr, state, node)
}

func parseThrow(instr *bytecode.Instruction, state *ProgramState) error {
	value, _, err := state.Pop()
	if err != nil {
		return err
	}
	node := state.NewNode(sil.NodeThrow)
	node.Append(&sil.Store{
		Lvalue: sil.LvarExpr{Pvar: sil.ReturnPvar(state.Method.FullName())},
		Rvalue: sil.ExnExpr{Value: value},
		Type:   state.ReturnType(),
		Loc:    state.CurrentLocation,
	})
	return terminate(instr, state, node)
}

// terminate links a node that ends a path to the procedure's exit.
func terminate(instr *bytecode.Instruction, state *ProgramState, node *sil.CfgNode) error {
	id := state.RegisterNode(node)
	state.ProcDesc.AddEdge(state.PreviousNode, id)
	state.ProcDesc.AddEdge(id, state.ProcDesc.Exit())
	state.SaveNodeOnOffset(instr.Offset, id)
	state.PreviousNode = id
	state.AppendToPreviousNode = false
	return nil
}

// parseEndfinally closes a finally block. It has no runtime effect of its
// own; the node it ends in becomes a normal exit of the block.
func parseEndfinally(_ *bytecode.Instruction, state *ProgramState) error {
	node := state.AppendInstructions()
	return state.addFinallyExit(node)
}

// variableIndex returns the argument or local index of instr. The short
// forms, counted from short, encode it in the opcode.
func variableIndex(instr *bytecode.Instruction, short [4]op.Code) (int, bool) {
	for i, code := range short {
		if instr.OpCode == code {
			return i, true
		}
	}
	v, ok := instr.IntOperand()
	return int(v), ok
}

func argument(instr *bytecode.Instruction, state *ProgramState) (sil.Pvar, sil.Typ, error) {
	index, ok := variableIndex(instr, [4]op.Code{op.Ldarg0, op.Ldarg1, op.Ldarg2, op.Ldarg3})
	if !ok {
		return sil.Pvar{}, nil, state.errorf(errz.ErrInvalidMethod, "%s without an argument index", instr.OpCode)
	}
	method := state.Method
	if !method.IsStatic() {
		if index == 0 {
			return sil.Pvar{Name: "this", Method: method.FullName()}, sil.ObjectType, nil
		}
		index--
	}
	if index < 0 || index >= method.ParameterCount() {
		return sil.Pvar{}, nil, state.errorf(errz.ErrInvalidMethod, "argument %d out of range", index)
	}
	p := method.ParameterAt(index)
	return sil.Pvar{Name: parameterName(p, index), Method: method.FullName()}, sil.FromTypeName(p.Type), nil
}

func local(instr *bytecode.Instruction, state *ProgramState) (sil.Pvar, sil.Typ, error) {
	short := [4]op.Code{op.Ldloc0, op.Ldloc1, op.Ldloc2, op.Ldloc3}
	switch instr.OpCode {
	case op.Stloc0, op.Stloc1, op.Stloc2, op.Stloc3, op.StlocS, op.Stloc:
		short = [4]op.Code{op.Stloc0, op.Stloc1, op.Stloc2, op.Stloc3}
	}
	index, ok := variableIndex(instr, short)
	if !ok {
		return sil.Pvar{}, nil, state.errorf(errz.ErrInvalidMethod, "%s without a local index", instr.OpCode)
	}
	if index < 0 || index >= state.Method.LocalCount() {
		return sil.Pvar{}, nil, state.errorf(errz.ErrInvalidMethod, "local %d out of range", index)
	}
	return localPvar(state.Method, index), sil.FromTypeName(state.Method.LocalTypeAt(index)), nil
}
