package translate

import (
	"github.com/deepnoodle-ai/cilsil/bytecode"
	"github.com/deepnoodle-ai/cilsil/errz"
	"github.com/deepnoodle-ai/cilsil/sil"
)

// FinallyParser weaves a finally block into the paths leaving its protected
// region.
type FinallyParser struct{}

// TranslateBlock translates the finally block of handler, entered from
// PreviousNode on the normal path and from door on the exceptional path.
// A PreviousNode of sil.NoNode means the block is only entered through
// door.
//
// The block is translated once per method. Later entries only add edges
// into the atrium cached at the handler start. A translated block ends in a
// return-exception node that re-raises the exception saved by the atrium.
// Predecessor links of the exception edges leaving the block are filled in
// from the atrium once the method's exception edges exist.
func (p FinallyParser) TranslateBlock(state *ProgramState, handler bytecode.ExceptionHandler, door sil.NodeID) error {
	pd := state.ProcDesc
	preExit := state.PreviousNode
	event := FinallyEvent{Method: state.Method.FullName(), Handler: handler}
	stage := func(s FinallyStage) {
		event.Stage = s
		state.cfg.observer.OnFinallyStage(event)
	}

	if atrium, _ := state.GetOffsetNode(handler.HandlerStart); atrium != sil.NoNode {
		if preExit != sil.NoNode {
			pd.AddEdge(preExit, atrium)
		}
		pd.AddEdge(door, atrium)
		event.Reused = true
		stage(FinallyCompleted)
		return nil
	}
	stage(FinallyNotStarted)

	first, ok := state.Method.InstructionAtOffset(handler.HandlerStart)
	if !ok {
		stage(FinallyFailed)
		return state.errorf(errz.ErrInvalidMethod, "finally handler starts at IL_%04x, which is not an instruction", handler.HandlerStart)
	}
	state.logger.Debug().Stringer("handler", handler).Msg("entering finally block")

	entry := state.CurrentLocation
	state.CurrentLocation = state.locationOf(first)
	catchVar := sil.NewPvar(state.GetIdentifier(sil.IdentCatch), state.Method.FullName())
	state.RegisterLocalVariable(catchVar, sil.Tvoid{})
	atriumNode, bcvar := p.createAtriumNode(state, sil.LvarExpr{Pvar: catchVar})
	atrium := state.RegisterNode(atriumNode)
	state.CurrentLocation = entry
	state.SaveNodeOnOffset(handler.HandlerStart, atrium)
	state.atriums = append(state.atriums, atrium)
	pd.AddEdge(door, atrium)
	if preExit != sil.NoNode {
		pd.AddEdge(preExit, atrium)
	}
	stage(FinallyAtriumBuilt)

	// Finally blocks start with an empty evaluation stack.
	state.ClearStack()
	state.beginFinally()
	mark := state.WorklistDepth()
	state.AppendToPreviousNode = false
	state.PushInstruction(first, atrium)
	stage(FinallyBodyTranslating)
	for state.WorklistDepth() > mark {
		next, err := state.PopInstruction()
		if err != nil {
			state.endFinally()
			stage(FinallyFailed)
			return err
		}
		if err := ParseCilInstruction(next.Instruction, state, next.Fallthrough); err != nil {
			state.endFinally()
			stage(FinallyFailed)
			if state.unfinished {
				// Already recorded by a nested block.
				return err
			}
			remaining := state.Method.RemainingInstructionCount(next.Instruction)
			state.recordUnfinished(remaining)
			te := errz.Newf(errz.ErrUnfinishedMethod, "finally block at IL_%04x", handler.HandlerStart).
				At(state.Method.FullName(), next.Instruction.Offset).
				WithCause(err)
			te.Remaining = remaining
			return te
		}
	}
	exits := state.endFinally()

	epilogue, err := p.createReturnExceptionNode(state, bcvar)
	if err != nil {
		stage(FinallyFailed)
		return err
	}
	id := state.RegisterNode(epilogue)
	pd.AddEdge(id, pd.Exit())
	for _, exit := range exits {
		pd.AddEdge(exit, id)
	}
	state.blockExits[handler.HandlerStart] = exits

	stage(FinallyCompleted)
	return nil
}

// createAtriumNode extends the handler atrium with a store of the caught
// exception into a bytecode temporary, which the epilogue reads back:
//
//	n$3=*&CatchVar1:System.Object*;
//	*&$bcvar2:System.Object*=n$3;
func (FinallyParser) createAtriumNode(state *ProgramState, catchVar sil.LvarExpr) (*sil.CfgNode, sil.Pvar) {
	atrium, loaded := createAtriumNode(state, catchVar)
	bcvar := sil.NewPvar(state.GetIdentifier(sil.IdentByteCode), state.Method.FullName())
	atrium.Append(&sil.Store{
		Lvalue: sil.LvarExpr{Pvar: bcvar},
		Rvalue: sil.VarExpr{ID: loaded},
		Type:   sil.ObjectType,
		Loc:    state.CurrentLocation,
	})
	return atrium, bcvar
}

// createReturnExceptionNode builds the epilogue that resumes propagation of
// the exception saved in bcvar:
//
//	n$7=*&$bcvar2:System.Object*;
//	*&return:T=EXN n$7;
func (FinallyParser) createReturnExceptionNode(state *ProgramState, bcvar sil.Pvar) (*sil.CfgNode, error) {
	node := state.NewNode(sil.NodeReturnException)
	node.Append(state.LoadAndPush(sil.LvarExpr{Pvar: bcvar}, sil.ObjectType))
	value, _, err := state.Pop()
	if err != nil {
		return nil, err
	}
	node.Append(&sil.Store{
		Lvalue: sil.LvarExpr{Pvar: sil.ReturnPvar(state.Method.FullName())},
		Rvalue: sil.ExnExpr{Value: value},
		Type:   state.ReturnType(),
		Loc:    state.CurrentLocation,
	})
	return node, nil
}
