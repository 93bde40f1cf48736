package translate

import (
	"sort"

	"github.com/deepnoodle-ai/cilsil/bytecode"
	"github.com/deepnoodle-ai/cilsil/errz"
	"github.com/deepnoodle-ai/cilsil/sil"
)

// TranslateMethod translates a decoded method into its control-flow graph.
// On failure no procedure is returned and, unless the method was rejected
// before translation started, the failure is recorded as an unfinished
// method.
func TranslateMethod(method *bytecode.Method, opts ...Option) (*sil.ProcDesc, error) {
	return translateMethod(method, newConfig(opts))
}

func translateMethod(method *bytecode.Method, cfg *config) (*sil.ProcDesc, error) {
	if err := method.Validate(); err != nil {
		return nil, errz.New(errz.ErrInvalidMethod, "malformed method listing").
			At(method.FullName(), -1).
			WithCause(err)
	}
	state := newProgramState(method, cfg)
	if method.InstructionCount() == 0 {
		return nil, state.errorf(errz.ErrInvalidMethod, "method has no instructions")
	}

	if err := translateBody(state); err != nil {
		return nil, err
	}
	if err := translateUnenteredFinallies(state); err != nil {
		return nil, err
	}
	linked, err := finalize(state)
	if err != nil {
		return nil, err
	}
	state.logger.Debug().
		Int("nodes", state.ProcDesc.NodeCount()).
		Int("exception_links", linked).
		Msg("method translated")
	return state.ProcDesc, nil
}

// translateBody runs the worklist from the method's first instruction until
// it is empty.
func translateBody(state *ProgramState) error {
	state.PushInstruction(state.Method.InstructionAt(0), state.ProcDesc.Start())
	for state.HasInstruction() {
		next, err := state.PopInstruction()
		if err != nil {
			return err
		}
		if err := ParseCilInstruction(next.Instruction, state, next.Fallthrough); err != nil {
			state.recordUnfinished(state.Method.RemainingInstructionCount(next.Instruction))
			return err
		}
	}
	return nil
}

// translateUnenteredFinallies weaves in the finally blocks of protected
// regions that were never left through a leave, such as a region that
// always throws. Such a block is entered only through its region's door.
// Inner regions go first so that their blocks are in place when an
// enclosing region is checked.
func translateUnenteredFinallies(state *ProgramState) error {
	method := state.Method
	var pending []int
	for i := 0; i < method.HandlerCount(); i++ {
		if _, ok := state.doors[i]; !ok && method.HandlerAt(i).Kind == bytecode.HandlerFinally {
			pending = append(pending, i)
		}
	}
	sort.SliceStable(pending, func(a, b int) bool {
		ha, hb := method.HandlerAt(pending[a]), method.HandlerAt(pending[b])
		return ha.TryEnd-ha.TryStart < hb.TryEnd-hb.TryStart
	})
	for _, idx := range pending {
		handler := method.HandlerAt(idx)
		if !hasStatementIn(state.ProcDesc, handler) {
			continue
		}
		first, _ := method.InstructionAtOffset(handler.TryStart)
		state.setCurrent(first)
		door := state.exceptionDoor(idx)
		state.ClearStack()
		state.PreviousNode = sil.NoNode
		state.AppendToPreviousNode = false
		if err := (FinallyParser{}).TranslateBlock(state, handler, door); err != nil {
			return err
		}
	}
	return nil
}

func hasStatementIn(pd *sil.ProcDesc, handler bytecode.ExceptionHandler) bool {
	for _, n := range pd.Nodes() {
		if n.IsStatement() && handler.InTry(n.Loc.Offset) {
			return true
		}
	}
	return false
}

// finalize wires every statement of a protected region to the door of that
// region, back-fills the predecessor side of the exception edges from each
// finally atrium and checks the graph. It returns the number of links
// back-filled from the atriums.
func finalize(state *ProgramState) (int, error) {
	pd := state.ProcDesc
	indexes := make([]int, 0, len(state.doors))
	for idx := range state.doors {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)
	for _, idx := range indexes {
		handler := state.Method.HandlerAt(idx)
		door := state.doors[idx]
		for _, n := range pd.Nodes() {
			if n.IsStatement() && handler.InTry(n.Loc.Offset) {
				pd.AddExceptionEdge(n.ID, door)
			}
		}
	}
	linked := 0
	for _, atrium := range state.atriums {
		linked += pd.SetExceptionNodePredecessors(atrium)
	}
	// Protected statements ahead of any atrium.
	pd.CloseExceptionPredecessors()
	if err := pd.Validate(); err != nil {
		return linked, errz.New(errz.ErrInvalidMethod, "inconsistent control-flow graph").
			At(state.Method.FullName(), -1).
			WithCause(err)
	}
	return linked, nil
}
