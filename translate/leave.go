package translate

import (
	"github.com/deepnoodle-ai/cilsil/bytecode"
	"github.com/deepnoodle-ai/cilsil/sil"
)

// parseLeave bridges a protected region to its finally blocks. A leave
// whose target stays inside every finally-protected region is declined and
// translated as an unconditional branch.
//
// The finally blocks the leave exits are spliced in after the node that
// ends the region, innermost first: each block is entered from the normal
// exits of the one before it. Translation then resumes at the leave target,
// attached to the node that ended the region. When the target lies inside
// the outermost finally handler itself it resumes at the first instruction
// after that handler.
func parseLeave(instr *bytecode.Instruction, state *ProgramState) error {
	target, ok := instr.BranchTarget()
	if !ok {
		return errDeclined
	}
	finallies := state.Method.EnclosingFinallies(instr.Offset, target)
	if len(finallies) == 0 {
		return errDeclined
	}

	preExit := state.AppendInstructions()
	entries := []sil.NodeID{preExit}
	var handler bytecode.ExceptionHandler
	for _, idx := range finallies {
		handler = state.Method.HandlerAt(idx)
		state.setCurrent(instr)
		door := state.exceptionDoor(idx)
		// A new door pushes the unwrapped exception; finally blocks start
		// with an empty stack, so it is dropped here.
		state.ClearStack()
		state.PreviousNode = entries[0]
		if err := (FinallyParser{}).TranslateBlock(state, handler, door); err != nil {
			return err
		}
		atrium := state.offsetNodes[handler.HandlerStart]
		for _, entry := range entries[1:] {
			state.ProcDesc.AddEdge(entry, atrium)
		}
		entries = state.blockExits[handler.HandlerStart]
		if len(entries) == 0 {
			// The block never completes normally; outer blocks are only
			// reached through their doors.
			entries = []sil.NodeID{sil.NoNode}
		}
	}

	state.ClearStack()
	state.PreviousNode = preExit
	state.AppendToPreviousNode = false
	state.CurrentInstruction = instr
	state.CurrentLocation = state.locationOf(instr)
	if handler.InHandler(target) {
		next, _ := state.Method.FirstAtOrAfter(handler.HandlerEnd)
		state.PushInstruction(next, preExit)
		return nil
	}
	next, _ := state.Method.InstructionAtOffset(target)
	state.PushInstruction(next, preExit)
	return nil
}
