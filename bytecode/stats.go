package bytecode

// Stats contains statistics about a decoded module.
// This is useful for sizing a translation run before starting it.
type Stats struct {
	// MethodCount is the number of methods in the module.
	MethodCount int

	// InstructionCount is the total number of instructions.
	InstructionCount int

	// HandlerCount is the total number of exception handler clauses.
	HandlerCount int

	// FinallyCount is the number of finally clauses.
	FinallyCount int
}
