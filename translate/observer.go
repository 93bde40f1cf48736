package translate

import (
	"github.com/deepnoodle-ai/cilsil/bytecode"
	"github.com/deepnoodle-ai/cilsil/op"
	"github.com/deepnoodle-ai/cilsil/sil"
)

// FinallyStage is the progress of a finally block's translation.
type FinallyStage uint8

const (
	FinallyNotStarted FinallyStage = iota
	FinallyAtriumBuilt
	FinallyBodyTranslating
	FinallyCompleted
	FinallyFailed
)

func (s FinallyStage) String() string {
	switch s {
	case FinallyNotStarted:
		return "not_started"
	case FinallyAtriumBuilt:
		return "atrium_built"
	case FinallyBodyTranslating:
		return "body_translating"
	case FinallyCompleted:
		return "completed"
	case FinallyFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Observer is an interface for observing translation events. It can be used
// for tracing, coverage of the instruction catalog, or tests that need to
// see the order in which the graph was built.
//
// Implementations can embed NoOpObserver to provide default no-op
// implementations for methods they don't need.
type Observer interface {
	// OnInstruction is called before an instruction is dispatched to its
	// translator. Returning false abandons the method.
	OnInstruction(event InstructionEvent) bool

	// OnNode is called when a node is registered with the procedure.
	OnNode(event NodeEvent)

	// OnFinallyStage is called on each finally block stage transition.
	OnFinallyStage(event FinallyEvent)
}

// InstructionEvent describes an instruction about to be translated.
type InstructionEvent struct {
	Method     string
	Offset     int
	Opcode     op.Code
	OpcodeName string
	StackDepth int

	// Fallthrough is true when the instruction may extend the node built
	// for the instruction before it.
	Fallthrough bool
}

// NodeEvent describes a registered node.
type NodeEvent struct {
	Method string
	Node   sil.NodeID
	Kind   sil.NodeKind
	Offset int
}

// FinallyEvent describes a finally block stage transition.
type FinallyEvent struct {
	Method  string
	Handler bytecode.ExceptionHandler
	Stage   FinallyStage

	// Reused is true when the block had already been translated and the
	// entry only added edges into its atrium.
	Reused bool
}

// NoOpObserver is an Observer implementation that does nothing.
type NoOpObserver struct{}

func (NoOpObserver) OnInstruction(InstructionEvent) bool { return true }
func (NoOpObserver) OnNode(NodeEvent)                    {}
func (NoOpObserver) OnFinallyStage(FinallyEvent)         {}

var _ Observer = NoOpObserver{}
