package translate

import (
	"fmt"

	"github.com/deepnoodle-ai/cilsil/bytecode"
	"github.com/deepnoodle-ai/cilsil/errz"
	"github.com/deepnoodle-ai/cilsil/sil"
	"github.com/rs/zerolog"
)

// StackEntry is one slot of the emulated operand stack.
type StackEntry struct {
	Expr sil.Expr
	Type sil.Typ
}

// Pending is an instruction scheduled for translation. Nodes produced for it
// are attached after Node.
type Pending struct {
	Instruction *bytecode.Instruction
	Node        sil.NodeID

	// Fallthrough is the append mode in effect when the instruction was
	// scheduled.
	Fallthrough bool

	stack []StackEntry
}

// ProgramState is the traversal state of one method's translation. It is
// created per method and must not be shared between goroutines.
type ProgramState struct {
	Method   *bytecode.Method
	ProcDesc *sil.ProcDesc

	CurrentInstruction *bytecode.Instruction
	CurrentLocation    sil.Location

	// PreviousNode is the node the next translated instruction attaches to.
	PreviousNode sil.NodeID

	// AppendToPreviousNode is true when the next instruction may append
	// its IR to PreviousNode instead of starting a new node.
	AppendToPreviousNode bool

	cfg        *config
	logger     zerolog.Logger
	returnType sil.Typ

	stack       []StackEntry
	worklist    []Pending
	offsetNodes map[int]sil.NodeID
	visits      map[int]int
	nextStamp   int

	// doors holds the exception door of each protected region, keyed by
	// handler index.
	doors map[int]sil.NodeID

	// atriums lists the finally atriums in creation order; blockExits holds
	// the normal exits of each translated finally block, keyed by handler
	// start.
	atriums    []sil.NodeID
	blockExits map[int][]sil.NodeID

	// unfinished is set once the method has been recorded as unfinished.
	unfinished bool

	// finallyExits is a stack of the endfinally exits of the finally
	// blocks being translated, innermost last.
	finallyExits [][]sil.NodeID
}

// NewProgramState creates the traversal state and an empty procedure for
// method.
func NewProgramState(method *bytecode.Method, opts ...Option) *ProgramState {
	return newProgramState(method, newConfig(opts))
}

func newProgramState(method *bytecode.Method, cfg *config) *ProgramState {
	returnType := sil.FromTypeName(method.ReturnType())
	loc := sil.Location{File: method.SourceFile(), Offset: -1}
	if method.InstructionCount() > 0 {
		first := method.InstructionAt(0)
		loc.Line, loc.Column = first.Location.Line, first.Location.Column
	}
	formals := make([]sil.Formal, 0, method.ParameterCount()+1)
	if !method.IsStatic() {
		formals = append(formals, sil.Formal{Name: "this", Type: sil.ObjectType})
	}
	for i := 0; i < method.ParameterCount(); i++ {
		p := method.ParameterAt(i)
		formals = append(formals, sil.Formal{Name: parameterName(p, i), Type: sil.FromTypeName(p.Type)})
	}
	pd := sil.NewProcDesc(sil.ProcAttributes{
		Name:       method.FullName(),
		ReturnType: returnType,
		Formals:    formals,
		Loc:        loc,
	})
	for i := 0; i < method.LocalCount(); i++ {
		pd.AddLocal(localPvar(method, i), sil.FromTypeName(method.LocalTypeAt(i)))
	}
	return &ProgramState{
		Method:          method,
		ProcDesc:        pd,
		CurrentLocation: loc,
		PreviousNode:    pd.Start(),
		cfg:             cfg,
		logger:          cfg.logger.With().Str("method", method.FullName()).Logger(),
		returnType:      returnType,
		offsetNodes:     map[int]sil.NodeID{},
		visits:          map[int]int{},
		doors:           map[int]sil.NodeID{},
		blockExits:      map[int][]sil.NodeID{},
	}
}

// ReturnType returns the SIL type of the method's return slot.
func (s *ProgramState) ReturnType() sil.Typ {
	return s.returnType
}

// PushInstruction schedules instr for translation after attachTo, together
// with a snapshot of the operand stack and the current append mode. A nil
// instruction is ignored.
func (s *ProgramState) PushInstruction(instr *bytecode.Instruction, attachTo sil.NodeID) {
	if instr == nil {
		return
	}
	s.worklist = append(s.worklist, Pending{
		Instruction: instr,
		Node:        attachTo,
		Fallthrough: s.AppendToPreviousNode,
		stack:       append([]StackEntry(nil), s.stack...),
	})
}

// PopInstruction removes the most recently scheduled instruction and makes
// it current: the operand stack is restored from its snapshot and
// PreviousNode is set to the node it attaches to.
func (s *ProgramState) PopInstruction() (Pending, error) {
	if len(s.worklist) == 0 {
		return Pending{}, s.errorf(errz.ErrWorklistUnderflow, "no instruction is scheduled")
	}
	p := s.worklist[len(s.worklist)-1]
	s.worklist = s.worklist[:len(s.worklist)-1]
	s.stack = append(s.stack[:0], p.stack...)
	s.setCurrent(p.Instruction)
	s.PreviousNode = p.Node
	s.AppendToPreviousNode = p.Fallthrough
	return p, nil
}

// HasInstruction reports whether any instruction is scheduled.
func (s *ProgramState) HasInstruction() bool {
	return len(s.worklist) > 0
}

// WorklistDepth returns the number of scheduled instructions.
func (s *ProgramState) WorklistDepth() int {
	return len(s.worklist)
}

// GetOffsetNode returns the node cached for offset and how many times the
// offset has been looked up while cached, this lookup included. It returns
// sil.NoNode and zero for an offset with no node.
func (s *ProgramState) GetOffsetNode(offset int) (sil.NodeID, int) {
	node, ok := s.offsetNodes[offset]
	if !ok {
		return sil.NoNode, 0
	}
	s.visits[offset]++
	return node, s.visits[offset]
}

// SaveNodeOnOffset caches node for offset. The first node saved for an
// offset wins.
func (s *ProgramState) SaveNodeOnOffset(offset int, node sil.NodeID) {
	if _, ok := s.offsetNodes[offset]; !ok {
		s.offsetNodes[offset] = node
	}
}

// Push pushes a value onto the operand stack.
func (s *ProgramState) Push(expr sil.Expr, typ sil.Typ) {
	s.stack = append(s.stack, StackEntry{Expr: expr, Type: typ})
}

// Pop pops the top of the operand stack.
func (s *ProgramState) Pop() (sil.Expr, sil.Typ, error) {
	if len(s.stack) == 0 {
		return nil, nil, s.errorf(errz.ErrOperandStackUnderflow, "pop from an empty operand stack")
	}
	top := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	return top.Expr, top.Type, nil
}

// Peek returns the top of the operand stack without popping it.
func (s *ProgramState) Peek() (sil.Expr, sil.Typ, error) {
	if len(s.stack) == 0 {
		return nil, nil, s.errorf(errz.ErrOperandStackUnderflow, "peek at an empty operand stack")
	}
	top := s.stack[len(s.stack)-1]
	return top.Expr, top.Type, nil
}

// StackDepth returns the number of values on the operand stack.
func (s *ProgramState) StackDepth() int {
	return len(s.stack)
}

// ClearStack empties the operand stack.
func (s *ProgramState) ClearStack() {
	s.stack = s.stack[:0]
}

// GetIdentifier returns a fresh identifier of the given kind. Stamps are
// shared by all kinds so no two identifiers of a method collide.
func (s *ProgramState) GetIdentifier(kind sil.IdentKind) sil.Identifier {
	s.nextStamp++
	return sil.Identifier{Kind: kind, Stamp: s.nextStamp}
}

// NewNode returns an unregistered node at the current location.
func (s *ProgramState) NewNode(kind sil.NodeKind) *sil.CfgNode {
	return sil.NewNode(kind, s.CurrentLocation)
}

// RegisterNode adds n to the procedure.
func (s *ProgramState) RegisterNode(n *sil.CfgNode) sil.NodeID {
	id := s.ProcDesc.RegisterNode(n)
	s.logger.Debug().
		Int("node", int(id)).
		Str("kind", n.Kind.String()).
		Int("offset", n.Loc.Offset).
		Msg("node registered")
	s.cfg.observer.OnNode(NodeEvent{
		Method: s.Method.FullName(),
		Node:   id,
		Kind:   n.Kind,
		Offset: n.Loc.Offset,
	})
	return id
}

// RegisterLocalVariable adds a local variable to the procedure.
func (s *ProgramState) RegisterLocalVariable(pvar sil.Pvar, typ sil.Typ) {
	s.ProcDesc.AddLocal(pvar, typ)
}

// AppendInstructions adds the IR of the current instruction to the graph.
// The IR extends PreviousNode when append mode is on, PreviousNode is a
// statement node and the current offset is not a leader; otherwise a new
// statement node is linked after PreviousNode. In both cases the current
// offset is cached and the node becomes PreviousNode.
func (s *ProgramState) AppendInstructions(instrs ...sil.Instr) sil.NodeID {
	offset := s.CurrentInstruction.Offset
	prev := s.ProcDesc.Node(s.PreviousNode)
	if s.AppendToPreviousNode && prev.Kind == sil.NodeStatement && !s.isLeader(offset) {
		prev.Append(instrs...)
	} else {
		n := s.NewNode(sil.NodeStatement)
		n.Append(instrs...)
		id := s.RegisterNode(n)
		s.ProcDesc.AddEdge(s.PreviousNode, id)
		s.PreviousNode = id
	}
	s.AppendToPreviousNode = true
	s.SaveNodeOnOffset(offset, s.PreviousNode)
	return s.PreviousNode
}

// LoadAndPush returns a load of lvalue into a fresh identifier and pushes
// that identifier onto the operand stack. The caller appends the load to a
// node.
func (s *ProgramState) LoadAndPush(lvalue sil.Expr, typ sil.Typ) *sil.Load {
	id := s.GetIdentifier(sil.IdentNormal)
	s.Push(sil.VarExpr{ID: id}, typ)
	return &sil.Load{ID: id, Lvalue: lvalue, Type: typ, Loc: s.CurrentLocation}
}

// isLeader reports whether offset must start a node: branch targets and
// exception region boundaries.
func (s *ProgramState) isLeader(offset int) bool {
	if s.Method.IsBranchTarget(offset) {
		return true
	}
	for i := 0; i < s.Method.HandlerCount(); i++ {
		h := s.Method.HandlerAt(i)
		if offset == h.TryStart || offset == h.TryEnd || offset == h.HandlerStart || offset == h.HandlerEnd {
			return true
		}
	}
	return false
}

func (s *ProgramState) setCurrent(instr *bytecode.Instruction) {
	s.CurrentInstruction = instr
	s.CurrentLocation = s.locationOf(instr)
}

func (s *ProgramState) locationOf(instr *bytecode.Instruction) sil.Location {
	return sil.Location{
		File:   s.Method.SourceFile(),
		Line:   instr.Location.Line,
		Column: instr.Location.Column,
		Offset: instr.Offset,
	}
}

func (s *ProgramState) currentOffset() int {
	if s.CurrentInstruction == nil {
		return -1
	}
	return s.CurrentInstruction.Offset
}

func (s *ProgramState) errorf(kind errz.ErrorKind, format string, args ...any) *errz.TranslationError {
	return errz.Newf(kind, format, args...).At(s.Method.FullName(), s.currentOffset())
}

func (s *ProgramState) recordUnfinished(remaining int) {
	if s.unfinished {
		return
	}
	s.unfinished = true
	s.logger.Warn().Int("remaining", remaining).Msg("unfinished method")
	if s.cfg.recorder != nil {
		s.cfg.recorder.RecordUnfinishedMethod(s.Method.FullName(), remaining)
	}
}

func (s *ProgramState) beginFinally() {
	s.finallyExits = append(s.finallyExits, nil)
}

func (s *ProgramState) endFinally() []sil.NodeID {
	top := s.finallyExits[len(s.finallyExits)-1]
	s.finallyExits = s.finallyExits[:len(s.finallyExits)-1]
	return top
}

func (s *ProgramState) addFinallyExit(node sil.NodeID) error {
	if len(s.finallyExits) == 0 {
		return s.errorf(errz.ErrInvalidMethod, "endfinally outside a finally block")
	}
	top := len(s.finallyExits) - 1
	for _, n := range s.finallyExits[top] {
		if n == node {
			return nil
		}
	}
	s.finallyExits[top] = append(s.finallyExits[top], node)
	return nil
}

func parameterName(p bytecode.Parameter, index int) string {
	if p.Name != "" {
		return p.Name
	}
	return fmt.Sprintf("arg%d", index)
}

func localPvar(method *bytecode.Method, index int) sil.Pvar {
	return sil.Pvar{Name: fmt.Sprintf("loc%d", index), Method: method.FullName()}
}
