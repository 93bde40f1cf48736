package bytecode

import (
	"fmt"
	"sort"

	"github.com/deepnoodle-ai/cilsil/op"
	"github.com/hashicorp/go-multierror"
)

// Parameter is a declared method parameter.
type Parameter struct {
	Name string
	Type string
}

// Method represents a decoded method body.
// It is immutable after creation and safe for concurrent use.
type Method struct {
	fullName     string
	returnType   string
	isStatic     bool
	sourceFile   string
	parameters   []Parameter
	locals       []string
	instructions []*Instruction
	handlers     []ExceptionHandler

	// offset -> instruction index
	index map[int]int
	// offsets that are targets of a branch or leave
	targets map[int]bool
}

// MethodParams contains parameters for creating a new Method.
type MethodParams struct {
	FullName     string
	ReturnType   string // CLR type name, e.g. "System.Int32"
	IsStatic     bool
	SourceFile   string
	Parameters   []Parameter
	Locals       []string // CLR type names of the declared locals
	Instructions []Instruction
	Handlers     []ExceptionHandler
}

// NewMethod creates a new immutable Method from the given parameters.
// Instructions are copied and their operands normalized to the Go type
// their opcode requires.
func NewMethod(params MethodParams) (*Method, error) {
	m := &Method{
		fullName:     params.FullName,
		returnType:   params.ReturnType,
		isStatic:     params.IsStatic,
		sourceFile:   params.SourceFile,
		parameters:   append([]Parameter(nil), params.Parameters...),
		locals:       append([]string(nil), params.Locals...),
		handlers:     append([]ExceptionHandler(nil), params.Handlers...),
		instructions: make([]*Instruction, len(params.Instructions)),
		index:        make(map[int]int, len(params.Instructions)),
		targets:      map[int]bool{},
	}
	if m.returnType == "" {
		m.returnType = "System.Void"
	}
	for i := range params.Instructions {
		instr := params.Instructions[i]
		info := op.GetInfo(instr.OpCode)
		if info.Name == "" {
			return nil, fmt.Errorf("%s: IL_%04x: unknown opcode 0x%x", m.fullName, instr.Offset, uint16(instr.OpCode))
		}
		operand, err := normalizeOperand(info, instr.Operand)
		if err != nil {
			return nil, fmt.Errorf("%s: IL_%04x: %w", m.fullName, instr.Offset, err)
		}
		instr.Operand = operand
		if _, dup := m.index[instr.Offset]; dup {
			return nil, fmt.Errorf("%s: duplicate instruction offset IL_%04x", m.fullName, instr.Offset)
		}
		m.index[instr.Offset] = i
		m.instructions[i] = &instr
		if target, ok := instr.BranchTarget(); ok {
			m.targets[target] = true
		}
	}
	return m, nil
}

// MustNewMethod is like NewMethod but panics on error. Intended for
// fixtures.
func MustNewMethod(params MethodParams) *Method {
	m, err := NewMethod(params)
	if err != nil {
		panic(err)
	}
	return m
}

// FullName returns the fully qualified method name.
func (m *Method) FullName() string {
	return m.fullName
}

// ReturnType returns the CLR name of the return type.
func (m *Method) ReturnType() string {
	return m.returnType
}

// IsStatic reports whether the method has no implicit this argument.
func (m *Method) IsStatic() bool {
	return m.isStatic
}

// SourceFile returns the source file named by the method's sequence points.
func (m *Method) SourceFile() string {
	return m.sourceFile
}

// ParameterCount returns the number of declared parameters.
func (m *Method) ParameterCount() int {
	return len(m.parameters)
}

// ParameterAt returns the parameter at the given index.
func (m *Method) ParameterAt(index int) Parameter {
	return m.parameters[index]
}

// LocalCount returns the number of declared locals.
func (m *Method) LocalCount() int {
	return len(m.locals)
}

// LocalTypeAt returns the CLR type name of the local at the given index.
func (m *Method) LocalTypeAt(index int) string {
	return m.locals[index]
}

// InstructionCount returns the number of instructions.
func (m *Method) InstructionCount() int {
	return len(m.instructions)
}

// InstructionAt returns the instruction at the given index.
func (m *Method) InstructionAt(index int) *Instruction {
	return m.instructions[index]
}

// InstructionAtOffset returns the instruction starting at the given offset.
func (m *Method) InstructionAtOffset(offset int) (*Instruction, bool) {
	i, ok := m.index[offset]
	if !ok {
		return nil, false
	}
	return m.instructions[i], true
}

// Next returns the instruction following instr, or nil at the end of the
// method.
func (m *Method) Next(instr *Instruction) *Instruction {
	i, ok := m.index[instr.Offset]
	if !ok || i+1 >= len(m.instructions) {
		return nil
	}
	return m.instructions[i+1]
}

// FirstAtOrAfter returns the first instruction whose offset is at least
// the given offset.
func (m *Method) FirstAtOrAfter(offset int) (*Instruction, bool) {
	i := sort.Search(len(m.instructions), func(i int) bool {
		return m.instructions[i].Offset >= offset
	})
	if i == len(m.instructions) {
		return nil, false
	}
	return m.instructions[i], true
}

// RemainingInstructionCount returns the number of instructions from instr
// (inclusive) to the end of the method.
func (m *Method) RemainingInstructionCount(instr *Instruction) int {
	if instr == nil {
		return 0
	}
	i, ok := m.index[instr.Offset]
	if !ok {
		return 0
	}
	return len(m.instructions) - i
}

// IsBranchTarget reports whether some branch or leave jumps to offset.
func (m *Method) IsBranchTarget(offset int) bool {
	return m.targets[offset]
}

// HandlerCount returns the number of exception handler clauses.
func (m *Method) HandlerCount() int {
	return len(m.handlers)
}

// HandlerAt returns the exception handler clause at the given index.
func (m *Method) HandlerAt(index int) ExceptionHandler {
	return m.handlers[index]
}

// EnclosingFinallies returns the indexes of the finally clauses whose
// protected region contains offset but not target, innermost first. These
// are the finally blocks a leave from offset to target must run, in the
// order they run.
func (m *Method) EnclosingFinallies(offset, target int) []int {
	var out []int
	for i, h := range m.handlers {
		if h.Kind == HandlerFinally && h.InTry(offset) && !h.InTry(target) {
			out = append(out, i)
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return m.handlers[out[a]].tryLen() < m.handlers[out[b]].tryLen()
	})
	return out
}

// Validate checks the method listing against the decoder contract and
// reports every violation found.
func (m *Method) Validate() error {
	var result *multierror.Error
	prev := -1
	for _, instr := range m.instructions {
		if instr.Offset <= prev {
			result = multierror.Append(result, fmt.Errorf("IL_%04x: offsets are not increasing", instr.Offset))
		}
		prev = instr.Offset
		if target, ok := instr.BranchTarget(); ok {
			if _, exists := m.index[target]; !exists {
				result = multierror.Append(result, fmt.Errorf("IL_%04x: branch target IL_%04x is not an instruction", instr.Offset, target))
			}
		}
	}
	end := m.endOffset()
	for i, h := range m.handlers {
		if h.TryStart >= h.TryEnd {
			result = multierror.Append(result, fmt.Errorf("handler %d: empty protected region", i))
		}
		if h.HandlerStart >= h.HandlerEnd {
			result = multierror.Append(result, fmt.Errorf("handler %d: empty handler block", i))
		}
		if h.TryEnd > h.HandlerStart && h.HandlerEnd > h.TryStart {
			result = multierror.Append(result, fmt.Errorf("handler %d: handler block overlaps its protected region", i))
		}
		for _, boundary := range []int{h.TryStart, h.TryEnd, h.HandlerStart, h.HandlerEnd} {
			if _, ok := m.index[boundary]; !ok && boundary != end {
				result = multierror.Append(result, fmt.Errorf("handler %d: boundary IL_%04x is not an instruction offset", i, boundary))
			}
		}
	}
	if result == nil {
		return nil
	}
	result.ErrorFormat = func(errs []error) string {
		return formatErrors(m.fullName, errs)
	}
	return result
}

// endOffset returns the offset just past the last instruction.
func (m *Method) endOffset() int {
	if len(m.instructions) == 0 {
		return 0
	}
	last := m.instructions[len(m.instructions)-1]
	return last.Offset + last.Size()
}

func formatErrors(method string, errs []error) string {
	msg := fmt.Sprintf("%s: %d problem(s) in method listing:", method, len(errs))
	for _, err := range errs {
		msg += "\n\t* " + err.Error()
	}
	return msg
}
