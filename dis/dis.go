// Package dis renders a decoded method as a listing annotated with its
// exception regions.
package dis

import (
	"fmt"
	"io"
	"strings"

	"github.com/deepnoodle-ai/cilsil/bytecode"
	"github.com/deepnoodle-ai/cilsil/internal/table"
	"github.com/deepnoodle-ai/cilsil/op"
	"github.com/fatih/color"
)

// Instruction is one row of a listing.
type Instruction struct {
	Offset  int      `json:"offset"`
	Name    string   `json:"name"`
	Operand string   `json:"operand,omitempty"`
	Regions []string `json:"regions,omitempty"`

	// Flow is the opcode's control-flow category.
	Flow op.FlowControl `json:"-"`
}

// Disassemble lists the instructions of method. Each instruction carries the
// exception regions it lies in, named by kind and handler index. A region
// name is prefixed with "+" on the region's first instruction.
func Disassemble(method *bytecode.Method) ([]Instruction, error) {
	out := make([]Instruction, 0, method.InstructionCount())
	for i := 0; i < method.InstructionCount(); i++ {
		instr := method.InstructionAt(i)
		info := instr.Info()
		if info.Name == "" {
			return nil, fmt.Errorf("unknown opcode 0x%x at IL_%04x", uint16(instr.OpCode), instr.Offset)
		}
		out = append(out, Instruction{
			Offset:  instr.Offset,
			Name:    info.Name,
			Operand: operand(instr),
			Regions: regions(method, instr.Offset),
			Flow:    info.Flow,
		})
	}
	return out, nil
}

func operand(instr *bytecode.Instruction) string {
	switch {
	case instr.Operand == nil:
		return ""
	case instr.Info().Operand.IsBranchTarget():
		return fmt.Sprintf("IL_%04x", instr.Operand)
	case instr.Info().Operand == op.InlineString:
		return fmt.Sprintf("%q", instr.Operand)
	default:
		return fmt.Sprintf("%v", instr.Operand)
	}
}

func regions(method *bytecode.Method, offset int) []string {
	var out []string
	for i := 0; i < method.HandlerCount(); i++ {
		h := method.HandlerAt(i)
		if h.InTry(offset) {
			out = append(out, region("try", i, offset == h.TryStart))
		}
		if h.InHandler(offset) {
			out = append(out, region(h.Kind.String(), i, offset == h.HandlerStart))
		}
	}
	return out
}

func region(kind string, index int, first bool) string {
	name := fmt.Sprintf("%s#%d", kind, index)
	if first {
		return "+" + name
	}
	return name
}

// Print writes instructions as a table. Control-transfer opcodes and
// region annotations are colored when color output is enabled.
func Print(instructions []Instruction, w io.Writer) {
	branch := color.New(color.FgYellow)
	regionColor := color.New(color.FgCyan)
	t := table.NewTable(w).
		WithHeader([]string{"Offset", "Opcode", "Operand", "Regions"}).
		WithHeaderAlignment([]table.Alignment{
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
		}).
		WithColumnAlignment([]table.Alignment{
			table.AlignRight,
			table.AlignLeft,
			table.AlignLeft,
			table.AlignLeft,
		})
	for _, instr := range instructions {
		name := instr.Name
		if transfersControl(instr.Flow) {
			name = branch.Sprint(name)
		}
		var regions string
		if len(instr.Regions) > 0 {
			regions = regionColor.Sprint(strings.Join(instr.Regions, " "))
		}
		t.Append([]string{
			fmt.Sprintf("IL_%04x", instr.Offset),
			name,
			instr.Operand,
			regions,
		})
	}
	t.Render()
}

func transfersControl(flow op.FlowControl) bool {
	switch flow {
	case op.FlowBranch, op.FlowCondBranch, op.FlowReturn, op.FlowThrow:
		return true
	}
	return false
}
