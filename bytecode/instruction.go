package bytecode

import (
	"fmt"
	"math"

	"github.com/deepnoodle-ai/cilsil/op"
)

// Instruction is one decoded CIL instruction.
//
// Operand holds int for variable indexes, small integers and branch
// targets, int64 for ldc.i8, float64 for ldc.r8 and string for ldstr and
// call. Instructions are immutable once owned by a Method.
type Instruction struct {
	Offset   int
	OpCode   op.Code
	Operand  any
	Location SourceLocation
}

// Info returns the opcode information for the instruction.
func (i *Instruction) Info() op.Info {
	return op.GetInfo(i.OpCode)
}

// Size returns the encoded size of the instruction in bytes.
func (i *Instruction) Size() int {
	return i.Info().Size()
}

// BranchTarget returns the target offset of a branch or leave instruction.
func (i *Instruction) BranchTarget() (int, bool) {
	if !i.Info().Operand.IsBranchTarget() {
		return 0, false
	}
	target, ok := i.Operand.(int)
	return target, ok
}

// IntOperand returns an integer operand.
func (i *Instruction) IntOperand() (int64, bool) {
	switch v := i.Operand.(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	default:
		return 0, false
	}
}

// StringOperand returns a string operand.
func (i *Instruction) StringOperand() (string, bool) {
	s, ok := i.Operand.(string)
	return s, ok
}

// String returns the instruction in ildasm style, e.g. "IL_0005: leave.s IL_000a".
func (i *Instruction) String() string {
	info := i.Info()
	name := info.Name
	if name == "" {
		name = fmt.Sprintf("<0x%x>", uint16(i.OpCode))
	}
	switch {
	case i.Operand == nil:
		return fmt.Sprintf("IL_%04x: %s", i.Offset, name)
	case info.Operand.IsBranchTarget():
		return fmt.Sprintf("IL_%04x: %s IL_%04x", i.Offset, name, i.Operand)
	case info.Operand == op.InlineString:
		return fmt.Sprintf("IL_%04x: %s %q", i.Offset, name, i.Operand)
	default:
		return fmt.Sprintf("IL_%04x: %s %v", i.Offset, name, i.Operand)
	}
}

// normalizeOperand converts a decoded operand to the Go type its operand
// kind requires. JSON numbers arrive as float64 and Go callers may use any
// integer type.
func normalizeOperand(info op.Info, v any) (any, error) {
	switch info.Operand {
	case op.InlineNone:
		if v != nil {
			return nil, fmt.Errorf("%s takes no operand", info.Name)
		}
		return nil, nil
	case op.ShortInlineVar, op.InlineVar, op.ShortInlineI, op.InlineI,
		op.ShortInlineBrTarget, op.InlineBrTarget:
		n, err := toInt64(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", info.Name, err)
		}
		return int(n), nil
	case op.InlineI8:
		n, err := toInt64(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", info.Name, err)
		}
		return n, nil
	case op.InlineR:
		switch f := v.(type) {
		case float64:
			return f, nil
		case float32:
			return float64(f), nil
		default:
			n, err := toInt64(v)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", info.Name, err)
			}
			return float64(n), nil
		}
	case op.InlineString, op.InlineMethod:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%s: expected string operand, got %T", info.Name, v)
		}
		return s, nil
	default:
		return v, nil
	}
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("expected integer operand, got %v", n)
		}
		return int64(n), nil
	default:
		return 0, fmt.Errorf("expected integer operand, got %T", v)
	}
}
