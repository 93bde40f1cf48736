// Package bytecode provides immutable representations of decoded CIL methods.
//
// This package defines the input of translation: the instruction listing and
// exception-handler table an external decoder produces for each method. The
// types are created once, validated, and then shared read-only by every
// translator that consumes them.
//
// # Key Types
//
//   - [Module]: A set of decoded methods loaded from one assembly listing
//   - [Method]: An immutable method body with instructions and handlers
//   - [Instruction]: One decoded instruction (offset, opcode, operand)
//   - [ExceptionHandler]: Describes a try/catch/finally region (value type)
//   - [SourceLocation]: A sequence point attached to an instruction
//
// # Immutability Guarantees
//
// Constructors copy input slices and normalize operands, so a Method cannot
// be changed by its caller after [NewMethod] returns. Index-based access is
// used for collections:
//
//	method.InstructionAt(0)
//	method.HandlerAt(i)
//
// # Usage
//
//	module, err := bytecode.Unmarshal(data)
//	if err != nil {
//	    return err
//	}
//	for _, m := range module.Methods() {
//	    if err := m.Validate(); err != nil {
//	        return err
//	    }
//	}
package bytecode
