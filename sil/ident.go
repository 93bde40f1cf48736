package sil

import "fmt"

// IdentKind tags an identifier with the role it plays in the method.
type IdentKind uint8

const (
	IdentNormal IdentKind = iota
	IdentCatch
	IdentByteCode
	IdentReturn
)

func (k IdentKind) String() string {
	switch k {
	case IdentNormal:
		return "normal"
	case IdentCatch:
		return "catch"
	case IdentByteCode:
		return "bytecode"
	case IdentReturn:
		return "return"
	default:
		return "unknown"
	}
}

// Identifier is a fresh name drawn from a per-method counter. The stamp
// alone makes an identifier unique within its method; the kind is for
// readability and downstream pattern matching.
type Identifier struct {
	Kind  IdentKind
	Stamp int
}

// ReturnIdentifier names the implicit return slot of a method.
var ReturnIdentifier = Identifier{Kind: IdentReturn}

func (id Identifier) String() string {
	switch id.Kind {
	case IdentCatch:
		return fmt.Sprintf("CatchVar%d", id.Stamp)
	case IdentByteCode:
		return fmt.Sprintf("$bcvar%d", id.Stamp)
	case IdentReturn:
		return "return"
	default:
		return fmt.Sprintf("n$%d", id.Stamp)
	}
}

// Pvar is a program variable scoped to one method.
type Pvar struct {
	Name   string
	Method string
}

// NewPvar returns the program variable named by an identifier.
func NewPvar(id Identifier, method string) Pvar {
	return Pvar{Name: id.String(), Method: method}
}

// ReturnPvar returns the return slot variable of a method.
func ReturnPvar(method string) Pvar {
	return NewPvar(ReturnIdentifier, method)
}

func (p Pvar) String() string {
	return p.Name
}
