package sil

import (
	"fmt"
	"strings"
)

// Instr is a SIL instruction. Instructions are immutable once appended to a
// node.
type Instr interface {
	Location() Location
	String() string
	instr()
}

// Load reads the value at Lvalue into a fresh identifier:
// n$1=*&x:int.
type Load struct {
	ID     Identifier
	Lvalue Expr
	Type   Typ
	Loc    Location
}

// Store writes Rvalue at Lvalue: *&x:int=n$1.
type Store struct {
	Lvalue Expr
	Rvalue Expr
	Type   Typ
	Loc    Location
}

// CallArg is one typed call argument.
type CallArg struct {
	Expr Expr
	Type Typ
}

// CallFlags carries call-site attributes.
type CallFlags struct {
	IsVirtual bool
	NoReturn  bool
}

// Call invokes Function and binds its result to ReturnID.
type Call struct {
	ReturnID   Identifier
	ReturnType Typ
	Function   Expr
	Args       []CallArg
	Flags      CallFlags
	Loc        Location
}

// PruneKind records which construct introduced a prune.
type PruneKind uint8

const (
	PruneIfKind PruneKind = iota
	PruneLoopKind
)

// Prune assumes Cond holds (or fails, when TrueBranch is false) on the
// path through its node.
type Prune struct {
	Cond       Expr
	TrueBranch bool
	Kind       PruneKind
	Loc        Location
}

func (*Load) instr()  {}
func (*Store) instr() {}
func (*Call) instr()  {}
func (*Prune) instr() {}

func (i *Load) Location() Location  { return i.Loc }
func (i *Store) Location() Location { return i.Loc }
func (i *Call) Location() Location  { return i.Loc }
func (i *Prune) Location() Location { return i.Loc }

func (i *Load) String() string {
	return fmt.Sprintf("%s=*%s:%s", i.ID, i.Lvalue, i.Type)
}

func (i *Store) String() string {
	return fmt.Sprintf("*%s:%s=%s", i.Lvalue, i.Type, i.Rvalue)
}

func (i *Call) String() string {
	args := make([]string, len(i.Args))
	for j, arg := range i.Args {
		args[j] = fmt.Sprintf("%s:%s", arg.Expr, arg.Type)
	}
	return fmt.Sprintf("%s=%s(%s)", i.ReturnID, i.Function, strings.Join(args, ","))
}

func (i *Prune) String() string {
	return fmt.Sprintf("PRUNE(%s, %t)", i.Cond, i.TrueBranch)
}
