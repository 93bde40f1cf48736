package sil

import (
	"fmt"
	"strconv"
)

// Expr is a pure SIL value expression.
type Expr interface {
	String() string
	expr()
}

// VarExpr reads an identifier.
type VarExpr struct{ ID Identifier }

// LvarExpr is the address of a program variable.
type LvarExpr struct{ Pvar Pvar }

// ConstExpr is a constant.
type ConstExpr struct{ Const Const }

// ExnExpr marks its value as the currently propagating exception.
type ExnExpr struct{ Value Expr }

// BinopExpr applies a binary operator.
type BinopExpr struct {
	Op    BinOp
	Left  Expr
	Right Expr
}

// UnopExpr applies a unary operator.
type UnopExpr struct {
	Op      UnOp
	Operand Expr
}

func (VarExpr) expr()   {}
func (LvarExpr) expr()  {}
func (ConstExpr) expr() {}
func (ExnExpr) expr()   {}
func (BinopExpr) expr() {}
func (UnopExpr) expr()  {}

func (e VarExpr) String() string   { return e.ID.String() }
func (e LvarExpr) String() string  { return "&" + e.Pvar.String() }
func (e ConstExpr) String() string { return e.Const.String() }
func (e ExnExpr) String() string   { return "EXN " + e.Value.String() }

func (e BinopExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", e.Left, e.Op, e.Right)
}

func (e UnopExpr) String() string {
	return fmt.Sprintf("%s%s", e.Op, e.Operand)
}

// BinOp is a binary operator.
type BinOp uint8

const (
	PlusA BinOp = iota
	MinusA
	Mult
	Div
	Mod
	Eq
	Gt
	Lt
)

func (op BinOp) String() string {
	switch op {
	case PlusA:
		return "+"
	case MinusA:
		return "-"
	case Mult:
		return "*"
	case Div:
		return "/"
	case Mod:
		return "%"
	case Eq:
		return "=="
	case Gt:
		return ">"
	case Lt:
		return "<"
	default:
		return "?"
	}
}

// UnOp is a unary operator.
type UnOp uint8

const (
	Neg UnOp = iota
	LNot
)

func (op UnOp) String() string {
	switch op {
	case Neg:
		return "-"
	case LNot:
		return "!"
	default:
		return "?"
	}
}

// Const is a constant value.
type Const interface {
	String() string
	constant()
}

// IntConst is an integer constant. A zero pointer constant prints as null.
type IntConst struct {
	Value     int64
	Unsigned  bool
	IsPointer bool
}

// FloatConst is a floating point constant.
type FloatConst struct{ Value float64 }

// StrConst is a string literal.
type StrConst struct{ Value string }

// FunConst names a procedure.
type FunConst struct{ Name string }

func (IntConst) constant()   {}
func (FloatConst) constant() {}
func (StrConst) constant()   {}
func (FunConst) constant()   {}

func (c IntConst) String() string {
	if c.IsPointer && c.Value == 0 {
		return "null"
	}
	return strconv.FormatInt(c.Value, 10)
}

func (c FloatConst) String() string { return strconv.FormatFloat(c.Value, 'g', -1, 64) }
func (c StrConst) String() string   { return strconv.Quote(c.Value) }
func (c FunConst) String() string   { return "_fun_" + c.Name }

// BuiltinUnwrapException is the builtin that extracts the exception object
// from a value found in the return slot during propagation.
const BuiltinUnwrapException = "__unwrap_exception"

// Null is the null reference constant.
var Null Expr = ConstExpr{Const: IntConst{Value: 0, IsPointer: true}}
