package translate

import (
	"github.com/deepnoodle-ai/cilsil/sil"
)

// CreateExceptionDoor builds and registers the node through which an
// exception raised in a protected region enters its handler:
//
//	n$1=*&return:T;
//	*&return:T=null;
//	n$2=_fun___unwrap_exception(n$1:T);
//
// n$2 is pushed onto the operand stack unless the method returns
// System.Object. Doors are never looked up in the offset cache: each
// protected region gets its own.
func CreateExceptionDoor(state *ProgramState) sil.NodeID {
	door := state.NewNode(sil.NodeExceptionHandler)
	returnSlot := sil.LvarExpr{Pvar: sil.ReturnPvar(state.Method.FullName())}
	returnType := state.ReturnType()

	loaded := state.GetIdentifier(sil.IdentNormal)
	door.Append(
		&sil.Load{ID: loaded, Lvalue: returnSlot, Type: returnType, Loc: state.CurrentLocation},
		&sil.Store{Lvalue: returnSlot, Rvalue: sil.Null, Type: returnType, Loc: state.CurrentLocation},
		createUnwrapExceptionCall(state, sil.VarExpr{ID: loaded}, returnType),
	)
	id := state.RegisterNode(door)
	state.logger.Debug().Int("node", int(id)).Msg("exception door created")
	return id
}

func createUnwrapExceptionCall(state *ProgramState, exception sil.Expr, exceptionType sil.Typ) *sil.Call {
	result := state.GetIdentifier(sil.IdentNormal)
	returnType := state.ReturnType()
	if state.Method.ReturnType() != sil.ObjectTypeName {
		state.Push(sil.VarExpr{ID: result}, returnType)
	}
	return &sil.Call{
		ReturnID:   result,
		ReturnType: returnType,
		Function:   sil.ConstExpr{Const: sil.FunConst{Name: sil.BuiltinUnwrapException}},
		Args:       []sil.CallArg{{Expr: exception, Type: exceptionType}},
		Loc:        state.CurrentLocation,
	}
}

// createAtriumNode builds the entry node of a handler, loading the caught
// exception from catchVar:
//
//	n$3=*&CatchVar1:System.Object*;
//
// The node is not registered.
func createAtriumNode(state *ProgramState, catchVar sil.LvarExpr) (*sil.CfgNode, sil.Identifier) {
	atrium := state.NewNode(sil.NodeExceptionHandler)
	loaded := state.GetIdentifier(sil.IdentNormal)
	atrium.Append(&sil.Load{ID: loaded, Lvalue: catchVar, Type: sil.ObjectType, Loc: state.CurrentLocation})
	return atrium, loaded
}

// exceptionDoor returns the door of the protected region of handler idx,
// creating it on first use.
func (s *ProgramState) exceptionDoor(idx int) sil.NodeID {
	if door, ok := s.doors[idx]; ok {
		return door
	}
	door := CreateExceptionDoor(s)
	s.doors[idx] = door
	return door
}
