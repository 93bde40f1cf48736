package sil

// NodeID is the handle of a node inside its ProcDesc arena.
type NodeID int

// NoNode is the ID of a node that has not been registered.
const NoNode NodeID = -1

// NodeKind is the kind of a CFG node.
type NodeKind uint8

const (
	NodeStart NodeKind = iota
	NodeExit
	NodeStatement
	NodeExceptionHandler
	NodeReturnStmt
	NodeReturnException
	NodeThrow
	NodePrune
	NodeJoin
)

func (k NodeKind) String() string {
	switch k {
	case NodeStart:
		return "start"
	case NodeExit:
		return "exit"
	case NodeStatement:
		return "statement"
	case NodeExceptionHandler:
		return "exception_handler"
	case NodeReturnStmt:
		return "return"
	case NodeReturnException:
		return "return_exception"
	case NodeThrow:
		return "throw"
	case NodePrune:
		return "prune"
	case NodeJoin:
		return "join"
	default:
		return "unknown"
	}
}

// CfgNode is a node of a method's control-flow graph.
type CfgNode struct {
	ID     NodeID
	Kind   NodeKind
	Loc    Location
	Instrs []Instr

	// Preds lists nodes with a normal or exceptional edge into this node.
	Preds []NodeID
	// Succs lists normal-flow successors.
	Succs []NodeID
	// Exns lists the nodes control reaches when an instruction of this
	// node raises.
	Exns []NodeID
}

// NewNode returns an unregistered node. It gets an ID when registered with
// ProcDesc.RegisterNode.
func NewNode(kind NodeKind, loc Location) *CfgNode {
	return &CfgNode{ID: NoNode, Kind: kind, Loc: loc}
}

// Append adds instructions at the end of the node.
func (n *CfgNode) Append(instrs ...Instr) {
	n.Instrs = append(n.Instrs, instrs...)
}

// HasPred reports whether id is a predecessor of the node.
func (n *CfgNode) HasPred(id NodeID) bool {
	return containsID(n.Preds, id)
}

// HasSucc reports whether id is a normal successor of the node.
func (n *CfgNode) HasSucc(id NodeID) bool {
	return containsID(n.Succs, id)
}

// HasExn reports whether id is an exception successor of the node.
func (n *CfgNode) HasExn(id NodeID) bool {
	return containsID(n.Exns, id)
}

// IsStatement reports whether the node holds translated bytecode rather
// than synthetic handler plumbing.
func (n *CfgNode) IsStatement() bool {
	switch n.Kind {
	case NodeStatement, NodeReturnStmt, NodeThrow, NodePrune, NodeJoin:
		return true
	default:
		return false
	}
}

func containsID(ids []NodeID, id NodeID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

func appendUnique(ids []NodeID, id NodeID) ([]NodeID, bool) {
	if containsID(ids, id) {
		return ids, false
	}
	return append(ids, id), true
}
