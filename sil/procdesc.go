package sil

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Formal is a declared parameter of a procedure.
type Formal struct {
	Name string
	Type Typ
}

// LocalVar is a program variable owned by a procedure.
type LocalVar struct {
	Pvar Pvar
	Type Typ
}

// ProcAttributes describes the procedure a ProcDesc is created for.
type ProcAttributes struct {
	Name       string
	ReturnType Typ
	Formals    []Formal
	Loc        Location
}

// ProcDesc is the control-flow graph of one translated method. It owns its
// nodes and has exactly one start and one exit node.
type ProcDesc struct {
	attrs  ProcAttributes
	nodes  []*CfgNode
	locals []LocalVar
	start  NodeID
	exit   NodeID
}

// NewProcDesc creates a procedure with registered start and exit nodes.
func NewProcDesc(attrs ProcAttributes) *ProcDesc {
	if attrs.ReturnType == nil {
		attrs.ReturnType = Tvoid{}
	}
	attrs.Formals = append([]Formal(nil), attrs.Formals...)
	pd := &ProcDesc{attrs: attrs}
	pd.start = pd.RegisterNode(NewNode(NodeStart, attrs.Loc))
	pd.exit = pd.RegisterNode(NewNode(NodeExit, attrs.Loc))
	return pd
}

// Name returns the procedure name.
func (pd *ProcDesc) Name() string {
	return pd.attrs.Name
}

// ReturnType returns the SIL return type.
func (pd *ProcDesc) ReturnType() Typ {
	return pd.attrs.ReturnType
}

// Formals returns a copy of the declared parameters.
func (pd *ProcDesc) Formals() []Formal {
	return append([]Formal(nil), pd.attrs.Formals...)
}

// Start returns the entry node ID.
func (pd *ProcDesc) Start() NodeID {
	return pd.start
}

// Exit returns the exit node ID.
func (pd *ProcDesc) Exit() NodeID {
	return pd.exit
}

// RegisterNode adds n to the arena and returns its ID. Registering a node
// twice returns its existing ID.
func (pd *ProcDesc) RegisterNode(n *CfgNode) NodeID {
	if n.ID != NoNode && int(n.ID) < len(pd.nodes) && pd.nodes[n.ID] == n {
		return n.ID
	}
	n.ID = NodeID(len(pd.nodes))
	pd.nodes = append(pd.nodes, n)
	return n.ID
}

// Node returns the node with the given ID.
func (pd *ProcDesc) Node(id NodeID) *CfgNode {
	return pd.nodes[id]
}

// NodeCount returns the number of registered nodes.
func (pd *ProcDesc) NodeCount() int {
	return len(pd.nodes)
}

// Nodes returns the registered nodes in registration order.
func (pd *ProcDesc) Nodes() []*CfgNode {
	return append([]*CfgNode(nil), pd.nodes...)
}

// NodesOfKind returns the registered nodes of the given kind.
func (pd *ProcDesc) NodesOfKind(kind NodeKind) []*CfgNode {
	var nodes []*CfgNode
	for _, n := range pd.nodes {
		if n.Kind == kind {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// AddLocal registers a local variable. Adding the same variable twice is a
// no-op.
func (pd *ProcDesc) AddLocal(pvar Pvar, typ Typ) {
	for _, l := range pd.locals {
		if l.Pvar == pvar {
			return
		}
	}
	pd.locals = append(pd.locals, LocalVar{Pvar: pvar, Type: typ})
}

// Locals returns the registered local variables.
func (pd *ProcDesc) Locals() []LocalVar {
	return append([]LocalVar(nil), pd.locals...)
}

// AddEdge adds a normal edge from -> to and the matching predecessor link.
func (pd *ProcDesc) AddEdge(from, to NodeID) {
	src, dst := pd.nodes[from], pd.nodes[to]
	src.Succs, _ = appendUnique(src.Succs, to)
	dst.Preds, _ = appendUnique(dst.Preds, from)
}

// AddExceptionEdge records that an instruction of from may raise into to.
// The predecessor link on to is deferred until SetExceptionNodePredecessors
// runs over a subgraph containing from.
func (pd *ProcDesc) AddExceptionEdge(from, to NodeID) {
	src := pd.nodes[from]
	src.Exns, _ = appendUnique(src.Exns, to)
}

// SetExceptionNodePredecessors walks the subgraph reachable from root
// through normal and exceptional edges and back-fills the predecessor link
// of every exceptional edge found. It returns the number of links added.
func (pd *ProcDesc) SetExceptionNodePredecessors(root NodeID) int {
	added := 0
	visited := make([]bool, len(pd.nodes))
	stack := []NodeID{root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true
		n := pd.nodes[id]
		for _, exn := range n.Exns {
			var ok bool
			target := pd.nodes[exn]
			if target.Preds, ok = appendUnique(target.Preds, id); ok {
				added++
			}
			stack = append(stack, exn)
		}
		stack = append(stack, n.Succs...)
	}
	return added
}

// CloseExceptionPredecessors back-fills predecessor links for every
// exceptional edge in the procedure.
func (pd *ProcDesc) CloseExceptionPredecessors() int {
	added := 0
	for _, n := range pd.nodes {
		for _, exn := range n.Exns {
			var ok bool
			target := pd.nodes[exn]
			if target.Preds, ok = appendUnique(target.Preds, n.ID); ok {
				added++
			}
		}
	}
	return added
}

// Reachable returns the set of nodes reachable from the start node.
func (pd *ProcDesc) Reachable() map[NodeID]bool {
	seen := map[NodeID]bool{}
	stack := []NodeID{pd.start}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[id] {
			continue
		}
		seen[id] = true
		n := pd.nodes[id]
		stack = append(stack, n.Succs...)
		stack = append(stack, n.Exns...)
	}
	return seen
}

// Validate checks that every edge is recorded on both ends and that every
// reachable node other than the start node has a predecessor.
func (pd *ProcDesc) Validate() error {
	var result *multierror.Error
	for _, n := range pd.nodes {
		for _, s := range n.Succs {
			if !pd.nodes[s].HasPred(n.ID) {
				result = multierror.Append(result, fmt.Errorf("edge %d->%d has no predecessor link", n.ID, s))
			}
		}
		for _, e := range n.Exns {
			if !pd.nodes[e].HasPred(n.ID) {
				result = multierror.Append(result, fmt.Errorf("exception edge %d->%d has no predecessor link", n.ID, e))
			}
		}
		for _, p := range n.Preds {
			pred := pd.nodes[p]
			if !pred.HasSucc(n.ID) && !pred.HasExn(n.ID) {
				result = multierror.Append(result, fmt.Errorf("predecessor %d of %d has no edge to it", p, n.ID))
			}
		}
	}
	for id := range pd.Reachable() {
		if id != pd.start && len(pd.nodes[id].Preds) == 0 {
			result = multierror.Append(result, fmt.Errorf("reachable node %d has no predecessor", id))
		}
	}
	return result.ErrorOrNil()
}
