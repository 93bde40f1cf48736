// Package sil defines the three-address intermediate representation produced
// by the translator: identifiers, types, expressions, instructions, and the
// control-flow graph of each translated method.
//
// Nodes live in an arena owned by their [ProcDesc] and refer to each other by
// [NodeID], so predecessor, successor and exception edges are plain index
// pairs. Normal edges are always recorded on both ends. Exception edges are
// recorded on the raising node first and back-filled on the receiving node by
// [ProcDesc.SetExceptionNodePredecessors] once the handler subgraph is known.
package sil
