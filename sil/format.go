package sil

import (
	"fmt"
	"strings"
)

// Format pretty prints a procedure in the node listing style the analyzer
// prints its own graphs in:
//
//	node 4 (exception_handler) preds: 2 3 succs: 5 exn:
//	    n$2=*&CatchVar1:System.Object*;
func Format(pd *ProcDesc) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", pd.Name(), pd.ReturnType())
	if locals := pd.Locals(); len(locals) > 0 {
		b.WriteString("    locals:")
		for _, l := range locals {
			fmt.Fprintf(&b, " %s:%s", l.Pvar, l.Type)
		}
		b.WriteByte('\n')
	}
	for _, n := range pd.nodes {
		b.WriteString(FormatNode(n))
	}
	return b.String()
}

// FormatCfg pretty prints every procedure of a Cfg.
func FormatCfg(c *Cfg) string {
	var b strings.Builder
	for i, pd := range c.Procs() {
		if i != 0 {
			b.WriteByte('\n')
		}
		b.WriteString(Format(pd))
	}
	return b.String()
}

// FormatNode pretty prints a single node and its instructions.
func FormatNode(n *CfgNode) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  node %d (%s) preds:", n.ID, n.Kind)
	writeIDs(&b, n.Preds)
	b.WriteString(" succs:")
	writeIDs(&b, n.Succs)
	b.WriteString(" exn:")
	writeIDs(&b, n.Exns)
	b.WriteByte('\n')
	for _, instr := range n.Instrs {
		b.WriteString("    ")
		b.WriteString(instr.String())
		b.WriteString(";\n")
	}
	return b.String()
}

func writeIDs(b *strings.Builder, ids []NodeID) {
	for _, id := range ids {
		fmt.Fprintf(b, " %d", id)
	}
}
