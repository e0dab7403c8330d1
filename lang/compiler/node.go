// Package compiler implements the single-pass recursive-descent compiler:
// it walks the token stream once, emitting bytecode directly as it parses,
// with no intermediate AST. Expression results are tracked as operand
// "nodes" in one of a handful of states (a raw number, a named local, a
// primitive, a discharged constant, a relocatable or fixed instruction, or a
// pending conditional jump) until they are finally "sunk" into a concrete
// stack slot or instruction argument.
package compiler

import "github.com/ember-lang/ember/lang/value"

// nodeType is the state of an expression operand.
type nodeType int

const (
	// Pre-discharged operands: raw values not yet turned into bytecode.
	nodeNum   nodeType = iota // an undischarged numeric literal
	nodeLocal                 // a reference to a named local, not yet marked non-reloc
	nodePrim                  // a primitive literal: nil, true, false

	// Discharged operands.
	nodeConst    // a numeric constant, with its pool index resolved
	nodeReloc    // the result of an already-emitted instruction pending a dest slot
	nodeNonReloc // a value that already lives in a fixed stack slot
	nodeJmp      // a conditional, represented as true/false jump lists
)

// jmpInfo holds the head indices of a conditional node's true and false
// jump lists (see jumplist.go). -1 means "list is empty".
type jmpInfo struct {
	trueList, falseList int
}

// node is an operand of an expression being compiled. Only the field(s)
// relevant to typ are meaningful at any given time; this mirrors the
// reference compiler's tagged union, expressed here as a plain struct since
// Go has no union types.
type node struct {
	typ nodeType

	num      float64         // nodeNum
	name     string          // nodeLocal: identifier, resolved to a slot on discharge
	slot     uint8           // nodeLocal (once resolved), nodeNonReloc
	prim     value.Primitive // nodePrim
	constIdx uint16          // nodeConst
	relocIdx int             // nodeReloc: bytecode index of the instruction to patch
	jmp      jmpInfo         // nodeJmp
}

// isConst reports whether n already holds (or, once discharged, would hold)
// a compile-time constant value.
func (n *node) isConst() bool {
	return n.typ == nodeNum || n.typ == nodePrim || n.typ == nodeConst
}
