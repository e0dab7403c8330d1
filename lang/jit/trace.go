// Package jit implements the tracing recorder: given a hot loop's bytecode,
// it builds a linear SSA IR for one pass through the loop body, deduplicating
// repeated loads and recomputations as it goes, then assigns physical
// registers to every IR value with a linear-scan allocator.
//
// Recording a trace does not execute it — lang/interp hands loops to Record
// purely to exercise this pipeline once a loop is hot; running compiled
// traces instead of falling back to the ordinary dispatch loop is future
// work (see DESIGN.md).
package jit

import "github.com/ember-lang/ember/lang/ir"

// Trace is one recorded pass through a loop body: entryPC is the bytecode
// index the trace starts recording from (the loop header, i.e. the jump
// target of the loop's backward branch), and loopPC is the index of the
// LOOP instruction that closes it. IR holds the recorded instructions,
// already register-allocated.
type Trace struct {
	EntryPC int
	LoopPC  int
	IR      []ir.Ins

	// NumRegs is the number of distinct physical registers the allocator
	// used; every ir.Ins.Reg() value is in [1, NumRegs].
	NumRegs int
}
