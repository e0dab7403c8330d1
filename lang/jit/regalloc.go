package jit

import (
	"golang.org/x/exp/constraints"

	"github.com/ember-lang/ember/lang/ir"
)

// allocate assigns a physical register to every instruction's result in ins,
// in place, and returns how many distinct registers it used.
//
// It is a textbook linear scan: a reverse pass first finds each value's last
// use (values produced by LOAD_STACK/LOAD_CONST/arithmetic live until the
// last instruction that reads them as an operand; guards and PHI never feed
// another instruction, so their own index is their last use). A forward pass
// then walks the instructions in order, freeing any register whose value's
// last use has already passed, and assigning the lowest-numbered free
// register to the value born at the current instruction.
func allocate(ins []ir.Ins) int {
	if len(ins) == 0 {
		return 0
	}

	lastUse := make([]int, len(ins)+1) // indexed by Ref (1-based); lastUse[0] unused
	for i := range ins {
		lastUse[i+1] = i // a value's live range starts at its own definition
	}
	for i, in := range ins {
		op := in.Op()
		if op == ir.LOAD_STACK || op == ir.LOAD_CONST {
			continue // Arg1/Arg2 here are halves of a 32-bit immediate, not Refs
		}
		for _, ref := range []ir.Ref{in.Arg1(), in.Arg2()} {
			if ref != ir.None && int(ref) < len(lastUse) && i > lastUse[ref] {
				lastUse[ref] = i
			}
		}
	}

	type active struct {
		reg uint16
		end int
	}
	var live []active
	inUse := make(map[uint16]bool)
	numRegs := 0

	for i := range ins {
		// Expire registers whose value's last use is behind us.
		kept := live[:0]
		for _, a := range live {
			if a.end < i {
				delete(inUse, a.reg)
			} else {
				kept = append(kept, a)
			}
		}
		live = kept

		reg := lowestFree(inUse, numRegs)
		if reg == 0 {
			numRegs++
			reg = uint16(numRegs)
		}
		inUse[reg] = true

		patched := ins[i]
		patched.SetReg(reg)
		ins[i] = patched

		live = append(live, active{reg: reg, end: lastUse[i+1]})
	}
	return numRegs
}

// lowestFree returns the smallest register number in [1, limit] not marked
// used in inUse, or 0 if every register up to limit is taken (the caller
// then grows the pool by one).
func lowestFree[T constraints.Unsigned](inUse map[T]bool, limit int) uint16 {
	for r := uint16(1); int(r) <= limit; r++ {
		if !inUse[T(r)] {
			return r
		}
	}
	return 0
}
