package compiler

import "github.com/ember-lang/ember/lang/bytecode"

// A jump list is identified by the bytecode index of its head jump
// instruction, or -1 for an empty list. Each node's "next" link lives in
// fnScope.jmpNext, not in the instruction itself (see fnScope's doc comment).

const noJmp = -1

// jmpLink returns the next jump in pc's list, or noJmp if pc is the tail.
func (fc *fnScope) jmpLink(pc int) int {
	if n, ok := fc.jmpNext[pc]; ok {
		return n
	}
	return noJmp
}

// jmpListAppend prepends pc to *list, making it the new head.
func (fc *fnScope) jmpListAppend(list *int, pc int) {
	fc.jmpNext[pc] = *list
	*list = pc
}

// jmpListMerge splices left onto the tail of right and returns right's
// head, so the more recently emitted list (right) leads the merged list.
// Either side may be empty.
func (fc *fnScope) jmpListMerge(left, right int) int {
	if left == noJmp {
		return right
	}
	if right == noJmp {
		return left
	}
	pc := right
	for fc.jmpLink(pc) != noJmp {
		pc = fc.jmpLink(pc)
	}
	fc.jmpNext[pc] = left
	return right
}

// jmpListPatch retargets every jump in list to land at targetPC.
func (c *Compiler) jmpListPatch(list int, targetPC int) {
	code := c.code(c.fn.fnIdx)
	for pc := list; pc != noJmp; pc = c.fn.jmpLink(pc) {
		offset := int32(targetPC - pc - 1)
		ins := code[pc]
		ins.SetArg24(uint32(offset + bytecode.JmpBias))
		code[pc] = ins
	}
}

// jmpListPatchHere patches list to the next instruction to be emitted.
func (c *Compiler) jmpListPatchHere(list int) {
	c.jmpListPatch(list, len(c.code(c.fn.fnIdx)))
}

// emitJump appends a placeholder JMP/LOOP instruction (target not yet
// known) and returns its bytecode index.
func (c *Compiler) emitJump(op bytecode.Op) int {
	return c.emit(c.fn.fnIdx, bytecode.New1(op, bytecode.JmpBias))
}

// jmpEnsureFalseFallsThrough arranges for cond's false branch to fall
// through to the next emitted instruction, inverting the logically-last
// relational opcode and swapping its jump to the other list when the
// condition as compiled would otherwise fall through on true. List heads
// are always the most recently emitted jump of their list, so the last jump
// is on the false list exactly when the false head is the larger index.
func (c *Compiler) jmpEnsureFalseFallsThrough(cond *node) {
	if cond.jmp.falseList == noJmp || cond.jmp.falseList < cond.jmp.trueList {
		return
	}
	trueJmp := cond.jmp.falseList
	c.invertTrailingRel(trueJmp)
	cond.jmp.falseList = c.fn.jmpLink(trueJmp)
	c.fn.jmpListAppend(&cond.jmp.trueList, trueJmp)
}

// jmpEnsureTrueFallsThrough is the mirror image: arranges for the true
// branch to fall through, inverting the same way when needed.
func (c *Compiler) jmpEnsureTrueFallsThrough(cond *node) {
	if cond.jmp.trueList == noJmp || cond.jmp.trueList < cond.jmp.falseList {
		return
	}
	falseJmp := cond.jmp.trueList
	c.invertTrailingRel(falseJmp)
	cond.jmp.trueList = c.fn.jmpLink(falseJmp)
	c.fn.jmpListAppend(&cond.jmp.falseList, falseJmp)
}

// invertTrailingRel flips the relational opcode immediately preceding a
// jump at pc to its logical negation, so the jump that used to fire on the
// condition being false now fires on it being true (or vice versa).
func (c *Compiler) invertTrailingRel(pc int) {
	relPC := pc - 1
	if relPC < 0 {
		return
	}
	code := c.code(c.fn.fnIdx)
	op := code[relPC].Op()
	inv, ok := relInvert[op]
	if !ok {
		return
	}
	ins := code[relPC]
	ins.SetOp(inv)
	code[relPC] = ins
}

// relInvert maps every relational opcode to the opcode testing its logical
// negation (a < b  <=>  !(a >= b), etc).
var relInvert = map[bytecode.Op]bytecode.Op{
	bytecode.EQ_LL: bytecode.NEQ_LL, bytecode.NEQ_LL: bytecode.EQ_LL,
	bytecode.EQ_LN: bytecode.NEQ_LN, bytecode.NEQ_LN: bytecode.EQ_LN,
	bytecode.EQ_LP: bytecode.NEQ_LP, bytecode.NEQ_LP: bytecode.EQ_LP,
	bytecode.LT_LL: bytecode.GE_LL, bytecode.GE_LL: bytecode.LT_LL,
	bytecode.LT_LN: bytecode.GE_LN, bytecode.GE_LN: bytecode.LT_LN,
	bytecode.LE_LL: bytecode.GT_LL, bytecode.GT_LL: bytecode.LE_LL,
	bytecode.LE_LN: bytecode.GT_LN, bytecode.GT_LN: bytecode.LE_LN,
}

// relOpSwap maps a relational opcode to the opcode that tests the same
// condition with its operands reversed (used when the left operand is a
// constant and needs to move to the right to reuse an _LN-suffixed opcode).
var relOpSwap = map[bytecode.Op]bytecode.Op{
	bytecode.EQ_LL: bytecode.EQ_LL, bytecode.NEQ_LL: bytecode.NEQ_LL,
	bytecode.LT_LL: bytecode.GT_LL, bytecode.GT_LL: bytecode.LT_LL,
	bytecode.LE_LL: bytecode.GE_LL, bytecode.GE_LL: bytecode.LE_LL,
}
