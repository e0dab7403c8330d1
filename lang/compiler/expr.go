package compiler

import (
	"github.com/ember-lang/ember/lang/bytecode"
	"github.com/ember-lang/ember/lang/token"
	"github.com/ember-lang/ember/lang/value"
)

// exprDischarge resolves a pre-discharge node (nodeNum, nodeLocal) into its
// discharged form (nodeConst, nodeNonReloc). nodePrim, and the already
// discharged states, are left untouched.
func (c *Compiler) exprDischarge(n *node) error {
	switch n.typ {
	case nodeNum:
		idx := c.rt.AddConst(value.Num(n.num))
		if idx >= 0xffff {
			return c.errorf("too many constants in package")
		}
		n.typ = nodeConst
		n.constIdx = uint16(idx)
	case nodeLocal:
		slot, ok := c.fn.resolveLocal(n.name)
		if !ok {
			return c.errorf("undefined variable %q", n.name)
		}
		n.typ = nodeNonReloc
		n.slot = slot
	}
	return nil
}

// exprToSlot forces n's value into the specific stack slot dst, emitting
// whatever store or move is necessary.
func (c *Compiler) exprToSlot(n *node, dst uint8) error {
	if err := c.exprDischarge(n); err != nil {
		return err
	}
	switch n.typ {
	case nodePrim:
		c.emit(c.fn.fnIdx, bytecode.New2(bytecode.SET_P, dst, uint16(n.prim)))
	case nodeConst:
		c.emit(c.fn.fnIdx, bytecode.New2(bytecode.SET_N, dst, n.constIdx))
	case nodeNonReloc:
		if n.slot != dst {
			c.emit(c.fn.fnIdx, bytecode.New2(bytecode.MOV, dst, uint16(n.slot)))
		}
	case nodeReloc:
		code := c.code(c.fn.fnIdx)
		ins := code[n.relocIdx]
		ins.SetArg1(dst)
		code[n.relocIdx] = ins
	case nodeJmp:
		if err := c.materializeBool(n, dst); err != nil {
			return err
		}
	default:
		return c.errorf("internal error: cannot sink node to slot")
	}
	n.typ = nodeNonReloc
	n.slot = dst
	return nil
}

// materializeBool turns a conditional (true/false jump lists) into a
// concrete boolean value stored in dst: the true case falls through (and
// the true-list lands) on a SETP true, followed by a jump over the false
// branch; the false-list lands on a SETP false.
func (c *Compiler) materializeBool(n *node, dst uint8) error {
	c.jmpEnsureTrueFallsThrough(n)
	c.jmpListPatchHere(n.jmp.trueList)
	c.emit(c.fn.fnIdx, bytecode.New2(bytecode.SET_P, dst, uint16(value.PrimTrue)))
	skip := c.emitJump(bytecode.JMP)
	c.jmpListPatchHere(n.jmp.falseList)
	c.emit(c.fn.fnIdx, bytecode.New2(bytecode.SET_P, dst, uint16(value.PrimFalse)))
	c.jmpListPatchHere(skip)
	return nil
}

// exprToNextSlot sinks n into a brand new temporary slot.
func (c *Compiler) exprToNextSlot(n *node) error {
	slot, err := c.fn.allocSlot()
	if err != nil {
		return err
	}
	return c.exprToSlot(n, slot)
}

// exprToAnySlot returns a slot holding n's value: its own slot if it is
// already nodeNonReloc, otherwise a freshly allocated one.
func (c *Compiler) exprToAnySlot(n *node) (uint8, error) {
	if err := c.exprDischarge(n); err != nil {
		return 0, err
	}
	if n.typ == nodeNonReloc {
		return n.slot, nil
	}
	if err := c.exprToNextSlot(n); err != nil {
		return 0, err
	}
	return n.slot, nil
}

// exprToInsArg reduces n to an 8-bit value usable as the operand of a
// 3-argument-shaped arithmetic or relational instruction: a primitive or
// small constant index is used inline, and anything else (including a
// constant index too large to fit in a byte) is materialized into a slot.
func (c *Compiler) exprToInsArg(n *node) (uint8, error) {
	if err := c.exprDischarge(n); err != nil {
		return 0, err
	}
	switch n.typ {
	case nodePrim:
		return uint8(n.prim), nil
	case nodeConst:
		if n.constIdx < 256 {
			return uint8(n.constIdx), nil
		}
		if err := c.exprToNextSlot(n); err != nil {
			return 0, err
		}
		return n.slot, nil
	case nodeNonReloc:
		return n.slot, nil
	default:
		if err := c.exprToNextSlot(n); err != nil {
			return 0, err
		}
		return n.slot, nil
	}
}

// exprFreeNode releases n's slot, if it holds a temporary eligible to be
// reclaimed (see fnScope.freeSlot).
func (c *Compiler) exprFreeNode(n *node) {
	if n.typ == nodeNonReloc {
		c.fn.freeSlot(n.slot)
	}
}

// freeTopDown frees the temporaries held by a and b in descending slot
// order, matching the stack discipline the allocator requires: the
// higher-numbered (more recently allocated) slot must be freed first.
func (c *Compiler) freeTopDown(a, b *node) {
	if a.typ == nodeNonReloc && b.typ == nodeNonReloc && a.slot > b.slot {
		c.exprFreeNode(a)
		c.exprFreeNode(b)
		return
	}
	c.exprFreeNode(b)
	c.exprFreeNode(a)
}

// exprFoldArith constant-folds a numeric binary operator applied to two
// literal numbers, returning ok=false if either operand is not a bare
// literal (i.e. folding does not apply; one or both must be emitted).
func exprFoldArith(op token.Token, l, r *node) (node, bool) {
	if l.typ != nodeNum || r.typ != nodeNum {
		return node{}, false
	}
	var v float64
	switch op {
	case token.Token('+'):
		v = l.num + r.num
	case token.Token('-'):
		v = l.num - r.num
	case token.Token('*'):
		v = l.num * r.num
	case token.Token('/'):
		v = l.num / r.num
	default:
		return node{}, false
	}
	return node{typ: nodeNum, num: v}, true
}

// exprFoldRel constant-folds a relational operator applied to two literal
// operands, when both are numbers (ordering and equality) or both are
// primitives (equality only: nil/true/false have no ordering).
func exprFoldRel(op token.Token, l, r *node) (node, bool) {
	truth := func(b bool) node {
		if b {
			return node{typ: nodePrim, prim: value.PrimTrue}
		}
		return node{typ: nodePrim, prim: value.PrimFalse}
	}
	if l.typ == nodeNum && r.typ == nodeNum {
		switch op {
		case token.EQ:
			return truth(l.num == r.num), true
		case token.NEQ:
			return truth(l.num != r.num), true
		case token.Token('<'):
			return truth(l.num < r.num), true
		case token.LE:
			return truth(l.num <= r.num), true
		case token.Token('>'):
			return truth(l.num > r.num), true
		case token.GE:
			return truth(l.num >= r.num), true
		}
		return node{}, false
	}
	if l.typ == nodePrim && r.typ == nodePrim {
		switch op {
		case token.EQ:
			return truth(l.prim == r.prim), true
		case token.NEQ:
			return truth(l.prim != r.prim), true
		}
		return node{}, false
	}
	return node{}, false
}

// relOpcode picks the base relational opcode family for op.
func relOpcode(op token.Token) bytecode.Op {
	switch op {
	case token.EQ:
		return bytecode.EQ_LL
	case token.NEQ:
		return bytecode.NEQ_LL
	case token.Token('<'):
		return bytecode.LT_LL
	case token.LE:
		return bytecode.LE_LL
	case token.Token('>'):
		return bytecode.GT_LL
	case token.GE:
		return bytecode.GE_LL
	}
	return bytecode.MOV // unreachable for well-formed callers
}

// arithOpcode picks the base (local, local) opcode family for op.
func arithOpcode(op token.Token) bytecode.Op {
	switch op {
	case token.Token('+'):
		return bytecode.ADD_LL
	case token.Token('-'):
		return bytecode.SUB_LL
	case token.Token('*'):
		return bytecode.MUL_LL
	case token.Token('/'):
		return bytecode.DIV_LL
	}
	return bytecode.MOV
}

// arithLNVariant returns the (local, const) form of an arithmetic opcode.
func arithLNVariant(base bytecode.Op) bytecode.Op {
	switch base {
	case bytecode.ADD_LL:
		return bytecode.ADD_LN
	case bytecode.SUB_LL:
		return bytecode.SUB_LN
	case bytecode.MUL_LL:
		return bytecode.MUL_LN
	case bytecode.DIV_LL:
		return bytecode.DIV_LN
	}
	return base
}

// arithNLVariant returns the (const, local) form of a non-commutative
// arithmetic opcode; ADD and MUL have none since they commute instead.
func arithNLVariant(base bytecode.Op) (bytecode.Op, bool) {
	switch base {
	case bytecode.SUB_LL:
		return bytecode.SUB_NL, true
	case bytecode.DIV_LL:
		return bytecode.DIV_NL, true
	}
	return base, false
}

func relLNVariant(base bytecode.Op) bytecode.Op {
	switch base {
	case bytecode.EQ_LL:
		return bytecode.EQ_LN
	case bytecode.NEQ_LL:
		return bytecode.NEQ_LN
	case bytecode.LT_LL:
		return bytecode.LT_LN
	case bytecode.LE_LL:
		return bytecode.LE_LN
	case bytecode.GT_LL:
		return bytecode.GT_LN
	case bytecode.GE_LL:
		return bytecode.GE_LN
	}
	return base
}

func relLPVariant(base bytecode.Op) (bytecode.Op, bool) {
	switch base {
	case bytecode.EQ_LL:
		return bytecode.EQ_LP, true
	case bytecode.NEQ_LL:
		return bytecode.NEQ_LP, true
	}
	return base, false
}

// exprEmitArith compiles l op r, folding it at compile time if both
// operands are literal numbers, otherwise emitting the arithmetic
// instruction whose opcode variant best matches which operand (if any) is
// a constant.
func (c *Compiler) exprEmitArith(op token.Token, l, r *node) (node, error) {
	if folded, ok := exprFoldArith(op, l, r); ok {
		return folded, nil
	}
	if err := c.exprDischarge(l); err != nil {
		return node{}, err
	}
	if err := c.exprDischarge(r); err != nil {
		return node{}, err
	}

	base := arithOpcode(op)
	leftConst := l.typ == nodeConst
	rightConst := r.typ == nodeConst

	var opc bytecode.Op
	var leftSlot, rightArg uint8
	var err error

	switch {
	case leftConst && !rightConst:
		if nl, ok := arithNLVariant(base); ok {
			opc = nl
			leftSlot, err = c.exprToInsArg(l)
			if err != nil {
				return node{}, err
			}
			rightArg, err = c.exprToAnySlot(r)
			if err != nil {
				return node{}, err
			}
		} else {
			// Commutative: swap so the constant lands on the right.
			opc = arithLNVariant(base)
			leftSlot, err = c.exprToAnySlot(r)
			if err != nil {
				return node{}, err
			}
			rightArg, err = c.exprToInsArg(l)
			if err != nil {
				return node{}, err
			}
		}
	case rightConst:
		opc = arithLNVariant(base)
		leftSlot, err = c.exprToAnySlot(l)
		if err != nil {
			return node{}, err
		}
		rightArg, err = c.exprToInsArg(r)
		if err != nil {
			return node{}, err
		}
	default:
		opc = base
		leftSlot, err = c.exprToAnySlot(l)
		if err != nil {
			return node{}, err
		}
		rightArg, err = c.exprToAnySlot(r)
		if err != nil {
			return node{}, err
		}
	}

	c.freeTopDown(l, r)
	idx := c.emit(c.fn.fnIdx, bytecode.New3(opc, 0, leftSlot, rightArg))
	return node{typ: nodeReloc, relocIdx: idx}, nil
}

// exprEmitRel compiles l op r into a jmp node: a relational instruction
// immediately followed by a placeholder JMP, threaded onto the false list
// (the true case falls through, per jmpListPatch/jmpEnsure* conventions).
func (c *Compiler) exprEmitRel(op token.Token, l, r *node) (node, error) {
	if folded, ok := exprFoldRel(op, l, r); ok {
		return folded, nil
	}
	if err := c.exprDischarge(l); err != nil {
		return node{}, err
	}
	if err := c.exprDischarge(r); err != nil {
		return node{}, err
	}
	if op != token.EQ && op != token.NEQ && (l.typ == nodePrim || r.typ == nodePrim) {
		return node{}, c.errorf("ordering operators do not apply to nil, true or false")
	}

	base := relOpcode(op)
	leftConst := l.typ == nodeConst || l.typ == nodePrim
	rightConst := r.typ == nodeConst || r.typ == nodePrim

	var opc bytecode.Op
	var leftSlot, rightArg uint8
	var err error

	switch {
	case leftConst && !rightConst:
		swapped, ok := relOpSwap[base]
		if !ok {
			swapped = base
		}
		if lp, isLP := relLPVariant(swapped); isLP && l.typ == nodePrim {
			opc = lp
		} else {
			opc = relLNVariant(swapped)
		}
		leftSlot, err = c.exprToAnySlot(r)
		if err != nil {
			return node{}, err
		}
		rightArg, err = c.exprToInsArg(l)
		if err != nil {
			return node{}, err
		}
	case rightConst:
		if lp, isLP := relLPVariant(base); isLP && r.typ == nodePrim {
			opc = lp
		} else {
			opc = relLNVariant(base)
		}
		leftSlot, err = c.exprToAnySlot(l)
		if err != nil {
			return node{}, err
		}
		rightArg, err = c.exprToInsArg(r)
		if err != nil {
			return node{}, err
		}
	default:
		opc = base
		leftSlot, err = c.exprToAnySlot(l)
		if err != nil {
			return node{}, err
		}
		rightArg, err = c.exprToAnySlot(r)
		if err != nil {
			return node{}, err
		}
	}

	c.freeTopDown(l, r)
	c.emit(c.fn.fnIdx, bytecode.New3(opc, leftSlot, rightArg, 0))
	jpc := c.emitJump(bytecode.JMP)
	out := node{typ: nodeJmp, jmp: jmpInfo{trueList: noJmp, falseList: noJmp}}
	c.fn.jmpListAppend(&out.jmp.falseList, jpc)
	return out, nil
}

// exprToJmp turns any node into its jmp-list form, so it can take part in
// && / || short-circuiting or be used directly as an if/while condition.
func (c *Compiler) exprToJmp(n *node) error {
	if n.typ == nodeJmp {
		return nil
	}
	slot, err := c.exprToAnySlot(n)
	if err != nil {
		return err
	}
	c.emit(c.fn.fnIdx, bytecode.New3(bytecode.EQ_LP, slot, uint8(value.PrimTrue), 0))
	jpc := c.emitJump(bytecode.JMP)
	n.typ = nodeJmp
	n.jmp = jmpInfo{trueList: noJmp, falseList: noJmp}
	c.fn.jmpListAppend(&n.jmp.falseList, jpc)
	return nil
}

// exprEmitAnd short-circuits: if l is false, skip r and the whole
// expression is false; otherwise the result is r's truth value.
func (c *Compiler) exprEmitAnd(l, r *node) (node, error) {
	if err := c.exprToJmp(l); err != nil {
		return node{}, err
	}
	c.jmpEnsureTrueFallsThrough(l)
	c.jmpListPatchHere(l.jmp.trueList)
	if err := c.exprToJmp(r); err != nil {
		return node{}, err
	}
	return node{
		typ: nodeJmp,
		jmp: jmpInfo{
			trueList:  r.jmp.trueList,
			falseList: c.fn.jmpListMerge(l.jmp.falseList, r.jmp.falseList),
		},
	}, nil
}

// exprEmitOr is the dual of exprEmitAnd: if l is true, short-circuit to
// true; otherwise the result is r's truth value.
func (c *Compiler) exprEmitOr(l, r *node) (node, error) {
	if err := c.exprToJmp(l); err != nil {
		return node{}, err
	}
	c.jmpEnsureFalseFallsThrough(l)
	c.jmpListPatchHere(l.jmp.falseList)
	if err := c.exprToJmp(r); err != nil {
		return node{}, err
	}
	return node{
		typ: nodeJmp,
		jmp: jmpInfo{
			trueList:  c.fn.jmpListMerge(l.jmp.trueList, r.jmp.trueList),
			falseList: r.jmp.falseList,
		},
	}, nil
}

// exprEmitNeg compiles unary minus, folding a literal number directly.
func (c *Compiler) exprEmitNeg(n *node) (node, error) {
	if n.typ == nodeNum {
		return node{typ: nodeNum, num: -n.num}, nil
	}
	slot, err := c.exprToAnySlot(n)
	if err != nil {
		return node{}, err
	}
	c.exprFreeNode(n)
	// New3, not New1: NEG's dest (arg1) must live in a different byte than
	// its operand (arg2), since a nodeReloc result gets its dest patched in
	// place by exprToSlot once the caller decides where it lands.
	idx := c.emit(c.fn.fnIdx, bytecode.New3(bytecode.NEG, 0, slot, 0))
	return node{typ: nodeReloc, relocIdx: idx}, nil
}

// exprEmitNot compiles logical negation by swapping a jmp node's true and
// false lists, or materializing and swapping otherwise.
func (c *Compiler) exprEmitNot(n *node) (node, error) {
	if n.typ == nodePrim {
		if n.prim == value.PrimNil || n.prim == value.PrimFalse {
			return node{typ: nodePrim, prim: value.PrimTrue}, nil
		}
		return node{typ: nodePrim, prim: value.PrimFalse}, nil
	}
	if err := c.exprToJmp(n); err != nil {
		return node{}, err
	}
	return node{typ: nodeJmp, jmp: jmpInfo{trueList: n.jmp.falseList, falseList: n.jmp.trueList}}, nil
}
