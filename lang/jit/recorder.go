package jit

import (
	"fmt"
	"sort"

	"github.com/ember-lang/ember/lang/bytecode"
	"github.com/ember-lang/ember/lang/ir"
)

// Record walks code's loop body, starting at entryPC (the loop header, i.e.
// the jump target of the LOOP instruction at loopPC) and translates it into
// ir instructions, one straight-line pass through the body.
//
// Recording aborts with an error the moment it meets anything outside the
// tight numeric loop shape it knows how to trace: a call, a nested jump, a
// store of a function value, or a comparison against a primitive (nil/true/
// false have no representation in the IR's constant pool, only numbers do).
// Falling back to the ordinary dispatch loop on any of these is always
// correct, just slower, so Record's caller treats an error as "don't cache a
// trace for this loop" rather than a hard failure.
func Record(code []bytecode.Ins, entryPC, loopPC int) (*Trace, error) {
	rec := newRecorder()

	pc := entryPC
	for pc < loopPC {
		ins := code[pc]
		op := ins.Op()

		switch {
		case op == bytecode.MOV:
			rec.store(ins.Arg1(), rec.loadSlot(uint8(ins.Arg16())))
			pc++

		case op == bytecode.SET_N:
			rec.store(ins.Arg1(), rec.loadConst(ins.Arg16()))
			pc++

		case op == bytecode.SET_P:
			return nil, fmt.Errorf("jit: cannot trace a primitive store at pc %d", pc)

		case op == bytecode.SET_F:
			return nil, fmt.Errorf("jit: cannot trace a function store at pc %d", pc)

		case op == bytecode.NEG:
			operand := rec.loadSlot(ins.Arg2())
			rec.store(ins.Arg1(), rec.unary(ir.NEG, operand))
			pc++

		case op.IsArith():
			result, err := rec.arith(op, ins)
			if err != nil {
				return nil, err
			}
			rec.store(ins.Arg1(), result)
			pc++

		case op.IsRel():
			if pc+1 >= loopPC {
				return nil, fmt.Errorf("jit: relational opcode at pc %d has no trailing jump in range", pc)
			}
			if err := rec.guard(op, ins); err != nil {
				return nil, err
			}
			pc += 2 // the relational opcode and the JMP that always follows it

		case op == bytecode.JMP:
			return nil, fmt.Errorf("jit: cannot trace a nested jump at pc %d", pc)

		case op == bytecode.CALL, op == bytecode.RET:
			return nil, fmt.Errorf("jit: cannot trace a call or return at pc %d", pc)

		default:
			return nil, fmt.Errorf("jit: unrecordable opcode %s at pc %d", op, pc)
		}
	}

	rec.closeLoop()

	trace := &Trace{EntryPC: entryPC, LoopPC: loopPC, IR: rec.ins}
	trace.NumRegs = allocate(trace.IR)
	return trace, nil
}

// recorder holds the CSE tables used while translating one trace: a
// last-writer table mapping each stack slot to the ref currently holding its
// value, a table of already-loaded constants, and a table of already-computed
// expressions so a repeated arithmetic op or guard within the same trace
// reuses its earlier result instead of re-emitting it.
type recorder struct {
	ins []ir.Ins

	slotValue map[uint8]ir.Ref
	entryLoad map[uint8]ir.Ref // the ref each slot held on entry to the loop body
	constLoad map[uint16]ir.Ref
	exprCache map[exprKey]ir.Ref
}

type exprKey struct {
	op   ir.Op
	a, b ir.Ref
}

func newRecorder() *recorder {
	return &recorder{
		slotValue: make(map[uint8]ir.Ref),
		entryLoad: make(map[uint8]ir.Ref),
		constLoad: make(map[uint16]ir.Ref),
		exprCache: make(map[exprKey]ir.Ref),
	}
}

func (r *recorder) emit(in ir.Ins) ir.Ref {
	r.ins = append(r.ins, in)
	return ir.Ref(len(r.ins))
}

func (r *recorder) loadSlot(slot uint8) ir.Ref {
	if ref, ok := r.slotValue[slot]; ok {
		return ref
	}
	ref := r.emit(ir.New1(ir.LOAD_STACK, uint32(slot)))
	r.slotValue[slot] = ref
	r.entryLoad[slot] = ref
	return ref
}

func (r *recorder) loadConst(idx uint16) ir.Ref {
	if ref, ok := r.constLoad[idx]; ok {
		return ref
	}
	ref := r.emit(ir.New1(ir.LOAD_CONST, uint32(idx)))
	r.constLoad[idx] = ref
	return ref
}

func (r *recorder) store(slot uint8, ref ir.Ref) {
	r.slotValue[slot] = ref
}

// closeLoop emits a PHI for every slot the loop body actually reassigned,
// merging the value it held on entry with the value it holds at the end of
// this pass through the body: the value flowing into the next iteration's
// header is one or the other depending on which edge taken. Slots the body
// only read, never wrote, need no PHI — their entry value is still current.
func (r *recorder) closeLoop() {
	slots := make([]uint8, 0, len(r.entryLoad))
	for slot := range r.entryLoad {
		slots = append(slots, slot)
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })

	for _, slot := range slots {
		entry := r.entryLoad[slot]
		if final := r.slotValue[slot]; final != entry {
			r.emit(ir.New2(ir.PHI, entry, final))
		}
	}
}

func (r *recorder) dedup(op ir.Op, a, b ir.Ref) (ir.Ref, bool) {
	key := exprKey{op, a, b}
	ref, ok := r.exprCache[key]
	return ref, ok
}

func (r *recorder) remember(op ir.Op, a, b ir.Ref, ref ir.Ref) {
	r.exprCache[exprKey{op, a, b}] = ref
}

func (r *recorder) unary(op ir.Op, a ir.Ref) ir.Ref {
	if ref, ok := r.dedup(op, a, ir.None); ok {
		return ref
	}
	ref := r.emit(ir.New2(op, a, ir.None))
	r.remember(op, a, ir.None, ref)
	return ref
}

func (r *recorder) binary(op ir.Op, a, b ir.Ref) ir.Ref {
	if ref, ok := r.dedup(op, a, b); ok {
		return ref
	}
	ref := r.emit(ir.New2(op, a, b))
	r.remember(op, a, b, ref)
	return ref
}

// arith translates one of bytecode's arithmetic opcodes into the IR's
// operand-order-free ADD/SUB/MUL/DIV, loading whichever of its operands are
// constants or locals it needs.
func (r *recorder) arith(op bytecode.Op, ins bytecode.Ins) (ir.Ref, error) {
	var irOp ir.Op
	switch op {
	case bytecode.ADD_LL, bytecode.ADD_LN:
		irOp = ir.ADD
	case bytecode.SUB_LL, bytecode.SUB_LN, bytecode.SUB_NL:
		irOp = ir.SUB
	case bytecode.MUL_LL, bytecode.MUL_LN:
		irOp = ir.MUL
	case bytecode.DIV_LL, bytecode.DIV_LN, bytecode.DIV_NL:
		irOp = ir.DIV
	default:
		return ir.None, fmt.Errorf("jit: unhandled arithmetic opcode %s", op)
	}

	var left, right ir.Ref
	switch op {
	case bytecode.ADD_LL, bytecode.SUB_LL, bytecode.MUL_LL, bytecode.DIV_LL:
		left = r.loadSlot(ins.Arg2())
		right = r.loadSlot(ins.Arg3())
	case bytecode.ADD_LN, bytecode.SUB_LN, bytecode.MUL_LN, bytecode.DIV_LN:
		left = r.loadSlot(ins.Arg2())
		right = r.loadConst(uint16(ins.Arg3()))
	case bytecode.SUB_NL, bytecode.DIV_NL:
		left = r.loadConst(uint16(ins.Arg2()))
		right = r.loadSlot(ins.Arg3())
	}
	return r.binary(irOp, left, right), nil
}

// guard translates a relational opcode into the matching GUARD_* op,
// asserting the condition the interpreter would have taken by falling
// through rather than branching.
func (r *recorder) guard(op bytecode.Op, ins bytecode.Ins) error {
	var irOp ir.Op
	switch op {
	case bytecode.EQ_LL, bytecode.EQ_LN:
		irOp = ir.GUARD_EQ
	case bytecode.NEQ_LL, bytecode.NEQ_LN:
		irOp = ir.GUARD_NEQ
	case bytecode.LT_LL, bytecode.LT_LN:
		irOp = ir.GUARD_LT
	case bytecode.LE_LL, bytecode.LE_LN:
		irOp = ir.GUARD_LE
	case bytecode.GT_LL, bytecode.GT_LN:
		irOp = ir.GUARD_GT
	case bytecode.GE_LL, bytecode.GE_LN:
		irOp = ir.GUARD_GE
	case bytecode.EQ_LP, bytecode.NEQ_LP:
		return fmt.Errorf("jit: cannot trace a comparison against a primitive constant")
	default:
		return fmt.Errorf("jit: unhandled relational opcode %s", op)
	}

	left := r.loadSlot(ins.Arg1())
	var right ir.Ref
	switch op {
	case bytecode.EQ_LL, bytecode.NEQ_LL, bytecode.LT_LL, bytecode.LE_LL, bytecode.GT_LL, bytecode.GE_LL:
		right = r.loadSlot(ins.Arg2())
	default:
		right = r.loadConst(uint16(ins.Arg2()))
	}

	r.binary(irOp, left, right)
	return nil
}
