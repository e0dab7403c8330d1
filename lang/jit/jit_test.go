package jit_test

import (
	"testing"

	"github.com/ember-lang/ember/lang/bytecode"
	"github.com/ember-lang/ember/lang/ir"
	"github.com/ember-lang/ember/lang/jit"
	"github.com/stretchr/testify/require"
)

// buildLoop assembles:
//
//	LOOP header (pc 0):
//	  0: ADD_LL  1, 1, 0    ; x = x + y
//	  1: LT_LL   1, 2       ; x < limit: skips the exit jump while it holds
//	  2: JMP     <exit>     ; placeholder exit, never followed by Record
//	  3: LOOP    <header>
//
// and records it, returning the trace.
func buildLoop(t *testing.T) *jit.Trace {
	t.Helper()
	code := []bytecode.Ins{
		bytecode.New3(bytecode.ADD_LL, 1, 1, 0),
		bytecode.New3(bytecode.LT_LL, 1, 2, 0),
		bytecode.EncodeJump(bytecode.JMP, 10), // never decoded by Record; placeholder exit
		bytecode.EncodeJump(bytecode.LOOP, -4),
	}
	trace, err := jit.Record(code, 0, 3)
	require.NoError(t, err)
	return trace
}

func TestRecordTranslatesArithmeticAndGuard(t *testing.T) {
	trace := buildLoop(t)
	require.Equal(t, 0, trace.EntryPC)
	require.Equal(t, 3, trace.LoopPC)

	var ops []ir.Op
	for _, ins := range trace.IR {
		ops = append(ops, ins.Op())
	}
	require.Contains(t, ops, ir.LOAD_STACK)
	require.Contains(t, ops, ir.ADD)
	require.Contains(t, ops, ir.GUARD_LT)
}

func TestRecordEmitsPhiForLoopCarriedLocal(t *testing.T) {
	trace := buildLoop(t)
	var phis int
	for _, ins := range trace.IR {
		if ins.Op() == ir.PHI {
			phis++
		}
	}
	require.Equal(t, 1, phis, "x (slot 1) is reassigned by the ADD, so it needs one PHI")
}

func TestRecordDedupsRepeatedLoads(t *testing.T) {
	// x + x: both operands are the same slot, so only one LOAD_STACK should
	// be emitted for it.
	code := []bytecode.Ins{
		bytecode.New3(bytecode.ADD_LL, 1, 0, 0),
		bytecode.EncodeJump(bytecode.LOOP, -1),
	}
	trace, err := jit.Record(code, 0, 1)
	require.NoError(t, err)

	loads := 0
	for _, ins := range trace.IR {
		if ins.Op() == ir.LOAD_STACK {
			loads++
		}
	}
	require.Equal(t, 1, loads)
}

func TestRecordAbortsOnCall(t *testing.T) {
	code := []bytecode.Ins{
		bytecode.New3(bytecode.CALL, 0, 1, 2),
		bytecode.EncodeJump(bytecode.LOOP, -1),
	}
	_, err := jit.Record(code, 0, 1)
	require.Error(t, err)
}

func TestRecordAbortsOnPrimitiveComparison(t *testing.T) {
	code := []bytecode.Ins{
		bytecode.New3(bytecode.EQ_LP, 0, uint8(1), 0),
		bytecode.EncodeJump(bytecode.JMP, 0),
		bytecode.EncodeJump(bytecode.LOOP, -2),
	}
	_, err := jit.Record(code, 0, 2)
	require.Error(t, err)
}

func TestAllocateAssignsRegistersWithinBudget(t *testing.T) {
	trace := buildLoop(t)
	require.Greater(t, trace.NumRegs, 0)
	for _, ins := range trace.IR {
		require.GreaterOrEqual(t, ins.Reg(), uint16(1))
		require.LessOrEqual(t, int(ins.Reg()), trace.NumRegs)
	}
}

func TestAllocateReusesExpiredRegister(t *testing.T) {
	// A running sum over three ADDs: earlier operands die as soon as the next
	// ADD consumes them, so the allocator should reuse registers rather than
	// handing out a fresh one per instruction.
	code := []bytecode.Ins{
		bytecode.New3(bytecode.ADD_LL, 2, 0, 1),
		bytecode.New3(bytecode.ADD_LL, 2, 2, 0),
		bytecode.New3(bytecode.ADD_LL, 2, 2, 1),
		bytecode.EncodeJump(bytecode.LOOP, -3),
	}
	trace, err := jit.Record(code, 0, 3)
	require.NoError(t, err)
	require.Less(t, trace.NumRegs, len(trace.IR))
}
