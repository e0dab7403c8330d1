package bytecode_test

import (
	"testing"

	"github.com/ember-lang/ember/lang/bytecode"
	"github.com/stretchr/testify/require"
)

func TestNew3Roundtrip(t *testing.T) {
	ins := bytecode.New3(bytecode.ADD_LL, 2, 0, 1)
	require.Equal(t, bytecode.ADD_LL, ins.Op())
	require.Equal(t, uint8(2), ins.Arg1())
	require.Equal(t, uint8(0), ins.Arg2())
	require.Equal(t, uint8(1), ins.Arg3())
}

func TestNew2Roundtrip(t *testing.T) {
	ins := bytecode.New2(bytecode.SET_N, 5, 1234)
	require.Equal(t, bytecode.SET_N, ins.Op())
	require.Equal(t, uint8(5), ins.Arg1())
	require.Equal(t, uint16(1234), ins.Arg16())
}

func TestNew1Roundtrip(t *testing.T) {
	ins := bytecode.New1(bytecode.NEG, 0xabcdef)
	require.Equal(t, bytecode.NEG, ins.Op())
	require.Equal(t, uint32(0xabcdef), ins.Arg24())
}

func TestSetOpPreservesArgs(t *testing.T) {
	ins := bytecode.New3(bytecode.LT_LL, 1, 2, 3)
	ins.SetOp(bytecode.GE_LL)
	require.Equal(t, bytecode.GE_LL, ins.Op())
	require.Equal(t, uint8(1), ins.Arg1())
	require.Equal(t, uint8(2), ins.Arg2())
	require.Equal(t, uint8(3), ins.Arg3())
}

func TestSetArg24(t *testing.T) {
	ins := bytecode.New1(bytecode.JMP, 0)
	ins.SetArg24(42)
	require.Equal(t, uint32(42), ins.Arg24())
	require.Equal(t, bytecode.JMP, ins.Op())
}

func TestEncodeDecodeJump(t *testing.T) {
	for _, offset := range []int32{0, 1, -1, 100, -100, 0x7fffff, -0x800000} {
		ins := bytecode.EncodeJump(bytecode.JMP, offset)
		require.Equal(t, offset, bytecode.DecodeJump(ins))
	}
}

func TestDasm(t *testing.T) {
	require.Equal(t, "ADDLL 2 0 1", bytecode.Dasm(bytecode.New3(bytecode.ADD_LL, 2, 0, 1)))
	require.Equal(t, "SETN 0 5", bytecode.Dasm(bytecode.New2(bytecode.SET_N, 0, 5)))
	require.Equal(t, "NEG 1 3", bytecode.Dasm(bytecode.New3(bytecode.NEG, 1, 3, 0)))
}
