package ir_test

import (
	"testing"

	"github.com/ember-lang/ember/lang/ir"
	"github.com/stretchr/testify/require"
)

func TestNew2Roundtrip(t *testing.T) {
	ins := ir.New2(ir.ADD, 1, 2)
	require.Equal(t, ir.ADD, ins.Op())
	require.Equal(t, ir.Ref(1), ins.Arg1())
	require.Equal(t, ir.Ref(2), ins.Arg2())
	require.Equal(t, uint16(0), ins.Reg())
}

func TestNew1Roundtrip(t *testing.T) {
	ins := ir.New1(ir.LOAD_STACK, 7)
	require.Equal(t, ir.LOAD_STACK, ins.Op())
	require.Equal(t, uint32(7), ins.Arg32())
}

func TestSetReg(t *testing.T) {
	ins := ir.New2(ir.ADD, 1, 2)
	ins.SetReg(3)
	require.Equal(t, uint16(3), ins.Reg())
	require.Equal(t, ir.ADD, ins.Op())
	require.Equal(t, ir.Ref(1), ins.Arg1())
}

func TestIsGuard(t *testing.T) {
	require.True(t, ir.GUARD_LT.IsGuard())
	require.False(t, ir.ADD.IsGuard())
}

func TestNoneRef(t *testing.T) {
	require.Equal(t, ir.Ref(0), ir.None)
}
