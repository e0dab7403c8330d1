package runtime_test

import (
	"testing"

	"github.com/ember-lang/ember/internal/pkgname"
	"github.com/ember-lang/ember/lang/bytecode"
	"github.com/ember-lang/ember/lang/runtime"
	"github.com/ember-lang/ember/lang/value"
	"github.com/stretchr/testify/require"
)

func TestNewPkgDedup(t *testing.T) {
	rt := runtime.New(8)
	name := pkgname.Hash("math")

	idx1, loaded1 := rt.NewPkg(name)
	require.False(t, loaded1)
	idx2, loaded2 := rt.NewPkg(name)
	require.True(t, loaded2)
	require.Equal(t, idx1, idx2)
}

func TestNewPkgAnonymousNeverDedups(t *testing.T) {
	rt := runtime.New(8)
	idx1, _ := rt.NewPkg(pkgname.Invalid)
	idx2, loaded := rt.NewPkg(pkgname.Invalid)
	require.False(t, loaded)
	require.NotEqual(t, idx1, idx2)
}

func TestAddConstDedup(t *testing.T) {
	rt := runtime.New(8)
	i1 := rt.AddConst(value.Num(3.14))
	i2 := rt.AddConst(value.Num(3.14))
	require.Equal(t, i1, i2)
	require.Equal(t, 1, rt.NumConsts())

	i3 := rt.AddConst(value.Num(2.71))
	require.NotEqual(t, i1, i3)
	require.Equal(t, value.Num(3.14), rt.Const(i1))
}

func TestEmit(t *testing.T) {
	rt := runtime.New(8)
	pkg, _ := rt.NewPkg(pkgname.Invalid)
	fn := rt.NewFn(pkg, 0)
	idx := rt.Emit(fn, bytecode.New3(bytecode.ADD_LL, 0, 1, 2))
	require.Equal(t, 0, idx)
	require.Equal(t, bytecode.ADD_LL, rt.Funcs[fn].Code[0].Op())
}
