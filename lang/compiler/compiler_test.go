package compiler_test

import (
	"testing"

	"github.com/ember-lang/ember/lang/bytecode"
	"github.com/ember-lang/ember/lang/compiler"
	"github.com/ember-lang/ember/lang/runtime"
	"github.com/stretchr/testify/require"
)

func compileMain(t *testing.T, src string) []bytecode.Ins {
	t.Helper()
	rt := runtime.New(64)
	pkg, err := compiler.CompilePackage(rt, "", src)
	require.NoError(t, err)
	return rt.Funcs[rt.Pkgs[pkg].MainFn].Code
}

func ops(code []bytecode.Ins) []bytecode.Op {
	out := make([]bytecode.Op, len(code))
	for i, ins := range code {
		out[i] = ins.Op()
	}
	return out
}

func TestConstantFoldingArithmetic(t *testing.T) {
	code := compileMain(t, "let x = 1 + 2 * 3")
	// The whole right-hand side is a literal expression, so it folds away
	// entirely into a single SET_N; no ADD/MUL instruction is ever emitted.
	require.Equal(t, []bytecode.Op{bytecode.SET_N, bytecode.RET}, ops(code))
}

func TestArithmeticOnVariableEmitsLNVariant(t *testing.T) {
	code := compileMain(t, "let a = 1\nlet b = a + 2")
	require.Equal(t, []bytecode.Op{
		bytecode.SET_N,  // a = 1
		bytecode.ADD_LN, // a + 2
		bytecode.RET,
	}, ops(code))
}

func TestSubtractionConstLeftUsesNLVariant(t *testing.T) {
	code := compileMain(t, "let a = 1\nlet b = 10 - a")
	require.Equal(t, []bytecode.Op{
		bytecode.SET_N,
		bytecode.SUB_NL,
		bytecode.RET,
	}, ops(code))
}

func TestCompoundAssign(t *testing.T) {
	code := compileMain(t, "let a = 1\na += 2")
	require.Equal(t, []bytecode.Op{
		bytecode.SET_N,
		bytecode.ADD_LN,
		bytecode.RET,
	}, ops(code))
}

func TestIfElseCompiles(t *testing.T) {
	code := compileMain(t, `
let a = 1
if a < 2 {
	a = 3
} else {
	a = 4
}
`)
	require.Contains(t, ops(code), bytecode.LT_LN)
	require.Contains(t, ops(code), bytecode.JMP)
	require.Equal(t, bytecode.RET, code[len(code)-1].Op())
}

func TestWhileLoopEmitsLoopOpcode(t *testing.T) {
	code := compileMain(t, `
let i = 0
while i < 10 {
	i += 1
}
`)
	require.Contains(t, ops(code), bytecode.LOOP)
}

func TestLoopEmitsLoopOpcode(t *testing.T) {
	code := compileMain(t, `
let i = 0
loop {
	i += 1
}
`)
	require.Contains(t, ops(code), bytecode.LOOP)
}

func TestUndefinedVariableIsAnError(t *testing.T) {
	rt := runtime.New(64)
	_, err := compiler.CompilePackage(rt, "", "let a = b")
	require.Error(t, err)
}

func TestRedeclaringLocalInSameScopeIsAnError(t *testing.T) {
	rt := runtime.New(64)
	_, err := compiler.CompilePackage(rt, "", "let a = 1\nlet a = 2")
	require.Error(t, err)
}

func TestShadowingLocalInNestedScopeIsAllowed(t *testing.T) {
	rt := runtime.New(64)
	_, err := compiler.CompilePackage(rt, "", "let a = 1\n{ let a = 2 }")
	require.NoError(t, err)
}

func TestLogicalAndShortCircuitsToBool(t *testing.T) {
	code := compileMain(t, "let a = 1\nlet b = (a < 2) && (a > 0)")
	require.Contains(t, ops(code), bytecode.LT_LN)
	require.Contains(t, ops(code), bytecode.GT_LN)
}

func TestConstantFoldingRelational(t *testing.T) {
	code := compileMain(t, "let x = 1 < 2")
	require.Equal(t, []bytecode.Op{bytecode.SET_P, bytecode.RET}, ops(code))
}

func TestFunctionDeclarationAndCall(t *testing.T) {
	rt := runtime.New(64)
	pkg, err := compiler.CompilePackage(rt, "", `
fn add(x, y) {
	let z = x + y
}
let r = add(1, 2)
`)
	require.NoError(t, err)
	mainCode := rt.Funcs[rt.Pkgs[pkg].MainFn].Code
	require.Contains(t, ops(mainCode), bytecode.CALL)
	require.Contains(t, ops(mainCode), bytecode.SET_F)
	require.Len(t, rt.Funcs, 2)
	require.Equal(t, 2, rt.Funcs[1].NumArgs)
}

func TestPackageDeduplicationAcrossCompiles(t *testing.T) {
	rt := runtime.New(64)
	p1, err := compiler.CompilePackage(rt, "math.ember", "let x = 1")
	require.NoError(t, err)
	p2, err := compiler.CompilePackage(rt, "math.ember", "let y = 2")
	require.NoError(t, err)
	require.Equal(t, rt.Pkgs[p1].Name, rt.Pkgs[p2].Name)
}
