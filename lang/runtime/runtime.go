// Package runtime holds the data a compiled program and a running
// interpreter share: packages, functions, the global constants pool, and the
// interpreter's value stack. Nothing in this package executes bytecode; see
// lang/interp for that.
package runtime

import (
	"github.com/dolthub/swiss"
	"github.com/ember-lang/ember/internal/pkgname"
	"github.com/ember-lang/ember/lang/bytecode"
	"github.com/ember-lang/ember/lang/value"
)

// MaxLocalsInFn is the largest number of stack slots a single function may
// use: slot indices are packed into one byte of a bytecode instruction.
const MaxLocalsInFn = 255

// MaxConsts is the largest number of entries the constants pool can hold:
// constant indices are packed into the 16-bit combined argument of a store
// instruction.
const MaxConsts = 1<<16 - 1

// Package groups the functions compiled from one source unit. Name is the
// FNV hash of the package's derived name (see internal/pkgname), or
// pkgname.Invalid for an anonymous package (e.g. one compiled from a string
// passed directly to Run, with no backing file).
type Package struct {
	Name   uint64
	MainFn int // index into Runtime.Funcs of this package's top-level function
}

// Function is a compiled, immutable sequence of bytecode instructions
// belonging to one Package.
type Function struct {
	Pkg      int // index into Runtime.Pkgs
	NumArgs  int
	NumSlots int // number of stack slots this function's frame requires
	Code     []bytecode.Ins
}

// Runtime owns every package, function, and constant loaded so far, plus the
// interpreter's value stack. A Runtime has no global state of its own:
// callers may create as many independent Runtimes as they like.
type Runtime struct {
	Pkgs  []Package
	Funcs []Function

	consts     []value.Value
	constIndex *swiss.Map[uint64, int] // dedups constants by exact bit pattern

	pkgsByName *swiss.Map[uint64, int] // dedups packages by derived name hash

	Stack []value.Value
}

// New creates an empty Runtime with a stack of the given initial size.
func New(stackSize int) *Runtime {
	return &Runtime{
		constIndex: swiss.NewMap[uint64, int](uint32(16)),
		pkgsByName: swiss.NewMap[uint64, int](uint32(8)),
		Stack:      make([]value.Value, stackSize),
	}
}

// NewPkg creates a new package named by the FNV hash of name, or reuses an
// already-loaded package with the same name hash. The alreadyLoaded return is false
// when a brand new package was created (i.e. this is the first time `name`
// was seen) and true when an existing package was returned, mirroring the
// reference runtime's package-caching behavior for imports.
func (rt *Runtime) NewPkg(name uint64) (index int, alreadyLoaded bool) {
	if name != pkgname.Invalid {
		if idx, ok := rt.pkgsByName.Get(name); ok {
			return idx, true
		}
	}
	idx := len(rt.Pkgs)
	rt.Pkgs = append(rt.Pkgs, Package{Name: name, MainFn: -1})
	if name != pkgname.Invalid {
		rt.pkgsByName.Put(name, idx)
	}
	return idx, false
}

// NewFn creates a new, empty function belonging to pkg and returns its
// global index.
func (rt *Runtime) NewFn(pkg int, numArgs int) int {
	idx := len(rt.Funcs)
	rt.Funcs = append(rt.Funcs, Function{Pkg: pkg, NumArgs: numArgs})
	return idx
}

// Emit appends ins to the named function's code and returns the index of
// the newly-appended instruction.
func (rt *Runtime) Emit(fn int, ins bytecode.Ins) int {
	f := &rt.Funcs[fn]
	idx := len(f.Code)
	f.Code = append(f.Code, ins)
	return idx
}

// AddConst adds a numeric constant to the pool, returning its index. An
// identical constant (bit-for-bit, see value.Value.Is) already in the pool
// is reused rather than duplicated.
func (rt *Runtime) AddConst(v value.Value) int {
	key := uint64(v)
	if idx, ok := rt.constIndex.Get(key); ok {
		return idx
	}
	idx := len(rt.consts)
	rt.consts = append(rt.consts, v)
	rt.constIndex.Put(key, idx)
	return idx
}

// Const returns the constant at index i.
func (rt *Runtime) Const(i int) value.Value {
	return rt.consts[i]
}

// NumConsts returns the number of constants currently in the pool.
func (rt *Runtime) NumConsts() int {
	return len(rt.consts)
}
