package compiler

import (
	"github.com/ember-lang/ember/internal/pkgname"
	"github.com/ember-lang/ember/lang/bytecode"
	"github.com/ember-lang/ember/lang/runtime"
	"github.com/ember-lang/ember/lang/scanner"
	"github.com/ember-lang/ember/lang/token"
)

// Compiler drives a single-pass, recursive-descent parse of one source unit,
// emitting bytecode directly into a Runtime as it goes. There is no separate
// AST: each grammar production either folds its result into a compile-time
// constant or emits the instructions that compute it, right at parse time.
type Compiler struct {
	scan *scanner.Scanner
	rt   *runtime.Runtime
	file string

	cur scanner.Tok
	fn  *fnScope
}

// NewError builds a plain *runtime.Err with no file or line attached; most
// callers should prefer Compiler.errorf, which fills both in.
func NewError(format string, args ...any) error {
	return runtime.NewErr(format, args...)
}

// CompilePackage compiles src (logically named file) into rt as a new
// package and returns its index. file is used only in error messages and to
// derive the package's name (see internal/pkgname); pass "" for a package
// compiled from a string with no backing file, which is never deduplicated
// against another package.
func CompilePackage(rt *runtime.Runtime, file, src string) (int, error) {
	name := pkgname.Invalid
	if file != "" {
		if h := pkgname.Hash(file); h != pkgname.Invalid {
			name = h
		}
	}
	pkgIdx, _ := rt.NewPkg(name)

	c := &Compiler{scan: scanner.New(file, src), rt: rt, file: file}
	if err := c.advance(); err != nil {
		return pkgIdx, err
	}

	mainFn := rt.NewFn(pkgIdx, 0)
	c.fn = newFnScope(nil, mainFn)
	if err := c.parseCode(); err != nil {
		return pkgIdx, err
	}
	c.rt.Emit(mainFn, bytecode.New1(bytecode.RET, 0))
	c.rt.Funcs[mainFn].NumSlots = int(c.fn.maxSlot)

	rt.Pkgs[pkgIdx].MainFn = mainFn
	return pkgIdx, nil
}

func (c *Compiler) errorf(format string, args ...any) error {
	e := runtime.NewErr(format, args...)
	if c.file != "" {
		e = e.WithFile(c.file)
	}
	return e.WithLine(c.cur.Line)
}

func (c *Compiler) advance() error {
	tok, err := c.scan.Next()
	if err != nil {
		return err
	}
	c.cur = tok
	return nil
}

func (c *Compiler) check(t token.Token) bool {
	return c.cur.Kind == t
}

// accept advances and returns true if the current token is t, otherwise
// leaves the token stream untouched and returns false.
func (c *Compiler) accept(t token.Token) (bool, error) {
	if !c.check(t) {
		return false, nil
	}
	if err := c.advance(); err != nil {
		return false, err
	}
	return true, nil
}

// expect requires the current token to be t, consuming it, or reports an
// error naming what was found instead.
func (c *Compiler) expect(t token.Token) error {
	if !c.check(t) {
		return c.errorf("expected %s, found %s", scanner.Name(t), scanner.Name(c.cur.Kind))
	}
	return c.advance()
}

// expectIdent requires and consumes an identifier, returning its text.
func (c *Compiler) expectIdent() (string, error) {
	if !c.check(token.IDENT) {
		return "", c.errorf("expected identifier, found %s", scanner.Name(c.cur.Kind))
	}
	name := c.cur.Ident
	return name, c.advance()
}

// peekSecond looks one token past the current one without consuming either.
// It is used only to disambiguate an assignment statement from a bare
// expression statement, both of which start with the same primary
// expression. The scanner is a small value type, so snapshotting it for a
// throwaway lookahead scan is cheap.
func (c *Compiler) peekSecond() (scanner.Tok, error) {
	saved := *c.scan
	return (&saved).Next()
}

func (c *Compiler) emit(fn int, ins bytecode.Ins) int {
	return c.rt.Emit(fn, ins)
}

func (c *Compiler) code(fn int) []bytecode.Ins {
	return c.rt.Funcs[fn].Code
}
