package compiler

import (
	"github.com/ember-lang/ember/lang/bytecode"
	"github.com/ember-lang/ember/lang/token"
	"github.com/ember-lang/ember/lang/value"
)

// parseCode parses a sequence of top-level statements up to EOF into the
// package's main function.
func (c *Compiler) parseCode() error {
	for !c.check(token.EOF) {
		if err := c.statement(); err != nil {
			return err
		}
	}
	return nil
}

// parseBlock parses a brace-delimited statement list as a fresh lexical
// scope: locals declared inside do not escape, and their slots are
// reclaimed on exit.
func (c *Compiler) parseBlock() error {
	return c.parseScopedBlock(false)
}

func (c *Compiler) parseScopedBlock(isLoop bool) error {
	c.fn.pushBlock(isLoop)
	defer c.fn.popBlock()

	if err := c.expect(token.Token('{')); err != nil {
		return err
	}
	for !c.check(token.Token('}')) {
		if c.check(token.EOF) {
			return c.errorf("unexpected end of file, expected '}'")
		}
		if err := c.statement(); err != nil {
			return err
		}
	}
	return c.expect(token.Token('}'))
}

// statement parses and compiles exactly one statement.
func (c *Compiler) statement() error {
	switch c.cur.Kind {
	case token.LET:
		return c.parseLet()
	case token.IF:
		return c.parseIf()
	case token.LOOP:
		return c.parseLoop()
	case token.WHILE:
		return c.parseWhile()
	case token.FN:
		return c.parseFn()
	case token.Token('{'):
		return c.parseBlock()
	default:
		return c.parseAssignOrExpr()
	}
}

// parseLet parses `let name = expr`, or `let name` (implicitly nil).
func (c *Compiler) parseLet() error {
	if err := c.advance(); err != nil { // consume 'let'
		return err
	}
	name, err := c.expectIdent()
	if err != nil {
		return err
	}

	var rhs node
	if ok, err := c.accept(token.Token('=')); err != nil {
		return err
	} else if ok {
		rhs, err = c.parseExpr()
		if err != nil {
			return err
		}
	} else {
		rhs = node{typ: nodePrim, prim: value.PrimNil}
	}

	slot, err := c.fn.declareLocal(name)
	if err != nil {
		return err
	}
	return c.exprToSlot(&rhs, slot)
}

var compoundAssignOp = map[token.Token]token.Token{
	token.ADD_ASSIGN: token.Token('+'),
	token.SUB_ASSIGN: token.Token('-'),
	token.MUL_ASSIGN: token.Token('*'),
	token.DIV_ASSIGN: token.Token('/'),
}

func isAssignTok(t token.Token) bool {
	if t == token.Token('=') {
		return true
	}
	_, ok := compoundAssignOp[t]
	return ok || t == token.MOD_ASSIGN
}

// parseAssignOrExpr disambiguates `name = expr` / `name op= expr` from a
// bare expression statement by peeking one token past the leading
// identifier, then dispatches to whichever applies.
func (c *Compiler) parseAssignOrExpr() error {
	if c.check(token.IDENT) {
		next, err := c.peekSecond()
		if err != nil {
			return err
		}
		if isAssignTok(next.Kind) {
			return c.parseAssign()
		}
	}
	_, err := c.parseExpr()
	return err
}

// parseAssign parses `name (= | += | -= | *= | /=) expr`.
func (c *Compiler) parseAssign() error {
	name, err := c.expectIdent()
	if err != nil {
		return err
	}
	slot, ok := c.fn.resolveLocal(name)
	if !ok {
		return c.errorf("undefined variable %q", name)
	}

	op := c.cur.Kind
	if op == token.MOD_ASSIGN {
		return c.errorf("modulo assignment is not supported")
	}
	if err := c.advance(); err != nil {
		return err
	}

	rhs, err := c.parseExpr()
	if err != nil {
		return err
	}

	if op == token.Token('=') {
		return c.exprToSlot(&rhs, slot)
	}

	left := node{typ: nodeNonReloc, slot: slot}
	result, err := c.exprEmitArith(compoundAssignOp[op], &left, &rhs)
	if err != nil {
		return err
	}
	return c.exprToSlot(&result, slot)
}

// parseIf parses an if/elseif*/else? chain. Each branch's condition is
// compiled so its true path falls through into the branch body and its
// false path jumps to the next branch (or past the whole chain, for a
// bare `if` with no else).
func (c *Compiler) parseIf() error {
	if err := c.advance(); err != nil { // consume 'if'
		return err
	}
	return c.parseIfBranch()
}

func (c *Compiler) parseIfBranch() error {
	cond, err := c.parseExpr()
	if err != nil {
		return err
	}
	if err := c.exprToJmp(&cond); err != nil {
		return err
	}
	c.jmpEnsureTrueFallsThrough(&cond)
	c.jmpListPatchHere(cond.jmp.trueList)
	falseList := cond.jmp.falseList

	if err := c.parseBlock(); err != nil {
		return err
	}

	switch c.cur.Kind {
	case token.ELSEIF:
		endJmp := c.emitJump(bytecode.JMP)
		if err := c.advance(); err != nil {
			return err
		}
		c.jmpListPatchHere(falseList)
		if err := c.parseIfBranch(); err != nil {
			return err
		}
		c.jmpListPatchHere(endJmp)
	case token.ELSE:
		endJmp := c.emitJump(bytecode.JMP)
		if err := c.advance(); err != nil {
			return err
		}
		c.jmpListPatchHere(falseList)
		if err := c.parseBlock(); err != nil {
			return err
		}
		c.jmpListPatchHere(endJmp)
	default:
		c.jmpListPatchHere(falseList)
	}
	return nil
}

// parseLoop parses `loop { ... }`: an unconditional loop whose body always
// re-executes. The backward branch is a LOOP instruction (not a plain JMP)
// so the interpreter's hot-loop counter table can find and trace it.
func (c *Compiler) parseLoop() error {
	if err := c.advance(); err != nil { // consume 'loop'
		return err
	}
	top := len(c.code(c.fn.fnIdx))
	if err := c.parseScopedBlock(true); err != nil {
		return err
	}
	c.emit(c.fn.fnIdx, bytecode.EncodeJump(bytecode.LOOP, int32(top-len(c.code(c.fn.fnIdx))-1)))
	return nil
}

// parseWhile parses `while cond { ... }`: the condition is re-evaluated
// before every iteration; its false path exits past the loop, and the
// backward branch is a LOOP instruction.
func (c *Compiler) parseWhile() error {
	if err := c.advance(); err != nil { // consume 'while'
		return err
	}
	top := len(c.code(c.fn.fnIdx))
	cond, err := c.parseExpr()
	if err != nil {
		return err
	}
	if err := c.exprToJmp(&cond); err != nil {
		return err
	}
	c.jmpEnsureTrueFallsThrough(&cond)
	c.jmpListPatchHere(cond.jmp.trueList)
	exitList := cond.jmp.falseList

	if err := c.parseScopedBlock(true); err != nil {
		return err
	}
	c.emit(c.fn.fnIdx, bytecode.EncodeJump(bytecode.LOOP, int32(top-len(c.code(c.fn.fnIdx))-1)))
	c.jmpListPatchHere(exitList)
	return nil
}

// parseFn parses `fn name(params) { ... }`. The function is compiled into a
// brand new Runtime function; the enclosing scope gets a new local bound to
// a boxed reference to it, so the function is callable by name like any
// other value.
func (c *Compiler) parseFn() error {
	if err := c.advance(); err != nil { // consume 'fn'
		return err
	}
	name, err := c.expectIdent()
	if err != nil {
		return err
	}

	slot, err := c.fn.declareLocal(name)
	if err != nil {
		return err
	}

	if err := c.expect(token.Token('(')); err != nil {
		return err
	}
	var params []string
	for !c.check(token.Token(')')) {
		if len(params) > 0 {
			if err := c.expect(token.Token(',')); err != nil {
				return err
			}
		}
		p, err := c.expectIdent()
		if err != nil {
			return err
		}
		params = append(params, p)
	}
	if err := c.expect(token.Token(')')); err != nil {
		return err
	}

	pkg := c.rt.Funcs[c.fn.fnIdx].Pkg
	fnIdx := c.rt.NewFn(pkg, len(params))

	outer := c.fn
	c.fn = newFnScope(outer, fnIdx)
	for _, p := range params {
		if _, err := c.fn.declareLocal(p); err != nil {
			c.fn = outer
			return err
		}
	}
	if err := c.parseBlock(); err != nil {
		c.fn = outer
		return err
	}
	c.emit(fnIdx, bytecode.New1(bytecode.RET, 0))
	c.rt.Funcs[fnIdx].NumSlots = int(c.fn.maxSlot)
	c.fn = outer

	c.emit(c.fn.fnIdx, bytecode.New2(bytecode.SET_F, slot, uint16(fnIdx)))
	return nil
}
