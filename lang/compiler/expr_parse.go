package compiler

import (
	"github.com/ember-lang/ember/lang/bytecode"
	"github.com/ember-lang/ember/lang/scanner"
	"github.com/ember-lang/ember/lang/token"
	"github.com/ember-lang/ember/lang/value"
)

// binPrec gives each binary operator's precedence; higher binds tighter.
// Relational operators are non-associative in the grammar but are parsed
// with ordinary left-associative precedence climbing, matching how the
// reference parser treats a chain like `a < b < c`: it compiles, and the
// outer operator compares the boolean result of `a < b` against `c`. There
// is no implicit bool/number coercion, so an ordering operator in such a
// chain fails at run time ("ordering comparison on a non-number").
var binPrec = map[token.Token]int{
	token.OR:            1,
	token.AND:           2,
	token.EQ:            3,
	token.NEQ:           3,
	token.Token('<'):    3,
	token.LE:            3,
	token.Token('>'):    3,
	token.GE:            3,
	token.Token('+'):    4,
	token.Token('-'):    4,
	token.Token('*'):    5,
	token.Token('/'):    5,
}

func isRelOp(t token.Token) bool {
	switch t {
	case token.EQ, token.NEQ, token.Token('<'), token.LE, token.Token('>'), token.GE:
		return true
	}
	return false
}

// operandNum parses a numeric literal into an undischarged nodeNum.
func (c *Compiler) operandNum() (node, error) {
	n := node{typ: nodeNum, num: c.cur.Num}
	return n, c.advance()
}

// operandPrim parses one of the nil/true/false keywords.
func (c *Compiler) operandPrim(prim value.Primitive) (node, error) {
	n := node{typ: nodePrim, prim: prim}
	return n, c.advance()
}

// operandLocal parses a bare identifier, either a variable reference or a
// function call.
func (c *Compiler) operandLocal() (node, error) {
	name := c.cur.Ident
	if err := c.advance(); err != nil {
		return node{}, err
	}
	if c.check(token.Token('(')) {
		return c.parseCall(name)
	}
	return node{typ: nodeLocal, name: name}, nil
}

// operandSubexpr parses a fully parenthesized expression.
func (c *Compiler) operandSubexpr() (node, error) {
	if err := c.expect(token.Token('(')); err != nil {
		return node{}, err
	}
	n, err := c.parseExpr()
	if err != nil {
		return node{}, err
	}
	return n, c.expect(token.Token(')'))
}

// operand parses one primary expression (a "NUD" in precedence-climbing
// terms): a literal, identifier, parenthesized expression, or unary op.
func (c *Compiler) operand() (node, error) {
	switch c.cur.Kind {
	case token.NUM:
		return c.operandNum()
	case token.NIL:
		return c.operandPrim(value.PrimNil)
	case token.TRUE:
		return c.operandPrim(value.PrimTrue)
	case token.FALSE:
		return c.operandPrim(value.PrimFalse)
	case token.IDENT:
		return c.operandLocal()
	case token.Token('('):
		return c.operandSubexpr()
	case token.Token('-'):
		if err := c.advance(); err != nil {
			return node{}, err
		}
		inner, err := c.unary()
		if err != nil {
			return node{}, err
		}
		return c.exprEmitNeg(&inner)
	case token.Token('!'):
		if err := c.advance(); err != nil {
			return node{}, err
		}
		inner, err := c.unary()
		if err != nil {
			return node{}, err
		}
		return c.exprEmitNot(&inner)
	}
	return node{}, c.errorf("unexpected %s in expression", scanner.Name(c.cur.Kind))
}

// unary parses operand(), which already recurses into itself for prefix
// operators; named separately to mirror the grammar's documented unary
// production.
func (c *Compiler) unary() (node, error) {
	return c.operand()
}

// parseSubexpr implements precedence climbing: it parses a left operand
// then repeatedly consumes binary operators whose precedence is at least
// minPrec, recursing with minPrec+1 to bind the right operand at higher
// precedence than the current operator (left associativity).
func (c *Compiler) parseSubexpr(minPrec int) (node, error) {
	left, err := c.unary()
	if err != nil {
		return node{}, err
	}
	for {
		op := c.cur.Kind
		prec, ok := binPrec[op]
		if !ok || prec < minPrec {
			return left, nil
		}
		if err := c.advance(); err != nil {
			return node{}, err
		}

		switch op {
		case token.AND:
			if err := c.exprToJmp(&left); err != nil {
				return node{}, err
			}
			c.jmpEnsureTrueFallsThrough(&left)
			c.jmpListPatchHere(left.jmp.trueList)
			left.jmp.trueList = noJmp
			right, err := c.parseSubexpr(prec + 1)
			if err != nil {
				return node{}, err
			}
			left, err = c.exprEmitAnd(&left, &right)
			if err != nil {
				return node{}, err
			}
		case token.OR:
			if err := c.exprToJmp(&left); err != nil {
				return node{}, err
			}
			c.jmpEnsureFalseFallsThrough(&left)
			c.jmpListPatchHere(left.jmp.falseList)
			left.jmp.falseList = noJmp
			right, err := c.parseSubexpr(prec + 1)
			if err != nil {
				return node{}, err
			}
			left, err = c.exprEmitOr(&left, &right)
			if err != nil {
				return node{}, err
			}
		default:
			right, err := c.parseSubexpr(prec + 1)
			if err != nil {
				return node{}, err
			}
			if isRelOp(op) {
				left, err = c.exprEmitRel(op, &left, &right)
			} else {
				left, err = c.exprEmitArith(op, &left, &right)
			}
			if err != nil {
				return node{}, err
			}
		}
	}
}

// parseExpr parses one full expression.
func (c *Compiler) parseExpr() (node, error) {
	return c.parseSubexpr(1)
}

// parseCall parses the argument list of a call to the already-consumed
// identifier name, emitting code to evaluate each argument into consecutive
// slots above the callee before emitting CALL.
func (c *Compiler) parseCall(name string) (node, error) {
	if err := c.expect(token.Token('(')); err != nil {
		return node{}, err
	}

	fnSlot, ok := c.fn.resolveLocal(name)
	if !ok {
		return node{}, c.errorf("undefined function %q", name)
	}

	firstArg := c.fn.nextSlot
	argc := 0
	for !c.check(token.Token(')')) {
		if argc > 0 {
			if err := c.expect(token.Token(',')); err != nil {
				return node{}, err
			}
		}
		arg, err := c.parseExpr()
		if err != nil {
			return node{}, err
		}
		if err := c.exprToNextSlot(&arg); err != nil {
			return node{}, err
		}
		argc++
	}
	if err := c.expect(token.Token(')')); err != nil {
		return node{}, err
	}

	for s := c.fn.nextSlot; s > firstArg; s-- {
		c.fn.freeSlot(s - 1)
	}

	idx := c.emit(c.fn.fnIdx, bytecode.New3(bytecode.CALL, 0, fnSlot, firstArg))
	return node{typ: nodeReloc, relocIdx: idx}, nil
}
