package compiler

import (
	"github.com/ember-lang/ember/lang/runtime"
)

// localVar is one named, declared local variable.
type localVar struct {
	name string
	slot uint8
}

// blockScope is one nested `{ ... }` lexical block within a function. Exiting
// a block rewinds both the declared-locals list and the slot allocator to
// what they were on entry, so slots used inside the block are reclaimed.
type blockScope struct {
	parent         *blockScope
	savedLocalsLen int
	savedNextSlot  uint8
	isLoop         bool
	breakList      int // jump list reserved for this loop block; starts empty (-1) and nothing appends to it, as the language has no `break`
}

// fnScope tracks the compile-time state of one function body: its declared
// locals, its slot allocator, and the jump-list link table threading pending
// jumps together (see jumplist.go).
type fnScope struct {
	parent *fnScope
	fnIdx  int // index into Runtime.Funcs

	locals   []localVar
	nextSlot uint8
	maxSlot  uint8

	block *blockScope

	// jmpNext maps a not-yet-patched jump instruction's bytecode index to the
	// next jump in whatever list it belongs to. Absence means "end of list".
	// This plays the role the reference compiler fills by threading the link
	// through the jump instruction's own unused offset field; keeping it as a
	// side table instead avoids overloading that field with two meanings.
	jmpNext map[int]int
}

func newFnScope(parent *fnScope, fnIdx int) *fnScope {
	return &fnScope{parent: parent, fnIdx: fnIdx, jmpNext: make(map[int]int)}
}

func (fc *fnScope) pushBlock(isLoop bool) {
	fc.block = &blockScope{
		parent:         fc.block,
		savedLocalsLen: len(fc.locals),
		savedNextSlot:  fc.nextSlot,
		isLoop:         isLoop,
		breakList:      -1,
	}
}

func (fc *fnScope) popBlock() {
	b := fc.block
	fc.locals = fc.locals[:b.savedLocalsLen]
	fc.nextSlot = b.savedNextSlot
	fc.block = b.parent
}

// enclosingLoop returns the innermost loop block, or nil outside of any
// loop. The compiler has no `break` or `continue` statement that calls it.
func (fc *fnScope) enclosingLoop() *blockScope {
	for b := fc.block; b != nil; b = b.parent {
		if b.isLoop {
			return b
		}
	}
	return nil
}

// declareLocal reserves a new slot for a named variable. Redeclaring a name
// already defined in the current (innermost) scope is an error; shadowing an
// outer scope's variable of the same name is allowed.
func (fc *fnScope) declareLocal(name string) (uint8, error) {
	start := 0
	if fc.block != nil {
		start = fc.block.savedLocalsLen
	}
	for i := start; i < len(fc.locals); i++ {
		if fc.locals[i].name == name {
			return 0, NewError("variable %q already defined in scope", name)
		}
	}
	if int(fc.nextSlot) >= runtime.MaxLocalsInFn {
		return 0, NewError("too many locals in function")
	}
	slot := fc.nextSlot
	fc.nextSlot++
	if fc.nextSlot > fc.maxSlot {
		fc.maxSlot = fc.nextSlot
	}
	fc.locals = append(fc.locals, localVar{name: name, slot: slot})
	return slot, nil
}

// resolveLocal finds the innermost (most recently declared, i.e. possibly
// shadowing) local named name.
func (fc *fnScope) resolveLocal(name string) (uint8, bool) {
	for i := len(fc.locals) - 1; i >= 0; i-- {
		if fc.locals[i].name == name {
			return fc.locals[i].slot, true
		}
	}
	return 0, false
}

// allocSlot reserves a fresh, unnamed temporary slot.
func (fc *fnScope) allocSlot() (uint8, error) {
	if int(fc.nextSlot) >= runtime.MaxLocalsInFn {
		return 0, NewError("too many locals in function")
	}
	slot := fc.nextSlot
	fc.nextSlot++
	if fc.nextSlot > fc.maxSlot {
		fc.maxSlot = fc.nextSlot
	}
	return slot, nil
}

// activeLocals is the number of slots currently occupied by named,
// in-scope variables; temporaries above this line are eligible to be freed.
func (fc *fnScope) activeLocals() uint8 {
	return uint8(len(fc.locals))
}

// freeSlot reclaims slot if it is the topmost allocated temporary (i.e. it
// sits above every declared local and is the very last slot handed out).
// Freeing out of this order is a no-op: the slot simply stays reserved until
// the enclosing block exits, matching the reference compiler's discipline of
// always freeing temporaries in last-allocated-first order.
func (fc *fnScope) freeSlot(slot uint8) {
	if slot >= fc.activeLocals() && slot == fc.nextSlot-1 {
		fc.nextSlot--
	}
}
