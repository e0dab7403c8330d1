// Package interp is a register-based bytecode interpreter with a single
// switch-based dispatch loop: it executes a runtime.Runtime's compiled
// functions directly, maintaining a single shared value stack sliced into
// per-call frames.
//
// Every LOOP instruction's backward branch is counted in a small table; once
// a loop's count crosses a configurable threshold, the interpreter passes
// the loop's bytecode to lang/jit.Record, which builds a trace from the
// bytecode alone. There is no second, trace-recording dispatch loop:
// recording does not observe the instructions as they execute, and a
// recorded trace is cached but never executed.
package interp

import (
	"context"
	"fmt"

	"github.com/ember-lang/ember/lang/bytecode"
	"github.com/ember-lang/ember/lang/jit"
	"github.com/ember-lang/ember/lang/runtime"
	"github.com/ember-lang/ember/lang/value"
)

// Options configures hot-loop detection.
type Options struct {
	// HotLoopThreshold is how many times a LOOP instruction must execute
	// before its loop is handed to the tracing recorder.
	HotLoopThreshold int
	// HotLoopTableSize is the size of the hot-loop counter table; must be a
	// power of two.
	HotLoopTableSize int
}

// VM executes the functions held in a runtime.Runtime.
type VM struct {
	rt   *runtime.Runtime
	opts Options

	hotCounts []uint8
	hotMask   int

	traces map[int]*jit.Trace // pc (of the LOOP instruction) -> recorded trace
}

// New creates a VM bound to rt.
func New(rt *runtime.Runtime, opts Options) *VM {
	size := opts.HotLoopTableSize
	if size <= 0 {
		size = 1024
	}
	return &VM{
		rt:        rt,
		opts:      opts,
		hotCounts: make([]uint8, size),
		hotMask:   size - 1,
		traces:    make(map[int]*jit.Trace),
	}
}

// RunPackage executes pkg's main function and returns its result.
func (vm *VM) RunPackage(ctx context.Context, pkg int) (value.Value, error) {
	mainFn := vm.rt.Pkgs[pkg].MainFn
	return vm.call(ctx, mainFn, 0)
}

// call executes fn with its frame based at rt.Stack[base:], returning the
// value passed to RET.
func (vm *VM) call(ctx context.Context, fn int, base int) (value.Value, error) {
	f := vm.rt.Funcs[fn]
	if base+f.NumSlots > len(vm.rt.Stack) {
		return value.Nil, runtime.NewErr("stack overflow calling function %d", fn)
	}
	stack := vm.rt.Stack

	ip := 0
	for {
		select {
		case <-ctx.Done():
			return value.Nil, ctx.Err()
		default:
		}

		ins := f.Code[ip]
		op := ins.Op()

		switch {
		case op == bytecode.MOV:
			stack[base+int(ins.Arg1())] = stack[base+int(ins.Arg16())]
			ip++
		case op == bytecode.SET_N:
			stack[base+int(ins.Arg1())] = vm.rt.Const(int(ins.Arg16()))
			ip++
		case op == bytecode.SET_P:
			stack[base+int(ins.Arg1())] = primValue(value.Primitive(ins.Arg16()))
			ip++
		case op == bytecode.SET_F:
			stack[base+int(ins.Arg1())] = value.Fn(ins.Arg16())
			ip++
		case op == bytecode.NEG:
			v := stack[base+int(ins.Arg2())]
			if !v.IsNum() {
				return value.Nil, runtime.NewErr("cannot negate a non-number")
			}
			stack[base+int(ins.Arg1())] = value.Num(-v.Num())
			ip++
		case op.IsArith():
			if err := vm.execArith(stack, base, ins, op); err != nil {
				return value.Nil, err
			}
			ip++
		case op.IsRel():
			cond, err := vm.execRel(stack, base, ins, op)
			if err != nil {
				return value.Nil, err
			}
			if cond {
				ip += 2 // skip the JMP that always immediately follows
			} else {
				jmp := f.Code[ip+1]
				ip = ip + 2 + int(bytecode.DecodeJump(jmp))
			}
		case op == bytecode.JMP:
			ip = ip + 1 + int(bytecode.DecodeJump(ins))
		case op == bytecode.LOOP:
			vm.countHotLoop(fn, ip, f.Code)
			ip = ip + 1 + int(bytecode.DecodeJump(ins))
		case op == bytecode.CALL:
			result, err := vm.execCall(ctx, stack, base, ins)
			if err != nil {
				return value.Nil, err
			}
			stack[base+int(ins.Arg1())] = result
			ip++
		case op == bytecode.RET:
			return stack[base+int(ins.Arg1())], nil
		default:
			return value.Nil, runtime.NewErr("illegal opcode %s", op)
		}
	}
}

func (vm *VM) execCall(ctx context.Context, stack []value.Value, base int, ins bytecode.Ins) (value.Value, error) {
	fnVal := stack[base+int(ins.Arg2())]
	if !fnVal.IsFn() {
		return value.Nil, runtime.NewErr("call target is not a function")
	}
	callee := int(fnVal.Index())
	argBase := base + int(ins.Arg3())

	// Arguments already sit in consecutive slots starting at argBase (the
	// compiler evaluates them there); the callee's frame simply starts at
	// that same offset so argument slot 0..NumArgs-1 line up with its own
	// parameter locals.
	return vm.call(ctx, callee, argBase)
}

func primValue(p value.Primitive) value.Value {
	switch p {
	case value.PrimTrue:
		return value.True
	case value.PrimFalse:
		return value.False
	default:
		return value.Nil
	}
}

func (vm *VM) execArith(stack []value.Value, base int, ins bytecode.Ins, op bytecode.Op) error {
	var left, right value.Value
	switch op {
	case bytecode.ADD_LL, bytecode.SUB_LL, bytecode.MUL_LL, bytecode.DIV_LL:
		left = stack[base+int(ins.Arg2())]
		right = stack[base+int(ins.Arg3())]
	case bytecode.ADD_LN, bytecode.SUB_LN, bytecode.MUL_LN, bytecode.DIV_LN:
		left = stack[base+int(ins.Arg2())]
		right = vm.rt.Const(int(ins.Arg3()))
	case bytecode.SUB_NL, bytecode.DIV_NL:
		left = vm.rt.Const(int(ins.Arg2()))
		right = stack[base+int(ins.Arg3())]
	}
	if !left.IsNum() || !right.IsNum() {
		return runtime.NewErr("arithmetic on a non-number")
	}
	l, r := left.Num(), right.Num()
	var result float64
	switch op {
	case bytecode.ADD_LL, bytecode.ADD_LN:
		result = l + r
	case bytecode.SUB_LL, bytecode.SUB_LN, bytecode.SUB_NL:
		result = l - r
	case bytecode.MUL_LL, bytecode.MUL_LN:
		result = l * r
	case bytecode.DIV_LL, bytecode.DIV_LN, bytecode.DIV_NL:
		result = l / r
	}
	stack[base+int(ins.Arg1())] = value.Num(result)
	return nil
}

func (vm *VM) execRel(stack []value.Value, base int, ins bytecode.Ins, op bytecode.Op) (bool, error) {
	left := stack[base+int(ins.Arg1())]
	var right value.Value
	switch op {
	case bytecode.EQ_LL, bytecode.NEQ_LL, bytecode.LT_LL, bytecode.LE_LL, bytecode.GT_LL, bytecode.GE_LL:
		right = stack[base+int(ins.Arg2())]
	case bytecode.EQ_LN, bytecode.NEQ_LN, bytecode.LT_LN, bytecode.LE_LN, bytecode.GT_LN, bytecode.GE_LN:
		right = vm.rt.Const(int(ins.Arg2()))
	case bytecode.EQ_LP, bytecode.NEQ_LP:
		right = primValue(value.Primitive(ins.Arg2()))
	default:
		return false, runtime.NewErr("illegal relational opcode %s", op)
	}

	switch op {
	case bytecode.EQ_LL, bytecode.EQ_LN, bytecode.EQ_LP:
		return left.Is(right), nil
	case bytecode.NEQ_LL, bytecode.NEQ_LN, bytecode.NEQ_LP:
		return !left.Is(right), nil
	}

	if !left.IsNum() || !right.IsNum() {
		return false, runtime.NewErr("ordering comparison on a non-number")
	}
	l, r := left.Num(), right.Num()
	switch op {
	case bytecode.LT_LL, bytecode.LT_LN:
		return l < r, nil
	case bytecode.LE_LL, bytecode.LE_LN:
		return l <= r, nil
	case bytecode.GT_LL, bytecode.GT_LN:
		return l > r, nil
	case bytecode.GE_LL, bytecode.GE_LN:
		return l >= r, nil
	}
	return false, fmt.Errorf("illegal relational opcode %s", op)
}

// countHotLoop bumps pc's entry in the hot-loop counter table and, once it
// reaches the configured threshold, resets the counter and asks lang/jit to
// record a trace for the loop body starting at this LOOP instruction's target.
func (vm *VM) countHotLoop(fn, pc int, code []bytecode.Ins) {
	slot := (pc >> 2) & vm.hotMask
	if vm.hotCounts[slot] >= 0xff {
		return
	}
	vm.hotCounts[slot]++
	if int(vm.hotCounts[slot]) < vm.opts.HotLoopThreshold {
		return
	}
	vm.hotCounts[slot] = 0
	if _, ok := vm.traces[pc]; ok {
		return
	}
	target := pc + 1 + int(bytecode.DecodeJump(code[pc]))
	if trace, err := jit.Record(code, target, pc); err == nil {
		vm.traces[pc] = trace
	}
}
