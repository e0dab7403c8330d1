package bytecode

import "fmt"

// Dasm renders a single instruction in a human-readable assembly form: the
// opcode name followed by its arguments in encoding order (e.g.
// "ADDLL 2 0 1").
func Dasm(ins Ins) string {
	op := ins.Op()
	switch {
	case op == MOV, op == SET_N, op == SET_P, op == SET_F:
		return fmt.Sprintf("%s %d %d", op, ins.Arg1(), ins.Arg16())
	case op.IsArith() && op != NEG, op.IsRel():
		return fmt.Sprintf("%s %d %d %d", op, ins.Arg1(), ins.Arg2(), ins.Arg3())
	case op == NEG:
		return fmt.Sprintf("%s %d %d", op, ins.Arg1(), ins.Arg2())
	case op == JMP, op == LOOP:
		return fmt.Sprintf("%s %d", op, ins.Arg24())
	case op == CALL:
		return fmt.Sprintf("%s %d %d %d", op, ins.Arg1(), ins.Arg2(), ins.Arg3())
	case op == RET:
		return fmt.Sprintf("%s %d", op, ins.Arg1())
	default:
		return "ILLEGAL"
	}
}
