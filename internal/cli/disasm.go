package cli

import (
	"context"
	"fmt"

	"github.com/ember-lang/ember/lang/bytecode"
	"github.com/ember-lang/ember/lang/compiler"
	"github.com/ember-lang/ember/lang/runtime"
	"github.com/mna/mainer"
)

// Disasm compiles args[0] without running it and prints the disassembled
// bytecode of every function defined in it.
func (c *Cmd) Disasm(ctx context.Context, stdio mainer.Stdio, args []string) error {
	path := args[0]
	src, err := readSource(path)
	if err != nil {
		return err
	}

	rt := runtime.New(1)
	pkg, err := compiler.CompilePackage(rt, path, src)
	if err != nil {
		return err
	}

	for i, fn := range rt.Funcs {
		if fn.Pkg != pkg {
			continue
		}
		fmt.Fprintf(stdio.Stdout, "fn %d (args=%d, slots=%d):\n", i, fn.NumArgs, fn.NumSlots)
		for pc, ins := range fn.Code {
			fmt.Fprintf(stdio.Stdout, "  %4d  %s\n", pc, bytecode.Dasm(ins))
		}
	}
	return nil
}
