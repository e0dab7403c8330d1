package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/ember-lang/ember/internal/config"
	"github.com/ember-lang/ember/lang/compiler"
	"github.com/ember-lang/ember/lang/interp"
	"github.com/ember-lang/ember/lang/runtime"
	"github.com/mna/mainer"
)

func readSource(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(b), nil
}

// Run compiles and executes the single source file named in args[0].
func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
	path := args[0]
	src, err := readSource(path)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	rt := runtime.New(cfg.StackSize)
	pkg, err := compiler.CompilePackage(rt, path, src)
	if err != nil {
		return err
	}

	vm := interp.New(rt, interp.Options{
		HotLoopThreshold: cfg.HotLoopThreshold,
		HotLoopTableSize: cfg.HotLoopTableSize,
	})
	result, err := vm.RunPackage(ctx, pkg)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdio.Stdout, result)
	return nil
}
