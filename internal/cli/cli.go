// Package cli implements ember's command-line entry point: compiling and
// running a source file, plus a couple of debug commands that expose the
// scanner and compiler phases directly. It follows the flag-tagged
// Cmd-struct convention of github.com/mna/mainer, the same way the compiler
// this package's structure is modeled on wires up its own CLI.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"reflect"
	"runtime"
	"strings"

	"github.com/ember-lang/ember/internal/config"
	"github.com/mna/mainer"
	"golang.org/x/term"
)

const binName = "ember"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] [<command>] <path>
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] [<command>] <path>
       %[1]s -h|--help
       %[1]s -v|--version

Compiles and runs an ember source file.

The <command> can be one of (default: run):
       run                       Compile and execute <path>.
       tokenize                  Print the tokens scanned from <path>.
       disasm                    Print the disassembled bytecode compiled
                                 from <path>, without running it.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
`, binName)
)

// Cmd is ember's top-level command, parsed directly from os.Args by
// mainer.Parser. Exported bool fields tagged `flag` become command-line
// flags; SetArgs receives whatever is left over (the command name and its
// path argument).
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	args  []string
	cmdFn func(context.Context, mainer.Stdio, []string) error
}

func (c *Cmd) SetArgs(args []string)             { c.args = args }
func (c *Cmd) SetFlags(flags map[string]bool)    {}

// Validate picks the subcommand (defaulting to "run") and checks that a
// path was given, matching the reference CLI's contract: with no input at
// all, that's reported to the caller as a distinct "nothing to do" case
// rather than an error (there is no REPL to fall back to).
func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if len(c.args) == 0 {
		return errNoInput
	}

	name := "run"
	rest := c.args
	if fn, ok := buildCmds(c)[c.args[0]]; ok {
		name = c.args[0]
		c.cmdFn = fn
		rest = c.args[1:]
	} else {
		c.cmdFn = buildCmds(c)["run"]
	}
	if len(rest) == 0 {
		return fmt.Errorf("%s: a source file path is required", name)
	}
	return nil
}

// errNoInput is returned by Validate when no arguments at all were given.
// Main treats it as a successful, silent no-op rather than a usage error.
var errNoInput = errors.New("no input")

// Main is the CLI's entry point, called directly from cmd/ember/main.go.
func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{EnvVars: false, EnvPrefix: strings.ToUpper(binName) + "_"}
	if err := p.Parse(args, c); err != nil {
		if errors.Is(err, errNoInput) {
			fmt.Fprintf(stdio.Stdout, "%s: no input file; there is no REPL, pass a source file path\n", binName)
			return mainer.Success
		}
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.Failure
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	cfg, err := config.Load()
	if err != nil {
		c.printError(stdio, err)
		return mainer.Failure
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	pathArgs := c.args
	if len(pathArgs) > 0 {
		if _, ok := buildCmds(c)[pathArgs[0]]; ok {
			pathArgs = pathArgs[1:]
		}
	}

	if err := c.dispatch(ctx, stdio, cfg, pathArgs); err != nil {
		c.printError(stdio, err)
		return mainer.Failure
	}
	return mainer.Success
}

func (c *Cmd) dispatch(ctx context.Context, stdio mainer.Stdio, cfg *config.Config, args []string) error {
	if c.cmdFn == nil {
		return fmt.Errorf("no command resolved")
	}
	return c.cmdFn(ctx, stdio, args)
}

// printError writes err to stderr, colorized red when stdout is a terminal
// on a POSIX system (or color is forced on via EMBER_FORCE_COLOR) and not
// when it's piped.
func (c *Cmd) printError(stdio mainer.Stdio, err error) {
	msg := fmt.Sprintf("%s: %s\n", binName, err)
	if c.colorEnabled(stdio) {
		msg = "\x1b[31m" + msg + "\x1b[0m"
	}
	fmt.Fprint(stdio.Stderr, msg)
}

func (c *Cmd) colorEnabled(stdio mainer.Stdio) bool {
	cfg, err := config.Load()
	if err == nil && cfg.ForceColor != nil {
		return *cfg.ForceColor
	}
	if runtime.GOOS == "windows" {
		return false
	}
	f, ok := stdio.Stdout.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// buildCmds reflects over v's methods to find the handful matching the
// (context.Context, mainer.Stdio, []string) error shape, keyed by their
// lowercased name; this mirrors the dispatch table construction used by the
// compiler's own CLI.
func buildCmds(v interface{}) map[string]func(context.Context, mainer.Stdio, []string) error {
	cmds := make(map[string]func(context.Context, mainer.Stdio, []string) error)

	vv := reflect.ValueOf(v)
	vt := vv.Type()
	for i := 0; i < vt.NumMethod(); i++ {
		m := vt.Method(i)
		mt := m.Type
		if mt.NumIn() != 4 || mt.NumOut() != 1 {
			continue
		}
		if rt := mt.Out(0); rt.Kind() != reflect.Interface || rt.Name() != "error" {
			continue
		}
		if p2 := mt.In(2); p2.Kind() != reflect.Struct || p2.Name() != "Stdio" {
			continue
		}
		if p3 := mt.In(3); p3.Kind() != reflect.Slice || p3.Elem().Name() != "string" {
			continue
		}
		cmds[strings.ToLower(m.Name)] = vv.Method(i).Interface().(func(context.Context, mainer.Stdio, []string) error)
	}
	return cmds
}
