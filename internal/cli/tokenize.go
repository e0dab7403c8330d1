package cli

import (
	"context"
	"fmt"

	"github.com/ember-lang/ember/lang/scanner"
	"github.com/ember-lang/ember/lang/token"
	"github.com/mna/mainer"
)

// Tokenize prints every token scanned from args[0], one per line.
func (c *Cmd) Tokenize(ctx context.Context, stdio mainer.Stdio, args []string) error {
	path := args[0]
	src, err := readSource(path)
	if err != nil {
		return err
	}

	s := scanner.New(path, src)
	for {
		tok, err := s.Next()
		if err != nil {
			return err
		}
		fmt.Fprintf(stdio.Stdout, "%s:%d: %s", path, tok.Line, scanner.Name(tok.Kind))
		switch tok.Kind {
		case token.IDENT:
			fmt.Fprintf(stdio.Stdout, " %q", tok.Ident)
		case token.NUM:
			fmt.Fprintf(stdio.Stdout, " %v", tok.Num)
		}
		fmt.Fprintln(stdio.Stdout)
		if tok.Kind == token.EOF {
			return nil
		}
	}
}
