package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/jacinthe/internal/stdlib"
	"github.com/mna/jacinthe/lang/config"
	"github.com/mna/jacinthe/lang/disasm"
	"github.com/mna/jacinthe/lang/lexer"
	"github.com/mna/jacinthe/lang/object"
	"github.com/mna/jacinthe/lang/token"
	"github.com/mna/jacinthe/lang/value"
	"github.com/mna/jacinthe/lang/vm"
	"github.com/mna/mainer"
)

// run opens path and either prints its tokens, prints its bytecode listing,
// or compiles and executes it, according to the Tokens/Disasm flags (§6).
func (c *Cmd) run(ctx context.Context, stdio mainer.Stdio, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}

	if c.Tokens {
		return c.printTokens(stdio, src, path)
	}

	s := vm.New(config.Default())
	s.Stdout = stdio.Stdout
	s.Stderr = stdio.Stderr
	s.Stdin = stdio.Stdin
	stdlib.Open(s)

	closure, err := s.CompileString(string(src), path)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}

	if c.Disasm {
		return c.printDisasm(stdio, closure.Fn)
	}

	_, ok, err := s.PCall(value.Object(closure), nil, 0)
	if !ok {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}
	return nil
}

func (c *Cmd) printTokens(stdio mainer.Stdio, src []byte, path string) error {
	lx := lexer.New(src, path)
	for {
		tok, val := lx.Scan()
		fmt.Fprintf(stdio.Stdout, "%d: %s", val.Pos, tok)
		if val.Raw != "" {
			fmt.Fprintf(stdio.Stdout, " %q", val.Raw)
		}
		fmt.Fprintln(stdio.Stdout)
		if tok == token.EOF {
			return nil
		}
	}
}

func (c *Cmd) printDisasm(stdio mainer.Stdio, fn *object.ObjFunction) error {
	listing := disasm.Function(fn)
	if c.Format == "yaml" {
		out, err := listing.YAML()
		if err != nil {
			fmt.Fprintln(stdio.Stderr, err)
			return err
		}
		fmt.Fprint(stdio.Stdout, out)
		return nil
	}
	fmt.Fprint(stdio.Stdout, listing.Text())
	return nil
}
