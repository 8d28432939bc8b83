package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"
)

const binName = "jacinthe"

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] <script.jac>
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] <script.jac>
       %[1]s -h|--help
       %[1]s -v|--version

Compiler and virtual machine for the %[1]s scripting language.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       --tokens                  Print the token stream for the script
                                  and exit, instead of running it.
       --disasm                  Print the compiled bytecode listing
                                  for the script and exit, instead of
                                  running it.
       --format=text|yaml        Output format for --disasm (default:
                                  text).

More information on the %[1]s repository:
       https://github.com/mna/jacinthe
`, binName)
)

type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	Tokens bool   `flag:"tokens"`
	Disasm bool   `flag:"disasm"`
	Format string `flag:"format"`

	args []string
}

func (c *Cmd) SetArgs(args []string)          { c.args = args }
func (c *Cmd) SetFlags(flags map[string]bool) {}

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if len(c.args) == 0 {
		return fmt.Errorf("no script path specified")
	}
	if c.Format == "" {
		c.Format = "text"
	}
	if c.Format != "text" && c.Format != "yaml" {
		return fmt.Errorf("invalid -format value: %s", c.Format)
	}
	if c.Tokens && c.Disasm {
		return fmt.Errorf("-tokens and -disasm are mutually exclusive")
	}
	return nil
}

func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{
		EnvVars:   false,
		EnvPrefix: binName + "_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)
	if err := c.run(ctx, stdio, c.args[0]); err != nil {
		return mainer.Failure
	}
	return mainer.Success
}
