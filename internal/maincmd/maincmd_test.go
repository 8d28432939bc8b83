package maincmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mna/mainer"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "script.jac")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestValidateRequiresScriptPathUnlessHelpOrVersion(t *testing.T) {
	var c Cmd
	require.Error(t, c.Validate())

	c = Cmd{Help: true}
	require.NoError(t, c.Validate())

	c = Cmd{Version: true}
	require.NoError(t, c.Validate())
}

func TestValidateDefaultsFormatToText(t *testing.T) {
	c := Cmd{}
	c.SetArgs([]string{"script.jac"})
	require.NoError(t, c.Validate())
	require.Equal(t, "text", c.Format)
}

func TestValidateRejectsUnknownFormat(t *testing.T) {
	c := Cmd{Format: "xml"}
	c.SetArgs([]string{"script.jac"})
	require.Error(t, c.Validate())
}

func TestValidateRejectsTokensAndDisasmTogether(t *testing.T) {
	c := Cmd{Tokens: true, Disasm: true}
	c.SetArgs([]string{"script.jac"})
	require.Error(t, c.Validate())
}

func TestRunExecutesScript(t *testing.T) {
	path := writeScript(t, `print(1 + 2)`)
	var c Cmd
	var out, eout bytes.Buffer
	stdio := mainer.Stdio{Stdout: &out, Stderr: &eout}
	err := c.run(context.Background(), stdio, path)
	require.NoError(t, err)
	require.Equal(t, "3\n", out.String())
}

func TestRunReportsCompileError(t *testing.T) {
	path := writeScript(t, `var x = `)
	var c Cmd
	var out, eout bytes.Buffer
	stdio := mainer.Stdio{Stdout: &out, Stderr: &eout}
	err := c.run(context.Background(), stdio, path)
	require.Error(t, err)
	require.NotEmpty(t, eout.String())
}

func TestPrintTokensListsStreamUntilEOF(t *testing.T) {
	c := Cmd{Tokens: true}
	var out, eout bytes.Buffer
	stdio := mainer.Stdio{Stdout: &out, Stderr: &eout}
	err := c.printTokens(stdio, []byte("local x = 1"), "test")
	require.NoError(t, err)
	require.Contains(t, out.String(), `"local"`)
	require.Contains(t, out.String(), "end of file")
}

func TestRunWithDisasmPrintsListingInsteadOfExecuting(t *testing.T) {
	path := writeScript(t, `print(1)`)
	c := Cmd{Disasm: true}
	var out, eout bytes.Buffer
	stdio := mainer.Stdio{Stdout: &out, Stderr: &eout}
	err := c.run(context.Background(), stdio, path)
	require.NoError(t, err)
	require.Contains(t, out.String(), "== <toplevel> ==")
	require.Empty(t, eout.String())
}
