package cli_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ember-lang/ember/internal/cli"
	"github.com/kylelemons/godebug/diff"
	"github.com/mna/mainer"
	"github.com/stretchr/testify/require"
)

// TestDisasmOutput compares Disasm's output against a literal expected
// listing rather than a golden-file tree: the teacher's filetest.DiffOutput
// exists to diff whole pretty-printed ASTs against testdata/out/*.golden
// files, which is more machinery than a handful of one-function listings
// need here. godebug/diff still earns its keep: on failure it prints which
// lines differ instead of testify's default "not equal" blob.
func TestDisasmOutput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "add.ember")
	require.NoError(t, os.WriteFile(path, []byte("let x = 1 + 2"), 0o644))

	var out, errOut bytes.Buffer
	stdio := mainer.Stdio{Stdout: &out, Stderr: &errOut}

	c := &cli.Cmd{}
	err := c.Disasm(context.Background(), stdio, []string{path})
	require.NoError(t, err)

	want := "fn 0 (args=0, slots=1):\n" +
		"     0  SETN 0 0\n" +
		"     1  RET 0\n"
	if got := out.String(); got != want {
		t.Errorf("disasm output mismatch:\n%s", diff.Diff(want, got))
	}
}
