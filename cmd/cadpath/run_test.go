package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lotScript = "../../examples/lot.cadpath"

func writeScript(t *testing.T, source string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "script.cadpath")
	require.NoError(t, os.WriteFile(p, []byte(source), 0644))
	return p
}

func TestRunCmd(t *testing.T) {
	out, _, err := execute(t, "run", lotScript)
	require.NoError(t, err)

	assert.Contains(t, out, "features: 10 (5 points, 2 lines, 0 arcs, 3 circles)")
	for _, name := range []string{"M1", "M2", "P", "Q"} {
		assert.Contains(t, out, name)
	}
	assert.NotContains(t, out, "saved")
}

func TestRunCmd_EvalErrors(t *testing.T) {
	p := writeScript(t, "(point \"A\" 0 0)\n(line \"A\" \"B\")\n")

	_, errOut, err := execute(t, "run", p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 errors")
	assert.Contains(t, errOut, p)
}

func TestRunCmd_Warnings(t *testing.T) {
	p := writeScript(t, "(point \"A\" 1 1)\n(point \"B\" 1 1)\n")

	out, errOut, err := execute(t, "run", p)
	require.NoError(t, err)
	assert.Contains(t, out, "features: 2")
	assert.Contains(t, errOut, "warning")
}

func TestRunCmd_MissingFile(t *testing.T) {
	_, _, err := execute(t, "run", filepath.Join(t.TempDir(), "nope.cadpath"))
	assert.ErrorContains(t, err, "reading script")
}

func TestRunCmd_SaveAndShow(t *testing.T) {
	db := filepath.Join(t.TempDir(), "lot.db")

	out, _, err := execute(t, "--db", db, "run", lotScript)
	require.NoError(t, err)
	assert.Contains(t, out, "saved 10 features")

	out, _, err = execute(t, "--db", db, "show")
	require.NoError(t, err)
	assert.Contains(t, out, "features: 10 (5 points, 2 lines, 0 arcs, 3 circles)")
	assert.Contains(t, out, "M2")
}

func TestShowCmd_RequiresDatabase(t *testing.T) {
	_, _, err := execute(t, "show")
	assert.ErrorContains(t, err, "no database")
}

func TestConfigCmd(t *testing.T) {
	out, _, err := execute(t, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "entry_unit")
	assert.Contains(t, out, "tolerance")
}

func TestConfigInitCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cadpath", "settings.toml")
	t.Setenv("CADPATH_UNITS", "")

	run := func(args ...string) error {
		cmd := newRootCmd()
		cmd.SetOut(io.Discard)
		cmd.SetErr(io.Discard)
		cmd.SetArgs(append([]string{"--config", path}, args...))
		return cmd.Execute()
	}

	require.NoError(t, run("config", "init"))
	assert.FileExists(t, path)

	assert.ErrorContains(t, run("config", "init"), "already exists")
	assert.NoError(t, run("config", "init", "--force"))
}
