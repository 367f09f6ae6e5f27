package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOutputType(t *testing.T) {
	cases := map[string]OutputType{
		"":       OutputStdout,
		"stdout": OutputStdout,
		"LOG":    OutputLog,
		"Fancy":  OutputFancy,
	}
	for in, want := range cases {
		got, err := ParseOutputType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseOutputType("curses")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()

	cfg := Default()
	cfg.Root = dir
	require.NoError(t, cfg.Validate())

	missing := Default()
	missing.Root = filepath.Join(dir, "nope")
	assert.Error(t, missing.Validate())

	file := filepath.Join(dir, "a.rar")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	notDir := Default()
	notDir.Root = file
	assert.Error(t, notDir.Validate())

	noRoot := Default()
	assert.Error(t, noRoot.Validate())

	skip := Default()
	skip.Root = dir
	skip.SkipCompleted = true
	assert.Error(t, skip.Validate(), "skip-completed without a ledger")

	badExt := Default()
	badExt.Root = dir
	badExt.PrimaryExt = ".rar"
	assert.Error(t, badExt.Validate())
}
