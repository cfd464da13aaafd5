package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vela.ini")
	assert.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeTemp(t, "[basic]\nscript = main.vl\n")
	cfg, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, "main.vl", cfg.Script)
	assert.Equal(t, ".", cfg.Path)
	assert.Equal(t, FlagNone, cfg.FlagUnusedVariable)
}

func TestLoadFullTable(t *testing.T) {
	path := writeTemp(t, `
[basic]
version = 1.2.3
script = app.vl
path = ./scripts
timezone = UTC

[gc]
gcType = generational
gcHeapSize = 2048
gcGrowthFactor = 1.5
gcStressMode = true

[flags]
flagUnusedVariable = 1
flagMutableVariable = 2
flagUnusedImport = 0

[debug]
debugToken = true
debugCode = true
`)
	cfg, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, "1.2.3", cfg.Version)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, int64(2048), cfg.GCHeapSize)
	assert.Equal(t, 1.5, cfg.GCGrowthFactor)
	assert.True(t, cfg.GCStressMode)
	assert.Equal(t, FlagWarn, cfg.FlagUnusedVariable)
	assert.Equal(t, FlagError, cfg.FlagMutableVariable)
	assert.Equal(t, FlagNone, cfg.FlagUnusedImport)
	assert.True(t, cfg.DebugToken)
	assert.False(t, cfg.DebugAst)
	assert.True(t, cfg.DebugCode)
}

func TestLoadRejectsInvalidFlagLevel(t *testing.T) {
	path := writeTemp(t, "[flags]\nflagUnusedVariable = 7\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.ini"))
	assert.Error(t, err)
}
