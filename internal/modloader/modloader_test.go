package modloader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vela-lang/vela/internal/object"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	assert.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	assert.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestRequireStdlibNamespace(t *testing.T) {
	l, err := New(t.TempDir(), object.NewStringTable(), nil, nil)
	assert.NoError(t, err)

	mod, err := l.Require("Math")
	assert.NoError(t, err)
	_, _, ok := mod.GetGlobal("abs")
	assert.True(t, ok)

	again, err := l.Require("Math")
	assert.NoError(t, err)
	assert.Same(t, mod, again)
}

func TestRequireDirectFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Foo/Bar.vl", "val answer = 42;")

	l, err := New(root, object.NewStringTable(), nil, nil)
	assert.NoError(t, err)

	mod, err := l.Require("Foo.Bar")
	assert.NoError(t, err)
	v, _, ok := mod.GetGlobal("answer")
	assert.True(t, ok)
	assert.True(t, v.IsInt())
	assert.Equal(t, int64(42), v.AsInt())
}

func TestRequireIndexFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Pkg/index.vl", "val loaded = true;")

	l, err := New(root, object.NewStringTable(), nil, nil)
	assert.NoError(t, err)

	mod, err := l.Require("Pkg")
	assert.NoError(t, err)
	v, _, ok := mod.GetGlobal("loaded")
	assert.True(t, ok)
	assert.True(t, v.IsBool())
	assert.True(t, v.AsBool())
}

func TestRequireMissingPathErrors(t *testing.T) {
	l, err := New(t.TempDir(), object.NewStringTable(), nil, nil)
	assert.NoError(t, err)

	_, err = l.Require("Nope.Nowhere")
	assert.Error(t, err)
}

func TestRequireCachesCompiledModule(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "Counted.vl", "val n = 1;")

	l, err := New(root, object.NewStringTable(), nil, nil)
	assert.NoError(t, err)

	first, err := l.Require("Counted")
	assert.NoError(t, err)
	second, err := l.Require("Counted")
	assert.NoError(t, err)
	assert.Same(t, first, second)
}
