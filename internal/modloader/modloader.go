// Package modloader turns a `require "Foo.Bar.Baz"` statement into a
// compiled, running *object.Module: it owns the lex/parse/resolve/compile
// pipeline the rest of the interpreter only sees the tail end of (a fresh
// object.Function handed to the VM), resolves dotted namespace paths
// against a configured search root, and wires in the five stdlib namespaces
// (Math/String/IO/Digest/Time) as pre-compiled modules alongside user source
// files. Resolved modules are cached by path in a
// github.com/hashicorp/golang-lru cache so a namespace required from several
// places in one program is lexed/parsed/compiled exactly once.
package modloader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru"

	"github.com/vela-lang/vela/internal/compiler"
	"github.com/vela-lang/vela/internal/config"
	"github.com/vela-lang/vela/internal/logging"
	"github.com/vela-lang/vela/internal/object"
	"github.com/vela-lang/vela/internal/parser"
	"github.com/vela-lang/vela/internal/resolver"
	"github.com/vela-lang/vela/internal/vm"
	"github.com/vela-lang/vela/stdlib/digest"
	"github.com/vela-lang/vela/stdlib/iolib"
	"github.com/vela-lang/vela/stdlib/mathlib"
	"github.com/vela-lang/vela/stdlib/strlib"
	"github.com/vela-lang/vela/stdlib/timelib"
)

// sourceExt and indexFile fix the two ways a dotted namespace path can
// resolve to a file: a direct source file, or a directory with an index.
const (
	sourceExt = ".vl"
	indexFile = "index.vl"
)

// Loader resolves require paths against root, compiling and running each
// module the first time it is seen and serving every subsequent require of
// the same path from cache.
type Loader struct {
	root    string
	strings *object.StringTable
	cfg     *config.Config
	log     *logging.Logger
	cache   *lru.Cache
	stdlib  map[string]*object.Module
}

// New builds a Loader rooted at root, sharing strings with the VM that will
// install this Loader's Hook as its require callback — see vm.VM.Strings
// for why sharing the table (not building a second one) matters.
func New(root string, strings *object.StringTable, cfg *config.Config, log *logging.Logger) (*Loader, error) {
	cache, err := lru.New(128)
	if err != nil {
		return nil, fmt.Errorf("modloader: %w", err)
	}
	l := &Loader{root: root, strings: strings, cfg: cfg, log: log, cache: cache}
	l.stdlib = map[string]*object.Module{
		"Math":   buildStdlib("Math", mathlib.Register),
		"String": buildStdlib("String", strlib.Register),
		"IO":     buildStdlib("IO", iolib.Register),
		"Digest": buildStdlib("Digest", digest.Register),
		"Time":   buildStdlib("Time", timelib.Register),
	}
	return l, nil
}

func buildStdlib(name string, register func(m *object.Module)) *object.Module {
	m := object.NewModule(name)
	m.IsNative = true
	register(m)
	return m
}

// Hook returns the callback to install via vm.VM.SetRequireHook.
func (l *Loader) Hook() func(path string) (*object.Module, error) {
	return l.Require
}

// Require resolves path (a dotted namespace like "Foo.Bar.Baz", or one of
// the five stdlib namespace names) to a *object.Module, compiling and
// running it the first time and returning the cached instance thereafter.
func (l *Loader) Require(path string) (*object.Module, error) {
	if mod, ok := l.stdlib[path]; ok {
		return mod, nil
	}
	if cached, ok := l.cache.Get(path); ok {
		return cached.(*object.Module), nil
	}

	file, err := l.resolveFile(path)
	if err != nil {
		return nil, err
	}
	src, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("require %q: %w", path, err)
	}

	mod, err := l.compileAndRun(file, string(src))
	if err != nil {
		return nil, fmt.Errorf("require %q: %w", path, err)
	}
	l.cache.Add(path, mod)
	return mod, nil
}

// resolveFile turns a dotted namespace path into a file under root: either
// <root>/A/B/C.vl, or, if that doesn't exist, <root>/A/B/C/index.vl for a
// namespace implemented as a directory of sibling files.
func (l *Loader) resolveFile(path string) (string, error) {
	parts := strings.Split(path, ".")
	rel := filepath.Join(parts...)

	direct := filepath.Join(l.root, rel+sourceExt)
	if info, err := os.Stat(direct); err == nil && !info.IsDir() {
		return direct, nil
	}

	index := filepath.Join(l.root, rel, indexFile)
	if info, err := os.Stat(index); err == nil && !info.IsDir() {
		return index, nil
	}

	return "", fmt.Errorf("require %q: no such file %s or %s", path, direct, index)
}

// compileAndRun runs path/src through the full pipeline this package
// exists to centralize — lex+parse, resolve, compile, then execute the
// resulting top-level closure on a fresh VM sharing l's string table — and
// returns the module the script's globals ended up in.
func (l *Loader) compileAndRun(path, src string) (*object.Module, error) {
	mod, err := l.Compile(path, src)
	if err != nil {
		return nil, err
	}
	machine := vm.New(mod, l.strings)
	machine.SetRequireHook(l.Require)
	if _, err := machine.Run(); err != nil {
		return nil, err
	}
	return mod, nil
}

// Compile runs path/src through parse, resolve, and compile, applying cfg's
// flags.* severities to resolver diagnostics, and returns the resulting
// (not yet run) *object.Module. This is the pipeline cmd/vela's `run`/`repl`
// commands and debugdump's callers should use directly instead of calling
// the parser/resolver/compiler packages by hand, so the resolver pass (easy
// to forget — it was unwired from every caller but its own tests until this
// package existed) always runs.
func (l *Loader) Compile(path, src string) (*object.Module, error) {
	mod := object.NewModule(path)
	fn, err := l.CompileInto(mod, path, src)
	if err != nil {
		return nil, err
	}
	mod.TopLevel = object.NewClosure(fn, mod)
	return mod, nil
}

// CompileInto runs path/src through parse, resolve, and compile exactly
// like Compile, but targets an already-existing module rather than
// allocating a fresh one, so a caller driving a REPL can recompile one line
// at a time while DEFINE_GLOBAL_VAL/VAR keeps landing in the same module's
// binding tables and earlier lines' globals stay visible to later ones.
func (l *Loader) CompileInto(mod *object.Module, path, src string) (*object.Function, error) {
	prog, perrs := parser.Parse(path, src)
	if len(perrs) > 0 {
		return nil, fmt.Errorf("%s: %w", path, joinErrors(perrs))
	}

	diags := resolver.New().Resolve(prog)
	if err := l.applyDiagnostics(path, diags); err != nil {
		return nil, err
	}

	c := compiler.New(mod, l.strings)
	fn, cerrs := c.Compile(prog)
	if len(cerrs) > 0 {
		return nil, fmt.Errorf("%s: %w", path, joinErrors(cerrs))
	}
	return fn, nil
}

// applyDiagnostics logs or rejects resolver diagnostics per cfg's
// flagUnusedVariable severity. The resolver does not yet distinguish
// unused-variable from mutable-variable or unused-import diagnostics (it
// emits one undifferentiated Diagnostic stream), so every diagnostic is
// judged against flagUnusedVariable, the strictest of the three in
// practice; a future resolver revision that tags each Diagnostic's kind
// should route mutable/import diagnostics through their own config knobs
// instead.
func (l *Loader) applyDiagnostics(path string, diags []resolver.Diagnostic) error {
	if len(diags) == 0 {
		return nil
	}
	switch l.level() {
	case config.FlagError:
		return fmt.Errorf("%s: %w", path, joinDiagnostics(diags))
	case config.FlagWarn:
		if l.log != nil {
			for _, d := range diags {
				l.log.Warn(d.Message, "pos", d.Pos.String())
			}
		}
	}
	return nil
}

func (l *Loader) level() config.FlagLevel {
	if l.cfg == nil {
		return config.FlagNone
	}
	return l.cfg.FlagUnusedVariable
}

func joinErrors(errs []error) error {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}

func joinDiagnostics(diags []resolver.Diagnostic) error {
	msgs := make([]string, len(diags))
	for i, d := range diags {
		msgs[i] = d.String()
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}
