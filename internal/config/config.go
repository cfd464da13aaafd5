// Package config loads the runtime's INI configuration file
// ([basic]/[gc]/[flags]/[debug] sections) with gopkg.in/ini.v1, the
// standard real-world Go INI library (no example repo in the retrieval
// pack ships one of its own, so this dependency is named rather than
// grounded — the natural "embedded INI reader" collaborator the
// specification treats as a black box).
package config

import (
	"fmt"

	"gopkg.in/ini.v1"
)

// FlagLevel is a flags.* severity: 0 none, 1 warn, 2 error.
type FlagLevel int

const (
	FlagNone FlagLevel = iota
	FlagWarn
	FlagError
)

func (l FlagLevel) String() string {
	switch l {
	case FlagWarn:
		return "warn"
	case FlagError:
		return "error"
	default:
		return "none"
	}
}

func parseFlagLevel(key string, v int) (FlagLevel, error) {
	switch v {
	case 0, 1, 2:
		return FlagLevel(v), nil
	default:
		return FlagNone, fmt.Errorf("config: %s must be 0, 1, or 2, got %d", key, v)
	}
}

// Config is the typed view of the INI file every other ambient component
// (modloader, compiler diagnostics, debugdump, GC tuning) reads its
// runtime parameters from.
type Config struct {
	Version  string
	Script   string
	Path     string
	Timezone string

	GCType          string
	GCHeapSize      int64
	GCGrowthFactor  float64
	GCStressMode    bool

	FlagUnusedVariable FlagLevel
	FlagMutableVariable FlagLevel
	FlagUnusedImport    FlagLevel

	DebugToken   bool
	DebugAst     bool
	DebugSymtab  bool
	DebugCode    bool
}

// Default returns the configuration a run uses when no INI file is given:
// the REPL (no entry script), the process's working directory as the
// search root, no diagnostics, a modest initial GC threshold.
func Default() *Config {
	return &Config{
		Version:        "0.1.0",
		Path:           ".",
		Timezone:       "Local",
		GCType:         "generational",
		GCHeapSize:     1 << 20,
		GCGrowthFactor: 2.0,
	}
}

// Load reads and validates path, an INI file shaped like the runtime's
// configuration table. Unknown flags.* values outside {0,1,2} are rejected
// outright rather than silently clamped.
func Load(path string) (*Config, error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg := Default()

	basic := f.Section("basic")
	cfg.Version = basic.Key("version").MustString(cfg.Version)
	cfg.Script = basic.Key("script").MustString(cfg.Script)
	cfg.Path = basic.Key("path").MustString(cfg.Path)
	cfg.Timezone = basic.Key("timezone").MustString(cfg.Timezone)

	gc := f.Section("gc")
	cfg.GCType = gc.Key("gcType").MustString(cfg.GCType)
	cfg.GCHeapSize = gc.Key("gcHeapSize").MustInt64(cfg.GCHeapSize)
	cfg.GCGrowthFactor = gc.Key("gcGrowthFactor").MustFloat64(cfg.GCGrowthFactor)
	cfg.GCStressMode = gc.Key("gcStressMode").MustBool(cfg.GCStressMode)

	flags := f.Section("flags")
	if cfg.FlagUnusedVariable, err = parseFlagLevel("flags.flagUnusedVariable", flags.Key("flagUnusedVariable").MustInt(0)); err != nil {
		return nil, err
	}
	if cfg.FlagMutableVariable, err = parseFlagLevel("flags.flagMutableVariable", flags.Key("flagMutableVariable").MustInt(0)); err != nil {
		return nil, err
	}
	if cfg.FlagUnusedImport, err = parseFlagLevel("flags.flagUnusedImport", flags.Key("flagUnusedImport").MustInt(0)); err != nil {
		return nil, err
	}

	debug := f.Section("debug")
	cfg.DebugToken = debug.Key("debugToken").MustBool(false)
	cfg.DebugAst = debug.Key("debugAst").MustBool(false)
	cfg.DebugSymtab = debug.Key("debugSymtab").MustBool(false)
	cfg.DebugCode = debug.Key("debugCode").MustBool(false)

	return cfg, nil
}
