// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

// Command vela is the Language's compiler, interpreter, and REPL in one
// binary, built as a gopkg.in/urfave/cli.v1 application exposing a
// `run`/`repl`/`disasm` subcommand surface and a documented exit-code
// contract.
//
// Usage:
//
//	vela                 REPL if [basic].script is unset, else runs it
//	vela run <path>      run the given file
//	vela repl            force the REPL regardless of configuration
//	vela disasm <path>   compile and print <path>'s bytecode disassembly
//	vela version         print the configured version label
//
// Exit codes: 0 success, 64 usage, 65 compile error, 70 runtime error,
// 74 I/O or OOM.
package main

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/urfave/cli.v1"

	"github.com/vela-lang/vela/internal/config"
	"github.com/vela-lang/vela/internal/gc"
	"github.com/vela-lang/vela/internal/logging"
	"github.com/vela-lang/vela/internal/modloader"
	"github.com/vela-lang/vela/internal/object"
	"github.com/vela-lang/vela/internal/vm"
)

var configFlag = cli.StringFlag{
	Name:  "config, c",
	Usage: "path to a vela.ini configuration file",
}

func main() {
	app := cli.NewApp()
	app.Name = "vela"
	app.Usage = "the Language's compiler, interpreter, and REPL"
	app.Flags = []cli.Flag{configFlag}
	app.Action = defaultAction
	app.Commands = []cli.Command{
		{Name: "run", Usage: "run a source file", ArgsUsage: "<path>", Flags: []cli.Flag{configFlag}, Action: runAction},
		{Name: "repl", Usage: "start the interactive REPL", Flags: []cli.Flag{configFlag}, Action: replAction},
		{Name: "disasm", Usage: "print a file's compiled bytecode", ArgsUsage: "<path>", Flags: []cli.Flag{configFlag}, Action: disasmAction},
		{Name: "version", Usage: "print the configured version label", Flags: []cli.Flag{configFlag}, Action: versionAction},
	}
	app.Run(os.Args)
}

// loadConfig reads --config if given, falling back to config.Default so the
// binary works with no INI file present at all.
func loadConfig(ctx *cli.Context) (*config.Config, error) {
	path := ctx.String("config")
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func defaultAction(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vela: %v\n", err)
		os.Exit(74)
	}
	if ctx.NArg() > 0 {
		os.Exit(runPath(ctx.Args().Get(0), cfg))
	}
	if cfg.Script == "" {
		os.Exit(repl(cfg))
	}
	os.Exit(runPath(cfg.Script, cfg))
	return nil
}

func runAction(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vela: %v\n", err)
		os.Exit(74)
	}
	if ctx.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: vela run <path>")
		os.Exit(64)
	}
	os.Exit(runPath(ctx.Args().Get(0), cfg))
	return nil
}

func replAction(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vela: %v\n", err)
		os.Exit(74)
	}
	os.Exit(repl(cfg))
	return nil
}

func versionAction(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vela: %v\n", err)
		os.Exit(74)
	}
	fmt.Println(cfg.Version)
	return nil
}

// runPath reads, compiles, and runs the script at path, returning the
// process exit code matching the outcome.
func runPath(path string, cfg *config.Config) int {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vela: %v\n", err)
		return 74
	}

	log := logging.Root().New("component", "vela")
	strings := object.NewStringTable()
	loader, err := modloader.New(cfg.Path, strings, cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vela: %v\n", err)
		return 74
	}

	mod, err := loader.Compile(path, string(src))
	if err != nil {
		fmt.Fprintf(os.Stderr, "vela: %v\n", err)
		return 65
	}

	machine := vm.New(mod, strings)
	machine.SetRequireHook(loader.Require)
	if _, err := machine.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "vela: %v\n", err)
		if errors.Is(err, gc.ErrOutOfMemory) {
			return 74
		}
		return 70
	}
	return 0
}
