package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	colorable "github.com/mattn/go-colorable"
	isatty "github.com/mattn/go-isatty"
	"github.com/peterh/liner"

	"github.com/vela-lang/vela/internal/config"
	"github.com/vela-lang/vela/internal/logging"
	"github.com/vela-lang/vela/internal/modloader"
	"github.com/vela-lang/vela/internal/object"
	"github.com/vela-lang/vela/internal/vm"
)

const historyFile = ".vela_history"

// repl runs an interactive read-compile-run loop: each line is compiled
// against the same module/VM pair so earlier bindings stay visible,
// following the same line-editing + colored-diagnostics pattern
// internal/logging documents for the rest of the runtime. repl returns 74
// when the module loader cannot be created and 0 otherwise; a failed
// terminal read ends the session with 0.
func repl(cfg *config.Config) int {
	log := logging.Root().New("component", "vela")

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}

	useColor := isatty.IsTerminal(os.Stdout.Fd())
	errColor := color.New(color.FgRed)
	out := colorable.NewColorableStdout()

	strings := object.NewStringTable()
	loader, err := modloader.New(cfg.Path, strings, cfg, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 74
	}
	module := object.NewModule("<repl>")
	machine := vm.New(module, strings)
	machine.SetRequireHook(loader.Require)

	fmt.Fprintf(out, "vela %s — Ctrl-D to exit\n", cfg.Version)
	for {
		text, err := line.Prompt("vela> ")
		if err != nil {
			break
		}
		if text == "" {
			continue
		}
		line.AppendHistory(text)

		fn, cerr := loader.CompileInto(module, "<repl>", text)
		if cerr != nil {
			printErr(useColor, errColor, cerr)
			continue
		}
		module.TopLevel = object.NewClosure(fn, module)
		if _, rerr := machine.Run(); rerr != nil {
			printErr(useColor, errColor, rerr)
		}
	}

	if f, err := os.Create(historyFile); err == nil {
		line.WriteHistory(f)
		f.Close()
	}
	return 0
}

func printErr(useColor bool, c *color.Color, err error) {
	if useColor {
		c.Fprintln(os.Stderr, err.Error())
		return
	}
	fmt.Fprintln(os.Stderr, err.Error())
}
