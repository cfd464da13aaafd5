package main

import (
	"fmt"
	"os"

	"gopkg.in/urfave/cli.v1"

	"github.com/vela-lang/vela/internal/bytecode"
	"github.com/vela-lang/vela/internal/debugdump"
	"github.com/vela-lang/vela/internal/logging"
	"github.com/vela-lang/vela/internal/modloader"
	"github.com/vela-lang/vela/internal/object"
)

func disasmAction(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vela: %v\n", err)
		os.Exit(74)
	}
	if ctx.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: vela disasm <path>")
		os.Exit(64)
	}
	path := ctx.Args().Get(0)

	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vela: %v\n", err)
		os.Exit(74)
	}

	log := logging.Root().New("component", "vela")
	strings := object.NewStringTable()
	loader, err := modloader.New(cfg.Path, strings, cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vela: %v\n", err)
		os.Exit(74)
	}

	mod, err := loader.Compile(path, string(src))
	if err != nil {
		fmt.Fprintf(os.Stderr, "vela: %v\n", err)
		os.Exit(65)
	}

	printChunk(path, mod.TopLevel.Function.Chunk)
	return nil
}

// printChunk disassembles chunk and every function constant it reaches,
// recursively, so `disasm` shows nested closures' bodies too.
func printChunk(name string, chunk *bytecode.Chunk) {
	debugdump.Code(os.Stdout, name, chunk, closureUpvalueBytes(chunk))

	for _, c := range chunk.Constants {
		if fn, ok := c.Obj.(*object.Function); ok {
			fmt.Println()
			printChunk(name+"::"+fn.Name, fn.Chunk)
		}
	}
}

// closureUpvalueBytes returns the extraOperandBytes callback Chunk.Iterate
// needs at each OP_CLOSURE site: 2 bytes per upvalue (isLocal + index) for
// the function the constant pool slot just after the opcode names.
func closureUpvalueBytes(chunk *bytecode.Chunk) func(offset int) int {
	return func(offset int) int {
		idx := chunk.ReadUint16(offset + 1)
		fn, ok := chunk.Constants[idx].Obj.(*object.Function)
		if !ok {
			return 0
		}
		return fn.UpvalueCount * 2
	}
}
