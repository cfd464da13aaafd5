// Package iolib is the native-function catalog for the IO namespace:
// free functions over object.File, grounded on the reference
// implementation's BinaryReadStream/BinaryWriteStream natives
// (src/std/io.c) collapsed from stream classes into a handful of
// open/close/readAll/readLine/write/exists/remove functions, the same
// simplification stdlib/
// mathlib already applies to std/util.c's trig/rounding natives.
package iolib

import (
	"fmt"
	"io"
	"os"

	"github.com/vela-lang/vela/internal/native"
	"github.com/vela-lang/vela/internal/object"
	"github.com/vela-lang/vela/internal/value"
)

// Register installs every IO.* free function into module, the binding
// table a `require "IO"` resolves to (see internal/modloader).
func Register(m native.Registrar) {
	native.Function(m, "open", 2, func(ivm object.VM, args []value.Value) (value.Value, error) {
		path, err := native.CheckString("IO.open", args, 0)
		if err != nil {
			return value.Nil, err
		}
		mode, err := native.CheckString("IO.open", args, 1)
		if err != nil {
			return value.Nil, err
		}
		flag, perm, err := openFlags(mode)
		if err != nil {
			return value.Nil, fmt.Errorf("method IO.open expects argument 2 to be one of \"r\", \"w\", \"a\": %w", err)
		}
		handle, err := os.OpenFile(path, flag, perm)
		if err != nil {
			return value.Nil, fmt.Errorf("IO.open: %w", err)
		}
		file := object.NewFile(path, mode)
		file.Handle = handle
		file.IsOpen = true
		if err := ivm.Track(file); err != nil {
			return value.Nil, err
		}
		return value.Object(file), nil
	})

	native.Function(m, "close", 1, func(_ object.VM, args []value.Value) (value.Value, error) {
		f, err := checkFile("IO.close", args, 0)
		if err != nil {
			return value.Nil, err
		}
		if !f.IsOpen {
			return value.Nil, nil
		}
		f.IsOpen = false
		return value.Nil, f.Handle.Close()
	})

	native.Function(m, "readAll", 1, func(ivm object.VM, args []value.Value) (value.Value, error) {
		f, err := checkFile("IO.readAll", args, 0)
		if err != nil {
			return value.Nil, err
		}
		if !f.IsOpen {
			return value.Nil, fmt.Errorf("IO.readAll: file %q is not open", f.Path)
		}
		if _, err := f.Handle.Seek(f.Offset, io.SeekStart); err != nil {
			return value.Nil, err
		}
		data, err := io.ReadAll(f.Handle)
		if err != nil {
			return value.Nil, err
		}
		f.Offset += int64(len(data))
		return value.Object(ivm.Intern(string(data))), nil
	})

	native.Function(m, "readLine", 1, func(ivm object.VM, args []value.Value) (value.Value, error) {
		f, err := checkFile("IO.readLine", args, 0)
		if err != nil {
			return value.Nil, err
		}
		if !f.IsOpen {
			return value.Nil, fmt.Errorf("IO.readLine: file %q is not open", f.Path)
		}
		if _, err := f.Handle.Seek(f.Offset, io.SeekStart); err != nil {
			return value.Nil, err
		}
		var line []byte
		buf := make([]byte, 1)
		for {
			n, err := f.Handle.Read(buf)
			if n > 0 {
				f.Offset++
				if buf[0] == '\n' {
					break
				}
				line = append(line, buf[0])
			}
			if err != nil {
				if err == io.EOF && len(line) == 0 {
					return value.Nil, nil
				}
				break
			}
		}
		return value.Object(ivm.Intern(string(line))), nil
	})

	native.Function(m, "write", 2, func(_ object.VM, args []value.Value) (value.Value, error) {
		f, err := checkFile("IO.write", args, 0)
		if err != nil {
			return value.Nil, err
		}
		data, err := native.CheckString("IO.write", args, 1)
		if err != nil {
			return value.Nil, err
		}
		if !f.IsOpen {
			return value.Nil, fmt.Errorf("IO.write: file %q is not open", f.Path)
		}
		n, err := f.Handle.WriteString(data)
		if err != nil {
			return value.Nil, err
		}
		f.Offset += int64(n)
		return value.Int(int64(n)), nil
	})

	native.Function(m, "exists", 1, func(_ object.VM, args []value.Value) (value.Value, error) {
		path, err := native.CheckString("IO.exists", args, 0)
		if err != nil {
			return value.Nil, err
		}
		_, statErr := os.Stat(path)
		return value.Bool(statErr == nil), nil
	})

	native.Function(m, "remove", 1, func(_ object.VM, args []value.Value) (value.Value, error) {
		path, err := native.CheckString("IO.remove", args, 0)
		if err != nil {
			return value.Nil, err
		}
		return value.Nil, os.Remove(path)
	})
}

func checkFile(method string, args []value.Value, index int) (*object.File, error) {
	if index >= len(args) || !args[index].IsObject() {
		return nil, fmt.Errorf("method %s expects argument %d to be a File", method, index+1)
	}
	f, ok := args[index].Obj.(*object.File)
	if !ok {
		return nil, fmt.Errorf("method %s expects argument %d to be a File", method, index+1)
	}
	return f, nil
}

func openFlags(mode string) (int, os.FileMode, error) {
	switch mode {
	case "r":
		return os.O_RDONLY, 0, nil
	case "w":
		return os.O_WRONLY | os.O_CREATE | os.O_TRUNC, 0644, nil
	case "a":
		return os.O_WRONLY | os.O_CREATE | os.O_APPEND, 0644, nil
	default:
		return 0, 0, fmt.Errorf("unknown mode %q", mode)
	}
}
