package object

import "os"

// File is a handle to an open (or previously open) file as seen by user
// code: path, mode string (`"r"`, `"w"`, `"a"`, ...), open/closed flag, and
// a byte offset tracked independently of the OS handle's own cursor so
// File.seek can be implemented without relying on os.File internals.
type File struct {
	Header
	Path   string
	Mode   string
	IsOpen bool
	Offset int64
	Handle *os.File
}

func NewFile(path, mode string) *File {
	return &File{Path: path, Mode: mode}
}

func (f *File) Type() string { return "File" }

// Record wraps an opaque Go value behind the object model, the home for
// embedded-collaborator state (a parsed URL, an RNG handle, a decoded
// config struct) that the native layer needs to carry around as a Value
// without exposing its shape to the interpreter.
type Record struct {
	Header
	Data interface{}
}

func NewRecord(data interface{}) *Record {
	return &Record{Data: data}
}

func (r *Record) Type() string { return "Record" }
