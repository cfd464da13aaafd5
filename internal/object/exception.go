package object

import "github.com/vela-lang/vela/internal/value"

// StackFrameInfo is one entry in an Exception's captured stack trace,
// assembled by walking live VM frames at throw time.
type StackFrameInfo struct {
	FunctionName string
	Line         int
}

// Exception is a thrown user-level error: a message and the stack trace
// captured when it was thrown. It implements Go's error interface so a
// native function can return one directly as a NativeFn error result.
type Exception struct {
	Header
	Message    string
	StackTrace []StackFrameInfo
}

func NewException(class *Class, message string) *Exception {
	return &Exception{Header: Header{Class: class}, Message: message}
}

func (e *Exception) Type() string { return "Exception" }

func (e *Exception) Error() string { return e.Message }

// HandlerEntry is one TRY block's reserved operand, decoded: the class an
// incoming exception must be an instance of to match, and the addresses to
// jump to for the handler and (if present) the finally block. StackDepth is
// the frame-relative stack height at the moment TRY registered the handler,
// before it pushed its own placeholder slot: unwinding to a matched handler
// truncates the stack to StackDepth and pushes the exception value there,
// so it occupies the same slot the catch clause's bound name resolves to.
type HandlerEntry struct {
	ExceptionClass *Class
	HandlerAddr    int
	FinallyAddr    int
	StackDepth     int
}

// Frame is a saved call frame: a closure, instruction pointer, a snapshot
// of the live stack slots at save time, and the exception-handler
// substack. The interpreter uses this to suspend a generator or async
// function body and later resume it exactly where it left off.
type Frame struct {
	Header
	Closure  *Closure
	IP       int
	Base     int // index into the VM's shared stack where slot 0 lives, while running
	Slots    []value.Value
	Handlers []HandlerEntry

	// ResultPromise is the Promise an async function's frame settles once
	// its body finishes (or throws), and what `await` on an incomplete
	// frame must locate to attach a resumption. Nil on an ordinary or
	// generator frame.
	ResultPromise *Promise
}

func NewFrame(closure *Closure) *Frame {
	return &Frame{Closure: closure}
}

func (f *Frame) Type() string { return "Frame" }

func (f *Frame) PushHandler(h HandlerEntry) {
	f.Handlers = append(f.Handlers, h)
}

func (f *Frame) PopHandler() (HandlerEntry, bool) {
	if len(f.Handlers) == 0 {
		return HandlerEntry{}, false
	}
	h := f.Handlers[len(f.Handlers)-1]
	f.Handlers = f.Handlers[:len(f.Handlers)-1]
	return h, true
}
