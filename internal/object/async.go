package object

import "github.com/vela-lang/vela/internal/value"

// GeneratorState tracks where a generator is in its suspend/resume
// lifecycle.
type GeneratorState uint8

const (
	GeneratorStart GeneratorState = iota
	GeneratorResume
	GeneratorYield
	GeneratorReturn
	GeneratorError
	GeneratorThrow
)

func (s GeneratorState) String() string {
	switch s {
	case GeneratorStart:
		return "START"
	case GeneratorResume:
		return "RESUME"
	case GeneratorYield:
		return "YIELD"
	case GeneratorReturn:
		return "RETURN"
	case GeneratorError:
		return "ERROR"
	case GeneratorThrow:
		return "THROW"
	default:
		return "UNKNOWN"
	}
}

// Generator is a suspended call frame plus its lifecycle state. Outer/Inner
// link a `yield from` chain: Outer is the generator that delegated into
// this one, Inner is the generator this one is currently delegating into
// (nil unless a yield-from is in progress).
type Generator struct {
	Header
	Frame       *Frame
	State       GeneratorState
	LastYielded value.Value
	Outer       *Generator
	Inner       *Generator
}

func NewGenerator(frame *Frame) *Generator {
	return &Generator{Frame: frame, State: GeneratorStart}
}

func (g *Generator) Type() string { return "Generator" }

// PromiseState is a Promise's settlement state, which may only move
// PENDING -> FULFILLED or PENDING -> REJECTED, never back.
type PromiseState uint8

const (
	PromisePending PromiseState = iota
	PromiseFulfilled
	PromiseRejected
)

// Continuation is one `.then(onFulfilled, onRejected)` registration
// awaiting the Promise's eventual settlement.
type Continuation struct {
	OnFulfilled value.Value
	OnRejected  value.Value
	Result      *Promise // the Promise returned by .then, settled from this continuation
}

// Promise is the Language's async primitive: a settlement state, the
// settled value or rejection reason, any pending continuations, and
// finally hooks (`.finally` callbacks, run at settlement). `.catch` is a
// continuation with its fulfilled side left nil, so the VM leaves
// CatchHooks empty. Capture is a free-form bag the event loop and
// native async operations use to stash context (e.g. a timer handle)
// between scheduling and settlement.
type Promise struct {
	Header
	State         PromiseState
	Value         value.Value
	Reason        value.Value
	Executor      value.Value
	Continuations []Continuation
	CatchHooks    []value.Value
	FinallyHooks  []value.Value
	Capture       *Dictionary
}

func NewPromise(executor value.Value) *Promise {
	return &Promise{Executor: executor, Capture: NewDictionary()}
}

func (p *Promise) Type() string { return "Promise" }

func (p *Promise) ID() int64 { return p.StableID() }

func (p *Promise) IsSettled() bool { return p.State != PromisePending }

// Resolve fulfills the promise if it is still pending; resolving an
// already-settled promise is a no-op (matching standard Promise
// semantics: the first settlement wins).
func (p *Promise) Resolve(v value.Value) bool {
	if p.State != PromisePending {
		return false
	}
	p.State = PromiseFulfilled
	p.Value = v
	return true
}

func (p *Promise) Reject(reason value.Value) bool {
	if p.State != PromisePending {
		return false
	}
	p.State = PromiseRejected
	p.Reason = reason
	return true
}

// Timer is a scheduled or repeating callback handle owned by the event
// loop. Interval of 0 marks a one-shot timer; non-zero reschedules
// Callback every Interval milliseconds after the first Delay elapses.
type Timer struct {
	Header
	Callback value.Value
	Delay    int64
	Interval int64
	Active   bool
}

func NewTimer(callback value.Value, delay, interval int64) *Timer {
	return &Timer{Callback: callback, Delay: delay, Interval: interval, Active: true}
}

func (t *Timer) Type() string { return "Timer" }

func (t *Timer) Handle() int64 { return t.StableID() }
