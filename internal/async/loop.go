// Package async implements the Language's cooperative event loop: a
// virtual-time timer queue plus a microtask queue for promise-continuation
// dispatch, the two pieces that let `setTimeout`, `await`, and
// `Promise.all`/`Promise.race` actually suspend and resume instead of
// running a callback's body synchronously the moment it is scheduled.
//
// Time inside the loop is virtual and monotonic: Schedule takes a delay in
// milliseconds relative to the loop's own clock, not the wall clock, so a
// program's timer behavior is exactly reproducible without ever sleeping a
// real goroutine. The one place real concurrency enters is Submit, which
// fans work out to a bounded pool of Go goroutines (via
// golang.org/x/sync/errgroup) for native operations that do real
// (non-virtual) work; a submitted job's result is only ever handed back to
// the loop's single owning goroutine through Run, which is the only place
// VM state is ever touched — the cooperative single-threaded model the
// rest of the interpreter assumes is never violated.
package async

import (
	"container/heap"
	"context"

	"golang.org/x/sync/errgroup"
)

// Task is a zero-argument callback the loop invokes on its own goroutine.
type Task func()

type timerEntry struct {
	deadline  uint64
	seq       uint64
	id        uint64
	repeat    uint64
	task      Task
	cancelled bool
}

// timerQueue is a classic container/heap min-heap ordered by deadline, with
// seq (assignment order) as the tiebreaker so two timers scheduled for the
// same virtual millisecond fire in the order they were scheduled.
type timerQueue []*timerEntry

func (q timerQueue) Len() int { return len(q) }
func (q timerQueue) Less(i, j int) bool {
	if q[i].deadline != q[j].deadline {
		return q[i].deadline < q[j].deadline
	}
	return q[i].seq < q[j].seq
}
func (q timerQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *timerQueue) Push(x interface{}) {
	*q = append(*q, x.(*timerEntry))
}
func (q *timerQueue) Pop() interface{} {
	old := *q
	n := len(old)
	e := old[n-1]
	*q = old[:n-1]
	return e
}

// Loop is one VM's event loop. The zero value is not usable; use NewLoop.
type Loop struct {
	clock   uint64
	queue   timerQueue
	entries map[uint64]*timerEntry
	seq     uint64
	nextID  uint64

	micro []Task

	results chan Task
	group   *errgroup.Group
	pending int
}

// DefaultWorkerLimit bounds how many Submit jobs may run concurrently; it
// mirrors errgroup's own SetLimit contract (a limit of -1 would mean
// unlimited, which this loop never wants for native fan-out).
const DefaultWorkerLimit = 8

func NewLoop() *Loop {
	g := &errgroup.Group{}
	g.SetLimit(DefaultWorkerLimit)
	return &Loop{
		entries: make(map[uint64]*timerEntry),
		results: make(chan Task, 64),
		group:   g,
	}
}

// Now returns the loop's current virtual clock reading, in milliseconds.
func (l *Loop) Now() uint64 { return l.clock }

// Schedule arranges for task to run after delayMs virtual milliseconds; a
// non-zero repeatMs reschedules it every repeatMs thereafter until
// Cancel'd. It returns a handle Cancel accepts.
func (l *Loop) Schedule(delayMs, repeatMs int64, task Task) uint64 {
	if delayMs < 0 {
		delayMs = 0
	}
	l.nextID++
	id := l.nextID
	e := &timerEntry{
		deadline: l.clock + uint64(delayMs),
		seq:      l.seq,
		id:       id,
		repeat:   uint64(repeatMs),
		task:     task,
	}
	l.seq++
	l.entries[id] = e
	heap.Push(&l.queue, e)
	return id
}

// Cancel disables a previously scheduled timer; it is safe to call after
// the timer has already fired or never existed.
func (l *Loop) Cancel(id uint64) bool {
	e, ok := l.entries[id]
	if !ok {
		return false
	}
	e.cancelled = true
	delete(l.entries, id)
	return true
}

// Microtask enqueues task to run before the loop advances to the next
// timer deadline, the same ordering guarantee promise-continuation
// dispatch depends on (a `.then` callback must run before any `setTimeout`
// scheduled after the promise settled, even a zero-delay one).
func (l *Loop) Microtask(task Task) {
	l.micro = append(l.micro, task)
}

// drainMicrotasks runs every queued microtask to completion, including ones
// a running microtask itself enqueues (the standard microtask-queue
// draining rule), before returning control to Run's main loop.
func (l *Loop) drainMicrotasks() {
	for len(l.micro) > 0 {
		task := l.micro[0]
		l.micro = l.micro[1:]
		task()
	}
}

// drainResults pulls every worker result currently available without
// blocking and runs each one (as a settlement callback) on the loop
// goroutine, then drains the microtasks that settlement enqueued.
func (l *Loop) drainResults() {
	for {
		select {
		case task := <-l.results:
			l.pending--
			task()
			l.drainMicrotasks()
		default:
			return
		}
	}
}

// Submit runs work on a goroutine bounded by the loop's worker pool (at
// most DefaultWorkerLimit concurrent at a time), then hands whatever Task
// work returns back to the loop to run on its own goroutine — typically a
// closure that settles the Promise the native caller is waiting on. work
// itself must not touch any VM/object state; only the Task it returns,
// once it runs inside Run, may do that.
func (l *Loop) Submit(work func() Task) {
	l.pending++
	l.group.Go(func() error {
		task := work()
		l.results <- task
		return nil
	})
}

// Idle reports whether the loop has nothing left to do: no pending timers,
// no outstanding worker submissions, and no queued microtasks.
func (l *Loop) Idle() bool {
	return len(l.queue) == 0 && l.pending == 0 && len(l.micro) == 0
}

// Run drives the loop until Idle: draining microtasks, firing due timers
// (advancing the virtual clock to each fired timer's own deadline, never
// further), and waiting on outstanding worker submissions when there is
// nothing else left to do but workers are still in flight.
func (l *Loop) Run() {
	l.drainMicrotasks()
	for !l.Idle() {
		l.drainResults()
		l.drainMicrotasks()

		if len(l.queue) == 0 {
			if l.pending == 0 {
				break
			}
			// Nothing timer-side to do; block for the next worker result
			// rather than busy-spinning.
			task := <-l.results
			l.pending--
			task()
			l.drainMicrotasks()
			continue
		}

		e := heap.Pop(&l.queue).(*timerEntry)
		if e.cancelled {
			continue
		}
		l.clock = e.deadline
		if e.repeat == 0 {
			delete(l.entries, e.id)
		}
		e.task()
		l.drainMicrotasks()
		if e.repeat > 0 && !e.cancelled {
			ne := &timerEntry{deadline: l.clock + e.repeat, seq: l.seq, id: e.id, repeat: e.repeat, task: e.task}
			l.seq++
			l.entries[e.id] = ne
			heap.Push(&l.queue, ne)
		}
	}
}

// Wait blocks until every worker submitted via Submit has finished,
// without running any of their result Tasks, or until ctx is done. No Loop
// method calls it; Run returns once Idle, which already implies no worker
// submission is outstanding.
func (l *Loop) Wait(ctx context.Context) error {
	done := make(chan error, 1)
	go func() { done <- l.group.Wait() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
