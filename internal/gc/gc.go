// Package gc implements the Language's generational, precise garbage
// collector: a young and an old generation, each a byte-budgeted arena
// reserved via github.com/edsrzf/mmap-go so each generation's arena is
// backed by real OS-mapped pages rather than a plain
// make([]byte, ...) slice (the one place mmap gives genuine behavior over
// a slice: the reservation is a real address-space commitment, not just an
// accounting number). Collection itself is a tri-color mark/sweep pass:
// live objects are discovered with a grey worklist starting from the VM's
// roots, then every untouched object in the generation being collected is
// swept and its bytes returned to that generation's arena.
//
// This collector is precise, not conservative: every heap type the object
// package defines has to be taught to this package's header/children
// functions (trace.go) before it can be allocated through Track and
// correctly kept alive. A type present in internal/object but missing
// from trace.go is a real bug, not a conservative-scan fallback.
package gc

import (
	"errors"

	"github.com/vela-lang/vela/internal/object"
	"github.com/vela-lang/vela/internal/value"
)

// ErrOutOfMemory is returned by Track when the generation an allocation
// would land in has no room left.
var ErrOutOfMemory = errors.New("gc: allocation exceeds generation limit")

const (
	// DefaultYoungLimit is the young generation's byte budget (2 MiB):
	// most objects die young, so this generation is collected often and
	// kept small.
	DefaultYoungLimit uint64 = 2 * 1024 * 1024

	// DefaultOldLimit is the old (tenured) generation's byte budget
	// (16 MiB), collected only when it fills or a minor collection can't
	// find room to promote a survivor into it.
	DefaultOldLimit uint64 = 16 * 1024 * 1024

	// baseObjectSize is the flat per-object accounting cost charged
	// against a generation's arena before any variable-length payload
	// (Array elements, Instance slots, ...) is added; it stands in for Go's
	// own allocation header/bookkeeping overhead, which Track cannot
	// measure directly since this collector does not itself own the bytes
	// backing a Go struct.
	baseObjectSize uint64 = 48

	// wordSize is the accounting cost of one value.Value-shaped field.
	wordSize uint64 = 16
)

// Generation tags which arena an object currently lives in; it is stored
// back into object.Header.Generation, so property/method dispatch code
// that only cares about identity never needs to import this package.
const (
	GenYoung uint8 = iota
	GenOld
)

// Stats reports what the most recent Collect call did, useful for
// debugdump and for tests asserting a collection actually reclaimed
// something instead of silently no-oping.
type Stats struct {
	Marked    int
	Swept     int
	Promoted  int
	Reclaimed uint64
}

// Collector is the generational allocator plus collector for one VM
// instance. The zero value is not usable; use New.
type Collector struct {
	young *arena
	old   *arena

	youngObjs map[interface{}]uint64
	oldObjs   map[interface{}]uint64

	remembered *rememberedSet

	minorThreshold uint64
	majorThreshold uint64

	LastMinor Stats
	LastMajor Stats
}

// New creates a Collector with the given per-generation byte budgets (0
// selects the package defaults).
func New(youngLimit, oldLimit uint64) *Collector {
	if youngLimit == 0 {
		youngLimit = DefaultYoungLimit
	}
	if oldLimit == 0 {
		oldLimit = DefaultOldLimit
	}
	return &Collector{
		young:          newArena(youngLimit),
		old:            newArena(oldLimit),
		youngObjs:      make(map[interface{}]uint64),
		oldObjs:        make(map[interface{}]uint64),
		remembered:     newRememberedSet(),
		minorThreshold: youngLimit * 3 / 4,
		majorThreshold: oldLimit * 3 / 4,
	}
}

// Close releases the generations' mmap'd arenas. Safe to call once the
// owning VM is done; a Collector is not usable afterward.
func (c *Collector) Close() {
	c.young.close()
	c.old.close()
}

// Track registers a freshly allocated heap object with the collector,
// charging its estimated size against the young generation's arena. obj
// must be a pointer to one of the concrete types header/children (in
// trace.go) recognize; anything else is a no-op (a deliberate permissive
// default so callers never need a type assertion before tracking).
func (c *Collector) Track(obj interface{}) error {
	h := header(obj)
	if h == nil {
		return nil
	}
	size := sizeOf(obj)
	if err := c.young.reserve(size); err != nil {
		return err
	}
	h.Generation = GenYoung
	c.youngObjs[obj] = size
	return nil
}

// WriteBarrier must be called whenever a field/slot/upvalue on holder is
// set to newVal. It is a no-op unless holder is an old-generation object
// and newVal is a young-generation object — the one case a minor
// collection cannot discover on its own by walking only the VM's roots,
// since an old object is not itself a root. The Bloom filter is a cheap
// probably-already-recorded prefilter in front of the exact set so a hot
// field that is rewritten every iteration doesn't pay a map write every
// time once it has been recorded once.
func (c *Collector) WriteBarrier(holder interface{}, newVal value.Value) {
	if !newVal.IsObject() {
		return
	}
	oh := header(holder)
	if oh == nil || oh.Generation != GenOld {
		return
	}
	rh := header(newVal.Obj)
	if rh == nil || rh.Generation != GenYoung {
		return
	}
	c.remembered.markDirty(holder)
}

// NeedsMinor reports whether the young generation has crossed its
// collection threshold.
func (c *Collector) NeedsMinor() bool { return c.young.used >= c.minorThreshold }

// NeedsMajor reports whether the old generation has crossed its
// collection threshold.
func (c *Collector) NeedsMajor() bool { return c.old.used >= c.majorThreshold }

// MinorCollect traces the young generation from roots plus every
// old-generation object the write barrier marked dirty (the remembered
// set stands in for those old objects' outgoing edges without re-walking
// the whole old generation), sweeps unreached young objects, and promotes
// every young object that survived into the old generation; a survivor the
// old generation has no room for stays young.
func (c *Collector) MinorCollect(roots []value.Value) Stats {
	extraRoots := make([]value.Value, 0, len(c.remembered.dirty))
	for holder := range c.remembered.dirty {
		if obj, ok := holder.(value.Obj); ok {
			extraRoots = append(extraRoots, value.Object(obj))
		}
	}
	reached := mark(append(append([]value.Value(nil), roots...), extraRoots...), c.youngObjs)

	swept := 0
	for obj := range c.youngObjs {
		if !reached[obj] {
			swept++
		}
	}
	reclaimed := sweep(c.youngObjs, c.young, reached)

	promoted := 0
	for obj := range reached {
		size, ok := c.youngObjs[obj]
		if !ok {
			continue // reached but not a young object (an old root we walked through)
		}
		if err := c.old.reserve(size); err != nil {
			continue // no room in the old generation; the survivor stays young
		}
		delete(c.youngObjs, obj)
		c.young.release(size)
		c.oldObjs[obj] = size
		if h := header(obj); h != nil {
			h.Generation = GenOld
		}
		promoted++
	}

	c.remembered.clear()
	stats := Stats{Marked: len(reached), Swept: swept, Promoted: promoted, Reclaimed: reclaimed}
	c.LastMinor = stats
	return stats
}

// MajorCollect traces the entire heap (both generations) from roots alone
// — the remembered set is irrelevant here since nothing is being skipped
// — and sweeps unreached objects out of whichever generation they live in.
func (c *Collector) MajorCollect(roots []value.Value) Stats {
	universe := make(map[interface{}]uint64, len(c.youngObjs)+len(c.oldObjs))
	for k, v := range c.youngObjs {
		universe[k] = v
	}
	for k, v := range c.oldObjs {
		universe[k] = v
	}
	reached := mark(roots, universe)

	reclaimedYoung := sweep(c.youngObjs, c.young, reached)
	reclaimedOld := sweep(c.oldObjs, c.old, reached)

	c.remembered.clear()
	stats := Stats{
		Marked:    len(reached),
		Swept:     (len(universe) - len(reached)),
		Reclaimed: reclaimedYoung + reclaimedOld,
	}
	c.LastMajor = stats
	return stats
}

// sizeOf estimates an object's accounting cost: a flat per-object base
// plus one word per Value-shaped field it owns. This is deliberately
// approximate — the collector enforces a logical byte budget on the
// language's heap, not Go's actual allocator bookkeeping.
func sizeOf(obj interface{}) uint64 {
	switch v := obj.(type) {
	case *object.Array:
		return baseObjectSize + uint64(len(v.Elements))*wordSize
	case *object.Dictionary:
		return baseObjectSize + uint64(v.Len())*wordSize*2
	case *object.Instance:
		return baseObjectSize + uint64(len(v.Slots))*wordSize
	case *object.Closure:
		return baseObjectSize + uint64(len(v.Upvalues))*8
	case *object.Frame:
		return baseObjectSize + uint64(len(v.Slots))*wordSize
	case *object.Class:
		return baseObjectSize + uint64(len(v.Methods))*wordSize + uint64(len(v.ClassVars))*wordSize
	default:
		return baseObjectSize
	}
}
