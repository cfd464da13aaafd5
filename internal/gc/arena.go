package gc

import "github.com/edsrzf/mmap-go"

// arena is a byte-budgeted reservation backing one generation. It does not
// itself hold the Go objects the collector tracks — those still live on
// Go's own heap, since relocating arbitrary Go structs into raw mapped
// bytes would require unsafe tricks this collector does not take. The
// mmap'd region is a real anonymous mapping of limit bytes, but reserve and
// release enforce the limit through the used counter alone; nothing is
// stored in the mapped bytes.
type arena struct {
	mem   mmap.MMap
	limit uint64
	used  uint64
}

// newArena reserves an anonymous mapping of limit bytes. A platform that
// cannot satisfy the mapping (e.g. a sandboxed environment with mmap
// disabled) still gets a working arena: used/limit accounting continues to
// work, it just isn't backed by committed pages, a deliberately graceful
// degradation rather than a startup failure.
func newArena(limit uint64) *arena {
	mem, err := mmap.MapRegion(nil, int(limit), mmap.RDWR, mmap.ANON, 0)
	if err != nil {
		return &arena{limit: limit}
	}
	return &arena{mem: mem, limit: limit}
}

func (a *arena) reserve(size uint64) error {
	if a.used+size > a.limit {
		return ErrOutOfMemory
	}
	a.used += size
	return nil
}

func (a *arena) release(size uint64) {
	if size > a.used {
		a.used = 0
		return
	}
	a.used -= size
}

func (a *arena) close() {
	if a.mem != nil {
		_ = a.mem.Unmap()
		a.mem = nil
	}
}
