package gc

import (
	"encoding/binary"
	"reflect"

	"github.com/cespare/xxhash/v2"
	bloom "github.com/holiman/bloomfilter/v2"
)

// remembered-set sizing: a few thousand entries is generous for the
// number of old-generation objects expected to be dirtied between two
// minor collections; k=4 hash functions is the usual bloomfilter/v2
// default for this scale.
const (
	filterBits   = 1 << 16
	filterHashes = 4
)

// rememberedSet tracks which old-generation objects currently hold a
// pointer into the young generation, the classic generational-GC
// "remembered set" a minor collection consults instead of re-walking the
// whole old generation on every cycle. The Bloom filter sits in front of
// the exact set purely as a fast negative check on the write-barrier hot
// path; every positive the filter reports is always confirmed (or, on the
// rare false positive, harmlessly re-added) against the exact map, so the
// remembered set's own observable contents are always exact.
type rememberedSet struct {
	filter *bloom.Filter
	dirty  map[interface{}]struct{}
}

func newRememberedSet() *rememberedSet {
	filter, err := bloom.New(filterBits, filterHashes)
	if err != nil {
		// A misconfigured filter (bad size) degrades to "always report a
		// possible match," which just means the write barrier always
		// falls through to the exact set below — still correct, just
		// without the fast-path skip.
		filter = nil
	}
	return &rememberedSet{filter: filter, dirty: make(map[interface{}]struct{})}
}

func (r *rememberedSet) markDirty(holder interface{}) {
	h := ptrHash(holder)
	if r.filter != nil {
		if r.filter.Contains(h) {
			if _, ok := r.dirty[holder]; ok {
				return // already recorded; skip the map write
			}
		} else {
			r.filter.Add(h)
		}
	}
	r.dirty[holder] = struct{}{}
}

func (r *rememberedSet) clear() {
	r.dirty = make(map[interface{}]struct{})
	if r.filter != nil {
		r.filter.Clear()
	}
}

// ptrHash hashes a heap object's identity (its pointer value) through
// xxhash, the same hash function internal/strtable uses for interned
// strings, so the collector and the interner share one hashing idiom
// rather than reaching for a second one here.
func ptrHash(obj interface{}) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(reflect.ValueOf(obj).Pointer()))
	return xxhash.Sum64(buf[:])
}
