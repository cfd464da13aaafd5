// Package shape implements hidden-class (shape) based property storage for
// object instances, the same mechanism production JS/Ruby engines use to
// turn dictionary-style property access into fixed-offset slot access: two
// instances that have gone through the same sequence of property additions
// share one Shape, and every inline cache attached to a GET/SET call site
// can validate "is this object still wearing the shape I compiled against"
// with a single pointer comparison.
package shape

// Kind classifies what a Shape transition or inline-cache slot refers to.
type Kind uint8

const (
	KindIVar  Kind = iota // instance variable slot
	KindCVar              // class variable slot
	KindGVal              // immutable global
	KindGVar              // mutable global
	KindMethod            // method table entry
)

// Shape is one node in the hidden-class transition tree. The root Shape (no
// fields yet) is shared by every freshly allocated instance of a class;
// adding a field walks (or creates) an edge to a child Shape that adds
// exactly one slot.
type Shape struct {
	parent   *Shape
	addedKey string
	slot     int // index of addedKey within Slots()
	children map[string]*Shape
	count    int // number of slots from the root down to and including this shape
}

// Root returns a fresh empty Shape with no property slots, the shape every
// newly constructed instance of a class starts from.
func Root() *Shape {
	return &Shape{}
}

// NumSlots reports how many property slots an instance wearing this Shape
// has allocated.
func (s *Shape) NumSlots() int { return s.count }

// Lookup reports the slot index for key within this Shape's lineage, if any
// ancestor-or-self transition added it.
func (s *Shape) Lookup(key string) (int, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.addedKey == key {
			return cur.slot, true
		}
	}
	return 0, false
}

// Transition returns the Shape reached by adding key, creating and caching
// a new child Shape the first time this exact transition is taken from s
// (matching the usual hidden-class memoization: two instances that add
// fields in the same order converge back onto one shared Shape tree).
func (s *Shape) Transition(key string) *Shape {
	if _, exists := s.Lookup(key); exists {
		return s
	}
	if s.children == nil {
		s.children = make(map[string]*Shape)
	}
	if child, ok := s.children[key]; ok {
		return child
	}
	child := &Shape{
		parent:   s,
		addedKey: key,
		slot:     s.count,
		count:    s.count + 1,
	}
	s.children[key] = child
	return child
}

// Keys returns every property name in slot order, root to leaf.
func (s *Shape) Keys() []string {
	keys := make([]string, s.count)
	for cur := s; cur != nil && cur.parent != nil; cur = cur.parent {
		keys[cur.slot] = cur.addedKey
	}
	return keys
}

// InlineCacheEntry is what a compiled GET/SET/CALL site caches between
// executions: the Shape it last saw, the kind of access, and the resolved
// slot or method so a cache hit skips the full property lookup.
type InlineCacheEntry struct {
	Shape *Shape
	Kind  Kind
	Slot  int
}

// Matches reports whether this cache entry is still valid for an object
// wearing shape s — the single pointer comparison that makes inline caches
// cheap.
func (e *InlineCacheEntry) Matches(s *Shape) bool {
	return e.Shape == s
}

// Fill populates the cache entry after a (necessarily slower) full lookup,
// so the next execution of the same call site hits Matches and skips
// straight to the slot.
func (e *InlineCacheEntry) Fill(s *Shape, kind Kind, slot int) {
	e.Shape = s
	e.Kind = kind
	e.Slot = slot
}
