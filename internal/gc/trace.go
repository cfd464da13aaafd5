package gc

import (
	"github.com/vela-lang/vela/internal/object"
	"github.com/vela-lang/vela/internal/value"
)

// header returns the embedded object.Header for any heap type this
// collector manages, or nil for something it doesn't (a bare Go value, or
// a heap type that legitimately has no GC-visible header, like
// *object.StringTable itself). Every concrete object.* type that carries a
// Header is listed here; adding a new one without a case here means Track
// silently stops charging it against the arena, which is exactly the kind
// of omission this package's doc comment warns about.
func header(obj interface{}) *object.Header {
	switch v := obj.(type) {
	case *object.Array:
		return &v.Header
	case *object.Dictionary:
		return &v.Header
	case *object.Entry:
		return &v.Header
	case *object.String:
		return &v.Header
	case *object.Range:
		return &v.Header
	case *object.Node:
		return &v.Header
	case *object.Instance:
		return &v.Header
	case *object.ValueInstance:
		return &v.Header
	case *object.Class:
		return &v.Header
	case *object.Closure:
		return &v.Header
	case *object.Upvalue:
		return &v.Header
	case *object.Function:
		return &v.Header
	case *object.NativeFunction:
		return &v.Header
	case *object.NativeMethod:
		return &v.Header
	case *object.BoundMethod:
		return &v.Header
	case *object.Generator:
		return &v.Header
	case *object.Promise:
		return &v.Header
	case *object.Timer:
		return &v.Header
	case *object.Exception:
		return &v.Header
	case *object.Frame:
		return &v.Header
	case *object.Namespace:
		return &v.Header
	case *object.Module:
		return &v.Header
	case *object.File:
		return &v.Header
	case *object.Record:
		return &v.Header
	default:
		return nil
	}
}

// children returns every Value obj directly references — the edges mark
// walks outward along from the grey worklist. An object's Class (if any)
// is pushed separately by mark itself, since Header.Class is common to
// every case below rather than something each one has to repeat.
func children(obj interface{}) []value.Value {
	switch v := obj.(type) {
	case *object.Array:
		return v.Elements
	case *object.Dictionary:
		entries := v.Entries()
		out := make([]value.Value, 0, len(entries)*2)
		for _, e := range entries {
			out = append(out, e.Key, e.Value)
		}
		return out
	case *object.Entry:
		return []value.Value{v.Key, v.Value}
	case *object.Node:
		out := []value.Value{v.Elem}
		if v.Next != nil {
			out = append(out, value.Object(v.Next))
		}
		if v.Prev != nil {
			out = append(out, value.Object(v.Prev))
		}
		return out
	case *object.Instance:
		return v.Slots
	case *object.ValueInstance:
		return append(append([]value.Value(nil), v.Slots...), v.Wrapped)
	case *object.Class:
		out := make([]value.Value, 0, len(v.Methods)+len(v.ClassVars)+len(v.Traits)+2)
		for _, m := range v.Methods {
			out = append(out, m)
		}
		out = append(out, v.ClassVars...)
		for _, t := range v.Traits {
			out = append(out, value.Object(t))
		}
		if v.Superclass != nil {
			out = append(out, value.Object(v.Superclass))
		}
		if v.Metaclass != nil {
			out = append(out, value.Object(v.Metaclass))
		}
		return out
	case *object.Closure:
		out := make([]value.Value, 0, len(v.Upvalues)+2)
		if v.Function != nil {
			out = append(out, value.Object(v.Function))
		}
		for _, u := range v.Upvalues {
			if u != nil {
				out = append(out, value.Object(u))
			}
		}
		if v.Module != nil {
			out = append(out, value.Object(v.Module))
		}
		return out
	case *object.Upvalue:
		return []value.Value{v.Get()}
	case *object.Function:
		if v.Chunk == nil {
			return nil
		}
		return v.Chunk.Constants
	case *object.NativeMethod:
		if v.Owner != nil {
			return []value.Value{value.Object(v.Owner)}
		}
		return nil
	case *object.BoundMethod:
		return []value.Value{v.Receiver, v.Method}
	case *object.Generator:
		out := make([]value.Value, 0, 4)
		if v.Frame != nil {
			out = append(out, value.Object(v.Frame))
		}
		out = append(out, v.LastYielded)
		if v.Outer != nil {
			out = append(out, value.Object(v.Outer))
		}
		if v.Inner != nil {
			out = append(out, value.Object(v.Inner))
		}
		return out
	case *object.Promise:
		out := []value.Value{v.Value, v.Reason, v.Executor}
		for _, cont := range v.Continuations {
			out = append(out, cont.OnFulfilled, cont.OnRejected)
			if cont.Result != nil {
				out = append(out, value.Object(cont.Result))
			}
		}
		out = append(out, v.CatchHooks...)
		out = append(out, v.FinallyHooks...)
		if v.Capture != nil {
			out = append(out, value.Object(v.Capture))
		}
		return out
	case *object.Timer:
		return []value.Value{v.Callback}
	case *object.Frame:
		out := make([]value.Value, 0, len(v.Slots)+1)
		if v.Closure != nil {
			out = append(out, value.Object(v.Closure))
		}
		out = append(out, v.Slots...)
		return out
	case *object.Namespace:
		out := make([]value.Value, 0, len(v.Values)+1)
		for _, val := range v.Values {
			out = append(out, val)
		}
		if v.Enclosing != nil {
			out = append(out, value.Object(v.Enclosing))
		}
		return out
	case *object.Module:
		out := make([]value.Value, 0, len(v.Immutable)+len(v.Mutable)+1)
		for _, val := range v.Immutable {
			out = append(out, val)
		}
		for _, val := range v.Mutable {
			out = append(out, val)
		}
		if v.TopLevel != nil {
			out = append(out, value.Object(v.TopLevel))
		}
		return out
	default:
		return nil
	}
}

// mark runs a tri-color (white/grey/black) worklist trace from roots:
// every unvisited object starts white, is painted grey the moment it is
// discovered and pushed onto the worklist, and turns black once its
// children have all been pushed in turn. universe restricts which objects
// actually get marked/returned (a minor collection's universe is just the
// young generation's tracked objects) while still letting the walk pass
// through objects outside it (an old-generation closure reached from a
// root, say) to reach young objects nested beneath them.
func mark(roots []value.Value, universe map[interface{}]uint64) map[interface{}]bool {
	reached := make(map[interface{}]bool)
	visited := make(map[interface{}]bool)
	var grey []interface{}

	push := func(v value.Value) {
		if !v.IsObject() || v.Obj == nil {
			return
		}
		if visited[v.Obj] {
			return
		}
		visited[v.Obj] = true
		if _, inUniverse := universe[v.Obj]; inUniverse {
			reached[v.Obj] = true
			if h := header(v.Obj); h != nil {
				h.Marked = true
			}
		}
		grey = append(grey, v.Obj)
	}

	for _, r := range roots {
		push(r)
	}
	for len(grey) > 0 {
		obj := grey[len(grey)-1]
		grey = grey[:len(grey)-1]
		if h := header(obj); h != nil && h.Class != nil {
			push(value.Object(h.Class))
		}
		for _, child := range children(obj) {
			push(child)
		}
	}
	return reached
}

// sweep removes every tracked object in objs that mark did not reach,
// returning its accounted bytes to arena, and clears the mark bit on every
// survivor so the next collection starts from white again.
func sweep(objs map[interface{}]uint64, arena *arena, reached map[interface{}]bool) uint64 {
	var reclaimed uint64
	for obj, size := range objs {
		if reached[obj] {
			if h := header(obj); h != nil {
				h.Marked = false
			}
			continue
		}
		delete(objs, obj)
		arena.release(size)
		reclaimed += size
	}
	return reclaimed
}
