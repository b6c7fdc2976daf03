package vdom

import "reflect"

// Data is the bag of per-node information consumed by extension modules.
// A Data value must be created fresh for every render pass; sharing one
// across passes lets later mutations corrupt an already applied tree.
type Data struct {
	Is          any               // Overrides the tag passed to Build
	Key         any               // Reconciliation key
	Ref         string            // Ref name registered on the owning context
	RefInFor    bool              // Ref collects a slice (list rendering)
	Attrs       map[string]any    // Plain attributes
	StaticClass string            // Class string fixed at authoring time
	Class       any               // string, []string, map[string]bool or []any
	Style       map[string]string // Inline style properties
	On          map[string]any    // Event listeners
	Directives  []Directive       // Directive bindings, applied in order
	ScopedSlots map[string]any    // Scoped slot providers
	Props       Props             // Component props

	observed bool
}

// Directive is a single directive binding on a node.
type Directive struct {
	Name      string
	Value     any
	OldValue  any
	Arg       string
	Modifiers map[string]bool
}

// Observable is implemented by values owned by the reactive system.
// Build rejects data that reports itself as observed.
type Observable interface {
	IsObserved() bool
}

// MarkObserved flags d as shared reactive state. The reactive layer
// calls this when it adopts a Data value.
func (d *Data) MarkObserved() {
	d.observed = true
}

// IsObserved implements Observable.
func (d *Data) IsObserved() bool {
	return d != nil && d.observed
}

// IsPrimitive reports whether v is a string, number or bool.
func IsPrimitive(v any) bool {
	switch v.(type) {
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, uintptr,
		float32, float64:
		return true
	}
	return false
}

// KeysEqual compares two keys without panicking on non-comparable values.
// Non-comparable keys are never equal to anything but are tolerated.
func KeysEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if !isComparable(a) || !isComparable(b) {
		return false
	}
	return a == b
}

// isComparable reports whether v can be used with == and as a map key.
func isComparable(v any) bool {
	if v == nil {
		return true
	}
	return reflect.TypeOf(v).Comparable()
}
