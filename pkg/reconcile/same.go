package reconcile

import (
	"reflect"

	"github.com/vango-dev/patchwork/pkg/vdom"
)

// SameVNode reports whether b may be patched in place over a: equal
// keys, same kind, same tag for elements and components, and for
// components the same descriptor.
func SameVNode(a, b *vdom.VNode) bool {
	if a == nil || b == nil {
		return a == b
	}
	if !vdom.KeysEqual(a.Key, b.Key) || a.Kind != b.Kind {
		return false
	}
	if a.IsPlaceholder() != b.IsPlaceholder() {
		return false
	}
	switch a.Kind {
	case vdom.KindElement:
		return a.Tag == b.Tag
	case vdom.KindComponent:
		return a.Tag == b.Tag && sameDescriptor(a.Component, b.Component)
	}
	return true
}

func sameDescriptor(a, b *vdom.ComponentOptions) bool {
	if a == nil || b == nil {
		return a == b
	}
	da, db := a.Descriptor, b.Descriptor
	if da == nil || db == nil {
		return da == db
	}
	ta, tb := reflect.TypeOf(da), reflect.TypeOf(db)
	if ta != tb {
		return false
	}
	if ta.Comparable() {
		return da == db
	}
	// Funcs and other non-comparable descriptors match by pointer.
	va, vb := reflect.ValueOf(da), reflect.ValueOf(db)
	switch va.Kind() {
	case reflect.Func, reflect.Map, reflect.Slice:
		return va.Pointer() == vb.Pointer()
	}
	return false
}
