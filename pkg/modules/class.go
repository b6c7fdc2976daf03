package modules

import (
	"sort"
	"strings"

	"github.com/vango-dev/patchwork/pkg/vdom"
)

// Class applies Data.StaticClass and Data.Class as the class attribute.
type Class struct {
	ops ElementOps
}

// NewClass creates the class module.
func NewClass(ops ElementOps) *Class {
	return &Class{ops: ops}
}

// Name implements reconcile.Module.
func (*Class) Name() string { return "class" }

// Create implements reconcile.CreateHook.
func (m *Class) Create(v *vdom.VNode) {
	if !applies(v) {
		return
	}
	if cls := RenderClass(dataOf(v)); cls != "" {
		m.ops.SetAttribute(v.Elm(), "class", cls)
	}
}

// Update implements reconcile.UpdateHook.
func (m *Class) Update(old, v *vdom.VNode) {
	if !applies(v) {
		return
	}
	d, od := dataOf(v), dataOf(old)
	if d.StaticClass == "" && d.Class == nil && od.StaticClass == "" && od.Class == nil {
		return
	}
	prev, next := RenderClass(od), RenderClass(d)
	switch {
	case prev == next:
	case next == "":
		m.ops.RemoveAttribute(v.Elm(), "class")
	default:
		m.ops.SetAttribute(v.Elm(), "class", next)
	}
}

// RenderClass merges the static and dynamic classes of d into a class
// attribute value.
//
// The dynamic value may be a string, a []string, a map[string]bool
// (keys with true values, sorted) or a []any nesting any of these.
func RenderClass(d *vdom.Data) string {
	return concatClass(d.StaticClass, stringifyClass(d.Class))
}

func concatClass(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + " " + b
}

func stringifyClass(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []string:
		var res string
		for _, s := range v {
			res = concatClass(res, s)
		}
		return res
	case []any:
		var res string
		for _, item := range v {
			res = concatClass(res, stringifyClass(item))
		}
		return res
	case map[string]bool:
		keys := make([]string, 0, len(v))
		for k, on := range v {
			if on {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		return strings.Join(keys, " ")
	}
	return ""
}
