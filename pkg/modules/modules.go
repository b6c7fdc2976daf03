package modules

import (
	"fmt"
	"log/slog"

	"github.com/vango-dev/patchwork/pkg/reconcile"
	"github.com/vango-dev/patchwork/pkg/vdom"
)

// ElementOps is the capability set the modules need beyond
// reconcile.NodeOps.
type ElementOps interface {
	SetAttribute(node vdom.Node, name, value string)
	RemoveAttribute(node vdom.Node, name string)
	SetStyle(node vdom.Node, prop, value string)
	RemoveStyle(node vdom.Node, prop string)
	AddListener(node vdom.Node, event string, fn func(payload any))
	RemoveListener(node vdom.Node, event string)
}

// Default returns the built-in modules in hook order. refs and resolver
// may be nil, in which case the corresponding module is left out.
func Default(ops ElementOps, refs *Refs, resolver DirectiveResolver) []reconcile.Module {
	mods := []reconcile.Module{
		NewAttrs(ops),
		NewClass(ops),
		NewStyle(ops),
		NewEvents(ops),
	}
	if refs != nil {
		mods = append(mods, refs)
	}
	if resolver != nil {
		mods = append(mods, NewDirectives(resolver, nil))
	}
	return mods
}

// applies reports whether element data of v has a real node to act on.
func applies(v *vdom.VNode) bool {
	if v == nil || v.Elm() == nil {
		return false
	}
	return v.Kind == vdom.KindElement || v.Kind == vdom.KindComponent
}

func dataOf(v *vdom.VNode) *vdom.Data {
	if v == nil || v.Data == nil {
		return &emptyData
	}
	return v.Data
}

var emptyData vdom.Data

// attrToString converts an attribute value to a string.
func attrToString(value any) string {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return "false"
	case int:
		return fmt.Sprintf("%d", v)
	case int64:
		return fmt.Sprintf("%d", v)
	case float64:
		return fmt.Sprintf("%g", v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
