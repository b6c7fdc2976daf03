package modules

import "github.com/vango-dev/patchwork/pkg/vdom"

// Style applies Data.Style as inline style properties.
type Style struct {
	ops ElementOps
}

// NewStyle creates the style module.
func NewStyle(ops ElementOps) *Style {
	return &Style{ops: ops}
}

// Name implements reconcile.Module.
func (*Style) Name() string { return "style" }

// Create implements reconcile.CreateHook.
func (m *Style) Create(v *vdom.VNode) {
	m.update(nil, v)
}

// Update implements reconcile.UpdateHook.
func (m *Style) Update(old, v *vdom.VNode) {
	m.update(old, v)
}

func (m *Style) update(old, v *vdom.VNode) {
	if !applies(v) {
		return
	}
	oldStyle, style := dataOf(old).Style, dataOf(v).Style
	elm := v.Elm()

	for prop, prev := range oldStyle {
		if _, ok := style[prop]; !ok && prev != "" {
			m.ops.RemoveStyle(elm, prop)
		}
	}
	for prop, value := range style {
		prev, had := oldStyle[prop]
		switch {
		case value == "":
			if had && prev != "" {
				m.ops.RemoveStyle(elm, prop)
			}
		case !had || prev != value:
			m.ops.SetStyle(elm, prop, value)
		}
	}
}
