package modules

import "github.com/vango-dev/patchwork/pkg/vdom"

// booleanAttrs are attributes whose presence alone means true.
var booleanAttrs = map[string]bool{
	"allowfullscreen": true,
	"async":           true,
	"autofocus":       true,
	"autoplay":        true,
	"checked":         true,
	"controls":        true,
	"default":         true,
	"defer":           true,
	"disabled":        true,
	"formnovalidate":  true,
	"hidden":          true,
	"ismap":           true,
	"itemscope":       true,
	"loop":            true,
	"multiple":        true,
	"muted":           true,
	"nomodule":        true,
	"novalidate":      true,
	"open":            true,
	"playsinline":     true,
	"readonly":        true,
	"required":        true,
	"reversed":        true,
	"selected":        true,
}

// enumeratedAttrs take the literal strings "true" and "false".
var enumeratedAttrs = map[string]bool{
	"contenteditable": true,
	"draggable":       true,
	"spellcheck":      true,
}

// Attrs applies Data.Attrs.
type Attrs struct {
	ops ElementOps
}

// NewAttrs creates the attrs module.
func NewAttrs(ops ElementOps) *Attrs {
	return &Attrs{ops: ops}
}

// Name implements reconcile.Module.
func (*Attrs) Name() string { return "attrs" }

// Create implements reconcile.CreateHook.
func (m *Attrs) Create(v *vdom.VNode) {
	m.update(nil, v)
}

// Update implements reconcile.UpdateHook.
func (m *Attrs) Update(old, v *vdom.VNode) {
	m.update(old, v)
}

func (m *Attrs) update(old, v *vdom.VNode) {
	if !applies(v) {
		return
	}
	oldAttrs, attrs := dataOf(old).Attrs, dataOf(v).Attrs
	if len(oldAttrs) == 0 && len(attrs) == 0 {
		return
	}
	elm := v.Elm()

	for name, value := range attrs {
		next, present := attrValue(name, value)
		prev, wasPresent := attrValue(name, oldAttrs[name])
		switch {
		case !present && wasPresent:
			m.ops.RemoveAttribute(elm, name)
		case present && (!wasPresent || prev != next):
			m.ops.SetAttribute(elm, name, next)
		}
	}
	for name, value := range oldAttrs {
		if _, kept := attrs[name]; kept {
			continue
		}
		if _, wasPresent := attrValue(name, value); wasPresent {
			m.ops.RemoveAttribute(elm, name)
		}
	}
}

// attrValue returns the string form of an attribute and whether it
// should be present at all. Boolean attributes render bare.
func attrValue(name string, value any) (string, bool) {
	if value == nil {
		return "", false
	}
	if b, ok := value.(bool); ok {
		switch {
		case enumeratedAttrs[name]:
			return attrToString(b), true
		case !b:
			return "", false
		case booleanAttrs[name]:
			return "", true
		}
	}
	if booleanAttrs[name] {
		return "", true
	}
	return attrToString(value), true
}
