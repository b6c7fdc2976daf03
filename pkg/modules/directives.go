package modules

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/vango-dev/patchwork/internal/errors"
	"github.com/vango-dev/patchwork/pkg/vdom"
)

// Binding is what a directive callback receives.
type Binding struct {
	Name      string
	Value     any
	OldValue  any
	Arg       string
	OldArg    string
	Modifiers map[string]bool
}

// DirectiveFunc is a directive lifecycle callback. old is nil for Bind
// and Inserted on first render.
type DirectiveFunc func(elm vdom.Node, b Binding, vnode, old *vdom.VNode)

// Definition holds the callbacks of a directive. Any may be nil.
type Definition struct {
	Bind             DirectiveFunc // Directive first attached to the element
	Inserted         DirectiveFunc // Element is in the real tree
	Update           DirectiveFunc // Element patched, before its children
	ComponentUpdated DirectiveFunc // Element and children patched
	Unbind           DirectiveFunc // Directive removed or element destroyed
}

// DirectiveResolver looks up directive definitions by name for the
// component context owning a VNode.
type DirectiveResolver interface {
	ResolveDirective(ctx vdom.ContextID, name string) (*Definition, bool)
}

// DirectiveMap is a DirectiveResolver with one global set of directives.
type DirectiveMap map[string]*Definition

// ResolveDirective implements DirectiveResolver.
func (m DirectiveMap) ResolveDirective(_ vdom.ContextID, name string) (*Definition, bool) {
	d, ok := m[name]
	return d, ok && d != nil
}

// Directives runs Data.Directives callbacks. It must be the last module
// so callbacks see all other element data applied.
type Directives struct {
	resolver DirectiveResolver
	logger   *slog.Logger
}

// NewDirectives creates the directives module. If logger is nil,
// slog.Default() is used.
func NewDirectives(resolver DirectiveResolver, logger *slog.Logger) *Directives {
	return &Directives{resolver: resolver, logger: loggerOrDefault(logger)}
}

// Name implements reconcile.Module.
func (*Directives) Name() string { return "directives" }

type resolved struct {
	key     string
	binding Binding
	def     *Definition
}

// Create implements reconcile.CreateHook.
func (m *Directives) Create(v *vdom.VNode) {
	if !applies(v) || len(dataOf(v).Directives) == 0 {
		return
	}
	for _, d := range m.normalize(v) {
		call(d.def.Bind, v.Elm(), d.binding, v, nil)
	}
}

// Insert implements reconcile.InsertHook.
func (m *Directives) Insert(v *vdom.VNode) {
	if !applies(v) || len(dataOf(v).Directives) == 0 {
		return
	}
	for _, d := range m.normalize(v) {
		call(d.def.Inserted, v.Elm(), d.binding, v, nil)
	}
}

// Update implements reconcile.UpdateHook.
func (m *Directives) Update(old, v *vdom.VNode) {
	if !applies(v) || (len(dataOf(old).Directives) == 0 && len(dataOf(v).Directives) == 0) {
		return
	}
	oldDirs := indexResolved(m.normalize(old))
	newDirs := m.normalize(v)
	elm := v.Elm()

	for _, d := range newDirs {
		prev, ok := oldDirs[d.key]
		if !ok {
			call(d.def.Bind, elm, d.binding, v, old)
			call(d.def.Inserted, elm, d.binding, v, old)
			continue
		}
		d.binding.OldValue = prev.binding.Value
		d.binding.OldArg = prev.binding.Arg
		call(d.def.Update, elm, d.binding, v, old)
	}

	current := indexResolved(newDirs)
	for _, d := range m.normalize(old) {
		if _, ok := current[d.key]; !ok {
			call(d.def.Unbind, old.Elm(), d.binding, old, old)
		}
	}
}

// Postpatch implements reconcile.PostpatchHook.
func (m *Directives) Postpatch(old, v *vdom.VNode) {
	if !applies(v) || len(dataOf(v).Directives) == 0 {
		return
	}
	oldDirs := indexResolved(m.normalize(old))
	for _, d := range m.normalize(v) {
		prev, ok := oldDirs[d.key]
		if !ok {
			continue
		}
		d.binding.OldValue = prev.binding.Value
		d.binding.OldArg = prev.binding.Arg
		call(d.def.ComponentUpdated, v.Elm(), d.binding, v, old)
	}
}

// Destroy implements reconcile.DestroyHook.
func (m *Directives) Destroy(v *vdom.VNode) {
	if !applies(v) || len(dataOf(v).Directives) == 0 {
		return
	}
	for _, d := range m.normalize(v) {
		call(d.def.Unbind, v.Elm(), d.binding, v, v)
	}
}

// normalize resolves the directives of v in declaration order, skipping
// unknown ones.
func (m *Directives) normalize(v *vdom.VNode) []resolved {
	dirs := dataOf(v).Directives
	if len(dirs) == 0 {
		return nil
	}
	out := make([]resolved, 0, len(dirs))
	for _, dir := range dirs {
		def, ok := m.resolver.ResolveDirective(v.Context, dir.Name)
		if !ok {
			m.logger.Warn("modules: unresolved directive",
				"diagnostic", errors.New("V012").WithDetailf("directive %q on <%s>", dir.Name, v.Tag))
			continue
		}
		out = append(out, resolved{
			key: directiveKey(dir),
			binding: Binding{
				Name:      dir.Name,
				Value:     dir.Value,
				OldValue:  dir.OldValue,
				Arg:       dir.Arg,
				Modifiers: dir.Modifiers,
			},
			def: def,
		})
	}
	return out
}

func indexResolved(dirs []resolved) map[string]resolved {
	m := make(map[string]resolved, len(dirs))
	for _, d := range dirs {
		m[d.key] = d
	}
	return m
}

// directiveKey identifies a directive use by name and modifiers, so the
// same directive with a different modifier set is a different binding.
func directiveKey(d vdom.Directive) string {
	if len(d.Modifiers) == 0 {
		return d.Name
	}
	mods := make([]string, 0, len(d.Modifiers))
	for k, on := range d.Modifiers {
		if on {
			mods = append(mods, k)
		}
	}
	sort.Strings(mods)
	return d.Name + "." + strings.Join(mods, ".")
}

func call(fn DirectiveFunc, elm vdom.Node, b Binding, vnode, old *vdom.VNode) {
	if fn != nil {
		fn(elm, b, vnode, old)
	}
}
