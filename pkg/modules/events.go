package modules

import (
	"strings"
	"sync"

	"github.com/vango-dev/patchwork/pkg/vdom"
)

// Events binds Data.On listeners.
//
// Handlers may be func(), func(any) or a []any of those. An event name
// prefixed with "~" fires once. The "!" (capture) and "&" (passive)
// prefixes are accepted and stripped.
//
// Each element gets one real listener per event. When handlers change
// across patches the listener stays bound and only its handler list is
// swapped. Real nodes must be comparable.
type Events struct {
	ops ElementOps

	mu       sync.Mutex
	invokers map[vdom.Node]map[string]*invoker
}

type invoker struct {
	mu   sync.Mutex
	fns  []func(any)
	once bool
}

func (inv *invoker) set(fns []func(any)) {
	inv.mu.Lock()
	inv.fns = fns
	inv.mu.Unlock()
}

func (inv *invoker) call(payload any) {
	inv.mu.Lock()
	fns := inv.fns
	inv.mu.Unlock()
	for _, fn := range fns {
		fn(payload)
	}
}

// NewEvents creates the events module.
func NewEvents(ops ElementOps) *Events {
	return &Events{
		ops:      ops,
		invokers: make(map[vdom.Node]map[string]*invoker),
	}
}

// Name implements reconcile.Module.
func (*Events) Name() string { return "events" }

// Create implements reconcile.CreateHook.
func (m *Events) Create(v *vdom.VNode) {
	m.update(nil, v)
}

// Update implements reconcile.UpdateHook.
func (m *Events) Update(old, v *vdom.VNode) {
	m.update(old, v)
}

// Destroy implements reconcile.DestroyHook.
func (m *Events) Destroy(v *vdom.VNode) {
	if v.Kind != vdom.KindElement || v.Elm() == nil {
		return
	}
	elm := v.Elm()
	m.mu.Lock()
	bound := m.invokers[elm]
	delete(m.invokers, elm)
	m.mu.Unlock()

	for event := range bound {
		m.ops.RemoveListener(elm, event)
	}
}

// Bound reports how many elements currently have listeners.
func (m *Events) Bound() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.invokers)
}

func (m *Events) update(old, v *vdom.VNode) {
	if v.Kind != vdom.KindElement || v.Elm() == nil {
		return
	}
	oldOn, on := dataOf(old).On, dataOf(v).On
	if len(oldOn) == 0 && len(on) == 0 {
		return
	}
	elm := v.Elm()

	m.mu.Lock()
	bound := m.invokers[elm]
	if bound == nil {
		bound = make(map[string]*invoker)
		m.invokers[elm] = bound
	}
	m.mu.Unlock()

	wanted := make(map[string]bool, len(on))
	for name, handler := range on {
		event, once := parseEventName(name)
		fns := toHandlers(handler)
		if len(fns) == 0 {
			continue
		}
		wanted[event] = true

		m.mu.Lock()
		inv := bound[event]
		m.mu.Unlock()
		if inv != nil {
			inv.set(fns)
			continue
		}

		inv = &invoker{fns: fns, once: once}
		m.mu.Lock()
		bound[event] = inv
		m.mu.Unlock()
		m.ops.AddListener(elm, event, m.listener(elm, event, inv))
	}

	m.mu.Lock()
	var stale []string
	for event := range bound {
		if !wanted[event] {
			stale = append(stale, event)
			delete(bound, event)
		}
	}
	if len(bound) == 0 {
		delete(m.invokers, elm)
	}
	m.mu.Unlock()

	for _, event := range stale {
		m.ops.RemoveListener(elm, event)
	}
}

func (m *Events) listener(elm vdom.Node, event string, inv *invoker) func(any) {
	if !inv.once {
		return inv.call
	}
	return func(payload any) {
		m.mu.Lock()
		bound := m.invokers[elm]
		current := bound[event] == inv
		if current {
			delete(bound, event)
		}
		m.mu.Unlock()
		if !current {
			return
		}
		m.ops.RemoveListener(elm, event)
		inv.call(payload)
	}
}

// parseEventName strips modifier prefixes from an event name.
func parseEventName(name string) (event string, once bool) {
	name = strings.TrimPrefix(name, "&")
	if strings.HasPrefix(name, "~") {
		once = true
		name = name[1:]
	}
	return strings.TrimPrefix(name, "!"), once
}

func toHandlers(v any) []func(any) {
	switch h := v.(type) {
	case nil:
		return nil
	case func():
		if h == nil {
			return nil
		}
		return []func(any){func(any) { h() }}
	case func(any):
		if h == nil {
			return nil
		}
		return []func(any){h}
	case []func(any):
		return h
	case []any:
		var fns []func(any)
		for _, item := range h {
			fns = append(fns, toHandlers(item)...)
		}
		return fns
	}
	return nil
}
