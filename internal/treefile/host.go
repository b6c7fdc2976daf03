package treefile

import (
	"log/slog"
	"sync"

	"github.com/vango-dev/patchwork/pkg/reconcile"
	"github.com/vango-dev/patchwork/pkg/vdom"
)

// Host renders treefile components for an Engine. Each mounted
// component VNode owns an instance holding its rendered subtree; the
// subtree is patched with the same engine on every prepatch.
type Host struct {
	loader *Loader
	logger *slog.Logger
	engine *reconcile.Engine

	mu        sync.Mutex
	instances map[*vdom.VNode]*instance
}

type instance struct {
	component *Component
	rendered  *vdom.VNode
}

// NewHost creates a Host that renders with loader. Bind must be called
// before the first patch.
func NewHost(loader *Loader) *Host {
	return &Host{
		loader:    loader,
		logger:    loader.logger,
		instances: make(map[*vdom.VNode]*instance),
	}
}

// Bind sets the engine used to patch rendered subtrees. Nested patches
// bypass the engine's observer; their work is not counted separately.
func (h *Host) Bind(e *reconcile.Engine) {
	h.engine = e.Unobserved()
}

// Instances returns the number of live component instances.
func (h *Host) Instances() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.instances)
}

// Mount implements reconcile.ComponentHost.
func (h *Host) Mount(vnode *vdom.VNode) vdom.Node {
	inst := &instance{component: h.componentOf(vnode)}
	inst.rendered = h.render(inst.component, vnode)
	elm := h.engine.Patch(nil, inst.rendered, nil)

	h.mu.Lock()
	h.instances[vnode] = inst
	h.mu.Unlock()
	return elm
}

// Prepatch implements reconcile.ComponentHost.
func (h *Host) Prepatch(old, vnode *vdom.VNode) vdom.Node {
	h.mu.Lock()
	inst, ok := h.instances[old]
	delete(h.instances, old)
	h.mu.Unlock()
	if !ok {
		return h.Mount(vnode)
	}

	next := h.render(inst.component, vnode)
	elm := h.engine.Patch(inst.rendered, next, nil)
	inst.rendered = next

	h.mu.Lock()
	h.instances[vnode] = inst
	h.mu.Unlock()
	return elm
}

// Transfer implements reconcile.ComponentHost.
func (h *Host) Transfer(old, vnode *vdom.VNode) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if inst, ok := h.instances[old]; ok {
		delete(h.instances, old)
		h.instances[vnode] = inst
	}
}

// Destroy implements reconcile.ComponentHost. The engine removes the
// component's root node itself, so only hooks run here.
func (h *Host) Destroy(vnode *vdom.VNode) {
	h.mu.Lock()
	inst, ok := h.instances[vnode]
	delete(h.instances, vnode)
	h.mu.Unlock()
	if ok {
		h.engine.Destroy(inst.rendered)
	}
}

func (h *Host) componentOf(vnode *vdom.VNode) *Component {
	if vnode.Component == nil {
		return nil
	}
	c, _ := vnode.Component.Descriptor.(*Component)
	return c
}

// render builds the component's output. Failures render as a comment
// so the rest of the tree still patches.
func (h *Host) render(c *Component, vnode *vdom.VNode) *vdom.VNode {
	if c == nil {
		h.logger.Warn("treefile: component has no template", "tag", vnode.Tag)
		return vdom.NewComment(vnode.Tag)
	}
	var (
		props vdom.Props
		slot  []*vdom.VNode
	)
	if vnode.Component != nil {
		props, slot = vnode.Component.Props, vnode.Component.Children
	}
	out, err := h.loader.Render(c, props, slot)
	if err != nil {
		h.logger.Error("treefile: component render failed", "component", c.Name, "error", err)
		return vdom.NewComment(c.Name)
	}
	return out
}

var _ reconcile.ComponentHost = (*Host)(nil)
