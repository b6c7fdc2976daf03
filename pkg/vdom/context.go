package vdom

import "sync"

// Context is the component instance a tree is rendered for.
// VNodes reference it only through its ID.
type Context interface {
	// ID returns the identifier stored on VNodes built for this context.
	ID() ContextID

	// Namespace returns the namespace of the context's own placeholder
	// node, so a component rendered inside <svg> keeps the namespace.
	Namespace() string

	// ResolveComponent looks up a registered component by tag.
	ResolveComponent(tag string) (descriptor any, ok bool)
}

// ComponentDelegate turns a component descriptor into a component-kind
// VNode. It may return nil when the descriptor is not usable.
type ComponentDelegate interface {
	CreateComponent(descriptor any, data *Data, ctx Context, children []*VNode, tag string) *VNode
}

// ComponentDelegateFunc adapts a function to ComponentDelegate.
type ComponentDelegateFunc func(descriptor any, data *Data, ctx Context, children []*VNode, tag string) *VNode

// CreateComponent implements ComponentDelegate.
func (f ComponentDelegateFunc) CreateComponent(descriptor any, data *Data, ctx Context, children []*VNode, tag string) *VNode {
	return f(descriptor, data, ctx, children, tag)
}

// DefaultComponentDelegate builds a plain component placeholder carrying
// the descriptor, props and slot children.
var DefaultComponentDelegate ComponentDelegate = ComponentDelegateFunc(
	func(descriptor any, data *Data, ctx Context, children []*VNode, tag string) *VNode {
		if descriptor == nil {
			return nil
		}
		n := &VNode{
			Kind: KindComponent,
			Tag:  tag,
			Data: data,
			Component: &ComponentOptions{
				Descriptor: descriptor,
				Tag:        tag,
				Children:   children,
			},
		}
		if ctx != nil {
			n.Context = ctx.ID()
		}
		if data != nil {
			n.Key = data.Key
			n.Component.Props = data.Props
		}
		return n
	})

// Registry maps context IDs back to live contexts. VNodes never hold a
// context directly; consumers that need one look it up here.
type Registry struct {
	mu       sync.RWMutex
	contexts map[ContextID]Context
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{contexts: make(map[ContextID]Context)}
}

// Register adds ctx under its ID, replacing any previous entry.
func (r *Registry) Register(ctx Context) {
	if ctx == nil || ctx.ID() == 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contexts[ctx.ID()] = ctx
}

// Lookup returns the context registered under id.
func (r *Registry) Lookup(id ContextID) (Context, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctx, ok := r.contexts[id]
	return ctx, ok
}

// Release removes the context registered under id.
func (r *Registry) Release(id ContextID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.contexts, id)
}

// Len returns the number of registered contexts.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.contexts)
}

// StaticContext is a minimal Context backed by a component table.
type StaticContext struct {
	Ident      ContextID
	NS         string
	Components map[string]any
}

// ID implements Context.
func (c *StaticContext) ID() ContextID { return c.Ident }

// Namespace implements Context.
func (c *StaticContext) Namespace() string { return c.NS }

// ResolveComponent implements Context.
func (c *StaticContext) ResolveComponent(tag string) (any, bool) {
	d, ok := c.Components[tag]
	return d, ok
}
