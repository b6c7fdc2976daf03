package modules

import (
	"sync"

	"github.com/vango-dev/patchwork/pkg/vdom"
)

// Refs registers real nodes under Data.Ref, scoped by the owning
// component context. Refs marked RefInFor collect into a slice.
type Refs struct {
	mu     sync.RWMutex
	scopes map[vdom.ContextID]map[string][]vdom.Node
	inFor  map[vdom.ContextID]map[string]bool
}

// NewRefs creates an empty ref store.
func NewRefs() *Refs {
	return &Refs{
		scopes: make(map[vdom.ContextID]map[string][]vdom.Node),
		inFor:  make(map[vdom.ContextID]map[string]bool),
	}
}

// Name implements reconcile.Module.
func (*Refs) Name() string { return "refs" }

// Create implements reconcile.CreateHook.
func (r *Refs) Create(v *vdom.VNode) {
	r.register(v, false)
}

// Update implements reconcile.UpdateHook.
func (r *Refs) Update(old, v *vdom.VNode) {
	if dataOf(old).Ref != dataOf(v).Ref || old.Elm() != v.Elm() {
		r.register(old, true)
		r.register(v, false)
	}
}

// Destroy implements reconcile.DestroyHook.
func (r *Refs) Destroy(v *vdom.VNode) {
	r.register(v, true)
}

// Get returns the node registered as name in ctx. For RefInFor refs it
// returns the first one.
func (r *Refs) Get(ctx vdom.ContextID, name string) vdom.Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	nodes := r.scopes[ctx][name]
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

// GetAll returns every node registered as name in ctx.
func (r *Refs) GetAll(ctx vdom.ContextID, name string) []vdom.Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]vdom.Node(nil), r.scopes[ctx][name]...)
}

// Release drops every ref of ctx, typically when the component is torn down.
func (r *Refs) Release(ctx vdom.ContextID) {
	r.mu.Lock()
	delete(r.scopes, ctx)
	delete(r.inFor, ctx)
	r.mu.Unlock()
}

func (r *Refs) register(v *vdom.VNode, remove bool) {
	if v == nil || v.Data == nil || v.Data.Ref == "" || v.Elm() == nil {
		return
	}
	name, ctx, elm := v.Data.Ref, v.Context, v.Elm()

	r.mu.Lock()
	defer r.mu.Unlock()

	scope := r.scopes[ctx]
	if remove {
		nodes := scope[name]
		for i, n := range nodes {
			if n == elm {
				scope[name] = append(nodes[:i:i], nodes[i+1:]...)
				break
			}
		}
		if len(scope[name]) == 0 {
			delete(scope, name)
			delete(r.inFor[ctx], name)
		}
		return
	}

	if scope == nil {
		scope = make(map[string][]vdom.Node)
		r.scopes[ctx] = scope
		r.inFor[ctx] = make(map[string]bool)
	}
	if !v.Data.RefInFor {
		scope[name] = []vdom.Node{elm}
		r.inFor[ctx][name] = false
		return
	}
	for _, n := range scope[name] {
		if n == elm {
			return
		}
	}
	if !r.inFor[ctx][name] {
		scope[name] = nil
	}
	scope[name] = append(scope[name], elm)
	r.inFor[ctx][name] = true
}
