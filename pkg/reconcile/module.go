package reconcile

import "github.com/vango-dev/patchwork/pkg/vdom"

// Module is an extension module. It implements any subset of the hook
// interfaces below; the engine detects them once at construction.
type Module interface {
	// Name identifies the module in logs and traces.
	Name() string
}

// CreateHook runs after a real element has been created for vnode and
// its children have been created, before it is inserted.
type CreateHook interface {
	Create(vnode *vdom.VNode)
}

// UpdateHook runs when old is patched in place into new.
type UpdateHook interface {
	Update(old, new *vdom.VNode)
}

// DestroyHook runs for every element being unmounted, parents first,
// before the real node is removed.
type DestroyHook interface {
	Destroy(vnode *vdom.VNode)
}

// PostpatchHook runs after old has been patched into new, children
// included.
type PostpatchHook interface {
	Postpatch(old, new *vdom.VNode)
}

// MoveHook runs when the keyed diff relocates vnode's real node.
type MoveHook interface {
	Move(vnode *vdom.VNode)
}

// InsertHook runs at the end of a patch for every element created during
// it, in creation order, once all of them are attached.
type InsertHook interface {
	Insert(vnode *vdom.VNode)
}

// hooks holds the modules implementing each phase, in module order.
type hooks struct {
	create    []CreateHook
	update    []UpdateHook
	destroy   []DestroyHook
	postpatch []PostpatchHook
	move      []MoveHook
	insert    []InsertHook
}

func collectHooks(modules []Module) hooks {
	var h hooks
	for _, m := range modules {
		if m == nil {
			continue
		}
		if c, ok := m.(CreateHook); ok {
			h.create = append(h.create, c)
		}
		if u, ok := m.(UpdateHook); ok {
			h.update = append(h.update, u)
		}
		if d, ok := m.(DestroyHook); ok {
			h.destroy = append(h.destroy, d)
		}
		if p, ok := m.(PostpatchHook); ok {
			h.postpatch = append(h.postpatch, p)
		}
		if mv, ok := m.(MoveHook); ok {
			h.move = append(h.move, mv)
		}
		if i, ok := m.(InsertHook); ok {
			h.insert = append(h.insert, i)
		}
	}
	return h
}

// ComponentHost instantiates and maintains component-kind VNodes.
type ComponentHost interface {
	// Mount renders the component and returns the root real node of its
	// output. The engine inserts it.
	Mount(vnode *vdom.VNode) vdom.Node

	// Prepatch transfers the instance from old to new before new's hooks
	// run. It may return a different root node if the component re-rendered
	// to a new root; a detached root is swapped in for old's by the
	// engine.
	Prepatch(old, new *vdom.VNode) vdom.Node

	// Transfer hands the instance from old to new without re-rendering.
	// It is called for static components skipped by the patch.
	Transfer(old, new *vdom.VNode)

	// Destroy tears down the instance behind vnode.
	Destroy(vnode *vdom.VNode)
}
