package reconcile

import (
	"context"
	"log/slog"

	"github.com/vango-dev/patchwork/internal/errors"
	"github.com/vango-dev/patchwork/pkg/vdom"
)

// Stats counts the work done by one Patch call.
type Stats struct {
	Created     int  // Real nodes created
	Removed     int  // Real nodes detached
	Moved       int  // Real nodes relocated by the keyed diff
	TextUpdates int  // SetText calls for changed text
	Patched     int  // VNodes patched in place past the static bail-out
	Aborted     bool // A hook or capability panicked mid-patch
}

// Observer is notified around every Patch call.
type Observer interface {
	// PatchStarted may return a derived context (e.g. carrying a span).
	PatchStarted(ctx context.Context) context.Context

	// PatchFinished receives the stats of the completed or aborted call.
	PatchFinished(ctx context.Context, stats Stats)
}

// Engine reconciles VNode trees against a real rendering target.
// It holds no state across Patch calls.
type Engine struct {
	ops      NodeOps
	modules  []Module
	hooks    hooks
	host     ComponentHost
	observer Observer
	logger   *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithComponentHost sets the host that instantiates component nodes.
// Without one, component nodes render as comment placeholders.
func WithComponentHost(h ComponentHost) Option {
	return func(e *Engine) {
		e.host = h
	}
}

// WithObserver sets an observer notified around every patch.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observer = o
	}
}

// WithLogger sets the logger. If nil, slog.Default() is used.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an Engine. Module hooks run in the order of modules.
func New(ops NodeOps, modules []Module, opts ...Option) *Engine {
	e := &Engine{
		ops:     ops,
		modules: append([]Module(nil), modules...),
		hooks:   collectHooks(modules),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Unobserved returns a copy of e that reports to no observer. Component
// hosts patch rendered subtrees with it so the enclosing patch is the
// only one observers see.
func (e *Engine) Unobserved() *Engine {
	c := *e
	c.observer = nil
	return &c
}

// Modules returns the engine's modules in hook order.
func (e *Engine) Modules() []Module {
	return append([]Module(nil), e.modules...)
}

// Patch brings the real tree from old to new and returns the real node
// mapped to new (nil when new is nil). parent is used when mounting and
// as a fallback when old's real node has no parent.
func (e *Engine) Patch(old, new *vdom.VNode, parent vdom.Node) vdom.Node {
	elm, _ := e.PatchStats(context.Background(), old, new, parent)
	return elm
}

// PatchContext is Patch with a context for observers.
func (e *Engine) PatchContext(ctx context.Context, old, new *vdom.VNode, parent vdom.Node) vdom.Node {
	elm, _ := e.PatchStats(ctx, old, new, parent)
	return elm
}

// PatchStats is PatchContext that also returns what the call did.
func (e *Engine) PatchStats(ctx context.Context, old, new *vdom.VNode, parent vdom.Node) (vdom.Node, Stats) {
	if old == new {
		return old.Elm(), Stats{}
	}

	r := &run{e: e, ctx: ctx}
	completed := false
	if e.observer != nil {
		r.ctx = e.observer.PatchStarted(ctx)
		defer func() {
			r.stats.Aborted = !completed
			e.observer.PatchFinished(r.ctx, r.stats)
		}()
	}

	var elm vdom.Node
	switch {
	case old == nil:
		r.createElm(new, parent, nil)
		elm = new.Elm()
	case new == nil:
		r.unmount(old)
	case SameVNode(old, new):
		r.patchVnode(old, new)
		elm = new.Elm()
	default:
		r.replace(old, new, parent)
		elm = new.Elm()
	}
	r.flushInserted()
	completed = true

	if e.logger.Enabled(r.ctx, slog.LevelDebug) {
		e.logger.Debug("reconcile: patch complete",
			"created", r.stats.Created,
			"removed", r.stats.Removed,
			"moved", r.stats.Moved,
			"text_updates", r.stats.TextUpdates,
			"patched", r.stats.Patched,
		)
	}
	return elm, r.stats
}

// Destroy runs destroy hooks for vnode and its descendants without
// touching the real tree. Component hosts call it for the rendered
// output of an instance the engine is about to remove.
func (e *Engine) Destroy(vnode *vdom.VNode) {
	if vnode == nil {
		return
	}
	r := &run{e: e, ctx: context.Background()}
	r.invokeDestroyHook(vnode)
}

// adoptedKey marks VNodes created by Adopt so they never match a
// rendered VNode and are always replaced.
type adoptedKey struct{}

// Adopt wraps an existing real element, such as server-rendered markup
// or a mount container's placeholder, as a VNode. Patching it against a
// new tree replaces the element in place.
func (e *Engine) Adopt(node vdom.Node) *vdom.VNode {
	v := &vdom.VNode{
		Kind: vdom.KindElement,
		Tag:  e.ops.TagOf(node),
		Key:  adoptedKey{},
	}
	v.BindElm(node)
	return v
}

// run carries the state of a single Patch call.
type run struct {
	e        *Engine
	ctx      context.Context
	stats    Stats
	inserted []*vdom.VNode
	warned   bool
}

// createElm creates the real subtree for vnode, children before parent,
// and inserts it under parent before ref (appending when ref is nil).
func (r *run) createElm(vnode *vdom.VNode, parent, ref vdom.Node) {
	ops := r.e.ops
	var elm vdom.Node

	switch vnode.Kind {
	case vdom.KindElement:
		elm = ops.CreateElement(vnode.Tag, vnode.Namespace)
		vnode.BindElm(elm)
		r.createChildren(vnode, elm)
		r.invokeCreateHooks(vnode)
	case vdom.KindComponent:
		if r.e.host == nil {
			r.warnNoHost(vnode)
			elm = ops.CreateComment(vnode.Tag)
			vnode.BindElm(elm)
			break
		}
		elm = r.e.host.Mount(vnode)
		vnode.BindElm(elm)
		r.invokeCreateHooks(vnode)
	case vdom.KindText:
		elm = ops.CreateText(vnode.Text)
		vnode.BindElm(elm)
	default:
		elm = ops.CreateComment(vnode.Text)
		vnode.BindElm(elm)
	}
	r.stats.Created++

	r.insert(parent, elm, ref)
}

func (r *run) createChildren(vnode *vdom.VNode, elm vdom.Node) {
	if len(vnode.Children) == 0 {
		if vnode.Text != "" {
			r.e.ops.AppendChild(elm, r.e.ops.CreateText(vnode.Text))
		}
		return
	}
	r.checkDuplicateKeys(vnode.Children)
	for _, child := range vnode.Children {
		if child != nil {
			r.createElm(child, elm, nil)
		}
	}
}

func (r *run) insert(parent, elm, ref vdom.Node) {
	if parent == nil {
		return
	}
	if ref != nil {
		r.e.ops.InsertBefore(parent, elm, ref)
		return
	}
	r.e.ops.AppendChild(parent, elm)
}

func (r *run) invokeCreateHooks(vnode *vdom.VNode) {
	for _, h := range r.e.hooks.create {
		h.Create(vnode)
	}
	if len(r.e.hooks.insert) > 0 {
		r.inserted = append(r.inserted, vnode)
	}
}

func (r *run) flushInserted() {
	for _, vnode := range r.inserted {
		for _, h := range r.e.hooks.insert {
			h.Insert(vnode)
		}
	}
	r.inserted = nil
}

// unmount runs destroy hooks for old and detaches its real node if it
// is attached.
func (r *run) unmount(old *vdom.VNode) {
	var parent vdom.Node
	if elm := old.Elm(); elm != nil {
		parent = r.e.ops.ParentOf(elm)
	}
	r.removeVnode(parent, old)
}

// replace mounts new next to old's real node, then unmounts old. When old
// is detached, new is mounted under fallbackParent instead.
func (r *run) replace(old, new *vdom.VNode, fallbackParent vdom.Node) {
	var oldParent, ref vdom.Node
	if elm := old.Elm(); elm != nil {
		oldParent = r.e.ops.ParentOf(elm)
	}
	parent := oldParent
	if parent != nil {
		ref = r.e.ops.NextSibling(old.Elm())
	} else {
		parent = fallbackParent
	}
	r.createElm(new, parent, ref)
	r.removeVnode(oldParent, old)
}

// patchVnode patches old into new in place; SameVNode(old, new) holds.
func (r *run) patchVnode(old, vnode *vdom.VNode) {
	if old == vnode {
		return
	}
	elm := old.Elm()
	vnode.BindElm(elm)

	if old.IsStatic && vnode.IsStatic && vdom.KeysEqual(old.Key, vnode.Key) && !vnode.Forced {
		r.carryMapping(old, vnode)
		return
	}
	r.stats.Patched++

	if vnode.Kind == vdom.KindComponent && r.e.host != nil {
		if root := r.e.host.Prepatch(old, vnode); root != nil {
			if root != elm {
				r.swapRoot(elm, root)
			}
			elm = root
			vnode.BindElm(root)
		}
	}

	patchable := isPatchable(vnode)
	if patchable {
		for _, h := range r.e.hooks.update {
			h.Update(old, vnode)
		}
	}

	switch vnode.Kind {
	case vdom.KindText, vdom.KindComment:
		if old.Text != vnode.Text {
			r.e.ops.SetText(elm, vnode.Text)
			r.stats.TextUpdates++
		}
	case vdom.KindElement:
		r.patchChildren(elm, old, vnode)
	}

	if patchable {
		for _, h := range r.e.hooks.postpatch {
			h.Postpatch(old, vnode)
		}
	}
}

func (r *run) patchChildren(elm vdom.Node, old, vnode *vdom.VNode) {
	oldCh, ch := old.Children, vnode.Children

	if vnode.Text != "" && len(ch) == 0 {
		if len(oldCh) > 0 {
			r.removeVnodes(elm, oldCh, 0, len(oldCh)-1, nil)
		}
		if len(oldCh) > 0 || old.Text != vnode.Text {
			r.e.ops.SetText(elm, vnode.Text)
			r.stats.TextUpdates++
		}
		return
	}

	switch {
	case len(oldCh) > 0 && len(ch) > 0:
		if !sameSlice(oldCh, ch) {
			r.updateChildren(elm, oldCh, ch)
		}
	case len(ch) > 0:
		if old.Text != "" {
			r.e.ops.SetText(elm, "")
		}
		r.checkDuplicateKeys(ch)
		r.addVnodes(elm, nil, ch, 0, len(ch)-1)
	case len(oldCh) > 0:
		r.removeVnodes(elm, oldCh, 0, len(oldCh)-1, nil)
	case old.Text != "":
		r.e.ops.SetText(elm, "")
		r.stats.TextUpdates++
	}
}

func (r *run) addVnodes(parent, ref vdom.Node, vnodes []*vdom.VNode, start, end int) {
	for i := start; i <= end; i++ {
		if vnodes[i] != nil {
			r.createElm(vnodes[i], parent, ref)
		}
	}
}

// removeVnodes unmounts vnodes[start..end], skipping consumed slots.
func (r *run) removeVnodes(parent vdom.Node, vnodes []*vdom.VNode, start, end int, consumed []bool) {
	for i := start; i <= end; i++ {
		if vnodes[i] == nil || (consumed != nil && consumed[i]) {
			continue
		}
		r.removeVnode(parent, vnodes[i])
	}
}

func (r *run) removeVnode(parent vdom.Node, vnode *vdom.VNode) {
	if vnode.Kind != vdom.KindText {
		r.invokeDestroyHook(vnode)
	}
	if parent == nil || vnode.Elm() == nil {
		return
	}
	r.e.ops.RemoveChild(parent, vnode.Elm())
	r.stats.Removed++
}

// invokeDestroyHook runs destroy hooks for vnode and then its subtree.
func (r *run) invokeDestroyHook(vnode *vdom.VNode) {
	if vnode.Kind == vdom.KindComponent && r.e.host != nil {
		r.e.host.Destroy(vnode)
	}
	if isPatchable(vnode) {
		for _, h := range r.e.hooks.destroy {
			h.Destroy(vnode)
		}
	}
	for _, child := range vnode.Children {
		if child != nil {
			r.invokeDestroyHook(child)
		}
	}
}

func (r *run) invokeMoveHook(vnode *vdom.VNode) {
	r.stats.Moved++
	for _, h := range r.e.hooks.move {
		h.Move(vnode)
	}
}

// checkDuplicateKeys reports sibling keys that appear more than once.
func (r *run) checkDuplicateKeys(children []*vdom.VNode) {
	if !r.e.logger.Enabled(r.ctx, slog.LevelWarn) {
		return
	}
	var seen map[any]bool
	for _, c := range children {
		if c == nil || c.Key == nil || !vdom.IsPrimitive(c.Key) {
			continue
		}
		if seen == nil {
			seen = make(map[any]bool, len(children))
		}
		if seen[c.Key] {
			r.e.logger.Warn("reconcile: duplicate key",
				"diagnostic", errors.New("V010").WithDetailf("key %v", c.Key))
			continue
		}
		seen[c.Key] = true
	}
}

func (r *run) warnNoHost(vnode *vdom.VNode) {
	if r.warned {
		return
	}
	r.warned = true
	r.e.logger.Warn("reconcile: component without host",
		"diagnostic", errors.New("V011").WithDetailf("tag %q", vnode.Tag))
}

// isPatchable reports whether module hooks apply to vnode.
func isPatchable(vnode *vdom.VNode) bool {
	return vnode.Kind == vdom.KindElement || vnode.Kind == vdom.KindComponent
}

// swapRoot puts a component's new root where its old root was. A root
// the component's own patch already attached is left alone.
func (r *run) swapRoot(oldRoot, root vdom.Node) {
	ops := r.e.ops
	if oldRoot == nil || ops.ParentOf(root) != nil {
		return
	}
	parent := ops.ParentOf(oldRoot)
	if parent == nil {
		return
	}
	ops.InsertBefore(parent, root, oldRoot)
	ops.RemoveChild(parent, oldRoot)
	r.stats.Removed++
}

// carryMapping binds the real nodes of a skipped static subtree to its
// new VNodes so later patches against vnode can find them. Component
// instances move along with them.
func (r *run) carryMapping(old, vnode *vdom.VNode) {
	vnode.BindElm(old.Elm())
	if vnode.Kind == vdom.KindComponent && r.e.host != nil {
		r.e.host.Transfer(old, vnode)
	}
	if len(old.Children) != len(vnode.Children) || sameSlice(old.Children, vnode.Children) {
		return
	}
	for i, child := range vnode.Children {
		if child != nil && old.Children[i] != nil && child.Elm() == nil {
			r.carryMapping(old.Children[i], child)
		}
	}
}

func sameSlice(a, b []*vdom.VNode) bool {
	return len(a) == len(b) && len(a) > 0 && &a[0] == &b[0]
}
