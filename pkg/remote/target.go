package remote

import (
	"sync"

	"github.com/vango-dev/patchwork/pkg/dom"
	"github.com/vango-dev/patchwork/pkg/protocol"
	"github.com/vango-dev/patchwork/pkg/vdom"
)

// RootID is the wire ID of the document root on both ends.
const RootID uint32 = 1

// Target is a recording rendering target. It implements
// reconcile.NodeOps and modules.ElementOps.
type Target struct {
	doc *dom.Document

	mu      sync.Mutex
	ids     map[*dom.Node]uint32
	nodes   map[uint32]*dom.Node
	nextID  uint32
	pending []protocol.Mutation
}

// NewTarget wraps doc. The document root gets RootID.
func NewTarget(doc *dom.Document) *Target {
	t := &Target{
		doc:    doc,
		ids:    make(map[*dom.Node]uint32),
		nodes:  make(map[uint32]*dom.Node),
		nextID: RootID + 1,
	}
	t.ids[doc.Root()] = RootID
	t.nodes[RootID] = doc.Root()
	return t
}

// Document returns the wrapped document.
func (t *Target) Document() *dom.Document {
	return t.doc
}

// Root returns the document root as a vdom.Node, ready to pass as a
// patch parent.
func (t *Target) Root() vdom.Node {
	return t.doc.Root()
}

// ID returns the wire ID of node.
func (t *Target) ID(node vdom.Node) (uint32, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, ok := node.(*dom.Node)
	if !ok {
		return 0, false
	}
	id, ok := t.ids[n]
	return id, ok
}

// Pending returns the number of recorded, unflushed mutations.
func (t *Target) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// Flush returns the recorded mutations as a batch numbered seq and
// starts a new batch. It returns nil if nothing was recorded.
func (t *Target) Flush(seq uint64) *protocol.MutationsFrame {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.pending) == 0 {
		return nil
	}
	mf := &protocol.MutationsFrame{Seq: seq, Mutations: t.pending}
	t.pending = nil
	return mf
}

// Snapshot returns a batch numbered seq that rebuilds the current tree
// under an empty root, reusing the live wire IDs. Pending mutations are
// not included and stay pending.
func (t *Target) Snapshot(seq uint64) *protocol.MutationsFrame {
	t.mu.Lock()
	defer t.mu.Unlock()
	var muts []protocol.Mutation
	for c := t.doc.Root().FirstChild(); c != nil; c = c.NextSibling() {
		muts = t.replay(muts, c, RootID)
	}
	return &protocol.MutationsFrame{Seq: seq, Mutations: muts}
}

func (t *Target) replay(muts []protocol.Mutation, n *dom.Node, parent uint32) []protocol.Mutation {
	id := t.ids[n]
	switch n.Type {
	case dom.ElementNode:
		muts = append(muts, protocol.Mutation{Op: protocol.MutCreateElement, ID: id, Name: n.Tag, Value: n.Namespace})
		for _, name := range n.AttrNames() {
			v, _ := n.Attr(name)
			muts = append(muts, protocol.Mutation{Op: protocol.MutSetAttribute, ID: id, Name: name, Value: v})
		}
		for _, prop := range n.StyleNames() {
			v, _ := n.Style(prop)
			muts = append(muts, protocol.Mutation{Op: protocol.MutSetStyle, ID: id, Name: prop, Value: v})
		}
		for _, ev := range n.Events() {
			muts = append(muts, protocol.Mutation{Op: protocol.MutListen, ID: id, Name: ev})
		}
		if c := n.FirstChild(); c != nil && c.Type == dom.TextNode && c.NextSibling() == nil && t.ids[c] == 0 {
			// Text set directly on the element has no wire ID.
			muts = append(muts, protocol.Mutation{Op: protocol.MutSetText, ID: id, Value: c.Data()})
		} else {
			for c := n.FirstChild(); c != nil; c = c.NextSibling() {
				muts = t.replay(muts, c, id)
			}
		}
	case dom.TextNode:
		muts = append(muts, protocol.Mutation{Op: protocol.MutCreateText, ID: id, Value: n.Data()})
	case dom.CommentNode:
		muts = append(muts, protocol.Mutation{Op: protocol.MutCreateComment, ID: id, Value: n.Data()})
	}
	return append(muts, protocol.Mutation{Op: protocol.MutInsertBefore, ID: id, Parent: parent})
}

// CreateElement creates an element node.
func (t *Target) CreateElement(tag, ns string) vdom.Node {
	n := t.doc.CreateElement(tag, ns)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.record(protocol.Mutation{Op: protocol.MutCreateElement, ID: t.assign(n), Name: tag, Value: ns})
	return n
}

// CreateText creates a text node.
func (t *Target) CreateText(value string) vdom.Node {
	n := t.doc.CreateText(value)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.record(protocol.Mutation{Op: protocol.MutCreateText, ID: t.assign(n), Value: value})
	return n
}

// CreateComment creates a comment node.
func (t *Target) CreateComment(value string) vdom.Node {
	n := t.doc.CreateComment(value)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.record(protocol.Mutation{Op: protocol.MutCreateComment, ID: t.assign(n), Value: value})
	return n
}

// InsertBefore inserts node under parent before ref.
func (t *Target) InsertBefore(parent, node, ref vdom.Node) {
	t.doc.InsertBefore(parent, node, ref)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.record(protocol.Mutation{
		Op:     protocol.MutInsertBefore,
		ID:     t.lookup(node),
		Parent: t.lookup(parent),
		Ref:    t.lookup(ref),
	})
}

// AppendChild appends node to parent. It is recorded as an insert with
// no reference node.
func (t *Target) AppendChild(parent, node vdom.Node) {
	t.doc.AppendChild(parent, node)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.record(protocol.Mutation{Op: protocol.MutInsertBefore, ID: t.lookup(node), Parent: t.lookup(parent)})
}

// RemoveChild detaches node from parent and releases the wire IDs of
// the removed subtree.
func (t *Target) RemoveChild(parent, node vdom.Node) {
	t.doc.RemoveChild(parent, node)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.record(protocol.Mutation{Op: protocol.MutRemoveChild, ID: t.lookup(node), Parent: t.lookup(parent)})
	if n, ok := node.(*dom.Node); ok {
		t.release(n)
	}
}

// SetText sets the text of node. Children an element loses this way
// release their wire IDs.
func (t *Target) SetText(node vdom.Node, value string) {
	n, _ := node.(*dom.Node)
	var dropped []*dom.Node
	if n != nil && n.Type == dom.ElementNode {
		dropped = n.Children()
	}
	t.doc.SetText(node, value)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.record(protocol.Mutation{Op: protocol.MutSetText, ID: t.lookup(node), Value: value})
	for _, c := range dropped {
		t.release(c)
	}
}

// NextSibling returns the following sibling of node.
func (t *Target) NextSibling(node vdom.Node) vdom.Node {
	return t.doc.NextSibling(node)
}

// ParentOf returns the parent of node.
func (t *Target) ParentOf(node vdom.Node) vdom.Node {
	return t.doc.ParentOf(node)
}

// TagOf returns the tag of node.
func (t *Target) TagOf(node vdom.Node) string {
	return t.doc.TagOf(node)
}

// SetAttribute sets an attribute.
func (t *Target) SetAttribute(node vdom.Node, name, value string) {
	t.doc.SetAttribute(node, name, value)
	t.recordNamed(protocol.MutSetAttribute, node, name, value)
}

// RemoveAttribute removes an attribute.
func (t *Target) RemoveAttribute(node vdom.Node, name string) {
	t.doc.RemoveAttribute(node, name)
	t.recordNamed(protocol.MutRemoveAttribute, node, name, "")
}

// SetStyle sets an inline style property.
func (t *Target) SetStyle(node vdom.Node, prop, value string) {
	t.doc.SetStyle(node, prop, value)
	t.recordNamed(protocol.MutSetStyle, node, prop, value)
}

// RemoveStyle removes an inline style property.
func (t *Target) RemoveStyle(node vdom.Node, prop string) {
	t.doc.RemoveStyle(node, prop)
	t.recordNamed(protocol.MutRemoveStyle, node, prop, "")
}

// AddListener attaches fn locally and records that the remote side
// should forward event.
func (t *Target) AddListener(node vdom.Node, event string, fn func(payload any)) {
	t.doc.AddListener(node, event, fn)
	t.recordNamed(protocol.MutListen, node, event, "")
}

// RemoveListener detaches the listener for event.
func (t *Target) RemoveListener(node vdom.Node, event string) {
	t.doc.RemoveListener(node, event)
	t.recordNamed(protocol.MutUnlisten, node, event, "")
}

// Dispatch delivers an event reported by a replica to the local
// listener on the node with wire ID id.
func (t *Target) Dispatch(id uint32, event string, payload any) bool {
	t.mu.Lock()
	target := t.nodes[id]
	t.mu.Unlock()
	if target == nil {
		return false
	}
	return target.Dispatch(event, payload)
}

func (t *Target) recordNamed(op protocol.MutationOp, node vdom.Node, name, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.record(protocol.Mutation{Op: op, ID: t.lookup(node), Name: name, Value: value})
}

func (t *Target) record(m protocol.Mutation) {
	t.pending = append(t.pending, m)
}

func (t *Target) assign(node vdom.Node) uint32 {
	id := t.nextID
	t.nextID++
	n := node.(*dom.Node)
	t.ids[n] = id
	t.nodes[id] = n
	return id
}

func (t *Target) lookup(node vdom.Node) uint32 {
	if node == nil {
		return 0
	}
	n, ok := node.(*dom.Node)
	if !ok {
		return 0
	}
	return t.ids[n]
}

func (t *Target) release(n *dom.Node) {
	if id, ok := t.ids[n]; ok {
		delete(t.nodes, id)
		delete(t.ids, n)
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		t.release(c)
	}
}
