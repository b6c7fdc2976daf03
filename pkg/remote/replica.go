package remote

import (
	"errors"
	"fmt"
	"sync"

	"github.com/vango-dev/patchwork/pkg/dom"
	"github.com/vango-dev/patchwork/pkg/protocol"
)

var (
	// ErrSequenceGap is returned when a batch does not directly follow
	// the last applied one. The replica needs a snapshot to recover.
	ErrSequenceGap = errors.New("remote: mutation sequence gap")

	// ErrUnknownNode is returned when a mutation names a wire ID the
	// replica does not know.
	ErrUnknownNode = errors.New("remote: unknown node")

	// ErrBadStructure is returned when an insert or removal does not
	// match the replica's tree.
	ErrBadStructure = errors.New("remote: mutation does not match tree")
)

// EventFunc receives events fired on replica nodes, addressed by the
// wire ID of the node that listens for them.
type EventFunc func(id uint32, event string, payload any)

// Replica rebuilds a Target's document from its mutation batches.
type Replica struct {
	doc     *dom.Document
	onEvent EventFunc

	mu    sync.Mutex
	nodes map[uint32]*dom.Node
	ids   map[*dom.Node]uint32
	seq   uint64
}

// NewReplica creates a replica rendering into doc. onEvent may be nil.
func NewReplica(doc *dom.Document, onEvent EventFunc) *Replica {
	r := &Replica{doc: doc, onEvent: onEvent}
	r.reset()
	return r
}

// Document returns the replica's document.
func (r *Replica) Document() *dom.Document {
	return r.doc
}

// Seq returns the sequence number of the last applied batch.
func (r *Replica) Seq() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seq
}

// Apply applies a batch that must directly follow the last one. A batch
// that fails part way leaves the mutations before the failing one
// applied; callers recover with ApplySnapshot.
func (r *Replica) Apply(mf *protocol.MutationsFrame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if mf.Seq != r.seq+1 {
		return fmt.Errorf("%w: have %d, got %d", ErrSequenceGap, r.seq, mf.Seq)
	}
	if err := r.applyAll(mf.Mutations); err != nil {
		return err
	}
	r.seq = mf.Seq
	return nil
}

// ApplySnapshot clears the document and rebuilds it from a batch made
// by Target.Snapshot.
func (r *Replica) ApplySnapshot(mf *protocol.MutationsFrame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	root := r.doc.Root()
	for c := root.FirstChild(); c != nil; c = root.FirstChild() {
		r.doc.RemoveChild(root, c)
	}
	r.reset()
	if err := r.applyAll(mf.Mutations); err != nil {
		return err
	}
	r.seq = mf.Seq
	return nil
}

// Node returns the node with wire ID id.
func (r *Replica) Node(id uint32) *dom.Node {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nodes[id]
}

func (r *Replica) reset() {
	r.nodes = map[uint32]*dom.Node{RootID: r.doc.Root()}
	r.ids = map[*dom.Node]uint32{r.doc.Root(): RootID}
	r.seq = 0
}

func (r *Replica) applyAll(muts []protocol.Mutation) error {
	for i := range muts {
		if err := r.apply(&muts[i]); err != nil {
			return fmt.Errorf("mutation %d (%s): %w", i, muts[i].Op, err)
		}
	}
	return nil
}

func (r *Replica) apply(m *protocol.Mutation) error {
	switch m.Op {
	case protocol.MutCreateElement:
		return r.create(m.ID, r.doc.CreateElement(m.Name, m.Value).(*dom.Node))
	case protocol.MutCreateText:
		return r.create(m.ID, r.doc.CreateText(m.Value).(*dom.Node))
	case protocol.MutCreateComment:
		return r.create(m.ID, r.doc.CreateComment(m.Value).(*dom.Node))
	}

	n, err := r.node(m.ID)
	if err != nil {
		return err
	}
	switch m.Op {
	case protocol.MutInsertBefore:
		parent, err := r.node(m.Parent)
		if err != nil {
			return err
		}
		if m.Ref == 0 {
			r.doc.AppendChild(parent, n)
			return nil
		}
		ref, err := r.node(m.Ref)
		if err != nil {
			return err
		}
		if ref.Parent() != parent {
			return fmt.Errorf("%w: #%d is not a child of #%d", ErrBadStructure, m.Ref, m.Parent)
		}
		r.doc.InsertBefore(parent, n, ref)
	case protocol.MutRemoveChild:
		parent, err := r.node(m.Parent)
		if err != nil {
			return err
		}
		if n.Parent() != parent {
			return fmt.Errorf("%w: #%d is not a child of #%d", ErrBadStructure, m.ID, m.Parent)
		}
		r.doc.RemoveChild(parent, n)
		r.forget(n)
	case protocol.MutSetText:
		if n.Type == dom.ElementNode {
			for _, c := range n.Children() {
				r.forget(c)
			}
		}
		r.doc.SetText(n, m.Value)
	case protocol.MutSetAttribute:
		r.doc.SetAttribute(n, m.Name, m.Value)
	case protocol.MutRemoveAttribute:
		r.doc.RemoveAttribute(n, m.Name)
	case protocol.MutSetStyle:
		r.doc.SetStyle(n, m.Name, m.Value)
	case protocol.MutRemoveStyle:
		r.doc.RemoveStyle(n, m.Name)
	case protocol.MutListen:
		id, event := m.ID, m.Name
		r.doc.AddListener(n, event, func(payload any) {
			if r.onEvent != nil {
				r.onEvent(id, event, payload)
			}
		})
	case protocol.MutUnlisten:
		r.doc.RemoveListener(n, m.Name)
	default:
		return fmt.Errorf("remote: unsupported op %s", m.Op)
	}
	return nil
}

func (r *Replica) create(id uint32, n *dom.Node) error {
	if id == 0 || id == RootID {
		return fmt.Errorf("%w: cannot create #%d", ErrBadStructure, id)
	}
	r.nodes[id] = n
	r.ids[n] = id
	return nil
}

func (r *Replica) node(id uint32) (*dom.Node, error) {
	n, ok := r.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: #%d", ErrUnknownNode, id)
	}
	return n, nil
}

func (r *Replica) forget(n *dom.Node) {
	if id, ok := r.ids[n]; ok {
		delete(r.nodes, id)
		delete(r.ids, n)
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		r.forget(c)
	}
}
