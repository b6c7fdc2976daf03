package dom

import (
	"fmt"
	"io"
	"sync"

	"github.com/vango-dev/patchwork/pkg/vdom"
)

// Stats counts capability calls made against a Document.
type Stats struct {
	CreateElement   int
	CreateText      int
	CreateComment   int
	InsertBefore    int
	RemoveChild     int
	AppendChild     int
	SetText         int
	NextSibling     int
	ParentOf        int
	TagOf           int
	SetAttribute    int
	RemoveAttribute int
	SetStyle        int
	RemoveStyle     int
	AddListener     int
	RemoveListener  int
}

// Creates returns the number of nodes created.
func (s Stats) Creates() int {
	return s.CreateElement + s.CreateText + s.CreateComment
}

// Mutations returns the number of calls that changed the tree structure
// or text, excluding creations.
func (s Stats) Mutations() int {
	return s.InsertBefore + s.RemoveChild + s.AppendChild + s.SetText
}

// Total returns the number of calls of any kind.
func (s Stats) Total() int {
	return s.Creates() + s.Mutations() + s.NextSibling + s.ParentOf + s.TagOf +
		s.SetAttribute + s.RemoveAttribute + s.SetStyle + s.RemoveStyle +
		s.AddListener + s.RemoveListener
}

// Document is an in-memory rendering target. It is safe for concurrent
// use; each call holds the document lock.
type Document struct {
	mu    sync.RWMutex
	root  *Node
	stats Stats
}

// NewDocument creates a Document with an empty <body> root.
func NewDocument() *Document {
	return &Document{
		root: &Node{Type: ElementNode, Tag: "body"},
	}
}

// Root returns the document's <body> container.
func (d *Document) Root() *Node {
	return d.root
}

// Stats returns the call counts since creation or the last ResetStats.
func (d *Document) Stats() Stats {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.stats
}

// ResetStats zeroes the call counts.
func (d *Document) ResetStats() {
	d.mu.Lock()
	d.stats = Stats{}
	d.mu.Unlock()
}

// HTML serializes the children of the root.
func (d *Document) HTML() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return InnerHTML(d.root)
}

// WriteTo writes the serialized children of the root to w.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	cw := &countingWriter{w: w}
	for c := d.root.firstChild; c != nil; c = c.next {
		if err := Write(cw, c, Options{}); err != nil {
			return cw.n, err
		}
	}
	return cw.n, nil
}

// CreateElement creates an element node.
func (d *Document) CreateElement(tag, ns string) vdom.Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.CreateElement++
	return &Node{Type: ElementNode, Tag: tag, Namespace: ns}
}

// CreateText creates a text node.
func (d *Document) CreateText(value string) vdom.Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.CreateText++
	return &Node{Type: TextNode, data: value}
}

// CreateComment creates a comment node.
func (d *Document) CreateComment(value string) vdom.Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.CreateComment++
	return &Node{Type: CommentNode, data: value}
}

// InsertBefore inserts node under parent before ref, or appends it when
// ref is nil. It panics if ref is not a child of parent.
func (d *Document) InsertBefore(parent, node, ref vdom.Node) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.InsertBefore++
	p, n := mustNode(parent), mustNode(node)
	r := asNode(ref)
	if r == n {
		return
	}
	if r != nil && r.parent != p {
		panic(fmt.Sprintf("dom: insert before a node that is not a child of <%s>", p.Tag))
	}
	p.insertBefore(n, r)
}

// RemoveChild detaches node from parent. It panics if node is not a
// child of parent.
func (d *Document) RemoveChild(parent, node vdom.Node) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.RemoveChild++
	p, n := mustNode(parent), mustNode(node)
	if n.parent != p {
		panic(fmt.Sprintf("dom: remove of a node that is not a child of <%s>", p.Tag))
	}
	n.detach()
}

// AppendChild appends node as the last child of parent.
func (d *Document) AppendChild(parent, node vdom.Node) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.AppendChild++
	mustNode(parent).insertBefore(mustNode(node), nil)
}

// SetText sets the value of a text or comment node. On an element it
// replaces all children with a single text node, or none for "".
func (d *Document) SetText(node vdom.Node, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.SetText++
	n := mustNode(node)
	if n.Type != ElementNode {
		n.data = value
		return
	}
	n.removeChildren()
	if value != "" {
		n.insertBefore(&Node{Type: TextNode, data: value}, nil)
	}
}

// NextSibling returns the following sibling of node, or nil.
func (d *Document) NextSibling(node vdom.Node) vdom.Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.NextSibling++
	if next := mustNode(node).next; next != nil {
		return next
	}
	return nil
}

// ParentOf returns the parent of node, or nil.
func (d *Document) ParentOf(node vdom.Node) vdom.Node {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.ParentOf++
	if p := mustNode(node).parent; p != nil {
		return p
	}
	return nil
}

// TagOf returns the tag of an element node, or "".
func (d *Document) TagOf(node vdom.Node) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.TagOf++
	return mustNode(node).Tag
}

// SetAttribute sets an attribute on an element.
func (d *Document) SetAttribute(node vdom.Node, name, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.SetAttribute++
	n := mustNode(node)
	if n.attrs == nil {
		n.attrs = make(map[string]string)
	}
	n.attrs[name] = value
}

// RemoveAttribute removes an attribute from an element.
func (d *Document) RemoveAttribute(node vdom.Node, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.RemoveAttribute++
	delete(mustNode(node).attrs, name)
}

// SetStyle sets an inline style property.
func (d *Document) SetStyle(node vdom.Node, prop, value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.SetStyle++
	n := mustNode(node)
	if n.style == nil {
		n.style = make(map[string]string)
	}
	n.style[prop] = value
}

// RemoveStyle removes an inline style property.
func (d *Document) RemoveStyle(node vdom.Node, prop string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.RemoveStyle++
	delete(mustNode(node).style, prop)
}

// AddListener attaches fn for event, replacing any previous listener.
func (d *Document) AddListener(node vdom.Node, event string, fn func(payload any)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.AddListener++
	n := mustNode(node)
	if n.listeners == nil {
		n.listeners = make(map[string]Listener)
	}
	n.listeners[event] = fn
}

// RemoveListener detaches the listener for event.
func (d *Document) RemoveListener(node vdom.Node, event string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.RemoveListener++
	delete(mustNode(node).listeners, event)
}

func asNode(v vdom.Node) *Node {
	if v == nil {
		return nil
	}
	n, _ := v.(*Node)
	return n
}

func mustNode(v vdom.Node) *Node {
	n, ok := v.(*Node)
	if !ok || n == nil {
		panic(fmt.Sprintf("dom: %T is not a document node", v))
	}
	return n
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
