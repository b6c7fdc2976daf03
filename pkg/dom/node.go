package dom

import (
	"sort"
	"strings"
)

// NodeType identifies the type of a Node.
type NodeType uint8

const (
	ElementNode NodeType = iota + 1
	TextNode
	CommentNode
)

// String returns the string representation of the NodeType.
func (t NodeType) String() string {
	switch t {
	case ElementNode:
		return "element"
	case TextNode:
		return "text"
	case CommentNode:
		return "comment"
	default:
		return "unknown"
	}
}

// Listener receives an event payload.
type Listener func(payload any)

// Node is a node of an in-memory document.
//
// Nodes are mutated only through their Document. The read accessors
// are not synchronized with concurrent Document mutations.
type Node struct {
	Type      NodeType
	Tag       string // Element tag
	Namespace string // Element namespace, "" for HTML

	data      string // Text or comment value
	attrs     map[string]string
	style     map[string]string
	listeners map[string]Listener

	parent     *Node
	firstChild *Node
	lastChild  *Node
	prev       *Node
	next       *Node
}

// Parent returns the parent node, or nil.
func (n *Node) Parent() *Node { return n.parent }

// FirstChild returns the first child, or nil.
func (n *Node) FirstChild() *Node { return n.firstChild }

// NextSibling returns the following sibling, or nil.
func (n *Node) NextSibling() *Node { return n.next }

// Children returns the child nodes in order.
func (n *Node) Children() []*Node {
	var out []*Node
	for c := n.firstChild; c != nil; c = c.next {
		out = append(out, c)
	}
	return out
}

// Data returns the value of a text or comment node.
func (n *Node) Data() string { return n.data }

// TextContent returns the concatenated text of n and its descendants.
func (n *Node) TextContent() string {
	switch n.Type {
	case TextNode:
		return n.data
	case CommentNode:
		return ""
	}
	var sb strings.Builder
	for c := n.firstChild; c != nil; c = c.next {
		sb.WriteString(c.TextContent())
	}
	return sb.String()
}

// Attr returns the value of the named attribute.
func (n *Node) Attr(name string) (string, bool) {
	v, ok := n.attrs[name]
	return v, ok
}

// AttrNames returns the attribute names in sorted order.
func (n *Node) AttrNames() []string {
	return sortedKeys(n.attrs)
}

// Style returns the value of an inline style property.
func (n *Node) Style(prop string) (string, bool) {
	v, ok := n.style[prop]
	return v, ok
}

// StyleNames returns the inline style properties in sorted order.
func (n *Node) StyleNames() []string {
	return sortedKeys(n.style)
}

// Events returns the events with an attached listener in sorted order.
func (n *Node) Events() []string {
	return sortedKeys(n.listeners)
}

// HasListener reports whether a listener is attached for event.
func (n *Node) HasListener(event string) bool {
	_, ok := n.listeners[event]
	return ok
}

// Dispatch invokes the listener for event and reports whether one ran.
func (n *Node) Dispatch(event string, payload any) bool {
	l, ok := n.listeners[event]
	if !ok {
		return false
	}
	l(payload)
	return true
}

func (n *Node) detach() {
	p := n.parent
	if p == nil {
		return
	}
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		p.firstChild = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		p.lastChild = n.prev
	}
	n.parent, n.prev, n.next = nil, nil, nil
}

// insertBefore links child under n before ref, or last when ref is nil.
func (n *Node) insertBefore(child, ref *Node) {
	child.detach()
	child.parent = n
	if ref == nil {
		child.prev = n.lastChild
		if n.lastChild != nil {
			n.lastChild.next = child
		} else {
			n.firstChild = child
		}
		n.lastChild = child
		return
	}
	child.next = ref
	child.prev = ref.prev
	if ref.prev != nil {
		ref.prev.next = child
	} else {
		n.firstChild = child
	}
	ref.prev = child
}

func (n *Node) removeChildren() {
	for c := n.firstChild; c != nil; {
		next := c.next
		c.parent, c.prev, c.next = nil, nil, nil
		c = next
	}
	n.firstChild, n.lastChild = nil, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
