package reconcile

import "github.com/vango-dev/patchwork/pkg/vdom"

// NodeOps is the capability set over the real rendering target.
// The engine touches the real tree exclusively through it.
type NodeOps interface {
	// CreateElement creates an element; ns is "" for the default namespace.
	CreateElement(tag, ns string) vdom.Node

	// CreateText creates a text node.
	CreateText(value string) vdom.Node

	// CreateComment creates a comment node.
	CreateComment(value string) vdom.Node

	// InsertBefore inserts node under parent before ref, or appends when
	// ref is nil. Inserting a node that is already attached moves it.
	InsertBefore(parent, node, ref vdom.Node)

	// RemoveChild detaches node from parent.
	RemoveChild(parent, node vdom.Node)

	// AppendChild appends node as the last child of parent.
	AppendChild(parent, node vdom.Node)

	// SetText replaces the textual content of node.
	SetText(node vdom.Node, value string)

	// NextSibling returns the following sibling of node, or nil.
	NextSibling(node vdom.Node) vdom.Node

	// ParentOf returns the parent of node, or nil.
	ParentOf(node vdom.Node) vdom.Node

	// TagOf returns the tag of an element node, or "".
	TagOf(node vdom.Node) string
}
