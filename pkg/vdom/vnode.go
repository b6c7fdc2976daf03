package vdom

// Kind is the node type discriminator.
type Kind uint8

const (
	KindEmpty     Kind = iota // Placeholder for invalid or absent nodes
	KindElement               // <div>, <svg>, custom tags
	KindComponent             // Component instance placeholder
	KindText                  // Plain text node
	KindComment               // Comment node
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "Empty"
	case KindElement:
		return "Element"
	case KindComponent:
		return "Component"
	case KindText:
		return "Text"
	case KindComment:
		return "Comment"
	default:
		return "Unknown"
	}
}

// Node is an opaque reference to a node of the real rendering target.
// Only the capability set that created it knows its concrete type.
type Node = any

// ContextID identifies the component instance that owns a VNode.
// Zero means no owner.
type ContextID uint64

// ComponentOptions holds what a component delegate recorded about a
// component-kind VNode.
type ComponentOptions struct {
	Descriptor any      // Resolved component descriptor (opaque)
	Tag        string   // Tag the component was referenced by, if any
	Props      Props    // Props extracted from data
	Children   []*VNode // Slot content passed to the component
}

// Props is a bag of component props.
type Props map[string]any

// VNode is the virtual tree node.
type VNode struct {
	Kind      Kind              // Node type
	Tag       string            // Element tag or component tag name
	Namespace string            // Element namespace, "" for none
	Data      *Data             // Attributes, classes, listeners, directives
	Children  []*VNode          // Child nodes (never set on Text/Comment)
	Text      string            // Text/Comment value, or inline element text
	Key       any               // Reconciliation key (string or number)
	IsStatic  bool              // Never needs re-patching once created
	Forced    bool              // Bypasses the static bail-out
	Context   ContextID         // Owning component instance
	Component *ComponentOptions // For KindComponent

	elm Node
}

// Elm returns the real node this VNode is mapped to, or nil before the
// reconciliation engine has created or adopted one.
func (v *VNode) Elm() Node {
	if v == nil {
		return nil
	}
	return v.elm
}

// BindElm records the real node for v. It is reserved for the
// reconciliation engine; a VNode is otherwise immutable once built.
func (v *VNode) BindElm(n Node) {
	v.elm = n
}

// IsPlaceholder reports whether v renders as a comment placeholder.
func (v *VNode) IsPlaceholder() bool {
	return v != nil && (v.Kind == KindComment || v.Kind == KindEmpty)
}

// HasChildren reports whether v has at least one child.
func (v *VNode) HasChildren() bool {
	return v != nil && len(v.Children) > 0
}

// NewText creates a text node.
func NewText(value string) *VNode {
	return &VNode{Kind: KindText, Text: value}
}

// NewComment creates a comment node.
func NewComment(value string) *VNode {
	return &VNode{Kind: KindComment, Text: value}
}

// NewEmpty creates the Empty placeholder node. It renders as an empty
// comment so it still occupies a slot in the real tree.
func NewEmpty() *VNode {
	return &VNode{Kind: KindEmpty}
}

// NewElement creates an element node. The key is taken from data.
func NewElement(tag string, data *Data, children []*VNode) *VNode {
	n := &VNode{
		Kind:     KindElement,
		Tag:      tag,
		Data:     data,
		Children: children,
	}
	if data != nil {
		n.Key = data.Key
	}
	return n
}
