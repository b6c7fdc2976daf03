// Package vdom provides the virtual tree model and the Tree Builder.
//
// A VNode is an immutable-by-convention description of one node of a
// rendering target. Trees are produced fresh on every render pass and
// handed to the reconcile package, which diffs them against the previous
// pass and mutates the real target.
//
// # Core Types
//
// VNode is a closed tagged variant discriminated by Kind: elements,
// components, text, comments and the Empty placeholder. Data is the
// opaque bag of attributes, classes, styles, listeners and directives
// consumed by extension modules.
//
// # Building
//
// Builder.Build turns a tag/data/children description into a VNode:
//
//	b := vdom.NewBuilder()
//	node := b.Build(ctx, "ul", &vdom.Data{StaticClass: "list"}, []any{
//	    b.Build(ctx, "li", &vdom.Data{Key: 1}, "one", vdom.NormalizeNone, true),
//	    b.Build(ctx, "li", &vdom.Data{Key: 2}, "two", vdom.NormalizeNone, true),
//	}, vdom.NormalizeNone, true)
//
// Build never fails: invalid input degrades to an Empty node and a
// diagnostic reported through the builder's logger and sink.
//
// # Normalization
//
// NormalizeChildren fully flattens hand-authored children, dropping nil
// holes and coercing primitives to text. SimpleNormalizeChildren flattens
// exactly one level for trees that are already normalized.
//
// # Namespaces
//
// Elements inherit the namespace of their nearest namespaced ancestor.
// A namespace-escaping element (foreignObject in HTML) resets the
// namespace for everything below it.
package vdom
