// Package dom provides an in-memory rendering target for the
// reconciliation engine.
//
// A Document creates and mutates *Node values and implements both
// reconcile.NodeOps and modules.ElementOps, so it can back an Engine
// directly:
//
//	doc := dom.NewDocument()
//	engine := reconcile.New(doc, modules.Default(doc, nil, nil))
//	engine.Patch(nil, tree, doc.Root())
//	fmt.Println(dom.HTML(doc.Root()))
//
// Every capability call is counted. Stats and ResetStats make it easy
// to assert how much work a patch performed.
//
// # Serialization
//
// HTML and Write serialize a subtree with escaped text and attribute
// values, void elements without closing tags, and attributes in sorted
// order so output is deterministic.
package dom
