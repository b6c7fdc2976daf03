// Package remote mirrors a patched document to another process.
//
// A Target wraps a dom.Document and is handed to the reconciliation
// engine and the modules in place of the document itself. Every
// mutating call is applied locally and recorded as a protocol.Mutation
// against a stable uint32 wire ID. Flush drains the recorded batch.
//
//	doc := dom.NewDocument()
//	target := remote.NewTarget(doc)
//	engine := reconcile.New(target, modules.Default(target, nil, nil))
//	engine.Patch(nil, tree, target.Root())
//	frame := target.Flush(1)
//
// A Replica applies those batches to its own document, so the two
// serialize to the same HTML after every flush.
package remote
