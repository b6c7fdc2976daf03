// Package live streams a patched document to browsers over WebSocket.
//
// A Hub owns a remote.Target. Callers patch the target inside Update;
// the hub then flushes the recorded mutations as one sequenced batch
// and sends it to every connected client:
//
//	target := remote.NewTarget(dom.NewDocument())
//	engine := reconcile.New(target, modules.Default(target, nil, nil))
//	hub := live.NewHub(target)
//	defer hub.Close()
//
//	var tree *vdom.VNode
//	hub.Update(func() {
//	    next := render()
//	    engine.Patch(tree, next, target.Root())
//	    tree = next
//	})
//
//	http.ListenAndServe(":8080", hub.Routes())
//
// # Connection lifecycle
//
// On connect a client receives a Hello frame with its ID and the
// current sequence, followed by a Snapshot frame that rebuilds the
// whole tree. Every later batch arrives as a Mutations frame with the
// next sequence number. A client that detects a gap sends a resync
// control message and receives a fresh snapshot. Payloads above the
// frame size limit are split into several frames.
package live
