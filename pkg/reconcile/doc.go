// Package reconcile implements the reconciliation engine.
//
// An Engine is constructed once from a capability set (NodeOps) and an
// ordered list of extension modules. Patch compares an old VNode tree
// with a new one and applies the minimal set of mutations to the real
// rendering target through NodeOps, reusing real nodes for every subtree
// that is still the same.
//
// # Dispatch
//
// Patch(old, new, parent) mounts when old is nil, unmounts when new is
// nil, does nothing when both are the same value, patches in place when
// SameVNode holds and otherwise replaces old with new.
//
// # Keyed children
//
// Children are reconciled with a four-pointer scan that matches heads and
// tails of both lists, falling back to a key map built once per diff for
// arbitrary reorders. After a patch, sibling order in the real tree
// matches the new children exactly.
//
// # Modules
//
// Modules implement any subset of CreateHook, UpdateHook, DestroyHook,
// PostpatchHook, MoveHook and InsertHook. Hooks run in module list order,
// fixed at construction.
//
// # Failures
//
// Patch does not recover panics raised by hooks or NodeOps. A failed
// patch may leave the real tree partially updated; callers must remount
// to restore a known-good state.
package reconcile
