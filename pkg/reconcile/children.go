package reconcile

import "github.com/vango-dev/patchwork/pkg/vdom"

// updateChildren reconciles two non-empty child lists under parent.
//
// It scans both lists from each end, trying head/head, tail/tail,
// head/tail and tail/head matches before falling back to a key lookup.
// Old children matched out of order are recorded in consumed instead of
// being cleared from oldCh, so the old tree is never written to.
func (r *run) updateChildren(parent vdom.Node, oldCh, newCh []*vdom.VNode) {
	ops := r.e.ops
	r.checkDuplicateKeys(newCh)

	oldStart, oldEnd := 0, len(oldCh)-1
	newStart, newEnd := 0, len(newCh)-1
	consumed := make([]bool, len(oldCh))

	var keyIndex map[any]int

	for oldStart <= oldEnd && newStart <= newEnd {
		oldStartV, oldEndV := oldCh[oldStart], oldCh[oldEnd]
		newStartV, newEndV := newCh[newStart], newCh[newEnd]

		switch {
		case oldStartV == nil || consumed[oldStart]:
			oldStart++
		case oldEndV == nil || consumed[oldEnd]:
			oldEnd--
		case newStartV == nil:
			newStart++
		case newEndV == nil:
			newEnd--

		case SameVNode(oldStartV, newStartV):
			r.patchVnode(oldStartV, newStartV)
			oldStart++
			newStart++
		case SameVNode(oldEndV, newEndV):
			r.patchVnode(oldEndV, newEndV)
			oldEnd--
			newEnd--

		case SameVNode(oldStartV, newEndV):
			// Moved right.
			r.patchVnode(oldStartV, newEndV)
			ops.InsertBefore(parent, newEndV.Elm(), ops.NextSibling(oldEndV.Elm()))
			r.invokeMoveHook(newEndV)
			oldStart++
			newEnd--
		case SameVNode(oldEndV, newStartV):
			// Moved left.
			r.patchVnode(oldEndV, newStartV)
			ops.InsertBefore(parent, newStartV.Elm(), oldStartV.Elm())
			r.invokeMoveHook(newStartV)
			oldEnd--
			newStart++

		default:
			if keyIndex == nil {
				keyIndex = buildKeyIndex(oldCh, oldStart, oldEnd)
			}
			idx := -1
			if newStartV.Key != nil {
				if i, ok := lookupKey(keyIndex, newStartV.Key); ok && i >= oldStart && i <= oldEnd && !consumed[i] {
					idx = i
				}
			} else {
				idx = findIdxInOld(newStartV, oldCh, oldStart, oldEnd, consumed)
			}

			if idx >= 0 && SameVNode(oldCh[idx], newStartV) {
				r.patchVnode(oldCh[idx], newStartV)
				consumed[idx] = true
				ops.InsertBefore(parent, newStartV.Elm(), oldStartV.Elm())
				r.invokeMoveHook(newStartV)
			} else {
				// New element, or same key with a different identity.
				r.createElm(newStartV, parent, oldStartV.Elm())
			}
			newStart++
		}
	}

	if oldStart > oldEnd {
		var ref vdom.Node
		if newEnd+1 < len(newCh) && newCh[newEnd+1] != nil {
			ref = newCh[newEnd+1].Elm()
		}
		r.addVnodes(parent, ref, newCh, newStart, newEnd)
	} else if newStart > newEnd {
		r.removeVnodes(parent, oldCh, oldStart, oldEnd, consumed)
	}
}

// buildKeyIndex maps keys of oldCh[start..end] to their positions.
// Keys that cannot be map keys are left out and only ever match by scan.
func buildKeyIndex(oldCh []*vdom.VNode, start, end int) map[any]int {
	index := make(map[any]int, end-start+1)
	for i := start; i <= end; i++ {
		c := oldCh[i]
		if c == nil || c.Key == nil || !vdom.IsPrimitive(c.Key) {
			continue
		}
		if _, dup := index[c.Key]; !dup {
			index[c.Key] = i
		}
	}
	return index
}

func lookupKey(index map[any]int, key any) (int, bool) {
	if !vdom.IsPrimitive(key) {
		return 0, false
	}
	i, ok := index[key]
	return i, ok
}

// findIdxInOld linearly searches oldCh[start..end] for an unconsumed node
// SameVNode-equal to node.
func findIdxInOld(node *vdom.VNode, oldCh []*vdom.VNode, start, end int, consumed []bool) int {
	for i := start; i <= end; i++ {
		if c := oldCh[i]; c != nil && !consumed[i] && SameVNode(c, node) {
			return i
		}
	}
	return -1
}
