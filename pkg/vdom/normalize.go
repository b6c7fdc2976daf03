package vdom

import (
	"fmt"
	"reflect"

	"github.com/vango-dev/patchwork/internal/errors"
)

// List marks children produced by list rendering. Under full
// normalization, unkeyed elements inside a nested List receive a
// positional default key so list output keeps identity across renders.
type List []any

// Range maps a slice to a List using fn.
func Range[T any](items []T, fn func(item T, index int) any) List {
	result := make(List, 0, len(items))
	for i, item := range items {
		result = append(result, fn(item, i))
	}
	return result
}

// NormalizeChildren fully normalizes hand-authored children: nested
// slices are flattened recursively, nil and bool holes are dropped,
// primitives become text nodes and adjacent text nodes are merged.
// A dropped hole separates its neighbours, so text on either side of
// a hole is not merged.
func NormalizeChildren(children any) []*VNode {
	return normalizeChildren(children, nil)
}

// SimpleNormalizeChildren flattens exactly one level of nesting.
// Primitives are coerced to text without merging; deeper nesting is
// dropped.
func SimpleNormalizeChildren(children any) []*VNode {
	return simpleNormalizeChildren(children, nil)
}

func normalizeChildren(children any, report func(*errors.Error)) []*VNode {
	if items, isList, ok := toItems(children); ok {
		res, _, _ := normalizeArray(items, "", isList, report)
		return res
	}
	return coerceChildren(children, report)
}

// normalizeArray flattens items. It also reports whether a dropped hole
// precedes the first emitted node or follows the last one, so callers can
// avoid merging text across it.
func normalizeArray(items []any, nestedIndex string, isList bool, report func(*errors.Error)) (res []*VNode, leadingHole, trailingHole bool) {
	res = make([]*VNode, 0, len(items))
	hole := false

	for i, c := range items {
		if isHole(c) {
			hole = true
			if len(res) == 0 {
				leadingHole = true
			}
			continue
		}

		var last *VNode
		if len(res) > 0 && !hole {
			last = res[len(res)-1]
		}

		if sub, subList, ok := toItems(c); ok {
			if len(sub) == 0 {
				continue
			}
			out, lead, trail := normalizeArray(sub, fmt.Sprintf("%s_%d", nestedIndex, i), subList, report)
			if len(out) == 0 {
				hole = hole || lead || trail
				if len(res) == 0 && hole {
					leadingHole = true
				}
				continue
			}
			if !lead && isTextNode(out[0]) && isTextNode(last) {
				res[len(res)-1] = NewText(last.Text + out[0].Text)
				out = out[1:]
			}
			if len(res) == 0 && (hole || lead) {
				leadingHole = true
			}
			res = append(res, out...)
			hole = trail
			continue
		}

		switch v := c.(type) {
		case *VNode:
			if isTextNode(v) && isTextNode(last) {
				res[len(res)-1] = NewText(last.Text + v.Text)
				break
			}
			if isList && nestedIndex != "" && v.Kind == KindElement && v.Key == nil {
				keyed := *v
				keyed.Key = fmt.Sprintf("__vlist%s_%d__", nestedIndex, i)
				v = &keyed
			}
			if len(res) == 0 && hole {
				leadingHole = true
			}
			res = append(res, v)
		default:
			if !IsPrimitive(c) {
				if report != nil {
					report(errors.New("V004").WithDetailf("child of type %T", c))
				}
				hole = true
				if len(res) == 0 {
					leadingHole = true
				}
				continue
			}
			s := primitiveText(c)
			if isTextNode(last) {
				res[len(res)-1] = NewText(last.Text + s)
			} else if s != "" {
				if len(res) == 0 && hole {
					leadingHole = true
				}
				res = append(res, NewText(s))
			}
		}
		hole = false
	}

	return res, leadingHole, hole
}

func simpleNormalizeChildren(children any, report func(*errors.Error)) []*VNode {
	items, _, ok := toItems(children)
	if !ok {
		return coerceChildren(children, report)
	}
	res := make([]*VNode, 0, len(items))
	for _, c := range items {
		if sub, _, ok := toItems(c); ok {
			for _, s := range sub {
				res = appendCoerced(res, s, report)
			}
			continue
		}
		res = appendCoerced(res, c, report)
	}
	return res
}

// coerceChildren converts already-flat children without flattening.
func coerceChildren(children any, report func(*errors.Error)) []*VNode {
	if children == nil {
		return nil
	}
	if nodes, ok := children.([]*VNode); ok {
		return nodes
	}
	items, _, ok := toItems(children)
	if !ok {
		return appendCoerced(nil, children, report)
	}
	res := make([]*VNode, 0, len(items))
	for _, c := range items {
		res = appendCoerced(res, c, report)
	}
	return res
}

func appendCoerced(res []*VNode, c any, report func(*errors.Error)) []*VNode {
	if isHole(c) {
		return res
	}
	if v, ok := c.(*VNode); ok {
		return append(res, v)
	}
	if IsPrimitive(c) {
		return append(res, NewText(primitiveText(c)))
	}
	if report != nil {
		report(errors.New("V004").WithDetailf("child of type %T", c))
	}
	return res
}

// toItems converts any slice value to []any.
func toItems(v any) (items []any, isList bool, ok bool) {
	switch s := v.(type) {
	case nil:
		return nil, false, false
	case List:
		return []any(s), true, true
	case []any:
		return s, false, true
	case []*VNode:
		items = make([]any, len(s))
		for i, n := range s {
			if n != nil {
				items[i] = n
			}
		}
		return items, false, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, false, false
	}
	items = make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, false, true
}

func isHole(v any) bool {
	switch n := v.(type) {
	case nil:
		return true
	case bool:
		return true
	case *VNode:
		return n == nil
	}
	return false
}

func isTextNode(n *VNode) bool {
	return n != nil && n.Kind == KindText
}
