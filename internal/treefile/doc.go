// Package treefile loads declarative tree descriptions from YAML or
// JSON and turns them into VNodes through a vdom.Builder.
//
// A file holds one or more frames, the successive states of a tree.
// Each YAML document is either a bare node or a mapping with a root
// node, a list of frames and component templates:
//
//	components:
//	  card:
//	    tag: section
//	    class: card
//	    children:
//	      - tag: h2
//	        children: "{{title}}"
//	      - slot: true
//	frames:
//	  - tag: main
//	    children:
//	      - tag: card
//	        props: {title: First}
//	        children: [hello]
//	  - tag: main
//	    children:
//	      - tag: card
//	        props: {title: Second}
//	---
//	tag: main
//	children: [done]
//
// Node fields are tag, key, is, ref, refInFor, attrs, staticClass,
// class, style, on, props, children, text and static. A mapping with
// only comment, slot or list is a comment node, the slot content of
// the enclosing component or a keyed-by-position list. Scalars are text
// children; null and booleans are holes. Nested sequences are flattened.
//
// Component templates interpolate {{prop}} references in strings.
// Host renders them as instances for the reconciliation engine.
package treefile
