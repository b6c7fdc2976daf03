package dom

import (
	"bytes"
	"io"
	"strings"

	"github.com/vango-dev/patchwork/pkg/vdom"
)

// Options configures serialization.
type Options struct {
	// Pretty enables indented output. Inline elements stay on one line.
	Pretty bool

	// Indent is the string used per indentation level in pretty mode.
	// Defaults to two spaces.
	Indent string
}

// HTML serializes n and its subtree.
func HTML(n *Node) string {
	var buf bytes.Buffer
	_ = Write(&buf, n, Options{})
	return buf.String()
}

// InnerHTML serializes the children of n.
func InnerHTML(n *Node) string {
	var buf bytes.Buffer
	for c := n.firstChild; c != nil; c = c.next {
		_ = Write(&buf, c, Options{})
	}
	return buf.String()
}

// Write streams the serialization of n to w.
func Write(w io.Writer, n *Node, opts Options) error {
	if opts.Indent == "" {
		opts.Indent = "  "
	}
	s := &serializer{w: w, opts: opts}
	s.node(n, 0)
	return s.err
}

type serializer struct {
	w    io.Writer
	opts Options
	err  error
}

func (s *serializer) write(str string) {
	if s.err != nil {
		return
	}
	_, s.err = io.WriteString(s.w, str)
}

func (s *serializer) node(n *Node, depth int) {
	if n == nil {
		return
	}
	switch n.Type {
	case ElementNode:
		s.element(n, depth)
	case TextNode:
		s.write(escapeHTML(n.data))
	case CommentNode:
		s.write("<!--")
		s.write(escapeComment(n.data))
		s.write("-->")
	}
}

func (s *serializer) element(n *Node, depth int) {
	if s.opts.Pretty && depth > 0 {
		s.indent(depth)
	}

	s.write("<")
	s.write(n.Tag)
	s.attributes(n)
	s.write(">")

	if n.Namespace == "" && vdom.IsVoidElement(n.Tag) {
		if s.opts.Pretty {
			s.write("\n")
		}
		return
	}

	block := s.opts.Pretty && n.firstChild != nil && !isInlineElement(n.Tag) && !textOnly(n)
	if block {
		s.write("\n")
	}
	for c := n.firstChild; c != nil; c = c.next {
		if block && c.Type != ElementNode {
			s.indent(depth + 1)
		}
		s.node(c, depth+1)
		if block && c.Type != ElementNode {
			s.write("\n")
		}
	}
	if block {
		s.indent(depth)
	}

	s.write("</")
	s.write(n.Tag)
	s.write(">")
	if s.opts.Pretty {
		s.write("\n")
	}
}

func (s *serializer) attributes(n *Node) {
	for _, name := range sortedKeys(n.attrs) {
		if name == "style" && len(n.style) > 0 {
			continue
		}
		s.attribute(name, n.attrs[name])
	}
	if len(n.style) > 0 {
		s.attribute("style", styleText(n.style))
	}
}

func (s *serializer) attribute(name, value string) {
	s.write(" ")
	s.write(name)
	if value == "" {
		return
	}
	s.write(`="`)
	s.write(escapeAttr(value))
	s.write(`"`)
}

func (s *serializer) indent(depth int) {
	s.write(strings.Repeat(s.opts.Indent, depth))
}

func styleText(style map[string]string) string {
	var sb strings.Builder
	for i, prop := range sortedKeys(style) {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(prop)
		sb.WriteString(": ")
		sb.WriteString(style[prop])
		sb.WriteString(";")
	}
	return sb.String()
}

func textOnly(n *Node) bool {
	for c := n.firstChild; c != nil; c = c.next {
		if c.Type == ElementNode {
			return false
		}
	}
	return true
}

// inlineElements stay on one line in pretty output.
var inlineElements = map[string]bool{
	"a":      true,
	"abbr":   true,
	"b":      true,
	"bdi":    true,
	"bdo":    true,
	"br":     true,
	"cite":   true,
	"code":   true,
	"data":   true,
	"dfn":    true,
	"em":     true,
	"i":      true,
	"kbd":    true,
	"mark":   true,
	"q":      true,
	"s":      true,
	"samp":   true,
	"small":  true,
	"span":   true,
	"strong": true,
	"sub":    true,
	"sup":    true,
	"time":   true,
	"u":      true,
	"var":    true,
	"wbr":    true,
}

func isInlineElement(tag string) bool {
	return inlineElements[tag]
}
