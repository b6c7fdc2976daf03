package treefile

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/patchwork/pkg/vdom"
)

// Handler returns the listener for an action named in an "on" field.
type Handler func(action string) func(payload any)

// Loader builds VNodes from a File.
type Loader struct {
	file    *File
	builder *vdom.Builder
	handler Handler
	logger  *slog.Logger
	ctx     *vdom.StaticContext
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithBuilder sets the builder. Default: vdom.NewBuilder with the
// loader's logger.
func WithBuilder(b *vdom.Builder) LoaderOption {
	return func(l *Loader) {
		l.builder = b
	}
}

// WithHandler sets how actions resolve to listeners. By default every
// action logs the event at debug level.
func WithHandler(h Handler) LoaderOption {
	return func(l *Loader) {
		l.handler = h
	}
}

// WithLogger sets the logger. If nil, slog.Default() is used.
func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// NewLoader creates a Loader for f.
func NewLoader(f *File, opts ...LoaderOption) *Loader {
	l := &Loader{file: f}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	if l.builder == nil {
		l.builder = vdom.NewBuilder(vdom.WithLogger(l.logger))
	}
	if l.handler == nil {
		l.handler = func(action string) func(any) {
			return func(payload any) {
				l.logger.Debug("treefile: action", "action", action, "payload", payload)
			}
		}
	}

	components := make(map[string]any, len(f.Components))
	for name, c := range f.Components {
		components[name] = c
	}
	l.ctx = &vdom.StaticContext{Ident: 1, Components: components}
	return l
}

// Frame builds frame i.
func (l *Loader) Frame(i int) (*vdom.VNode, error) {
	if i < 0 || i >= len(l.file.frames) {
		return nil, fmt.Errorf("treefile: frame %d out of range [0,%d)", i, len(l.file.frames))
	}
	return l.root(l.file.frames[i], nil)
}

// Frames builds every frame in order.
func (l *Loader) Frames() ([]*vdom.VNode, error) {
	out := make([]*vdom.VNode, len(l.file.frames))
	for i := range out {
		n, err := l.Frame(i)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

// Render builds one instance of component c.
func (l *Loader) Render(c *Component, props vdom.Props, slot []*vdom.VNode) (*vdom.VNode, error) {
	return l.root(c.template, &scope{component: c, props: props, slot: slot})
}

// scope carries component template state.
type scope struct {
	component *Component
	props     vdom.Props
	slot      []*vdom.VNode
}

func (s *scope) interpolate(v string) string {
	if s == nil || !strings.Contains(v, "{{") {
		return v
	}
	var sb strings.Builder
	for {
		start := strings.Index(v, "{{")
		if start < 0 {
			break
		}
		end := strings.Index(v[start:], "}}")
		if end < 0 {
			break
		}
		sb.WriteString(v[:start])
		name := strings.TrimSpace(v[start+2 : start+end])
		if p, ok := s.props[name]; ok && p != nil {
			sb.WriteString(fmt.Sprint(p))
		}
		v = v[start+end+2:]
	}
	sb.WriteString(v)
	return sb.String()
}

func (l *Loader) root(n *yaml.Node, s *scope) (*vdom.VNode, error) {
	v, err := l.child(n, s)
	if err != nil {
		return nil, err
	}
	node, ok := v.(*vdom.VNode)
	if !ok {
		return nil, l.file.malformed(n, "a frame or template root must be a single node")
	}
	return node, nil
}

// child converts n to a value the builder accepts as a child.
func (l *Loader) child(n *yaml.Node, s *scope) (any, error) {
	n = resolve(n)
	switch n.Kind {
	case yaml.ScalarNode:
		return s.scalar(n), nil
	case yaml.SequenceNode:
		items := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := l.child(c, s)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return items, nil
	case yaml.MappingNode:
		return l.node(n, s)
	}
	return nil, l.file.malformed(n, "unsupported YAML node")
}

// scalar converts a scalar to a primitive, nil or bool.
func (s *scope) scalar(n *yaml.Node) any {
	switch n.ShortTag() {
	case "!!null":
		return nil
	case "!!bool":
		b, _ := strconv.ParseBool(n.Value)
		return b
	case "!!int":
		if i, err := strconv.ParseInt(n.Value, 0, 64); err == nil {
			return i
		}
	case "!!float":
		if f, err := strconv.ParseFloat(n.Value, 64); err == nil {
			return f
		}
	}
	return s.interpolate(n.Value)
}

var nodeFields = map[string]bool{
	"tag": true, "key": true, "is": true, "ref": true, "refInFor": true,
	"attrs": true, "staticClass": true, "class": true, "style": true,
	"on": true, "props": true, "children": true, "text": true, "static": true,
	"comment": true, "slot": true, "list": true,
}

func (l *Loader) node(n *yaml.Node, s *scope) (any, error) {
	fields := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i]
		if !nodeFields[key.Value] {
			return nil, l.file.malformed(key, "unknown node field "+strconv.Quote(key.Value))
		}
		fields[key.Value] = resolve(n.Content[i+1])
	}

	if c, ok := fields["comment"]; ok {
		return vdom.NewComment(s.interpolate(c.Value)), nil
	}
	if _, ok := fields["slot"]; ok {
		if s == nil {
			return nil, l.file.malformed(n, "slot outside a component template")
		}
		return s.slot, nil
	}
	if items, ok := fields["list"]; ok {
		v, err := l.child(items, s)
		if err != nil {
			return nil, err
		}
		seq, ok := v.([]any)
		if !ok {
			return nil, l.file.malformed(items, "list must be a sequence")
		}
		return vdom.List(seq), nil
	}

	tagNode, ok := fields["tag"]
	if !ok || tagNode.Kind != yaml.ScalarNode || tagNode.Value == "" {
		return nil, l.file.malformed(n, "node has no tag")
	}
	tag := s.interpolate(tagNode.Value)

	data, err := l.data(fields, s)
	if err != nil {
		return nil, err
	}

	var children any
	if c, ok := fields["children"]; ok {
		if children, err = l.child(c, s); err != nil {
			return nil, err
		}
	}

	// A nil *Data must reach Build as an untyped nil.
	var rawData any
	if data != nil {
		rawData = data
	}
	node := l.builder.Build(l.ctx, tag, rawData, children, vdom.NormalizeFull, false)

	if t, ok := fields["text"]; ok && node.Kind == vdom.KindElement && len(node.Children) == 0 {
		node.Text = s.interpolate(t.Value)
	}
	if st, ok := fields["static"]; ok && st.Value == "true" {
		node.IsStatic = true
	}
	return node, nil
}

// data collects the Data fields, or nil when none are set.
func (l *Loader) data(fields map[string]*yaml.Node, s *scope) (*vdom.Data, error) {
	d := &vdom.Data{}
	set := false

	if k, ok := fields["key"]; ok {
		d.Key = s.scalar(k)
		set = true
	}
	if is, ok := fields["is"]; ok {
		d.Is = s.interpolate(is.Value)
		set = true
	}
	if ref, ok := fields["ref"]; ok {
		d.Ref = ref.Value
		set = true
	}
	if rf, ok := fields["refInFor"]; ok {
		d.RefInFor = rf.Value == "true"
		set = true
	}
	if sc, ok := fields["staticClass"]; ok {
		d.StaticClass = s.interpolate(sc.Value)
		set = true
	}

	if a, ok := fields["attrs"]; ok {
		m, err := l.mapping(a, "attrs")
		if err != nil {
			return nil, err
		}
		d.Attrs = make(map[string]any, len(m))
		for k, v := range m {
			d.Attrs[k] = s.scalar(v)
		}
		set = true
	}

	if c, ok := fields["class"]; ok {
		class, err := l.class(c, s)
		if err != nil {
			return nil, err
		}
		d.Class = class
		set = true
	}

	if st, ok := fields["style"]; ok {
		m, err := l.mapping(st, "style")
		if err != nil {
			return nil, err
		}
		d.Style = make(map[string]string, len(m))
		for k, v := range m {
			d.Style[k] = s.interpolate(v.Value)
		}
		set = true
	}

	if on, ok := fields["on"]; ok {
		m, err := l.mapping(on, "on")
		if err != nil {
			return nil, err
		}
		d.On = make(map[string]any, len(m))
		for event, action := range m {
			d.On[event] = l.handler(s.interpolate(action.Value))
		}
		set = true
	}

	if p, ok := fields["props"]; ok {
		m, err := l.mapping(p, "props")
		if err != nil {
			return nil, err
		}
		d.Props = make(vdom.Props, len(m))
		for k, v := range m {
			d.Props[k] = s.scalar(v)
		}
		set = true
	}

	if !set {
		return nil, nil
	}
	return d, nil
}

func (l *Loader) class(n *yaml.Node, s *scope) (any, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return s.interpolate(n.Value), nil
	case yaml.SequenceNode:
		names := make([]string, 0, len(n.Content))
		for _, c := range n.Content {
			names = append(names, s.interpolate(resolve(c).Value))
		}
		return names, nil
	case yaml.MappingNode:
		m, err := l.mapping(n, "class")
		if err != nil {
			return nil, err
		}
		flags := make(map[string]bool, len(m))
		for k, v := range m {
			b, _ := s.scalar(v).(bool)
			flags[k] = b
		}
		return flags, nil
	}
	return nil, l.file.malformed(n, "class must be a string, sequence or mapping")
}

// mapping returns the scalar entries of a mapping node.
func (l *Loader) mapping(n *yaml.Node, field string) (map[string]*yaml.Node, error) {
	if n.Kind != yaml.MappingNode {
		return nil, l.file.malformed(n, field+" must be a mapping")
	}
	m := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		v := resolve(n.Content[i+1])
		if v.Kind != yaml.ScalarNode {
			return nil, l.file.malformed(v, field+"."+n.Content[i].Value+" must be a scalar")
		}
		m[n.Content[i].Value] = v
	}
	return m, nil
}
