package vdom

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/vango-dev/patchwork/internal/errors"
)

// Normalization selects how Build flattens children.
type Normalization uint8

const (
	// NormalizeNone trusts children to already be a flat node list.
	NormalizeNone Normalization = iota

	// NormalizeSimple flattens exactly one level of nesting, the shape
	// produced by list rendering inside compiled templates.
	NormalizeSimple

	// NormalizeFull recursively flattens, drops nil holes, coerces
	// primitives to text and merges adjacent text nodes.
	NormalizeFull
)

// String returns the string representation of the Normalization.
func (n Normalization) String() string {
	switch n {
	case NormalizeNone:
		return "none"
	case NormalizeSimple:
		return "simple"
	case NormalizeFull:
		return "full"
	default:
		return "unknown"
	}
}

// Builder constructs VNodes from tag/data/children descriptions.
// A Builder holds no per-render state and may be shared.
type Builder struct {
	platform Platform
	delegate ComponentDelegate
	logger   *slog.Logger
	sink     func(error)
}

// Option configures a Builder.
type Option func(*Builder)

// WithPlatform sets the tag tables. Default: HTMLPlatform().
func WithPlatform(p Platform) Option {
	return func(b *Builder) {
		b.platform = p
	}
}

// WithDelegate sets the component delegate. Default: DefaultComponentDelegate.
// Passing nil disables component creation.
func WithDelegate(d ComponentDelegate) Option {
	return func(b *Builder) {
		b.delegate = d
	}
}

// WithLogger sets the logger diagnostics are reported to.
// If nil, slog.Default() is used.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		b.logger = l
	}
}

// WithDiagnosticSink receives every diagnostic in addition to the log.
func WithDiagnosticSink(sink func(error)) Option {
	return func(b *Builder) {
		b.sink = sink
	}
}

// NewBuilder creates a Builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		platform: HTMLPlatform(),
		delegate: DefaultComponentDelegate,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	if b.platform == nil {
		b.platform = HTMLPlatform()
	}
	return b
}

// Platform returns the builder's tag tables.
func (b *Builder) Platform() Platform {
	return b.platform
}

// Build constructs a single VNode.
//
// tag is a string tag name or a component descriptor. data is a *Data,
// or nil. When data is a slice, a primitive or a *VNode it is treated as
// children and the value in the children slot, if it is a Normalization,
// becomes the hint. alwaysNormalize forces NormalizeFull.
//
// Build never fails: invalid input yields an Empty node plus a diagnostic.
func (b *Builder) Build(ctx Context, tag any, data any, children any, hint Normalization, alwaysNormalize bool) *VNode {
	if isChildrenValue(data) {
		if h, ok := children.(Normalization); ok {
			hint = h
		}
		children = data
		data = nil
	}
	if alwaysNormalize {
		hint = NormalizeFull
	}
	return b.build(ctx, tag, data, children, hint)
}

func (b *Builder) build(ctx Context, tag any, rawData any, children any, hint Normalization) *VNode {
	if obs, ok := rawData.(Observable); ok && obs.IsObserved() {
		b.report(ctx, errors.New("V001").WithDetailf("tag %v", tag).
			WithSuggestion("Always create fresh data values in each render"))
		return NewEmpty()
	}

	var data *Data
	switch d := rawData.(type) {
	case nil:
	case *Data:
		data = d
	case Data:
		data = &d
	default:
		b.report(ctx, errors.New("V005").WithDetailf("data of type %T on %v", rawData, tag))
	}

	if data != nil && data.Is != nil {
		tag = data.Is
	}
	if isFalsyTag(tag) {
		return NewEmpty()
	}

	if data != nil && data.Key != nil && !IsPrimitive(data.Key) {
		b.report(ctx, errors.New("V002").WithDetailf("key of type %T on %v", data.Key, tag).
			WithSuggestion("Use a string or number key"))
	}

	if items, ok := children.([]any); ok && len(items) > 0 && isFunc(items[0]) {
		data = withDefaultScopedSlot(data, items[0])
		children = nil
	}

	var kids []*VNode
	switch hint {
	case NormalizeFull:
		kids = normalizeChildren(children, b.reporter(ctx))
	case NormalizeSimple:
		kids = simpleNormalizeChildren(children, b.reporter(ctx))
	default:
		kids = coerceChildren(children, b.reporter(ctx))
	}

	var node *VNode
	var ns string
	if name, ok := tag.(string); ok {
		if ctx != nil {
			ns = ctx.Namespace()
		}
		if ns == "" {
			ns = b.platform.TagNamespace(name)
		}
		if b.platform.IsReservedTag(name) {
			node = NewElement(b.platform.ParseTagName(name), data, kids)
		} else if descriptor, found := resolveComponent(ctx, name); found && b.delegate != nil {
			node = b.delegate.CreateComponent(descriptor, data, ctx, kids, name)
		} else {
			// Unknown or custom element. A namespaced ancestor may still
			// assign it a namespace when it propagates its own.
			node = NewElement(name, data, kids)
		}
	} else {
		if b.delegate == nil {
			b.report(ctx, errors.New("V003").WithDetailf("tag of type %T", tag))
			return NewEmpty()
		}
		node = b.delegate.CreateComponent(tag, data, ctx, kids, "")
	}

	if node == nil {
		return NewEmpty()
	}
	if ctx != nil && node.Context == 0 {
		node.Context = ctx.ID()
	}
	if ns != "" && (node.Kind == KindElement || node.Kind == KindComponent) {
		b.applyNamespace(node, ns, false)
	}
	return node
}

// applyNamespace assigns ns to node and every descendant element or
// component that has no namespace of its own. Components take the
// namespace for their host but are not descended into. Below an escaping
// element the namespace is reset and forced so deeper elements do not
// inherit the original; a nested <svg> keeps its own.
func (b *Builder) applyNamespace(node *VNode, ns string, force bool) {
	node.Namespace = ns
	if node.Kind == KindComponent {
		return
	}
	if b.platform.IsNamespaceEscaping(node.Tag) {
		ns = ""
		force = true
	}
	for _, child := range node.Children {
		if child == nil || (child.Kind != KindElement && child.Kind != KindComponent) {
			continue
		}
		if child.Namespace == "" || (force && child.Tag != "svg") {
			b.applyNamespace(child, ns, force)
		}
	}
}

func (b *Builder) report(ctx Context, err *errors.Error) {
	attrs := []any{"diagnostic", err}
	if ctx != nil {
		attrs = append(attrs, "context", uint64(ctx.ID()))
	}
	b.logger.Warn("vdom: build diagnostic", attrs...)
	if b.sink != nil {
		b.sink(err)
	}
}

func (b *Builder) reporter(ctx Context) func(*errors.Error) {
	return func(err *errors.Error) {
		b.report(ctx, err)
	}
}

func resolveComponent(ctx Context, tag string) (any, bool) {
	if ctx == nil {
		return nil, false
	}
	d, ok := ctx.ResolveComponent(tag)
	if !ok || d == nil {
		return nil, false
	}
	return d, true
}

func withDefaultScopedSlot(data *Data, fn any) *Data {
	var d Data
	if data != nil {
		d = *data
	}
	slots := make(map[string]any, len(d.ScopedSlots)+1)
	for k, v := range d.ScopedSlots {
		slots[k] = v
	}
	slots["default"] = fn
	d.ScopedSlots = slots
	return &d
}

// isChildrenValue reports whether a value passed in the data slot is
// really children.
func isChildrenValue(v any) bool {
	if v == nil {
		return false
	}
	if _, ok := v.(*VNode); ok {
		return true
	}
	if IsPrimitive(v) {
		return true
	}
	return reflect.TypeOf(v).Kind() == reflect.Slice
}

func isFalsyTag(tag any) bool {
	switch t := tag.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	}
	rv := reflect.ValueOf(tag)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Func, reflect.Map, reflect.Interface, reflect.Slice:
		return rv.IsNil()
	}
	return false
}

func isFunc(v any) bool {
	return v != nil && reflect.TypeOf(v).Kind() == reflect.Func
}

func primitiveText(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
