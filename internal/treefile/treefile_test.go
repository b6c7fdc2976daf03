package treefile

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/patchwork/internal/errors"
	"github.com/vango-dev/patchwork/pkg/dom"
	"github.com/vango-dev/patchwork/pkg/modules"
	"github.com/vango-dev/patchwork/pkg/reconcile"
	"github.com/vango-dev/patchwork/pkg/vdom"
)

func codeOf(t *testing.T, err error) *errors.Error {
	t.Helper()
	var e *errors.Error
	if !stderrors.As(err, &e) {
		t.Fatalf("error %v (%T) is not a diagnostic", err, err)
	}
	return e
}

func mustParse(t *testing.T, src string) *File {
	t.Helper()
	f, err := Parse("test.yaml", []byte(src))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return f
}

// player patches every frame of a file into a document.
type player struct {
	doc    *dom.Document
	engine *reconcile.Engine
	host   *Host
	loader *Loader
	tree   *vdom.VNode
}

func newPlayer(f *File, opts ...LoaderOption) *player {
	doc := dom.NewDocument()
	loader := NewLoader(f, opts...)
	host := NewHost(loader)
	engine := reconcile.New(doc, modules.Default(doc, nil, nil), reconcile.WithComponentHost(host))
	host.Bind(engine)
	return &player{doc: doc, engine: engine, host: host, loader: loader}
}

func (p *player) frame(t *testing.T, i int) string {
	t.Helper()
	next, err := p.loader.Frame(i)
	if err != nil {
		t.Fatalf("Frame(%d): %v", i, err)
	}
	p.engine.Patch(p.tree, next, p.doc.Root())
	p.tree = next
	return p.doc.HTML()
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code string
	}{
		{"invalid yaml", "root: [", "T001"},
		{"no frames", "components: {}", "T001"},
		{"empty", "", "T001"},
		{"unknown document field", "root: {tag: div}\nextra: 1", "T001"},
		{"frames not a sequence", "frames: {tag: div}", "T001"},
		{"component not a mapping", "components: {card: 1}\nroot: {tag: div}", "T001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("test.yaml", []byte(tt.src))
			if err == nil {
				t.Fatal("Parse succeeded")
			}
			if got := codeOf(t, err).Code; got != tt.code {
				t.Errorf("code = %s, want %s", got, tt.code)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if got := codeOf(t, err).Code; got != "T002" {
		t.Errorf("code = %s, want T002", got)
	}
}

func TestFrameReportsLocation(t *testing.T) {
	f := mustParse(t, "root:\n  tag: div\n  bogus: 1\n")
	_, err := NewLoader(f).Frame(0)
	e := codeOf(t, err)
	if e.Code != "T001" {
		t.Fatalf("code = %s, want T001", e.Code)
	}
	if e.Location == nil {
		t.Fatal("no location")
	}
	if want := (errors.Location{File: "test.yaml", Line: 3, Column: 3}); *e.Location != want {
		t.Errorf("location = %+v, want %+v", *e.Location, want)
	}
}

func TestFrameErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"no tag", "root: {key: a}"},
		{"slot outside template", "root: {tag: div, children: [{slot: true}]}"},
		{"attrs not a mapping", "root: {tag: div, attrs: [a]}"},
		{"nested style value", "root: {tag: div, style: {color: [red]}}"},
		{"list not a sequence", "root: {tag: ul, children: [{list: x}]}"},
		{"scalar root", "frames: [text]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader(mustParse(t, tt.src)).Frame(0)
			if err == nil {
				t.Fatal("Frame succeeded")
			}
			if got := codeOf(t, err).Code; got != "T001" {
				t.Errorf("code = %s, want T001", got)
			}
		})
	}

	if _, err := NewLoader(mustParse(t, "root: {tag: div}")).Frame(1); err == nil {
		t.Error("Frame(1) out of range succeeded")
	}
}

func TestFramesRender(t *testing.T) {
	src := `
frames:
  - tag: ul
    children:
      - list:
          - {tag: li, key: a, text: A}
          - {tag: li, key: b, text: B}
  - tag: ul
    children:
      - list:
          - {tag: li, key: b, text: B}
          - {tag: li, key: a, text: A}
          - {tag: li, key: c, staticClass: new, class: [x, y], text: C}
---
tag: p
attrs: {id: main, title: hi}
style: {color: red}
children: [one, " ", 2, null, {comment: note}]
`
	p := newPlayer(mustParse(t, src))
	want := []string{
		`<ul><li>A</li><li>B</li></ul>`,
		`<ul><li>B</li><li>A</li><li class="new x y">C</li></ul>`,
		`<p id="main" title="hi" style="color: red;">one 2<!--note--></p>`,
	}
	var got []string
	for i := 0; i < p.loader.file.Len(); i++ {
		got = append(got, p.frame(t, i))
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("frames mismatch (-want +got):\n%s", diff)
	}
}

func TestListMovesKeyedNodes(t *testing.T) {
	src := `
frames:
  - {tag: ul, children: [{list: [{tag: li, key: 1}, {tag: li, key: 2}, {tag: li, key: 3}]}]}
  - {tag: ul, children: [{list: [{tag: li, key: 3}, {tag: li, key: 1}, {tag: li, key: 2}]}]}
`
	f := mustParse(t, src)
	p := newPlayer(f)
	p.frame(t, 0)
	first := p.doc.Root().FirstChild().Children()

	p.frame(t, 1)
	second := p.doc.Root().FirstChild().Children()
	if len(second) != 3 || second[0] != first[2] || second[1] != first[0] || second[2] != first[1] {
		t.Error("keyed items were not moved in place")
	}
}

func TestComponents(t *testing.T) {
	src := `
components:
  card:
    tag: section
    staticClass: card
    children:
      - {tag: h2, text: "{{title}}"}
      - {slot: true}
frames:
  - tag: div
    children:
      - {tag: card, props: {title: One}, children: [body]}
  - tag: div
    children:
      - {tag: card, props: {title: Two}, children: [changed]}
  - {tag: div}
`
	p := newPlayer(mustParse(t, src))

	if got, want := p.frame(t, 0), `<div><section class="card"><h2>One</h2>body</section></div>`; got != want {
		t.Fatalf("frame 0 = %s, want %s", got, want)
	}
	section := p.doc.Root().FirstChild().FirstChild()

	if got, want := p.frame(t, 1), `<div><section class="card"><h2>Two</h2>changed</section></div>`; got != want {
		t.Fatalf("frame 1 = %s, want %s", got, want)
	}
	if p.doc.Root().FirstChild().FirstChild() != section {
		t.Error("component root was recreated instead of patched")
	}
	if got := p.host.Instances(); got != 1 {
		t.Errorf("Instances() = %d, want 1", got)
	}

	if got, want := p.frame(t, 2), `<div></div>`; got != want {
		t.Fatalf("frame 2 = %s, want %s", got, want)
	}
	if got := p.host.Instances(); got != 0 {
		t.Errorf("Instances() after removal = %d, want 0", got)
	}
}

func TestStaticComponentKeepsInstance(t *testing.T) {
	src := `
components:
  card:
    tag: section
    children:
      - {tag: h2, text: "{{title}}"}
frames:
  - tag: div
    children:
      - {tag: card, static: true, props: {title: One}}
  - tag: div
    children:
      - {tag: card, static: true, props: {title: One}}
  - tag: div
    children:
      - {tag: card, props: {title: Two}}
  - {tag: div}
`
	p := newPlayer(mustParse(t, src))
	p.frame(t, 0)
	section := p.doc.Root().FirstChild().FirstChild()

	if got, want := p.frame(t, 1), `<div><section><h2>One</h2></section></div>`; got != want {
		t.Fatalf("frame 1 = %s, want %s", got, want)
	}
	if got := p.host.Instances(); got != 1 {
		t.Errorf("Instances() after static frame = %d, want 1", got)
	}

	if got, want := p.frame(t, 2), `<div><section><h2>Two</h2></section></div>`; got != want {
		t.Fatalf("frame 2 = %s, want %s", got, want)
	}
	if p.doc.Root().FirstChild().FirstChild() != section {
		t.Error("component root was recreated after a static frame")
	}
	if got := p.host.Instances(); got != 1 {
		t.Errorf("Instances() = %d, want 1", got)
	}

	if got, want := p.frame(t, 3), `<div></div>`; got != want {
		t.Fatalf("frame 3 = %s, want %s", got, want)
	}
	if got := p.host.Instances(); got != 0 {
		t.Errorf("Instances() after removal = %d, want 0", got)
	}
}

func TestComponentRootTagChange(t *testing.T) {
	src := `
components:
  box:
    tag: "{{as}}"
    text: "{{as}}"
frames:
  - tag: div
    children:
      - {tag: p, text: before}
      - {tag: box, props: {as: section}}
      - {tag: p, text: after}
  - tag: div
    children:
      - {tag: p, text: before}
      - {tag: box, props: {as: article}}
      - {tag: p, text: after}
  - tag: div
    children:
      - {tag: p, text: before}
      - {tag: p, text: after}
`
	p := newPlayer(mustParse(t, src))
	p.frame(t, 0)

	want := `<div><p>before</p><article>article</article><p>after</p></div>`
	if got := p.frame(t, 1); got != want {
		t.Fatalf("frame 1 = %s, want %s", got, want)
	}
	if got := p.tree.Children[1].Elm().(*dom.Node); got.Tag != "article" || got.Parent() == nil {
		t.Errorf("component vnode maps to <%s>, attached=%v", got.Tag, got.Parent() != nil)
	}

	if got, want := p.frame(t, 2), `<div><p>before</p><p>after</p></div>`; got != want {
		t.Fatalf("frame 2 = %s, want %s", got, want)
	}
}

type patchCounter struct {
	finished int
}

func (c *patchCounter) PatchStarted(ctx context.Context) context.Context { return ctx }

func (c *patchCounter) PatchFinished(context.Context, reconcile.Stats) { c.finished++ }

func TestNestedPatchesAreNotObserved(t *testing.T) {
	src := `
components:
  badge: {tag: b, text: "{{n}}"}
frames:
  - tag: div
    children:
      - {tag: badge, key: 1, props: {n: one}}
      - {tag: badge, key: 2, props: {n: two}}
  - tag: div
    children:
      - {tag: badge, key: 2, props: {n: three}}
      - {tag: badge, key: 1, props: {n: one}}
`
	counter := &patchCounter{}
	p := newPlayer(mustParse(t, src))
	p.engine = reconcile.New(p.doc, modules.Default(p.doc, nil, nil),
		reconcile.WithComponentHost(p.host),
		reconcile.WithObserver(counter),
	)
	p.host.Bind(p.engine)

	p.frame(t, 0)
	if got, want := p.frame(t, 1), `<div><b>three</b><b>one</b></div>`; got != want {
		t.Fatalf("frame 1 = %s, want %s", got, want)
	}
	if counter.finished != 2 {
		t.Errorf("observed patches = %d, want 2", counter.finished)
	}
}

func TestComponentRedefinitionKeepsDescriptor(t *testing.T) {
	src := `
components:
  badge: {tag: b, text: old}
root: {tag: div, children: [{tag: badge}]}
---
components:
  badge: {tag: i, text: new}
root: {tag: div, children: [{tag: badge}]}
`
	f := mustParse(t, src)
	if len(f.Components) != 1 {
		t.Fatalf("components = %d, want 1", len(f.Components))
	}
	p := newPlayer(f)
	// Both frames render with the latest template.
	if got, want := p.frame(t, 0), `<div><i>new</i></div>`; got != want {
		t.Errorf("frame 0 = %s, want %s", got, want)
	}
	if got, want := p.frame(t, 1), `<div><i>new</i></div>`; got != want {
		t.Errorf("frame 1 = %s, want %s", got, want)
	}
}

func TestComponentRenderFailureLeavesComment(t *testing.T) {
	src := `
components:
  broken: {tag: div, nope: 1}
root: {tag: main, children: [{tag: broken}]}
`
	p := newPlayer(mustParse(t, src))
	if got, want := p.frame(t, 0), `<main><!--broken--></main>`; got != want {
		t.Errorf("html = %s, want %s", got, want)
	}
}

func TestInterpolation(t *testing.T) {
	s := &scope{props: vdom.Props{"name": "Ada", "n": 3, "nil": nil}}
	tests := map[string]string{
		"plain":             "plain",
		"hi {{name}}":       "hi Ada",
		"{{ n }}/{{n}}":     "3/3",
		"{{missing}}!":      "!",
		"{{nil}}":           "",
		"open {{name":       "open {{name",
		"{{name}}{{name}}.": "AdaAda.",
	}
	for in, want := range tests {
		if got := s.interpolate(in); got != want {
			t.Errorf("interpolate(%q) = %q, want %q", in, got, want)
		}
	}

	var none *scope
	if got := none.interpolate("{{name}}"); got != "{{name}}" {
		t.Errorf("interpolate outside a template = %q", got)
	}
}

func TestEventsAndStatic(t *testing.T) {
	src := `
root:
  tag: div
  children:
    - {tag: button, on: {click: save}, text: Save}
    - {tag: hr, static: true}
`
	var actions []string
	f := mustParse(t, src)
	p := newPlayer(f, WithHandler(func(action string) func(any) {
		return func(payload any) {
			actions = append(actions, action)
		}
	}))
	p.frame(t, 0)

	button := p.doc.Root().FirstChild().FirstChild()
	if !button.Dispatch("click", nil) {
		t.Fatal("no click listener")
	}
	if diff := cmp.Diff([]string{"save"}, actions); diff != "" {
		t.Errorf("actions mismatch (-want +got):\n%s", diff)
	}
	if !p.tree.Children[1].IsStatic {
		t.Error("static flag not set")
	}
}
