package reconcile

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/patchwork/pkg/dom"
	"github.com/vango-dev/patchwork/pkg/vdom"
)

// recorder is a module that logs every hook it receives.
type recorder struct {
	name string
	log  *[]string
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) add(phase string, v *vdom.VNode) {
	*r.log = append(*r.log, fmt.Sprintf("%s.%s:%s", r.name, phase, label(v)))
}

func (r *recorder) Create(v *vdom.VNode)       { r.add("create", v) }
func (r *recorder) Update(_, v *vdom.VNode)    { r.add("update", v) }
func (r *recorder) Destroy(v *vdom.VNode)      { r.add("destroy", v) }
func (r *recorder) Postpatch(_, v *vdom.VNode) { r.add("postpatch", v) }
func (r *recorder) Move(v *vdom.VNode)         { r.add("move", v) }
func (r *recorder) Insert(v *vdom.VNode)       { r.add("insert", v) }

func label(v *vdom.VNode) string {
	if v.Key != nil {
		return fmt.Sprintf("%s#%v", v.Tag, v.Key)
	}
	if v.Kind == vdom.KindText {
		return "text"
	}
	return v.Tag
}

func el(tag string, children ...*vdom.VNode) *vdom.VNode {
	return vdom.NewElement(tag, nil, children)
}

func keyed(tag string, key any, children ...*vdom.VNode) *vdom.VNode {
	return vdom.NewElement(tag, &vdom.Data{Key: key}, children)
}

func keyedList(keys ...string) *vdom.VNode {
	children := make([]*vdom.VNode, len(keys))
	for i, k := range keys {
		children[i] = keyed("li", k, vdom.NewText(k))
	}
	return el("ul", children...)
}

func newEngine(t *testing.T, opts ...Option) (*Engine, *dom.Document, *[]string) {
	t.Helper()
	doc := dom.NewDocument()
	var log []string
	mods := []Module{&recorder{name: "a", log: &log}, &recorder{name: "b", log: &log}}
	return New(doc, mods, opts...), doc, &log
}

func TestMountThenUnmountLeavesNothing(t *testing.T) {
	e, doc, log := newEngine(t)
	tree := el("div", el("p", vdom.NewText("hi")), vdom.NewComment("c"), el("span"))

	e.Patch(nil, tree, doc.Root())
	if got := doc.HTML(); got != "<div><p>hi</p><!--c--><span></span></div>" {
		t.Fatalf("mounted HTML = %q", got)
	}

	*log = nil
	if elm := e.Patch(tree, nil, doc.Root()); elm != nil {
		t.Errorf("unmount returned %v, want nil", elm)
	}
	if doc.Root().FirstChild() != nil {
		t.Errorf("root still has children: %q", doc.HTML())
	}

	want := []string{
		"a.destroy:div", "b.destroy:div",
		"a.destroy:p", "b.destroy:p",
		"a.destroy:span", "b.destroy:span",
	}
	if diff := cmp.Diff(want, *log); diff != "" {
		t.Errorf("destroy hooks mismatch (-want +got):\n%s", diff)
	}
}

func TestDestroyRunsHooksOnly(t *testing.T) {
	e, doc, log := newEngine(t)
	tree := el("div", el("p"))
	e.Patch(nil, tree, doc.Root())

	*log = nil
	doc.ResetStats()
	e.Destroy(tree)

	want := []string{"a.destroy:div", "b.destroy:div", "a.destroy:p", "b.destroy:p"}
	if diff := cmp.Diff(want, *log); diff != "" {
		t.Errorf("destroy hooks mismatch (-want +got):\n%s", diff)
	}
	if doc.Stats().Mutations() != 0 || doc.HTML() != "<div><p></p></div>" {
		t.Errorf("Destroy touched the tree: %q", doc.HTML())
	}
}

func TestPatchIdenticalTreeIsNoop(t *testing.T) {
	e, doc, log := newEngine(t)
	tree := keyedList("a", "b", "c")
	e.Patch(nil, tree, doc.Root())

	doc.ResetStats()
	*log = nil
	elm, stats := e.PatchStats(context.Background(), tree, tree, doc.Root())

	if elm != tree.Elm() {
		t.Error("identical patch should return the mapped node")
	}
	if n := doc.Stats().Total(); n != 0 {
		t.Errorf("identical patch made %d capability calls", n)
	}
	if len(*log) != 0 || stats != (Stats{}) {
		t.Errorf("identical patch ran hooks %v, stats %+v", *log, stats)
	}
}

func TestKeyedRotationIsOneMove(t *testing.T) {
	e, doc, log := newEngine(t)
	old := keyedList("a", "b", "c")
	e.Patch(nil, old, doc.Root())
	nodes := old.Children

	doc.ResetStats()
	*log = nil
	next := keyedList("c", "a", "b")
	_, stats := e.PatchStats(context.Background(), old, next, doc.Root())

	s := doc.Stats()
	if s.InsertBefore != 1 || s.Creates() != 0 || s.RemoveChild != 0 || s.AppendChild != 0 {
		t.Errorf("unexpected calls: %+v", s)
	}
	if stats.Moved != 1 || stats.Created != 0 || stats.Removed != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if got := doc.HTML(); got != "<ul><li>c</li><li>a</li><li>b</li></ul>" {
		t.Errorf("HTML = %q", got)
	}
	for i, want := range []*vdom.VNode{nodes[2], nodes[0], nodes[1]} {
		if next.Children[i].Elm() != want.Elm() {
			t.Errorf("child %d was not reused", i)
		}
	}

	var moves []string
	for _, entry := range *log {
		if strings.Contains(entry, ".move:") {
			moves = append(moves, entry)
		}
	}
	if diff := cmp.Diff([]string{"a.move:li#c", "b.move:li#c"}, moves); diff != "" {
		t.Errorf("move hooks mismatch (-want +got):\n%s", diff)
	}
}

func TestTextChangeIsOneUpdate(t *testing.T) {
	e, doc, _ := newEngine(t)
	old := vdom.NewText("a")
	e.Patch(nil, old, doc.Root())

	doc.ResetStats()
	next := vdom.NewText("b")
	elm := e.Patch(old, next, doc.Root())

	s := doc.Stats()
	if s.SetText != 1 || s.Creates() != 0 || s.RemoveChild != 0 {
		t.Errorf("unexpected calls: %+v", s)
	}
	if elm != old.Elm() || doc.HTML() != "b" {
		t.Errorf("text node not updated in place: %q", doc.HTML())
	}
}

func TestTagChangeReplaces(t *testing.T) {
	e, doc, log := newEngine(t)
	old := el("div", vdom.NewText("x"))
	e.Patch(nil, el("main", old), doc.Root())
	oldElm := old.Elm()

	*log = nil
	next := el("span", vdom.NewText("x"))
	e.Patch(old, next, nil)

	for _, entry := range *log {
		if strings.Contains(entry, ".update:") {
			t.Errorf("replacement ran an update hook: %s", entry)
		}
	}
	want := []string{"a.create:span", "b.create:span", "a.destroy:div", "b.destroy:div", "a.insert:span", "b.insert:span"}
	if diff := cmp.Diff(want, *log); diff != "" {
		t.Errorf("hooks mismatch (-want +got):\n%s", diff)
	}
	if next.Elm() == oldElm {
		t.Error("replacement should create a new node")
	}
	if got := doc.HTML(); got != "<main><span>x</span></main>" {
		t.Errorf("HTML = %q", got)
	}
}

func TestCreateHookOrder(t *testing.T) {
	e, doc, log := newEngine(t)
	e.Patch(nil, el("div", el("p", el("b")), el("i")), doc.Root())

	want := []string{
		"a.create:b", "b.create:b",
		"a.create:p", "b.create:p",
		"a.create:i", "b.create:i",
		"a.create:div", "b.create:div",
		"a.insert:b", "b.insert:b",
		"a.insert:p", "b.insert:p",
		"a.insert:i", "b.insert:i",
		"a.insert:div", "b.insert:div",
	}
	if diff := cmp.Diff(want, *log); diff != "" {
		t.Errorf("hook order mismatch (-want +got):\n%s", diff)
	}
}

func TestPatchInPlaceHookOrder(t *testing.T) {
	e, doc, log := newEngine(t)
	old := el("div", el("p"))
	e.Patch(nil, old, doc.Root())

	*log = nil
	e.Patch(old, el("div", el("p")), doc.Root())
	want := []string{
		"a.update:div", "b.update:div",
		"a.update:p", "b.update:p",
		"a.postpatch:p", "b.postpatch:p",
		"a.postpatch:div", "b.postpatch:div",
	}
	if diff := cmp.Diff(want, *log); diff != "" {
		t.Errorf("hook order mismatch (-want +got):\n%s", diff)
	}
}

func TestStaticBailOut(t *testing.T) {
	e, doc, log := newEngine(t)
	static := func(forced bool) *vdom.VNode {
		n := keyed("p", "s", vdom.NewText("fixed"))
		n.IsStatic = true
		n.Forced = forced
		return n
	}
	old := static(false)
	e.Patch(nil, old, doc.Root())

	*log = nil
	next := static(false)
	e.Patch(old, next, doc.Root())
	if len(*log) != 0 {
		t.Errorf("static node was patched: %v", *log)
	}
	if next.Elm() != old.Elm() {
		t.Error("static node should still be mapped")
	}

	forced := static(true)
	e.Patch(next, forced, doc.Root())
	if len(*log) == 0 {
		t.Error("forced node should bypass the bail-out")
	}
}

func TestChildrenTransitions(t *testing.T) {
	tests := []struct {
		name string
		old  *vdom.VNode
		next *vdom.VNode
		want string
	}{
		{
			name: "add to empty",
			old:  el("div"),
			next: el("div", el("a"), el("b")),
			want: "<div><a></a><b></b></div>",
		},
		{
			name: "remove all",
			old:  el("div", el("a"), el("b")),
			next: el("div"),
			want: "<div></div>",
		},
		{
			name: "inline text to children",
			old:  &vdom.VNode{Kind: vdom.KindElement, Tag: "div", Text: "t"},
			next: el("div", el("a")),
			want: "<div><a></a></div>",
		},
		{
			name: "children to inline text",
			old:  el("div", el("a")),
			next: &vdom.VNode{Kind: vdom.KindElement, Tag: "div", Text: "t"},
			want: "<div>t</div>",
		},
		{
			name: "inline text cleared",
			old:  &vdom.VNode{Kind: vdom.KindElement, Tag: "div", Text: "t"},
			next: el("div"),
			want: "<div></div>",
		},
		{
			name: "unkeyed append",
			old:  el("div", el("a")),
			next: el("div", el("a"), el("b"), el("c")),
			want: "<div><a></a><b></b><c></c></div>",
		},
		{
			name: "unkeyed prepend",
			old:  el("div", el("c")),
			next: el("div", el("a"), el("b"), el("c")),
			want: "<div><a></a><b></b><c></c></div>",
		},
		{
			name: "unkeyed tag swap",
			old:  el("div", el("a"), el("b")),
			next: el("div", el("b"), el("a")),
			want: "<div><b></b><a></a></div>",
		},
		{
			name: "text and comment siblings",
			old:  el("div", vdom.NewText("x"), vdom.NewComment("c")),
			next: el("div", vdom.NewText("y"), vdom.NewEmpty()),
			want: "<div>y<!----></div>",
		},
		{
			name: "nil child slots are skipped",
			old:  el("div", el("a"), nil, el("b")),
			next: el("div", nil, el("b"), el("c")),
			want: "<div><b></b><c></c></div>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, doc, _ := newEngine(t)
			e.Patch(nil, tt.old, doc.Root())
			e.Patch(tt.old, tt.next, doc.Root())
			if got := doc.HTML(); got != tt.want {
				t.Errorf("HTML = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestChildrenFallbackMatching(t *testing.T) {
	type counts struct{ Created, Removed, Moved int }
	tests := []struct {
		name  string
		old   []*vdom.VNode
		next  []*vdom.VNode
		reuse map[int]int // new child index -> old child index whose real node it keeps
		want  counts
		html  string
	}{
		{
			name:  "unkeyed node found by scan",
			old:   []*vdom.VNode{keyed("p", 1), el("span"), keyed("b", 2)},
			next:  []*vdom.VNode{el("span"), keyed("i", 3)},
			reuse: map[int]int{0: 1},
			want:  counts{Created: 1, Removed: 2, Moved: 1},
			html:  "<div><span></span><i></i></div>",
		},
		{
			name: "key hit with a different tag is remounted",
			old:  []*vdom.VNode{keyed("li", 1), keyed("li", 2), keyed("li", 3)},
			next: []*vdom.VNode{keyed("p", 2)},
			want: counts{Created: 1, Removed: 3},
			html: "<div><p></p></div>",
		},
		{
			name:  "duplicate keys match the first occurrence",
			old:   []*vdom.VNode{keyed("x", 1), keyed("a", "k"), keyed("a", "k"), keyed("z", 3)},
			next:  []*vdom.VNode{keyed("a", "k"), keyed("w", 4)},
			reuse: map[int]int{0: 1},
			want:  counts{Created: 1, Removed: 3, Moved: 1},
			html:  "<div><a></a><w></w></div>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, doc, _ := newEngine(t, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
			old := el("div", tt.old...)
			e.Patch(nil, old, doc.Root())

			next := el("div", tt.next...)
			_, stats := e.PatchStats(context.Background(), old, next, doc.Root())

			if got := doc.HTML(); got != tt.html {
				t.Errorf("HTML = %q, want %q", got, tt.html)
			}
			got := counts{stats.Created, stats.Removed, stats.Moved}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("stats mismatch (-want +got):\n%s", diff)
			}
			for i, c := range next.Children {
				oldIdx, reused := tt.reuse[i]
				if reused && c.Elm() != old.Children[oldIdx].Elm() {
					t.Errorf("child %d did not keep the real node of old child %d", i, oldIdx)
				}
				if !reused {
					for j, o := range old.Children {
						if c.Elm() == o.Elm() {
							t.Errorf("child %d unexpectedly reused old child %d", i, j)
						}
					}
				}
			}
		})
	}
}

func TestKeyedDiffRandomized(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	pool := strings.Split("abcdefghijklmnop", "")

	for round := 0; round < 200; round++ {
		oldKeys := sample(rng, pool)
		newKeys := sample(rng, pool)

		e, doc, _ := newEngine(t)
		old := keyedList(oldKeys...)
		e.Patch(nil, old, doc.Root())
		byKey := make(map[string]vdom.Node, len(oldKeys))
		for _, c := range old.Children {
			byKey[c.Key.(string)] = c.Elm()
		}
		snapshot := append([]*vdom.VNode(nil), old.Children...)

		next := keyedList(newKeys...)
		_, stats := e.PatchStats(context.Background(), old, next, doc.Root())

		want := "<ul>"
		for _, k := range newKeys {
			want += "<li>" + k + "</li>"
		}
		want += "</ul>"
		if got := doc.HTML(); got != want {
			t.Fatalf("round %d: %v -> %v: HTML = %q", round, oldKeys, newKeys, got)
		}

		kept := 0
		for _, c := range next.Children {
			if prev, ok := byKey[c.Key.(string)]; ok {
				kept++
				if c.Elm() != prev {
					t.Fatalf("round %d: key %v was recreated", round, c.Key)
				}
			}
		}
		// Each new item is an <li> plus its text node.
		if stats.Created != 2*(len(newKeys)-kept) || stats.Removed != len(oldKeys)-kept {
			t.Fatalf("round %d: stats %+v, kept %d", round, stats, kept)
		}
		for i := range snapshot {
			if old.Children[i] != snapshot[i] {
				t.Fatalf("round %d: old children were mutated", round)
			}
		}
	}
}

func sample(rng *rand.Rand, pool []string) []string {
	perm := rng.Perm(len(pool))
	n := rng.Intn(len(pool) + 1)
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = pool[perm[i]]
	}
	return out
}

func TestAdoptReplacesExistingMarkup(t *testing.T) {
	e, doc, _ := newEngine(t)
	existing := doc.CreateElement("div", "")
	doc.AppendChild(doc.Root(), existing)
	doc.AppendChild(existing, doc.CreateText("server"))

	adopted := e.Adopt(existing)
	if adopted.Tag != "div" {
		t.Errorf("adopted tag = %q", adopted.Tag)
	}

	e.Patch(adopted, el("div", vdom.NewText("client")), nil)
	if got := doc.HTML(); got != "<div>client</div>" {
		t.Errorf("HTML = %q", got)
	}
}

type fakeHost struct {
	doc         *dom.Document
	mounted     int
	prepatch    int
	transferred int
	destroyed   int
	rerooted    bool // Prepatch returns a new detached root
}

func (h *fakeHost) Mount(v *vdom.VNode) vdom.Node {
	h.mounted++
	return h.doc.CreateElement("x-"+v.Tag, "")
}

func (h *fakeHost) Prepatch(_, v *vdom.VNode) vdom.Node {
	h.prepatch++
	if h.rerooted {
		return h.doc.CreateElement("y-"+v.Tag, "")
	}
	return nil
}

func (h *fakeHost) Transfer(_, _ *vdom.VNode) {
	h.transferred++
}

func (h *fakeHost) Destroy(*vdom.VNode) {
	h.destroyed++
}

func component(tag string) *vdom.VNode {
	return &vdom.VNode{
		Kind:      vdom.KindComponent,
		Tag:       tag,
		Component: &vdom.ComponentOptions{Descriptor: tag, Tag: tag},
	}
}

func TestComponentHost(t *testing.T) {
	doc := dom.NewDocument()
	host := &fakeHost{doc: doc}
	e := New(doc, nil, WithComponentHost(host))

	old := el("div", component("card"))
	e.Patch(nil, old, doc.Root())
	if got := doc.HTML(); got != "<div><x-card></x-card></div>" {
		t.Errorf("HTML = %q", got)
	}

	next := el("div", component("card"))
	e.Patch(old, next, doc.Root())
	e.Patch(next, nil, doc.Root())

	if host.mounted != 1 || host.prepatch != 1 || host.destroyed != 1 {
		t.Errorf("host calls: mounted=%d prepatch=%d destroyed=%d", host.mounted, host.prepatch, host.destroyed)
	}
}

func TestStaticComponentIsTransferred(t *testing.T) {
	doc := dom.NewDocument()
	host := &fakeHost{doc: doc}
	e := New(doc, nil, WithComponentHost(host))

	staticCard := func() *vdom.VNode {
		c := component("card")
		c.IsStatic = true
		return c
	}
	old := el("div", staticCard())
	e.Patch(nil, old, doc.Root())
	next := el("div", staticCard())
	e.Patch(old, next, doc.Root())

	if host.prepatch != 0 || host.transferred != 1 {
		t.Errorf("host calls: prepatch=%d transferred=%d", host.prepatch, host.transferred)
	}
	if next.Children[0].Elm() != old.Children[0].Elm() {
		t.Error("static component lost its real node")
	}
}

func TestComponentNewRootIsSwappedIn(t *testing.T) {
	doc := dom.NewDocument()
	host := &fakeHost{doc: doc}
	e := New(doc, nil, WithComponentHost(host))

	old := el("div", el("p"), component("card"), el("hr"))
	e.Patch(nil, old, doc.Root())

	host.rerooted = true
	next := el("div", el("p"), component("card"), el("hr"))
	_, stats := e.PatchStats(context.Background(), old, next, doc.Root())
	if got, want := doc.HTML(), "<div><p></p><y-card></y-card><hr></div>"; got != want {
		t.Fatalf("HTML = %q, want %q", got, want)
	}
	if stats.Removed != 1 {
		t.Errorf("Removed = %d, want 1", stats.Removed)
	}

	e.Patch(next, el("div", el("p"), el("hr")), doc.Root())
	if got, want := doc.HTML(), "<div><p></p><hr></div>"; got != want {
		t.Errorf("HTML after removal = %q, want %q", got, want)
	}
}

func TestComponentWithoutHostIsPlaceholder(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	doc := dom.NewDocument()
	e := New(doc, nil, WithLogger(logger))

	e.Patch(nil, el("div", component("card")), doc.Root())
	if got := doc.HTML(); got != "<div><!--card--></div>" {
		t.Errorf("HTML = %q", got)
	}
	if !strings.Contains(buf.String(), "V011") {
		t.Errorf("expected V011 in log, got %q", buf.String())
	}
}

func TestDuplicateKeysAreReported(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	doc := dom.NewDocument()
	e := New(doc, nil, WithLogger(logger))

	e.Patch(nil, keyedList("a", "a"), doc.Root())
	if !strings.Contains(buf.String(), "V010") {
		t.Errorf("expected V010 in log, got %q", buf.String())
	}
}

type countingObserver struct {
	started  int
	finished []Stats
}

type ctxKey struct{}

func (o *countingObserver) PatchStarted(ctx context.Context) context.Context {
	o.started++
	return context.WithValue(ctx, ctxKey{}, o.started)
}

func (o *countingObserver) PatchFinished(ctx context.Context, s Stats) {
	if ctx.Value(ctxKey{}) != o.started {
		panic("observer context not propagated")
	}
	o.finished = append(o.finished, s)
}

func TestObserver(t *testing.T) {
	doc := dom.NewDocument()
	obs := &countingObserver{}
	e := New(doc, nil, WithObserver(obs))

	old := keyedList("a", "b")
	e.PatchContext(context.Background(), nil, old, doc.Root())
	e.PatchContext(context.Background(), old, keyedList("b"), doc.Root())

	want := []Stats{
		{Created: 5},
		{Removed: 1, Patched: 3},
	}
	if diff := cmp.Diff(want, obs.finished); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
}

type panicking struct{}

func (panicking) Name() string       { return "panicking" }
func (panicking) Create(*vdom.VNode) { panic("boom") }

func TestObserverSeesAbortedPatch(t *testing.T) {
	doc := dom.NewDocument()
	obs := &countingObserver{}
	e := New(doc, []Module{panicking{}}, WithObserver(obs))

	func() {
		defer func() {
			if recover() == nil {
				t.Error("hook panic should propagate")
			}
		}()
		e.Patch(nil, el("div"), doc.Root())
	}()

	if len(obs.finished) != 1 || !obs.finished[0].Aborted {
		t.Errorf("observer stats = %+v", obs.finished)
	}
}

func TestSameVNode(t *testing.T) {
	fn := func() {}
	tests := []struct {
		name string
		a, b *vdom.VNode
		want bool
	}{
		{"same tag", el("p"), el("p"), true},
		{"different tag", el("p"), el("div"), false},
		{"different key", keyed("p", 1), keyed("p", 2), false},
		{"int and string key", keyed("p", 1), keyed("p", "1"), false},
		{"text pair", vdom.NewText("a"), vdom.NewText("b"), true},
		{"text vs comment", vdom.NewText("a"), vdom.NewComment("a"), false},
		{"comment vs empty", vdom.NewComment(""), vdom.NewEmpty(), false},
		{"components same descriptor", component("c"), component("c"), true},
		{
			"func descriptors",
			&vdom.VNode{Kind: vdom.KindComponent, Component: &vdom.ComponentOptions{Descriptor: fn}},
			&vdom.VNode{Kind: vdom.KindComponent, Component: &vdom.ComponentOptions{Descriptor: fn}},
			true,
		},
		{"nil", nil, el("p"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SameVNode(tt.a, tt.b); got != tt.want {
				t.Errorf("SameVNode = %v, want %v", got, tt.want)
			}
		})
	}
}
