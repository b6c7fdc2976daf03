package modules

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/patchwork/pkg/dom"
	"github.com/vango-dev/patchwork/pkg/vdom"
)

type directiveLog struct {
	entries []string
}

func (l *directiveLog) definition() *Definition {
	rec := func(phase string) DirectiveFunc {
		return func(_ vdom.Node, b Binding, vnode, _ *vdom.VNode) {
			l.entries = append(l.entries, fmt.Sprintf("%s:%v:%v", phase, b.Value, b.OldValue))
		}
	}
	return &Definition{
		Bind:             rec("bind"),
		Inserted:         rec("inserted"),
		Update:           rec("update"),
		ComponentUpdated: rec("componentUpdated"),
		Unbind:           rec("unbind"),
	}
}

func TestDirectiveLifecycle(t *testing.T) {
	log := &directiveLog{}
	h := newHarness(t, DirectiveMap{"focus": log.definition()})

	withDir := func(value any) *vdom.VNode {
		return el("div", nil, el("input", &vdom.Data{
			Directives: []vdom.Directive{{Name: "focus", Value: value}},
		}))
	}

	h.render(withDir(1))
	h.render(withDir(2))
	h.render(el("div", nil))

	want := []string{
		"bind:1:<nil>",
		"inserted:1:<nil>",
		"update:2:1",
		"componentUpdated:2:1",
		"unbind:2:<nil>",
	}
	if diff := cmp.Diff(want, log.entries); diff != "" {
		t.Errorf("lifecycle mismatch (-want +got):\n%s", diff)
	}
}

func TestDirectiveInsertedAfterAttach(t *testing.T) {
	var attached bool
	h := newHarness(t, DirectiveMap{"probe": {
		Inserted: func(elm vdom.Node, _ Binding, _, _ *vdom.VNode) {
			attached = elm.(*dom.Node).Parent() != nil
		},
	}})

	h.render(el("section", nil, el("p", &vdom.Data{Directives: []vdom.Directive{{Name: "probe"}}})))
	if !attached {
		t.Error("inserted ran before the element was attached")
	}
}

func TestDirectiveAddedAndRemovedOnPatch(t *testing.T) {
	log := &directiveLog{}
	h := newHarness(t, DirectiveMap{"a": log.definition(), "b": log.definition()})

	h.render(el("p", &vdom.Data{Directives: []vdom.Directive{{Name: "a", Value: "x"}}}))
	log.entries = nil

	h.render(el("p", &vdom.Data{Directives: []vdom.Directive{{Name: "b", Value: "y"}}}))
	want := []string{"bind:y:<nil>", "inserted:y:<nil>", "unbind:x:<nil>"}
	if diff := cmp.Diff(want, log.entries); diff != "" {
		t.Errorf("patch mismatch (-want +got):\n%s", diff)
	}
}

func TestUnresolvedDirectiveIsSkipped(t *testing.T) {
	h := newHarness(t, DirectiveMap{})
	elm := h.render(el("p", &vdom.Data{Directives: []vdom.Directive{{Name: "missing"}}}))
	if elm == nil {
		t.Fatal("element should still render")
	}
}

func TestDirectiveKey(t *testing.T) {
	got := directiveKey(vdom.Directive{Name: "on", Modifiers: map[string]bool{"stop": true, "prevent": true, "off": false}})
	if got != "on.prevent.stop" {
		t.Errorf("directiveKey = %q", got)
	}
}
