package vdom

import "testing"

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindEmpty, "Empty"},
		{KindElement, "Element"},
		{KindComponent, "Component"},
		{KindText, "Text"},
		{KindComment, "Comment"},
		{Kind(255), "Unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.want {
				t.Errorf("Kind.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVNodeElm(t *testing.T) {
	var nilNode *VNode
	if nilNode.Elm() != nil {
		t.Error("nil VNode should have no mapped node")
	}

	n := NewText("hi")
	if n.Elm() != nil {
		t.Error("fresh VNode should have no mapped node")
	}
	n.BindElm("real")
	if n.Elm() != "real" {
		t.Errorf("Elm() = %v, want real", n.Elm())
	}
}

func TestIsPlaceholder(t *testing.T) {
	if !NewEmpty().IsPlaceholder() || !NewComment("x").IsPlaceholder() {
		t.Error("Empty and Comment are placeholders")
	}
	if NewText("x").IsPlaceholder() || NewElement("div", nil, nil).IsPlaceholder() {
		t.Error("Text and Element are not placeholders")
	}
}

func TestNewElementTakesKeyFromData(t *testing.T) {
	n := NewElement("li", &Data{Key: 7}, nil)
	if n.Key != 7 {
		t.Errorf("Key = %v, want 7", n.Key)
	}
	if NewElement("li", nil, nil).Key != nil {
		t.Error("element without data should have no key")
	}
}

func TestIsPrimitive(t *testing.T) {
	tests := []struct {
		name string
		v    any
		want bool
	}{
		{"string", "a", true},
		{"int", 1, true},
		{"float", 1.5, true},
		{"bool", true, true},
		{"uint8", uint8(3), true},
		{"nil", nil, false},
		{"slice", []int{1}, false},
		{"map", map[string]int{}, false},
		{"pointer", &Data{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPrimitive(tt.v); got != tt.want {
				t.Errorf("IsPrimitive(%v) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}

func TestKeysEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"both nil", nil, nil, true},
		{"nil vs key", nil, 1, false},
		{"same int", 1, 1, true},
		{"int vs string", 1, "1", false},
		{"same string", "a", "a", true},
		{"slices never equal", []int{1}, []int{1}, false},
		{"slice vs int", []int{1}, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KeysEqual(tt.a, tt.b); got != tt.want {
				t.Errorf("KeysEqual(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestDataObserved(t *testing.T) {
	var nilData *Data
	if nilData.IsObserved() {
		t.Error("nil data is not observed")
	}
	d := &Data{}
	if d.IsObserved() {
		t.Error("fresh data is not observed")
	}
	d.MarkObserved()
	if !d.IsObserved() {
		t.Error("MarkObserved should flag data")
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	ctx := &StaticContext{Ident: 4}
	r.Register(ctx)
	r.Register(&StaticContext{}) // zero ID is ignored

	if r.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", r.Len())
	}
	got, ok := r.Lookup(4)
	if !ok || got != ctx {
		t.Fatalf("Lookup(4) = %v, %v", got, ok)
	}
	r.Release(4)
	if _, ok := r.Lookup(4); ok {
		t.Error("Release should remove the context")
	}
}

func TestHTMLPlatform(t *testing.T) {
	p := HTMLPlatform()
	if !p.IsReservedTag("div") || !p.IsReservedTag("circle") {
		t.Error("div and circle are reserved")
	}
	if p.IsReservedTag("my-widget") {
		t.Error("custom tags are not reserved")
	}
	if p.TagNamespace("svg") != NamespaceSVG || p.TagNamespace("math") != NamespaceMath {
		t.Error("svg and math open namespaces")
	}
	if p.TagNamespace("div") != "" {
		t.Error("div has no namespace")
	}
	if !p.IsNamespaceEscaping("foreignObject") || p.IsNamespaceEscaping("g") {
		t.Error("only foreignObject escapes")
	}
	if !IsVoidElement("br") || IsVoidElement("div") {
		t.Error("void element table mismatch")
	}
}
