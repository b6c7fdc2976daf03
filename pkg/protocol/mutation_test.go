package protocol

import (
	"errors"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMutationsRoundTrip(t *testing.T) {
	mf := &MutationsFrame{
		Seq: 300,
		Mutations: []Mutation{
			{Op: MutCreateElement, ID: 2, Name: "svg", Value: "svg"},
			{Op: MutCreateText, ID: 3, Value: "héllo"},
			{Op: MutCreateComment, ID: 4},
			{Op: MutInsertBefore, ID: 3, Parent: 2},
			{Op: MutInsertBefore, ID: 4, Parent: 2, Ref: 3},
			{Op: MutRemoveChild, ID: 4, Parent: 2},
			{Op: MutSetText, ID: 3, Value: ""},
			{Op: MutSetAttribute, ID: 2, Name: "viewBox", Value: "0 0 10 10"},
			{Op: MutRemoveAttribute, ID: 2, Name: "viewBox"},
			{Op: MutSetStyle, ID: 2, Name: "color", Value: "red"},
			{Op: MutRemoveStyle, ID: 2, Name: "color"},
			{Op: MutListen, ID: 2, Name: "click"},
			{Op: MutUnlisten, ID: 2, Name: "click"},
		},
	}

	got, err := DecodeMutations(EncodeMutations(mf))
	if err != nil {
		t.Fatalf("DecodeMutations: %v", err)
	}
	if diff := cmp.Diff(mf, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeMutationsErrors(t *testing.T) {
	valid := EncodeMutations(&MutationsFrame{Seq: 1, Mutations: []Mutation{{Op: MutSetText, ID: 1, Value: "abc"}}})

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, io.ErrUnexpectedEOF},
		{"truncated", valid[:len(valid)-1], io.ErrUnexpectedEOF},
		{"trailing", append(append([]byte{}, valid...), 0x00), ErrTrailingBytes},
		{"huge count", []byte{0x01, 0xff, 0xff, 0xff, 0x0f}, ErrCollectionTooLarge},
		{"id overflow", []byte{0x01, 0x01, byte(MutSetText), 0xff, 0xff, 0xff, 0xff, 0x7f, 0x00}, ErrVarintOverflow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeMutations(tt.data); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := DecodeMutations([]byte{0x01, 0x01, 0x7f, 0x01}); err == nil {
		t.Error("unknown op should fail")
	}
}

func TestMutationString(t *testing.T) {
	tests := []struct {
		m    Mutation
		want string
	}{
		{Mutation{Op: MutInsertBefore, ID: 3, Parent: 1, Ref: 2}, "InsertBefore(#3 under #1 before #2)"},
		{Mutation{Op: MutSetAttribute, ID: 3, Name: "id", Value: "x"}, `SetAttribute(#3 id="x")`},
		{Mutation{Op: MutListen, ID: 3, Name: "click"}, "Listen(#3 click)"},
		{Mutation{Op: MutSetText, ID: 3, Value: "t"}, `SetText(#3 "t")`},
	}
	for _, tt := range tests {
		if got := tt.m.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
