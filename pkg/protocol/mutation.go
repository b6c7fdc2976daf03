package protocol

import "fmt"

// MutationOp is the type of a mutation record.
type MutationOp uint8

const (
	MutCreateElement   MutationOp = 0x01 // ID, Name=tag, Value=namespace
	MutCreateText      MutationOp = 0x02 // ID, Value
	MutCreateComment   MutationOp = 0x03 // ID, Value
	MutInsertBefore    MutationOp = 0x04 // ID, Parent, Ref (0 appends)
	MutRemoveChild     MutationOp = 0x05 // ID, Parent
	MutSetText         MutationOp = 0x06 // ID, Value
	MutSetAttribute    MutationOp = 0x07 // ID, Name, Value
	MutRemoveAttribute MutationOp = 0x08 // ID, Name
	MutSetStyle        MutationOp = 0x09 // ID, Name, Value
	MutRemoveStyle     MutationOp = 0x0A // ID, Name
	MutListen          MutationOp = 0x0B // ID, Name=event
	MutUnlisten        MutationOp = 0x0C // ID, Name=event
)

// String returns the string representation of the mutation op.
func (op MutationOp) String() string {
	switch op {
	case MutCreateElement:
		return "CreateElement"
	case MutCreateText:
		return "CreateText"
	case MutCreateComment:
		return "CreateComment"
	case MutInsertBefore:
		return "InsertBefore"
	case MutRemoveChild:
		return "RemoveChild"
	case MutSetText:
		return "SetText"
	case MutSetAttribute:
		return "SetAttribute"
	case MutRemoveAttribute:
		return "RemoveAttribute"
	case MutSetStyle:
		return "SetStyle"
	case MutRemoveStyle:
		return "RemoveStyle"
	case MutListen:
		return "Listen"
	case MutUnlisten:
		return "Unlisten"
	default:
		return "Unknown"
	}
}

// Mutation is a single change to the real tree, referencing nodes by
// wire ID.
type Mutation struct {
	Op     MutationOp
	ID     uint32 // Target node
	Parent uint32 // InsertBefore, RemoveChild
	Ref    uint32 // InsertBefore; 0 appends
	Name   string // Tag, attribute, style property or event name
	Value  string // Text, namespace, attribute or style value
}

// String returns a compact human-readable form.
func (m Mutation) String() string {
	switch m.Op {
	case MutInsertBefore:
		return fmt.Sprintf("%s(#%d under #%d before #%d)", m.Op, m.ID, m.Parent, m.Ref)
	case MutRemoveChild:
		return fmt.Sprintf("%s(#%d from #%d)", m.Op, m.ID, m.Parent)
	case MutCreateElement, MutSetAttribute, MutSetStyle:
		return fmt.Sprintf("%s(#%d %s=%q)", m.Op, m.ID, m.Name, m.Value)
	case MutRemoveAttribute, MutRemoveStyle, MutListen, MutUnlisten:
		return fmt.Sprintf("%s(#%d %s)", m.Op, m.ID, m.Name)
	default:
		return fmt.Sprintf("%s(#%d %q)", m.Op, m.ID, m.Value)
	}
}

// MutationsFrame is one batch of mutations with its sequence number.
type MutationsFrame struct {
	Seq       uint64
	Mutations []Mutation
}

// EncodeMutations encodes a mutation batch.
//
// Layout: uvarint seq, uvarint count, then per record an op byte, the
// uvarint node ID and the op's operands (strings are uvarint length
// prefixed, node IDs are uvarints).
func EncodeMutations(mf *MutationsFrame) []byte {
	w := newWriter(estimateSize(mf))
	w.putUvarint(mf.Seq)
	w.putUvarint(uint64(len(mf.Mutations)))
	for i := range mf.Mutations {
		m := &mf.Mutations[i]
		w.putByte(byte(m.Op))
		w.putID(m.ID)
		switch m.Op {
		case MutCreateElement, MutSetAttribute, MutSetStyle:
			w.putString(m.Name)
			w.putString(m.Value)
		case MutCreateText, MutCreateComment, MutSetText:
			w.putString(m.Value)
		case MutInsertBefore:
			w.putID(m.Parent)
			w.putID(m.Ref)
		case MutRemoveChild:
			w.putID(m.Parent)
		case MutRemoveAttribute, MutRemoveStyle, MutListen, MutUnlisten:
			w.putString(m.Name)
		}
	}
	return w.buf
}

// DecodeMutations decodes a batch written by EncodeMutations. The whole
// payload must be consumed.
func DecodeMutations(data []byte) (*MutationsFrame, error) {
	r := newReader(data)
	seq, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	n, err := r.count()
	if err != nil {
		return nil, err
	}

	mf := &MutationsFrame{Seq: seq, Mutations: make([]Mutation, n)}
	for i := range mf.Mutations {
		if err := readMutation(r, &mf.Mutations[i]); err != nil {
			return nil, fmt.Errorf("mutation %d: %w", i, err)
		}
	}
	return mf, r.done()
}

func readMutation(r *reader, m *Mutation) error {
	op, err := r.getByte()
	if err != nil {
		return err
	}
	m.Op = MutationOp(op)
	if m.ID, err = r.id(); err != nil {
		return err
	}

	switch m.Op {
	case MutCreateElement, MutSetAttribute, MutSetStyle:
		if m.Name, err = r.string(); err != nil {
			return err
		}
		m.Value, err = r.string()
	case MutCreateText, MutCreateComment, MutSetText:
		m.Value, err = r.string()
	case MutInsertBefore:
		if m.Parent, err = r.id(); err != nil {
			return err
		}
		m.Ref, err = r.id()
	case MutRemoveChild:
		m.Parent, err = r.id()
	case MutRemoveAttribute, MutRemoveStyle, MutListen, MutUnlisten:
		m.Name, err = r.string()
	default:
		return fmt.Errorf("protocol: unknown mutation op 0x%02x", op)
	}
	return err
}

func estimateSize(mf *MutationsFrame) int {
	n := uvarintLen(mf.Seq) + uvarintLen(uint64(len(mf.Mutations)))
	for i := range mf.Mutations {
		m := &mf.Mutations[i]
		n += 1 + 3*uvarintLen(uint64(m.ID)) + len(m.Name) + len(m.Value) + 2
	}
	return n
}
