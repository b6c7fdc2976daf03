package protocol

import "fmt"

// ControlType identifies the type of control message.
type ControlType uint8

const (
	ControlPing          ControlType = 0x01 // Client/server ping
	ControlPong          ControlType = 0x02 // Response to ping
	ControlResyncRequest ControlType = 0x10 // Client requests a fresh snapshot
	ControlClose         ControlType = 0x20 // Session close
)

// String returns the string representation of the control type.
func (ct ControlType) String() string {
	switch ct {
	case ControlPing:
		return "Ping"
	case ControlPong:
		return "Pong"
	case ControlResyncRequest:
		return "ResyncRequest"
	case ControlClose:
		return "Close"
	default:
		return "Unknown"
	}
}

// CloseReason indicates why a session is being closed.
type CloseReason uint8

const (
	CloseNormal         CloseReason = 0x00 // Normal closure
	CloseGoingAway      CloseReason = 0x01 // Client/server going away
	CloseServerShutdown CloseReason = 0x03 // Server shutting down
	CloseError          CloseReason = 0x04 // Error occurred
)

// String returns the string representation of the close reason.
func (cr CloseReason) String() string {
	switch cr {
	case CloseNormal:
		return "Normal"
	case CloseGoingAway:
		return "GoingAway"
	case CloseServerShutdown:
		return "ServerShutdown"
	case CloseError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Control is a decoded control message. Only the fields relevant to Type
// are meaningful.
type Control struct {
	Type      ControlType
	Timestamp uint64      // Ping, Pong: Unix milliseconds
	LastSeq   uint64      // ResyncRequest: last applied sequence
	Reason    CloseReason // Close
	Message   string      // Close
}

// EncodeControl encodes a control message to bytes.
func EncodeControl(c *Control) []byte {
	w := newWriter(16 + len(c.Message))
	w.putByte(byte(c.Type))

	switch c.Type {
	case ControlPing, ControlPong:
		w.putUint64(c.Timestamp)
	case ControlResyncRequest:
		w.putUvarint(c.LastSeq)
	case ControlClose:
		w.putByte(byte(c.Reason))
		w.putString(c.Message)
	}
	return w.buf
}

// DecodeControl decodes a control message from bytes.
func DecodeControl(data []byte) (*Control, error) {
	r := newReader(data)
	typeByte, err := r.getByte()
	if err != nil {
		return nil, err
	}
	c := &Control{Type: ControlType(typeByte)}

	switch c.Type {
	case ControlPing, ControlPong:
		if c.Timestamp, err = r.uint64(); err != nil {
			return nil, err
		}
	case ControlResyncRequest:
		if c.LastSeq, err = r.uvarint(); err != nil {
			return nil, err
		}
	case ControlClose:
		reason, err := r.getByte()
		if err != nil {
			return nil, err
		}
		c.Reason = CloseReason(reason)
		if c.Message, err = r.string(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("protocol: unknown control type 0x%02x", typeByte)
	}
	return c, r.done()
}

// Hello is the first frame a server sends on a new connection.
type Hello struct {
	ClientID string // Server-assigned client identifier
	Seq      uint64 // Sequence of the last mutation batch already applied to the snapshot
}

// EncodeHello encodes a Hello payload.
func EncodeHello(h *Hello) []byte {
	w := newWriter(len(h.ClientID) + 12)
	w.putString(h.ClientID)
	w.putUvarint(h.Seq)
	return w.buf
}

// DecodeHello decodes a Hello payload.
func DecodeHello(data []byte) (*Hello, error) {
	r := newReader(data)
	id, err := r.string()
	if err != nil {
		return nil, err
	}
	seq, err := r.uvarint()
	if err != nil {
		return nil, err
	}
	return &Hello{ClientID: id, Seq: seq}, r.done()
}
