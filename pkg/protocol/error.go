package protocol

// ErrorCode classifies an error reported to the peer.
type ErrorCode uint16

const (
	ErrUnknown         ErrorCode = 0x00 // Unclassified
	ErrInvalidFrame    ErrorCode = 0x01 // Frame or payload failed to decode
	ErrUnexpectedFrame ErrorCode = 0x02 // Frame type not accepted in this direction
	ErrSequenceGap     ErrorCode = 0x03 // A mutation batch was skipped; resync needed
	ErrServerError     ErrorCode = 0x10 // Internal failure
)

var errorCodeNames = map[ErrorCode]string{
	ErrInvalidFrame:    "InvalidFrame",
	ErrUnexpectedFrame: "UnexpectedFrame",
	ErrSequenceGap:     "SequenceGap",
	ErrServerError:     "ServerError",
}

// String returns the name of the code.
func (ec ErrorCode) String() string {
	if name, ok := errorCodeNames[ec]; ok {
		return name
	}
	return "Unknown"
}

// ErrorMessage is the payload of a FrameError. A fatal error is
// followed by the server closing the connection.
type ErrorMessage struct {
	Code    ErrorCode
	Message string
	Fatal   bool
}

const errorFlagFatal = 0x01

// EncodeErrorMessage encodes em as: uint16 code, flags byte, string.
func EncodeErrorMessage(em *ErrorMessage) []byte {
	w := newWriter(4 + len(em.Message))
	w.putUint16(uint16(em.Code))
	var flags byte
	if em.Fatal {
		flags |= errorFlagFatal
	}
	w.putByte(flags)
	w.putString(em.Message)
	return w.buf
}

// DecodeErrorMessage decodes a FrameError payload.
func DecodeErrorMessage(data []byte) (*ErrorMessage, error) {
	r := newReader(data)
	code, err := r.uint16()
	if err != nil {
		return nil, err
	}
	flags, err := r.getByte()
	if err != nil {
		return nil, err
	}
	msg, err := r.string()
	if err != nil {
		return nil, err
	}
	em := &ErrorMessage{Code: ErrorCode(code), Message: msg, Fatal: flags&errorFlagFatal != 0}
	return em, r.done()
}

// NewError creates a non-fatal ErrorMessage.
func NewError(code ErrorCode, message string) *ErrorMessage {
	return &ErrorMessage{Code: code, Message: message}
}

// NewFatalError creates a fatal ErrorMessage.
func NewFatalError(code ErrorCode, message string) *ErrorMessage {
	return &ErrorMessage{Code: code, Message: message, Fatal: true}
}

// Error implements error.
func (em *ErrorMessage) Error() string {
	s := em.Code.String() + ": " + em.Message
	if em.Fatal {
		return "fatal: " + s
	}
	return s
}
