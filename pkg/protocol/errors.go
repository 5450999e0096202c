package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidHeader    = errors.New("invalid header")
	ErrInvalidClientID  = errors.New("invalid client id")
	ErrInvalidName      = errors.New("invalid user name")
	ErrInvalidPublicKey = errors.New("invalid public key length")
	ErrUnexpectedCode   = errors.New("unexpected response code")
	ErrServerRejected   = errors.New("server rejected request")
	ErrPayloadLength    = errors.New("payload length mismatch")
	ErrPayloadTooLarge  = errors.New("payload too large")
	ErrTruncatedRecord  = errors.New("truncated record")
	ErrMalformedPayload = errors.New("malformed payload")
)

// ErrorKind classifies a failure so callers can decide how to react
type ErrorKind uint8

const (
	KindUnknown ErrorKind = iota
	// KindValidation is a local, recoverable input or precondition failure
	KindValidation
	// KindProtocol is a response the client refuses to apply
	KindProtocol
	// KindTransport is a connection, read or write failure
	KindTransport
	// KindCrypto is a decryption failure or malformed key material
	KindCrypto
	// KindStorage is a local persistence failure
	KindStorage
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation error"
	case KindProtocol:
		return "protocol error"
	case KindTransport:
		return "transport error"
	case KindCrypto:
		return "crypto error"
	case KindStorage:
		return "storage error"
	default:
		return "error"
	}
}

// Error carries the kind and the operation that failed
type Error struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with a kind and operation name
func NewError(kind ErrorKind, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err is classified as kind
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
