package protocol

import (
	"bytes"
	"encoding/hex"
	"strings"
)

// Protocol constants
const (
	// Version sent in every request header
	ClientVersion uint8 = 1

	// Header sizes
	RequestHeaderSize  = ClientIDSize + 1 + 2 + 4 // 23
	ResponseHeaderSize = 1 + 2 + 4                // 7

	// Field widths
	ClientIDSize     = 16
	NameSize         = 255
	PublicKeySize    = 160
	MessageIDSize    = 4
	SymmetricKeySize = 16

	// MaxNameLength is the longest display name; the last byte of the name
	// field is always NUL.
	MaxNameLength = NameSize - 1

	// ClientRecordSize is one LIST_CLIENTS entry: id + name
	ClientRecordSize = ClientIDSize + NameSize // 271

	// MessageRecordHeaderSize is one GET_UNREAD entry header:
	// sender id + message id + type + content length
	MessageRecordHeaderSize = ClientIDSize + MessageIDSize + 1 + 4 // 25

	// SendMessageFixedSize is the SEND_MESSAGE payload without content:
	// recipient id + type + content length
	SendMessageFixedSize = ClientIDSize + 1 + 4 // 21

	// MaxPayloadSize caps variable response payloads
	MaxPayloadSize = 16 << 20
)

// Request codes
const (
	OpRegister     uint16 = 1000
	OpListClients  uint16 = 1001
	OpGetPublicKey uint16 = 1002
	OpSendMessage  uint16 = 1003
	OpGetUnread    uint16 = 1004
)

// Response codes
const (
	CodeRegisterSuccess     uint16 = 2000
	CodeListClientsSuccess  uint16 = 2001
	CodeGetPublicKeySuccess uint16 = 2002
	CodeMessageSentSuccess  uint16 = 2003
	CodeGetUnreadSuccess    uint16 = 2004
	CodeGenericError        uint16 = 9000
)

// Message types
const (
	MsgTypeNone          uint8 = 0
	MsgTypeRequestSymKey uint8 = 1
	MsgTypeSendSymKey    uint8 = 2
	MsgTypeText          uint8 = 3
	MsgTypeFile          uint8 = 4
)

// SymKeyRequestText is the plaintext body of a REQUEST_SYM_KEY message
const SymKeyRequestText = "Request for symmetric key"

// ClientID is the server-assigned 16-byte client identifier
type ClientID [ClientIDSize]byte

// Equal reports byte-wise equality
func (id ClientID) Equal(other ClientID) bool {
	return bytes.Equal(id[:], other[:])
}

// IsZero reports whether the id is all zeros (not yet assigned)
func (id ClientID) IsZero() bool {
	return id == ClientID{}
}

// String returns the upper-case hex form of the id, as stored in me.info
func (id ClientID) String() string {
	return strings.ToUpper(hex.EncodeToString(id[:]))
}

// ParseClientID decodes a 32-character hex id
func ParseClientID(s string) (ClientID, error) {
	var id ClientID
	raw, err := hex.DecodeString(s)
	if err != nil {
		return id, err
	}
	if len(raw) != ClientIDSize {
		return id, ErrInvalidClientID
	}
	copy(id[:], raw)
	return id, nil
}

// SuccessCode returns the response code a successful reply to op carries
func SuccessCode(op uint16) uint16 {
	return op + 1000
}

// OpName returns a readable name for a request code
func OpName(op uint16) string {
	switch op {
	case OpRegister:
		return "REGISTER"
	case OpListClients:
		return "LIST_CLIENTS"
	case OpGetPublicKey:
		return "GET_PUBLIC_KEY"
	case OpSendMessage:
		return "SEND_MESSAGE"
	case OpGetUnread:
		return "GET_UNREAD"
	default:
		return "UNKNOWN"
	}
}

// MessageTypeName returns a readable name for a message type tag
func MessageTypeName(t uint8) string {
	switch t {
	case MsgTypeRequestSymKey:
		return "request-symmetric-key"
	case MsgTypeSendSymKey:
		return "symmetric-key"
	case MsgTypeText:
		return "text"
	case MsgTypeFile:
		return "file"
	default:
		return "none"
	}
}
