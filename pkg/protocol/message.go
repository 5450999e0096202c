package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Request is a typed request body
type Request interface {
	// Opcode returns the request code carried in the header
	Opcode() uint16
	// EncodePayload returns the bytes following the header
	EncodePayload() ([]byte, error)
}

// EncodeRequest encodes header and payload for a request sent by id
func EncodeRequest(id ClientID, req Request) ([]byte, error) {
	payload, err := req.EncodePayload()
	if err != nil {
		return nil, err
	}

	header := NewRequestHeader(id, req.Opcode(), uint32(len(payload)))
	buf := make([]byte, RequestHeaderSize+len(payload))
	header.put(buf)
	copy(buf[RequestHeaderSize:], payload)

	return buf, nil
}

// ===== NAME FIELD =====

// PutName writes name into a NUL padded field of NameSize bytes
func PutName(buf []byte, name string) {
	field := buf[:NameSize]
	for i := range field {
		field[i] = 0
	}
	copy(field[:MaxNameLength], name)
}

// ReadName reads a NUL terminated name field
func ReadName(buf []byte) string {
	field := buf[:NameSize]
	field = field[:MaxNameLength]
	if i := bytes.IndexByte(field, 0); i >= 0 {
		field = field[:i]
	}
	return string(field)
}

// ValidateName checks a display name: 1..254 bytes of ASCII letters,
// digits, spaces and tabs
func ValidateName(name string) error {
	if len(name) == 0 || len(name) > MaxNameLength {
		return fmt.Errorf("%w: must be 1 to %d characters", ErrInvalidName, MaxNameLength)
	}

	for i := 0; i < len(name); i++ {
		if !isAlnum(name[i]) && !isSpace(name[i]) {
			return fmt.Errorf("%w: only alphanumeric characters and spaces are allowed", ErrInvalidName)
		}
	}

	return nil
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t'
}

// ===== REGISTER =====

// RegisterRequest asks the server to register a new client
type RegisterRequest struct {
	Name      string
	PublicKey []byte // PublicKeySize bytes
}

func (r *RegisterRequest) Opcode() uint16 { return OpRegister }

// EncodePayload encodes name and public key fields
func (r *RegisterRequest) EncodePayload() ([]byte, error) {
	if err := ValidateName(r.Name); err != nil {
		return nil, err
	}
	if len(r.PublicKey) != PublicKeySize {
		return nil, ErrInvalidPublicKey
	}

	buf := make([]byte, NameSize+PublicKeySize)
	PutName(buf, r.Name)
	copy(buf[NameSize:], r.PublicKey)

	return buf, nil
}

// Decode decodes a register payload
func (r *RegisterRequest) Decode(buf []byte) error {
	if len(buf) != NameSize+PublicKeySize {
		return ErrPayloadLength
	}

	r.Name = ReadName(buf)
	r.PublicKey = make([]byte, PublicKeySize)
	copy(r.PublicKey, buf[NameSize:])

	return nil
}

// RegisterResponse carries the assigned client id
type RegisterResponse struct {
	ClientID ClientID
}

// Encode encodes the response payload
func (r *RegisterResponse) Encode() []byte {
	buf := make([]byte, ClientIDSize)
	copy(buf, r.ClientID[:])
	return buf
}

// Decode decodes the response payload
func (r *RegisterResponse) Decode(buf []byte) error {
	if len(buf) != ClientIDSize {
		return ErrPayloadLength
	}
	copy(r.ClientID[:], buf)
	return nil
}

// ===== GET PUBLIC KEY =====

// PublicKeyRequest asks for the public key registered under Name
type PublicKeyRequest struct {
	Name string
}

func (r *PublicKeyRequest) Opcode() uint16 { return OpGetPublicKey }

// EncodePayload encodes the name field
func (r *PublicKeyRequest) EncodePayload() ([]byte, error) {
	if err := ValidateName(r.Name); err != nil {
		return nil, err
	}

	buf := make([]byte, NameSize)
	PutName(buf, r.Name)

	return buf, nil
}

// Decode decodes a public key request payload
func (r *PublicKeyRequest) Decode(buf []byte) error {
	if len(buf) != NameSize {
		return ErrPayloadLength
	}
	r.Name = ReadName(buf)
	return nil
}

// PublicKeyResponse carries a peer id and its public key
type PublicKeyResponse struct {
	ClientID  ClientID
	PublicKey [PublicKeySize]byte
}

// Encode encodes the response payload
func (r *PublicKeyResponse) Encode() []byte {
	buf := make([]byte, ClientIDSize+PublicKeySize)
	copy(buf, r.ClientID[:])
	copy(buf[ClientIDSize:], r.PublicKey[:])
	return buf
}

// Decode decodes the response payload
func (r *PublicKeyResponse) Decode(buf []byte) error {
	if len(buf) != ClientIDSize+PublicKeySize {
		return ErrPayloadLength
	}
	copy(r.ClientID[:], buf[:ClientIDSize])
	copy(r.PublicKey[:], buf[ClientIDSize:])
	return nil
}

// ===== SEND MESSAGE =====

// SendMessageRequest delivers one message to a recipient
type SendMessageRequest struct {
	Recipient ClientID
	Type      uint8
	Content   []byte // Owned content; its length is the content length field
}

func (r *SendMessageRequest) Opcode() uint16 { return OpSendMessage }

// EncodePayload encodes recipient, type, content length and content
func (r *SendMessageRequest) EncodePayload() ([]byte, error) {
	buf := make([]byte, SendMessageFixedSize+len(r.Content))
	offset := 0

	copy(buf[offset:], r.Recipient[:])
	offset += ClientIDSize

	buf[offset] = r.Type
	offset++

	binary.LittleEndian.PutUint32(buf[offset:], uint32(len(r.Content)))
	offset += 4

	copy(buf[offset:], r.Content)

	return buf, nil
}

// Decode decodes a send message payload
func (r *SendMessageRequest) Decode(buf []byte) error {
	if len(buf) < SendMessageFixedSize {
		return ErrTruncatedRecord
	}

	offset := 0
	copy(r.Recipient[:], buf[offset:offset+ClientIDSize])
	offset += ClientIDSize

	r.Type = buf[offset]
	offset++

	contentLen := binary.LittleEndian.Uint32(buf[offset:])
	offset += 4

	if uint64(len(buf)-offset) != uint64(contentLen) {
		return ErrPayloadLength
	}

	r.Content = make([]byte, contentLen)
	copy(r.Content, buf[offset:])

	return nil
}

// MessageSentResponse acknowledges a stored message
type MessageSentResponse struct {
	ClientID  ClientID
	MessageID uint32
}

// Encode encodes the response payload
func (r *MessageSentResponse) Encode() []byte {
	buf := make([]byte, ClientIDSize+MessageIDSize)
	copy(buf, r.ClientID[:])
	binary.LittleEndian.PutUint32(buf[ClientIDSize:], r.MessageID)
	return buf
}

// Decode decodes the response payload
func (r *MessageSentResponse) Decode(buf []byte) error {
	if len(buf) != ClientIDSize+MessageIDSize {
		return ErrPayloadLength
	}
	copy(r.ClientID[:], buf[:ClientIDSize])
	r.MessageID = binary.LittleEndian.Uint32(buf[ClientIDSize:])
	return nil
}

// ===== HEADER ONLY REQUESTS =====

// ListClientsRequest asks for the client directory
type ListClientsRequest struct{}

func (r *ListClientsRequest) Opcode() uint16                 { return OpListClients }
func (r *ListClientsRequest) EncodePayload() ([]byte, error) { return nil, nil }

// UnreadMessagesRequest asks for messages waiting for the sender
type UnreadMessagesRequest struct{}

func (r *UnreadMessagesRequest) Opcode() uint16                 { return OpGetUnread }
func (r *UnreadMessagesRequest) EncodePayload() ([]byte, error) { return nil, nil }

// ===== CLIENT LIST =====

// ClientRecord is one directory entry
type ClientRecord struct {
	ClientID ClientID
	Name     string
}

// EncodeClientList encodes directory records back to back
func EncodeClientList(records []ClientRecord) []byte {
	buf := make([]byte, len(records)*ClientRecordSize)
	for i, rec := range records {
		offset := i * ClientRecordSize
		copy(buf[offset:], rec.ClientID[:])
		PutName(buf[offset+ClientIDSize:], rec.Name)
	}
	return buf
}

// DecodeClientList decodes a LIST_CLIENTS payload
func DecodeClientList(buf []byte) ([]ClientRecord, error) {
	if len(buf)%ClientRecordSize != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of %d", ErrMalformedPayload, len(buf), ClientRecordSize)
	}

	records := make([]ClientRecord, 0, len(buf)/ClientRecordSize)
	for offset := 0; offset < len(buf); offset += ClientRecordSize {
		var rec ClientRecord
		copy(rec.ClientID[:], buf[offset:offset+ClientIDSize])
		rec.Name = ReadName(buf[offset+ClientIDSize : offset+ClientRecordSize])
		records = append(records, rec)
	}

	return records, nil
}

// ===== UNREAD MESSAGES =====

// MessageRecord is one waiting message
type MessageRecord struct {
	From      ClientID
	MessageID uint32
	Type      uint8
	Content   []byte
}

// EncodeMessageRecords encodes records back to back
func EncodeMessageRecords(records []MessageRecord) []byte {
	size := 0
	for _, rec := range records {
		size += MessageRecordHeaderSize + len(rec.Content)
	}

	buf := make([]byte, size)
	offset := 0
	for _, rec := range records {
		copy(buf[offset:], rec.From[:])
		offset += ClientIDSize

		binary.LittleEndian.PutUint32(buf[offset:], rec.MessageID)
		offset += MessageIDSize

		buf[offset] = rec.Type
		offset++

		binary.LittleEndian.PutUint32(buf[offset:], uint32(len(rec.Content)))
		offset += 4

		copy(buf[offset:], rec.Content)
		offset += len(rec.Content)
	}

	return buf
}

// DecodeUnreadMessages decodes a GET_UNREAD payload. Records with a zero
// content length are markers and are skipped. The payload is rejected as a
// whole if any record runs past its end.
func DecodeUnreadMessages(buf []byte) ([]MessageRecord, error) {
	var records []MessageRecord
	offset := 0

	for offset < len(buf) {
		if len(buf)-offset < MessageRecordHeaderSize {
			return nil, fmt.Errorf("%w: %d trailing bytes", ErrTruncatedRecord, len(buf)-offset)
		}

		var rec MessageRecord
		copy(rec.From[:], buf[offset:offset+ClientIDSize])
		offset += ClientIDSize

		rec.MessageID = binary.LittleEndian.Uint32(buf[offset:])
		offset += MessageIDSize

		rec.Type = buf[offset]
		offset++

		contentLen := binary.LittleEndian.Uint32(buf[offset:])
		offset += 4

		if contentLen == 0 {
			continue
		}
		if uint64(contentLen) > uint64(len(buf)-offset) {
			return nil, fmt.Errorf("%w: content length %d, %d bytes left", ErrTruncatedRecord, contentLen, len(buf)-offset)
		}

		rec.Content = make([]byte, contentLen)
		copy(rec.Content, buf[offset:offset+int(contentLen)])
		offset += int(contentLen)

		records = append(records, rec)
	}

	return records, nil
}
