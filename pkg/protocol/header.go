package protocol

import (
	"encoding/binary"
)

// RequestHeader prefixes every client request
type RequestHeader struct {
	ClientID    ClientID // Sender id (zero before registration)
	Version     uint8    // Client protocol version
	Code        uint16   // Request code
	PayloadSize uint32   // Bytes following the header
}

// NewRequestHeader creates a header for op sent by id
func NewRequestHeader(id ClientID, op uint16, payloadSize uint32) RequestHeader {
	return RequestHeader{
		ClientID:    id,
		Version:     ClientVersion,
		Code:        op,
		PayloadSize: payloadSize,
	}
}

// Encode encodes the header to bytes
func (h *RequestHeader) Encode() []byte {
	buf := make([]byte, RequestHeaderSize)
	h.put(buf)
	return buf
}

func (h *RequestHeader) put(buf []byte) {
	copy(buf[0:16], h.ClientID[:])
	buf[16] = h.Version
	binary.LittleEndian.PutUint16(buf[17:19], h.Code)
	binary.LittleEndian.PutUint32(buf[19:23], h.PayloadSize)
}

// Decode decodes the header from bytes
func (h *RequestHeader) Decode(buf []byte) error {
	if len(buf) < RequestHeaderSize {
		return ErrInvalidHeader
	}

	copy(h.ClientID[:], buf[0:16])
	h.Version = buf[16]
	h.Code = binary.LittleEndian.Uint16(buf[17:19])
	h.PayloadSize = binary.LittleEndian.Uint32(buf[19:23])

	return nil
}

// ResponseHeader prefixes every server response
type ResponseHeader struct {
	Version     uint8  // Server protocol version
	Code        uint16 // Response code
	PayloadSize uint32 // Bytes following the header
}

// Encode encodes the header to bytes
func (h *ResponseHeader) Encode() []byte {
	buf := make([]byte, ResponseHeaderSize)

	buf[0] = h.Version
	binary.LittleEndian.PutUint16(buf[1:3], h.Code)
	binary.LittleEndian.PutUint32(buf[3:7], h.PayloadSize)

	return buf
}

// Decode decodes the header from bytes
func (h *ResponseHeader) Decode(buf []byte) error {
	if len(buf) < ResponseHeaderSize {
		return ErrInvalidHeader
	}

	h.Version = buf[0]
	h.Code = binary.LittleEndian.Uint16(buf[1:3])
	h.PayloadSize = binary.LittleEndian.Uint32(buf[3:7])

	return nil
}

// DecodeResponseHeader decodes a response header from the start of buf
func DecodeResponseHeader(buf []byte) (*ResponseHeader, error) {
	h := &ResponseHeader{}
	if err := h.Decode(buf); err != nil {
		return nil, err
	}
	return h, nil
}
