package protocol

import "fmt"

// fixedPayloadSizes lists the exact payload length of fixed-size success
// responses. Codes missing from the table carry variable payloads.
var fixedPayloadSizes = map[uint16]uint32{
	CodeRegisterSuccess:     ClientIDSize,
	CodeGetPublicKeySuccess: ClientIDSize + PublicKeySize,
	CodeMessageSentSuccess:  ClientIDSize + MessageIDSize,
}

// ValidateResponse checks a response header against the code expected for
// the request that was sent
func ValidateResponse(h *ResponseHeader, expected uint16) error {
	if h.Code == CodeGenericError && expected != CodeGenericError {
		return ErrServerRejected
	}
	if h.Code != expected {
		return fmt.Errorf("%w: got %d, want %d", ErrUnexpectedCode, h.Code, expected)
	}

	if size, ok := fixedPayloadSizes[h.Code]; ok {
		if h.PayloadSize != size {
			return fmt.Errorf("%w: got %d, want %d", ErrPayloadLength, h.PayloadSize, size)
		}
		return nil
	}

	if h.PayloadSize > MaxPayloadSize {
		return fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, h.PayloadSize)
	}

	return nil
}

// DecodePayload decodes a validated success payload into its typed form:
// *RegisterResponse, []ClientRecord, *PublicKeyResponse,
// *MessageSentResponse or []MessageRecord
func DecodePayload(code uint16, buf []byte) (any, error) {
	switch code {
	case CodeRegisterSuccess:
		resp := &RegisterResponse{}
		if err := resp.Decode(buf); err != nil {
			return nil, err
		}
		return resp, nil
	case CodeListClientsSuccess:
		return DecodeClientList(buf)
	case CodeGetPublicKeySuccess:
		resp := &PublicKeyResponse{}
		if err := resp.Decode(buf); err != nil {
			return nil, err
		}
		return resp, nil
	case CodeMessageSentSuccess:
		resp := &MessageSentResponse{}
		if err := resp.Decode(buf); err != nil {
			return nil, err
		}
		return resp, nil
	case CodeGetUnreadSuccess:
		return DecodeUnreadMessages(buf)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedCode, code)
	}
}
