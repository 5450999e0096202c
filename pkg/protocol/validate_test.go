package protocol

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name     string
		header   ResponseHeader
		expected uint16
		wantErr  error
	}{
		{"register ok", ResponseHeader{Code: CodeRegisterSuccess, PayloadSize: 16}, CodeRegisterSuccess, nil},
		{"register short", ResponseHeader{Code: CodeRegisterSuccess, PayloadSize: 15}, CodeRegisterSuccess, ErrPayloadLength},
		{"register long", ResponseHeader{Code: CodeRegisterSuccess, PayloadSize: 17}, CodeRegisterSuccess, ErrPayloadLength},
		{"public key ok", ResponseHeader{Code: CodeGetPublicKeySuccess, PayloadSize: 176}, CodeGetPublicKeySuccess, nil},
		{"public key wrong", ResponseHeader{Code: CodeGetPublicKeySuccess, PayloadSize: 160}, CodeGetPublicKeySuccess, ErrPayloadLength},
		{"sent ok", ResponseHeader{Code: CodeMessageSentSuccess, PayloadSize: 20}, CodeMessageSentSuccess, nil},
		{"sent wrong", ResponseHeader{Code: CodeMessageSentSuccess, PayloadSize: 24}, CodeMessageSentSuccess, ErrPayloadLength},
		{"list any length", ResponseHeader{Code: CodeListClientsSuccess, PayloadSize: 542}, CodeListClientsSuccess, nil},
		{"unread empty", ResponseHeader{Code: CodeGetUnreadSuccess, PayloadSize: 0}, CodeGetUnreadSuccess, nil},
		{"unread too large", ResponseHeader{Code: CodeGetUnreadSuccess, PayloadSize: MaxPayloadSize + 1}, CodeGetUnreadSuccess, ErrPayloadTooLarge},
		{"wrong code", ResponseHeader{Code: CodeListClientsSuccess, PayloadSize: 16}, CodeRegisterSuccess, ErrUnexpectedCode},
		{"generic error", ResponseHeader{Code: CodeGenericError}, CodeMessageSentSuccess, ErrServerRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateResponse(&tt.header, tt.expected)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateResponse() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateResponse() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateName(t *testing.T) {
	valid := []string{"alice", "Alice Smith", "tab\tname", " padded ", strings.Repeat("x", MaxNameLength)}
	for _, name := range valid {
		if err := ValidateName(name); err != nil {
			t.Errorf("ValidateName(%q) error = %v, want nil", name, err)
		}
	}

	invalid := []string{"", "al\nice", "alice\r", "al\vice", "al\fice", "al-ice", "ålice", strings.Repeat("x", MaxNameLength+1)}
	for _, name := range invalid {
		if err := ValidateName(name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("ValidateName(%q) error = %v, want %v", name, err, ErrInvalidName)
		}
	}
}

func TestSuccessCode(t *testing.T) {
	pairs := map[uint16]uint16{
		OpRegister:     CodeRegisterSuccess,
		OpListClients:  CodeListClientsSuccess,
		OpGetPublicKey: CodeGetPublicKeySuccess,
		OpSendMessage:  CodeMessageSentSuccess,
		OpGetUnread:    CodeGetUnreadSuccess,
	}
	for op, code := range pairs {
		if got := SuccessCode(op); got != code {
			t.Errorf("SuccessCode(%d) = %d, want %d", op, got, code)
		}
	}
}

func TestDecodePayload(t *testing.T) {
	reg := &RegisterResponse{ClientID: ClientID{5}}
	v, err := DecodePayload(CodeRegisterSuccess, reg.Encode())
	if err != nil {
		t.Fatalf("DecodePayload(register) error = %v", err)
	}
	if got, ok := v.(*RegisterResponse); !ok || got.ClientID != reg.ClientID {
		t.Errorf("DecodePayload(register) = %#v", v)
	}

	sent := &MessageSentResponse{ClientID: ClientID{6}, MessageID: 99}
	v, err = DecodePayload(CodeMessageSentSuccess, sent.Encode())
	if err != nil {
		t.Fatalf("DecodePayload(sent) error = %v", err)
	}
	if got, ok := v.(*MessageSentResponse); !ok || *got != *sent {
		t.Errorf("DecodePayload(sent) = %#v", v)
	}

	v, err = DecodePayload(CodeListClientsSuccess, EncodeClientList([]ClientRecord{{Name: "x"}}))
	if err != nil {
		t.Fatalf("DecodePayload(list) error = %v", err)
	}
	if got, ok := v.([]ClientRecord); !ok || len(got) != 1 {
		t.Errorf("DecodePayload(list) = %#v", v)
	}

	if _, err := DecodePayload(CodeGenericError, nil); !errors.Is(err, ErrUnexpectedCode) {
		t.Errorf("DecodePayload(9000) error = %v, want %v", err, ErrUnexpectedCode)
	}
}

func TestErrorKinds(t *testing.T) {
	err := NewError(KindProtocol, "register", ErrPayloadLength)

	if KindOf(err) != KindProtocol {
		t.Errorf("KindOf() = %v, want %v", KindOf(err), KindProtocol)
	}
	if !errors.Is(err, ErrPayloadLength) {
		t.Error("errors.Is() lost the wrapped sentinel")
	}

	wrapped := errors.Join(errors.New("outer"), err)
	if !IsKind(wrapped, KindProtocol) {
		t.Error("IsKind() failed through a joined error")
	}
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Error("KindOf(plain) != KindUnknown")
	}
}
