package network

import (
	"errors"
	"testing"
)

type staticLines struct {
	exists bool
	lines  []string
}

func (s staticLines) Exists() bool                 { return s.exists }
func (s staticLines) ReadLines() ([]string, error) { return s.lines, nil }

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    Address
		wantErr error
	}{
		{"ipv4", "127.0.0.1:1357", Address{"127.0.0.1", 1357}, nil},
		{"localhost", "localhost:8080", Address{"localhost", 8080}, nil},
		{"localhost any case", "LocalHost:8080", Address{"localhost", 8080}, nil},
		{"trailing newline", "10.0.0.2:65535\n", Address{"10.0.0.2", 65535}, nil},
		{"multiaddr ip4", "/ip4/127.0.0.1/tcp/1357", Address{"127.0.0.1", 1357}, nil},
		{"multiaddr dns4", "/dns4/localhost/tcp/1357", Address{"localhost", 1357}, nil},
		{"zero port", "127.0.0.1:0", Address{}, ErrInvalidPort},
		{"port too large", "127.0.0.1:65536", Address{}, ErrInvalidPort},
		{"port not a number", "127.0.0.1:http", Address{}, ErrInvalidPort},
		{"hostname", "example.com:1357", Address{}, ErrInvalidHost},
		{"ipv6", "[::1]:1357", Address{}, ErrInvalidHost},
		{"bad ipv4", "256.1.1.1:1357", Address{}, ErrInvalidHost},
		{"multiaddr hostname", "/dns4/example.com/tcp/1357", Address{}, ErrInvalidHost},
		{"missing port", "127.0.0.1", Address{}, ErrInvalidAddress},
		{"empty", "", Address{}, ErrInvalidAddress},
		{"multiaddr without tcp", "/ip4/127.0.0.1/udp/1357", Address{}, ErrInvalidAddress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAddress(tt.line)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("ParseAddress(%q) error = %v, want %v", tt.line, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAddress(%q) error = %v", tt.line, err)
			}
			if got != tt.want {
				t.Errorf("ParseAddress(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

func TestAddressString(t *testing.T) {
	a := Address{Host: "127.0.0.1", Port: 1357}
	if a.String() != "127.0.0.1:1357" {
		t.Errorf("String() = %q", a.String())
	}
}

func TestLoadAddress(t *testing.T) {
	if _, err := LoadAddress(staticLines{}); err != ErrNoAddress {
		t.Errorf("LoadAddress(missing) error = %v, want %v", err, ErrNoAddress)
	}
	if _, err := LoadAddress(staticLines{exists: true}); err != ErrNoAddress {
		t.Errorf("LoadAddress(empty) error = %v, want %v", err, ErrNoAddress)
	}

	got, err := LoadAddress(staticLines{exists: true, lines: []string{"127.0.0.1:1234", "ignored"}})
	if err != nil {
		t.Fatalf("LoadAddress() error = %v", err)
	}
	if got.Port != 1234 {
		t.Errorf("LoadAddress() port = %d, want 1234", got.Port)
	}
}
