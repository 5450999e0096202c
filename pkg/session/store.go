package session

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/ZentaChain/zentalk-client/pkg/protocol"
)

// Base64LineWidth is the wrap width of the private key in the identity file
const Base64LineWidth = 72

var (
	ErrIdentityExists    = errors.New("identity file already exists")
	ErrNoIdentity        = errors.New("identity file does not exist")
	ErrMalformedIdentity = errors.New("malformed identity file")
)

// LineStore is a line-oriented file
type LineStore interface {
	Exists() bool
	ReadLines() ([]string, error)
	WriteLines(lines []string) error
}

// IdentityStore reads and writes the identity file: the name on line 1,
// the hex id on line 2 and the base64 PKCS#8 private key from line 3 on.
type IdentityStore struct {
	file   LineStore
	crypto Crypto
}

// NewIdentityStore creates a store over file
func NewIdentityStore(file LineStore, c Crypto) *IdentityStore {
	return &IdentityStore{file: file, crypto: c}
}

// Exists reports whether an identity has been saved
func (s *IdentityStore) Exists() bool {
	return s.file.Exists()
}

// Load reads the saved identity
func (s *IdentityStore) Load() (*Identity, error) {
	const op = "load identity"

	if !s.file.Exists() {
		return nil, protocol.NewError(protocol.KindStorage, op, ErrNoIdentity)
	}

	lines, err := s.file.ReadLines()
	if err != nil {
		return nil, protocol.NewError(protocol.KindStorage, op, err)
	}
	if len(lines) < 3 {
		return nil, protocol.NewError(protocol.KindStorage, op,
			fmt.Errorf("%w: %d lines, want at least 3", ErrMalformedIdentity, len(lines)))
	}

	name := lines[0]
	if err := protocol.ValidateName(name); err != nil {
		return nil, protocol.NewError(protocol.KindStorage, op, fmt.Errorf("%w: %v", ErrMalformedIdentity, err))
	}

	id, err := protocol.ParseClientID(strings.TrimSpace(lines[1]))
	if err != nil {
		return nil, protocol.NewError(protocol.KindStorage, op, fmt.Errorf("%w: bad id: %v", ErrMalformedIdentity, err))
	}

	var encoded strings.Builder
	for _, line := range lines[2:] {
		encoded.WriteString(strings.TrimSpace(line))
	}

	private, err := base64.StdEncoding.DecodeString(encoded.String())
	if err != nil {
		return nil, protocol.NewError(protocol.KindCrypto, op, fmt.Errorf("%w: bad private key encoding: %v", ErrMalformedIdentity, err))
	}

	public, err := s.crypto.PublicKey(private)
	if err != nil {
		return nil, protocol.NewError(protocol.KindCrypto, op, err)
	}
	if len(public) != protocol.PublicKeySize {
		return nil, protocol.NewError(protocol.KindCrypto, op, protocol.ErrInvalidPublicKey)
	}

	return &Identity{
		ID:         id,
		Name:       name,
		PrivateKey: private,
		PublicKey:  public,
	}, nil
}

// Save writes a newly registered identity. An existing file is never
// overwritten.
func (s *IdentityStore) Save(identity *Identity) error {
	const op = "save identity"

	if s.file.Exists() {
		return protocol.NewError(protocol.KindStorage, op, ErrIdentityExists)
	}

	lines := []string{
		identity.Name,
		identity.ID.String(),
	}
	lines = append(lines, wrapLines(base64.StdEncoding.EncodeToString(identity.PrivateKey), Base64LineWidth)...)

	if err := s.file.WriteLines(lines); err != nil {
		return protocol.NewError(protocol.KindStorage, op, err)
	}

	return nil
}

func wrapLines(s string, width int) []string {
	var lines []string
	for len(s) > width {
		lines = append(lines, s[:width])
		s = s[width:]
	}
	return append(lines, s)
}
