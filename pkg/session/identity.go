// Package session holds the client's persistent identity and its cache of
// known peers.
package session

import (
	"github.com/ZentaChain/zentalk-client/pkg/protocol"
)

// Crypto is the capability set the session layer needs. Keys are passed as
// encoded bytes; see crypto.Provider for the encodings.
type Crypto interface {
	GenerateKeyPair() (private, public []byte, err error)
	PublicKey(private []byte) ([]byte, error)
	EncryptAsymmetric(public, plaintext []byte) ([]byte, error)
	DecryptAsymmetric(private, ciphertext []byte) ([]byte, error)
	GenerateSymmetricKey() ([]byte, error)
	EncryptSymmetric(key, plaintext []byte) ([]byte, error)
	DecryptSymmetric(key, ciphertext []byte) ([]byte, error)
}

// Identity is the registered client. The id never changes once assigned.
type Identity struct {
	ID         protocol.ClientID
	Name       string
	PrivateKey []byte
	PublicKey  []byte
}

// NewIdentity generates a fresh key pair for name. The identity has no id
// until the server assigns one.
func NewIdentity(name string, c Crypto) (*Identity, error) {
	if err := protocol.ValidateName(name); err != nil {
		return nil, protocol.NewError(protocol.KindValidation, "register", err)
	}

	private, public, err := c.GenerateKeyPair()
	if err != nil {
		return nil, protocol.NewError(protocol.KindCrypto, "register", err)
	}
	if len(public) != protocol.PublicKeySize {
		return nil, protocol.NewError(protocol.KindCrypto, "register", protocol.ErrInvalidPublicKey)
	}

	return &Identity{
		Name:       name,
		PrivateKey: private,
		PublicKey:  public,
	}, nil
}
