package crypto

import "github.com/ZentaChain/zentalk-client/pkg/protocol"

// Provider exposes the primitives over encoded key bytes: private keys as
// PKCS#8 DER, public keys as 160-byte X.509 DER, symmetric keys as 16 raw
// bytes.
type Provider struct{}

// GenerateKeyPair returns a new encoded private and public key
func (Provider) GenerateKeyPair() (private, public []byte, err error) {
	key, err := GenerateRSAKeyPair()
	if err != nil {
		return nil, nil, err
	}

	private, err = ExportPrivateKey(key)
	if err != nil {
		return nil, nil, err
	}
	public, err = ExportPublicKey(&key.PublicKey)
	if err != nil {
		return nil, nil, err
	}

	return private, public, nil
}

// PublicKey derives the encoded public key of an encoded private key
func (Provider) PublicKey(private []byte) ([]byte, error) {
	key, err := ImportPrivateKey(private)
	if err != nil {
		return nil, err
	}
	return ExportPublicKey(&key.PublicKey)
}

// EncryptAsymmetric encrypts plaintext to an encoded public key
func (Provider) EncryptAsymmetric(public, plaintext []byte) ([]byte, error) {
	key, err := ImportPublicKey(public)
	if err != nil {
		return nil, err
	}
	return RSAEncrypt(plaintext, key)
}

// DecryptAsymmetric decrypts ciphertext with an encoded private key
func (Provider) DecryptAsymmetric(private, ciphertext []byte) ([]byte, error) {
	key, err := ImportPrivateKey(private)
	if err != nil {
		return nil, err
	}
	return RSADecrypt(ciphertext, key)
}

// GenerateSymmetricKey returns a fresh AES-128 key
func (Provider) GenerateSymmetricKey() ([]byte, error) {
	return GenerateAESKey()
}

// EncryptSymmetric encrypts plaintext with a symmetric key
func (Provider) EncryptSymmetric(key, plaintext []byte) ([]byte, error) {
	if len(key) != protocol.SymmetricKeySize {
		return nil, ErrInvalidKey
	}
	return AESEncrypt(plaintext, key)
}

// DecryptSymmetric decrypts ciphertext with a symmetric key
func (Provider) DecryptSymmetric(key, ciphertext []byte) ([]byte, error) {
	if len(key) != protocol.SymmetricKeySize {
		return nil, ErrInvalidKey
	}
	return AESDecrypt(ciphertext, key)
}
