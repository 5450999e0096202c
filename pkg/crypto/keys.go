package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"errors"
	"math/big"

	"github.com/ZentaChain/zentalk-client/pkg/protocol"
)

const (
	// RSAKeyBits is the modulus size of client keys
	RSAKeyBits = 1024

	// RSAPublicExponent keeps the X.509 public key encoding at exactly
	// protocol.PublicKeySize bytes for a 1024-bit modulus
	RSAPublicExponent = 17
)

var (
	ErrInvalidKey       = errors.New("invalid key")
	ErrEncryptionFailed = errors.New("encryption failed")
	ErrDecryptionFailed = errors.New("decryption failed")
)

// GenerateRSAKeyPair generates a new RSA-1024 key pair with e = 17
func GenerateRSAKeyPair() (*rsa.PrivateKey, error) {
	e := big.NewInt(RSAPublicExponent)
	one := big.NewInt(1)

	for {
		p, err := rand.Prime(rand.Reader, RSAKeyBits/2)
		if err != nil {
			return nil, err
		}
		q, err := rand.Prime(rand.Reader, RSAKeyBits/2)
		if err != nil {
			return nil, err
		}
		if p.Cmp(q) == 0 {
			continue
		}

		n := new(big.Int).Mul(p, q)
		if n.BitLen() != RSAKeyBits {
			continue
		}

		pm1 := new(big.Int).Sub(p, one)
		qm1 := new(big.Int).Sub(q, one)
		phi := new(big.Int).Mul(pm1, qm1)

		// e must be invertible modulo (p-1)(q-1)
		d := new(big.Int).ModInverse(e, phi)
		if d == nil {
			continue
		}

		key := &rsa.PrivateKey{
			PublicKey: rsa.PublicKey{N: n, E: RSAPublicExponent},
			D:         d,
			Primes:    []*big.Int{p, q},
		}
		key.Precompute()
		if err := key.Validate(); err != nil {
			return nil, err
		}

		return key, nil
	}
}

// ExportPublicKey encodes a public key as X.509 SubjectPublicKeyInfo DER
func ExportPublicKey(key *rsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(key)
	if err != nil {
		return nil, err
	}
	if len(der) != protocol.PublicKeySize {
		return nil, ErrInvalidKey
	}
	return der, nil
}

// ImportPublicKey decodes an X.509 SubjectPublicKeyInfo DER public key
func ImportPublicKey(der []byte) (*rsa.PublicKey, error) {
	pub, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, ErrInvalidKey
	}

	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, ErrInvalidKey
	}

	return rsaPub, nil
}

// ExportPrivateKey encodes a private key as PKCS#8 DER
func ExportPrivateKey(key *rsa.PrivateKey) ([]byte, error) {
	return x509.MarshalPKCS8PrivateKey(key)
}

// ImportPrivateKey decodes a PKCS#8 DER private key
func ImportPrivateKey(der []byte) (*rsa.PrivateKey, error) {
	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, ErrInvalidKey
	}

	rsaKey, ok := key.(*rsa.PrivateKey)
	if !ok {
		return nil, ErrInvalidKey
	}

	return rsaKey, nil
}

// RSAEncrypt encrypts data with RSA public key using OAEP with SHA-1
func RSAEncrypt(data []byte, publicKey *rsa.PublicKey) ([]byte, error) {
	ciphertext, err := rsa.EncryptOAEP(sha1.New(), rand.Reader, publicKey, data, nil)
	if err != nil {
		return nil, ErrEncryptionFailed
	}
	return ciphertext, nil
}

// RSADecrypt decrypts data with RSA private key using OAEP with SHA-1
func RSADecrypt(ciphertext []byte, privateKey *rsa.PrivateKey) ([]byte, error) {
	plaintext, err := rsa.DecryptOAEP(sha1.New(), nil, privateKey, ciphertext, nil)
	if err != nil {
		return nil, ErrDecryptionFailed
	}
	return plaintext, nil
}
