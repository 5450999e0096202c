package crypto

import (
	"bytes"
	"crypto/rsa"
	"sync"
	"testing"

	"github.com/ZentaChain/zentalk-client/pkg/protocol"
)

var (
	testKeyOnce sync.Once
	testKey     *rsa.PrivateKey
)

// sharedKey returns one generated key for tests that only need some key
func sharedKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	testKeyOnce.Do(func() {
		key, err := GenerateRSAKeyPair()
		if err != nil {
			t.Fatalf("GenerateRSAKeyPair() error = %v", err)
		}
		testKey = key
	})
	if testKey == nil {
		t.Fatal("no test key")
	}
	return testKey
}

func TestGenerateRSAKeyPair(t *testing.T) {
	privateKey, err := GenerateRSAKeyPair()
	if err != nil {
		t.Fatalf("GenerateRSAKeyPair() error = %v", err)
	}

	if keySize := privateKey.N.BitLen(); keySize != RSAKeyBits {
		t.Errorf("GenerateRSAKeyPair() key size = %d, want %d", keySize, RSAKeyBits)
	}
	if privateKey.E != RSAPublicExponent {
		t.Errorf("GenerateRSAKeyPair() exponent = %d, want %d", privateKey.E, RSAPublicExponent)
	}
	if err := privateKey.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestExportPublicKeySize(t *testing.T) {
	// Several keys, since the DER length depends on the modulus
	for i := 0; i < 3; i++ {
		key, err := GenerateRSAKeyPair()
		if err != nil {
			t.Fatalf("GenerateRSAKeyPair() error = %v", err)
		}

		der, err := ExportPublicKey(&key.PublicKey)
		if err != nil {
			t.Fatalf("ExportPublicKey() error = %v", err)
		}
		if len(der) != protocol.PublicKeySize {
			t.Errorf("ExportPublicKey() length = %d, want %d", len(der), protocol.PublicKeySize)
		}
	}
}

func TestExportImportPublicKey(t *testing.T) {
	key := sharedKey(t)

	der, err := ExportPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("ExportPublicKey() error = %v", err)
	}

	imported, err := ImportPublicKey(der)
	if err != nil {
		t.Fatalf("ImportPublicKey() error = %v", err)
	}
	if imported.N.Cmp(key.N) != 0 || imported.E != key.E {
		t.Error("ImportPublicKey() key mismatch")
	}
}

func TestExportImportPrivateKey(t *testing.T) {
	key := sharedKey(t)

	der, err := ExportPrivateKey(key)
	if err != nil {
		t.Fatalf("ExportPrivateKey() error = %v", err)
	}

	imported, err := ImportPrivateKey(der)
	if err != nil {
		t.Fatalf("ImportPrivateKey() error = %v", err)
	}
	if imported.N.Cmp(key.N) != 0 || imported.D.Cmp(key.D) != 0 {
		t.Error("ImportPrivateKey() key mismatch")
	}
}

func TestImportInvalid(t *testing.T) {
	garbage := []byte("not a key")

	if _, err := ImportPublicKey(garbage); err != ErrInvalidKey {
		t.Errorf("ImportPublicKey() error = %v, want %v", err, ErrInvalidKey)
	}
	if _, err := ImportPrivateKey(garbage); err != ErrInvalidKey {
		t.Errorf("ImportPrivateKey() error = %v, want %v", err, ErrInvalidKey)
	}
}

func TestRSAEncryptDecrypt(t *testing.T) {
	privateKey := sharedKey(t)
	publicKey := &privateKey.PublicKey

	tests := []struct {
		name      string
		plaintext []byte
	}{
		{
			name:      "symmetric key",
			plaintext: bytes.Repeat([]byte{0x5A}, protocol.SymmetricKeySize),
		},
		{
			name:      "empty message",
			plaintext: []byte{},
		},
		{
			name:      "max size message",
			plaintext: make([]byte, 86), // 128 - 2*20 - 2 for SHA-1 OAEP
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ciphertext, err := RSAEncrypt(tt.plaintext, publicKey)
			if err != nil {
				t.Fatalf("RSAEncrypt() error = %v", err)
			}

			if len(ciphertext) != RSAKeyBits/8 {
				t.Errorf("RSAEncrypt() length = %d, want %d", len(ciphertext), RSAKeyBits/8)
			}

			decrypted, err := RSADecrypt(ciphertext, privateKey)
			if err != nil {
				t.Fatalf("RSADecrypt() error = %v", err)
			}

			if !bytes.Equal(tt.plaintext, decrypted) {
				t.Errorf("RSADecrypt() = %v, want %v", decrypted, tt.plaintext)
			}
		})
	}
}

func TestRSAEncryptTooLarge(t *testing.T) {
	privateKey := sharedKey(t)

	_, err := RSAEncrypt(make([]byte, 87), &privateKey.PublicKey)
	if err != ErrEncryptionFailed {
		t.Errorf("RSAEncrypt() error = %v, want %v", err, ErrEncryptionFailed)
	}
}

func TestRSADecryptInvalid(t *testing.T) {
	privateKey := sharedKey(t)

	_, err := RSADecrypt([]byte("not valid ciphertext"), privateKey)
	if err != ErrDecryptionFailed {
		t.Errorf("RSADecrypt() error = %v, want %v", err, ErrDecryptionFailed)
	}
}
