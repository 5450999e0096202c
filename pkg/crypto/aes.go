package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"

	"github.com/ZentaChain/zentalk-client/pkg/protocol"
)

// zeroIV is the fixed CBC initialization vector peers agree on
var zeroIV = make([]byte, aes.BlockSize)

// AESEncrypt encrypts data with AES-CBC under a zero IV and PKCS#7 padding
func AESEncrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ErrInvalidKey
	}

	padded := pkcs7Pad(plaintext, block.BlockSize())
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, zeroIV).CryptBlocks(ciphertext, padded)

	return ciphertext, nil
}

// AESDecrypt decrypts data produced by AESEncrypt
func AESDecrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ErrInvalidKey
	}

	if len(ciphertext) == 0 || len(ciphertext)%block.BlockSize() != 0 {
		return nil, ErrDecryptionFailed
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, zeroIV).CryptBlocks(plaintext, ciphertext)

	return pkcs7Unpad(plaintext, block.BlockSize())
}

// GenerateAESKey generates a random AES-128 key
func GenerateAESKey() ([]byte, error) {
	key := make([]byte, protocol.SymmetricKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padding := blockSize - len(data)%blockSize
	out := make([]byte, len(data), len(data)+padding)
	copy(out, data)
	return append(out, bytes.Repeat([]byte{byte(padding)}, padding)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	n := len(data)
	padding := int(data[n-1])
	if padding == 0 || padding > blockSize || padding > n {
		return nil, ErrDecryptionFailed
	}

	for _, b := range data[n-padding:] {
		if int(b) != padding {
			return nil, ErrDecryptionFailed
		}
	}

	return data[:n-padding], nil
}
