package crypto

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// FingerprintSize is the number of hash bytes shown in a key fingerprint
const FingerprintSize = 8

// Fingerprint returns a short display form of an encoded public key,
// the first FingerprintSize bytes of its BLAKE2b-256 hash grouped in pairs
func Fingerprint(publicKey []byte) string {
	sum := blake2b.Sum256(publicKey)
	s := hex.EncodeToString(sum[:FingerprintSize])

	out := make([]byte, 0, len(s)+len(s)/4)
	for i := 0; i < len(s); i += 4 {
		if i > 0 {
			out = append(out, ':')
		}
		out = append(out, s[i:i+4]...)
	}
	return string(out)
}
