package localvault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters following OWASP recommendations.
const (
	argonMemory  = 64 * 1024 // KiB
	argonTime    = 3
	argonThreads = 4

	keyLength   = 32
	saltLength  = 16
	nonceLength = 12
)

var errDecryptFailed = errors.New("localvault: decryption failed")

// deriveKey derives the 256-bit vault key from the master password.
func deriveKey(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, argonTime, argonMemory, argonThreads, keyLength)
}

// encrypt seals plaintext with AES-256-GCM under a fresh random nonce.
func encrypt(key, plaintext []byte) (ciphertext, nonce []byte, err error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, fmt.Errorf("localvault: creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, fmt.Errorf("localvault: creating GCM: %w", err)
	}

	nonce = make([]byte, nonceLength)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("localvault: generating nonce: %w", err)
	}
	return gcm.Seal(nil, nonce, plaintext, nil), nonce, nil
}

// decrypt opens AES-256-GCM ciphertext. Tag verification failure (wrong key,
// tampering) returns errDecryptFailed.
func decrypt(key, ciphertext, nonce []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("localvault: creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("localvault: creating GCM: %w", err)
	}
	if len(nonce) != nonceLength || len(ciphertext) < gcm.Overhead() {
		return nil, errDecryptFailed
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, errDecryptFailed
	}
	return plaintext, nil
}

// fillRandom fills b from the system CSPRNG.
func fillRandom(b []byte) error {
	if _, err := rand.Read(b); err != nil {
		return fmt.Errorf("localvault: reading random bytes: %w", err)
	}
	return nil
}

// secureWipe zeroes sensitive material. runtime.KeepAlive stops the compiler
// from optimizing the writes away.
func secureWipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(b)
}
