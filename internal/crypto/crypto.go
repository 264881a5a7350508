package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// ============================================================================
// Constants
// ============================================================================

// SystemKey is the well-known key the master password is encrypted with.
// It is not a secret: every Maven installation uses the same value.
const SystemKey = "settings.security"

// Cipher layout constants
const (
	SaltSize  = 8  // salt prefix of every payload
	ChunkSize = 16 // payload is padded with random bytes to a multiple of this
	KeySize   = 16 // AES-128
	IVSize    = aes.BlockSize

	// salt + pad length byte
	headerSize = SaltSize + 1
)

// ============================================================================
// Errors
// ============================================================================

// Sentinel causes wrapped by DecryptionError
var (
	ErrBadBase64  = errors.New("payload is not valid base64")
	ErrTooShort   = errors.New("payload too short")
	ErrBadLength  = errors.New("ciphertext is not a multiple of the block size")
	ErrBadPadding = errors.New("invalid padding (wrong key or corrupted data)")
	ErrNotText    = errors.New("decrypted data is not valid text (wrong key)")
)

// DecryptionError is returned when a decorated value cannot be decrypted.
type DecryptionError struct {
	Err error
}

func (e *DecryptionError) Error() string {
	return fmt.Sprintf("decryption failed: %v", e.Err)
}

func (e *DecryptionError) Unwrap() error {
	return e.Err
}

func decryptionError(err error) error {
	return &DecryptionError{Err: err}
}

// ============================================================================
// Core Encryption Functions
// ============================================================================

// Encrypt encrypts plaintext with a key derived from password.
// Returns the base64 payload, undecorated:
// [8B salt][1B pad length][AES-CBC ciphertext][pad length random bytes]
func Encrypt(plaintext, password string) (string, error) {
	return EncryptWith(rand.Reader, plaintext, password)
}

// EncryptWith is Encrypt with an explicit source of randomness for the salt
// and trailing padding.
func EncryptWith(random io.Reader, plaintext, password string) (string, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(random, salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	mode, err := newCBC(password, salt, true)
	if err != nil {
		return "", err
	}

	in := pkcs5Pad([]byte(plaintext), aes.BlockSize)
	ciphertext := make([]byte, len(in))
	mode.CryptBlocks(ciphertext, in)

	padLen := ChunkSize - (headerSize+len(ciphertext))%ChunkSize

	out := make([]byte, headerSize+len(ciphertext)+padLen)
	if _, err := io.ReadFull(random, out[headerSize+len(ciphertext):]); err != nil {
		return "", fmt.Errorf("failed to generate padding: %w", err)
	}
	copy(out, salt)
	out[SaltSize] = byte(padLen)
	copy(out[headerSize:], ciphertext)

	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt returns the plaintext of v. Plain values are returned unchanged
// whatever the key; encrypted values fail with a *DecryptionError when the
// payload is malformed or the key is wrong.
func Decrypt(v Value, password string) (string, error) {
	if !v.Encrypted() {
		return v.Text(), nil
	}
	return decryptPayload(v.Payload(), password)
}

// DecryptString parses s for the decoration marker and decrypts it.
func DecryptString(s, password string) (string, error) {
	return Decrypt(ParseValue(s), password)
}

func decryptPayload(payload, password string) (string, error) {
	// settings files are sometimes line-wrapped inside the braces
	payload = strings.Join(strings.Fields(payload), "")

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", decryptionError(fmt.Errorf("%w: %v", ErrBadBase64, err))
	}

	if len(data) < headerSize {
		return "", decryptionError(fmt.Errorf("%w: got %d bytes, need at least %d", ErrTooShort, len(data), headerSize))
	}

	salt := data[:SaltSize]
	padLen := int(data[SaltSize])
	end := len(data) - padLen
	if end < headerSize {
		return "", decryptionError(fmt.Errorf("%w: pad length %d exceeds payload", ErrTooShort, padLen))
	}

	ciphertext := data[headerSize:end]
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return "", decryptionError(fmt.Errorf("%w: %d bytes", ErrBadLength, len(ciphertext)))
	}

	mode, err := newCBC(password, salt, false)
	if err != nil {
		return "", err
	}

	plain := make([]byte, len(ciphertext))
	mode.CryptBlocks(plain, ciphertext)

	plain, err = pkcs5Unpad(plain, aes.BlockSize)
	if err != nil {
		return "", decryptionError(err)
	}

	if !utf8.Valid(plain) {
		return "", decryptionError(ErrNotText)
	}

	return string(plain), nil
}

// ============================================================================
// Key Derivation
// ============================================================================

// DeriveKeyAndIV derives the AES key and IV from password and salt.
// The first SHA-256 round hashes password||salt, later rounds prefix the
// previous digest, until KeySize+IVSize bytes are available.
func DeriveKeyAndIV(password string, salt []byte) (key, iv []byte) {
	keyAndIV := make([]byte, KeySize+IVSize)
	digester := sha256.New()

	pos := 0
	for pos < len(keyAndIV) {
		digester.Write([]byte(password))
		digester.Write(salt)
		result := digester.Sum(nil)

		pos += copy(keyAndIV[pos:], result)

		if pos < len(keyAndIV) {
			digester.Reset()
			digester.Write(result)
		}
	}

	return keyAndIV[:KeySize], keyAndIV[KeySize:]
}

func newCBC(password string, salt []byte, encrypt bool) (cipher.BlockMode, error) {
	key, iv := DeriveKeyAndIV(password, salt)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	if encrypt {
		return cipher.NewCBCEncrypter(block, iv), nil
	}
	return cipher.NewCBCDecrypter(block, iv), nil
}

// ============================================================================
// Padding
// ============================================================================

func pkcs5Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs5Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, ErrBadLength
	}

	n := int(data[len(data)-1])
	if n == 0 || n > blockSize {
		return nil, ErrBadPadding
	}

	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, ErrBadPadding
		}
	}

	return data[:len(data)-n], nil
}
