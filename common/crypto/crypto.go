// Package crypto provides hashing and encoding primitives shared by the
// signing engine and the rest of the core. It wraps the standard library's
// crypto/* packages behind a uniform call surface so signing strategies never
// touch crypto/hmac or encoding/hex directly.
package crypto

import (
	"crypto/hmac"
	"crypto/md5" //nolint:gosec // required by legacy exchange signing schemes
	"crypto/rand"
	"crypto/sha1" //nolint:gosec // required by legacy exchange signing schemes
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"hash"
)

// HashType denotes the underlying hash algorithm used by GetHMAC and the
// standalone digest helpers.
type HashType uint

// Supported hash algorithms. Values are exported so callers (and signing
// pattern configs) can select an algorithm by name.
const (
	HashSHA1 HashType = iota
	HashSHA256
	HashSHA512
	HashSHA512_384
	HashMD5
)

var errUnsupportedHash = errors.New("crypto: unsupported hash type")

func newHasher(h HashType) (func() hash.Hash, error) {
	switch h {
	case HashSHA1:
		return sha1.New, nil
	case HashSHA256:
		return sha256.New, nil
	case HashSHA512:
		return sha512.New, nil
	case HashSHA512_384:
		return sha512.New384, nil
	case HashMD5:
		return md5.New, nil
	default:
		return nil, errUnsupportedHash
	}
}

// GetHMAC returns the HMAC digest of input keyed by key, using the hash
// algorithm identified by hashType.
func GetHMAC(hashType HashType, input, key []byte) ([]byte, error) {
	newHash, err := newHasher(hashType)
	if err != nil {
		return nil, err
	}
	mac := hmac.New(newHash, key)
	if _, err := mac.Write(input); err != nil {
		return nil, err
	}
	return mac.Sum(nil), nil
}

// GetMD5 returns the MD5 digest of input.
func GetMD5(input []byte) ([]byte, error) {
	h := md5.New() //nolint:gosec // digest only, not used for security decisions
	if _, err := h.Write(input); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}

// GetSHA256 returns the SHA-256 digest of input.
func GetSHA256(input []byte) ([]byte, error) {
	h := sha256.New()
	if _, err := h.Write(input); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}

// GetSHA512 returns the SHA-512 digest of input.
func GetSHA512(input []byte) ([]byte, error) {
	h := sha512.New()
	if _, err := h.Write(input); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}

// GetSHA384 returns the SHA-384 digest of input.
func GetSHA384(input []byte) ([]byte, error) {
	h := sha512.New384()
	if _, err := h.Write(input); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}

// HexEncodeToString returns the lowercase hexadecimal encoding of input.
func HexEncodeToString(input []byte) string {
	return hex.EncodeToString(input)
}

// Base64Encode returns the standard base64 encoding of input.
func Base64Encode(input []byte) string {
	return base64.StdEncoding.EncodeToString(input)
}

// Base64Decode decodes a standard base64 string.
func Base64Decode(input string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(input)
}

var errSaltLengthTooSmall = errors.New("crypto: salt length is too small")

// GetRandomSalt returns a cryptographically random salt of the requested
// length, appended to any caller-supplied prefix bytes.
func GetRandomSalt(prefix []byte, saltLen int) ([]byte, error) {
	if saltLen <= 0 {
		return nil, errSaltLengthTooSmall
	}
	salt := make([]byte, len(prefix)+saltLen)
	copy(salt, prefix)
	if _, err := rand.Read(salt[len(prefix):]); err != nil {
		return nil, err
	}
	return salt, nil
}
