// Package hash holds the two digests WorkPulse needs: bcrypt for account
// passwords and keyed HMAC-SHA256 for OTP codes and flow keys.
package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"
)

type Hash interface {
	Hash(plaintext string) ([]byte, error)
	Verify(hashed, plaintext string) bool
}

// Bcrypt hashes passwords. Without a pepper the plaintext goes to bcrypt as
// is, so hashes written by other WorkPulse services keep verifying. With a
// pepper the plaintext is first reduced to a base64 HMAC, which also keeps
// it under the 72 byte bcrypt input limit.
type Bcrypt struct {
	cost   int
	pepper []byte
}

func NewBcrypt(cost int, pepper string) *Bcrypt {
	return &Bcrypt{cost: cost, pepper: []byte(pepper)}
}

func (h *Bcrypt) Hash(plaintext string) ([]byte, error) {
	return bcrypt.GenerateFromPassword(h.input(plaintext), h.cost)
}

func (h *Bcrypt) Verify(hashed, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), h.input(plaintext)) == nil
}

func (h *Bcrypt) input(plaintext string) []byte {
	if len(h.pepper) == 0 {
		return []byte(plaintext)
	}
	mac := hmac.New(sha256.New, h.pepper)
	mac.Write([]byte(plaintext))
	return []byte(base64.RawStdEncoding.EncodeToString(mac.Sum(nil)))
}

// HMACSHA256 produces hex digests. Equal inputs give equal digests, so the
// result can be used as a lookup key.
type HMACSHA256 struct {
	secret []byte
}

func NewHMACSHA256(secret string) *HMACSHA256 {
	return &HMACSHA256{secret: []byte(secret)}
}

func (s *HMACSHA256) Hash(plaintext string) ([]byte, error) {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(plaintext))
	return hex.AppendEncode(nil, mac.Sum(nil)), nil
}

func (s *HMACSHA256) Verify(hashed, plaintext string) bool {
	want, _ := s.Hash(plaintext)
	return subtle.ConstantTimeCompare([]byte(hashed), want) == 1
}
