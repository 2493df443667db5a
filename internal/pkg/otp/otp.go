package otp

import (
	"crypto/rand"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
)

// ErrNotNumeric is returned by Canonical for empty or non-digit input.
var ErrNotNumeric = errors.New("otp: code is not numeric")

// Generator produces fresh one-time codes.
type Generator interface {
	// Generate returns a zero-padded code of the configured width.
	Generate() (string, error)
}

// HOTP implements Generator with pquerna/otp HOTP.
type HOTP struct {
	digits otp.Digits
	rand   io.Reader
}

// NewHOTP returns a generator producing codes of the given width.
// Widths other than 6 or 8 fall back to 6.
func NewHOTP(digits otp.Digits) *HOTP {
	if digits != otp.DigitsSix && digits != otp.DigitsEight {
		digits = otp.DigitsSix
	}

	return &HOTP{digits: digits, rand: rand.Reader}
}

// Digits returns the code width.
func (g *HOTP) Digits() int {
	return g.digits.Length()
}

// Generate returns a new code. Every call uses a new secret and counter, so
// codes are independent of each other.
func (g *HOTP) Generate() (string, error) {
	var buf [28]byte // 20 bytes secret (RFC 4226 recommendation) + 8 bytes counter
	if _, err := io.ReadFull(g.rand, buf[:]); err != nil {
		return "", err
	}

	secret := base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf[:20])
	counter := binary.BigEndian.Uint64(buf[20:])

	return hotp.GenerateCodeCustom(secret, counter, hotp.ValidateOpts{
		Digits:    g.digits,
		Algorithm: otp.AlgorithmSHA1,
	})
}

// Canonical parses a code as a base-10 integer so that "007" and "7" compare equal.
func Canonical(code string) (uint64, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return 0, ErrNotNumeric
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return 0, ErrNotNumeric
		}
	}

	return strconv.ParseUint(code, 10, 64)
}

// CanonicalString is Canonical formatted back to a string, or "" when code is not numeric.
func CanonicalString(code string) string {
	n, err := Canonical(code)
	if err != nil {
		return ""
	}
	return strconv.FormatUint(n, 10)
}
