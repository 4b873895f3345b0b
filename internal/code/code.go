// Package code generates the short access codes guests type to reach their RSVP page.
package code

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// Alphabet holds uppercase letters and digits minus 0, O, I, L and 1.
const Alphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// Length is the number of symbols in every access code.
const Length = 8

// ErrRetryExhausted is returned when no free code was found within the attempt budget.
var ErrRetryExhausted = errors.New("access code retries exhausted")

var alphabetSize = big.NewInt(int64(len(Alphabet)))

// Generate returns a random code of Length symbols drawn uniformly from Alphabet.
func Generate() (string, error) {
	var b strings.Builder
	b.Grow(Length)
	for i := 0; i < Length; i++ {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		b.WriteByte(Alphabet[n.Int64()])
	}
	return b.String(), nil
}

// GenerateUnique draws codes until exists reports one as free. The check is only a
// pre-filter: callers that persist the code must still handle a uniqueness
// violation from storage.
func GenerateUnique(exists func(string) (bool, error), attempts int) (string, error) {
	for i := 0; i < attempts; i++ {
		c, err := Generate()
		if err != nil {
			return "", err
		}
		taken, err := exists(c)
		if err != nil {
			return "", fmt.Errorf("check code: %w", err)
		}
		if !taken {
			return c, nil
		}
	}
	return "", ErrRetryExhausted
}

// Normalize trims whitespace and uppercases user input.
func Normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Valid reports whether s is a well-formed generated code.
func Valid(s string) bool {
	if len(s) != Length {
		return false
	}
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(Alphabet, s[i]) < 0 {
			return false
		}
	}
	return true
}

// Acceptable reports whether s can be stored as an access code: Length uppercase
// letters or digits. Imported lists may carry hand-picked codes outside Alphabet.
func Acceptable(s string) bool {
	if len(s) != Length {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}
