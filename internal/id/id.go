package id

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
)

const (
	transactionPrefix = "F"
	transactionDigits = 7
	transactionSpace  = 10_000_000

	// maxAttempts bounds collision retries in NextUnique.
	maxAttempts = 32
)

// ErrExhausted is returned when no free transaction ID was found.
var ErrExhausted = errors.New("no free transaction id after retries")

// FormatTransactionID returns a transaction ID like "F0000042".
func FormatTransactionID(n int) string {
	return fmt.Sprintf("%s%0*d", transactionPrefix, transactionDigits, n)
}

// ParseTransactionID parses "F0000042" into 42.
func ParseTransactionID(s string) (int, error) {
	if len(s) != len(transactionPrefix)+transactionDigits || !strings.HasPrefix(s, transactionPrefix) {
		return 0, fmt.Errorf("invalid transaction ID format: %q", s)
	}
	digits := s[len(transactionPrefix):]
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("invalid transaction ID format: %q", s)
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("invalid sequence in transaction ID %q: %w", s, err)
	}
	return n, nil
}

// ValidTransactionID reports whether s is "F" followed by 7 decimal digits.
func ValidTransactionID(s string) bool {
	_, err := ParseTransactionID(s)
	return err == nil
}

// Generator produces random transaction IDs.
type Generator struct {
	intN func(n int) int
}

// NewGenerator returns a Generator backed by math/rand/v2.
func NewGenerator() *Generator {
	return &Generator{intN: rand.IntN}
}

// NewSeededGenerator returns a deterministic Generator, for tests.
func NewSeededGenerator(seed uint64) *Generator {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return &Generator{intN: r.IntN}
}

// Next returns a random transaction ID without checking for collisions.
func (g *Generator) Next() string {
	return FormatTransactionID(g.intN(transactionSpace))
}

// NextUnique returns an ID for which taken reports false.
func (g *Generator) NextUnique(taken func(string) bool) (string, error) {
	for range maxAttempts {
		candidate := g.Next()
		if !taken(candidate) {
			return candidate, nil
		}
	}
	return "", ErrExhausted
}
