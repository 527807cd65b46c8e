package id

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var transactionIDPattern = regexp.MustCompile(`^F\d{7}$`)

func TestFormatTransactionID(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "F0000000"},
		{42, "F0000042"},
		{9999999, "F9999999"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatTransactionID(tt.n))
	}
}

func TestParseTransactionID(t *testing.T) {
	n, err := ParseTransactionID("F0001234")
	require.NoError(t, err)
	assert.Equal(t, 1234, n)
}

func TestParseTransactionID_Errors(t *testing.T) {
	badInputs := []string{
		"",
		"F123",
		"G0000001",
		"F00000001",
		"F00a0001",
		"f0000001",
		"F-000001",
	}
	for _, input := range badInputs {
		_, err := ParseTransactionID(input)
		assert.Error(t, err, "expected error for input: %s", input)
		assert.False(t, ValidTransactionID(input))
	}
}

func TestGeneratorFormat(t *testing.T) {
	g := NewGenerator()
	for range 1000 {
		got := g.Next()
		assert.Len(t, got, 8)
		assert.Regexp(t, transactionIDPattern, got)
		assert.True(t, ValidTransactionID(got))
	}
}

func TestSeededGeneratorDeterministic(t *testing.T) {
	a := NewSeededGenerator(7)
	b := NewSeededGenerator(7)
	for range 10 {
		assert.Equal(t, a.Next(), b.Next())
	}
}

func TestNextUnique_SkipsTaken(t *testing.T) {
	seeded := NewSeededGenerator(1)
	first := seeded.Next()

	g := NewSeededGenerator(1)
	got, err := g.NextUnique(func(s string) bool { return s == first })
	require.NoError(t, err)
	assert.NotEqual(t, first, got)
	assert.Regexp(t, transactionIDPattern, got)
}

func TestNextUnique_Exhausted(t *testing.T) {
	g := NewGenerator()
	_, err := g.NextUnique(func(string) bool { return true })
	assert.ErrorIs(t, err, ErrExhausted)
}
