package coup

import (
	"crypto/rand"
	"fmt"
)

// CodeLength is the length of a match join code.
const CodeLength = 6

// codeAlphabet omits the ambiguous glyphs 0/O/1/I.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// NewMatchCode generates a random join code.
func NewMatchCode() (string, error) {
	buf := make([]byte, CodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate match code: %w", err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}
