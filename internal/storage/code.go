package storage

import (
	"crypto/rand"
	"fmt"

	"screencast/backend/internal/models"
)

// maxCodeAttempts bounds the regenerate-on-collision loop in CreateRoom.
const maxCodeAttempts = 16

// CodeGenerator produces candidate room codes.
type CodeGenerator func() (string, error)

// RandomCode returns a uniformly distributed code over models.CodeAlphabet.
func RandomCode() (string, error) {
	const alphabetLen = len(models.CodeAlphabet)
	// Largest multiple of the alphabet length that fits in a byte; bytes at
	// or above it are discarded to keep the distribution uniform.
	const limit = 256 - 256%alphabetLen

	code := make([]byte, 0, models.CodeLength)
	buf := make([]byte, models.CodeLength*2)
	for len(code) < models.CodeLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to generate random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			code = append(code, models.CodeAlphabet[int(b)%alphabetLen])
			if len(code) == models.CodeLength {
				break
			}
		}
	}
	return string(code), nil
}
