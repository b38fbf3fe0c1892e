package passcode

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
)

const (
	// Length of a check-in passcode.
	Length = 6
	// MaxAttempts bounds the uniqueness retry loop.
	MaxAttempts = 10

	alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// ErrExhausted is returned when MaxAttempts consecutive draws all collided
// with existing passcodes.
var ErrExhausted = errors.New("passcode: exhausted unique generation attempts")

// Index answers whether a candidate passcode is already taken.
type Index interface {
	ExistsByPasscode(ctx context.Context, code string) (bool, error)
}

type Generator struct {
	index Index
}

func NewGenerator(index Index) *Generator {
	return &Generator{index: index}
}

// Generate draws random passcodes until one is not present in the index.
// Draws use crypto/rand; the uniqueness check races with concurrent
// generation, so the store must still enforce uniqueness on write.
func (g *Generator) Generate(ctx context.Context) (string, error) {
	for attempt := 0; attempt < MaxAttempts; attempt++ {
		code, err := randomCode()
		if err != nil {
			return "", fmt.Errorf("passcode: draw: %w", err)
		}
		taken, err := g.index.ExistsByPasscode(ctx, code)
		if err != nil {
			return "", fmt.Errorf("passcode: uniqueness check: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrExhausted
}

func randomCode() (string, error) {
	var buf [Length]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	for i := range buf {
		buf[i] = alphabet[int(buf[i])%len(alphabet)]
	}
	return string(buf[:]), nil
}
