// Package idgen draws short random identifiers for links and users.
package idgen

import (
	"math/rand/v2"
	"sync"
)

const (
	Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	DefaultLinkIDLength = 6
	DefaultUserIDLength = 10
)

// Random picks every character independently and uniformly from Alphabet.
// It is not a source of secrets.
type Random struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func New() *Random {
	return NewSeeded(rand.Uint64(), rand.Uint64())
}

// NewSeeded returns a deterministic generator, mainly for tests.
func NewSeeded(seed1, seed2 uint64) *Random {
	return &Random{rng: rand.New(rand.NewPCG(seed1, seed2))}
}

func (g *Random) Generate(length int) string {
	if length <= 0 {
		length = DefaultLinkIDLength
	}

	b := make([]byte, length)
	g.mu.Lock()
	for i := range b {
		b[i] = Alphabet[g.rng.IntN(len(Alphabet))]
	}
	g.mu.Unlock()
	return string(b)
}
