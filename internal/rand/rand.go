package rand

import (
	"math/rand"
	"time"
)

// NewSeeded returns a new pseudo-random source seeded with the current time.
func NewSeeded() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
