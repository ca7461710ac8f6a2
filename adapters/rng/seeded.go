package rng

import (
	"context"
	"math/rand"
	"strconv"
)

// SeededAdapter implements ports.RNGPort on math/rand sources. Each call
// returns a fresh generator, so streams can be handed to separate goroutines.
type SeededAdapter struct{}

// NewSeededAdapter creates the adapter
func NewSeededAdapter() *SeededAdapter {
	return &SeededAdapter{}
}

// Stream creates a deterministic RNG stream for one bootstrap slot
func (r *SeededAdapter) Stream(ctx context.Context, runID string, pass, slot int, baseSeed int64) (*rand.Rand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Mix the run, pass and slot so neighbouring slots get unrelated sequences
	seed := baseSeed
	if runID != "" {
		seed = int64(hashString(runID)) + seed
	}
	seed = int64(hashString("pass:"+strconv.Itoa(pass)))*31 + seed
	seed = int64(hashString("slot:"+strconv.Itoa(slot))) + seed*1_000_003
	return rand.New(rand.NewSource(seed)), nil
}

// hashString creates a simple hash for deterministic seeding
func hashString(s string) uint32 {
	var hash uint32 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint32(c) // djb2 algorithm
	}
	return hash
}
