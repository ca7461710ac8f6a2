package ports

import (
	"context"
	"math/rand"
)

// RNGPort hands out independent random streams to bootstrap slots
type RNGPort interface {
	// Stream returns the generator for one slot of one pass. The same
	// (runID, pass, slot, baseSeed) always yields the same draws.
	Stream(ctx context.Context, runID string, pass, slot int, baseSeed int64) (*rand.Rand, error)
}
