package core

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint is the hex SHA-256 of a canonical encoding of some data.
// Datasets use it to name bootstrap runs and to tag reports.
type Fingerprint string

// NewFingerprint hashes data
func NewFingerprint(data []byte) Fingerprint {
	sum := sha256.Sum256(data)
	return Fingerprint(hex.EncodeToString(sum[:]))
}

func (f Fingerprint) String() string {
	return string(f)
}

// Short returns the first 12 hex characters
func (f Fingerprint) Short() string {
	if len(f) <= 12 {
		return string(f)
	}
	return string(f[:12])
}
