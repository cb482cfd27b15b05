// Package instance holds process-scoped ephemeral state: the time the
// process started and a random seed generated once at startup.
//
// The state is created explicitly in main and passed by handle into the
// components that need it; nothing in this package is a global.
package instance

import (
	"crypto/rand"
	"encoding/binary"
	"time"

	sha256 "github.com/minio/sha256-simd"
)

// Instance is the process-scoped state of one tracker run.
//
// The seed is ephemeral: it changes whenever the process restarts, so
// anything derived from it (randomization, key material) does not survive a
// restart.
type Instance struct {
	startedAt time.Time
	seed      [32]byte
}

// New generates a fresh Instance with a cryptographically random seed.
func New() (*Instance, error) {
	i := &Instance{startedAt: time.Now()}
	if _, err := rand.Read(i.seed[:]); err != nil {
		return nil, err
	}

	return i, nil
}

// StartedAt returns the time the process started.
func (i *Instance) StartedAt() time.Time { return i.startedAt }

// DeriveKey derives a purpose-scoped 32-byte key from the instance seed.
//
// Calling DeriveKey twice with the same purpose on the same Instance yields
// the same key; distinct purposes yield independent keys.
func (i *Instance) DeriveKey(purpose string) [32]byte {
	buf := make([]byte, 0, len(i.seed)+len(purpose))
	buf = append(buf, i.seed[:]...)
	buf = append(buf, purpose...)
	return sha256.Sum256(buf)
}

// DeriveSeed64 derives two purpose-scoped 64-bit values, suitable for
// seeding a non-cryptographic PRNG.
func (i *Instance) DeriveSeed64(purpose string) (uint64, uint64) {
	key := i.DeriveKey(purpose)
	return binary.BigEndian.Uint64(key[:8]), binary.BigEndian.Uint64(key[8:16])
}
