// Package wire defines the on-the-wire packet frame shared by the sender
// and the receiver: a fixed-width BatchID, a one-hop forward flag, and a
// RaptorQ-encoded payload.
package wire

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// BatchIDSize is the width, in bytes, of a BatchID.
const BatchIDSize = 46

// BatchID names a single encoding session of a single object. It is
// random, opaque, and never reused by a sender; on a receiver it is the
// dedup key for in-progress and completed decode state.
type BatchID [BatchIDSize]byte

// NewBatchID draws a fresh BatchID from a cryptographically secure source.
func NewBatchID() (BatchID, error) {
	var id BatchID
	if _, err := rand.Read(id[:]); err != nil {
		return id, fmt.Errorf("wire: generate batch id: %w", err)
	}
	return id, nil
}

// String renders the BatchID as lowercase hex, suitable for use as a file
// name (see the persister's "<batch_id>.BATCH" naming).
func (id BatchID) String() string {
	return hex.EncodeToString(id[:])
}
