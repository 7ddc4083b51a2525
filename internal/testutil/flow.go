package testutil

import (
	"encoding/binary"
	"sync"

	"github.com/google/uuid"
)

// SequentialUUIDs generates predictable UUIDs: the first is
// 00000000-0000-4000-8000-000000000001, then ...002 and so on.
//
// Predictable identifiers keep golden statements byte-identical across runs.
//
// Thread-safety: safe for concurrent use.
type SequentialUUIDs struct {
	mu sync.Mutex
	n  uint64
}

// NewSequentialUUIDs creates a generator starting at 1.
func NewSequentialUUIDs() *SequentialUUIDs {
	return &SequentialUUIDs{}
}

// Next returns the next identifier.
func (g *SequentialUUIDs) Next() uuid.UUID {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return SequentialUUID(g.n)
}

// SequentialUUID returns the n-th identifier of the sequence.
func SequentialUUID(n uint64) uuid.UUID {
	var u uuid.UUID
	binary.BigEndian.PutUint64(u[8:], n)
	u[6] = 0x40 // version 4
	u[8] |= 0x80
	return u
}
