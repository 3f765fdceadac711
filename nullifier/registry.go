// Package nullifier implements the replay-prevention set of a shielded pool.
// The registry is a bounded arena of 32-byte nullifiers fronted by a bloom
// filter: a filter miss proves absence, a filter hit is confirmed against the
// arena, so the filter can never cause a false negative.
package nullifier

import (
	"encoding/binary"
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/vocdoni/shielded-pool/types"
)

var (
	// ErrNullifierReuse is returned when a nullifier is already recorded.
	ErrNullifierReuse = fmt.Errorf("nullifier already used")
	// ErrNullifierCapacity is returned when the backing arena is full.
	ErrNullifierCapacity = fmt.Errorf("nullifier registry is full")
	// ErrInvalidCapacity is returned by New for unusable capacities.
	ErrInvalidCapacity = fmt.Errorf("invalid nullifier capacity")
)

const (
	// bloomBitsPerEntry sizes the filter bitmap relative to the arena.
	bloomBitsPerEntry = 16
	// bloomHashes is the number of filter positions set per nullifier.
	bloomHashes = 4
)

// Registry is the bounded nullifier set. It is not safe for concurrent use;
// the pool controller serializes access.
type Registry struct {
	capacity int
	entries  []types.Hash32 // len == count, cap == capacity
	bloom    *bitset.BitSet
}

// New creates a registry with the given fixed capacity.
func New(capacity int) (*Registry, error) {
	if capacity < 1 || capacity > types.MaxNullifiers {
		return nil, fmt.Errorf("%w: %d not in [1,%d]", ErrInvalidCapacity, capacity, types.MaxNullifiers)
	}
	return &Registry{
		capacity: capacity,
		entries:  make([]types.Hash32, 0, capacity),
		bloom:    bitset.New(uint(capacity * bloomBitsPerEntry)),
	}, nil
}

// bloomPositions derives the filter positions from the nullifier bytes.
// Nullifiers are hash outputs already, so slicing them is as good as
// rehashing.
func (r *Registry) bloomPositions(n types.Hash32) [bloomHashes]uint {
	m := uint64(r.capacity * bloomBitsPerEntry)
	var pos [bloomHashes]uint
	for i := 0; i < bloomHashes; i++ {
		pos[i] = uint(binary.BigEndian.Uint64(n[i*8:i*8+8]) % m)
	}
	return pos
}

func (r *Registry) bloomMaybe(n types.Hash32) bool {
	for _, p := range r.bloomPositions(n) {
		if !r.bloom.Test(p) {
			return false
		}
	}
	return true
}

func (r *Registry) exactContains(n types.Hash32) bool {
	for _, e := range r.entries {
		if e == n {
			return true
		}
	}
	return false
}

// Contains reports whether n was ever inserted. A bloom miss short-circuits;
// a bloom hit is confirmed by the authoritative scan.
func (r *Registry) Contains(n types.Hash32) bool {
	if !r.bloomMaybe(n) {
		return false
	}
	return r.exactContains(n)
}

// Insert records n. Recorded nullifiers are permanent and unique for the
// lifetime of the registry.
func (r *Registry) Insert(n types.Hash32) error {
	if r.bloomMaybe(n) && r.exactContains(n) {
		return ErrNullifierReuse
	}
	if len(r.entries) >= r.capacity {
		return ErrNullifierCapacity
	}
	r.entries = append(r.entries, n)
	for _, p := range r.bloomPositions(n) {
		r.bloom.Set(p)
	}
	return nil
}

// Len returns the number of recorded nullifiers.
func (r *Registry) Len() int { return len(r.entries) }

// Capacity returns the fixed arena capacity.
func (r *Registry) Capacity() int { return r.capacity }

// Clone returns a deep copy of the registry.
func (r *Registry) Clone() *Registry {
	c := &Registry{
		capacity: r.capacity,
		entries:  make([]types.Hash32, len(r.entries), r.capacity),
		bloom:    r.bloom.Clone(),
	}
	copy(c.entries, r.entries)
	return c
}

// MarshalBinary implements encoding.BinaryMarshaler. The record is the fixed
// arena (zero-padded to capacity) plus the filter bitmap:
//
//	u32 capacity | u32 count | capacity x entry[32] | bloom bitmap
func (r *Registry) MarshalBinary() ([]byte, error) {
	bloomBytes, err := r.bloom.MarshalBinary()
	if err != nil {
		return nil, err
	}
	out := make([]byte, 8+r.capacity*32, 8+r.capacity*32+len(bloomBytes))
	binary.BigEndian.PutUint32(out[0:], uint32(r.capacity))
	binary.BigEndian.PutUint32(out[4:], uint32(len(r.entries)))
	for i, e := range r.entries {
		copy(out[8+i*32:], e[:])
	}
	return append(out, bloomBytes...), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (r *Registry) UnmarshalBinary(data []byte) error {
	if len(data) < 8 {
		return fmt.Errorf("nullifier record too short")
	}
	capacity := int(binary.BigEndian.Uint32(data[0:]))
	count := int(binary.BigEndian.Uint32(data[4:]))
	fresh, err := New(capacity)
	if err != nil {
		return err
	}
	if count > capacity || len(data) < 8+capacity*32 {
		return fmt.Errorf("malformed nullifier record")
	}
	for i := 0; i < count; i++ {
		var e types.Hash32
		copy(e[:], data[8+i*32:])
		fresh.entries = append(fresh.entries, e)
	}
	if err := fresh.bloom.UnmarshalBinary(data[8+capacity*32:]); err != nil {
		return err
	}
	*r = *fresh
	return nil
}
