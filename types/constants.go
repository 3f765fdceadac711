package types

const (
	// MerkleDepth is the depth of the commitment accumulator tree.
	MerkleDepth = 32
	// RootWindowSize is the number of past roots a pool keeps alongside the
	// current one. Proofs may be built against any root in the window.
	RootWindowSize = 16
	// MaxBps is the maximum fee expressed in basis points (100%).
	MaxBps = 10_000
	// FeeBpsDefault is the protocol fee applied when no override is set.
	FeeBpsDefault = 5
	// MaxNullifiers is the capacity of a pool's nullifier registry.
	MaxNullifiers = 4096
	// MaxCanopyDepth is the maximum number of top tree levels cached for
	// off-chain proof construction.
	MaxCanopyDepth = 4
	// RecentLeavesSize is the size of the ring of recently inserted leaves.
	RecentLeavesSize = 8
)
