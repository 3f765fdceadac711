// Package tree implements the commitment accumulator of a shielded pool: an
// append-only incremental Merkle tree over note commitments. Leaves are
// inserted left to right; the frontier (rightmost node per level) is enough
// to compute every new root incrementally, so the tree never stores its full
// node set. Roots are a pure function of the ordered sequence of inserted
// leaves.
package tree

import (
	"fmt"

	"github.com/vocdoni/shielded-pool/crypto/hash/poseidon"
	"github.com/vocdoni/shielded-pool/types"
)

var (
	// ErrTreeFull is returned when the accumulator has no free leaf slots.
	ErrTreeFull = fmt.Errorf("commitment tree is full")
	// ErrOutputSetMismatch is returned when the commitment and value
	// commitment arrays of a batch insertion differ in length.
	ErrOutputSetMismatch = fmt.Errorf("commitments and value commitments length mismatch")
	// ErrInvalidDepth is returned by New for unusable depth parameters.
	ErrInvalidDepth = fmt.Errorf("invalid tree depth")
)

// RecentLeaf is an entry of the ring of recently inserted leaves, kept so
// off-chain actors can rebuild inclusion proofs without replaying history.
type RecentLeaf struct {
	Index           uint64
	Commitment      types.Hash32
	ValueCommitment types.Hash32
}

// Tree is the incremental commitment accumulator. It is not safe for
// concurrent use; the pool controller serializes access.
type Tree struct {
	depth       int
	canopyDepth int
	nextIndex   uint64
	root        types.Hash32
	// frontier[l] holds the rightmost node at level l, consumed when a
	// right sibling arrives.
	frontier []types.Hash32
	// zeros[l] is the hash of an empty subtree of height l; zeros[0] is the
	// empty leaf. Deterministic, recomputed on load.
	zeros []types.Hash32
	// canopy caches the top canopyDepth levels below the root, flattened
	// top-down: level depth-j occupies [2^j-2, 2^(j+1)-2).
	canopy []types.Hash32
	recent [types.RecentLeavesSize]RecentLeaf
}

// New creates an empty accumulator of the given depth, caching the top
// canopyDepth levels. The root of the empty tree is the zero-subtree hash of
// the full depth.
func New(depth, canopyDepth int) (*Tree, error) {
	if depth < 1 || depth > types.MerkleDepth {
		return nil, fmt.Errorf("%w: depth %d not in [1,%d]", ErrInvalidDepth, depth, types.MerkleDepth)
	}
	if canopyDepth < 0 || canopyDepth > types.MaxCanopyDepth || canopyDepth >= depth {
		return nil, fmt.Errorf("%w: canopy depth %d not in [0,min(%d,depth-1)]",
			ErrInvalidDepth, canopyDepth, types.MaxCanopyDepth)
	}
	zeros := make([]types.Hash32, depth+1)
	for l := 1; l <= depth; l++ {
		h, err := poseidon.HashPair(zeros[l-1], zeros[l-1])
		if err != nil {
			return nil, err
		}
		zeros[l] = h
	}
	t := &Tree{
		depth:       depth,
		canopyDepth: canopyDepth,
		root:        zeros[depth],
		frontier:    make([]types.Hash32, depth),
		zeros:       zeros,
		canopy:      make([]types.Hash32, canopySize(canopyDepth)),
	}
	for i := range t.canopy {
		t.canopy[i] = t.zeroAtCanopy(i)
	}
	return t, nil
}

func canopySize(canopyDepth int) int {
	return (1 << uint(canopyDepth+1)) - 2
}

// zeroAtCanopy returns the empty-subtree hash for flattened canopy slot i.
func (t *Tree) zeroAtCanopy(i int) types.Hash32 {
	j := 1
	for i >= (1<<uint(j+1))-2 {
		j++
	}
	return t.zeros[t.depth-j]
}

// Depth returns the tree depth.
func (t *Tree) Depth() int { return t.depth }

// NextIndex returns the index the next inserted leaf will occupy.
func (t *Tree) NextIndex() uint64 { return t.nextIndex }

// Root returns the current root.
func (t *Tree) Root() types.Hash32 { return t.root }

// EmptyRoot returns the root of the empty tree of this depth.
func (t *Tree) EmptyRoot() types.Hash32 { return t.zeros[t.depth] }

// Canopy returns a copy of the cached top levels, flattened top-down.
func (t *Tree) Canopy() []types.Hash32 {
	out := make([]types.Hash32, len(t.canopy))
	copy(out, t.canopy)
	return out
}

// RecentLeaves returns the most recently inserted leaves, oldest first.
func (t *Tree) RecentLeaves() []RecentLeaf {
	n := uint64(types.RecentLeavesSize)
	count := t.nextIndex
	if count > n {
		count = n
	}
	out := make([]RecentLeaf, 0, count)
	for i := t.nextIndex - count; i < t.nextIndex; i++ {
		out = append(out, t.recent[i%n])
	}
	return out
}

// InsertLeaf appends one commitment to the tree and returns the new root and
// the index the leaf was assigned. The value commitment is not hashed into
// the tree; it travels with the leaf for the recent-leaf ring and the ledger
// digests.
func (t *Tree) InsertLeaf(commitment, valueCommitment types.Hash32) (types.Hash32, uint64, error) {
	if t.nextIndex >= uint64(1)<<uint(t.depth) {
		return types.Hash32{}, 0, ErrTreeFull
	}
	index := t.nextIndex
	node := commitment
	idx := index
	for level := 0; level < t.depth; level++ {
		var err error
		if idx&1 == 0 {
			t.frontier[level] = node
			node, err = poseidon.HashPair(node, t.zeros[level])
		} else {
			node, err = poseidon.HashPair(t.frontier[level], node)
		}
		if err != nil {
			return types.Hash32{}, 0, err
		}
		idx >>= 1
		// node now sits at (level+1, idx); cache it if it is in the canopy.
		if j := t.depth - (level + 1); j >= 1 && j <= t.canopyDepth {
			t.canopy[(1<<uint(j))-2+int(idx)] = node
		}
	}
	t.root = node
	t.recent[index%uint64(types.RecentLeavesSize)] = RecentLeaf{
		Index:           index,
		Commitment:      commitment,
		ValueCommitment: valueCommitment,
	}
	t.nextIndex = index + 1
	return t.root, index, nil
}

// InsertMany appends a batch of commitments sequentially. It returns the
// final root and the per-leaf indices. An empty batch is a no-op returning
// the unchanged root.
func (t *Tree) InsertMany(commitments, valueCommitments []types.Hash32) (types.Hash32, []uint64, error) {
	if len(commitments) != len(valueCommitments) {
		return types.Hash32{}, nil, ErrOutputSetMismatch
	}
	indices := make([]uint64, 0, len(commitments))
	root := t.root
	for i := range commitments {
		var (
			index uint64
			err   error
		)
		root, index, err = t.InsertLeaf(commitments[i], valueCommitments[i])
		if err != nil {
			return types.Hash32{}, nil, err
		}
		indices = append(indices, index)
	}
	return root, indices, nil
}

// Clone returns a deep copy of the tree.
func (t *Tree) Clone() *Tree {
	c := &Tree{
		depth:       t.depth,
		canopyDepth: t.canopyDepth,
		nextIndex:   t.nextIndex,
		root:        t.root,
		frontier:    make([]types.Hash32, len(t.frontier)),
		zeros:       t.zeros, // immutable after New
		canopy:      make([]types.Hash32, len(t.canopy)),
		recent:      t.recent,
	}
	copy(c.frontier, t.frontier)
	copy(c.canopy, t.canopy)
	return c
}
