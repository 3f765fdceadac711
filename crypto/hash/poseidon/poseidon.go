// Package poseidon wraps the circom-compatible Poseidon permutation over the
// BN254 scalar field. The two-to-one form is the node hash of the commitment
// accumulator and the fold step of the ledger digests; its output must match
// bit-for-bit what the proof circuits compute, so the parameterization
// (width 3, 8 full and 57 partial rounds, x^5 sbox) is fixed by the circuits
// and taken from github.com/iden3/go-iden3-crypto.
package poseidon

import (
	"fmt"
	"math/big"

	"github.com/iden3/go-iden3-crypto/poseidon"

	"github.com/vocdoni/shielded-pool/types"
	"github.com/vocdoni/shielded-pool/util"
)

// HashPair computes the two-to-one Poseidon hash of left and right. Inputs
// are interpreted as big-endian integers and reduced into the scalar field.
func HashPair(left, right types.Hash32) (types.Hash32, error) {
	sum, err := poseidon.Hash([]*big.Int{
		util.BigToFF(left.Big()),
		util.BigToFF(right.Big()),
	})
	if err != nil {
		return types.Hash32{}, fmt.Errorf("poseidon hash: %w", err)
	}
	return types.Hash32FromBig(sum)
}

// Fold absorbs each item into the digest in order: digest = H(digest, item).
// It is the audit-fingerprint primitive of the value ledger; the result is
// order-sensitive and not reversible.
func Fold(digest types.Hash32, items ...types.Hash32) (types.Hash32, error) {
	var err error
	for _, item := range items {
		digest, err = HashPair(digest, item)
		if err != nil {
			return types.Hash32{}, err
		}
	}
	return digest, nil
}

// MultiPoseidon hashes an arbitrary number of field elements by chunking them
// into poseidon-sized groups of 16 and hashing the chunk hashes together.
func MultiPoseidon(inputs ...*big.Int) (*big.Int, error) {
	if len(inputs) > 256 {
		return nil, fmt.Errorf("too many inputs")
	} else if len(inputs) == 0 {
		return nil, fmt.Errorf("no inputs provided")
	}
	hashes := []*big.Int{}
	chunk := []*big.Int{}
	for _, input := range inputs {
		if len(chunk) == 16 {
			hash, err := poseidon.Hash(chunk)
			if err != nil {
				return nil, err
			}
			hashes = append(hashes, hash)
			chunk = []*big.Int{}
		}
		chunk = append(chunk, input)
	}
	if len(chunk) > 0 {
		hash, err := poseidon.Hash(chunk)
		if err != nil {
			return nil, err
		}
		hashes = append(hashes, hash)
	}
	if len(hashes) == 1 {
		return hashes[0], nil
	}
	return poseidon.Hash(hashes)
}
