package pool

import (
	"math/big"

	"github.com/vocdoni/shielded-pool/crypto/hash/poseidon"
	"github.com/vocdoni/shielded-pool/types"
	"github.com/vocdoni/shielded-pool/util"
)

// UnshieldMode selects where unshielded value goes.
type UnshieldMode uint8

const (
	// ModeOrigin releases origin-asset value from the vault.
	ModeOrigin UnshieldMode = 0
	// ModeTwin mints twin-asset value instead; the vault keeps custody.
	ModeTwin UnshieldMode = 1
)

func (m UnshieldMode) String() string {
	if m == ModeTwin {
		return "twin"
	}
	return "origin"
}

// Public-input encodings, the wire contract between this controller and the
// proving side. Every scalar is a 32-byte big-endian field element; the
// ordering below is canonical and versioned with the verifying keys.

// encodeShieldInputs lays out the shield statement:
//
//	[commitment, valueCommitment, amount, depositor, originAsset, poolID]
func encodeShieldInputs(commitment, valueCommitment types.Hash32, amount uint64,
	depositor, originAsset, poolID types.Account) []types.Hash32 {
	return []types.Hash32{
		commitment,
		valueCommitment,
		types.Hash32FromUint64(amount),
		depositor,
		originAsset,
		poolID,
	}
}

// encodeTransferInputs lays out the private-transfer statement:
//
//	[oldRoot, newRoot, nullifiers..., outputCommitments...,
//	 outputValueCommitments..., originAsset, poolID]
func encodeTransferInputs(oldRoot, newRoot types.Hash32,
	nullifiers, outputCommitments, outputValueCommitments []types.Hash32,
	originAsset, poolID types.Account) []types.Hash32 {
	out := make([]types.Hash32, 0,
		2+len(nullifiers)+len(outputCommitments)+len(outputValueCommitments)+2)
	out = append(out, oldRoot, newRoot)
	out = append(out, nullifiers...)
	out = append(out, outputCommitments...)
	out = append(out, outputValueCommitments...)
	return append(out, originAsset, poolID)
}

// encodeUnshieldInputs lays out the unshield statement, with the change
// commitments explicit:
//
//	[oldRoot, newRoot, nullifiers..., changeCommitments...,
//	 changeValueCommitments..., amount, fee, destination, mode,
//	 originAsset, poolID]
func encodeUnshieldInputs(oldRoot, newRoot types.Hash32,
	nullifiers, changeCommitments, changeValueCommitments []types.Hash32,
	amount, fee uint64, destination types.Account, mode UnshieldMode,
	originAsset, poolID types.Account) []types.Hash32 {
	out := make([]types.Hash32, 0,
		2+len(nullifiers)+len(changeCommitments)+len(changeValueCommitments)+6)
	out = append(out, oldRoot, newRoot)
	out = append(out, nullifiers...)
	out = append(out, changeCommitments...)
	out = append(out, changeValueCommitments...)
	out = append(out,
		types.Hash32FromUint64(amount),
		types.Hash32FromUint64(fee),
		destination,
		types.Hash32FromUint64(uint64(mode)),
	)
	return append(out, originAsset, poolID)
}

// statementDigest compresses a public-input vector into one field element,
// the compact statement identifier attached to receipts and events.
func statementDigest(inputs []types.Hash32) (types.Hash32, error) {
	elems := make([]*big.Int, len(inputs))
	for i, in := range inputs {
		elems[i] = util.BigToFF(in.Big())
	}
	sum, err := poseidon.MultiPoseidon(elems...)
	if err != nil {
		return types.Hash32{}, err
	}
	return types.Hash32FromBig(sum)
}
