// Package ledger tracks the aggregate value held by a shielded pool: total
// minted and spent value, the live (unspent) value, note counters, and two
// running digests that fingerprint the full history of commitments and
// nullifiers for auditing.
package ledger

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/vocdoni/shielded-pool/crypto/hash/poseidon"
	"github.com/vocdoni/shielded-pool/types"
)

var (
	// ErrInsufficientLiquidity is returned when a spend exceeds the live
	// value of the pool.
	ErrInsufficientLiquidity = fmt.Errorf("insufficient shielded liquidity")
	// ErrAmountOverflow is returned when a counter would overflow uint64.
	ErrAmountOverflow = fmt.Errorf("amount overflow")
)

// Ledger is the value ledger of a single pool. It is not safe for concurrent
// use; the pool controller serializes access.
type Ledger struct {
	totalMinted   uint64
	totalSpent    uint64
	liveValue     uint64
	notesCreated  uint64
	notesConsumed uint64
	// commitmentDigest folds every value commitment ever recorded;
	// nullifierDigest folds every nullifier. Order-sensitive, irreversible.
	commitmentDigest types.Hash32
	nullifierDigest  types.Hash32
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{}
}

// TotalMinted returns the cumulative shielded value.
func (l *Ledger) TotalMinted() uint64 { return l.totalMinted }

// TotalSpent returns the cumulative unshielded value (including fees).
func (l *Ledger) TotalSpent() uint64 { return l.totalSpent }

// LiveValue returns the value currently represented by unspent notes.
func (l *Ledger) LiveValue() uint64 { return l.liveValue }

// NotesCreated returns the number of notes ever inserted.
func (l *Ledger) NotesCreated() uint64 { return l.notesCreated }

// NotesConsumed returns the number of notes ever nullified.
func (l *Ledger) NotesConsumed() uint64 { return l.notesConsumed }

// CommitmentDigest returns the running digest of value commitments.
func (l *Ledger) CommitmentDigest() types.Hash32 { return l.commitmentDigest }

// NullifierDigest returns the running digest of nullifiers.
func (l *Ledger) NullifierDigest() types.Hash32 { return l.nullifierDigest }

// RecordShield accounts for a new note worth amount entering the pool.
func (l *Ledger) RecordShield(amount uint64, valueCommitment types.Hash32) error {
	minted, ok := add64(l.totalMinted, amount)
	if !ok {
		return ErrAmountOverflow
	}
	live, ok := add64(l.liveValue, amount)
	if !ok {
		return ErrAmountOverflow
	}
	digest, err := poseidon.Fold(l.commitmentDigest, valueCommitment)
	if err != nil {
		return err
	}
	l.totalMinted = minted
	l.liveValue = live
	l.notesCreated++
	l.commitmentDigest = digest
	return nil
}

// RecordTransfer accounts for an in-pool transfer: inputs are consumed and
// outputs created, but the live value is unchanged. Conservation of the
// hidden amounts is guaranteed by the transfer proof, not re-checked here.
func (l *Ledger) RecordTransfer(nullifiers, valueCommitments []types.Hash32) error {
	nullifierDigest, err := poseidon.Fold(l.nullifierDigest, nullifiers...)
	if err != nil {
		return err
	}
	commitmentDigest, err := poseidon.Fold(l.commitmentDigest, valueCommitments...)
	if err != nil {
		return err
	}
	l.nullifierDigest = nullifierDigest
	l.commitmentDigest = commitmentDigest
	l.notesConsumed += uint64(len(nullifiers))
	l.notesCreated += uint64(len(valueCommitments))
	return nil
}

// RecordUnshield accounts for totalSpent value (amount plus fee) leaving the
// pool, consuming the given nullifiers and creating change notes.
func (l *Ledger) RecordUnshield(totalSpent uint64, nullifiers, changeValueCommitments []types.Hash32) error {
	if l.liveValue < totalSpent {
		return ErrInsufficientLiquidity
	}
	spent, ok := add64(l.totalSpent, totalSpent)
	if !ok {
		return ErrAmountOverflow
	}
	nullifierDigest, err := poseidon.Fold(l.nullifierDigest, nullifiers...)
	if err != nil {
		return err
	}
	commitmentDigest, err := poseidon.Fold(l.commitmentDigest, changeValueCommitments...)
	if err != nil {
		return err
	}
	l.totalSpent = spent
	l.liveValue -= totalSpent
	l.notesConsumed += uint64(len(nullifiers))
	l.notesCreated += uint64(len(changeValueCommitments))
	l.nullifierDigest = nullifierDigest
	l.commitmentDigest = commitmentDigest
	return nil
}

// EnsureCapacity fails if the live value cannot cover amount.
func (l *Ledger) EnsureCapacity(amount uint64) error {
	if l.liveValue < amount {
		return ErrInsufficientLiquidity
	}
	return nil
}

// Clone returns a copy of the ledger.
func (l *Ledger) Clone() *Ledger {
	c := *l
	return &c
}

// MarshalBinary implements encoding.BinaryMarshaler:
//
//	u64 totalMinted | u64 totalSpent | u64 liveValue |
//	u64 notesCreated | u64 notesConsumed |
//	commitmentDigest[32] | nullifierDigest[32]
func (l *Ledger) MarshalBinary() ([]byte, error) {
	buf := new(bytes.Buffer)
	for _, v := range []uint64{l.totalMinted, l.totalSpent, l.liveValue, l.notesCreated, l.notesConsumed} {
		if err := binary.Write(buf, binary.BigEndian, v); err != nil {
			return nil, err
		}
	}
	buf.Write(l.commitmentDigest[:])
	buf.Write(l.nullifierDigest[:])
	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (l *Ledger) UnmarshalBinary(data []byte) error {
	if len(data) != 5*8+2*32 {
		return fmt.Errorf("ledger record has %d bytes, expected %d", len(data), 5*8+2*32)
	}
	l.totalMinted = binary.BigEndian.Uint64(data[0:])
	l.totalSpent = binary.BigEndian.Uint64(data[8:])
	l.liveValue = binary.BigEndian.Uint64(data[16:])
	l.notesCreated = binary.BigEndian.Uint64(data[24:])
	l.notesConsumed = binary.BigEndian.Uint64(data[32:])
	copy(l.commitmentDigest[:], data[40:72])
	copy(l.nullifierDigest[:], data[72:104])
	return nil
}

func add64(a, b uint64) (uint64, bool) {
	sum := a + b
	return sum, sum >= a
}
