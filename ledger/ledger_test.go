package ledger

import (
	"math"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/vocdoni/shielded-pool/crypto/hash/poseidon"
	"github.com/vocdoni/shielded-pool/types"
)

func h(v uint64) types.Hash32 {
	return types.Hash32FromUint64(v)
}

func TestRecordShield(t *testing.T) {
	t.Parallel()
	l := New()
	err := l.RecordShield(1000, h(1))
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, l.TotalMinted(), qt.Equals, uint64(1000))
	qt.Assert(t, l.LiveValue(), qt.Equals, uint64(1000))
	qt.Assert(t, l.NotesCreated(), qt.Equals, uint64(1))

	want, err := poseidon.Fold(types.Hash32{}, h(1))
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, l.CommitmentDigest(), qt.Equals, want)
}

func TestRecordShieldOverflow(t *testing.T) {
	t.Parallel()
	l := New()
	qt.Assert(t, l.RecordShield(math.MaxUint64, h(1)), qt.IsNil)
	err := l.RecordShield(1, h(2))
	qt.Assert(t, err, qt.ErrorIs, ErrAmountOverflow)
	// Failed records leave the ledger unchanged.
	qt.Assert(t, l.TotalMinted(), qt.Equals, uint64(math.MaxUint64))
	qt.Assert(t, l.NotesCreated(), qt.Equals, uint64(1))
}

func TestRecordTransferKeepsLiveValue(t *testing.T) {
	t.Parallel()
	l := New()
	qt.Assert(t, l.RecordShield(500, h(1)), qt.IsNil)

	err := l.RecordTransfer([]types.Hash32{h(10), h(11)}, []types.Hash32{h(20)})
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, l.LiveValue(), qt.Equals, uint64(500))
	qt.Assert(t, l.NotesConsumed(), qt.Equals, uint64(2))
	qt.Assert(t, l.NotesCreated(), qt.Equals, uint64(2))

	wantNull, err := poseidon.Fold(types.Hash32{}, h(10), h(11))
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, l.NullifierDigest(), qt.Equals, wantNull)
}

func TestRecordUnshield(t *testing.T) {
	t.Parallel()
	l := New()
	qt.Assert(t, l.RecordShield(1000, h(1)), qt.IsNil)

	err := l.RecordUnshield(600, []types.Hash32{h(10)}, []types.Hash32{h(20)})
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, l.TotalSpent(), qt.Equals, uint64(600))
	qt.Assert(t, l.LiveValue(), qt.Equals, uint64(400))
	qt.Assert(t, l.NotesConsumed(), qt.Equals, uint64(1))
	qt.Assert(t, l.NotesCreated(), qt.Equals, uint64(2))
}

func TestRecordUnshieldInsufficient(t *testing.T) {
	t.Parallel()
	l := New()
	qt.Assert(t, l.RecordShield(100, h(1)), qt.IsNil)

	err := l.RecordUnshield(101, []types.Hash32{h(10)}, nil)
	qt.Assert(t, err, qt.ErrorIs, ErrInsufficientLiquidity)
	qt.Assert(t, l.LiveValue(), qt.Equals, uint64(100))
	qt.Assert(t, l.NotesConsumed(), qt.Equals, uint64(0))
}

func TestEnsureCapacity(t *testing.T) {
	t.Parallel()
	l := New()
	qt.Assert(t, l.EnsureCapacity(0), qt.IsNil)
	qt.Assert(t, l.EnsureCapacity(1), qt.ErrorIs, ErrInsufficientLiquidity)
	qt.Assert(t, l.RecordShield(50, h(1)), qt.IsNil)
	qt.Assert(t, l.EnsureCapacity(50), qt.IsNil)
	qt.Assert(t, l.EnsureCapacity(51), qt.ErrorIs, ErrInsufficientLiquidity)
}

func TestCloneIsIndependent(t *testing.T) {
	t.Parallel()
	l := New()
	qt.Assert(t, l.RecordShield(100, h(1)), qt.IsNil)
	clone := l.Clone()
	qt.Assert(t, clone.RecordShield(100, h(2)), qt.IsNil)
	qt.Assert(t, clone.TotalMinted(), qt.Equals, uint64(200))
	qt.Assert(t, l.TotalMinted(), qt.Equals, uint64(100))
}

func TestMarshalRoundTrip(t *testing.T) {
	t.Parallel()
	l := New()
	qt.Assert(t, l.RecordShield(1000, h(1)), qt.IsNil)
	qt.Assert(t, l.RecordUnshield(300, []types.Hash32{h(10)}, []types.Hash32{h(20)}), qt.IsNil)

	data, err := l.MarshalBinary()
	qt.Assert(t, err, qt.IsNil)

	restored := New()
	err = restored.UnmarshalBinary(data)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, restored.TotalMinted(), qt.Equals, l.TotalMinted())
	qt.Assert(t, restored.TotalSpent(), qt.Equals, l.TotalSpent())
	qt.Assert(t, restored.LiveValue(), qt.Equals, l.LiveValue())
	qt.Assert(t, restored.NotesCreated(), qt.Equals, l.NotesCreated())
	qt.Assert(t, restored.NotesConsumed(), qt.Equals, l.NotesConsumed())
	qt.Assert(t, restored.CommitmentDigest(), qt.Equals, l.CommitmentDigest())
	qt.Assert(t, restored.NullifierDigest(), qt.Equals, l.NullifierDigest())

	err = restored.UnmarshalBinary(data[:8])
	qt.Assert(t, err, qt.IsNotNil)
}
