package hooks

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/vocdoni/shielded-pool/types"
)

func acc(v uint64) types.Account {
	return types.Hash32FromUint64(v)
}

func TestPresent(t *testing.T) {
	t.Parallel()
	cfg := &Config{}
	qt.Assert(t, cfg.Present(), qt.IsFalse)
	cfg.PostShieldTarget = acc(1)
	qt.Assert(t, cfg.Present(), qt.IsTrue)
	cfg = &Config{PostUnshieldTarget: acc(2)}
	qt.Assert(t, cfg.Present(), qt.IsTrue)
}

func TestValidateAccountsStrict(t *testing.T) {
	t.Parallel()
	cfg := &Config{
		RequiredAccounts: []types.Account{acc(1), acc(2)},
		Mode:             Strict,
	}

	// Exact set, any order.
	qt.Assert(t, cfg.ValidateAccounts([]types.Account{acc(2), acc(1)}), qt.IsNil)

	// Missing account.
	err := cfg.ValidateAccounts([]types.Account{acc(1)})
	qt.Assert(t, err, qt.ErrorIs, ErrAccountMismatch)

	// Extra account.
	err = cfg.ValidateAccounts([]types.Account{acc(1), acc(2), acc(3)})
	qt.Assert(t, err, qt.ErrorIs, ErrAccountMismatch)

	// Duplicates collapse to a set.
	qt.Assert(t, cfg.ValidateAccounts([]types.Account{acc(1), acc(1), acc(2)}), qt.IsNil)
}

func TestValidateAccountsLenient(t *testing.T) {
	t.Parallel()
	cfg := &Config{
		RequiredAccounts: []types.Account{acc(1), acc(2)},
		Mode:             Lenient,
	}

	// Superset is accepted.
	qt.Assert(t, cfg.ValidateAccounts([]types.Account{acc(3), acc(2), acc(1)}), qt.IsNil)

	// Missing required account.
	err := cfg.ValidateAccounts([]types.Account{acc(1), acc(3)})
	qt.Assert(t, err, qt.ErrorIs, ErrAccountMissing)
}

func TestValidateAccountsEmptyRequired(t *testing.T) {
	t.Parallel()
	strict := &Config{Mode: Strict}
	qt.Assert(t, strict.ValidateAccounts(nil), qt.IsNil)
	err := strict.ValidateAccounts([]types.Account{acc(1)})
	qt.Assert(t, err, qt.ErrorIs, ErrAccountMismatch)

	lenient := &Config{Mode: Lenient}
	qt.Assert(t, lenient.ValidateAccounts([]types.Account{acc(1)}), qt.IsNil)
}

func TestPostShieldPayloadRoundTrip(t *testing.T) {
	t.Parallel()
	p := &PostShield{
		OriginAsset:     acc(1),
		Pool:            acc(2),
		Depositor:       acc(3),
		Commitment:      acc(4),
		ValueCommitment: acc(5),
		Amount:          12345,
	}
	decoded, err := DecodePostShield(p.Encode())
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, decoded, qt.DeepEquals, p)

	_, err = DecodePostShield([]byte{PayloadPostUnshield})
	qt.Assert(t, err, qt.IsNotNil)
}

func TestPostUnshieldPayloadRoundTrip(t *testing.T) {
	t.Parallel()
	p := &PostUnshield{
		OriginAsset: acc(1),
		Pool:        acc(2),
		Destination: acc(3),
		Mode:        1,
		Amount:      999,
		Fee:         4,
	}
	decoded, err := DecodePostUnshield(p.Encode())
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, decoded, qt.DeepEquals, p)

	_, err = DecodePostUnshield(nil)
	qt.Assert(t, err, qt.IsNotNil)
}

func TestCloneIsIndependent(t *testing.T) {
	t.Parallel()
	cfg := &Config{
		PostShieldTarget: acc(1),
		RequiredAccounts: []types.Account{acc(2)},
	}
	clone := cfg.Clone()
	clone.RequiredAccounts[0] = acc(9)
	qt.Assert(t, cfg.RequiredAccounts[0], qt.Equals, acc(2))
}
