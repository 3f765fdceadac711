package governance

import (
	"os"
	"testing"

	qt "github.com/frankban/quicktest"
	"go.vocdoni.io/dvote/log"

	"github.com/vocdoni/shielded-pool/types"
)

func TestMain(m *testing.M) {
	log.Init("debug", "stdout", nil)
	os.Exit(m.Run())
}

var (
	admin  = types.Hash32FromUint64(1)
	mallet = types.Hash32FromUint64(2)
	asset  = types.Hash32FromUint64(10)
	twin   = types.Hash32FromUint64(11)
)

func TestRegisterAndLookup(t *testing.T) {
	t.Parallel()
	r := New(admin)
	err := r.RegisterAsset(admin, asset, twin, 9, types.FeeBpsDefault,
		types.FeaturePrivateTransfer)
	qt.Assert(t, err, qt.IsNil)

	m, err := r.Lookup(asset)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, m.TwinMint, qt.Equals, twin)
	qt.Assert(t, m.Active, qt.IsTrue)
	qt.Assert(t, m.Decimals, qt.Equals, uint8(9))
	qt.Assert(t, m.FeeBps, qt.Equals, uint16(types.FeeBpsDefault))
	qt.Assert(t, m.Features.Contains(types.FeaturePrivateTransfer), qt.IsTrue)

	// Duplicate registration is rejected.
	err = r.RegisterAsset(admin, asset, twin, 9, 0, 0)
	qt.Assert(t, err, qt.ErrorIs, ErrAssetExists)

	_, err = r.Lookup(types.Hash32FromUint64(99))
	qt.Assert(t, err, qt.ErrorIs, ErrAssetUnknown)
}

func TestAuthority(t *testing.T) {
	t.Parallel()
	r := New(admin)
	err := r.RegisterAsset(mallet, asset, twin, 9, 0, 0)
	qt.Assert(t, err, qt.ErrorIs, ErrUnauthorized)

	qt.Assert(t, r.RegisterAsset(admin, asset, twin, 9, 0, 0), qt.IsNil)
	qt.Assert(t, r.UpdateAsset(mallet, asset, 1, 0), qt.ErrorIs, ErrUnauthorized)
	qt.Assert(t, r.Freeze(mallet, asset), qt.ErrorIs, ErrUnauthorized)
	qt.Assert(t, r.Pause(mallet), qt.ErrorIs, ErrUnauthorized)
}

func TestUpdateAsset(t *testing.T) {
	t.Parallel()
	r := New(admin)
	qt.Assert(t, r.RegisterAsset(admin, asset, twin, 9, 5, 0), qt.IsNil)

	err := r.UpdateAsset(admin, asset, types.MaxBps+1, 0)
	qt.Assert(t, err, qt.ErrorIs, ErrInvalidFee)

	qt.Assert(t, r.UpdateAsset(admin, asset, 25, types.FeatureHooks), qt.IsNil)
	m, err := r.Lookup(asset)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, m.FeeBps, qt.Equals, uint16(25))
	qt.Assert(t, m.Features.Contains(types.FeatureHooks), qt.IsTrue)

	err = r.UpdateAsset(admin, types.Hash32FromUint64(99), 1, 0)
	qt.Assert(t, err, qt.ErrorIs, ErrAssetUnknown)
}

func TestFreezeThaw(t *testing.T) {
	t.Parallel()
	r := New(admin)
	qt.Assert(t, r.RegisterAsset(admin, asset, twin, 9, 0, 0), qt.IsNil)

	qt.Assert(t, r.Freeze(admin, asset), qt.IsNil)
	m, err := r.Lookup(asset)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, m.Active, qt.IsFalse)

	qt.Assert(t, r.Thaw(admin, asset), qt.IsNil)
	m, err = r.Lookup(asset)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, m.Active, qt.IsTrue)
}

func TestPauseBlocksRegistration(t *testing.T) {
	t.Parallel()
	r := New(admin)
	qt.Assert(t, r.Pause(admin), qt.IsNil)
	qt.Assert(t, r.Paused(), qt.IsTrue)

	err := r.RegisterAsset(admin, asset, twin, 9, 0, 0)
	qt.Assert(t, err, qt.ErrorIs, ErrRegistryPaused)

	qt.Assert(t, r.Unpause(admin), qt.IsNil)
	qt.Assert(t, r.RegisterAsset(admin, asset, twin, 9, 0, 0), qt.IsNil)
	qt.Assert(t, len(r.Assets()), qt.Equals, 1)
}
