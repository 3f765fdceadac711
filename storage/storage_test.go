package storage

import (
	"os"
	"testing"

	qt "github.com/frankban/quicktest"
	"go.vocdoni.io/dvote/db/metadb"
	"go.vocdoni.io/dvote/log"

	"github.com/vocdoni/shielded-pool/pool"
	"github.com/vocdoni/shielded-pool/types"
	"github.com/vocdoni/shielded-pool/vault"
)

func TestMain(m *testing.M) {
	log.Init("debug", "stdout", nil)
	os.Exit(m.Run())
}

type acceptVerifier struct{}

func (acceptVerifier) Verify(string, []byte, []types.Hash32) error { return nil }

func testConfig() pool.Config {
	return pool.Config{
		OriginAsset: types.Hash32FromUint64(100),
		PoolID:      types.Hash32FromUint64(101),
		Authority:   types.Hash32FromUint64(102),
		FeeBps:      types.FeeBpsDefault,
		TreeDepth:   8,
		CanopyDepth: 2,
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	database := metadb.NewTest(t)
	cfg := testConfig()
	v := vault.New(cfg.OriginAsset, cfg.Authority)
	p, err := pool.New(cfg, acceptVerifier{}, v, nil, nil)
	qt.Assert(t, err, qt.IsNil)

	for i := uint64(0); i < 3; i++ {
		_, err := p.Shield(pool.ShieldRequest{
			Amount:          10_000,
			Commitment:      types.Hash32FromUint64(1000 + i*2),
			ValueCommitment: types.Hash32FromUint64(1001 + i*2),
			Depositor:       types.Hash32FromUint64(7),
		})
		qt.Assert(t, err, qt.IsNil)
	}
	_, err = p.UnshieldToOrigin(pool.UnshieldRequest{
		Amount:      5_000,
		Nullifiers:  []types.Hash32{types.Hash32FromUint64(50)},
		OldRoot:     p.Root(),
		Destination: types.Hash32FromUint64(8),
	})
	qt.Assert(t, err, qt.IsNil)

	qt.Assert(t, Save(database, p), qt.IsNil)

	restored, err := Load(database, cfg, acceptVerifier{}, v, nil, nil)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, restored.Root(), qt.Equals, p.Root())
	qt.Assert(t, restored.ProtocolFees(), qt.Equals, p.ProtocolFees())
	qt.Assert(t, restored.Ledger().LiveValue(), qt.Equals, p.Ledger().LiveValue())
	qt.Assert(t, restored.Nullifiers().Len(), qt.Equals, 1)
	qt.Assert(t, restored.Tree().NextIndex(), qt.Equals, p.Tree().NextIndex())

	// The restored pool keeps operating and re-saves over the same prefix.
	_, err = restored.Shield(pool.ShieldRequest{
		Amount:          1_000,
		Commitment:      types.Hash32FromUint64(70),
		ValueCommitment: types.Hash32FromUint64(71),
	})
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, Save(database, restored), qt.IsNil)
	again, err := Load(database, cfg, acceptVerifier{}, v, nil, nil)
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, again.Root(), qt.Equals, restored.Root())
}

func TestLoadMissing(t *testing.T) {
	database := metadb.NewTest(t)
	_, err := Load(database, testConfig(), acceptVerifier{}, nil, nil, nil)
	qt.Assert(t, err, qt.ErrorIs, ErrNotFound)
}

func TestPoolsAreIsolatedByPrefix(t *testing.T) {
	database := metadb.NewTest(t)
	cfgA := testConfig()
	cfgB := testConfig()
	cfgB.PoolID = types.Hash32FromUint64(202)

	vA := vault.New(cfgA.OriginAsset, cfgA.Authority)
	pA, err := pool.New(cfgA, acceptVerifier{}, vA, nil, nil)
	qt.Assert(t, err, qt.IsNil)
	_, err = pA.Shield(pool.ShieldRequest{
		Amount:          1_000,
		Commitment:      types.Hash32FromUint64(1),
		ValueCommitment: types.Hash32FromUint64(2),
	})
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, Save(database, pA), qt.IsNil)

	_, err = Load(database, cfgB, acceptVerifier{}, nil, nil, nil)
	qt.Assert(t, err, qt.ErrorIs, ErrNotFound)
}
