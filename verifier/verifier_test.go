package verifier

import (
	"os"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	qt "github.com/frankban/quicktest"
	"go.vocdoni.io/dvote/log"

	"github.com/vocdoni/shielded-pool/types"
)

func TestMain(m *testing.M) {
	log.Init("debug", "stdout", nil)
	os.Exit(m.Run())
}

func TestRegisterDuplicate(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	vk := groth16.NewVerifyingKey(ecc.BN254)
	qt.Assert(t, r.Register(KeyShield, vk), qt.IsNil)
	qt.Assert(t, r.Register(KeyShield, vk), qt.ErrorIs, ErrKeyExists)
	qt.Assert(t, r.Has(KeyShield), qt.IsTrue)
	qt.Assert(t, r.Has(KeyTransfer), qt.IsFalse)
}

func TestRegisterBytesMalformed(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	err := r.RegisterBytes(KeyUnshield, []byte{0x01, 0x02})
	qt.Assert(t, err, qt.IsNotNil)
	qt.Assert(t, r.Has(KeyUnshield), qt.IsFalse)
}

func TestVerifyUnknownKey(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	err := r.Verify("nope", nil, nil)
	qt.Assert(t, err, qt.ErrorIs, ErrUnknownKey)
}

func TestVerifyMalformedProof(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	qt.Assert(t, r.Register(KeyShield, groth16.NewVerifyingKey(ecc.BN254)), qt.IsNil)
	err := r.Verify(KeyShield, []byte{0xff}, []types.Hash32{types.Hash32FromUint64(1)})
	qt.Assert(t, err, qt.ErrorIs, ErrMalformedProof)
}

func TestPublicWitness(t *testing.T) {
	t.Parallel()
	w, err := publicWitness([]types.Hash32{
		types.Hash32FromUint64(1),
		types.Hash32FromUint64(2),
	})
	qt.Assert(t, err, qt.IsNil)
	data, err := w.MarshalBinary()
	qt.Assert(t, err, qt.IsNil)
	qt.Assert(t, len(data) > 0, qt.IsTrue)
}
