// Package verifier wraps Groth16 proof verification over BN254 behind a
// registry of named verifying keys, one per proof kind a pool accepts.
package verifier

import (
	"bytes"
	"fmt"
	"math/big"
	"sync"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"
	"go.vocdoni.io/dvote/log"

	"github.com/vocdoni/shielded-pool/types"
)

var (
	// ErrUnknownKey is returned when verifying against an unregistered key.
	ErrUnknownKey = fmt.Errorf("unknown verifying key")
	// ErrKeyExists is returned when registering a key name twice.
	ErrKeyExists = fmt.Errorf("verifying key already registered")
	// ErrMalformedProof is returned when the proof bytes do not decode.
	ErrMalformedProof = fmt.Errorf("malformed proof")
	// ErrProofInvalid is returned when pairing verification fails.
	ErrProofInvalid = fmt.Errorf("proof verification failed")
)

// Proof kind names used by the pool controller.
const (
	KeyShield   = "shield"
	KeyTransfer = "transfer"
	KeyUnshield = "unshield"
)

// Registry holds the verifying keys of a deployment, keyed by proof kind.
// Safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	keys map[string]groth16.VerifyingKey
}

// NewRegistry creates an empty key registry.
func NewRegistry() *Registry {
	return &Registry{keys: make(map[string]groth16.VerifyingKey)}
}

// Register binds an already-decoded verifying key to a proof kind name.
func (r *Registry) Register(name string, vk groth16.VerifyingKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.keys[name]; ok {
		return fmt.Errorf("%w: %s", ErrKeyExists, name)
	}
	r.keys[name] = vk
	log.Infow("verifying key registered", "name", name, "publicInputs", vk.NbPublicWitness())
	return nil
}

// RegisterBytes decodes a serialized BN254 verifying key and registers it.
func (r *Registry) RegisterBytes(name string, data []byte) error {
	vk := groth16.NewVerifyingKey(ecc.BN254)
	if _, err := vk.ReadFrom(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("decode verifying key %s: %w", name, err)
	}
	return r.Register(name, vk)
}

// Has reports whether a key is registered under name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.keys[name]
	return ok
}

// Verify decodes the proof bytes and checks them against the named key and
// the public inputs, in order. Inputs are reduced into the BN254 scalar field
// before witness construction.
func (r *Registry) Verify(name string, proofBytes []byte, publicInputs []types.Hash32) error {
	r.mu.RLock()
	vk, ok := r.keys[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, name)
	}
	proof := groth16.NewProof(ecc.BN254)
	if _, err := proof.ReadFrom(bytes.NewReader(proofBytes)); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedProof, err)
	}
	w, err := publicWitness(publicInputs)
	if err != nil {
		return err
	}
	if err := groth16.Verify(proof, vk, w); err != nil {
		log.Debugw("proof rejected", "name", name, "error", err.Error())
		return fmt.Errorf("%w: %v", ErrProofInvalid, err)
	}
	return nil
}

func publicWitness(inputs []types.Hash32) (witness.Witness, error) {
	w, err := witness.New(ecc.BN254.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("create witness: %w", err)
	}
	ch := make(chan any, len(inputs))
	for _, in := range inputs {
		ch <- new(big.Int).SetBytes(in[:])
	}
	close(ch)
	if err := w.Fill(len(inputs), 0, ch); err != nil {
		return nil, fmt.Errorf("fill witness: %w", err)
	}
	return w, nil
}
