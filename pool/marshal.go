package pool

import (
	"encoding/binary"
	"fmt"

	"github.com/vocdoni/shielded-pool/ledger"
	"github.com/vocdoni/shielded-pool/nullifier"
	"github.com/vocdoni/shielded-pool/tree"
	"github.com/vocdoni/shielded-pool/types"
)

// MarshalControllerState serializes the controller scalars and the root
// window:
//
//	u64 protocolFees | u8 halted | currentRoot[32] | u8 pastCount |
//	pastCount x root[32] (most recent first)
func (p *Pool) MarshalControllerState() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.marshalControllerState(), nil
}

func (p *Pool) marshalControllerState() []byte {
	past := p.window.Roots()
	out := make([]byte, 0, 8+1+32+1+len(past)*32)
	out = binary.BigEndian.AppendUint64(out, p.protocolFees)
	halted := byte(0)
	if p.halted {
		halted = 1
	}
	out = append(out, halted)
	current := p.window.Current()
	out = append(out, current[:]...)
	out = append(out, byte(len(past)))
	for _, r := range past {
		out = append(out, r[:]...)
	}
	return out
}

// Snapshot captures the four persistence records under a single lock, so a
// concurrent operation cannot tear the snapshot across components.
func (p *Pool) Snapshot() (treeRec, nullifierRec, ledgerRec, controllerRec []byte, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if treeRec, err = p.tree.MarshalBinary(); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal tree: %w", err)
	}
	if nullifierRec, err = p.nullifiers.MarshalBinary(); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal nullifiers: %w", err)
	}
	if ledgerRec, err = p.ledger.MarshalBinary(); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal ledger: %w", err)
	}
	return treeRec, nullifierRec, ledgerRec, p.marshalControllerState(), nil
}

func unmarshalControllerState(data []byte) (fees uint64, halted bool, w *rootWindow, err error) {
	if len(data) < 8+1+32+1 {
		return 0, false, nil, fmt.Errorf("controller record too short")
	}
	fees = binary.BigEndian.Uint64(data[0:])
	halted = data[8] == 1
	var current types.Hash32
	copy(current[:], data[9:41])
	count := int(data[41])
	if count > types.RootWindowSize || len(data) != 42+count*32 {
		return 0, false, nil, fmt.Errorf("malformed controller record")
	}
	// Rebuild the ring in place: the record lists past roots most recent
	// first, the ring stores them oldest first with the cursor on the slot
	// the next Push will overwrite.
	w = &rootWindow{
		current: current,
		count:   count,
		next:    count % types.RootWindowSize,
	}
	for i := 0; i < count; i++ {
		copy(w.past[count-1-i][:], data[42+i*32:])
	}
	return fees, halted, w, nil
}

// Restore rebuilds a pool from persisted component records. The configuration
// and capabilities are not persisted; the caller provides them as in New.
func Restore(cfg Config, verifier Verifier, vault Vault, mint TwinMint, hook Hook,
	treeRec, nullifierRec, ledgerRec, controllerRec []byte) (*Pool, error) {
	cfg.applyDefaults()
	if cfg.FeeBps > types.MaxBps {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFee, cfg.FeeBps)
	}
	if cfg.Twin.Enabled() && mint == nil {
		return nil, ErrMissingTwinMint
	}
	t := &tree.Tree{}
	if err := t.UnmarshalBinary(treeRec); err != nil {
		return nil, fmt.Errorf("restore tree: %w", err)
	}
	n := &nullifier.Registry{}
	if err := n.UnmarshalBinary(nullifierRec); err != nil {
		return nil, fmt.Errorf("restore nullifiers: %w", err)
	}
	l := &ledger.Ledger{}
	if err := l.UnmarshalBinary(ledgerRec); err != nil {
		return nil, fmt.Errorf("restore ledger: %w", err)
	}
	fees, halted, w, err := unmarshalControllerState(controllerRec)
	if err != nil {
		return nil, fmt.Errorf("restore controller: %w", err)
	}
	return &Pool{
		cfg:          cfg,
		verifier:     verifier,
		vault:        vault,
		mint:         mint,
		hook:         hook,
		tree:         t,
		nullifiers:   n,
		ledger:       l,
		window:       w,
		protocolFees: fees,
		halted:       halted,
	}, nil
}
