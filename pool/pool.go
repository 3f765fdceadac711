// Package pool implements the controller of a shielded pool: the single
// entrypoint serializing shield, private-transfer and unshield operations over
// the commitment accumulator, the nullifier registry and the value ledger,
// with a conservation invariant checked after every mutation.
//
// Operations work on cloned state and swap it in only after the proof, the
// external value movement and the invariant all succeed, so a failed
// operation leaves the pool exactly as it was.
package pool

import (
	"fmt"
	"math/big"
	"sync"

	"go.vocdoni.io/dvote/log"

	"github.com/vocdoni/shielded-pool/hooks"
	"github.com/vocdoni/shielded-pool/ledger"
	"github.com/vocdoni/shielded-pool/nullifier"
	"github.com/vocdoni/shielded-pool/tree"
	"github.com/vocdoni/shielded-pool/types"
)

// Default verifying-key identifiers, one per proof kind.
const (
	DefaultShieldKeyID   = "shield"
	DefaultTransferKeyID = "transfer"
	DefaultUnshieldKeyID = "unshield"
)

// Verifier checks zero-knowledge proofs against named verifying keys.
type Verifier interface {
	Verify(keyID string, proof []byte, publicInputs []types.Hash32) error
}

// Vault custodies the origin-asset value backing the pool.
type Vault interface {
	Deposit(amount uint64) error
	Release(caller types.Account, amount uint64) error
	Balance() uint64
}

// TwinMint issues the twin asset on twin redemptions.
type TwinMint interface {
	Mint(amount uint64) error
	Supply() uint64
}

// Hook receives best-effort post-operation notifications. A failed
// notification is logged, never fatal.
type Hook interface {
	Notify(target types.Account, accounts []types.Account, payload []byte) error
}

// Config is the static configuration of a pool.
type Config struct {
	OriginAsset types.Account
	PoolID      types.Account
	Authority   types.Account
	FeeBps      uint16
	Features    types.FeatureFlags
	Twin        TwinAsset
	// TreeDepth, CanopyDepth and NullifierCapacity default to MerkleDepth,
	// min(MaxCanopyDepth, depth-1) and MaxNullifiers when zero.
	TreeDepth         int
	CanopyDepth       int
	NullifierCapacity int
	// Verifying-key identifiers; empty fields take the defaults above.
	ShieldKeyID   string
	TransferKeyID string
	UnshieldKeyID string
}

func (c *Config) applyDefaults() {
	if c.TreeDepth == 0 {
		c.TreeDepth = types.MerkleDepth
	}
	if c.CanopyDepth == 0 {
		c.CanopyDepth = types.MaxCanopyDepth
		if c.CanopyDepth > c.TreeDepth-1 {
			c.CanopyDepth = c.TreeDepth - 1
		}
	}
	if c.NullifierCapacity == 0 {
		c.NullifierCapacity = types.MaxNullifiers
	}
	if c.ShieldKeyID == "" {
		c.ShieldKeyID = DefaultShieldKeyID
	}
	if c.TransferKeyID == "" {
		c.TransferKeyID = DefaultTransferKeyID
	}
	if c.UnshieldKeyID == "" {
		c.UnshieldKeyID = DefaultUnshieldKeyID
	}
}

// Pool is the shielded pool controller. Safe for concurrent use; operations
// are serialized.
type Pool struct {
	mu       sync.Mutex
	cfg      Config
	verifier Verifier
	vault    Vault
	mint     TwinMint
	hook     Hook
	hookCfg  *hooks.Config

	tree         *tree.Tree
	nullifiers   *nullifier.Registry
	ledger       *ledger.Ledger
	window       *rootWindow
	protocolFees uint64
	halted       bool
}

// New creates an empty pool. The mint capability is required exactly when the
// twin asset is enabled; hook may be nil.
func New(cfg Config, verifier Verifier, vault Vault, mint TwinMint, hook Hook) (*Pool, error) {
	cfg.applyDefaults()
	if cfg.FeeBps > types.MaxBps {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFee, cfg.FeeBps)
	}
	if cfg.Twin.Enabled() && mint == nil {
		return nil, ErrMissingTwinMint
	}
	t, err := tree.New(cfg.TreeDepth, cfg.CanopyDepth)
	if err != nil {
		return nil, err
	}
	n, err := nullifier.New(cfg.NullifierCapacity)
	if err != nil {
		return nil, err
	}
	p := &Pool{
		cfg:        cfg,
		verifier:   verifier,
		vault:      vault,
		mint:       mint,
		hook:       hook,
		tree:       t,
		nullifiers: n,
		ledger:     ledger.New(),
		window:     newRootWindow(t.EmptyRoot()),
	}
	log.Infow("pool created",
		"originAsset", cfg.OriginAsset.Hex(),
		"poolID", cfg.PoolID.Hex(),
		"feeBps", cfg.FeeBps,
		"features", cfg.Features.String(),
		"twin", cfg.Twin.Enabled(),
		"emptyRoot", t.EmptyRoot().Hex())
	return p, nil
}

// ShieldRequest moves public value into a fresh shielded note.
type ShieldRequest struct {
	Amount          uint64
	Commitment      types.Hash32
	ValueCommitment types.Hash32
	Depositor       types.Account
	Proof           []byte
}

// ShieldReceipt reports the result of a shield.
type ShieldReceipt struct {
	Commitment types.Hash32
	LeafIndex  uint64
	NewRoot    types.Hash32
	NoteValue  uint64
	FeeCharged uint64
	// Statement is the poseidon digest of the verified public-input vector.
	Statement types.Hash32
}

// Shield verifies the deposit proof, custodies the full amount in the vault
// and inserts one commitment. The note is worth amount minus fee; the fee
// accrues to the protocol.
func (p *Pool) Shield(req ShieldRequest) (*ShieldReceipt, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.halted {
		return nil, ErrPoolHalted
	}
	if req.Amount == 0 {
		return nil, ErrInvalidAmount
	}
	fee := CalculateFee(req.Amount, p.cfg.FeeBps)
	noteValue := req.Amount - fee

	inputs := encodeShieldInputs(req.Commitment, req.ValueCommitment,
		req.Amount, req.Depositor, p.cfg.OriginAsset, p.cfg.PoolID)
	if err := p.verifier.Verify(p.cfg.ShieldKeyID, req.Proof, inputs); err != nil {
		return nil, fmt.Errorf("shield proof: %w", err)
	}
	statement, err := statementDigest(inputs)
	if err != nil {
		return nil, err
	}

	t := p.tree.Clone()
	l := p.ledger.Clone()
	w := p.window.Clone()
	newRoot, index, err := t.InsertLeaf(req.Commitment, req.ValueCommitment)
	if err != nil {
		return nil, err
	}
	if err := l.RecordShield(noteValue, req.ValueCommitment); err != nil {
		return nil, err
	}
	w.Push(newRoot)
	fees, ok := add64(p.protocolFees, fee)
	if !ok {
		return nil, ErrAmountOverflow
	}

	if err := p.vault.Deposit(req.Amount); err != nil {
		return nil, fmt.Errorf("vault deposit: %w", err)
	}
	if err := p.checkInvariant(l, fees); err != nil {
		return nil, err
	}
	p.tree, p.ledger, p.window, p.protocolFees = t, l, w, fees

	log.Infow("shield committed",
		"poolID", p.cfg.PoolID.Hex(),
		"amount", req.Amount,
		"noteValue", noteValue,
		"fee", fee,
		"leafIndex", index,
		"newRoot", newRoot.Hex(),
		"statement", statement.Hex())
	p.notifyPostShield(req)
	return &ShieldReceipt{
		Commitment: req.Commitment,
		LeafIndex:  index,
		NewRoot:    newRoot,
		NoteValue:  noteValue,
		FeeCharged: fee,
		Statement:  statement,
	}, nil
}

// TransferRequest spends notes and creates new ones fully inside the pool.
type TransferRequest struct {
	Nullifiers             []types.Hash32
	OutputCommitments      []types.Hash32
	OutputValueCommitments []types.Hash32
	OldRoot                types.Hash32
	// NewRoot is optional; when non-zero it must match the recomputed root.
	NewRoot types.Hash32
	Proof   []byte
}

// TransferReceipt reports the result of a private transfer.
type TransferReceipt struct {
	NewRoot     types.Hash32
	LeafIndices []uint64
	// Statement is the poseidon digest of the verified public-input vector.
	Statement types.Hash32
}

// PrivateTransfer atomically consumes the request nullifiers and appends the
// output commitments. The pool's live value is unchanged; conservation of the
// hidden amounts is what the proof asserts.
func (p *Pool) PrivateTransfer(req TransferRequest) (*TransferReceipt, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.halted {
		return nil, ErrPoolHalted
	}
	if !p.cfg.Features.Contains(types.FeaturePrivateTransfer) {
		return nil, fmt.Errorf("%w: private transfer", ErrFeatureDisabled)
	}
	if !p.window.Known(req.OldRoot) {
		return nil, fmt.Errorf("%w: %s", ErrRootUnknown, req.OldRoot.Hex())
	}

	t := p.tree.Clone()
	n := p.nullifiers.Clone()
	l := p.ledger.Clone()
	w := p.window.Clone()
	for _, nf := range req.Nullifiers {
		if err := n.Insert(nf); err != nil {
			return nil, fmt.Errorf("nullifier %s: %w", nf.Hex(), err)
		}
	}
	newRoot, indices, err := t.InsertMany(req.OutputCommitments, req.OutputValueCommitments)
	if err != nil {
		return nil, err
	}
	if !req.NewRoot.IsZero() && req.NewRoot != newRoot {
		return nil, fmt.Errorf("%w: proposed %s, computed %s",
			ErrRootMismatch, req.NewRoot.Hex(), newRoot.Hex())
	}

	inputs := encodeTransferInputs(req.OldRoot, newRoot, req.Nullifiers,
		req.OutputCommitments, req.OutputValueCommitments,
		p.cfg.OriginAsset, p.cfg.PoolID)
	if err := p.verifier.Verify(p.cfg.TransferKeyID, req.Proof, inputs); err != nil {
		return nil, fmt.Errorf("transfer proof: %w", err)
	}
	statement, err := statementDigest(inputs)
	if err != nil {
		return nil, err
	}
	if err := l.RecordTransfer(req.Nullifiers, req.OutputValueCommitments); err != nil {
		return nil, err
	}
	if newRoot != p.window.Current() {
		w.Push(newRoot)
	}

	if err := p.checkInvariant(l, p.protocolFees); err != nil {
		return nil, err
	}
	p.tree, p.nullifiers, p.ledger, p.window = t, n, l, w

	log.Infow("private transfer committed",
		"poolID", p.cfg.PoolID.Hex(),
		"nullifiers", len(req.Nullifiers),
		"outputs", len(req.OutputCommitments),
		"newRoot", newRoot.Hex(),
		"statement", statement.Hex())
	return &TransferReceipt{NewRoot: newRoot, LeafIndices: indices, Statement: statement}, nil
}

// UnshieldRequest moves shielded value back into the open, either as the
// origin asset or the twin asset.
type UnshieldRequest struct {
	Amount                 uint64
	Nullifiers             []types.Hash32
	ChangeCommitments      []types.Hash32
	ChangeValueCommitments []types.Hash32
	OldRoot                types.Hash32
	// NewRoot is optional; when non-zero it must match the recomputed root.
	NewRoot     types.Hash32
	Destination types.Account
	Proof       []byte
}

// UnshieldReceipt reports the result of an unshield.
type UnshieldReceipt struct {
	Destination    types.Account
	AmountReleased uint64
	FeeCharged     uint64
	Mode           UnshieldMode
	NewRoot        types.Hash32
	LeafIndices    []uint64
	// Statement is the poseidon digest of the verified public-input vector.
	Statement types.Hash32
}

// UnshieldToOrigin redeems shielded value as the origin asset, released from
// the vault to the destination.
func (p *Pool) UnshieldToOrigin(req UnshieldRequest) (*UnshieldReceipt, error) {
	return p.unshield(req, ModeOrigin)
}

// UnshieldToTwin redeems shielded value as freshly minted twin asset; the
// vault keeps custody of the backing value.
func (p *Pool) UnshieldToTwin(req UnshieldRequest) (*UnshieldReceipt, error) {
	return p.unshield(req, ModeTwin)
}

func (p *Pool) unshield(req UnshieldRequest, mode UnshieldMode) (*UnshieldReceipt, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.halted {
		return nil, ErrPoolHalted
	}
	if mode == ModeTwin && !p.cfg.Twin.Enabled() {
		return nil, ErrTwinDisabled
	}
	if req.Amount == 0 {
		return nil, ErrInvalidAmount
	}
	fee := CalculateFee(req.Amount, p.cfg.FeeBps)
	totalSpent, ok := add64(req.Amount, fee)
	if !ok {
		return nil, ErrAmountOverflow
	}
	if !p.window.Known(req.OldRoot) {
		return nil, fmt.Errorf("%w: %s", ErrRootUnknown, req.OldRoot.Hex())
	}
	if err := p.ledger.EnsureCapacity(totalSpent); err != nil {
		return nil, err
	}

	t := p.tree.Clone()
	n := p.nullifiers.Clone()
	l := p.ledger.Clone()
	w := p.window.Clone()
	for _, nf := range req.Nullifiers {
		if err := n.Insert(nf); err != nil {
			return nil, fmt.Errorf("nullifier %s: %w", nf.Hex(), err)
		}
	}
	newRoot, indices, err := t.InsertMany(req.ChangeCommitments, req.ChangeValueCommitments)
	if err != nil {
		return nil, err
	}
	if !req.NewRoot.IsZero() && req.NewRoot != newRoot {
		return nil, fmt.Errorf("%w: proposed %s, computed %s",
			ErrRootMismatch, req.NewRoot.Hex(), newRoot.Hex())
	}

	inputs := encodeUnshieldInputs(req.OldRoot, newRoot, req.Nullifiers,
		req.ChangeCommitments, req.ChangeValueCommitments,
		req.Amount, fee, req.Destination, mode,
		p.cfg.OriginAsset, p.cfg.PoolID)
	if err := p.verifier.Verify(p.cfg.UnshieldKeyID, req.Proof, inputs); err != nil {
		return nil, fmt.Errorf("unshield proof: %w", err)
	}
	statement, err := statementDigest(inputs)
	if err != nil {
		return nil, err
	}
	if err := l.RecordUnshield(totalSpent, req.Nullifiers, req.ChangeValueCommitments); err != nil {
		return nil, err
	}
	if newRoot != p.window.Current() {
		w.Push(newRoot)
	}
	fees, ok := add64(p.protocolFees, fee)
	if !ok {
		return nil, ErrAmountOverflow
	}

	switch mode {
	case ModeTwin:
		if err := p.mint.Mint(req.Amount); err != nil {
			return nil, fmt.Errorf("twin mint: %w", err)
		}
	default:
		if err := p.vault.Release(p.cfg.Authority, req.Amount); err != nil {
			return nil, fmt.Errorf("vault release: %w", err)
		}
	}
	if err := p.checkInvariant(l, fees); err != nil {
		return nil, err
	}
	p.tree, p.nullifiers, p.ledger, p.window, p.protocolFees = t, n, l, w, fees

	log.Infow("unshield committed",
		"poolID", p.cfg.PoolID.Hex(),
		"mode", mode.String(),
		"amount", req.Amount,
		"fee", fee,
		"destination", req.Destination.Hex(),
		"nullifiers", len(req.Nullifiers),
		"change", len(req.ChangeCommitments),
		"newRoot", newRoot.Hex(),
		"statement", statement.Hex())
	p.notifyPostUnshield(req, mode, fee)
	return &UnshieldReceipt{
		Destination:    req.Destination,
		AmountReleased: req.Amount,
		FeeCharged:     fee,
		Mode:           mode,
		NewRoot:        newRoot,
		LeafIndices:    indices,
		Statement:      statement,
	}, nil
}

// ConfigureHooks installs or replaces the hook configuration. Requires the
// hooks feature bit.
func (p *Pool) ConfigureHooks(cfg hooks.Config) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.cfg.Features.Contains(types.FeatureHooks) {
		return fmt.Errorf("%w: hooks", ErrFeatureDisabled)
	}
	p.hookCfg = cfg.Clone()
	log.Infow("hooks configured",
		"poolID", p.cfg.PoolID.Hex(),
		"postShield", cfg.PostShieldTarget.Hex(),
		"postUnshield", cfg.PostUnshieldTarget.Hex(),
		"mode", cfg.Mode.String())
	return nil
}

func (p *Pool) notifyPostShield(req ShieldRequest) {
	if p.hook == nil || p.hookCfg == nil || p.hookCfg.PostShieldTarget.IsZero() {
		return
	}
	payload := (&hooks.PostShield{
		OriginAsset:     p.cfg.OriginAsset,
		Pool:            p.cfg.PoolID,
		Depositor:       req.Depositor,
		Commitment:      req.Commitment,
		ValueCommitment: req.ValueCommitment,
		Amount:          req.Amount,
	}).Encode()
	if err := p.hook.Notify(p.hookCfg.PostShieldTarget, p.hookCfg.RequiredAccounts, payload); err != nil {
		log.Warnw("post-shield hook failed",
			"target", p.hookCfg.PostShieldTarget.Hex(), "error", err.Error())
	}
}

func (p *Pool) notifyPostUnshield(req UnshieldRequest, mode UnshieldMode, fee uint64) {
	if p.hook == nil || p.hookCfg == nil || p.hookCfg.PostUnshieldTarget.IsZero() {
		return
	}
	payload := (&hooks.PostUnshield{
		OriginAsset: p.cfg.OriginAsset,
		Pool:        p.cfg.PoolID,
		Destination: req.Destination,
		Mode:        uint8(mode),
		Amount:      req.Amount,
		Fee:         fee,
	}).Encode()
	if err := p.hook.Notify(p.hookCfg.PostUnshieldTarget, p.hookCfg.RequiredAccounts, payload); err != nil {
		log.Warnw("post-unshield hook failed",
			"target", p.hookCfg.PostUnshieldTarget.Hex(), "error", err.Error())
	}
}

// checkInvariant verifies vault balance == twin supply + live value +
// protocol fees, with 256-bit arithmetic on the right-hand side. A breach
// halts the pool.
func (p *Pool) checkInvariant(l *ledger.Ledger, fees uint64) error {
	var twinSupply uint64
	if p.mint != nil {
		twinSupply = p.mint.Supply()
	}
	expected := new(big.Int).SetUint64(twinSupply)
	expected.Add(expected, new(big.Int).SetUint64(l.LiveValue()))
	expected.Add(expected, new(big.Int).SetUint64(fees))
	vaultBalance := p.vault.Balance()
	if expected.Cmp(new(big.Int).SetUint64(vaultBalance)) != 0 {
		p.halted = true
		log.Warnw("conservation invariant breached, pool halted",
			"poolID", p.cfg.PoolID.Hex(),
			"vaultBalance", vaultBalance,
			"twinSupply", twinSupply,
			"liveValue", l.LiveValue(),
			"protocolFees", fees)
		return fmt.Errorf("%w: vault %d != twin %d + live %d + fees %d",
			ErrInvariantBreach, vaultBalance, twinSupply, l.LiveValue(), fees)
	}
	return nil
}

// Root returns the current accumulator root.
func (p *Pool) Root() types.Hash32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.window.Current()
}

// KnownRoot reports whether r anchors within the recent-root window.
func (p *Pool) KnownRoot(r types.Hash32) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.window.Known(r)
}

// ProtocolFees returns the accrued protocol fees.
func (p *Pool) ProtocolFees() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.protocolFees
}

// Halted reports whether the pool stopped after an invariant breach.
func (p *Pool) Halted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.halted
}

// Config returns a copy of the pool configuration.
func (p *Pool) Config() Config {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cfg
}

// Tree returns a snapshot of the commitment accumulator.
func (p *Pool) Tree() *tree.Tree {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.tree.Clone()
}

// Nullifiers returns a snapshot of the nullifier registry.
func (p *Pool) Nullifiers() *nullifier.Registry {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.nullifiers.Clone()
}

// Ledger returns a snapshot of the value ledger.
func (p *Pool) Ledger() *ledger.Ledger {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ledger.Clone()
}

func add64(a, b uint64) (uint64, bool) {
	sum := a + b
	return sum, sum >= a
}
