// Package governance implements the administrative registry of a shielded
// pool deployment: the mapping from origin assets to their pool configuration
// and the authority-gated lifecycle operations over it.
package governance

import (
	"fmt"
	"sync"

	"go.vocdoni.io/dvote/log"

	"github.com/vocdoni/shielded-pool/types"
)

var (
	// ErrUnauthorized is returned when a mutation is requested by an account
	// other than the registry authority.
	ErrUnauthorized = fmt.Errorf("unauthorized governance caller")
	// ErrAssetExists is returned when registering an already-known asset.
	ErrAssetExists = fmt.Errorf("asset already registered")
	// ErrAssetUnknown is returned when operating on an unregistered asset.
	ErrAssetUnknown = fmt.Errorf("asset not registered")
	// ErrInvalidFee is returned when a fee exceeds the basis-point ceiling.
	ErrInvalidFee = fmt.Errorf("fee exceeds maximum basis points")
	// ErrRegistryPaused is returned when the registry is globally paused.
	ErrRegistryPaused = fmt.Errorf("registry paused")
)

// Mapping is the registered configuration of one origin asset.
type Mapping struct {
	TwinMint types.Account
	Active   bool
	Decimals uint8
	FeeBps   uint16
	Features types.FeatureFlags
}

// Registry maps origin assets to pool mappings. All mutations require the
// authority; reads are unrestricted. Safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	authority types.Account
	paused    bool
	assets    map[types.Account]*Mapping
}

// New creates an empty registry owned by authority.
func New(authority types.Account) *Registry {
	return &Registry{
		authority: authority,
		assets:    make(map[types.Account]*Mapping),
	}
}

func (r *Registry) authorize(caller types.Account) error {
	if caller != r.authority {
		return ErrUnauthorized
	}
	return nil
}

// RegisterAsset adds a new origin asset with its twin mint and initial
// configuration. The mapping starts active.
func (r *Registry) RegisterAsset(caller, origin, twinMint types.Account,
	decimals uint8, feeBps uint16, features types.FeatureFlags) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.authorize(caller); err != nil {
		return err
	}
	if r.paused {
		return ErrRegistryPaused
	}
	if feeBps > types.MaxBps {
		return fmt.Errorf("%w: %d", ErrInvalidFee, feeBps)
	}
	if _, ok := r.assets[origin]; ok {
		return fmt.Errorf("%w: %s", ErrAssetExists, origin.Hex())
	}
	r.assets[origin] = &Mapping{
		TwinMint: twinMint,
		Active:   true,
		Decimals: decimals,
		FeeBps:   feeBps,
		Features: features,
	}
	log.Infow("asset registered", "origin", origin.Hex(),
		"twinMint", twinMint.Hex(), "feeBps", feeBps, "features", features.String())
	return nil
}

// UpdateAsset rewrites the fee and feature configuration of an asset.
func (r *Registry) UpdateAsset(caller, origin types.Account,
	feeBps uint16, features types.FeatureFlags) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.authorize(caller); err != nil {
		return err
	}
	if feeBps > types.MaxBps {
		return fmt.Errorf("%w: %d", ErrInvalidFee, feeBps)
	}
	m, ok := r.assets[origin]
	if !ok {
		return fmt.Errorf("%w: %s", ErrAssetUnknown, origin.Hex())
	}
	m.FeeBps = feeBps
	m.Features = features
	log.Infow("asset updated", "origin", origin.Hex(),
		"feeBps", feeBps, "features", features.String())
	return nil
}

// Freeze deactivates an asset mapping. Frozen assets stay registered but
// report inactive until thawed.
func (r *Registry) Freeze(caller, origin types.Account) error {
	return r.setActive(caller, origin, false)
}

// Thaw reactivates a frozen asset mapping.
func (r *Registry) Thaw(caller, origin types.Account) error {
	return r.setActive(caller, origin, true)
}

func (r *Registry) setActive(caller, origin types.Account, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.authorize(caller); err != nil {
		return err
	}
	m, ok := r.assets[origin]
	if !ok {
		return fmt.Errorf("%w: %s", ErrAssetUnknown, origin.Hex())
	}
	m.Active = active
	log.Infow("asset active flag changed", "origin", origin.Hex(), "active", active)
	return nil
}

// Pause stops all new registrations until Unpause. Existing mappings keep
// serving lookups.
func (r *Registry) Pause(caller types.Account) error {
	return r.setPaused(caller, true)
}

// Unpause lifts a global pause.
func (r *Registry) Unpause(caller types.Account) error {
	return r.setPaused(caller, false)
}

func (r *Registry) setPaused(caller types.Account, paused bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.authorize(caller); err != nil {
		return err
	}
	r.paused = paused
	log.Infow("registry pause flag changed", "paused", paused)
	return nil
}

// Paused reports whether the registry is globally paused.
func (r *Registry) Paused() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.paused
}

// Lookup returns a copy of the mapping for origin.
func (r *Registry) Lookup(origin types.Account) (Mapping, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.assets[origin]
	if !ok {
		return Mapping{}, fmt.Errorf("%w: %s", ErrAssetUnknown, origin.Hex())
	}
	return *m, nil
}

// Assets returns the registered origin asset identifiers, in no particular
// order.
func (r *Registry) Assets() []types.Account {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.Account, 0, len(r.assets))
	for a := range r.assets {
		out = append(out, a)
	}
	return out
}
