package pool

import "fmt"

var (
	// ErrInvalidFee is returned by New when the configured fee exceeds the
	// basis-point ceiling.
	ErrInvalidFee = fmt.Errorf("fee exceeds maximum basis points")
	// ErrInvalidAmount is returned for zero-amount operations.
	ErrInvalidAmount = fmt.Errorf("amount must be positive")
	// ErrFeatureDisabled is returned when an operation requires a feature bit
	// the pool was not configured with.
	ErrFeatureDisabled = fmt.Errorf("feature disabled for this pool")
	// ErrTwinDisabled is returned by UnshieldToTwin on a pool without a twin
	// asset.
	ErrTwinDisabled = fmt.Errorf("twin asset disabled for this pool")
	// ErrMissingTwinMint is returned by New when the twin asset is enabled but
	// no mint capability is provided.
	ErrMissingTwinMint = fmt.Errorf("twin asset enabled but no mint provided")
	// ErrRootUnknown is returned when the anchor root of a request is neither
	// the current root nor in the recent-root window.
	ErrRootUnknown = fmt.Errorf("anchor root not in recent window")
	// ErrRootMismatch is returned when the root proposed by a request differs
	// from the root recomputed from its outputs.
	ErrRootMismatch = fmt.Errorf("proposed root does not match recomputed root")
	// ErrAmountOverflow is returned when amount plus fee overflows uint64.
	ErrAmountOverflow = fmt.Errorf("amount overflow")
	// ErrInvariantBreach is returned when the conservation check fails after a
	// mutation. The pool halts.
	ErrInvariantBreach = fmt.Errorf("value conservation invariant breached")
	// ErrPoolHalted is returned by every mutating operation after a breach.
	ErrPoolHalted = fmt.Errorf("pool halted after invariant breach")
)
