package types

import "fmt"

// FeatureFlags is a bit field of per-pool feature toggles. Flag values are
// owned by governance; the pool only reads them.
type FeatureFlags uint8

const (
	// FeaturePrivateTransfer enables in-pool private transfers.
	FeaturePrivateTransfer FeatureFlags = 0x01
	// FeatureHooks enables post-operation hook dispatch.
	FeatureHooks FeatureFlags = 0x02
)

// Contains reports whether all bits in other are set in f.
func (f FeatureFlags) Contains(other FeatureFlags) bool {
	return f&other == other
}

// Insert sets the provided flag bits.
func (f *FeatureFlags) Insert(other FeatureFlags) {
	*f |= other
}

// Remove clears the provided flag bits.
func (f *FeatureFlags) Remove(other FeatureFlags) {
	*f &^= other
}

func (f FeatureFlags) String() string {
	return fmt.Sprintf("0x%02x", uint8(f))
}
