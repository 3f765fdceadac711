package pool

import "github.com/vocdoni/shielded-pool/types"

// TwinAsset is the optional twin-asset binding of a pool. A disabled twin
// rejects UnshieldToTwin; an enabled one names the openly-transferable asset
// minted on twin redemptions.
type TwinAsset struct {
	enabled bool
	asset   types.Account
}

// TwinDisabled returns the disabled twin binding.
func TwinDisabled() TwinAsset { return TwinAsset{} }

// TwinEnabled returns a twin binding for asset.
func TwinEnabled(asset types.Account) TwinAsset {
	return TwinAsset{enabled: true, asset: asset}
}

// Enabled reports whether the pool has a twin asset.
func (t TwinAsset) Enabled() bool { return t.enabled }

// Asset returns the twin asset identifier; zero when disabled.
func (t TwinAsset) Asset() types.Account { return t.asset }
