package vault

import (
	"fmt"

	"github.com/vocdoni/shielded-pool/types"
)

// ErrInsufficientSupply is returned when a burn exceeds the twin supply.
var ErrInsufficientSupply = fmt.Errorf("insufficient twin supply")

// Mint tracks the supply of a twin asset: the openly-transferable token that
// represents the same economic value as shielded notes.
type Mint struct {
	asset  types.Account
	supply uint64
}

// NewMint creates a twin mint with zero supply.
func NewMint(asset types.Account) *Mint {
	return &Mint{asset: asset}
}

// Asset returns the twin asset identifier.
func (m *Mint) Asset() types.Account { return m.asset }

// Supply returns the current twin supply.
func (m *Mint) Supply() uint64 { return m.supply }

// Mint issues amount new twin tokens.
func (m *Mint) Mint(amount uint64) error {
	supply := m.supply + amount
	if supply < m.supply {
		return ErrBalanceOverflow
	}
	m.supply = supply
	return nil
}

// Burn retires amount twin tokens, the reverse leg of a twin redemption.
func (m *Mint) Burn(amount uint64) error {
	if m.supply < amount {
		return ErrInsufficientSupply
	}
	m.supply -= amount
	return nil
}
