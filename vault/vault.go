// Package vault implements the custody collaborators of a shielded pool: the
// vault holding deposited origin-asset value and the twin-asset mint. Both
// expose the balances the pool's invariant checker reads back after every
// mutating operation.
package vault

import (
	"fmt"

	"github.com/vocdoni/shielded-pool/types"
)

var (
	// ErrUnauthorized is returned when a release is requested by an account
	// other than the vault authority.
	ErrUnauthorized = fmt.Errorf("unauthorized release caller")
	// ErrInsufficientBalance is returned when a release exceeds the balance.
	ErrInsufficientBalance = fmt.Errorf("insufficient vault balance")
	// ErrZeroDeposit is returned for zero-amount deposits.
	ErrZeroDeposit = fmt.Errorf("deposit amount must be positive")
	// ErrBalanceOverflow is returned when a deposit or mint would overflow.
	ErrBalanceOverflow = fmt.Errorf("balance overflow")
)

// Vault custodies deposited value for a single origin asset. Releases are
// gated on the pool authority.
type Vault struct {
	originAsset types.Account
	authority   types.Account
	balance     uint64
}

// New creates an empty vault bound to an origin asset and a pool authority.
func New(originAsset, authority types.Account) *Vault {
	return &Vault{originAsset: originAsset, authority: authority}
}

// OriginAsset returns the asset this vault custodies.
func (v *Vault) OriginAsset() types.Account { return v.originAsset }

// Balance returns the custodied balance.
func (v *Vault) Balance() uint64 { return v.balance }

// Deposit adds amount to the vault.
func (v *Vault) Deposit(amount uint64) error {
	if amount == 0 {
		return ErrZeroDeposit
	}
	balance := v.balance + amount
	if balance < v.balance {
		return ErrBalanceOverflow
	}
	v.balance = balance
	return nil
}

// Release pays out amount; only the bound authority may call it.
func (v *Vault) Release(caller types.Account, amount uint64) error {
	if caller != v.authority {
		return ErrUnauthorized
	}
	if v.balance < amount {
		return ErrInsufficientBalance
	}
	v.balance -= amount
	return nil
}

// SetAuthority rebinds the release authority (governance migration path).
func (v *Vault) SetAuthority(authority types.Account) {
	v.authority = authority
}
