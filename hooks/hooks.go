// Package hooks models post-operation notifications to third-party programs:
// the hook configuration a pool carries, the account-set matching rules
// applied before dispatch, and the fixed payloads handed to hook targets.
package hooks

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/vocdoni/shielded-pool/types"
)

var (
	// ErrAccountMismatch is returned in Strict mode when the provided
	// account set does not equal the required set.
	ErrAccountMismatch = fmt.Errorf("hook account set mismatch")
	// ErrAccountMissing is returned in Lenient mode when a required account
	// is not provided.
	ErrAccountMissing = fmt.Errorf("required hook account missing")
)

// MatchMode selects how the provided account set is checked against the
// required set before a hook call.
type MatchMode uint8

const (
	// Strict requires the provided set to equal the required set exactly,
	// order-independent.
	Strict MatchMode = iota
	// Lenient requires the provided set to be a superset of the required set.
	Lenient
)

func (m MatchMode) String() string {
	switch m {
	case Strict:
		return "strict"
	case Lenient:
		return "lenient"
	default:
		return fmt.Sprintf("matchmode(%d)", uint8(m))
	}
}

// Config is the hook configuration of a pool. A zero target identifier
// disables the corresponding hook even when the hooks feature bit is set.
type Config struct {
	PostShieldTarget   types.Account
	PostUnshieldTarget types.Account
	RequiredAccounts   []types.Account
	Mode               MatchMode
}

// Present reports whether at least one hook target is configured.
func (c *Config) Present() bool {
	return !c.PostShieldTarget.IsZero() || !c.PostUnshieldTarget.IsZero()
}

// ValidateAccounts checks the provided account set against the required set
// using the configured matching mode. Both sets are treated as sets:
// duplicates and ordering are ignored.
func (c *Config) ValidateAccounts(provided []types.Account) error {
	have := make(map[types.Account]struct{}, len(provided))
	for _, a := range provided {
		have[a] = struct{}{}
	}
	required := make(map[types.Account]struct{}, len(c.RequiredAccounts))
	for _, a := range c.RequiredAccounts {
		required[a] = struct{}{}
	}
	for a := range required {
		if _, ok := have[a]; !ok {
			if c.Mode == Strict {
				return fmt.Errorf("%w: %s", ErrAccountMismatch, a.Hex())
			}
			return fmt.Errorf("%w: %s", ErrAccountMissing, a.Hex())
		}
	}
	if c.Mode == Strict {
		for a := range have {
			if _, ok := required[a]; !ok {
				return fmt.Errorf("%w: unexpected %s", ErrAccountMismatch, a.Hex())
			}
		}
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.RequiredAccounts = append([]types.Account(nil), c.RequiredAccounts...)
	return &clone
}

// Payload discriminants, the first byte of every hook payload.
const (
	PayloadPostShield   byte = 0x00
	PayloadPostUnshield byte = 0x01
)

// PostShield is the payload dispatched after a successful shield. It carries
// only data already public in the shield event.
type PostShield struct {
	OriginAsset     types.Account
	Pool            types.Account
	Depositor       types.Account
	Commitment      types.Hash32
	ValueCommitment types.Hash32
	Amount          uint64
}

// Encode serializes the payload with its discriminant byte.
func (p *PostShield) Encode() []byte {
	buf := new(bytes.Buffer)
	buf.WriteByte(PayloadPostShield)
	buf.Write(p.OriginAsset[:])
	buf.Write(p.Pool[:])
	buf.Write(p.Depositor[:])
	buf.Write(p.Commitment[:])
	buf.Write(p.ValueCommitment[:])
	binary.Write(buf, binary.BigEndian, p.Amount) //nolint:errcheck
	return buf.Bytes()
}

// DecodePostShield parses a post-shield payload.
func DecodePostShield(data []byte) (*PostShield, error) {
	if len(data) != 1+5*32+8 || data[0] != PayloadPostShield {
		return nil, fmt.Errorf("malformed post-shield payload")
	}
	p := &PostShield{}
	copy(p.OriginAsset[:], data[1:])
	copy(p.Pool[:], data[33:])
	copy(p.Depositor[:], data[65:])
	copy(p.Commitment[:], data[97:])
	copy(p.ValueCommitment[:], data[129:])
	p.Amount = binary.BigEndian.Uint64(data[161:])
	return p, nil
}

// PostUnshield is the payload dispatched after a successful unshield.
type PostUnshield struct {
	OriginAsset types.Account
	Pool        types.Account
	Destination types.Account
	Mode        uint8
	Amount      uint64
	Fee         uint64
}

// Encode serializes the payload with its discriminant byte.
func (p *PostUnshield) Encode() []byte {
	buf := new(bytes.Buffer)
	buf.WriteByte(PayloadPostUnshield)
	buf.Write(p.OriginAsset[:])
	buf.Write(p.Pool[:])
	buf.Write(p.Destination[:])
	buf.WriteByte(p.Mode)
	binary.Write(buf, binary.BigEndian, p.Amount) //nolint:errcheck
	binary.Write(buf, binary.BigEndian, p.Fee)    //nolint:errcheck
	return buf.Bytes()
}

// DecodePostUnshield parses a post-unshield payload.
func DecodePostUnshield(data []byte) (*PostUnshield, error) {
	if len(data) != 1+3*32+1+16 || data[0] != PayloadPostUnshield {
		return nil, fmt.Errorf("malformed post-unshield payload")
	}
	p := &PostUnshield{}
	copy(p.OriginAsset[:], data[1:])
	copy(p.Pool[:], data[33:])
	copy(p.Destination[:], data[65:])
	p.Mode = data[97]
	p.Amount = binary.BigEndian.Uint64(data[98:])
	p.Fee = binary.BigEndian.Uint64(data[106:])
	return p, nil
}
