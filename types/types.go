package types

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/vocdoni/shielded-pool/util"
)

// Hash32 is a raw 32-byte hash or field-element output. It is stored and
// persisted big-endian with no additional framing.
type Hash32 [32]byte

// Account identifies an external program or actor (vault, mint, hook target,
// destination). The zero value means "absent".
type Account = Hash32

// Bytes returns the hash as a byte slice.
func (h Hash32) Bytes() []byte {
	return h[:]
}

// Hex returns the 0x-prefixed hexadecimal representation.
func (h Hash32) Hex() string {
	return hexutil.Encode(h[:])
}

// String implements fmt.Stringer.
func (h Hash32) String() string {
	return h.Hex()
}

// IsZero reports whether all bytes are zero.
func (h Hash32) IsZero() bool {
	return h == Hash32{}
}

// Big interprets the hash as a big-endian unsigned integer.
func (h Hash32) Big() *big.Int {
	return new(big.Int).SetBytes(h[:])
}

// SetBytes copies b into the hash, left-padding with zeros. It fails if b is
// longer than 32 bytes.
func (h *Hash32) SetBytes(b []byte) error {
	if len(b) > 32 {
		return fmt.Errorf("cannot set %d bytes into a 32-byte hash", len(b))
	}
	*h = Hash32{}
	copy(h[32-len(b):], b)
	return nil
}

// Hash32FromBig returns the big-endian representation of v. It fails if v is
// negative or does not fit in 32 bytes.
func Hash32FromBig(v *big.Int) (Hash32, error) {
	if v.Sign() < 0 || v.BitLen() > 256 {
		return Hash32{}, fmt.Errorf("value %s out of range for a 32-byte hash", v.String())
	}
	var h Hash32
	v.FillBytes(h[:])
	return h, nil
}

// Hash32FromUint64 returns the big-endian 32-byte representation of v.
func Hash32FromUint64(v uint64) Hash32 {
	var h Hash32
	binary.BigEndian.PutUint64(h[24:], v)
	return h
}

// MarshalText implements encoding.TextMarshaler using 0x-prefixed hex.
func (h Hash32) MarshalText() ([]byte, error) {
	return []byte(h.Hex()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash32) UnmarshalText(text []byte) error {
	b, err := hexutil.Decode(string(text))
	if err != nil {
		return err
	}
	if len(b) != 32 {
		return fmt.Errorf("expected 32 bytes, got %d", len(b))
	}
	copy(h[:], b)
	return nil
}

// HexBytes is a byte slice that marshals to and from 0x-prefixed hex in JSON.
type HexBytes []byte

func (b HexBytes) String() string {
	return hexutil.Encode(b)
}

// MarshalJSON implements json.Marshaler.
func (b HexBytes) MarshalJSON() ([]byte, error) {
	return []byte(`"` + hexutil.Encode(b) + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler. It accepts both 0x-prefixed and
// bare hexadecimal strings.
func (b *HexBytes) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	decoded, err := hexutil.Decode("0x" + util.TrimHex(string(data)))
	if err != nil {
		return err
	}
	*b = decoded
	return nil
}
