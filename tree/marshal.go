package tree

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/vocdoni/shielded-pool/types"
)

// Binary record layout (big-endian, no framing):
//
//	u8 depth | u8 canopyDepth | u64 nextIndex | root[32] |
//	frontier[depth][32] | canopy[2^(canopyDepth+1)-2][32] |
//	recent ring: RecentLeavesSize x (u64 index | commitment[32] | valueCommitment[32])
//
// The zero-hash table is deterministic and recomputed on load.

// MarshalBinary implements encoding.BinaryMarshaler.
func (t *Tree) MarshalBinary() ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.WriteByte(byte(t.depth))
	buf.WriteByte(byte(t.canopyDepth))
	if err := binary.Write(buf, binary.BigEndian, t.nextIndex); err != nil {
		return nil, err
	}
	buf.Write(t.root[:])
	for _, h := range t.frontier {
		buf.Write(h[:])
	}
	for _, h := range t.canopy {
		buf.Write(h[:])
	}
	for _, leaf := range t.recent {
		if err := binary.Write(buf, binary.BigEndian, leaf.Index); err != nil {
			return nil, err
		}
		buf.Write(leaf.Commitment[:])
		buf.Write(leaf.ValueCommitment[:])
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (t *Tree) UnmarshalBinary(data []byte) error {
	if len(data) < 2 {
		return fmt.Errorf("tree record too short")
	}
	depth := int(data[0])
	canopyDepth := int(data[1])
	fresh, err := New(depth, canopyDepth)
	if err != nil {
		return err
	}
	want := 2 + 8 + 32 + depth*32 + canopySize(canopyDepth)*32 +
		types.RecentLeavesSize*(8+32+32)
	if len(data) != want {
		return fmt.Errorf("tree record has %d bytes, expected %d", len(data), want)
	}
	r := bytes.NewReader(data[2:])
	if err := binary.Read(r, binary.BigEndian, &fresh.nextIndex); err != nil {
		return err
	}
	readHash := func(h *types.Hash32) error {
		_, err := io.ReadFull(r, h[:])
		return err
	}
	if err := readHash(&fresh.root); err != nil {
		return err
	}
	for i := range fresh.frontier {
		if err := readHash(&fresh.frontier[i]); err != nil {
			return err
		}
	}
	for i := range fresh.canopy {
		if err := readHash(&fresh.canopy[i]); err != nil {
			return err
		}
	}
	for i := range fresh.recent {
		if err := binary.Read(r, binary.BigEndian, &fresh.recent[i].Index); err != nil {
			return err
		}
		if err := readHash(&fresh.recent[i].Commitment); err != nil {
			return err
		}
		if err := readHash(&fresh.recent[i].ValueCommitment); err != nil {
			return err
		}
	}
	*t = *fresh
	return nil
}
