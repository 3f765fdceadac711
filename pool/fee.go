package pool

import (
	"math/bits"

	"github.com/vocdoni/shielded-pool/types"
)

// CalculateFee returns floor(amount * feeBps / 10_000) using 128-bit
// intermediate arithmetic, so it never overflows for any uint64 amount.
// feeBps values above the ceiling are clamped, making the fee at most the
// amount itself.
func CalculateFee(amount uint64, feeBps uint16) uint64 {
	if feeBps == 0 {
		return 0
	}
	bps := uint64(feeBps)
	if bps > types.MaxBps {
		bps = types.MaxBps
	}
	hi, lo := bits.Mul64(amount, bps)
	// hi < MaxBps whenever bps <= MaxBps, so the division cannot panic.
	q, _ := bits.Div64(hi, lo, types.MaxBps)
	return q
}
