package bench

import "math/bits"

// CPUFromMask returns the index of the n-th set bit of mask, counting up
// from the least significant end. ok is false when mask carries fewer set
// bits, such workers run unpinned.
func CPUFromMask(mask uint64, n int) (cpu int, ok bool) {
	for mask != 0 {
		if n == 0 {
			return bits.TrailingZeros64(mask), true
		}
		mask &= mask - 1
		n--
	}
	return 0, false
}
