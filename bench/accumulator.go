package bench

import (
	"encoding/binary"
	"sync/atomic"

	"git.gammaspectra.live/P2Pool/randomx-bench/types"
)

// Accumulator folds digests into a single fingerprint by XOR.
// Each 64-bit word is atomic on its own. Words of one digest may land
// interleaved with another, the final value is still the XOR of every
// digest folded, regardless of arrival order.
type Accumulator struct {
	words [types.HashSize / 8]atomic.Uint64
}

func (a *Accumulator) Xor(digest types.Hash) {
	for i := range a.words {
		word := digest.Word(i)
		for {
			old := a.words[i].Load()
			if a.words[i].CompareAndSwap(old, old^word) {
				break
			}
		}
	}
}

// Sum serializes the accumulated words back into a hash, each word little endian
func (a *Accumulator) Sum() (h types.Hash) {
	for i := range a.words {
		binary.LittleEndian.PutUint64(h[i*8:], a.words[i].Load())
	}
	return h
}
