package bench

import (
	"encoding/binary"
	"sync"
	"testing"

	"git.gammaspectra.live/P2Pool/randomx-bench/types"
	"github.com/dolthub/swiss"
)

func xorHashes(hashes ...types.Hash) (out types.Hash) {
	for _, h := range hashes {
		for i := range out {
			out[i] ^= h[i]
		}
	}
	return out
}

func TestAccumulator(t *testing.T) {
	var h1, h2 types.Hash
	for i := range h1 {
		h1[i] = byte(i)
		h2[i] = byte(0xa5 ^ i)
	}

	var acc Accumulator
	acc.Xor(h1)
	if w := acc.words[0].Load(); w != binary.LittleEndian.Uint64(h1[:8]) {
		t.Fatalf("word 0 = %016x, words are not little endian", w)
	}
	if sum := acc.Sum(); sum != h1 {
		t.Fatalf("single fold = %s, expected %s", sum, h1)
	}

	acc.Xor(h2)
	if sum := acc.Sum(); sum != xorHashes(h1, h2) {
		t.Fatalf("sum = %s", sum)
	}

	// folding a digest twice cancels it
	acc.Xor(h2)
	if sum := acc.Sum(); sum != h1 {
		t.Fatal("double fold did not cancel")
	}
	acc.Xor(h1)
	if sum := acc.Sum(); sum != types.ZeroHash {
		t.Fatalf("sum = %s, expected zero", sum)
	}
}

func TestAccumulator_Concurrent(t *testing.T) {
	const routines = 8
	const folds = 1024

	digests := make([]types.Hash, folds)
	for i := range digests {
		for j := range digests[i] {
			digests[i][j] = byte((i * 31) ^ (j * 17))
		}
	}
	expected := xorHashes(digests...)

	var acc Accumulator
	var wg sync.WaitGroup
	for r := 0; r < routines; r++ {
		r := r
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := r; i < folds; i += routines {
				acc.Xor(digests[i])
			}
		}()
	}
	wg.Wait()

	if sum := acc.Sum(); sum != expected {
		t.Fatalf("sum = %s, expected %s", sum, expected)
	}
}

func TestCounter(t *testing.T) {
	var c Counter
	for i := uint32(0); i < 5; i++ {
		if n := c.Next(); n != i {
			t.Fatalf("claim %d = %d", i, n)
		}
	}
	if n := c.Claimed(); n != 5 {
		t.Fatalf("claimed = %d", n)
	}
}

func TestCounter_Concurrent(t *testing.T) {
	const routines = 8
	const perRoutine = 2048

	var c Counter
	claims := make([][]uint32, routines)
	var wg sync.WaitGroup
	for r := 0; r < routines; r++ {
		r := r
		wg.Add(1)
		go func() {
			defer wg.Done()
			out := make([]uint32, 0, perRoutine)
			for i := 0; i < perRoutine; i++ {
				out = append(out, c.Next())
			}
			claims[r] = out
		}()
	}
	wg.Wait()

	seen := swiss.NewMap[uint32, struct{}](routines * perRoutine)
	for _, list := range claims {
		for _, n := range list {
			if n >= routines*perRoutine {
				t.Fatalf("nonce %d out of range", n)
			}
			if seen.Has(n) {
				t.Fatalf("nonce %d claimed twice", n)
			}
			seen.Put(n, struct{}{})
		}
	}
	if seen.Count() != routines*perRoutine {
		t.Fatalf("unique claims = %d", seen.Count())
	}
	if n := c.Claimed(); n != routines*perRoutine {
		t.Fatalf("claimed = %d", n)
	}
}

func BenchmarkAccumulator_Xor(b *testing.B) {
	var h types.Hash
	for i := range h {
		h[i] = byte(i)
	}
	var acc Accumulator
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			acc.Xor(h)
		}
	})
}
