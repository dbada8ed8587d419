package bench

import (
	"context"
	"fmt"

	"git.gammaspectra.live/P2Pool/randomx-bench/randomx"
	"git.gammaspectra.live/P2Pool/randomx-bench/types"
)

// worker drives one virtual machine over nonces claimed from the shared
// counter. Each worker owns a private template copy and only rewrites its
// nonce field between hashes.
type worker struct {
	vm       randomx.VM
	template Template
	counter  *Counter
	result   *Accumulator
	budget   uint32
	commit   bool
	target   types.Difficulty

	// filled while running, read by the runner after every worker joined
	hashes uint64
	shares uint64
}

// fold accounts for one finished digest
func (w *worker) fold(digest types.Hash) {
	w.result.Xor(digest)
	w.hashes++
	if !w.target.IsZero() && w.target.CheckPoW(digest) {
		w.shares++
	}
}

// runDirect finishes each hash before claiming the next nonce.
func (w *worker) runDirect(ctx context.Context) error {
	nonce := w.counter.Next()
	for nonce < w.budget {
		if err := ctx.Err(); err != nil {
			return err
		}
		w.template.PutNonce(nonce)
		digest, err := w.vm.CalculateHash(w.template[:])
		if err != nil {
			return fmt.Errorf("nonce %d: %w", nonce, err)
		}
		if w.commit {
			digest = randomx.CalculateCommitment(w.template[:], digest)
		}
		w.fold(digest)
		nonce = w.counter.Next()
	}
	return nil
}

// runPipelined keeps one hash in flight: submitting the template for the
// next claimed nonce hands back the digest of the previous one. The loop
// ends on the first claim at or past the budget, which still gets
// submitted to flush out the last counted digest. The overshoot digest
// itself is left in flight and never folded.
func (w *worker) runPipelined(ctx context.Context) error {
	nonce := w.counter.Next()
	if nonce >= w.budget {
		return nil
	}
	w.template.PutNonce(nonce)
	if err := w.vm.CalculateHashFirst(w.template[:]); err != nil {
		return fmt.Errorf("nonce %d: %w", nonce, err)
	}
	// prev holds the template the in-flight digest belongs to
	prev := w.template

	for nonce < w.budget {
		next := w.counter.Next()
		if err := ctx.Err(); err != nil {
			return err
		}
		w.template.PutNonce(next)
		digest, err := w.vm.CalculateHashNext(w.template[:])
		if err != nil {
			return fmt.Errorf("nonce %d: %w", nonce, err)
		}
		if w.commit {
			digest = randomx.CalculateCommitment(prev[:], digest)
		}
		w.fold(digest)
		prev = w.template
		nonce = next
	}
	return nil
}
