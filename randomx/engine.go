package randomx

import (
	"errors"
	"hash"
	"sync"

	"git.gammaspectra.live/P2Pool/randomx-bench/types"
	"git.gammaspectra.live/P2Pool/randomx-bench/utils"
	"golang.org/x/crypto/blake2b"
)

var (
	ErrCacheAlloc    = errors.New("randomx: failed to allocate cache")
	ErrDatasetAlloc  = errors.New("randomx: failed to allocate dataset")
	ErrVMAlloc       = errors.New("randomx: failed to create virtual machine")
	ErrUninitialized = errors.New("randomx: engine not initialized")
	ErrNoHashPending = errors.New("randomx: no hash in flight")
)

var errStatesAfterInit = errors.New("cannot change cached states after init")

// Engine owns the key dependent state hashes are computed against.
// Init must complete before any VM is created, and all VMs must be
// closed before the engine itself.
type Engine interface {
	// Init derives the hashing state from key. Calling it again with the
	// same key is a no-op.
	Init(key []byte) error
	// NewVM creates a virtual machine bound to the current state.
	NewVM() (VM, error)
	Flags() Flag
	// OptionNumberOfCachedStates keeps up to n initialized states around
	// so switching back to a recent key avoids re-derivation.
	OptionNumberOfCachedStates(n int) error
	// OptionInitRoutines sets how many routines initialize the dataset.
	OptionInitRoutines(n int) error
	Close()
}

// VM computes hashes either one-shot or in first/next pipelined form.
// A VM is not safe for concurrent use.
type VM interface {
	CalculateHash(input []byte) (types.Hash, error)
	// CalculateHashFirst begins a pipelined hash of input. Exactly one
	// hash may be in flight.
	CalculateHashFirst(input []byte) error
	// CalculateHashNext finishes the in-flight hash and begins hashing
	// input in its place.
	CalculateHashNext(input []byte) (types.Hash, error)
	Close()
}

var commitmentHasherPool = sync.Pool{
	New: func() any {
		h, err := blake2b.New256(nil)
		if err != nil {
			utils.Panicf("blake2b: %s", err)
		}
		return h
	},
}

// CalculateCommitment binds input and its hash into a commitment digest
func CalculateCommitment(input []byte, digest types.Hash) (commitment types.Hash) {
	//nolint:forcetypeassert
	h := commitmentHasherPool.Get().(hash.Hash)
	defer commitmentHasherPool.Put(h)
	h.Reset()

	_, _ = h.Write(input)
	_, _ = h.Write(digest[:])
	utils.SumNoEscape(h, commitment[:0])
	return commitment
}
