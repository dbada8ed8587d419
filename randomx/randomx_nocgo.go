//go:build !cgo || disable_randomx_library

package randomx

import (
	"bytes"
	"slices"
	"sync"

	"git.gammaspectra.live/P2Pool/go-randomx/v2"
	"git.gammaspectra.live/P2Pool/randomx-bench/types"
	"git.gammaspectra.live/P2Pool/randomx-bench/utils"
)

// GetFlags returns the recommended flags for the current machine
func GetFlags() Flag {
	return FlagJIT
}

type engine struct {
	lock  sync.Mutex
	flags Flag

	cache  *randomx.Randomx_Cache
	states utils.Cache[string, *randomx.Randomx_Cache]

	// every allocated cache, kept states included, closed on engine Close
	allocated []*randomx.Randomx_Cache

	key []byte

	cachedStates int
}

// NewEngine runs on the pure Go implementation. Dataset related flags are
// accepted but hashing always happens against the cache.
func NewEngine(flags Flag) (Engine, error) {
	e := &engine{
		flags:        flags,
		states:       utils.NewNilCache[string, *randomx.Randomx_Cache](),
		cachedStates: 1,
	}
	e.cache = e.allocCache()

	if flags.Has(FlagFullMem) {
		utils.Noticef("RandomX", "full memory mode not available without cgo, hashing in light mode")
	}

	return e, nil
}

func (e *engine) allocCache() *randomx.Randomx_Cache {
	var cache *randomx.Randomx_Cache
	if e.flags.Has(FlagJIT) {
		cache = randomx.Randomx_alloc_cache(randomx.RANDOMX_FLAG_JIT)
	} else {
		cache = randomx.Randomx_alloc_cache(0)
	}
	e.allocated = append(e.allocated, cache)
	return cache
}

func (e *engine) Flags() Flag {
	return e.flags
}

func (e *engine) OptionNumberOfCachedStates(n int) error {
	e.lock.Lock()
	defer e.lock.Unlock()

	if e.key != nil {
		return errStatesAfterInit
	}

	e.cachedStates = max(n, 1)
	if e.cachedStates > 1 {
		e.states = utils.NewLRUCache[string, *randomx.Randomx_Cache](e.cachedStates)
	} else {
		e.states = utils.NewNilCache[string, *randomx.Randomx_Cache]()
	}
	return nil
}

func (e *engine) OptionInitRoutines(n int) error {
	// cache derivation is single threaded here
	return nil
}

func (e *engine) Init(key []byte) error {
	e.lock.Lock()
	defer e.lock.Unlock()

	if e.key != nil && bytes.Equal(e.key, key) {
		return nil
	}

	if cache, ok := e.states.Get(string(key)); ok {
		e.cache = cache
		e.key = slices.Clone(key)
		utils.Debugf("RandomX", "reusing kept state for key %x", key)
		return nil
	}

	cache := e.cache
	if e.key != nil && e.cachedStates > 1 {
		// active state stays kept, derive into a fresh cache
		cache = e.allocCache()
	}

	e.key = slices.Clone(key)
	cache.Init(e.key)
	e.states.Set(string(e.key), cache)
	e.cache = cache
	return nil
}

func (e *engine) NewVM() (VM, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	if e.key == nil {
		return nil, ErrUninitialized
	}

	return &vm{inner: e.cache.VM_Initialize()}, nil
}

func (e *engine) Close() {
	e.lock.Lock()
	defer e.lock.Unlock()

	e.states.Clear()
	for _, cache := range e.allocated {
		cache.Close()
	}
	e.allocated = nil
	e.cache = nil
	e.key = nil
}

type vm struct {
	inner *randomx.VM

	pending    []byte
	hasPending bool
}

func (v *vm) CalculateHash(input []byte) (output types.Hash, err error) {
	v.inner.CalculateHash(input, (*[32]byte)(&output))
	return output, nil
}

// CalculateHashFirst the pure Go machine has no pipelined mode, the input is
// held and hashed when the next one arrives.
func (v *vm) CalculateHashFirst(input []byte) error {
	v.pending = append(v.pending[:0], input...)
	v.hasPending = true
	return nil
}

func (v *vm) CalculateHashNext(input []byte) (output types.Hash, err error) {
	if !v.hasPending {
		return output, ErrNoHashPending
	}

	v.inner.CalculateHash(v.pending, (*[32]byte)(&output))
	v.pending = append(v.pending[:0], input...)
	return output, nil
}

func (v *vm) Close() {
	v.inner = nil
}
