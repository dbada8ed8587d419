//go:build cgo && !disable_randomx_library

package randomx

import (
	"bytes"
	"fmt"
	"slices"
	"sync"

	"git.gammaspectra.live/P2Pool/randomx-bench/types"
	"git.gammaspectra.live/P2Pool/randomx-bench/utils"
	"git.gammaspectra.live/P2Pool/randomx-go-bindings"
)

var flagMapping = []struct {
	flag     Flag
	bindings randomx.Flag
}{
	{FlagLargePages, randomx.FlagLargePages},
	{FlagHardAES, randomx.FlagHardAES},
	{FlagFullMem, randomx.FlagFullMEM},
	{FlagJIT, randomx.FlagJIT},
	{FlagSecure, randomx.FlagSecure},
	{FlagArgon2SSSE3, randomx.FlagArgon2SSSE3},
	{FlagArgon2AVX2, randomx.FlagArgon2AVX2},
}

func (f Flag) toBindings() (flags []randomx.Flag) {
	for _, e := range flagMapping {
		if f.Has(e.flag) {
			flags = append(flags, e.bindings)
		}
	}
	if len(flags) == 0 {
		flags = append(flags, randomx.FlagDefault)
	}
	return flags
}

// GetFlags returns the recommended flags for the current machine
func GetFlags() (f Flag) {
	b := randomx.GetFlags()
	for _, e := range flagMapping {
		if b&e.bindings != 0 {
			f |= e.flag
		}
	}
	return f
}

type keyedState struct {
	key   []byte
	cache randomx.Cache
}

type engine struct {
	lock sync.Mutex

	flags  Flag
	bFlags []randomx.Flag

	cache   randomx.Cache
	dataset randomx.Dataset

	key []byte

	initRoutines int
	cachedStates int
	states       []keyedState
}

// NewEngine allocates cache and, with FlagFullMem, dataset memory up front
// so failures surface before any work starts.
func NewEngine(flags Flag) (Engine, error) {
	e := &engine{
		flags:        flags,
		bFlags:       flags.toBindings(),
		initRoutines: 1,
		cachedStates: 1,
	}

	cache, err := randomx.AllocCache(e.bFlags...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCacheAlloc, err)
	}
	e.cache = cache

	if flags.Has(FlagFullMem) {
		dataset, err := randomx.AllocDataset(e.bFlags...)
		if err != nil {
			randomx.ReleaseCache(cache)
			return nil, fmt.Errorf("%w: %w", ErrDatasetAlloc, err)
		}
		e.dataset = dataset
	}

	return e, nil
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
	return nil
}

func (e *engine) OptionInitRoutines(n int) error {
	e.lock.Lock()
	defer e.lock.Unlock()

	e.initRoutines = max(n, 1)
	return nil
}

func (e *engine) Init(key []byte) error {
	e.lock.Lock()
	defer e.lock.Unlock()

	if e.key != nil && bytes.Equal(e.key, key) {
		return nil
	}

	if e.cachedStates > 1 {
		if i := slices.IndexFunc(e.states, func(s keyedState) bool {
			return bytes.Equal(s.key, key)
		}); i != -1 {
			s := e.states[i]
			e.states = append(slices.Delete(e.states, i, i+1), s)
			e.cache = s.cache
			e.key = s.key
			utils.Debugf("RandomX", "reusing kept state for key %x", key)
			return e.initDataset()
		}

		cache := e.cache
		if e.key != nil {
			// active state stays kept, derive into a fresh cache
			var err error
			if cache, err = randomx.AllocCache(e.bFlags...); err != nil {
				return fmt.Errorf("%w: %w", ErrCacheAlloc, err)
			}

			if len(e.states) >= e.cachedStates {
				randomx.ReleaseCache(e.states[0].cache)
				e.states = slices.Delete(e.states, 0, 1)
			}
		}

		e.key = slices.Clone(key)
		randomx.InitCache(cache, e.key)
		e.states = append(e.states, keyedState{key: e.key, cache: cache})
		e.cache = cache
		return e.initDataset()
	}

	e.key = slices.Clone(key)
	randomx.InitCache(e.cache, e.key)
	return e.initDataset()
}

func (e *engine) initDataset() error {
	if e.dataset == nil {
		return nil
	}

	return utils.SplitRanges(e.initRoutines, uint64(randomx.DatasetItemCount()), func(start, count uint64, routineIndex int) error {
		randomx.InitDataset(e.dataset, e.cache, uint32(start), uint32(count))
		return nil
	}, func(routines, routineIndex int) error {
		return nil
	})
}

func (e *engine) NewVM() (VM, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	if e.key == nil {
		return nil, ErrUninitialized
	}

	inner, err := randomx.CreateVM(e.cache, e.dataset, e.bFlags...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVMAlloc, err)
	}
	return &vm{inner: inner}, nil
}

func (e *engine) Close() {
	e.lock.Lock()
	defer e.lock.Unlock()

	if len(e.states) > 0 {
		for i := range e.states {
			randomx.ReleaseCache(e.states[i].cache)
		}
		e.states = nil
	} else if e.cache != nil {
		randomx.ReleaseCache(e.cache)
	}
	e.cache = nil

	if e.dataset != nil {
		randomx.ReleaseDataset(e.dataset)
		e.dataset = nil
	}
	e.key = nil
}

type vm struct {
	inner randomx.VM

	hasPending bool
}

func (v *vm) CalculateHash(input []byte) (types.Hash, error) {
	return types.HashFromBytes(randomx.CalculateHash(v.inner, input)), nil
}

func (v *vm) CalculateHashFirst(input []byte) error {
	randomx.CalculateHashFirst(v.inner, input)
	v.hasPending = true
	return nil
}

func (v *vm) CalculateHashNext(input []byte) (types.Hash, error) {
	if !v.hasPending {
		return types.ZeroHash, ErrNoHashPending
	}
	return types.HashFromBytes(randomx.CalculateHashNext(v.inner, input)), nil
}

func (v *vm) Close() {
	randomx.DestroyVM(v.inner)
}
