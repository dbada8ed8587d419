package randomx

import (
	"slices"
	"sync"
	"sync/atomic"

	"git.gammaspectra.live/P2Pool/randomx-bench/types"
	"git.gammaspectra.live/P2Pool/randomx-bench/utils"
	"golang.org/x/crypto/sha3"
)

// ReferenceDigest is the keyed digest the TestEngine produces, usable to
// compute expected results independently.
func ReferenceDigest(key, input []byte) (out types.Hash) {
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write(key)
	_, _ = h.Write(input)
	utils.SumNoEscape(h, out[:0])
	return out
}

// TestEngine is a deterministic, allocation-free stand in for the real
// thing. It also allows injecting failures into hashing and init.
type TestEngine struct {
	lock  sync.Mutex
	flags Flag
	key   []byte

	// InitError fails the next Init call when set
	InitError error

	hashError    error
	hashBudget   atomic.Int64
	budgetActive bool
}

func NewTestEngine(flags Flag) *TestEngine {
	return &TestEngine{flags: flags}
}

// FailHashingAfter makes hashing fail with err once n more digests were
// produced across all machines.
func (e *TestEngine) FailHashingAfter(n int64, err error) {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.hashError = err
	e.hashBudget.Store(n)
	e.budgetActive = true
}

func (e *TestEngine) consumeHashBudget() error {
	if !e.budgetActive {
		return nil
	}
	if e.hashBudget.Add(-1) < 0 {
		return e.hashError
	}
	return nil
}

func (e *TestEngine) Init(key []byte) error {
	e.lock.Lock()
	defer e.lock.Unlock()

	if e.InitError != nil {
		err := e.InitError
		e.InitError = nil
		return err
	}

	e.key = slices.Clone(key)
	return nil
}

func (e *TestEngine) NewVM() (VM, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	if e.key == nil {
		return nil, ErrUninitialized
	}

	return &testVM{engine: e, key: slices.Clone(e.key)}, nil
}

func (e *TestEngine) Flags() Flag {
	return e.flags
}

func (e *TestEngine) OptionNumberOfCachedStates(n int) error {
	return nil
}

func (e *TestEngine) OptionInitRoutines(n int) error {
	return nil
}

func (e *TestEngine) Close() {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.key = nil
}

type testVM struct {
	engine *TestEngine
	key    []byte

	pending    []byte
	hasPending bool
}

func (v *testVM) CalculateHash(input []byte) (types.Hash, error) {
	if err := v.engine.consumeHashBudget(); err != nil {
		return types.ZeroHash, err
	}
	return ReferenceDigest(v.key, input), nil
}

func (v *testVM) CalculateHashFirst(input []byte) error {
	v.pending = append(v.pending[:0], input...)
	v.hasPending = true
	return nil
}

func (v *testVM) CalculateHashNext(input []byte) (types.Hash, error) {
	if !v.hasPending {
		return types.ZeroHash, ErrNoHashPending
	}
	if err := v.engine.consumeHashBudget(); err != nil {
		return types.ZeroHash, err
	}

	out := ReferenceDigest(v.key, v.pending)
	v.pending = append(v.pending[:0], input...)
	return out, nil
}

func (v *testVM) Close() {
	v.pending = nil
	v.hasPending = false
}
