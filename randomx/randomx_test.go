package randomx

import (
	"errors"
	"runtime"
	"testing"

	"git.gammaspectra.live/P2Pool/randomx-bench/types"
	"golang.org/x/crypto/blake2b"
)

func TestCalculateCommitment(t *testing.T) {
	input := []byte("This is a test")
	digest := types.MustHashFromString("639183aae1bf4c9a35884cb46b09cad9175f04efd7684e7262a0ac1c2f0b4e3f")

	commitment := CalculateCommitment(input, digest)
	if expected := "d53ccf348b75291b7be76f0a7ac8208bbced734b912f6fca60539ab6f86be919"; commitment.String() != expected {
		t.Errorf("expected %s, got %s", expected, commitment)
	}

	h, err := blake2b.New256(nil)
	if err != nil {
		t.Fatal(err)
	}
	h.Write(input)
	h.Write(digest[:])
	if expected := types.HashFromBytes(h.Sum(nil)); commitment != expected {
		t.Errorf("expected %s, got %s", expected, commitment)
	}
}

func TestTestEngine(t *testing.T) {
	e := NewTestEngine(FlagDefault)
	defer e.Close()

	if _, err := e.NewVM(); !errors.Is(err, ErrUninitialized) {
		t.Fatalf("expected %v, got %v", ErrUninitialized, err)
	}

	key := []byte("test key 000")
	if err := e.Init(key); err != nil {
		t.Fatal(err)
	}

	vm1, err := e.NewVM()
	if err != nil {
		t.Fatal(err)
	}
	defer vm1.Close()
	vm2, err := e.NewVM()
	if err != nil {
		t.Fatal(err)
	}
	defer vm2.Close()

	input := []byte("This is a test")

	h1, err := vm1.CalculateHash(input)
	if err != nil {
		t.Fatal(err)
	}
	h2, err := vm2.CalculateHash(input)
	if err != nil {
		t.Fatal(err)
	}

	if h1 != h2 {
		t.Fatalf("machines disagree: %s vs %s", h1, h2)
	}

	if expected := ReferenceDigest(key, input); h1 != expected {
		t.Fatalf("expected %s, got %s", expected, h1)
	}

	// key change must change digests
	if err = e.Init([]byte("test key 001")); err != nil {
		t.Fatal(err)
	}
	vm3, err := e.NewVM()
	if err != nil {
		t.Fatal(err)
	}
	defer vm3.Close()

	h3, err := vm3.CalculateHash(input)
	if err != nil {
		t.Fatal(err)
	}
	if h3 == h1 {
		t.Fatal("digest did not change with key")
	}
}

func TestTestEngine_Pipeline(t *testing.T) {
	e := NewTestEngine(FlagDefault)
	defer e.Close()

	key := []byte("pipeline key")
	if err := e.Init(key); err != nil {
		t.Fatal(err)
	}

	vm, err := e.NewVM()
	if err != nil {
		t.Fatal(err)
	}
	defer vm.Close()

	if _, err = vm.CalculateHashNext([]byte("early")); !errors.Is(err, ErrNoHashPending) {
		t.Fatalf("expected %v, got %v", ErrNoHashPending, err)
	}

	inputs := [][]byte{
		[]byte("input 0"),
		[]byte("input 1"),
		[]byte("input 2"),
		[]byte("input 3"),
	}

	if err = vm.CalculateHashFirst(inputs[0]); err != nil {
		t.Fatal(err)
	}

	for i := 1; i < len(inputs); i++ {
		out, err := vm.CalculateHashNext(inputs[i])
		if err != nil {
			t.Fatal(err)
		}
		if expected := ReferenceDigest(key, inputs[i-1]); out != expected {
			t.Fatalf("input %d: expected %s, got %s", i-1, expected, out)
		}
	}

	// last submitted input drains on the next call
	out, err := vm.CalculateHashNext([]byte("overshoot"))
	if err != nil {
		t.Fatal(err)
	}
	if expected := ReferenceDigest(key, inputs[len(inputs)-1]); out != expected {
		t.Fatalf("expected %s, got %s", expected, out)
	}
}

func TestTestEngine_FailureInjection(t *testing.T) {
	e := NewTestEngine(FlagDefault)
	defer e.Close()

	if err := e.Init([]byte("key")); err != nil {
		t.Fatal(err)
	}

	vm, err := e.NewVM()
	if err != nil {
		t.Fatal(err)
	}
	defer vm.Close()

	failure := errors.New("machine fault")
	e.FailHashingAfter(2, failure)

	for i := 0; i < 2; i++ {
		if _, err = vm.CalculateHash([]byte("ok")); err != nil {
			t.Fatalf("hash %d: %v", i, err)
		}
	}

	if _, err = vm.CalculateHash([]byte("boom")); !errors.Is(err, failure) {
		t.Fatalf("expected %v, got %v", failure, err)
	}

	e2 := NewTestEngine(FlagDefault)
	defer e2.Close()
	e2.InitError = failure
	if err = e2.Init([]byte("key")); !errors.Is(err, failure) {
		t.Fatalf("expected %v, got %v", failure, err)
	}
	if err = e2.Init([]byte("key")); err != nil {
		t.Fatalf("init error should not persist: %v", err)
	}
}

func TestRandomX(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping full state derivation")
	}

	e, err := NewEngine(FlagDefault)
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	if err = e.OptionNumberOfCachedStates(2); err != nil {
		t.Fatal(err)
	}

	if err = e.Init([]byte("test key 000")); err != nil {
		t.Fatal(err)
	}

	vm, err := e.NewVM()
	if err != nil {
		t.Fatal(err)
	}

	hash, err := vm.CalculateHash([]byte("This is a test"))
	if err != nil {
		t.Fatal(err)
	}
	if expected := "639183aae1bf4c9a35884cb46b09cad9175f04efd7684e7262a0ac1c2f0b4e3f"; hash.String() != expected {
		t.Fatalf("expected %s, got %s", expected, hash)
	}

	if err = vm.CalculateHashFirst([]byte("This is a test")); err != nil {
		t.Fatal(err)
	}
	pipelined, err := vm.CalculateHashNext([]byte("Lorem ipsum dolor sit amet"))
	if err != nil {
		t.Fatal(err)
	}
	if pipelined != hash {
		t.Fatalf("pipelined digest mismatch: %s vs %s", pipelined, hash)
	}

	second, err := vm.CalculateHashNext([]byte("discarded"))
	if err != nil {
		t.Fatal(err)
	}
	if expected := "300a0adb47603dedb42228ccb2b211104f4da45af709cd7547cd049e9489c969"; second.String() != expected {
		t.Fatalf("expected %s, got %s", expected, second)
	}

	vm.Close()

	// key switch, then back to a kept state
	if err = e.Init([]byte("test key 001")); err != nil {
		t.Fatal(err)
	}
	vm2, err := e.NewVM()
	if err != nil {
		t.Fatal(err)
	}
	switched, err := vm2.CalculateHash([]byte("This is a test"))
	if err != nil {
		t.Fatal(err)
	}
	vm2.Close()
	if switched == hash {
		t.Fatal("digest did not change with key")
	}

	if err = e.Init([]byte("test key 000")); err != nil {
		t.Fatal(err)
	}
	vm3, err := e.NewVM()
	if err != nil {
		t.Fatal(err)
	}
	again, err := vm3.CalculateHash([]byte("This is a test"))
	if err != nil {
		t.Fatal(err)
	}
	vm3.Close()
	if again != hash {
		t.Fatalf("kept state digest mismatch: %s vs %s", again, hash)
	}
}

func BenchmarkCalculateCommitment(b *testing.B) {
	b.ReportAllocs()
	input := []byte("This is a test")
	digest := types.MustHashFromString("639183aae1bf4c9a35884cb46b09cad9175f04efd7684e7262a0ac1c2f0b4e3f")

	var commitment types.Hash
	for i := 0; i < b.N; i++ {
		commitment = CalculateCommitment(input, digest)
	}
	runtime.KeepAlive(commitment)
}
