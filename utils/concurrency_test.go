package utils

import (
	"errors"
	"sync/atomic"
	"testing"
)

func TestSplitRanges(t *testing.T) {
	const workSize = 100

	var covered [workSize]atomic.Uint32
	var initCalls atomic.Uint32

	err := SplitRanges(7, workSize, func(start, count uint64, routineIndex int) error {
		for i := start; i < start+count; i++ {
			covered[i].Add(1)
		}
		return nil
	}, func(routines, routineIndex int) error {
		if routines != 7 {
			t.Errorf("expected 7 routines, got %d", routines)
		}
		initCalls.Add(1)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	if initCalls.Load() != 7 {
		t.Fatalf("expected 7 init calls, got %d", initCalls.Load())
	}

	for i := range covered {
		if n := covered[i].Load(); n != 1 {
			t.Fatalf("work index %d covered %d times", i, n)
		}
	}
}

func TestSplitRanges_SmallWork(t *testing.T) {
	var covered [3]atomic.Uint32

	err := SplitRanges(8, uint64(len(covered)), func(start, count uint64, routineIndex int) error {
		for i := start; i < start+count; i++ {
			covered[i].Add(1)
		}
		return nil
	}, func(routines, routineIndex int) error {
		if routines > len(covered) {
			t.Errorf("expected at most %d routines, got %d", len(covered), routines)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	for i := range covered {
		if n := covered[i].Load(); n != 1 {
			t.Fatalf("work index %d covered %d times", i, n)
		}
	}
}

func TestSplitRanges_Error(t *testing.T) {
	expected := errors.New("range failure")

	err := SplitRanges(4, 16, func(start, count uint64, routineIndex int) error {
		if routineIndex == 2 {
			return expected
		}
		return nil
	}, func(routines, routineIndex int) error {
		return nil
	})

	if !errors.Is(err, expected) {
		t.Fatalf("expected %v, got %v", expected, err)
	}
}

func TestSplitRanges_InitError(t *testing.T) {
	expected := errors.New("init failure")

	var ran atomic.Bool

	err := SplitRanges(4, 16, func(start, count uint64, routineIndex int) error {
		ran.Store(true)
		return nil
	}, func(routines, routineIndex int) error {
		return expected
	})

	if !errors.Is(err, expected) {
		t.Fatalf("expected %v, got %v", expected, err)
	}

	if ran.Load() {
		t.Fatal("no range should run when init fails")
	}
}
