package utils

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// SplitRanges divides [0, workSize) into contiguous ranges and hands one to
// each routine. init is called sequentially for every routine before any
// range is started.
func SplitRanges(routines int, workSize uint64, do func(start, count uint64, routineIndex int) error, init func(routines, routineIndex int) error) error {
	if routines <= 0 {
		routines = max(runtime.NumCPU()-routines, 4)
	}

	if workSize < uint64(routines) {
		routines = int(workSize)
	}

	for routineIndex := 0; routineIndex < routines; routineIndex++ {
		if err := init(routines, routineIndex); err != nil {
			return err
		}
	}

	var eg errgroup.Group

	for routineIndex := 0; routineIndex < routines; routineIndex++ {
		innerRoutineIndex := routineIndex
		start := (workSize * uint64(routineIndex)) / uint64(routines)
		end := (workSize * uint64(routineIndex+1)) / uint64(routines)
		eg.Go(func() error {
			return do(start, end-start, innerRoutineIndex)
		})
	}
	return eg.Wait()
}
