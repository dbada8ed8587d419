package bench

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"git.gammaspectra.live/P2Pool/randomx-bench/randomx"
	"git.gammaspectra.live/P2Pool/randomx-bench/types"
	"git.gammaspectra.live/P2Pool/randomx-bench/utils"
	"golang.org/x/sync/errgroup"
)

// RunConfig describes a single run.
type RunConfig struct {
	// Seed key material the hashing state is derived from
	Seed []byte
	// Nonces how many nonces to cover, starting at zero
	Nonces uint32
	// Threads number of hashing workers, each with its own virtual machine
	Threads int
	// Affinity bitmask of cpus workers get pinned to, zero leaves scheduling alone
	Affinity uint64
	// Batch keeps one hash in flight per worker instead of hashing serially
	Batch bool
	// Commit folds commitments instead of plain digests
	Commit bool
	// Target counts digests that satisfy this difficulty, zero disables counting
	Target types.Difficulty
	// Template overrides the work blob, nil selects DefaultTemplate
	Template *Template
}

// Runner executes runs against a shared engine. Runs reusing a recent seed
// benefit from the engine's cached states.
type Runner struct {
	engine randomx.Engine
}

func NewRunner(engine randomx.Engine) *Runner {
	return &Runner{engine: engine}
}

// Run blocks until every worker drained the nonce budget or one of them
// failed. A hashing failure cancels the remaining workers and no result is
// reported. Affinity failures are logged and the worker keeps going.
func (r *Runner) Run(ctx context.Context, cfg RunConfig) (*Report, error) {
	threads := cfg.Threads
	if threads <= 0 {
		threads = 1
	}
	tpl := DefaultTemplate
	if cfg.Template != nil {
		tpl = *cfg.Template
	}

	initStart := time.Now()
	if err := r.engine.Init(cfg.Seed); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}
	initTime := time.Since(initStart)
	utils.Debugf("Bench", "state ready after %s", initTime)

	vms := make([]randomx.VM, 0, threads)
	defer func() {
		for _, vm := range vms {
			vm.Close()
		}
	}()
	for i := 0; i < threads; i++ {
		vm, err := r.engine.NewVM()
		if err != nil {
			return nil, fmt.Errorf("vm %d: %w", i, err)
		}
		vms = append(vms, vm)
	}

	var counter Counter
	var result Accumulator
	workers := make([]*worker, threads)

	eg, runCtx := errgroup.WithContext(ctx)
	hashStart := time.Now()
	for i := 0; i < threads; i++ {
		i := i
		w := &worker{
			vm:       vms[i],
			template: tpl,
			counter:  &counter,
			result:   &result,
			budget:   cfg.Nonces,
			commit:   cfg.Commit,
			target:   cfg.Target,
		}
		workers[i] = w

		cpu := -1
		if cfg.Affinity != 0 {
			if c, ok := CPUFromMask(cfg.Affinity, i); ok {
				cpu = c
			}
		}

		eg.Go(func() error {
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()
			if cpu >= 0 {
				if err := setThreadAffinity(cpu); err != nil {
					utils.Errorf("Bench", "failed to set thread affinity for thread %d (cpu %d): %s", i, cpu, err)
				}
			}
			if cfg.Batch {
				return w.runPipelined(runCtx)
			}
			return w.runDirect(runCtx)
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("worker: %w", err)
	}
	elapsed := time.Since(hashStart)

	report := &Report{
		Digest:   result.Sum(),
		Nonces:   cfg.Nonces,
		Threads:  threads,
		Batch:    cfg.Batch,
		Commit:   cfg.Commit,
		Flags:    r.engine.Flags(),
		Target:   cfg.Target,
		InitTime: initTime,
		HashTime: elapsed,
	}
	for _, w := range workers {
		report.Shares += w.shares
	}
	return report, nil
}
