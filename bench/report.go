package bench

import (
	"time"

	"git.gammaspectra.live/P2Pool/randomx-bench/randomx"
	"git.gammaspectra.live/P2Pool/randomx-bench/types"
	"git.gammaspectra.live/P2Pool/randomx-bench/utils"
)

// Report is the outcome of one run. Digest is the XOR of every digest the
// run folded and identifies the run output regardless of thread count.
type Report struct {
	Digest   types.Hash       `json:"digest"`
	Nonces   uint32           `json:"nonces"`
	Threads  int              `json:"threads"`
	Batch    bool             `json:"batch"`
	Commit   bool             `json:"commit"`
	Flags    randomx.Flag     `json:"flags"`
	Target   types.Difficulty `json:"target"`
	Shares   uint64           `json:"shares"`
	InitTime time.Duration    `json:"initTime"`
	HashTime time.Duration    `json:"hashTime"`
}

// HashRate hashes per second over the hashing phase
func (r *Report) HashRate() float64 {
	if r.HashTime <= 0 {
		return 0
	}
	return float64(r.Nonces) / r.HashTime.Seconds()
}

// Log writes the human readable summary. The digest itself is left to the
// caller, stdout stays reserved for it.
func (r *Report) Log() {
	mode := "direct"
	if r.Batch {
		mode = "pipelined"
	}
	utils.Logf("Bench", "flags %s", r.Flags)
	utils.Logf("Bench", "%d nonces, %d threads, %s hashing, commitments %t", r.Nonces, r.Threads, mode, r.Commit)
	utils.Logf("Bench", "initialized in %s, hashed in %s (%sH/s)", r.InitTime, r.HashTime, utils.SiUnits(r.HashRate(), 2))
	if !r.Target.IsZero() {
		utils.Logf("Bench", "%d of %d digests above difficulty %s", r.Shares, r.Nonces, r.Target.StringNumeric())
	}
}
