package bench

import (
	"fmt"
	"os"

	"git.gammaspectra.live/P2Pool/randomx-bench/types"
	"git.gammaspectra.live/P2Pool/randomx-bench/utils"
)

// RunSpec is one entry of a suite file. Zero valued fields fall back to the
// command line settings.
type RunSpec struct {
	Name     string           `json:"name,omitempty"`
	Threads  int              `json:"threads,omitempty"`
	Affinity uint64           `json:"affinity,omitempty"`
	Nonces   uint32           `json:"nonces,omitempty"`
	Seed     *int32           `json:"seed,omitempty"`
	SeedData types.Bytes      `json:"seedData,omitempty"`
	NoBatch  bool             `json:"noBatch,omitempty"`
	Commit   bool             `json:"commit,omitempty"`
	Target   types.Difficulty `json:"target"`
	Template types.Bytes      `json:"template,omitempty"`
}

// Suite is a set of runs executed in order against a single engine. Runs
// coming back to a recently used seed pick up its cached state.
type Suite struct {
	Runs []RunSpec `json:"runs"`
}

func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Suite
	if err = utils.UnmarshalJSON(data, &s); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(s.Runs) == 0 {
		return nil, fmt.Errorf("%s: no runs", path)
	}
	for i := range s.Runs {
		if r := &s.Runs[i]; len(r.Template) != 0 && len(r.Template) != TemplateSize {
			return nil, fmt.Errorf("%s: run %d: template is %d bytes, expected %d", path, i, len(r.Template), TemplateSize)
		}
	}
	return &s, nil
}
