package main

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"git.gammaspectra.live/P2Pool/randomx-bench/bench"
	"git.gammaspectra.live/P2Pool/randomx-bench/randomx"
	"git.gammaspectra.live/P2Pool/randomx-bench/types"
	"git.gammaspectra.live/P2Pool/randomx-bench/utils"
	"github.com/spf13/cobra"
	fasthex "github.com/tmthrgd/go-hex"
)

var cli struct {
	mine   bool
	verify bool

	jit        bool
	secure     bool
	largePages bool
	softAes    bool
	ssse3      bool
	avx2       bool
	auto       bool

	threads  int
	affinity uint64
	init     int
	nonces   uint32
	seed     int32
	states   int

	noBatch bool
	commit  bool

	target   string
	template string
	config   string
	jsonOut  bool
	debug    bool
}

var rootCmd = &cobra.Command{
	Use:   "randomx-bench",
	Short: "RandomX proof of work benchmark",
	Long: `randomx-bench hashes a fixed range of nonces over a standard work blob and
reports the XOR of every digest along with timing. The digest fingerprint is
independent of thread count and hashing mode, so differently tuned runs can
be checked against each other. Standard output carries only the resulting
digest, one line per run, everything else goes to standard error.`,
	SilenceUsage: true,
	RunE:         run,
}

//nolint:gochecknoinits
func init() {
	f := rootCmd.Flags()
	f.BoolVar(&cli.mine, "mine", false, "mining mode: 2080 MiB of memory")
	f.BoolVar(&cli.verify, "verify", false, "verification mode: 256 MiB of memory (default)")
	f.BoolVar(&cli.jit, "jit", false, "JIT compiled mode (default: interpreter)")
	f.BoolVar(&cli.secure, "secure", false, "W^X policy for JIT pages (default: off)")
	f.BoolVar(&cli.largePages, "largePages", false, "use large pages (default: small pages)")
	f.BoolVar(&cli.softAes, "softAes", false, "use software AES (default: hardware AES if available)")
	f.BoolVar(&cli.ssse3, "ssse3", false, "use optimized Argon2 for SSSE3 CPUs")
	f.BoolVar(&cli.avx2, "avx2", false, "use optimized Argon2 for AVX2 CPUs")
	f.BoolVar(&cli.auto, "auto", false, "select the best options for the current CPU")
	f.IntVar(&cli.threads, "threads", 1, "use T hashing threads")
	f.Uint64Var(&cli.affinity, "affinity", 0, "thread affinity bitmask (default: 0)")
	f.IntVar(&cli.init, "init", 1, "initialize the dataset with Q routines")
	f.Uint32Var(&cli.nonces, "nonces", 1000, "run N nonces")
	f.Int32Var(&cli.seed, "seed", 0, "seed for state initialization")
	f.IntVar(&cli.states, "states", 1, "number of initialized states kept for seed switches")
	f.BoolVar(&cli.noBatch, "noBatch", false, "calculate hashes one by one (default: batch)")
	f.BoolVar(&cli.commit, "commit", false, "calculate commitments instead of hashes (default: off)")
	f.StringVar(&cli.target, "target", "", "difficulty target, decimal or hex, counts qualifying digests")
	f.StringVar(&cli.template, "template", "", "hex encoded 76 byte work blob override")
	f.StringVar(&cli.config, "config", "", "execute the suite described by this JSON file")
	f.BoolVar(&cli.jsonOut, "json", false, "write the full report as JSON to standard output")
	f.BoolVar(&cli.debug, "debug", false, "verbose logging")
}

func buildFlags() randomx.Flag {
	var f randomx.Flag
	if cli.auto {
		f = randomx.GetFlags()
	} else {
		if !cli.softAes {
			f |= randomx.FlagHardAES
		}
		if cli.jit {
			f |= randomx.FlagJIT
		}
		if cli.ssse3 {
			f |= randomx.FlagArgon2SSSE3
		}
		if cli.avx2 {
			f |= randomx.FlagArgon2AVX2
		}
	}
	if cli.secure {
		f |= randomx.FlagSecure
	}
	if cli.largePages {
		f |= randomx.FlagLargePages
	}
	if cli.mine {
		f |= randomx.FlagFullMem
	}
	return f
}

func seedBytes(seed int32) []byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(seed))
	return buf[:]
}

// baseConfig builds the run configuration the command line describes.
func baseConfig() (bench.RunConfig, error) {
	cfg := bench.RunConfig{
		Seed:     seedBytes(cli.seed),
		Nonces:   cli.nonces,
		Threads:  cli.threads,
		Affinity: cli.affinity,
		Batch:    !cli.noBatch,
		Commit:   cli.commit,
	}

	if cli.target != "" {
		target, err := types.ParseDifficulty(cli.target)
		if err != nil {
			return cfg, fmt.Errorf("target: %w", err)
		}
		cfg.Target = target
	}

	if cli.template != "" {
		buf, err := fasthex.DecodeString(cli.template)
		if err != nil {
			return cfg, fmt.Errorf("template: %w", err)
		}
		tpl, ok := bench.TemplateFromBytes(buf)
		if !ok {
			return cfg, fmt.Errorf("template must be %d bytes", bench.TemplateSize)
		}
		cfg.Template = &tpl
	}

	return cfg, nil
}

// applySpec overlays one suite entry onto the command line defaults.
func applySpec(cfg bench.RunConfig, spec bench.RunSpec) bench.RunConfig {
	if spec.Threads > 0 {
		cfg.Threads = spec.Threads
	}
	if spec.Affinity != 0 {
		cfg.Affinity = spec.Affinity
	}
	if spec.Nonces > 0 {
		cfg.Nonces = spec.Nonces
	}
	if spec.Seed != nil {
		cfg.Seed = seedBytes(*spec.Seed)
	}
	if len(spec.SeedData) > 0 {
		cfg.Seed = spec.SeedData
	}
	if spec.NoBatch {
		cfg.Batch = false
	}
	if spec.Commit {
		cfg.Commit = true
	}
	if !spec.Target.IsZero() {
		cfg.Target = spec.Target
	}
	if len(spec.Template) > 0 {
		if tpl, ok := bench.TemplateFromBytes(spec.Template); ok {
			cfg.Template = &tpl
		}
	}
	return cfg
}

type namedReport struct {
	Name string `json:"name,omitempty"`
	*bench.Report
}

func run(_ *cobra.Command, _ []string) error {
	utils.GlobalLogLevel |= utils.LogLevelNotice
	if cli.debug {
		utils.GlobalLogLevel |= utils.LogLevelDebug
	}

	if cli.mine && cli.verify {
		return errors.New("--mine and --verify are mutually exclusive")
	}

	base, err := baseConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	engine, err := randomx.NewEngine(buildFlags())
	if err != nil {
		return err
	}
	defer engine.Close()

	if err = engine.OptionInitRoutines(cli.init); err != nil {
		return err
	}
	if err = engine.OptionNumberOfCachedStates(cli.states); err != nil {
		return err
	}

	type namedConfig struct {
		name string
		cfg  bench.RunConfig
	}
	configs := []namedConfig{{cfg: base}}

	if cli.config != "" {
		suite, err := bench.LoadSuite(cli.config)
		if err != nil {
			return err
		}
		configs = configs[:0]
		for _, spec := range suite.Runs {
			configs = append(configs, namedConfig{name: spec.Name, cfg: applySpec(base, spec)})
		}
	}

	runner := bench.NewRunner(engine)
	reports := make([]namedReport, 0, len(configs))
	for _, c := range configs {
		if c.name != "" {
			utils.Logf("Bench", "run %q", c.name)
		}
		result, err := runner.Run(ctx, c.cfg)
		if err != nil {
			return err
		}
		result.Log()
		reports = append(reports, namedReport{Name: c.name, Report: result})
	}

	if cli.jsonOut {
		var data []byte
		if cli.config != "" {
			data, err = utils.MarshalJSONIndent(reports, "  ")
		} else {
			data, err = utils.MarshalJSONIndent(reports[0].Report, "  ")
		}
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(append(data, '\n'))
		return err
	}

	for _, r := range reports {
		if _, err = fmt.Println(r.Digest.String()); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
