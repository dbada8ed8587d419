package randomx

import (
	"testing"

	"git.gammaspectra.live/P2Pool/randomx-bench/types"
	"github.com/stretchr/testify/require"
)

func TestFlag_String(t *testing.T) {
	require.Equal(t, "DEFAULT", FlagDefault.String())
	require.Equal(t, "JIT", FlagJIT.String())
	require.Equal(t, "LARGE_PAGES|JIT", (FlagLargePages | FlagJIT).String())
	require.Equal(t, "HARD_AES|FULL_MEM|ARGON2_AVX2", (FlagFullMem | FlagHardAES | FlagArgon2AVX2).String())

	require.True(t, (FlagJIT | FlagSecure).Has(FlagJIT))
	require.False(t, FlagJIT.Has(FlagSecure))
	require.True(t, FlagJIT.Has(FlagDefault))
}

func TestCalculateCommitment_Properties(t *testing.T) {
	input := []byte("This is a test")
	digest := ReferenceDigest([]byte("commitment key"), input)

	c1 := CalculateCommitment(input, digest)
	c2 := CalculateCommitment(input, digest)
	require.Equal(t, c1, c2, "commitment must be deterministic")
	require.NotEqual(t, types.ZeroHash, c1)
	require.NotEqual(t, digest, c1, "commitment must rebind the digest")

	require.NotEqual(t, c1, CalculateCommitment([]byte("This is a tesu"), digest),
		"input change must change the commitment")

	flipped := digest
	flipped[0] ^= 1
	require.NotEqual(t, c1, CalculateCommitment(input, flipped),
		"digest change must change the commitment")
}

func TestTestEngine_Options(t *testing.T) {
	e := NewTestEngine(FlagJIT | FlagFullMem)
	defer e.Close()

	require.Equal(t, FlagJIT|FlagFullMem, e.Flags())
	require.NoError(t, e.OptionInitRoutines(4))
	require.NoError(t, e.OptionNumberOfCachedStates(2))
}
