package randomx

import "strings"

// Flag mirrors the randomx_flags enum
type Flag uint64

const (
	FlagLargePages = Flag(1 << iota)
	FlagHardAES
	FlagFullMem
	FlagJIT
	FlagSecure
	FlagArgon2SSSE3
	FlagArgon2AVX2
)

const FlagDefault = Flag(0)

var flagNames = []struct {
	flag Flag
	name string
}{
	{FlagLargePages, "LARGE_PAGES"},
	{FlagHardAES, "HARD_AES"},
	{FlagFullMem, "FULL_MEM"},
	{FlagJIT, "JIT"},
	{FlagSecure, "SECURE"},
	{FlagArgon2SSSE3, "ARGON2_SSSE3"},
	{FlagArgon2AVX2, "ARGON2_AVX2"},
}

func (f Flag) Has(flag Flag) bool {
	return f&flag == flag
}

func (f Flag) String() string {
	if f == FlagDefault {
		return "DEFAULT"
	}

	var names []string
	for _, e := range flagNames {
		if f.Has(e.flag) {
			names = append(names, e.name)
		}
	}
	return strings.Join(names, "|")
}
