package utils

import (
	"fmt"
	"hash"

	_ "unsafe"
)

// These functions allow defeat of the escape analysis to prevent heap allocations.
// It is the caller responsibility to ensure this is safe

func _appendf(buf []byte, format string, v ...any) []byte {
	return fmt.Appendf(buf, format, v...)
}

func _sprintf(format string, v ...any) string {
	return fmt.Sprintf(format, v...)
}

func _sum(hasher hash.Hash, buf []byte) []byte {
	return hasher.Sum(buf)
}

//go:noescape
//go:linkname AppendfNoEscape git.gammaspectra.live/P2Pool/randomx-bench/utils._appendf
func AppendfNoEscape(buf []byte, format string, v ...any) []byte

//go:noescape
//go:linkname SprintfNoEscape git.gammaspectra.live/P2Pool/randomx-bench/utils._sprintf
func SprintfNoEscape(format string, v ...any) string

//go:noescape
//go:linkname SumNoEscape git.gammaspectra.live/P2Pool/randomx-bench/utils._sum
func SumNoEscape(hasher hash.Hash, buf []byte) []byte
