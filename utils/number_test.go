package utils

import (
	"math"
	"testing"
)

func TestParseUint64(t *testing.T) {
	for _, c := range []struct {
		in    string
		value uint64
		fails bool
	}{
		{"0", 0, false},
		{"1000", 1000, false},
		{"412975968250", 412975968250, false},
		{"18446744073709551615", math.MaxUint64, false},
		{"18446744073709551616", 0, true},
		{"", 0, true},
		{"12ab", 0, true},
		{"-5", 0, true},
	} {
		v, err := ParseUint64([]byte(c.in))
		if c.fails {
			if err == nil {
				t.Errorf("ParseUint64(%q) = %d, expected error", c.in, v)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseUint64(%q): %s", c.in, err)
		} else if v != c.value {
			t.Errorf("ParseUint64(%q) = %d, expected %d", c.in, v, c.value)
		}
	}
}
