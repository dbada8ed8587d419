package bench

import "testing"

func TestCPUFromMask(t *testing.T) {
	for _, c := range []struct {
		mask uint64
		n    int
		cpu  int
		ok   bool
	}{
		{0, 0, 0, false},
		{0b1, 0, 0, true},
		{0b1, 1, 0, false},
		{0b1010, 0, 1, true},
		{0b1010, 1, 3, true},
		{0b1010, 2, 0, false},
		{1 << 63, 0, 63, true},
		{^uint64(0), 0, 0, true},
		{^uint64(0), 63, 63, true},
		{^uint64(0), 64, 0, false},
	} {
		if cpu, ok := CPUFromMask(c.mask, c.n); cpu != c.cpu || ok != c.ok {
			t.Errorf("CPUFromMask(%#b, %d) = %d, %t, expected %d, %t", c.mask, c.n, cpu, ok, c.cpu, c.ok)
		}
	}
}
