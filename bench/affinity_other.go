//go:build !linux

package bench

import "errors"

func setThreadAffinity(cpu int) error {
	return errors.ErrUnsupported
}
