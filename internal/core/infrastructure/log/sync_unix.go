//go:build unix

package log

import (
	"errors"

	"golang.org/x/sys/unix"
)

// isUnsupportedSync 终端与管道不支持 fsync
func isUnsupportedSync(err error) bool {
	return errors.Is(err, unix.EINVAL) || errors.Is(err, unix.ENOTTY) || errors.Is(err, unix.EBADF)
}
