//go:build unix

package source

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	ircerr "fifoirc/internal/errors"
)

// ensureFIFO refuses a path that exists but is not a FIFO and creates
// the FIFO when the path is absent.
func ensureFIFO(path string, mode os.FileMode) error {
	var st unix.Stat_t
	err := unix.Stat(path, &st)
	switch {
	case err == nil:
		if st.Mode&unix.S_IFMT != unix.S_IFIFO {
			return ircerr.ErrNotFIFO
		}
		return nil
	case errors.Is(err, unix.ENOENT):
		if err := unix.Mkfifo(path, uint32(mode.Perm())); err != nil {
			return fmt.Errorf("mkfifo: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("stat: %w", err)
	}
}

// wakeReader briefly opens the write side so that a blocked open for
// reading returns.
func wakeReader(path string) {
	fd, err := unix.Open(path, unix.O_WRONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err == nil {
		unix.Close(fd)
	}
}
