//go:build linux

package file

import (
	"os"

	"golang.org/x/sys/unix"
)

// adviseSequential tells the kernel the whole file is about to be read front
// to back. Best effort; errors are ignored.
func adviseSequential(f *os.File) {
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_WILLNEED)
}
