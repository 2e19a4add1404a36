//go:build linux

package guppi

import (
	"os"

	"golang.org/x/sys/unix"
)

// adviseSequential hints the kernel that f is read front to back.
func adviseSequential(f *os.File) {
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL)
}
