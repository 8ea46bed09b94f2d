package disk

import (
	"os"

	"golang.org/x/sys/unix"
)

// querySectorSize asks the kernel for the logical sector size of a block
// device. Regular files and devices without the ioctl report 0; callers
// fall back to a 512-byte default.
func querySectorSize(f *os.File) uint32 {
	size, err := unix.IoctlGetInt(int(f.Fd()), unix.BLKSSZGET)
	if err != nil || size <= 0 {
		return 0
	}
	return uint32(size)
}
