//go:build linux

package enumerate

import (
	"io/fs"
	"time"

	"golang.org/x/sys/unix"
)

// creationTime falls back to the modification time when the filesystem does
// not record a birth time.
func creationTime(path string, info fs.FileInfo) time.Time {
	var stx unix.Statx_t
	if err := unix.Statx(unix.AT_FDCWD, path, 0, unix.STATX_BTIME, &stx); err != nil {
		return info.ModTime()
	}
	if stx.Mask&unix.STATX_BTIME == 0 {
		return info.ModTime()
	}

	return time.Unix(stx.Btime.Sec, int64(stx.Btime.Nsec))
}
