//go:build unix

package cmd

import (
	"strconv"

	"golang.org/x/sys/unix"
)

// inode returns the inode number of path, or "" when it cannot be read.
func inode(path string) string {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return ""
	}
	return strconv.FormatUint(uint64(st.Ino), 10) //nolint:unconvert // Ino width differs per platform
}
