//go:build linux

package files

import (
	"io/fs"
	"syscall"
)

// createdTime returns the best available creation timestamp in epoch millis.
// Linux does not expose birth time through stat, so ctime stands in.
func createdTime(info fs.FileInfo) int64 {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return st.Ctim.Sec*1000 + st.Ctim.Nsec/1e6
	}
	return info.ModTime().UnixMilli()
}
