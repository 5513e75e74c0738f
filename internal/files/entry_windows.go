//go:build windows

package files

import "io/fs"

// fileOwner is not resolved on Windows.
func fileOwner(info fs.FileInfo) string {
	return ""
}

func createdTime(info fs.FileInfo) int64 {
	return info.ModTime().UnixMilli()
}
