//go:build unix && !linux

package files

import "io/fs"

func createdTime(info fs.FileInfo) int64 {
	return info.ModTime().UnixMilli()
}
