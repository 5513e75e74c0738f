//go:build unix

package files

import (
	"io/fs"
	"os/user"
	"strconv"
	"sync"
	"syscall"
)

var ownerCache sync.Map // uid -> username

// fileOwner resolves the owning user name via the uid in the stat data.
func fileOwner(info fs.FileInfo) string {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return ""
	}
	uid := strconv.FormatUint(uint64(st.Uid), 10)
	if name, ok := ownerCache.Load(uid); ok {
		return name.(string)
	}
	name := uid
	if u, err := user.LookupId(uid); err == nil {
		name = u.Username
	}
	ownerCache.Store(uid, name)
	return name
}
