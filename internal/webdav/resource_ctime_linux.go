//go:build linux

package webdav

import (
	"io/fs"
	"syscall"
	"time"
)

// createdAt uses the inode change time, linux does not expose birth time through stat(2).
func createdAt(info fs.FileInfo) time.Time {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return info.ModTime()
	}
	return time.Unix(st.Ctim.Unix())
}
