//go:build linux

package scan

import (
	"io/fs"
	"syscall"
	"time"

	"fedindex/internal/model"
)

func fileTimes(info fs.FileInfo) (created, modified, accessed time.Time) {
	modified = info.ModTime()
	created, accessed = modified, modified
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		created = time.Unix(st.Ctim.Sec, st.Ctim.Nsec)
		accessed = time.Unix(st.Atim.Sec, st.Atim.Nsec)
	}
	return created, modified, accessed
}

func fileMeta(info fs.FileInfo) *model.FileMeta {
	m := &model.FileMeta{Mode: uint32(info.Mode().Perm())}
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		m.UID = st.Uid
		m.GID = st.Gid
		m.Blocks = st.Blocks
	}
	return m
}
