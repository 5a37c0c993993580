//go:build !linux

package scan

import (
	"io/fs"
	"time"

	"fedindex/internal/model"
)

func fileTimes(info fs.FileInfo) (created, modified, accessed time.Time) {
	modified = info.ModTime()
	return modified, modified, modified
}

func fileMeta(info fs.FileInfo) *model.FileMeta {
	return &model.FileMeta{Mode: uint32(info.Mode().Perm())}
}
