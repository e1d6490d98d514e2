//go:build !linux

package storage

import (
	"io/fs"
	"time"
)

// changeTime falls back to the modification time where the inode change
// time is not exposed uniformly.
func changeTime(info fs.FileInfo) time.Time {
	return info.ModTime()
}
