package storage

import (
	"io"
)

type FileInfo struct {
	Name string
	Size int64
}

// Storage gives read access to the files of a dataset snapshot.
type Storage interface {
	OpenFile(path string) (io.ReadSeekCloser, error)
	Stat(path string) (FileInfo, error)
	GetFilePath(path string) string
}
