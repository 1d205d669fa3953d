package ports

import (
	"os"
	"time"
)

// FileInfo contains file metadata.
type FileInfo struct {
	Size    int64
	Mode    os.FileMode
	ModTime time.Time
	IsDir   bool
}

// FileSystem provides the file system operations the updater needs: checking
// that backup artifacts exist and are non-empty, preparing dump directories,
// and removing stray files left behind by updates.
type FileSystem interface {
	Exists(path string) bool
	IsDir(path string) bool
	MkdirAll(path string, perm os.FileMode) error
	RemoveAll(path string) error
	GetFileInfo(path string) (FileInfo, error)
}
