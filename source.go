package zipwright

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Walk enumerates regular files under the given roots and builds one
// FileTask per file. Roots may be files or directories; directories are
// walked recursively. Irregular files (symlinks, devices, sockets) are
// skipped.
func Walk(fsys afero.Fs, roots ...string) ([]FileTask, error) {
	var tasks []FileTask
	for _, root := range roots {
		info, err := fsys.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("zipwright: walk %s: %w", root, err)
		}
		if !info.IsDir() {
			if info.Mode().IsRegular() {
				tasks = append(tasks, newFileTask(fsys, root, info.Size()))
			}
			continue
		}
		err = afero.Walk(fsys, root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() || !info.Mode().IsRegular() {
				return nil
			}
			tasks = append(tasks, newFileTask(fsys, path, info.Size()))
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("zipwright: walk %s: %w", root, err)
		}
	}
	return tasks, nil
}

func newFileTask(fsys afero.Fs, path string, size int64) FileTask {
	return FileTask{
		Name: filepath.ToSlash(path),
		Size: size,
		Open: func() (io.ReadCloser, error) {
			return fsys.Open(path)
		},
	}
}
